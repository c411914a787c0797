package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

const orderColumns = `id, number, total_price, priority, status, payment_reference,
	payment_reference_hash, processed_by, created_at, updated_at, completed_at`

const orderNumberConstraint = "orders_number_key"

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	*order = domain.EnsurePaymentHash(*order)

	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO orders (` + orderColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err := tx.Exec(ctx, query,
			order.ID, order.Number, order.TotalPrice, order.Priority, order.Status,
			order.PaymentReference, order.PaymentReferenceHash, order.ProcessedBy,
			order.CreatedAt, order.UpdatedAt, order.CompletedAt,
		)
		if isUniqueViolation(err, orderNumberConstraint) {
			return fmt.Errorf("order number %s: %w", order.Number, domain.ErrDuplicateOrderNumber)
		}
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		if err := insertItems(ctx, tx, order); err != nil {
			return err
		}

		return logStatus(ctx, tx, order.ID, order.Status, "order-service", nil)
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = $1`, number)
}

func (r *orderRepository) FindByPaymentHash(ctx context.Context, hash string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_reference_hash = $1`, hash)
}

func (r *orderRepository) findOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

func (r *orderRepository) List(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	if len(statuses) == 0 {
		return []*domain.Order{}, nil
	}

	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = ANY($1) ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	ids := []string{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.Items = items[order.ID]
	}

	return orders, nil
}

func (r *orderRepository) ReplaceItems(ctx context.Context, order *domain.Order) error {
	*order = domain.EnsurePaymentHash(*order)

	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE orders
			SET total_price = $1, priority = $2, payment_reference_hash = $3, updated_at = $4
			WHERE id = $5 AND status = $6
		`
		tag, err := tx.Exec(ctx, query,
			order.TotalPrice, order.Priority, order.PaymentReferenceHash, order.UpdatedAt, order.ID, order.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("order %s left status %s: %w", order.ID, order.Status, domain.ErrConflict)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}

		return insertItems(ctx, tx, order)
	})
}

func (r *orderRepository) SavePaymentReference(ctx context.Context, order *domain.Order) error {
	*order = domain.EnsurePaymentHash(*order)

	query := `
		UPDATE orders
		SET payment_reference = $1, payment_reference_hash = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	tag, err := r.db.Exec(ctx, query,
		order.PaymentReference, order.PaymentReferenceHash, order.UpdatedAt, order.ID, order.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to save payment reference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s left status %s: %w", order.ID, order.Status, domain.ErrConflict)
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.Status, changedBy string, notes *string) error {
	*order = domain.EnsurePaymentHash(*order)

	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE orders
			SET status = $1, processed_by = $2, payment_reference_hash = $3, updated_at = $4, completed_at = $5
			WHERE id = $6 AND status = $7
		`
		tag, err := tx.Exec(ctx, query,
			order.Status, order.ProcessedBy, order.PaymentReferenceHash, order.UpdatedAt, order.CompletedAt,
			order.ID, expected,
		)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("order %s is no longer %s: %w", order.ID, expected, domain.ErrConflict)
		}

		return logStatus(ctx, tx, order.ID, order.Status, changedBy, notes)
	})
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	logs := []*domain.StatusLog{}
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status history: %w", err)
	}

	return logs, nil
}

func (r *orderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	now := time.Now().UTC()
	prefix := fmt.Sprintf("ORD_%s_", now.Format("20060102"))

	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE number LIKE $1`, prefix+"%").Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to count orders: %w", err)
	}

	return fmt.Sprintf("%s%03d", prefix, count+1), nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, dish_id, name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.DishID, &item.Name, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}

	return items, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.Number, &order.TotalPrice, &order.Priority, &order.Status,
		&order.PaymentReference, &order.PaymentReferenceHash, &order.ProcessedBy,
		&order.CreatedAt, &order.UpdatedAt, &order.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &order, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	query := `
		INSERT INTO order_items (order_id, dish_id, name, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := tx.QueryRow(ctx, query,
			order.ID, item.DishID, item.Name, item.Quantity, item.UnitPrice, order.UpdatedAt,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func logStatus(ctx context.Context, tx pgx.Tx, orderID string, status domain.Status, changedBy string, notes *string) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, query, orderID, status, changedBy, time.Now().UTC(), notes)
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
