package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

func newOrderRepo(t *testing.T) (interfaces.OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewOrderRepository(mock), mock
}

func sampleOrder() *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		ID:         "order-1",
		Number:     "ORD_20260101_001",
		TotalPrice: decimal.RequireFromString("21.50"),
		Priority:   domain.PriorityLow,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		Items: []domain.OrderItem{
			{DishID: "dish-1", Name: "Margherita", Quantity: 1, UnitPrice: decimal.RequireFromString("12.50")},
			{DishID: "dish-2", Name: "Lemonade", Quantity: 3, UnitPrice: decimal.RequireFromString("3.00")},
		},
	}
}

func orderRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "number", "total_price", "priority", "status", "payment_reference",
		"payment_reference_hash", "processed_by", "created_at", "updated_at", "completed_at",
	})
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func itemRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "order_id", "dish_id", "name", "quantity", "unit_price"})
}

func TestOrderRepository_Create_Success(t *testing.T) {
	repo, mock := newOrderRepo(t)
	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.Number, o.TotalPrice, o.Priority, o.Status,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			o.CreatedAt, o.UpdatedAt, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for i, item := range o.Items {
		mock.ExpectQuery("INSERT INTO order_items").
			WithArgs(o.ID, item.DishID, item.Name, item.Quantity, item.UnitPrice, o.UpdatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(i + 1))
	}
	mock.ExpectExec("INSERT INTO order_status_log").
		WithArgs(o.ID, domain.StatusPending, "order-service", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))

	assert.Equal(t, 1, o.Items[0].ID)
	assert.Equal(t, 2, o.Items[1].ID)
	assert.Equal(t, o.ID, o.Items[1].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_HashesPaymentReference(t *testing.T) {
	repo, mock := newOrderRepo(t)
	o := sampleOrder()
	o.Items = nil
	ref := "cs_test_123"
	o.PaymentReference = &ref
	want := domain.HashPaymentReference(ref)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.Number, o.TotalPrice, o.Priority, o.Status,
			&ref, &want, pgxmock.AnyArg(),
			o.CreatedAt, o.UpdatedAt, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_status_log").
		WithArgs(o.ID, domain.StatusPending, "order-service", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	require.NotNil(t, o.PaymentReferenceHash)
	assert.Equal(t, want, *o.PaymentReferenceHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_InsertError(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(anyArgs(11)...).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert order: connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_DuplicateNumber(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(anyArgs(11)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "orders_number_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleOrder())
	assert.ErrorIs(t, err, domain.ErrDuplicateOrderNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_OtherUniqueViolation(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(anyArgs(11)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateOrderNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_BeginError(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindByID_Success(t *testing.T) {
	repo, mock := newOrderRepo(t)
	now := time.Now().UTC().Truncate(time.Microsecond)
	processedBy := "cashier-1"

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs("order-1").
		WillReturnRows(orderRows().AddRow(
			"order-1", "ORD_20260101_001", decimal.RequireFromString("21.50"), domain.PriorityLow,
			domain.StatusReady, nil, nil, &processedBy, now, now, nil,
		))
	mock.ExpectQuery("FROM order_items").
		WithArgs([]string{"order-1"}).
		WillReturnRows(itemRows().
			AddRow(1, "order-1", "dish-1", "Margherita", 1, decimal.RequireFromString("12.50")).
			AddRow(2, "order-1", "dish-2", "Lemonade", 3, decimal.RequireFromString("3.00")))

	order, err := repo.FindByID(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Equal(t, "ORD_20260101_001", order.Number)
	assert.Equal(t, domain.StatusReady, order.Status)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("21.50")))
	require.NotNil(t, order.ProcessedBy)
	assert.Equal(t, "cashier-1", *order.ProcessedBy)
	assert.Nil(t, order.PaymentReference)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Lemonade", order.Items[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs("missing").
		WillReturnRows(orderRows())

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindByPaymentHash(t *testing.T) {
	repo, mock := newOrderRepo(t)
	now := time.Now().UTC().Truncate(time.Microsecond)
	ref := "cs_test_123"
	hash := domain.HashPaymentReference(ref)

	mock.ExpectQuery("WHERE payment_reference_hash").
		WithArgs(hash).
		WillReturnRows(orderRows().AddRow(
			"order-1", "ORD_20260101_001", decimal.RequireFromString("9.00"), domain.PriorityLow,
			domain.StatusApproving, &ref, &hash, nil, now, now, nil,
		))
	mock.ExpectQuery("FROM order_items").
		WithArgs([]string{"order-1"}).
		WillReturnRows(itemRows())

	order, err := repo.FindByPaymentHash(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproving, order.Status)
	require.NotNil(t, order.PaymentReferenceHash)
	assert.Equal(t, hash, *order.PaymentReferenceHash)
	assert.Empty(t, order.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List(t *testing.T) {
	repo, mock := newOrderRepo(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("WHERE status = ANY").
		WithArgs([]string{"PAID", "IN_PROGRESS"}).
		WillReturnRows(orderRows().
			AddRow("order-2", "ORD_20260101_002", decimal.RequireFromString("5.00"), domain.PriorityLow,
				domain.StatusInProgress, nil, nil, nil, now, now, nil).
			AddRow("order-1", "ORD_20260101_001", decimal.RequireFromString("7.00"), domain.PriorityLow,
				domain.StatusPaid, nil, nil, nil, now, now, nil))
	mock.ExpectQuery("FROM order_items").
		WithArgs([]string{"order-2", "order-1"}).
		WillReturnRows(itemRows().
			AddRow(1, "order-1", "dish-1", "Soup", 1, decimal.RequireFromString("7.00")).
			AddRow(2, "order-2", "dish-2", "Tea", 1, decimal.RequireFromString("5.00")))

	orders, err := repo.List(context.Background(), []domain.Status{domain.StatusPaid, domain.StatusInProgress})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "Tea", orders[0].Items[0].Name)
	assert.Equal(t, "Soup", orders[1].Items[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_NoStatuses(t *testing.T) {
	repo, mock := newOrderRepo(t)

	orders, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_Success(t *testing.T) {
	repo, mock := newOrderRepo(t)
	o := sampleOrder()
	o.Status = domain.StatusCheckout
	notes := "moved by customer"

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").
		WithArgs(domain.StatusCheckout, pgxmock.AnyArg(), pgxmock.AnyArg(), o.UpdatedAt, pgxmock.AnyArg(),
			o.ID, domain.StatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO order_status_log").
		WithArgs(o.ID, domain.StatusCheckout, "customer-7", pgxmock.AnyArg(), &notes).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), o, domain.StatusPending, "customer-7", &notes)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_Conflict(t *testing.T) {
	repo, mock := newOrderRepo(t)
	o := sampleOrder()
	o.Status = domain.StatusInProgress

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").
		WithArgs(domain.StatusInProgress, pgxmock.AnyArg(), pgxmock.AnyArg(), o.UpdatedAt, pgxmock.AnyArg(),
			o.ID, domain.StatusPaid).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.UpdateStatus(context.Background(), o, domain.StatusPaid, "kitchen-1", nil)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_SavePaymentReference_KeepsExistingHash(t *testing.T) {
	repo, mock := newOrderRepo(t)
	o := sampleOrder()
	first := "cs_first"
	second := "cs_second"
	firstHash := domain.HashPaymentReference(first)
	o.PaymentReference = &second
	o.PaymentReferenceHash = &firstHash

	mock.ExpectExec("UPDATE orders").
		WithArgs(&second, &firstHash, o.UpdatedAt, o.ID, o.Status).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SavePaymentReference(context.Background(), o))
	assert.Equal(t, firstHash, *o.PaymentReferenceHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_SavePaymentReference_Conflict(t *testing.T) {
	repo, mock := newOrderRepo(t)
	o := sampleOrder()
	ref := "cs_test"
	o.PaymentReference = &ref
	hash := domain.HashPaymentReference(ref)

	mock.ExpectExec("UPDATE orders").
		WithArgs(&ref, &hash, o.UpdatedAt, o.ID, o.Status).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SavePaymentReference(context.Background(), o)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_ReplaceItems(t *testing.T) {
	repo, mock := newOrderRepo(t)
	o := sampleOrder()
	o.Items = o.Items[:1]

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").
		WithArgs(o.TotalPrice, o.Priority, pgxmock.AnyArg(), o.UpdatedAt, o.ID, o.Status).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM order_items").
		WithArgs(o.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(o.ID, "dish-1", "Margherita", 1, o.Items[0].UnitPrice, o.UpdatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceItems(context.Background(), o))
	assert.Equal(t, 3, o.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetStatusHistory(t *testing.T) {
	repo, mock := newOrderRepo(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("FROM order_status_log").
		WithArgs("order-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "status", "changed_by", "changed_at", "notes"}).
			AddRow(1, "order-1", domain.StatusPending, "order-service", now, nil).
			AddRow(2, "order-1", domain.StatusCheckout, "customer-7", now.Add(time.Second), nil))

	logs, err := repo.GetStatusHistory(context.Background(), "order-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.StatusCheckout, logs[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GenerateOrderNumber(t *testing.T) {
	repo, mock := newOrderRepo(t)
	prefix := "ORD_" + time.Now().UTC().Format("20060102") + "_"

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(prefix + "%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(41))

	number, err := repo.GenerateOrderNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prefix+"042", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}
