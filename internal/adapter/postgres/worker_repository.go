package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

const workerColumns = `id, name, role, status, last_seen, orders_processed, created_at`

type workerRepository struct {
	db DB
}

func NewWorkerRepository(db DB) interfaces.WorkerRepository {
	return &workerRepository{db: db}
}

// Create registers the worker. A worker restarting under the same name is
// brought back online and keeps its counters.
func (r *workerRepository) Create(ctx context.Context, worker *domain.Worker) error {
	query := `
		INSERT INTO workers (name, role, status, last_seen, orders_processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE
		SET role = EXCLUDED.role, status = EXCLUDED.status, last_seen = EXCLUDED.last_seen
		RETURNING id, orders_processed, created_at
	`
	err := r.db.QueryRow(ctx, query,
		worker.Name, worker.Role, worker.Status, worker.LastSeen, worker.OrdersProcessed, worker.CreatedAt,
	).Scan(&worker.ID, &worker.OrdersProcessed, &worker.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return nil
}

func (r *workerRepository) FindByName(ctx context.Context, name string) (*domain.Worker, error) {
	worker, err := scanWorker(r.db.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWorkerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find worker: %w", err)
	}
	return worker, nil
}

func (r *workerRepository) Update(ctx context.Context, worker *domain.Worker) error {
	query := `
		UPDATE workers
		SET role = $1, status = $2, last_seen = $3, orders_processed = $4
		WHERE name = $5
	`
	tag, err := r.db.Exec(ctx, query,
		worker.Role, worker.Status, worker.LastSeen, worker.OrdersProcessed, worker.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to update worker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkerNotFound
	}
	return nil
}

func (r *workerRepository) UpdateHeartbeat(ctx context.Context, name string) error {
	query := `
		UPDATE workers
		SET last_seen = $1, status = $2
		WHERE name = $3
	`
	_, err := r.db.Exec(ctx, query, time.Now().UTC(), domain.WorkerStatusOnline, name)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

func (r *workerRepository) ListAll(ctx context.Context) ([]*domain.Worker, error) {
	rows, err := r.db.Query(ctx, `SELECT `+workerColumns+` FROM workers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	workers := []*domain.Worker{}
	for rows.Next() {
		worker, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, worker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read workers: %w", err)
	}

	return workers, nil
}

func (r *workerRepository) IncrementOrdersProcessed(ctx context.Context, name string) error {
	query := `
		UPDATE workers
		SET orders_processed = orders_processed + 1
		WHERE name = $1
	`
	_, err := r.db.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to increment orders processed: %w", err)
	}
	return nil
}

func scanWorker(row pgx.Row) (*domain.Worker, error) {
	var worker domain.Worker
	err := row.Scan(
		&worker.ID, &worker.Name, &worker.Role, &worker.Status,
		&worker.LastSeen, &worker.OrdersProcessed, &worker.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &worker, nil
}
