package domain

import (
	"fmt"
	"time"
)

// Worker is a kitchen station process that cooks paid orders
type Worker struct {
	ID              int
	Name            string
	Role            Role
	Status          WorkerStatus
	LastSeen        time.Time
	OrdersProcessed int
	CreatedAt       time.Time
}

type WorkerStatus string

const (
	WorkerStatusOnline  WorkerStatus = "online"
	WorkerStatusOffline WorkerStatus = "offline"
)

// NewWorker registers a new kitchen worker
func NewWorker(name string) (*Worker, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: worker name is required", ErrValidation)
	}

	now := time.Now().UTC()
	return &Worker{
		Name:      name,
		Role:      RoleKitchen,
		Status:    WorkerStatusOnline,
		LastSeen:  now,
		CreatedAt: now,
	}, nil
}

// UpdateHeartbeat updates the worker's last seen timestamp
func (w *Worker) UpdateHeartbeat(now time.Time) {
	w.LastSeen = now
	w.Status = WorkerStatusOnline
}

// SetOffline marks the worker as offline
func (w *Worker) SetOffline() {
	w.Status = WorkerStatusOffline
}

// EffectiveStatus downgrades an online worker whose heartbeat is older than timeout.
func (w *Worker) EffectiveStatus(now time.Time, timeout time.Duration) WorkerStatus {
	if w.Status == WorkerStatusOnline && now.Sub(w.LastSeen) > timeout {
		return WorkerStatusOffline
	}
	return w.Status
}
