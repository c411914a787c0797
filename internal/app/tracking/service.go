package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

// Service answers read-only questions about orders and kitchen workers.
type Service struct {
	orderRepo  interfaces.OrderRepository
	workerRepo interfaces.WorkerRepository
	logger     logger.Logger
	// workers silent for longer than this are reported offline
	offlineAfter time.Duration
	now          func() time.Time
}

func NewService(orderRepo interfaces.OrderRepository, workerRepo interfaces.WorkerRepository, logger logger.Logger, offlineAfter time.Duration) *Service {
	return &Service{
		orderRepo:    orderRepo,
		workerRepo:   workerRepo,
		logger:       logger,
		offlineAfter: offlineAfter,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) GetOrderStatus(ctx context.Context, orderNumber string) (*interfaces.TrackingOrderResponse, error) {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	return &interfaces.TrackingOrderResponse{
		OrderNumber:         order.Number,
		CurrentStatus:       order.Status,
		UpdatedAt:           order.UpdatedAt,
		EstimatedCompletion: estimateCompletion(order, s.now()),
		ProcessedBy:         order.ProcessedBy,
	}, nil
}

// estimateCompletion predicts when the kitchen hands the order over. Only
// orders the kitchen still owes work on get an estimate: a PAID order waits
// for a full cook from now, an IN_PROGRESS one finishes its cook from the
// moment it started. An overdue cook is reported as due now.
func estimateCompletion(order *domain.Order, now time.Time) *time.Time {
	if !domain.IsKitchenVisible(order.Status) {
		return nil
	}

	started := order.UpdatedAt
	if order.Status.Precedes(domain.StatusInProgress) {
		started = now
	}

	est := started.Add(order.GetCookingTime())
	if est.Before(now) {
		est = now
	}
	return &est
}

func (s *Service) GetOrderHistory(ctx context.Context, orderNumber string) ([]*domain.StatusLog, error) {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	logs, err := s.orderRepo.GetStatusHistory(ctx, order.ID)
	if err != nil {
		s.logger.Error("db_query_failed", "Failed to load status history", "",
			map[string]interface{}{"order_number": order.Number}, err)
		return nil, fmt.Errorf("history of order %s: %w", order.Number, err)
	}
	return logs, nil
}

func (s *Service) GetWorkersStatus(ctx context.Context) ([]*interfaces.TrackingWorkerResponse, error) {
	workers, err := s.workerRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("db_query_failed", "Failed to list workers", "", nil, err)
		return nil, err
	}

	now := s.now()
	resp := make([]*interfaces.TrackingWorkerResponse, 0, len(workers))
	online := 0
	for _, w := range workers {
		status := w.EffectiveStatus(now, s.offlineAfter)
		if status == domain.WorkerStatusOnline {
			online++
		}
		resp = append(resp, &interfaces.TrackingWorkerResponse{
			WorkerName:      w.Name,
			Status:          status,
			OrdersProcessed: w.OrdersProcessed,
			LastSeen:        w.LastSeen,
		})
	}

	if online == 0 && len(workers) > 0 {
		s.logger.Info("no_workers_online", "No kitchen worker is online", "",
			map[string]interface{}{"workers": len(workers)})
	}
	return resp, nil
}
