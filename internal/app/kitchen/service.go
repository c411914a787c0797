package kitchen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type Service struct {
	orderRepo         interfaces.OrderRepository
	workerRepo        interfaces.WorkerRepository
	orders            interfaces.OrderService
	logger            logger.Logger
	workerName        string
	heartbeatInterval time.Duration
	cook              func(ctx context.Context, d time.Duration) error
}

func NewService(
	orderRepo interfaces.OrderRepository,
	workerRepo interfaces.WorkerRepository,
	orders interfaces.OrderService,
	logger logger.Logger,
	workerName string,
	heartbeatInterval time.Duration,
) *Service {
	return &Service{
		orderRepo:         orderRepo,
		workerRepo:        workerRepo,
		orders:            orders,
		logger:            logger,
		workerName:        workerName,
		heartbeatInterval: heartbeatInterval,
		cook:              sleep,
	}
}

// Start registers the worker and keeps its heartbeat until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	worker, err := s.workerRepo.FindByName(ctx, s.workerName)
	switch {
	case err == nil:
		if worker.EffectiveStatus(time.Now().UTC(), 2*s.heartbeatInterval) == domain.WorkerStatusOnline {
			return fmt.Errorf("worker with name %s is already online", s.workerName)
		}
		worker.UpdateHeartbeat(time.Now().UTC())
		if err := s.workerRepo.Update(ctx, worker); err != nil {
			return err
		}
	case errors.Is(err, domain.ErrWorkerNotFound):
		worker, err = domain.NewWorker(s.workerName)
		if err != nil {
			return err
		}
		if err := s.workerRepo.Create(ctx, worker); err != nil {
			return err
		}
	default:
		return err
	}

	s.logger.Info("worker_registered", fmt.Sprintf("Worker %s registered", s.workerName), "", nil)

	go s.heartbeatLoop(ctx)
	return nil
}

func (s *Service) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.workerRepo.UpdateHeartbeat(ctx, s.workerName); err != nil {
				s.logger.Error("heartbeat_failed", "Failed to update heartbeat", "", nil, err)
			} else {
				s.logger.Debug("heartbeat_sent", "Heartbeat sent", "", nil)
			}
		}
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	worker, err := s.workerRepo.FindByName(ctx, s.workerName)
	if err != nil {
		return err
	}
	worker.SetOffline()
	return s.workerRepo.Update(ctx, worker)
}

// ProcessOrder cooks one paid order. An IN_PROGRESS order is resumed when
// this worker holds it or its holder is no longer online; any other status
// means the message is a redelivery and it is acknowledged without work.
func (s *Service) ProcessOrder(ctx context.Context, msg interfaces.OrderMessage) error {
	order, err := s.orderRepo.FindByNumber(ctx, msg.OrderNumber)
	if err != nil {
		metrics.ObserveKitchenOrder(s.workerName, "error")
		return err
	}

	switch order.Status {
	case domain.StatusPaid:
		s.logger.Debug("order_processing_started", fmt.Sprintf("Processing order %s", order.Number), "",
			map[string]interface{}{"order_number": order.Number})

		order, err = s.orders.AdvanceOrder(ctx, order.ID, domain.RoleKitchen, s.workerName)
		if errors.Is(err, domain.ErrConflict) {
			// another worker took it first
			metrics.ObserveKitchenOrder(s.workerName, "skipped")
			return nil
		}
		if err != nil {
			metrics.ObserveKitchenOrder(s.workerName, "error")
			return err
		}
		return s.finish(ctx, order, order.GetCookingTime())

	case domain.StatusInProgress:
		resume, err := s.canResume(ctx, order)
		if err != nil {
			metrics.ObserveKitchenOrder(s.workerName, "error")
			return err
		}
		if !resume {
			s.skip(order)
			return nil
		}

		s.logger.Info("order_processing_resumed", fmt.Sprintf("Resuming order %s", order.Number), "",
			map[string]interface{}{"order_number": order.Number, "processed_by": holder(order)})
		return s.finish(ctx, order, remainingCookingTime(order, time.Now().UTC()))

	default:
		s.skip(order)
		return nil
	}
}

// finish cooks an IN_PROGRESS order for d and moves it to READY.
func (s *Service) finish(ctx context.Context, order *domain.Order, d time.Duration) error {
	if err := s.cook(ctx, d); err != nil {
		return err
	}

	if _, err := s.orders.AdvanceOrder(ctx, order.ID, domain.RoleKitchen, s.workerName); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.ObserveKitchenOrder(s.workerName, "skipped")
			return nil
		}
		metrics.ObserveKitchenOrder(s.workerName, "error")
		return err
	}

	if err := s.workerRepo.IncrementOrdersProcessed(ctx, s.workerName); err != nil {
		s.logger.Error("db_error", "Failed to increment worker stats", "", nil, err)
	}

	metrics.ObserveKitchenOrder(s.workerName, "cooked")
	s.logger.Debug("order_completed", fmt.Sprintf("Order %s completed", order.Number), "", nil)
	return nil
}

// canResume reports whether an IN_PROGRESS order may be picked up by this
// worker: it was claimed by us, by nobody, or by a worker that went away.
func (s *Service) canResume(ctx context.Context, order *domain.Order) (bool, error) {
	if order.ProcessedBy == nil || *order.ProcessedBy == s.workerName {
		return true, nil
	}

	w, err := s.workerRepo.FindByName(ctx, *order.ProcessedBy)
	if errors.Is(err, domain.ErrWorkerNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return w.EffectiveStatus(time.Now().UTC(), 2*s.heartbeatInterval) != domain.WorkerStatusOnline, nil
}

func (s *Service) skip(order *domain.Order) {
	s.logger.Debug("order_skipped", fmt.Sprintf("Order %s is %s, skipping", order.Number, order.Status), "",
		map[string]interface{}{"order_number": order.Number, "status": order.Status, "processed_by": holder(order)})
	metrics.ObserveKitchenOrder(s.workerName, "skipped")
}

// remainingCookingTime is the cooking time left since the order entered
// IN_PROGRESS, never negative.
func remainingCookingTime(order *domain.Order, now time.Time) time.Duration {
	left := order.UpdatedAt.Add(order.GetCookingTime()).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

func holder(order *domain.Order) string {
	if order.ProcessedBy == nil {
		return ""
	}
	return *order.ProcessedBy
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
