package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

type OrderStatusResponse struct {
	OrderNumber         string        `json:"order_number"`
	CurrentStatus       domain.Status `json:"current_status"`
	UpdatedAt           time.Time     `json:"updated_at"`
	EstimatedCompletion *time.Time    `json:"estimated_completion,omitempty"`
	ProcessedBy         *string       `json:"processed_by,omitempty"`
}

type HistoryEntryResponse struct {
	Status    domain.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	ChangedBy string        `json:"changed_by"`
	Notes     *string       `json:"notes,omitempty"`
}

type WorkerStatusResponse struct {
	WorkerName      string              `json:"worker_name"`
	Status          domain.WorkerStatus `json:"status"`
	OrdersProcessed int                 `json:"orders_processed"`
	LastSeen        time.Time           `json:"last_seen"`
}

func (h *TrackingHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetOrderStatus(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respondServiceError(w, r, h.logger, "order_status_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, OrderStatusResponse{
		OrderNumber:         result.OrderNumber,
		CurrentStatus:       result.CurrentStatus,
		UpdatedAt:           result.UpdatedAt,
		EstimatedCompletion: result.EstimatedCompletion,
		ProcessedBy:         result.ProcessedBy,
	})
}

func (h *TrackingHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetOrderHistory(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respondServiceError(w, r, h.logger, "order_history_failed", err)
		return
	}

	resp := make([]HistoryEntryResponse, len(history))
	for i, log := range history {
		resp[i] = HistoryEntryResponse{
			Status:    log.Status,
			Timestamp: log.ChangedAt,
			ChangedBy: log.ChangedBy,
			Notes:     log.Notes,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) GetWorkersStatus(w http.ResponseWriter, r *http.Request) {
	workers, err := h.service.GetWorkersStatus(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, "workers_status_failed", err)
		return
	}

	resp := make([]WorkerStatusResponse, len(workers))
	for i, worker := range workers {
		resp[i] = WorkerStatusResponse{
			WorkerName:      worker.WorkerName,
			Status:          worker.Status,
			OrdersProcessed: worker.OrdersProcessed,
			LastSeen:        worker.LastSeen,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
