package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,max=20,dive"`
}

// Item prices are range-checked by the order itself.
type OrderItemRequest struct {
	DishID   string          `json:"dish_id" validate:"omitempty,max=64"`
	Name     string          `json:"name" validate:"required,max=50"`
	Quantity int             `json:"quantity" validate:"required,gte=1,lte=10"`
	Price    decimal.Decimal `json:"price"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type PaymentReferenceRequest struct {
	Reference string `json:"reference" validate:"required,max=255"`
}

type OrderItemResponse struct {
	DishID    string          `json:"dish_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderResponse struct {
	ID                  string              `json:"id"`
	OrderNumber         string              `json:"order_number"`
	Status              domain.Status       `json:"status"`
	Priority            domain.Priority     `json:"priority"`
	TotalAmount         decimal.Decimal     `json:"total_amount"`
	Items               []OrderItemResponse `json:"items"`
	HasPaymentReference bool                `json:"has_payment_reference"`
	ProcessedBy         *string             `json:"processed_by,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	CompletedAt         *time.Time          `json:"completed_at,omitempty"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), interfaces.CreateOrderCommand{Items: convertItemsToCommand(req.Items)})
	if err != nil {
		respondServiceError(w, r, h.logger, "order_creation_failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	role, _, err := principal(r)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_list_failed", err)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), role)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_list_failed", err)
		return
	}

	resp := make([]OrderResponse, len(orders))
	for i, order := range orders {
		resp[i] = toOrderResponse(order)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	role, _, err := principal(r)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_get_failed", err)
		return
	}

	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"), role)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_get_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.service.UpdateItems(r.Context(), chi.URLParam(r, "id"), convertItemsToCommand(req.Items))
	if err != nil {
		respondServiceError(w, r, h.logger, "order_items_update_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	role, actor, err := principal(r)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_advance_failed", err)
		return
	}

	order, err := h.service.AdvanceOrder(r.Context(), chi.URLParam(r, "id"), role, actor)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_advance_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

// CancelOrder accepts an empty body; the reason is optional.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	role, actor, err := principal(r)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_cancel_failed", err)
		return
	}

	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"), role, actor, req.Reason)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_cancel_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) AttachPaymentReference(w http.ResponseWriter, r *http.Request) {
	var req PaymentReferenceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.service.AttachPaymentReference(r.Context(), chi.URLParam(r, "id"), req.Reference)
	if err != nil {
		respondServiceError(w, r, h.logger, "payment_reference_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

// ConfirmPayment is the provider callback; the order is found by its reference.
func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentReferenceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.service.ConfirmPayment(r.Context(), req.Reference)
	if err != nil {
		respondServiceError(w, r, h.logger, "payment_confirmation_failed", err)
		return
	}

	h.logger.Info("payment_confirmed", "Payment confirmed", RequestID(r.Context()), map[string]interface{}{
		"order_number": order.Number,
		"status":       order.Status,
	})
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func convertItemsToCommand(items []OrderItemRequest) []interfaces.CreateOrderItemCommand {
	result := make([]interfaces.CreateOrderItemCommand, len(items))
	for i, item := range items {
		result[i] = interfaces.CreateOrderItemCommand{
			DishID:    item.DishID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		}
	}
	return result
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			DishID:    item.DishID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	return OrderResponse{
		ID:                  o.ID,
		OrderNumber:         o.Number,
		Status:              o.Status,
		Priority:            o.Priority,
		TotalAmount:         o.TotalPrice,
		Items:               items,
		HasPaymentReference: o.PaymentReference != nil,
		ProcessedBy:         o.ProcessedBy,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		CompletedAt:         o.CompletedAt,
	}
}
