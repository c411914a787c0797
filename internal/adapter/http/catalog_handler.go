package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type CatalogHandler struct {
	service interfaces.CatalogService
	logger  logger.Logger
}

func NewCatalogHandler(service interfaces.CatalogService, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
	}
}

type CreateDishRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=1000"`
	Price       decimal.Decimal `json:"price"`
}

type CreateGroupRequest struct {
	Name    string   `json:"name" validate:"required,max=100"`
	DishIDs []string `json:"dish_ids" validate:"omitempty,unique,dive,required"`
}

// SortItemRequest is one element of a reorder batch body.
type SortItemRequest struct {
	ID    string `json:"id" validate:"required"`
	Index *int   `json:"index" validate:"required,gte=0"`
}

type reorderRequest struct {
	Items []SortItemRequest `json:"items" validate:"unique=ID,dive"`
}

type DishResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
	Position    int             `json:"position"`
	CreatedAt   time.Time       `json:"created_at"`
}

type GroupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DishIDs   []string  `json:"dish_ids"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *CatalogHandler) CreateDish(w http.ResponseWriter, r *http.Request) {
	var req CreateDishRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dish, err := h.service.CreateDish(r.Context(), interfaces.CreateDishCommand{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, "dish_creation_failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, toDishResponse(*dish))
}

func (h *CatalogHandler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	menu, err := h.service.CreateMenu(r.Context(), interfaces.CreateGroupCommand{Name: req.Name, DishIDs: req.DishIDs})
	if err != nil {
		respondServiceError(w, r, h.logger, "menu_creation_failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, toMenuResponse(*menu))
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	category, err := h.service.CreateCategory(r.Context(), interfaces.CreateGroupCommand{Name: req.Name, DishIDs: req.DishIDs})
	if err != nil {
		respondServiceError(w, r, h.logger, "category_creation_failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, toCategoryResponse(*category))
}

func (h *CatalogHandler) ListDishes(w http.ResponseWriter, r *http.Request) {
	listHandler(h, h.service.ListDishes, toDishResponse)(w, r)
}

func (h *CatalogHandler) ListMenus(w http.ResponseWriter, r *http.Request) {
	listHandler(h, h.service.ListMenus, toMenuResponse)(w, r)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	listHandler(h, h.service.ListCategories, toCategoryResponse)(w, r)
}

func (h *CatalogHandler) ReorderDishes(w http.ResponseWriter, r *http.Request) {
	reorderHandler(h, h.service.ReorderDishes, toDishResponse)(w, r)
}

func (h *CatalogHandler) ReorderMenus(w http.ResponseWriter, r *http.Request) {
	reorderHandler(h, h.service.ReorderMenus, toMenuResponse)(w, r)
}

func (h *CatalogHandler) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	reorderHandler(h, h.service.ReorderCategories, toCategoryResponse)(w, r)
}

func listHandler[T, R any](h *CatalogHandler, list func(context.Context) ([]T, error), convert func(T) R) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := list(r.Context())
		if err != nil {
			respondServiceError(w, r, h.logger, "catalog_list_failed", err)
			return
		}

		resp := make([]R, len(items))
		for i, item := range items {
			resp[i] = convert(item)
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// reorderHandler accepts a JSON array of {"id","index"} pairs. Malformed
// batches never reach the service; an empty batch answers 204.
func reorderHandler[T, R any](
	h *CatalogHandler,
	reorder func(context.Context, []domain.SortInstruction) ([]T, error),
	convert func(T) R,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

		var req reorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req.Items); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest, nil)
			return
		}
		if err := validate.Struct(req); err != nil {
			respondValidationError(w, err)
			return
		}

		instructions := make([]domain.SortInstruction, len(req.Items))
		for i, item := range req.Items {
			instructions[i] = domain.SortInstruction{ID: item.ID, Index: *item.Index}
		}

		items, err := reorder(r.Context(), instructions)
		if err != nil {
			respondServiceError(w, r, h.logger, "catalog_reorder_failed", err)
			return
		}
		if len(instructions) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		resp := make([]R, len(items))
		for i, item := range items {
			resp[i] = convert(item)
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

func toDishResponse(d domain.Dish) DishResponse {
	return DishResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Available:   d.Available,
		Position:    d.Position,
		CreatedAt:   d.CreatedAt,
	}
}

func toMenuResponse(m domain.Menu) GroupResponse {
	return GroupResponse{ID: m.ID, Name: m.Name, DishIDs: nonNil(m.DishIDs), Position: m.Position, CreatedAt: m.CreatedAt}
}

func toCategoryResponse(c domain.Category) GroupResponse {
	return GroupResponse{ID: c.ID, Name: c.Name, DishIDs: nonNil(c.DishIDs), Position: c.Position, CreatedAt: c.CreatedAt}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
