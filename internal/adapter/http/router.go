package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
)

func newRouter(service string, lgr logger.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware(lgr))
	r.Use(RecoveryMiddleware(lgr))
	r.Use(metrics.Middleware(service))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

func NewOrderRouter(h *OrderHandler, lgr logger.Logger) http.Handler {
	r := newRouter("order-service", lgr)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}/items", h.UpdateItems)
		r.Post("/{id}/advance", h.AdvanceOrder)
		r.Post("/{id}/cancel", h.CancelOrder)
		r.Post("/{id}/payment-reference", h.AttachPaymentReference)
	})
	r.Post("/payments/confirm", h.ConfirmPayment)

	return r
}

func NewCatalogRouter(h *CatalogHandler, lgr logger.Logger) http.Handler {
	r := newRouter("catalog-service", lgr)

	r.Route("/dishes", func(r chi.Router) {
		r.Post("/", h.CreateDish)
		r.Get("/", h.ListDishes)
		r.Put("/order", h.ReorderDishes)
	})
	r.Route("/menus", func(r chi.Router) {
		r.Post("/", h.CreateMenu)
		r.Get("/", h.ListMenus)
		r.Put("/order", h.ReorderMenus)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Post("/", h.CreateCategory)
		r.Get("/", h.ListCategories)
		r.Put("/order", h.ReorderCategories)
	})

	return r
}

func NewTrackingRouter(h *TrackingHandler, lgr logger.Logger) http.Handler {
	r := newRouter("tracking-service", lgr)

	r.Get("/orders/{number}/status", h.GetOrderStatus)
	r.Get("/orders/{number}/history", h.GetOrderHistory)
	r.Get("/workers/status", h.GetWorkersStatus)

	return r
}
