package inventory

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/fulfillment-engine/internal/platform/httpx"
)

// Handler exposes inventory HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/inventory", func(r chi.Router) {
		// Warehouse endpoints
		r.Post("/warehouses", h.createWarehouse)
		r.Get("/warehouses", h.listWarehouses) // ?active=true
		r.Get("/warehouses/{id}", h.getWarehouse)
		r.Patch("/warehouses/{id}/active", h.setActive)

		// Stock endpoints
		r.Post("/warehouses/{id}/stock", h.receiveStock)
		r.Get("/warehouses/{id}/stock/{sku}", h.getStockLevel)
	})
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var req CreateWarehouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	wh, err := h.service.CreateWarehouse(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, wh)
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	list, err := h.service.ListWarehouses(r.Context(), activeOnly)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, list)
}

func (h *Handler) getWarehouse(w http.ResponseWriter, r *http.Request) {
	wh, err := h.service.GetWarehouse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, wh)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	wh, err := h.service.SetWarehouseActive(r.Context(), chi.URLParam(r, "id"), req.Active)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, wh)
}

func (h *Handler) receiveStock(w http.ResponseWriter, r *http.Request) {
	var req ReceiveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	lvl, err := h.service.ReceiveStock(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, lvl)
}

func (h *Handler) getStockLevel(w http.ResponseWriter, r *http.Request) {
	lvl, err := h.service.GetStockLevel(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "sku"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, struct {
		StockLevel
		Available int `json:"available"`
	}{lvl, lvl.Available()})
}
