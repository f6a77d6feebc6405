package routing

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/fulfillment-engine/internal/platform/httpx"
)

// Handler exposes routing HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/routing", func(r chi.Router) {
		r.Post("/plan", h.plan)                               // POST /api/v1/routing/plan (dry run)
		r.Get("/plans/order/{order_id}", h.getPlan)           // GET  /api/v1/routing/plans/order/{id}
		r.Get("/plans/order/{order_id}/history", h.listPlans) // GET  /api/v1/routing/plans/order/{id}/history
	})
}

func (h *Handler) plan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	plan, err := h.service.Plan(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, plan)
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.GetPlanByOrderID(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, plan)
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlansByOrderID(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, plans)
}
