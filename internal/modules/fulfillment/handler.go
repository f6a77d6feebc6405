package fulfillment

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/allocation"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/sla"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/httpx"
)

// Handler exposes fulfillment HTTP endpoints.
type Handler struct {
	service  Service
	defaults allocation.Config
}

// NewHandler builds a handler. defaults fill the config of ad-hoc allocation requests that omit it.
func NewHandler(service Service, defaults allocation.Config) *Handler {
	return &Handler{service: service, defaults: defaults}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/fulfillment", func(r chi.Router) {
		r.Post("/plan", h.plan)                         // POST /api/v1/fulfillment/plan
		r.Post("/allocate", h.allocate)                 // POST /api/v1/fulfillment/allocate
		r.Post("/sla", h.computeSLA)                    // POST /api/v1/fulfillment/sla
		r.Post("/orders/{id}/fulfill", h.fulfill)       // POST /api/v1/fulfillment/orders/{id}/fulfill
		r.Post("/orders/{id}/partner", h.assignPartner) // POST /api/v1/fulfillment/orders/{id}/partner
		r.Post("/orders/{id}/dispatch", h.dispatch)     // POST /api/v1/fulfillment/orders/{id}/dispatch
		r.Get("/orders/{id}/decision", h.decision)      // GET  /api/v1/fulfillment/orders/{id}/decision
	})
}

func (h *Handler) plan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	plan, err := h.service.PlanOrder(r.Context(), req.OrderID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, plan)
}

func (h *Handler) allocate(w http.ResponseWriter, r *http.Request) {
	req := allocation.Request{Config: h.defaults}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	result, err := h.service.AllocateInventory(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, result)
}

func (h *Handler) computeSLA(w http.ResponseWriter, r *http.Request) {
	var req SLARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}

	class := zone.ParseRouteClass(req.RouteClass)
	if req.RouteClass == "" {
		if req.Origin == nil || req.Destination == nil {
			httpx.Error(w, apperr.InvalidInput("fulfillment.ComputeSLA", "route_class or origin and destination are required"))
			return
		}
		class = h.service.ClassifyRoute(*req.Origin, *req.Destination)
	}
	placedAt := time.Now().UTC()
	if req.PlacedAt != nil {
		placedAt = *req.PlacedAt
	}

	c, err := h.service.ComputeSLA(r.Context(), sla.ParseTier(req.Tier), class, placedAt)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}

func (h *Handler) fulfill(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Fulfill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, d)
}

func (h *Handler) assignPartner(w http.ResponseWriter, r *http.Request) {
	var req AssignPartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	plan, err := h.service.AssignPartner(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, plan)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.MarkDispatched(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, o)
}

func (h *Handler) decision(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetDecision(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, d)
}
