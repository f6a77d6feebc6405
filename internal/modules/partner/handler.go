package partner

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/fulfillment-engine/internal/platform/httpx"
)

// Handler exposes partner HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/partners", func(r chi.Router) {
		r.Post("/", h.register)                   // POST /api/v1/partners
		r.Get("/", h.list)                        // GET  /api/v1/partners
		r.Post("/recommend", h.recommend)         // POST /api/v1/partners/recommend
		r.Get("/{id}", h.get)                     // GET  /api/v1/partners/{id}
		r.Post("/{id}/serviceability", h.addLane) // POST /api/v1/partners/{id}/serviceability
		r.Post("/{id}/stats", h.recordStats)      // POST /api/v1/partners/{id}/stats
		r.Patch("/{id}/active", h.setActive)      // PATCH /api/v1/partners/{id}/active
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	p, err := h.service.Register(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	partners, err := h.service.ListPartners(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, partners)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPartner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}

func (h *Handler) addLane(w http.ResponseWriter, r *http.Request) {
	var req ServiceabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	sv, err := h.service.AddServiceability(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, sv)
}

func (h *Handler) recordStats(w http.ResponseWriter, r *http.Request) {
	var req DeliveryStats
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	p, err := h.service.RecordDeliveryStats(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	p, err := h.service.SetActive(r.Context(), chi.URLParam(r, "id"), req.Active)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request) {
	var req Shipment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	rec, err := h.service.Recommend(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	status := http.StatusOK
	if !rec.Found {
		status = http.StatusUnprocessableEntity
	}
	httpx.Respond(w, status, rec)
}
