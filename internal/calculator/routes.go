package calculator

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the calculation and history endpoints onto r.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/calculate", h.Calculate)
	r.Get("/history", h.History)
}
