package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all import routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Post("/", h.HandleCreateImport)
		r.Get("/{id}", h.HandleGetImport)
		r.Get("/{id}/summary", h.HandleGetSummary)
		r.Get("/{id}/export", h.HandleExportCSV)
	})
}
