package journals

import "github.com/go-chi/chi/v5"

// MountRoutes attaches journal routes below /orgs/{orgID}/journals.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/history", h.History)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/post", h.Post)
	r.Post("/{id}/reverse", h.Reverse)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)
}
