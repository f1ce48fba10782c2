// internal/app/features/profile/routes.go
package profile

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeView)
	r.Post("/", h.HandleUpdate)
	r.Post("/telegram-link", h.HandleIssueLinkToken)
	return r
}
