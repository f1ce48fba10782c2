// internal/app/features/telegramhook/routes.go
package telegramhook

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/webhook", h.ServeStatus)
	r.Post("/webhook", h.Serve)
	return r
}
