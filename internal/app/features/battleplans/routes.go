// internal/app/features/battleplans/routes.go
package battleplans

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/new", h.ServeNew)
	r.Post("/new", h.HandleCreate)
	r.Get("/{id}", h.ServeView)
	r.Post("/{id}/delete", h.HandleDelete)
	return r
}
