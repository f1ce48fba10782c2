// internal/app/features/logbook/routes.go
package logbook

import "github.com/go-chi/chi/v5"

// Routes is mounted under /groups/{id}/logbook.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/new", h.ServeNew)
	r.Post("/new", h.HandleCreate)
	r.Get("/{entryID}", h.ServeEntry)
	r.Get("/{entryID}/edit", h.ServeEdit)
	r.Post("/{entryID}/edit", h.HandleUpdate)
	r.Post("/{entryID}/delete", h.HandleDelete)
	return r
}
