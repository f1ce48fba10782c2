// internal/app/features/groups/routes.go
package groups

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/new", h.ServeNew)
	r.Post("/new", h.HandleCreate)
	r.Get("/{id}", h.ServeView)
	r.Post("/{id}/join", h.HandleJoin)
	r.Post("/{id}/leave", h.HandleLeave)
	r.Post("/{id}/delete", h.HandleDelete)
	r.Post("/{id}/members", h.HandleAddMember)
	r.Post("/{id}/members/{userID}/remove", h.HandleRemoveMember)
	return r
}
