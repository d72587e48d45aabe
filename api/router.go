package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/pthm-cable/orbfield/notes"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AllowOrigin is the Access-Control-Allow-Origin value; empty means "*".
	AllowOrigin string
	// Token enables Bearer auth when non-empty.
	Token string
}

// NewRouter creates a chi router serving the notes API.
func NewRouter(store notes.Store, opts RouterOptions) chi.Router {
	h := NewHandler(store)

	var extra []string
	if opts.Token != "" {
		extra = append(extra, "Authorization")
	}

	r := chi.NewRouter()
	r.Use(CORSMiddleware(opts.AllowOrigin, extra...))
	r.Use(AuthMiddleware(opts.Token != "", opts.Token))
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.PutNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	return r
}
