// internal/workspaceapi/server.go
package workspaceapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler builds the HTTP handler with routes.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	r.Route("/v1", func(vr chi.Router) {
		vr.Post("/workspaces", a.createWorkspace)
		vr.Get("/workspaces/{realm}", a.getWorkspace)
		vr.Get("/workspaces/{realm}/certs", a.getRealmCerts)
		vr.Post("/workspaces/{realm}/users", a.createUser)
		vr.Post("/workspaces/{realm}/clients/{uuid}/secret", a.rotateClientSecret)
		vr.Post("/sessions", a.login)
		vr.Post("/sessions/validate", a.validateSession)
	})

	return r
}
