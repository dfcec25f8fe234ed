// internal/workspaceapi/handlers.go
package workspaceapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"workspaced/internal/keycloak"
	"workspaced/internal/provisioning"
	"workspaced/pkg/commands"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the provisioning error taxonomy onto transport statuses:
// validation 422, realm conflict 409, auth failures keep the provider's
// verdict as 401, anything else from the provider side is a 502 with the
// failed stage when known.
func writeErr(w http.ResponseWriter, err error) {
	var vs commands.Violations
	if errors.As(err, &vs) {
		writeJSON(w, map[string]any{"error": "validation_failed", "violations": vs}, http.StatusUnprocessableEntity)
		return
	}
	if errors.Is(err, keycloak.ErrRealmExists) {
		writeJSON(w, map[string]any{"error": "workspace_exists", "detail": err.Error()}, http.StatusConflict)
		return
	}
	// stage failures first: an AuthError inside a StageError is the admin
	// token exchange, a service fault, not the caller's credentials
	var se *provisioning.StageError
	if errors.As(err, &se) {
		writeJSON(w, map[string]any{"error": "provisioning_failed", "stage": se.Stage, "detail": se.Err.Error()}, http.StatusBadGateway)
		return
	}
	var ae *keycloak.AuthError
	if errors.As(err, &ae) {
		writeJSON(w, map[string]any{"error": "authentication_failed", "status": ae.Status, "detail": ae.Body}, http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]any{"error": "provider_error", "detail": err.Error()}, http.StatusBadGateway)
}

func (a *App) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateWorkspace
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, map[string]any{"error": "bad_json"}, http.StatusBadRequest)
		return
	}
	ws, err := a.prov.CreateWorkspace(r.Context(), cmd)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, ws, http.StatusCreated)
}

func (a *App) getWorkspace(w http.ResponseWriter, r *http.Request) {
	realm := chi.URLParam(r, "realm")
	exists, err := a.prov.WorkspaceExists(r.Context(), realm)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !exists {
		writeJSON(w, map[string]any{"error": "not_found"}, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"realm_name": realm}, http.StatusOK)
}

func (a *App) getRealmCerts(w http.ResponseWriter, r *http.Request) {
	realm := chi.URLParam(r, "realm")
	certs, err := a.prov.RealmCerts(r.Context(), realm)
	if err != nil {
		var apiErr *keycloak.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			writeJSON(w, map[string]any{"error": "not_found"}, http.StatusNotFound)
			return
		}
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(certs)
}

func (a *App) createUser(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateUser
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, map[string]any{"error": "bad_json"}, http.StatusBadRequest)
		return
	}
	cmd.RealmName = chi.URLParam(r, "realm")
	if err := a.prov.CreateUser(r.Context(), cmd); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"created": true, "username": cmd.Username}, http.StatusCreated)
}

func (a *App) rotateClientSecret(w http.ResponseWriter, r *http.Request) {
	realm := chi.URLParam(r, "realm")
	clientUUID := chi.URLParam(r, "uuid")
	secret, err := a.prov.RotateClientSecret(r.Context(), realm, clientUUID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"client_uuid": clientUUID, "client_secret": secret}, http.StatusOK)
}

// loginRequest carries the LoginUser command plus the client credentials the
// token exchange is scoped to. Client id defaults to "<realm>-client".
type loginRequest struct {
	commands.LoginUser
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, map[string]any{"error": "bad_json"}, http.StatusBadRequest)
		return
	}
	if req.ClientID == "" && req.RealmName != "" {
		req.ClientID = req.RealmName + "-client"
	}
	ts, err := a.prov.Login(r.Context(), req.LoginUser, req.ClientID, req.ClientSecret)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, ts, http.StatusOK)
}

type validateRequest struct {
	RealmName string `json:"realm_name"`
	Token     string `json:"token"`
}

func (a *App) validateSession(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, map[string]any{"error": "bad_json"}, http.StatusBadRequest)
		return
	}
	if req.RealmName == "" || req.Token == "" {
		writeJSON(w, map[string]any{"error": "missing required fields"}, http.StatusBadRequest)
		return
	}
	sess, err := a.sessions.Validate(r.Context(), req.RealmName, req.Token)
	if err != nil {
		writeJSON(w, map[string]any{"error": "invalid_token", "detail": err.Error()}, http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]any{"subject": sess.Subject, "realm": sess.Realm}, http.StatusOK)
}
