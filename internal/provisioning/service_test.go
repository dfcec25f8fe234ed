// internal/provisioning/service_test.go
package provisioning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workspaced/internal/keycloak"
	"workspaced/pkg/commands"
)

// fakeKeycloak is a scripted identity provider. It records every call in
// order as "METHOD path" and lets individual endpoints be failed.
type fakeKeycloak struct {
	t          *testing.T
	srv        *httptest.Server
	calls      []string
	realmTaken bool
	failRole   string // role name whose creation 400s
	failMapper bool
	failClient bool
	tokenBody  string
}

func newFakeKeycloak(t *testing.T) *fakeKeycloak {
	f := &fakeKeycloak{t: t, tokenBody: `{"access_token":"admin-tok","expires_in":60}`}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeKeycloak) handle(w http.ResponseWriter, r *http.Request) {
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	switch {
	case strings.HasSuffix(r.URL.Path, "/protocol/openid-connect/token"):
		_, _ = w.Write([]byte(f.tokenBody))
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/admin/realms/"):
		if f.realmTaken {
			_, _ = w.Write([]byte(`{"realm":"acme"}`))
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPost && r.URL.Path == "/admin/realms":
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/clients"):
		if f.failClient {
			http.Error(w, `{"errorMessage":"boom"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Location", f.srv.URL+r.URL.Path+"/1234")
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/roles"):
		var rep map[string]string
		_ = json.NewDecoder(r.Body).Decode(&rep)
		if rep["name"] == f.failRole {
			http.Error(w, `{"errorMessage":"role rejected"}`, http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/users"):
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/protocol-mappers/models"):
		if f.failMapper {
			http.Error(w, `{"errorMessage":"mapper rejected"}`, http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		f.t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	}
}

func (f *fakeKeycloak) service(t *testing.T) *Service {
	kc, err := keycloak.New(commands.AdminCredentials{
		ServerURL:    f.srv.URL,
		AdminRealm:   "master",
		ClientID:     "admin-cli",
		ClientSecret: "s3cret",
	}, 5*time.Second, zap.NewNop().Sugar())
	require.NoError(t, err)
	return New(kc, []string{"admin", "member"}, zap.NewNop().Sugar())
}

// creationCalls filters the recorded calls down to write operations.
func (f *fakeKeycloak) creationCalls() []string {
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, "POST ") && !strings.Contains(c, "openid-connect/token") {
			out = append(out, c)
		}
	}
	return out
}

func TestCreateWorkspaceHappyPath(t *testing.T) {
	f := newFakeKeycloak(t)
	s := f.service(t)

	ws, err := s.CreateWorkspace(context.Background(), commands.CreateWorkspace{DomainName: "acme"})
	require.NoError(t, err)

	assert.Equal(t, "acme", ws.RealmName)
	assert.Equal(t, "acme-client", ws.ClientID)
	assert.Equal(t, "1234", ws.ClientUUID)
	assert.NotEmpty(t, ws.ClientSecret)

	want := []string{
		"POST /realms/master/protocol/openid-connect/token",
		"GET /admin/realms/acme",
		"POST /admin/realms",
		"POST /admin/realms/acme/clients",
		"POST /admin/realms/acme/clients/1234/roles", // admin
		"POST /admin/realms/acme/clients/1234/roles", // member
		"POST /admin/realms/acme/clients/1234/protocol-mappers/models",
	}
	assert.Equal(t, want, f.calls)
}

func TestCreateWorkspaceExistingRealmShortCircuits(t *testing.T) {
	f := newFakeKeycloak(t)
	f.realmTaken = true
	s := f.service(t)

	_, err := s.CreateWorkspace(context.Background(), commands.CreateWorkspace{DomainName: "acme"})
	require.Error(t, err)
	assert.ErrorIs(t, err, keycloak.ErrRealmExists)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageCheck, se.Stage)

	// zero creation calls were made
	assert.Empty(t, f.creationCalls())
}

func TestCreateWorkspaceInvalidDomainNoNetwork(t *testing.T) {
	f := newFakeKeycloak(t)
	s := f.service(t)

	_, err := s.CreateWorkspace(context.Background(), commands.CreateWorkspace{DomainName: "Not A Domain"})
	var vs commands.Violations
	require.ErrorAs(t, err, &vs)
	assert.Empty(t, f.calls)
}

func TestCreateWorkspaceClientFailureCompensatesRealm(t *testing.T) {
	f := newFakeKeycloak(t)
	f.failClient = true
	s := f.service(t)

	_, err := s.CreateWorkspace(context.Background(), commands.CreateWorkspace{DomainName: "acme"})
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageClient, se.Stage)

	var cce *keycloak.ClientCreateError
	assert.ErrorAs(t, err, &cce)

	// the committed realm was rolled back
	assert.Contains(t, f.calls, "DELETE /admin/realms/acme")
}

func TestCreateWorkspaceRoleFailureCompensatesInReverse(t *testing.T) {
	f := newFakeKeycloak(t)
	f.failRole = "member"
	s := f.service(t)

	_, err := s.CreateWorkspace(context.Background(), commands.CreateWorkspace{DomainName: "acme"})
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageRoles, se.Stage)

	var rme *keycloak.RoleMapperError
	require.ErrorAs(t, err, &rme)
	assert.Equal(t, "member", rme.Role)

	// compensation order: client first, then realm
	n := len(f.calls)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, "DELETE /admin/realms/acme/clients/1234", f.calls[n-2])
	assert.Equal(t, "DELETE /admin/realms/acme", f.calls[n-1])

	// no mapper call was attempted after the role failure
	assert.NotContains(t, f.calls, "POST /admin/realms/acme/clients/1234/protocol-mappers/models")
}

func TestCreateWorkspaceMapperFailureNamesStage(t *testing.T) {
	f := newFakeKeycloak(t)
	f.failMapper = true
	s := f.service(t)

	_, err := s.CreateWorkspace(context.Background(), commands.CreateWorkspace{DomainName: "acme"})
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageMapper, se.Stage)
}

func TestCreateUserValidatesBeforeNetwork(t *testing.T) {
	f := newFakeKeycloak(t)
	s := f.service(t)

	err := s.CreateUser(context.Background(), commands.CreateUser{
		RealmName: "acme",
		Username:  "jane",
		Email:     "not-an-email",
		Password:  "short",
	})
	var vs commands.Violations
	require.ErrorAs(t, err, &vs)
	assert.True(t, vs.Has("email"))
	assert.True(t, vs.Has("password"))
	assert.Empty(t, f.calls)
}

func TestCreateUserHappyPath(t *testing.T) {
	f := newFakeKeycloak(t)
	s := f.service(t)

	err := s.CreateUser(context.Background(), commands.CreateUser{
		RealmName: "acme",
		Username:  "jane",
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@acme.example",
		Password:  "pw1234abc",
	})
	require.NoError(t, err)
	assert.Contains(t, f.calls, "POST /admin/realms/acme/users")
}

func TestLoginPassesTokenSetThrough(t *testing.T) {
	f := newFakeKeycloak(t)
	f.tokenBody = `{"access_token":"at","refresh_token":"rt","expires_in":300,"token_type":"Bearer"}`
	s := f.service(t)

	ts, err := s.Login(context.Background(), commands.LoginUser{
		Username: "jane", Password: "pw1234abc", RealmName: "acme",
	}, "acme-client", "cs")
	require.NoError(t, err)
	assert.Equal(t, "at", ts.AccessToken)
	assert.Equal(t, "rt", ts.RefreshToken)
	assert.Equal(t, "Bearer", ts.TokenType)
}

func TestWorkspaceExists(t *testing.T) {
	f := newFakeKeycloak(t)
	f.realmTaken = true
	s := f.service(t)

	ok, err := s.WorkspaceExists(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, ok)
}
