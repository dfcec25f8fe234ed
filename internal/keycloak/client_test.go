// internal/keycloak/client_test.go
package keycloak

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workspaced/pkg/commands"
)

func testClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(commands.AdminCredentials{
		ServerURL:    srv.URL,
		AdminRealm:   "master",
		ClientID:     "admin-cli",
		ClientSecret: "s3cret",
	}, 5*time.Second, zap.NewNop().Sugar())
	require.NoError(t, err)
	return c, srv
}

func TestNewRejectsInvalidCredentials(t *testing.T) {
	_, err := New(commands.AdminCredentials{}, 0, zap.NewNop().Sugar())
	var vs commands.Violations
	require.ErrorAs(t, err, &vs)
	assert.True(t, vs.Has("adminClientSecret"))
}

func TestAdminTokenGrant(t *testing.T) {
	var gotPath, gotGrant, gotClient string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotGrant = r.PostForm.Get("grant_type")
		gotClient = r.PostForm.Get("client_id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-abc","expires_in":60}`))
	}))

	tok, err := c.AdminToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Token("tok-abc"), tok)
	assert.Equal(t, "/realms/master/protocol/openid-connect/token", gotPath)
	assert.Equal(t, "client_credentials", gotGrant)
	assert.Equal(t, "admin-cli", gotClient)
}

func TestAdminTokenFailureCarriesStatusAndBody(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))

	_, err := c.AdminToken(context.Background())
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Contains(t, ae.Body, "invalid_client")
}

func TestAdminTokenMissingAccessTokenField(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	}))

	_, err := c.AdminToken(context.Background())
	var fe *FieldMissingError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "access_token", fe.Field)
}

func TestLoginPasswordGrant(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/realms/acme/protocol/openid-connect/token", r.URL.Path)
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "acme-client", r.PostForm.Get("client_id"))
		assert.Equal(t, "jane", r.PostForm.Get("username"))
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":300}`))
	}))

	ts, err := c.Login(context.Background(), "acme", "acme-client", "cs", "jane", "pw1234abc")
	require.NoError(t, err)
	assert.Equal(t, "at", ts.AccessToken)
	assert.Equal(t, "rt", ts.RefreshToken)
	assert.Equal(t, 300, ts.ExpiresIn)
}

func TestLoginInvalidPasswordKeeps401(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	}))

	_, err := c.Login(context.Background(), "acme", "acme-client", "cs", "jane", "wrong")
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
}

func TestNetworkFaultIsWrapped(t *testing.T) {
	c, srv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := c.AdminToken(context.Background())
	require.Error(t, err)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.NotNil(t, te.Err)
	var ae *AuthError
	assert.False(t, errors.As(err, &ae), "transport faults must not masquerade as auth failures")
}
