// internal/keycloak/client.go
package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"workspaced/pkg/commands"
	"workspaced/pkg/middleware"
)

// Token is an opaque bearer token scoped to one call chain. It is acquired
// per workflow and passed explicitly; nothing caches it across workflows.
type Token string

// TokenSet is the raw result of a token-endpoint exchange. Internal
// structure is not validated beyond the presence of access_token.
type TokenSet struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	ExpiresIn        int    `json:"expires_in,omitempty"`
	RefreshExpiresIn int    `json:"refresh_expires_in,omitempty"`
	TokenType        string `json:"token_type,omitempty"`
}

// Client talks to the identity provider's OIDC and admin REST endpoints.
// It holds no mutable state; concurrent workflows may share one instance.
type Client struct {
	baseURL string
	admin   commands.AdminCredentials
	http    *http.Client
	log     *zap.SugaredLogger
}

func New(creds commands.AdminCredentials, timeout time.Duration, log *zap.SugaredLogger) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(creds.ServerURL, "/"),
		admin:   creds,
		http: &http.Client{
			Timeout:   timeout,
			Transport: middleware.Transport(nil),
		},
		log: log,
	}, nil
}

// AdminToken exchanges the admin client credentials for a bearer token.
// No retry here; retry policy belongs to the caller.
func (c *Client) AdminToken(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.admin.ClientID)
	form.Set("client_secret", c.admin.ClientSecret)
	ts, err := c.tokenGrant(ctx, c.admin.AdminRealm, form)
	if err != nil {
		return "", err
	}
	return Token(ts.AccessToken), nil
}

// Login performs a password grant scoped to the given realm and client and
// returns the provider's token set as-is.
func (c *Client) Login(ctx context.Context, realm, clientID, clientSecret, username, password string) (TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("username", username)
	form.Set("password", password)
	return c.tokenGrant(ctx, realm, form)
}

func (c *Client) tokenGrant(ctx context.Context, realm string, form url.Values) (TokenSet, error) {
	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", c.baseURL, url.PathEscape(realm))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenSet{}, fmt.Errorf("token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return TokenSet{}, &TransportError{Op: "token", Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenSet{}, &AuthError{Status: resp.StatusCode, Body: string(body)}
	}
	var ts TokenSet
	if err := json.Unmarshal(body, &ts); err != nil {
		return TokenSet{}, fmt.Errorf("decode token response: %w", err)
	}
	if ts.AccessToken == "" {
		return TokenSet{}, &FieldMissingError{Op: "token", Field: "access_token"}
	}
	return ts, nil
}

// do issues one authenticated admin call and returns the response. Callers
// own body handling and close.
func (c *Client) do(ctx context.Context, tok Token, method, path string, payload any) (*http.Response, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+string(tok))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.log.Debugw("keycloak call", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	return resp, nil
}

func drain(resp *http.Response) string {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func ok2xx(status int) bool { return status >= 200 && status < 300 }
