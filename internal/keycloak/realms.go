// internal/keycloak/realms.go
package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type realmRepresentation struct {
	Realm   string `json:"realm"`
	Enabled bool   `json:"enabled"`
}

// RealmExists queries the realm by name. A 404 means absent; any other
// non-2xx status is a real error and is never coerced into "absent".
func (c *Client) RealmExists(ctx context.Context, tok Token, realm string) (bool, error) {
	resp, err := c.do(ctx, tok, http.MethodGet, "/admin/realms/"+url.PathEscape(realm), nil)
	if err != nil {
		return false, err
	}
	body := drain(resp)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case ok2xx(resp.StatusCode):
		return true, nil
	default:
		return false, &APIError{Op: "realm lookup", Status: resp.StatusCode, Body: body}
	}
}

// CreateRealm provisions a new enabled realm. The caller checks existence
// first; a 409 from the provider is still mapped to ErrRealmExists so the
// provider's own conflict answer stays authoritative over the pre-check.
func (c *Client) CreateRealm(ctx context.Context, tok Token, realm string) error {
	resp, err := c.do(ctx, tok, http.MethodPost, "/admin/realms", realmRepresentation{Realm: realm, Enabled: true})
	if err != nil {
		return err
	}
	body := drain(resp)
	switch {
	case ok2xx(resp.StatusCode):
		return nil
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrRealmExists, realm)
	default:
		return &RealmCreateError{Realm: realm, Status: resp.StatusCode, Body: body}
	}
}

// DeleteRealm removes a realm. Used only as a saga compensation.
func (c *Client) DeleteRealm(ctx context.Context, tok Token, realm string) error {
	resp, err := c.do(ctx, tok, http.MethodDelete, "/admin/realms/"+url.PathEscape(realm), nil)
	if err != nil {
		return err
	}
	body := drain(resp)
	if !ok2xx(resp.StatusCode) && resp.StatusCode != http.StatusNotFound {
		return &APIError{Op: "realm delete", Status: resp.StatusCode, Body: body}
	}
	return nil
}

// RealmCerts fetches the realm's public key material. The endpoint is
// public; no token is required.
func (c *Client) RealmCerts(ctx context.Context, realm string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", c.baseURL, url.PathEscape(realm))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("certs request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "realm certs", Err: err}
	}
	body := drain(resp)
	if !ok2xx(resp.StatusCode) {
		return nil, &APIError{Op: "realm certs", Status: resp.StatusCode, Body: body}
	}
	return json.RawMessage(body), nil
}

// CertsURL returns the public JWKS endpoint for a realm, for validators
// that fetch key sets themselves.
func (c *Client) CertsURL(realm string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", c.baseURL, url.PathEscape(realm))
}
