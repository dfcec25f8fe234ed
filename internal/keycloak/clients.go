// internal/keycloak/clients.go
package keycloak

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type clientRepresentation struct {
	ClientID                     string `json:"clientId"`
	Secret                       string `json:"secret"`
	Enabled                      bool   `json:"enabled"`
	Protocol                     string `json:"protocol"`
	PublicClient                 bool   `json:"publicClient"`
	BearerOnly                   bool   `json:"bearerOnly"`
	ConsentRequired              bool   `json:"consentRequired"`
	StandardFlowEnabled          bool   `json:"standardFlowEnabled"`
	ImplicitFlowEnabled          bool   `json:"implicitFlowEnabled"`
	DirectAccessGrantsEnabled    bool   `json:"directAccessGrantsEnabled"`
	ServiceAccountsEnabled       bool   `json:"serviceAccountsEnabled"`
	AuthorizationServicesEnabled bool   `json:"authorizationServicesEnabled"`
	FullScopeAllowed             bool   `json:"fullScopeAllowed"`
	ClientAuthenticatorType      string `json:"clientAuthenticatorType"`
}

// CreateClient registers a confidential client and returns the UUID the
// provider assigned to it. The UUID only travels in the Location header;
// a success response without one is surfaced as ErrClientUUIDMissing since
// every downstream role/mapper call addresses the client by UUID.
func (c *Client) CreateClient(ctx context.Context, tok Token, realm, clientID, secret string) (string, error) {
	rep := clientRepresentation{
		ClientID:                     clientID,
		Secret:                       secret,
		Enabled:                      true,
		Protocol:                     "openid-connect",
		PublicClient:                 false,
		BearerOnly:                   false,
		ConsentRequired:              false,
		StandardFlowEnabled:          true,
		ImplicitFlowEnabled:          false,
		DirectAccessGrantsEnabled:    true,
		ServiceAccountsEnabled:       true,
		AuthorizationServicesEnabled: true,
		FullScopeAllowed:             true,
		ClientAuthenticatorType:      "client-secret",
	}
	resp, err := c.do(ctx, tok, http.MethodPost, "/admin/realms/"+url.PathEscape(realm)+"/clients", rep)
	if err != nil {
		return "", err
	}
	body := drain(resp)
	if !ok2xx(resp.StatusCode) {
		return "", &ClientCreateError{Realm: realm, ClientID: clientID, Status: resp.StatusCode, Body: body}
	}
	loc := resp.Header.Get("Location")
	uuid := lastPathSegment(loc)
	if uuid == "" {
		return "", fmt.Errorf("%w (client %q, realm %q)", ErrClientUUIDMissing, clientID, realm)
	}
	return uuid, nil
}

// RotateClientSecret replaces the client-secret credential. Standalone
// maintenance operation; the provisioning pipeline never calls it.
func (c *Client) RotateClientSecret(ctx context.Context, tok Token, realm, clientUUID, secret string) error {
	path := fmt.Sprintf("/admin/realms/%s/clients/%s", url.PathEscape(realm), url.PathEscape(clientUUID))
	payload := map[string]string{"secret": secret}
	resp, err := c.do(ctx, tok, http.MethodPut, path, payload)
	if err != nil {
		return err
	}
	body := drain(resp)
	if !ok2xx(resp.StatusCode) {
		return &APIError{Op: "client secret rotate", Status: resp.StatusCode, Body: body}
	}
	return nil
}

// DeleteClient removes a client by UUID. Used only as a saga compensation.
func (c *Client) DeleteClient(ctx context.Context, tok Token, realm, clientUUID string) error {
	path := fmt.Sprintf("/admin/realms/%s/clients/%s", url.PathEscape(realm), url.PathEscape(clientUUID))
	resp, err := c.do(ctx, tok, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	body := drain(resp)
	if !ok2xx(resp.StatusCode) && resp.StatusCode != http.StatusNotFound {
		return &APIError{Op: "client delete", Status: resp.StatusCode, Body: body}
	}
	return nil
}

func lastPathSegment(loc string) string {
	if loc == "" {
		return ""
	}
	loc = strings.TrimRight(loc, "/")
	if i := strings.LastIndex(loc, "/"); i >= 0 {
		return loc[i+1:]
	}
	return loc
}
