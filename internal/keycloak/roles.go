// internal/keycloak/roles.go
package keycloak

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type roleRepresentation struct {
	Name string `json:"name"`
}

type mapperRepresentation struct {
	Name           string            `json:"name"`
	Protocol       string            `json:"protocol"`
	ProtocolMapper string            `json:"protocolMapper"`
	Config         map[string]string `json:"config"`
}

// AddRoles creates each role against the client UUID, in the given order,
// one call per role. It stops at the first failure: roles already created
// stay committed, remaining roles are not attempted, and the error names
// the role that failed.
func (c *Client) AddRoles(ctx context.Context, tok Token, realm, clientUUID string, roles []string) error {
	path := fmt.Sprintf("/admin/realms/%s/clients/%s/roles", url.PathEscape(realm), url.PathEscape(clientUUID))
	for _, role := range roles {
		resp, err := c.do(ctx, tok, http.MethodPost, path, roleRepresentation{Name: role})
		if err != nil {
			return fmt.Errorf("attach role %q: %w", role, err)
		}
		body := drain(resp)
		if !ok2xx(resp.StatusCode) {
			return &RoleMapperError{Realm: realm, Role: role, Status: resp.StatusCode, Body: body}
		}
	}
	return nil
}

// AddRealmRolesMapper wires the single fixed-shape protocol mapper that
// projects the user attribute "roles" into the "role" claim of both the ID
// and access tokens. One mapper per client; repeated calls duplicate.
func (c *Client) AddRealmRolesMapper(ctx context.Context, tok Token, realm, clientUUID string) error {
	path := fmt.Sprintf("/admin/realms/%s/clients/%s/protocol-mappers/models", url.PathEscape(realm), url.PathEscape(clientUUID))
	rep := mapperRepresentation{
		Name:           "realm-roles-mapper",
		Protocol:       "openid-connect",
		ProtocolMapper: "oidc-usermodel-attribute-mapper",
		Config: map[string]string{
			"user.attribute":       "roles",
			"claim.name":           "role",
			"jsonType.label":       "String",
			"multivalued":          "true",
			"id.token.claim":       "true",
			"access.token.claim":   "true",
			"userinfo.token.claim": "false",
		},
	}
	resp, err := c.do(ctx, tok, http.MethodPost, path, rep)
	if err != nil {
		return fmt.Errorf("attach mapper: %w", err)
	}
	body := drain(resp)
	if !ok2xx(resp.StatusCode) {
		return &RoleMapperError{Realm: realm, Status: resp.StatusCode, Body: body}
	}
	return nil
}
