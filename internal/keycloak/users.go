package keycloak

import (
	"context"
	"net/http"
	"net/url"
)

// User is the provisioning payload for one end-user account.
type User struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type credentialRepresentation struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

type userRepresentation struct {
	Username      string                     `json:"username"`
	FirstName     string                     `json:"firstName"`
	LastName      string                     `json:"lastName"`
	Email         string                     `json:"email"`
	Enabled       bool                       `json:"enabled"`
	EmailVerified bool                       `json:"emailVerified"`
	Credentials   []credentialRepresentation `json:"credentials"`
}

// CreateUser provisions an enabled account with one initial, non-temporary
// password credential. Failures carry the provider's status and body.
func (c *Client) CreateUser(ctx context.Context, tok Token, realm string, u User) error {
	rep := userRepresentation{
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Enabled:       true,
		EmailVerified: false,
		Credentials: []credentialRepresentation{{
			Type:      "password",
			Value:     u.Password,
			Temporary: false,
		}},
	}
	resp, err := c.do(ctx, tok, http.MethodPost, "/admin/realms/"+url.PathEscape(realm)+"/users", rep)
	if err != nil {
		return err
	}
	body := drain(resp)
	if !ok2xx(resp.StatusCode) {
		return &UserCreateError{Realm: realm, Username: u.Username, Status: resp.StatusCode, Body: body}
	}
	return nil
}

// DeleteUser removes an account by id. Compensation primitive.
func (c *Client) DeleteUser(ctx context.Context, tok Token, realm, userID string) error {
	path := "/admin/realms/" + url.PathEscape(realm) + "/users/" + url.PathEscape(userID)
	resp, err := c.do(ctx, tok, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	body := drain(resp)
	if !ok2xx(resp.StatusCode) && resp.StatusCode != http.StatusNotFound {
		return &APIError{Op: "user delete", Status: resp.StatusCode, Body: body}
	}
	return nil
}
