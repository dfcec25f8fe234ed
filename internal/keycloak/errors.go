package keycloak

import (
	"errors"
	"fmt"
)

// ErrRealmExists signals that the requested realm name is already taken.
// Callers special-case it (409 vs generic failure) via errors.Is.
var ErrRealmExists = errors.New("realm already exists")

// ErrClientUUIDMissing signals a client creation that succeeded remotely but
// returned no Location header, leaving the generated UUID unresolvable.
var ErrClientUUIDMissing = errors.New("client created but generated uuid missing from response")

// APIError carries the provider's status and body for any admin call that
// has no more specific error type. The body is never discarded.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("keycloak %s: status %d: %s", e.Op, e.Status, e.Body)
}

// AuthError is a failed token exchange, admin or end-user.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: status %d: %s", e.Status, e.Body)
}

// RealmCreateError is a failed realm creation.
type RealmCreateError struct {
	Realm  string
	Status int
	Body   string
}

func (e *RealmCreateError) Error() string {
	return fmt.Sprintf("create realm %q: status %d: %s", e.Realm, e.Status, e.Body)
}

// ClientCreateError is a failed client registration.
type ClientCreateError struct {
	Realm    string
	ClientID string
	Status   int
	Body     string
}

func (e *ClientCreateError) Error() string {
	return fmt.Sprintf("create client %q in realm %q: status %d: %s", e.ClientID, e.Realm, e.Status, e.Body)
}

// RoleMapperError is a failed role or protocol-mapper attachment. Role is
// empty for mapper failures.
type RoleMapperError struct {
	Realm  string
	Role   string
	Status int
	Body   string
}

func (e *RoleMapperError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("attach role %q in realm %q: status %d: %s", e.Role, e.Realm, e.Status, e.Body)
	}
	return fmt.Sprintf("attach mapper in realm %q: status %d: %s", e.Realm, e.Status, e.Body)
}

// UserCreateError is a failed user creation.
type UserCreateError struct {
	Realm    string
	Username string
	Status   int
	Body     string
}

func (e *UserCreateError) Error() string {
	return fmt.Sprintf("create user %q in realm %q: status %d: %s", e.Username, e.Realm, e.Status, e.Body)
}

// TransportError is a network-level fault: the call never produced an HTTP
// status. The underlying cause is wrapped, not swallowed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("keycloak %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// FieldMissingError is a successful response whose body lacks a required
// field. It exists so absent fields fail loudly instead of propagating
// zero values.
type FieldMissingError struct {
	Op    string
	Field string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("keycloak %s: response missing required field %q", e.Op, e.Field)
}
