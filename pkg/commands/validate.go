// pkg/commands/validate.go
package commands

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// Violation names one failed rule on one field.
type Violation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Violations is the validation error type. It aggregates every failed rule,
// not only the first, so callers can report all problems in one pass.
type Violations []Violation

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", x.Field, x.Rule))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether a violation exists for the given field.
func (v Violations) Has(field string) bool {
	for _, x := range v {
		if x.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns the list as an error, or nil when empty.
func (v Violations) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Email is a validated address; construct via NewEmail.
type Email string

func NewEmail(raw string) (Email, error) {
	var vs Violations
	if strings.TrimSpace(raw) == "" {
		vs = append(vs, Violation{Field: "email", Rule: "must not be empty"})
	} else if !emailRe.MatchString(raw) {
		vs = append(vs, Violation{Field: "email", Rule: "must be a valid address"})
	}
	if err := vs.OrNil(); err != nil {
		return "", err
	}
	return Email(raw), nil
}

func (e Email) String() string { return string(e) }

// Password is a validated secret; construct via NewPassword.
type Password string

func NewPassword(raw string) (Password, error) {
	var vs Violations
	if len(raw) < 8 {
		vs = append(vs, Violation{Field: "password", Rule: "must be at least 8 characters"})
	}
	var hasLetter, hasDigit bool
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		vs = append(vs, Violation{Field: "password", Rule: "must contain a letter"})
	}
	if !hasDigit {
		vs = append(vs, Violation{Field: "password", Rule: "must contain a digit"})
	}
	if err := vs.OrNil(); err != nil {
		return "", err
	}
	return Password(raw), nil
}

func (p Password) String() string { return string(p) }

// AdminCredentials identify the service against the provider's admin realm.
// Validate before any network call; invalid credentials never leave process.
type AdminCredentials struct {
	ServerURL    string
	AdminRealm   string
	ClientID     string
	ClientSecret string
}

func (c AdminCredentials) Validate() error {
	var vs Violations
	if strings.TrimSpace(c.ServerURL) == "" {
		vs = append(vs, Violation{Field: "serverURL", Rule: "must not be empty"})
	} else if u, err := url.Parse(c.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		vs = append(vs, Violation{Field: "serverURL", Rule: "must be an absolute URL"})
	}
	if strings.TrimSpace(c.AdminRealm) == "" {
		vs = append(vs, Violation{Field: "adminRealm", Rule: "must not be empty"})
	}
	if strings.TrimSpace(c.ClientID) == "" {
		vs = append(vs, Violation{Field: "adminClientId", Rule: "must not be empty"})
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		vs = append(vs, Violation{Field: "adminClientSecret", Rule: "must not be empty"})
	}
	return vs.OrNil()
}

var domainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidateDomainName checks the workspace domain used as the realm name.
func ValidateDomainName(name string) error {
	var vs Violations
	if strings.TrimSpace(name) == "" {
		vs = append(vs, Violation{Field: "domainName", Rule: "must not be empty"})
	} else if !domainRe.MatchString(name) {
		vs = append(vs, Violation{Field: "domainName", Rule: "must be a lowercase DNS label"})
	}
	return vs.OrNil()
}

// Validate checks the user-creation carrier as a whole, aggregating the
// violations of every field including the Email/Password value types.
func (c CreateUser) Validate() error {
	var vs Violations
	if strings.TrimSpace(c.RealmName) == "" {
		vs = append(vs, Violation{Field: "realmName", Rule: "must not be empty"})
	}
	if strings.TrimSpace(c.Username) == "" {
		vs = append(vs, Violation{Field: "username", Rule: "must not be empty"})
	}
	if _, err := NewEmail(string(c.Email)); err != nil {
		vs = append(vs, err.(Violations)...)
	}
	if _, err := NewPassword(string(c.Password)); err != nil {
		vs = append(vs, err.(Violations)...)
	}
	return vs.OrNil()
}

// Validate checks the login carrier.
func (c LoginUser) Validate() error {
	var vs Violations
	if c.Username == "" {
		vs = append(vs, Violation{Field: "username", Rule: "must not be empty"})
	}
	if c.Password == "" {
		vs = append(vs, Violation{Field: "password", Rule: "must not be empty"})
	}
	if c.RealmName == "" {
		vs = append(vs, Violation{Field: "realmName", Rule: "must not be empty"})
	}
	return vs.OrNil()
}
