// internal/session/validator.go
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// CertsURLFunc maps a realm name to its public JWKS endpoint.
type CertsURLFunc func(realm string) string

// jwksCache caches key sets per realm.
type jwksCache struct {
	mu   sync.RWMutex
	sets map[string]cachedJWKS
}

type cachedJWKS struct {
	set     jwk.Set
	expires time.Time
}

func (c *jwksCache) get(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	c.mu.RLock()
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		c.mu.RUnlock()
		return e.set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = map[string]cachedJWKS{}
	}
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		return e.set, nil
	}
	set, err := jwk.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.sets[url] = cachedJWKS{set: set, expires: time.Now().Add(ttl)}
	return set, nil
}

// Session is the validated view of an access token.
type Session struct {
	Subject string
	Realm   string
	Claims  map[string]any
}

// Validator verifies realm-scoped access tokens against the realm's public
// keys. The ephemeral token set itself is never stored.
type Validator struct {
	certsURL CertsURLFunc
	ttl      time.Duration
	cache    jwksCache
}

func NewValidator(certsURL CertsURLFunc, ttl time.Duration) *Validator {
	if ttl == 0 {
		ttl = 6 * time.Hour
	}
	return &Validator{certsURL: certsURL, ttl: ttl}
}

// Validate parses and verifies a raw bearer token against the realm's key
// set. Signature, expiry and not-before are enforced; audience is left to
// the caller since workspace clients use full-scope tokens.
func (v *Validator) Validate(ctx context.Context, realm, raw string) (Session, error) {
	set, err := v.cache.get(ctx, v.certsURL(realm), v.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("fetch realm keys: %w", err)
	}
	jt, err := jwt.Parse([]byte(raw), jwt.WithKeySet(set), jwt.WithValidate(true), jwt.WithVerify(true))
	if err != nil {
		return Session{}, fmt.Errorf("invalid token: %w", err)
	}
	claims, err := jt.AsMap(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("read claims: %w", err)
	}
	return Session{Subject: jt.Subject(), Realm: realm, Claims: claims}, nil
}
