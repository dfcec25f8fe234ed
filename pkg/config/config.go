// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Identity provider (Keycloak) admin access
	KeycloakURL       string
	AdminRealm        string
	AdminClientID     string
	AdminClientSecret string
	KeycloakTimeout   time.Duration

	// Roles attached to every workspace client
	WorkspaceRoles []string

	// Session validation
	JWKSCacheTTL time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:               env("WORKSPACED_ENV", "dev"),
		HTTPAddr:          env("WORKSPACED_HTTP_ADDR", ":8080"),
		KeycloakURL:       env("KEYCLOAK_URL", "http://localhost:8081"),
		AdminRealm:        env("KEYCLOAK_ADMIN_REALM", "master"),
		AdminClientID:     env("KEYCLOAK_ADMIN_CLIENT_ID", "admin-cli"),
		AdminClientSecret: env("KEYCLOAK_ADMIN_CLIENT_SECRET", ""),
		KeycloakTimeout:   envDur("KEYCLOAK_TIMEOUT_SEC", 30) * time.Second,
		WorkspaceRoles:    envList("WORKSPACE_ROLES", []string{"admin", "member"}),
		JWKSCacheTTL:      envDur("JWKS_CACHE_TTL_SEC", 21600) * time.Second,
	}
	if cfg.AdminClientSecret == "" {
		log.Println("[WARN] KEYCLOAK_ADMIN_CLIENT_SECRET not set — admin token requests will be rejected by the provider")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
func envList(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
