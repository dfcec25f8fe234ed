// cmd/workspace-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workspaced/internal/keycloak"
	"workspaced/internal/provisioning"
	"workspaced/internal/session"
	"workspaced/internal/workspaceapi"
	"workspaced/pkg/commands"
	"workspaced/pkg/config"
	"workspaced/pkg/logger"
	"workspaced/pkg/middleware"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	kc, err := keycloak.New(commands.AdminCredentials{
		ServerURL:    cfg.KeycloakURL,
		AdminRealm:   cfg.AdminRealm,
		ClientID:     cfg.AdminClientID,
		ClientSecret: cfg.AdminClientSecret,
	}, cfg.KeycloakTimeout, log)
	if err != nil {
		log.Fatalw("keycloak client", "err", err)
	}

	prov := provisioning.New(kc, cfg.WorkspaceRoles, log)
	sessions := session.NewValidator(kc.CertsURL, cfg.JWKSCacheTTL)
	app := workspaceapi.New(log, prov, sessions)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing())
	r.Use(middleware.Metrics())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Mount("/", app.Handler())

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("workspace-service listening", "addr", cfg.HTTPAddr, "keycloak", cfg.KeycloakURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("workspace-service stopped")
}
