package workspaceapi

import (
	"go.uber.org/zap"

	"workspaced/internal/provisioning"
	"workspaced/internal/session"
)

// App is the workspace-api application container.
// Handlers and middleware have methods on this type.
//
// Keep it lean: shared deps only. This layer is plumbing — decode, validate,
// dispatch a command, encode. Business rules live in provisioning.
type App struct {
	log      *zap.SugaredLogger
	prov     *provisioning.Service
	sessions *session.Validator
}

func New(log *zap.SugaredLogger, prov *provisioning.Service, sessions *session.Validator) *App {
	return &App{log: log, prov: prov, sessions: sessions}
}
