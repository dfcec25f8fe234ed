// internal/provisioning/service.go
package provisioning

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"workspaced/internal/keycloak"
	"workspaced/pkg/commands"
)

// Stage names one step of the workspace pipeline. Stages run in a fixed
// order; data only flows forward.
type Stage string

const (
	StageToken   Stage = "token"
	StageCheck   Stage = "existence-check"
	StageRealm   Stage = "realm"
	StageClient  Stage = "client"
	StageRoles   Stage = "roles"
	StageMapper  Stage = "mapper"
	StageUser    Stage = "user"
	StageSession Stage = "session"
)

// StageError reports which stage failed. Earlier stages were committed
// remotely and, where possible, compensated; later stages never ran.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Workspace is the result of a completed provisioning run.
type Workspace struct {
	RealmName    string `json:"realm_name"`
	ClientID     string `json:"client_id"`
	ClientUUID   string `json:"client_uuid"`
	ClientSecret string `json:"client_secret"`
}

// Service sequences provisioning calls against the identity provider.
// It holds no mutable state; independent workflows may run concurrently
// (same-name races resolve at the provider, see CreateRealm's 409 mapping).
type Service struct {
	kc    *keycloak.Client
	roles []string
	log   *zap.SugaredLogger
}

func New(kc *keycloak.Client, roles []string, log *zap.SugaredLogger) *Service {
	if len(roles) == 0 {
		roles = []string{"admin", "member"}
	}
	return &Service{kc: kc, roles: roles, log: log}
}

// CreateWorkspace drives the full pipeline: admin token, existence check,
// realm, client, roles, mapper. One token is acquired up front and passed
// through the whole chain. The first failure aborts the run; committed
// stages are compensated in reverse order, best effort, and the original
// error is returned naming the failed stage.
func (s *Service) CreateWorkspace(ctx context.Context, cmd commands.CreateWorkspace) (Workspace, error) {
	if err := commands.ValidateDomainName(cmd.DomainName); err != nil {
		return Workspace{}, err
	}
	realm := cmd.DomainName
	clientID := realm + "-client"

	tok, err := s.kc.AdminToken(ctx)
	if err != nil {
		return Workspace{}, s.fail(ctx, StageToken, err, nil)
	}

	exists, err := s.kc.RealmExists(ctx, tok, realm)
	if err != nil {
		return Workspace{}, s.fail(ctx, StageCheck, err, nil)
	}
	if exists {
		return Workspace{}, s.fail(ctx, StageCheck, fmt.Errorf("%w: %s", keycloak.ErrRealmExists, realm), nil)
	}
	observeStage(StageCheck, "ok")

	var undo []func(context.Context)

	if err := s.kc.CreateRealm(ctx, tok, realm); err != nil {
		return Workspace{}, s.fail(ctx, StageRealm, err, undo)
	}
	observeStage(StageRealm, "ok")
	undo = append(undo, func(cctx context.Context) {
		if derr := s.kc.DeleteRealm(cctx, tok, realm); derr != nil {
			s.log.Warnw("compensation failed", "stage", StageRealm, "realm", realm, "err", derr)
		}
	})

	secret := uuid.NewString()
	clientUUID, err := s.kc.CreateClient(ctx, tok, realm, clientID, secret)
	if err != nil {
		return Workspace{}, s.fail(ctx, StageClient, err, undo)
	}
	observeStage(StageClient, "ok")
	undo = append(undo, func(cctx context.Context) {
		if derr := s.kc.DeleteClient(cctx, tok, realm, clientUUID); derr != nil {
			s.log.Warnw("compensation failed", "stage", StageClient, "realm", realm, "err", derr)
		}
	})

	if err := s.kc.AddRoles(ctx, tok, realm, clientUUID, s.roles); err != nil {
		return Workspace{}, s.fail(ctx, StageRoles, err, undo)
	}
	observeStage(StageRoles, "ok")

	if err := s.kc.AddRealmRolesMapper(ctx, tok, realm, clientUUID); err != nil {
		return Workspace{}, s.fail(ctx, StageMapper, err, undo)
	}
	observeStage(StageMapper, "ok")

	s.log.Infow("workspace provisioned", "realm", realm, "client", clientID, "client_uuid", clientUUID)
	return Workspace{RealmName: realm, ClientID: clientID, ClientUUID: clientUUID, ClientSecret: secret}, nil
}

// fail runs the accumulated compensations in reverse order and wraps the
// cause with the failed stage. Compensation errors are logged, never
// substituted for the original error.
func (s *Service) fail(ctx context.Context, stage Stage, cause error, undo []func(context.Context)) error {
	observeStage(stage, "error")
	s.log.Errorw("provisioning failed", "stage", stage, "err", cause)
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i](ctx)
	}
	return &StageError{Stage: stage, Err: cause}
}

// CreateUser validates the command, then provisions the account. Validation
// failures never reach the network.
func (s *Service) CreateUser(ctx context.Context, cmd commands.CreateUser) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	tok, err := s.kc.AdminToken(ctx)
	if err != nil {
		return &StageError{Stage: StageToken, Err: err}
	}
	err = s.kc.CreateUser(ctx, tok, cmd.RealmName, keycloak.User{
		Username:  cmd.Username,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Email:     cmd.Email.String(),
		Password:  cmd.Password.String(),
	})
	if err != nil {
		observeStage(StageUser, "error")
		return &StageError{Stage: StageUser, Err: err}
	}
	observeStage(StageUser, "ok")
	s.log.Infow("user provisioned", "realm", cmd.RealmName, "username", cmd.Username)
	return nil
}

// Login exchanges end-user credentials for a token set. The set is returned
// as delivered by the provider; no internal validation.
func (s *Service) Login(ctx context.Context, cmd commands.LoginUser, clientID, clientSecret string) (keycloak.TokenSet, error) {
	if err := cmd.Validate(); err != nil {
		return keycloak.TokenSet{}, err
	}
	ts, err := s.kc.Login(ctx, cmd.RealmName, clientID, clientSecret, cmd.Username, cmd.Password)
	if err != nil {
		observeStage(StageSession, "error")
		return keycloak.TokenSet{}, err
	}
	observeStage(StageSession, "ok")
	return ts, nil
}

// WorkspaceExists is the standalone existence query used by certificate
// retrieval and session validation flows.
func (s *Service) WorkspaceExists(ctx context.Context, realm string) (bool, error) {
	tok, err := s.kc.AdminToken(ctx)
	if err != nil {
		return false, &StageError{Stage: StageToken, Err: err}
	}
	return s.kc.RealmExists(ctx, tok, realm)
}

// RealmCerts returns the realm's public key document. Public endpoint, no
// admin token involved.
func (s *Service) RealmCerts(ctx context.Context, realm string) (json.RawMessage, error) {
	return s.kc.RealmCerts(ctx, realm)
}

// RotateClientSecret is a standalone maintenance operation, outside the
// provisioning pipeline.
func (s *Service) RotateClientSecret(ctx context.Context, realm, clientUUID string) (string, error) {
	tok, err := s.kc.AdminToken(ctx)
	if err != nil {
		return "", &StageError{Stage: StageToken, Err: err}
	}
	secret := uuid.NewString()
	if err := s.kc.RotateClientSecret(ctx, tok, realm, clientUUID, secret); err != nil {
		return "", err
	}
	s.log.Infow("client secret rotated", "realm", realm, "client_uuid", clientUUID)
	return secret, nil
}
