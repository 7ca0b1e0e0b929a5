// Package session is the single source of truth for who is logged in. It
// owns the bearer credential, hydrates it from durable storage on startup,
// and applies the global fail-closed policy when the API rejects it.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/jobdeck/jobdeck/internal/api"
	"github.com/jobdeck/jobdeck/internal/models"
)

// Status describes the session lifecycle state.
type Status string

const (
	// StatusUninitialized means Initialize has not run yet.
	StatusUninitialized Status = "uninitialized"

	// StatusRestoring means a persisted credential is being revalidated.
	// Route decisions made now must defer, not assume anonymous.
	StatusRestoring Status = "restoring"

	// StatusAuthenticated means the credential was accepted by the last
	// validation call and identity is known.
	StatusAuthenticated Status = "authenticated"

	// StatusAnonymous means no valid session exists.
	StatusAnonymous Status = "anonymous"
)

// Snapshot is a point-in-time copy of the session, safe to read without
// holding any lock.
type Snapshot struct {
	Status     Status
	Identity   *models.Identity
	Credential string
}

// Result is the outcome of a mutating session operation. Failures are
// values, never errors thrown across the boundary, so callers can render
// inline messages.
type Result struct {
	OK       bool
	Identity *models.Identity
	Message  string
}

// Gateway is the slice of the API client the session store depends on.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	Register(ctx context.Context, payload api.RegisterPayload) (*api.RegisterResult, error)
	Me(ctx context.Context) (*models.Identity, error)
}

// UnauthorizedReporter is implemented by gateways that can report a
// rejected credential. AttachGateway installs the fail-closed cleanup
// through it so the policy applies no matter which call trips the 401.
type UnauthorizedReporter interface {
	SetUnauthorizedHook(fn func())
}

// Store holds the authenticated identity and credential. Safe for
// concurrent use.
type Store struct {
	file *stateFile

	mu         sync.Mutex
	gateway    Gateway
	status     Status
	identity   *models.Identity
	credential string

	// epoch increments on every login/logout so a validation response that
	// arrives after the session it belongs to ended is detected and
	// discarded rather than resurrecting the session.
	epoch uint64
}

// New creates a session store persisting to dir. Attach a gateway before
// calling Initialize.
func New(dir string) *Store {
	return &Store{
		file:   newStateFile(dir),
		status: StatusUninitialized,
	}
}

// AttachGateway wires the API client in and installs the global 401 policy:
// any call reporting the credential invalid forces a logout.
func (s *Store) AttachGateway(gw Gateway) {
	s.mu.Lock()
	s.gateway = gw
	s.mu.Unlock()

	if r, ok := gw.(UnauthorizedReporter); ok {
		r.SetUnauthorizedHook(s.forceLogout)
	}
}

// Token returns the current bearer credential, or "" when anonymous.
// Shaped to plug in as the gateway's api.TokenFunc.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential
}

// Snapshot returns a copy of the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Status: s.status, Credential: s.credential}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	return snap
}

// Initialize hydrates the session from durable storage and revalidates the
// credential against the API. The session is Restoring while the validation
// call is in flight. Fail-closed: any validation failure, including plain
// network errors, discards the persisted session.
func (s *Store) Initialize(ctx context.Context) Snapshot {
	s.mu.Lock()
	if s.status != StatusUninitialized {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}

	st, err := s.file.load()
	if err != nil {
		if err != ErrNoPersistedSession {
			log.Warn().Err(err).Msg("discarding unreadable session file")
			_ = s.file.clear()
		}
		s.status = StatusAnonymous
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}

	// A token already past its exp claim can only fail validation; skip
	// the round trip.
	if tokenExpired(st.Token) {
		log.Debug().Msg("persisted credential expired, starting anonymous")
		_ = s.file.clear()
		s.status = StatusAnonymous
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}

	// Hydrate optimistically so the validation request carries the
	// credential, but report Restoring until the server confirms it.
	s.credential = st.Token
	s.identity = st.Identity
	s.status = StatusRestoring
	epoch := s.epoch
	gw := s.gateway
	s.mu.Unlock()

	identity, err := gw.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		// Session ended (or was replaced) while validation was in flight.
		// The response belongs to a dead session; drop it.
		log.Debug().Msg("discarding stale session validation response")
		return s.snapshotLocked()
	}

	if err != nil {
		log.Info().Err(err).Msg("session validation failed, starting anonymous")
		s.clearLocked()
		return s.snapshotLocked()
	}

	// The server's copy of the identity is authoritative.
	s.identity = identity
	s.status = StatusAuthenticated
	if err := s.file.save(&persistedState{Token: s.credential, Identity: identity}); err != nil {
		log.Warn().Err(err).Msg("failed to refresh persisted session")
	}

	log.Debug().Str("userId", identity.ID).Str("role", string(identity.Role)).Msg("session restored")

	return s.snapshotLocked()
}

// Login authenticates with the gateway. On rejection the prior session
// state is left untouched.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	s.mu.Lock()
	gw := s.gateway
	s.mu.Unlock()

	res, err := gw.Login(ctx, email, password)
	if err != nil {
		return failure(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.credential = res.Token
	identity := res.Identity
	s.identity = &identity
	s.status = StatusAuthenticated

	if err := s.file.save(&persistedState{Token: res.Token, Identity: s.identity}); err != nil {
		log.Warn().Err(err).Msg("failed to persist session")
	}

	log.Info().Str("userId", identity.ID).Str("role", string(identity.Role)).Msg("logged in")

	return Result{OK: true, Identity: s.identity}
}

// Register creates an account and starts a session with the issued
// credential. The register endpoint returns a thinner payload than login,
// so the identity is assembled from the submitted fields plus the
// server-issued id and role.
func (s *Store) Register(ctx context.Context, payload api.RegisterPayload) Result {
	s.mu.Lock()
	gw := s.gateway
	s.mu.Unlock()

	res, err := gw.Register(ctx, payload)
	if err != nil {
		return failure(err)
	}

	identity := &models.Identity{
		ID:    res.UserID,
		Name:  payload.Name,
		Email: payload.Email,
		Role:  res.Role,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.credential = res.Token
	s.identity = identity
	s.status = StatusAuthenticated

	if err := s.file.save(&persistedState{Token: res.Token, Identity: identity}); err != nil {
		log.Warn().Err(err).Msg("failed to persist session")
	}

	log.Info().Str("userId", identity.ID).Str("role", string(identity.Role)).Msg("registered")

	return Result{OK: true, Identity: identity}
}

// Logout clears the in-memory session synchronously, then purges durable
// storage. Idempotent: logging out an anonymous session is a no-op.
func (s *Store) Logout() {
	s.mu.Lock()
	s.epoch++
	s.clearLocked()
	s.mu.Unlock()

	log.Debug().Msg("logged out")
}

// forceLogout is the unconditional 401 policy, installed as the gateway's
// unauthorized hook.
func (s *Store) forceLogout() {
	s.mu.Lock()
	wasAuthenticated := s.status == StatusAuthenticated
	s.epoch++
	s.clearLocked()
	s.mu.Unlock()

	if wasAuthenticated {
		log.Info().Msg("credential rejected by API, session cleared")
	}
}

// clearLocked resets memory before touching the file so no reader can see
// an authenticated snapshot once teardown has begun.
func (s *Store) clearLocked() {
	s.credential = ""
	s.identity = nil
	s.status = StatusAnonymous

	if err := s.file.clear(); err != nil {
		log.Warn().Err(err).Msg("failed to purge persisted session")
	}
}

// failure maps a gateway error onto an inline-displayable Result.
func failure(err error) Result {
	if apiErr, ok := asAPIError(err); ok && apiErr.Message != "" {
		return Result{Message: apiErr.Message}
	}
	return Result{Message: "could not reach the server, try again"}
}

func asAPIError(err error) (*api.APIError, bool) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// tokenExpired inspects the credential's exp claim without verifying the
// signature; verification is the server's job. Opaque (non-JWT) tokens
// pass through to network validation.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(time.Now())
}
