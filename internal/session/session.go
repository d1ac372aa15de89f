// Package session owns the in-memory client, policy and claim collections
// for one run of the application and writes every change back through the
// file store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/seguros/internal/legacy"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/storage"
)

// Session errors.
var (
	ErrPolicyNotFound  = errors.New("policy not found")
	ErrPolicyCancelled = model.ErrPolicyCancelled
	ErrClientExists    = errors.New("client already registered")
	ErrClientChange    = errors.New("the client of a policy cannot be changed")
)

// DefaultCancelReason is recorded when a cancellation gives no reason.
const DefaultCancelReason = "Cancelamento solicitado pelo usuário"

// Store is what a session needs from storage.FileStore.
type Store interface {
	legacy.Store
	LoadClients(ctx context.Context) ([]model.Client, error)
	LoadPolicies(ctx context.Context) ([]model.Policy, error)
	LoadClaims(ctx context.Context) ([]model.Claim, error)
}

// CredentialRegistrar creates login accounts. *auth.Manager implements it.
type CredentialRegistrar interface {
	Register(ctx context.Context, username, secret string, role model.Role) error
}

// LoadReport describes what happened while opening a session.
type LoadReport struct {
	Migration    *legacy.Result
	MigrationErr error
	DecodeErrors []error

	// MigrationPending is set when the legacy file would have been migrated
	// but the session was opened WithoutMigration.
	MigrationPending bool
}

// Degraded reports whether any collection could not be read or migrated.
func (r *LoadReport) Degraded() bool {
	return len(r.DecodeErrors) > 0 || r.MigrationErr != nil
}

// Session holds the loaded collections and the next policy number.
type Session struct {
	store        Store
	registrar    CredentialRegistrar
	logger       *slog.Logger
	now          func() time.Time
	progress     legacy.ProgressFunc
	clientSecret string
	clients      []model.Client
	policies     []model.Policy
	claims       []model.Claim
	next         model.PolicyNumber
	strictCPF    bool
	noMigration  bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistrar makes CreatePolicy create a login for the policy holder,
// using the CPF as username and secret as the initial password.
func WithRegistrar(registrar CredentialRegistrar, secret string) Option {
	return func(s *Session) {
		s.registrar = registrar
		s.clientSecret = secret
	}
}

// WithStrictCPF enables CPF check digit validation.
func WithStrictCPF(strict bool) Option {
	return func(s *Session) {
		s.strictCPF = strict
	}
}

// WithClock overrides the time source used for cancellation dates.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithMigrationProgress forwards legacy migration progress to fn.
func WithMigrationProgress(fn legacy.ProgressFunc) Option {
	return func(s *Session) {
		s.progress = fn
	}
}

// WithoutMigration loads the collections as they are and leaves the legacy
// file alone.
func WithoutMigration() Option {
	return func(s *Session) {
		s.noMigration = true
	}
}

// Open loads the three collections, migrates the legacy file when the
// policy collection is empty (unless WithoutMigration is given), and
// computes the next policy number. Files that cannot be decoded load as
// empty and are listed in the report.
func Open(ctx context.Context, store Store, opts ...Option) (*Session, *LoadReport, error) {
	if ctx == nil {
		return nil, nil, storage.ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s := &Session{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	report := &LoadReport{}
	var err error
	if s.clients, err = store.LoadClients(ctx); err != nil {
		report.DecodeErrors = append(report.DecodeErrors, err)
	}
	if s.policies, err = store.LoadPolicies(ctx); err != nil {
		report.DecodeErrors = append(report.DecodeErrors, err)
	}
	if s.claims, err = store.LoadClaims(ctx); err != nil {
		report.DecodeErrors = append(report.DecodeErrors, err)
	}
	for _, decodeErr := range report.DecodeErrors {
		s.logger.Error("data file could not be read", "error", decodeErr)
	}

	migrator := legacy.NewMigrator(store, legacy.WithLogger(s.logger), legacy.WithProgress(s.progress))
	switch {
	case !migrator.ShouldMigrate(s.policies):
	case s.noMigration:
		report.MigrationPending = true
	default:
		result, err := migrator.Migrate(ctx)
		if err != nil {
			report.MigrationErr = err
		} else {
			report.Migration = result
			s.clients = result.Clients
			s.policies = result.Policies
			s.claims = result.Claims
		}
	}

	s.next = model.NextPolicyNumber(s.policies)
	s.logger.Debug("session opened",
		"clients", len(s.clients),
		"policies", len(s.policies),
		"claims", len(s.claims),
		"next_policy", s.next)
	return s, report, nil
}

// writeFailure makes sure err matches storage.ErrWrite.
func writeFailure(err error) error {
	if err == nil || errors.Is(err, storage.ErrWrite) {
		return err
	}
	return fmt.Errorf("%w: %w", storage.ErrWrite, err)
}

// saveClientsAndPolicies issues both writes even if the first fails.
func (s *Session) saveClientsAndPolicies(ctx context.Context) error {
	return writeFailure(errors.Join(
		s.store.SaveClients(ctx, s.clients),
		s.store.SavePolicies(ctx, s.policies),
	))
}
