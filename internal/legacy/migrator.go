package legacy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/storage"
)

// ErrMigration wraps every failure that aborted a migration.
var ErrMigration = errors.New("legacy migration failed")

// Store is the part of storage.FileStore the migrator needs.
type Store interface {
	Exists(kind storage.Kind) bool
	LoadLegacy(ctx context.Context) ([]json.RawMessage, error)
	SaveClients(ctx context.Context, clients []model.Client) error
	SavePolicies(ctx context.Context, policies []model.Policy) error
	SaveClaims(ctx context.Context, claims []model.Claim) error
	Snapshot(kinds ...storage.Kind) (storage.Snapshot, error)
	Restore(snap storage.Snapshot) error
	MarkLegacyMigrated() error
}

// Skip explains why a legacy record did not produce a policy.
type Skip struct {
	Reason string
	Index  int
}

// Result is the outcome of a completed migration.
type Result struct {
	Clients  []model.Client
	Policies []model.Policy
	Claims   []model.Claim
	Skipped  []Skip
	Warnings []string
	Records  int
	RunID    uuid.UUID
}

// ProgressFunc is called after each legacy record is processed.
type ProgressFunc func(done, total int)

// Migrator performs the one-time split of seguros.json.
type Migrator struct {
	store    Store
	logger   *slog.Logger
	progress ProgressFunc
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(m *Migrator) {
		m.progress = fn
	}
}

// NewMigrator creates a Migrator over store.
func NewMigrator(store Store, opts ...Option) *Migrator {
	m := &Migrator{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ShouldMigrate reports whether the legacy file exists while the policy
// collection is empty.
func (m *Migrator) ShouldMigrate(policies []model.Policy) bool {
	return len(policies) == 0 && m.store.Exists(storage.KindLegacy)
}

// Migrate reads seguros.json, writes the three collections and renames the
// legacy file. If reading or any write fails, files already written are
// restored and the legacy file is left in place.
func (m *Migrator) Migrate(ctx context.Context) (*Result, error) {
	runID := uuid.New()
	logger := m.logger.With("run_id", runID.String())

	records, err := m.store.LoadLegacy(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMigration, err)
	}
	logger.Info("migrating legacy data", "records", len(records))

	result := Split(records, m.progress)
	result.RunID = runID

	snap, err := m.store.Snapshot(storage.KindClients, storage.KindPolicies, storage.KindClaims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMigration, err)
	}

	if err := m.persist(ctx, result); err != nil {
		if restoreErr := m.store.Restore(snap); restoreErr != nil {
			logger.Error("failed to restore data files", "error", restoreErr)
			err = errors.Join(err, restoreErr)
		}
		logger.Error("legacy migration aborted", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrMigration, err)
	}

	if err := m.store.MarkLegacyMigrated(); err != nil {
		warning := fmt.Sprintf("data migrated but %s could not be renamed; rename it to %s%s by hand: %v",
			storage.KindLegacy, storage.KindLegacy, storage.MigratedSuffix, err)
		result.Warnings = append(result.Warnings, warning)
		logger.Warn("legacy file not renamed", "error", err)
	}

	for _, skip := range result.Skipped {
		logger.Warn("legacy record skipped", "index", skip.Index, "reason", skip.Reason)
	}
	logger.Info("legacy migration complete",
		"clients", len(result.Clients),
		"policies", len(result.Policies),
		"claims", len(result.Claims),
		"skipped", len(result.Skipped))
	return result, nil
}

func (m *Migrator) persist(ctx context.Context, result *Result) error {
	if err := m.store.SaveClients(ctx, result.Clients); err != nil {
		return err
	}
	if err := m.store.SavePolicies(ctx, result.Policies); err != nil {
		return err
	}
	return m.store.SaveClaims(ctx, result.Claims)
}

// Split converts legacy records into the three collections. The first
// record seen for a CPF provides the client, even when the rest of that
// record cannot be decoded. Policies without a CPF, with a non-integer
// number or with a number already used are skipped.
func Split(records []json.RawMessage, progress ProgressFunc) *Result {
	result := &Result{
		Clients:  []model.Client{},
		Policies: []model.Policy{},
		Claims:   []model.Claim{},
		Records:  len(records),
	}
	seenCPF := make(map[model.CPF]bool)
	seenNumber := make(map[model.PolicyNumber]bool)
	addClient := func(client model.Client) {
		if client.CPF != "" && !seenCPF[client.CPF] {
			seenCPF[client.CPF] = true
			result.Clients = append(result.Clients, client)
		}
	}

	for i, raw := range records {
		if progress != nil {
			progress(i+1, len(records))
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			var fields ClientFields
			if json.Unmarshal(raw, &fields) == nil {
				addClient(fields.Client())
			}
			result.Skipped = append(result.Skipped, Skip{Index: i, Reason: fmt.Sprintf("malformed record: %v", err)})
			continue
		}

		client := rec.Client()
		addClient(client)

		if !rec.HasPolicy() {
			continue
		}
		policy := rec.Policy()
		switch {
		case client.CPF == "":
			result.Skipped = append(result.Skipped, Skip{Index: i, Reason: "policy has no client cpf"})
			continue
		case !policy.Number.Assigned():
			result.Skipped = append(result.Skipped, Skip{Index: i, Reason: "policy number is not a positive integer"})
			continue
		case seenNumber[policy.Number]:
			result.Skipped = append(result.Skipped, Skip{Index: i, Reason: fmt.Sprintf("duplicate policy number %d", policy.Number)})
			continue
		}
		seenNumber[policy.Number] = true
		result.Policies = append(result.Policies, policy)

		if rec.HasClaim() {
			result.Claims = append(result.Claims, rec.Claim(policy.Number))
		}
	}
	return result
}
