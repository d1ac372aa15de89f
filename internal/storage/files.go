package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/Veraticus/seguros/internal/model"
)

// Kind names one of the data files in the data directory.
type Kind string

// Data files.
const (
	KindClients  Kind = "clientes.json"
	KindPolicies Kind = "apolices.json"
	KindClaims   Kind = "sinistros.json"
	KindLegacy   Kind = "seguros.json"
)

// MigratedSuffix is appended to the legacy file once it has been split.
const MigratedSuffix = ".migrated"

// File errors.
var (
	ErrDecode   = errors.New("failed to decode data file")
	ErrWrite    = errors.New("failed to write data file")
	ErrNotFound = errors.New("not found")
)

const filePerm = 0o600

// FileStore reads and writes one JSON array per entity kind. Writes replace
// the whole file; there is no locking.
type FileStore struct {
	logger *slog.Logger
	dir    string
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLogger sets the logger used for load and save events.
func WithLogger(logger *slog.Logger) FileStoreOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileStore opens dir, creating it when missing.
func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	if err := validateString(dir, "dir"); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &FileStore{dir: dir, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the absolute location of a data file.
func (s *FileStore) Path(kind Kind) string {
	return filepath.Join(s.dir, string(kind))
}

// Exists reports whether the file for kind is present.
func (s *FileStore) Exists(kind Kind) bool {
	_, err := os.Stat(s.Path(kind))
	return err == nil
}

// LoadClients reads clientes.json.
func (s *FileStore) LoadClients(ctx context.Context) ([]model.Client, error) {
	return load[model.Client](ctx, s, KindClients)
}

// LoadPolicies reads apolices.json.
func (s *FileStore) LoadPolicies(ctx context.Context) ([]model.Policy, error) {
	return load[model.Policy](ctx, s, KindPolicies)
}

// LoadClaims reads sinistros.json.
func (s *FileStore) LoadClaims(ctx context.Context) ([]model.Claim, error) {
	return load[model.Claim](ctx, s, KindClaims)
}

// LoadLegacy reads the records of the single-file layout. Each record is
// returned undecoded so a malformed entry does not hide the others.
func (s *FileStore) LoadLegacy(ctx context.Context) ([]json.RawMessage, error) {
	return load[json.RawMessage](ctx, s, KindLegacy)
}

// SaveClients replaces clientes.json.
func (s *FileStore) SaveClients(ctx context.Context, clients []model.Client) error {
	return save(ctx, s, KindClients, clients)
}

// SavePolicies replaces apolices.json.
func (s *FileStore) SavePolicies(ctx context.Context, policies []model.Policy) error {
	return save(ctx, s, KindPolicies, policies)
}

// SaveClaims replaces sinistros.json.
func (s *FileStore) SaveClaims(ctx context.Context, claims []model.Claim) error {
	return save(ctx, s, KindClaims, claims)
}

// load returns an empty list with no error when the file is absent, and an
// empty list with an ErrDecode error when it cannot be parsed.
func load[T any](ctx context.Context, s *FileStore, kind Kind) ([]T, error) {
	if err := validateContext(ctx); err != nil {
		return []T{}, err
	}
	path := s.Path(kind)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("data file absent", "file", path)
		return []T{}, nil
	}
	if err != nil {
		return []T{}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return []T{}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if items == nil {
		items = []T{}
	}
	s.logger.Debug("loaded data file", "file", path, "records", len(items))
	return items, nil
}

func save[T any](ctx context.Context, s *FileStore, kind Kind, items []T) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	data, err := encode(items)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.Path(kind), err)
	}
	path := s.Path(kind)
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	s.logger.Debug("saved data file", "file", path, "records", len(items))
	return nil
}

// encode renders v with a four space indent and without HTML escaping, so
// accented text is written as UTF-8.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Snapshot holds the raw bytes of data files. A nil entry means the file
// did not exist.
type Snapshot map[Kind][]byte

// Snapshot captures the current content of the given files.
func (s *FileStore) Snapshot(kinds ...Kind) (Snapshot, error) {
	snap := make(Snapshot, len(kinds))
	for _, kind := range kinds {
		if err := validateKind(kind); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(s.Path(kind))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			snap[kind] = nil
		case err != nil:
			return nil, fmt.Errorf("failed to snapshot %s: %w", kind, err)
		default:
			if data == nil {
				data = []byte{}
			}
			snap[kind] = data
		}
	}
	return snap, nil
}

// Restore puts every file in snap back the way it was, removing those that
// did not exist. All files are attempted; failures are joined.
func (s *FileStore) Restore(snap Snapshot) error {
	var errs []error
	for kind, data := range snap {
		path := s.Path(kind)
		if data == nil {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
			}
			continue
		}
		if err := os.WriteFile(path, data, filePerm); err != nil {
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// MarkLegacyMigrated renames seguros.json so it is not migrated again.
func (s *FileStore) MarkLegacyMigrated() error {
	from := s.Path(KindLegacy)
	to := from + MigratedSuffix
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("failed to rename %s: %w", from, err)
	}
	s.logger.Info("legacy data file renamed", "from", from, "to", to)
	return nil
}
