// Package store persists agency records keyed by document number.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agencyharvest/internal/components/telemetry"
	"agencyharvest/internal/registry"
)

const (
	report_store_upsert   = "upsert"
	report_store_identity = "identity"
	report_store_open     = "open"
)

var ErrNotFound = errors.New("not found")

// UpsertReport tells how many records of a batch created a new entry and how many replaced one.
type UpsertReport struct {
	Inserted int
	Updated  int
}

// Checkpoint is the next enumeration key of a named harvest.
type Checkpoint struct {
	Name      string
	NextKey   int
	RunID     string
	UpdatedAt time.Time
}

// Backend is a keyed persistence layer. At most one entry exists per document number and an
// upsert replaces every attribute of an existing entry. Upsert is all-or-nothing per batch.
type Backend interface {
	Upsert(ctx context.Context, records []registry.Record) (UpsertReport, error)
	Lookup(ctx context.Context, documentNumber string) (registry.Record, error)
	ListAll(ctx context.Context) ([]registry.Record, error)
	SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error
	LoadCheckpoint(ctx context.Context, name string) (Checkpoint, error)
	Kind() string
	Close() error
}

// Store guards a Backend so that persistence faults never interrupt a harvest.
type Store struct {
	backend Backend
	tel     telemetry.API
}

func New(backend Backend, tel telemetry.API) Store {
	if backend == nil {
		backend = Noop{}
	}
	return Store{
		backend: backend,
		tel:     telemetry.NewScopedAPI("store", tel),
	}
}

// Kind names the backend in use.
func (s Store) Kind() string {
	return s.backend.Kind()
}

// Upsert persists the records that carry an identity. A backend fault is reported and
// turned into an empty report, the backend rolls the whole batch back.
func (s Store) Upsert(ctx context.Context, records []registry.Record) UpsertReport {
	valid := registry.FilterValid(records)
	if dropped := len(records) - len(valid); dropped > 0 {
		s.tel.ReportWarning(report_store_identity, fmt.Errorf("dropped %d records without document number", dropped))
	}
	if len(valid) == 0 {
		return UpsertReport{}
	}

	report, err := s.backend.Upsert(ctx, valid)
	if err != nil {
		s.tel.ReportBroken(report_store_upsert, err, s.backend.Kind(), len(valid))
		return UpsertReport{}
	}
	return report
}

func (s Store) Lookup(ctx context.Context, documentNumber string) (registry.Record, error) {
	return s.backend.Lookup(ctx, documentNumber)
}

func (s Store) ListAll(ctx context.Context) ([]registry.Record, error) {
	return s.backend.ListAll(ctx)
}

func (s Store) SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error {
	return s.backend.SaveCheckpoint(ctx, checkpoint)
}

func (s Store) LoadCheckpoint(ctx context.Context, name string) (Checkpoint, error) {
	return s.backend.LoadCheckpoint(ctx, name)
}

func (s Store) Close() error {
	return s.backend.Close()
}

// Open selects a backend from the uri:
//   - "" -> no persistence
//   - postgres://, postgresql:// -> postgres
//   - libsql://, http://, https://, ws://, wss:// -> libsql
//   - sqlite://<path>, file:<path>, :memory:, or a plain path -> sqlite
func Open(ctx context.Context, uri string) (Backend, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Noop{}, nil
	}

	switch uriScheme(uri) {
	case "postgres", "postgresql":
		return OpenPostgres(ctx, uri)
	case "libsql", "http", "https", "ws", "wss":
		return OpenLibsql(ctx, uri)
	case "sqlite":
		return OpenSqlite(ctx, uri[len("sqlite://"):])
	default:
		return OpenSqlite(ctx, uri)
	}
}

// OpenOrDegrade is Open, but a backend that cannot be opened is reported and replaced by Noop.
func OpenOrDegrade(ctx context.Context, uri string, tel telemetry.API) Store {
	backend, err := Open(ctx, uri)
	if err != nil {
		telemetry.NewScopedAPI("store", tel).ReportBroken(report_store_open, err, "continuing without persistence")
		backend = Noop{}
	}
	return New(backend, tel)
}

func uriScheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(uri[:i])
}
