package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agencyharvest/internal/components/chrono"
	"agencyharvest/internal/registry"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// SQL is the backend for sqlite and libsql, both speak the sqlite dialect.
type SQL struct {
	db   *sql.DB
	kind string
	clock chrono.TimeAPI
}

// OpenSqlite opens (creating if needed) a local sqlite database in WAL mode.
func OpenSqlite(ctx context.Context, path string) (*SQL, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		err := os.MkdirAll(filepath.Dir(path), 0o755)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, "PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	return newSQL(ctx, db, "sqlite")
}

// OpenLibsql connects to a remote libsql server.
func OpenLibsql(ctx context.Context, uri string) (*SQL, error) {
	db, err := sql.Open("libsql", uri)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	return newSQL(ctx, db, "libsql")
}

func newSQL(ctx context.Context, db *sql.DB, kind string) (*SQL, error) {
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.ExecContext(ctx, stmt)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s schema: %w", kind, err)
		}
	}
	return &SQL{db: db, kind: kind, clock: chrono.NewStandardImpl()}, nil
}

func (s *SQL) Kind() string {
	return s.kind
}

func (s *SQL) Close() error {
	return s.db.Close()
}

const sqlSelectID = `SELECT id FROM agencies WHERE document_number = ?`

const sqlInsert = `INSERT INTO agencies (
	document_number, name, phone, fax, email, address, district, city, regulatory_ref,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const sqlUpdate = `UPDATE agencies SET
	name = ?, phone = ?, fax = ?, email = ?, address = ?, district = ?, city = ?, regulatory_ref = ?,
	updated_at = ?
WHERE id = ?`

func (s *SQL) Upsert(ctx context.Context, records []registry.Record) (UpsertReport, error) {
	if len(records) == 0 {
		return UpsertReport{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UpsertReport{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := s.clock.Now().Unix()
	var report UpsertReport
	for _, r := range records {
		var id int64
		err := tx.QueryRowContext(ctx, sqlSelectID, r.DocumentNumber).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(
				ctx, sqlInsert,
				r.DocumentNumber, r.Name, r.Phone, r.Fax, r.Email,
				r.Address, r.District, r.City, r.RegulatoryRef,
				now, now,
			)
			if err != nil {
				return UpsertReport{}, fmt.Errorf("insert %s: %w", r.DocumentNumber, err)
			}
			report.Inserted++
		case err != nil:
			return UpsertReport{}, fmt.Errorf("select %s: %w", r.DocumentNumber, err)
		default:
			_, err = tx.ExecContext(
				ctx, sqlUpdate,
				r.Name, r.Phone, r.Fax, r.Email,
				r.Address, r.District, r.City, r.RegulatoryRef,
				now, id,
			)
			if err != nil {
				return UpsertReport{}, fmt.Errorf("update %s: %w", r.DocumentNumber, err)
			}
			report.Updated++
		}
	}

	err = tx.Commit()
	if err != nil {
		return UpsertReport{}, fmt.Errorf("commit: %w", err)
	}
	return report, nil
}

const sqlRecordColumns = `document_number, name, phone, fax, email, address, district, city, regulatory_ref`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (registry.Record, error) {
	var r registry.Record
	err := row.Scan(
		&r.DocumentNumber, &r.Name, &r.Phone, &r.Fax, &r.Email,
		&r.Address, &r.District, &r.City, &r.RegulatoryRef,
	)
	return r, err
}

func (s *SQL) Lookup(ctx context.Context, documentNumber string) (registry.Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+sqlRecordColumns+` FROM agencies WHERE document_number = ?`,
		documentNumber,
	)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Record{}, ErrNotFound
	}
	if err != nil {
		return registry.Record{}, fmt.Errorf("lookup %s: %w", documentNumber, err)
	}
	return r, nil
}

func (s *SQL) ListAll(ctx context.Context) ([]registry.Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sqlRecordColumns+` FROM agencies ORDER BY document_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var out []registry.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQL) SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error {
	updatedAt := checkpoint.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.clock.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO harvest_checkpoints (name, next_key, run_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			next_key = excluded.next_key,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		checkpoint.Name, checkpoint.NextKey, checkpoint.RunID, updatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", checkpoint.Name, err)
	}
	return nil
}

func (s *SQL) LoadCheckpoint(ctx context.Context, name string) (Checkpoint, error) {
	var (
		c         Checkpoint
		updatedAt int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT name, next_key, run_id, updated_at FROM harvest_checkpoints WHERE name = ?`,
		name,
	).Scan(&c.Name, &c.NextKey, &c.RunID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("load checkpoint %s: %w", name, err)
	}
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return c, nil
}
