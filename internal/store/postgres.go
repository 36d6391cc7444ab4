package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"agencyharvest/internal/registry"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var SchemaPostgres string

type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres is the backend for a postgres server, one transaction per batch.
type Postgres struct {
	pool pgxPool
}

func OpenPostgres(ctx context.Context, uri string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	_, err = pool.Exec(ctx, SchemaPostgres)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Kind() string {
	return "postgres"
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

const pgUpsert = `INSERT INTO agencies (
	document_number, name, phone, fax, email, address, district, city, regulatory_ref
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (document_number) DO UPDATE SET
	name = EXCLUDED.name,
	phone = EXCLUDED.phone,
	fax = EXCLUDED.fax,
	email = EXCLUDED.email,
	address = EXCLUDED.address,
	district = EXCLUDED.district,
	city = EXCLUDED.city,
	regulatory_ref = EXCLUDED.regulatory_ref,
	updated_at = NOW()
RETURNING (xmax = 0) AS inserted`

func (p *Postgres) Upsert(ctx context.Context, records []registry.Record) (UpsertReport, error) {
	if len(records) == 0 {
		return UpsertReport{}, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return UpsertReport{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var report UpsertReport
	for _, r := range records {
		var inserted bool
		err := tx.QueryRow(
			ctx, pgUpsert,
			r.DocumentNumber, r.Name, r.Phone, r.Fax, r.Email,
			r.Address, r.District, r.City, r.RegulatoryRef,
		).Scan(&inserted)
		if err != nil {
			return UpsertReport{}, fmt.Errorf("upsert %s: %w", r.DocumentNumber, err)
		}
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return UpsertReport{}, fmt.Errorf("commit: %w", err)
	}
	return report, nil
}

func (p *Postgres) Lookup(ctx context.Context, documentNumber string) (registry.Record, error) {
	row := p.pool.QueryRow(
		ctx,
		`SELECT `+sqlRecordColumns+` FROM agencies WHERE document_number = $1`,
		documentNumber,
	)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return registry.Record{}, ErrNotFound
	}
	if err != nil {
		return registry.Record{}, fmt.Errorf("lookup %s: %w", documentNumber, err)
	}
	return r, nil
}

func (p *Postgres) ListAll(ctx context.Context) ([]registry.Record, error) {
	rows, err := p.pool.Query(
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

func (p *Postgres) SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error {
	_, err := p.pool.Exec(
		ctx,
		`INSERT INTO harvest_checkpoints (name, next_key, run_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE SET
			next_key = EXCLUDED.next_key,
			run_id = EXCLUDED.run_id,
			updated_at = NOW()`,
		checkpoint.Name, checkpoint.NextKey, checkpoint.RunID,
	)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", checkpoint.Name, err)
	}
	return nil
}

func (p *Postgres) LoadCheckpoint(ctx context.Context, name string) (Checkpoint, error) {
	var c Checkpoint
	err := p.pool.QueryRow(
		ctx,
		`SELECT name, next_key, run_id, updated_at FROM harvest_checkpoints WHERE name = $1`,
		name,
	).Scan(&c.Name, &c.NextKey, &c.RunID, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("load checkpoint %s: %w", name, err)
	}
	return c, nil
}
