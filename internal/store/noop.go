package store

import (
	"context"

	"agencyharvest/internal/registry"
)

// Noop is the backend used when no store is configured or reachable, writes are discarded.
type Noop struct{}

func (Noop) Upsert(context.Context, []registry.Record) (UpsertReport, error) {
	return UpsertReport{}, nil
}

func (Noop) Lookup(context.Context, string) (registry.Record, error) {
	return registry.Record{}, ErrNotFound
}

func (Noop) ListAll(context.Context) ([]registry.Record, error) {
	return nil, nil
}

func (Noop) SaveCheckpoint(context.Context, Checkpoint) error {
	return nil
}

func (Noop) LoadCheckpoint(context.Context, string) (Checkpoint, error) {
	return Checkpoint{}, ErrNotFound
}

func (Noop) Kind() string {
	return "noop"
}

func (Noop) Close() error {
	return nil
}
