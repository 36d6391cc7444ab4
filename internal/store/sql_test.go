package store

import (
	"context"
	"testing"
	"time"

	"agencyharvest/internal/components/telemetry"
	"agencyharvest/internal/registry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func openMemory(t testing.TB) *SQL {
	t.Helper()
	db, err := OpenSqlite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func agency(doc, name string) registry.Record {
	return registry.Record{
		DocumentNumber: doc,
		Name:           name,
		Phone:          "+902125551234",
		Email:          "info@example.com",
		Address:        "Moda Cad. No:1 Kadikoy / Istanbul",
		District:       "Kadikoy",
		City:           "Istanbul",
	}
}

func TestSqliteUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	batch := []registry.Record{agency("1234", "Mavi Tur"), agency("1235", "Deniz Tur")}

	report, err := db.Upsert(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, UpsertReport{Inserted: 2}, report)

	report, err = db.Upsert(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, UpsertReport{Updated: 2}, report)

	all, err := db.ListAll(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(batch, all); diff != "" {
		t.Fatal(diff)
	}
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time {
	return time.Time(c)
}

func TestSqliteReobservationReplacesRecord(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	db.clock = fixedClock(first)
	_, err := db.Upsert(ctx, []registry.Record{agency("1234", "Mavi Tur")})
	require.NoError(t, err)

	// the second observation drops the email, a full replace must clear it
	changed := agency("1234", "Mavi Turizm")
	changed.Email = ""
	db.clock = fixedClock(second)
	report, err := db.Upsert(ctx, []registry.Record{changed})
	require.NoError(t, err)
	require.Equal(t, UpsertReport{Updated: 1}, report)

	got, err := db.Lookup(ctx, "1234")
	require.NoError(t, err)
	if diff := cmp.Diff(changed, got); diff != "" {
		t.Fatal(diff)
	}

	var createdAt, updatedAt, rows int64
	err = db.db.QueryRow(`SELECT created_at, updated_at FROM agencies WHERE document_number = '1234'`).
		Scan(&createdAt, &updatedAt)
	require.NoError(t, err)
	require.Equal(t, first.Unix(), createdAt)
	require.Equal(t, second.Unix(), updatedAt)

	err = db.db.QueryRow(`SELECT count(*) FROM agencies`).Scan(&rows)
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)
}

func TestSqliteDuplicateWithinBatch(t *testing.T) {
	db := openMemory(t)

	report, err := db.Upsert(context.Background(), []registry.Record{
		agency("1234", "Mavi Tur"),
		agency("1234", "Mavi Turizm"),
	})
	require.NoError(t, err)
	require.Equal(t, UpsertReport{Inserted: 1, Updated: 1}, report)

	got, err := db.Lookup(context.Background(), "1234")
	require.NoError(t, err)
	require.Equal(t, "Mavi Turizm", got.Name)
}

func TestSqliteBatchRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	_, err := db.db.Exec(`CREATE TRIGGER reject_boom BEFORE INSERT ON agencies
		WHEN NEW.document_number = 'BOOM'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	_, err = db.Upsert(ctx, []registry.Record{agency("1234", "Mavi Tur"), agency("BOOM", "Bad")})
	require.Error(t, err)

	_, err = db.Lookup(ctx, "1234")
	require.ErrorIs(t, err, ErrNotFound)

	rec := &telemetry.Recorder{}
	s := New(db, rec)
	report := s.Upsert(ctx, []registry.Record{agency("1235", "Deniz Tur"), agency("BOOM", "Bad")})
	require.Equal(t, UpsertReport{}, report)
	require.Equal(t, 1, rec.Count("broken", "upsert"))

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSqliteLookupMiss(t *testing.T) {
	db := openMemory(t)
	_, err := db.Lookup(context.Background(), "404")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSqliteCheckpoint(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	_, err := db.LoadCheckpoint(ctx, "tursab")
	require.ErrorIs(t, err, ErrNotFound)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.SaveCheckpoint(ctx, Checkpoint{Name: "tursab", NextKey: 200, RunID: "a", UpdatedAt: at}))
	require.NoError(t, db.SaveCheckpoint(ctx, Checkpoint{Name: "tursab", NextKey: 300, RunID: "b", UpdatedAt: at}))

	got, err := db.LoadCheckpoint(ctx, "tursab")
	require.NoError(t, err)
	require.Equal(t, "tursab", got.Name)
	require.Equal(t, 300, got.NextKey)
	require.Equal(t, "b", got.RunID)
	require.True(t, at.Equal(got.UpdatedAt))
}
