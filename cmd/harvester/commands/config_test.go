package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"agencyharvest/internal/extract"
	"agencyharvest/internal/harvest"
	"agencyharvest/internal/registry"
	"agencyharvest/internal/scrapers/tursab"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	writeFile(t, path, `{
		// comments are fine
		database: "agencies.db",
		harvest: { from: 2000, to: 3000, delay_min_seconds: 0.5, delay_max_seconds: 1.5 },
		layout: { no_result_marker: "no match" },
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ harvest: { to: 2500 } }`)

	t.Setenv(databaseEnv, "")
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "agencies.db", cfg.Database)

	h := cfg.harvestConfig()
	require.Equal(t, 2000, h.Start)
	require.Equal(t, 2500, h.End)
	require.Equal(t, 500*time.Millisecond, h.DelayMin)
	require.Equal(t, 1500*time.Millisecond, h.DelayMax)
	require.Equal(t, harvest.DefaultConfig().CooldownDuration, h.CooldownDuration)

	layout := cfg.extractor().Layout
	require.Equal(t, "no match", layout.NoResultMarker)
	require.Equal(t, extract.DefaultLayout().SystemErrorMarker, layout.SystemErrorMarker)
}

func TestLoadConfigDatabaseFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	writeFile(t, path, `{ database: "agencies.db" }`)

	t.Setenv(databaseEnv, "postgres://localhost/agencies")
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/agencies", cfg.Database)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv(databaseEnv, "")
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)

	h := cfg.harvestConfig()
	require.Equal(t, 1000, h.Start)
	require.Equal(t, 100000, h.End)
	require.Equal(t, 50, h.CooldownThreshold)
	require.Equal(t, 10*time.Second, h.CooldownDuration)

	opts := cfg.sessionOptions()
	require.Equal(t, tursab.DefaultBaseURL, opts.BaseURL)
	require.Equal(t, 20*time.Second, opts.AwaitTimeout)

	require.Nil(t, cfg.extractor().Phones)
}

func TestHarvestRangeDefaults(t *testing.T) {
	cases := []struct {
		name     string
		from, to int
		start    int
		end      int
	}{
		{name: "unset", start: 1000, end: 100000},
		{name: "only from", from: 50000, start: 50000, end: 100000},
		{name: "only to", to: 2000, start: 1000, end: 2000},
		{name: "both", from: 3000, to: 4000, start: 3000, end: 4000},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Config{Harvest: HarvestConfig{From: c.from, To: c.to}}
			h := cfg.harvestConfig()
			require.Equal(t, c.start, h.Start)
			require.Equal(t, c.end, h.End)
		})
	}
}

func TestPhoneNormalization(t *testing.T) {
	cfg := Config{NormalizePhones: true, PhoneRegion: "TR"}
	require.Equal(t, &registry.PhoneNormalizer{Region: "TR"}, cfg.extractor().Phones)
}

func TestFilterCity(t *testing.T) {
	records := []registry.Record{
		{DocumentNumber: "1", City: "Istanbul"},
		{DocumentNumber: "2", City: "Ankara"},
		{DocumentNumber: "3", City: "ISTANBUL"},
		{DocumentNumber: "4", City: "İstanbul"},
		{DocumentNumber: "5", City: ""},
	}
	require.Len(t, filterCity(records, ""), 5)

	var docs []string
	for _, r := range filterCity(records, "istanbul") {
		docs = append(docs, r.DocumentNumber)
	}
	require.Equal(t, []string{"1", "3", "4"}, docs)

	got := filterCity(records, "Ankara")
	require.Len(t, got, 1)
	require.Equal(t, "2", got[0].DocumentNumber)
}
