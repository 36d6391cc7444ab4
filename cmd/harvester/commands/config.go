package commands

import (
	"os"
	"strings"
	"time"

	"agencyharvest/internal/components/configutil"
	"agencyharvest/internal/components/telemetry"
	"agencyharvest/internal/extract"
	"agencyharvest/internal/harvest"
	"agencyharvest/internal/registry"
	"agencyharvest/internal/scrapers/tursab"
)

const databaseEnv = "HARVESTER_DB"

type HarvestConfig struct {
	From              int     `json:"from"`
	To                int     `json:"to"`
	CooldownThreshold int     `json:"cooldown_threshold"`
	CooldownSeconds   float64 `json:"cooldown_seconds"`
	DelayMinSeconds   float64 `json:"delay_min_seconds"`
	DelayMaxSeconds   float64 `json:"delay_max_seconds"`
	ResetDelaySeconds float64 `json:"reset_delay_seconds"`
	FaultPauseSeconds float64 `json:"fault_pause_seconds"`
	CheckpointName    string  `json:"checkpoint_name"`
	CheckpointEvery   int     `json:"checkpoint_every"`
	DumpDir           string  `json:"dump_dir"`
}

type RegistryConfig struct {
	BaseURL             string      `json:"base_url"`
	SearchPath          string      `json:"search_path"`
	UserAgents          []string    `json:"user_agents"`
	AwaitTimeoutSeconds float64     `json:"await_timeout_seconds"`
	Form                tursab.Form `json:"form"`
	TranscriptDir       string      `json:"transcript_dir"`
}

type Config struct {
	// Database is the store uri, see store.Open.
	Database        string               `json:"database"`
	NormalizePhones bool                 `json:"normalize_phones"`
	PhoneRegion     string               `json:"phone_region"`
	Harvest         HarvestConfig        `json:"harvest"`
	Registry        RegistryConfig       `json:"registry"`
	Layout          extract.Layout       `json:"layout"`
	Otlp            telemetry.OtlpConfig `json:"otlp"`
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// loadConfig reads .env and the config file, a missing config file means defaults.
func loadConfig(path string) (Config, error) {
	err := configutil.LoadDotenv(".env")
	if err != nil {
		return Config{}, err
	}

	cfg, err := configutil.ReadConfigOr(path, Config{})
	if err != nil {
		return Config{}, err
	}

	if db := strings.TrimSpace(os.Getenv(databaseEnv)); db != "" {
		cfg.Database = db
	}
	return cfg, nil
}

func (c Config) harvestConfig() harvest.Config {
	d := harvest.DefaultConfig()
	out := harvest.Config{
		Start:             c.Harvest.From,
		End:               c.Harvest.To,
		CooldownThreshold: c.Harvest.CooldownThreshold,
		CooldownDuration:  seconds(c.Harvest.CooldownSeconds),
		DelayMin:          seconds(c.Harvest.DelayMinSeconds),
		DelayMax:          seconds(c.Harvest.DelayMaxSeconds),
		ResetDelay:        seconds(c.Harvest.ResetDelaySeconds),
		FaultPause:        seconds(c.Harvest.FaultPauseSeconds),
		CheckpointName:    c.Harvest.CheckpointName,
		CheckpointEvery:   c.Harvest.CheckpointEvery,
		DumpDir:           c.Harvest.DumpDir,
	}
	if out.Start == 0 {
		out.Start = d.Start
	}
	if out.End == 0 {
		out.End = d.End
	}
	return out.WithDefaults()
}

func (c Config) sessionOptions() tursab.Options {
	return tursab.Options{
		BaseURL:       c.Registry.BaseURL,
		SearchPath:    c.Registry.SearchPath,
		UserAgents:    c.Registry.UserAgents,
		AwaitTimeout:  seconds(c.Registry.AwaitTimeoutSeconds),
		Form:          c.Registry.Form,
		TranscriptDir: c.Registry.TranscriptDir,
	}.WithDefaults()
}

func (c Config) extractor() extract.Extractor {
	var phones *registry.PhoneNormalizer
	if c.NormalizePhones {
		phones = &registry.PhoneNormalizer{Region: c.PhoneRegion}
	}
	return extract.NewExtractor(c.Layout, phones)
}
