package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"agencyharvest/internal/components/serviceutil"
	"agencyharvest/internal/components/telemetry"
	"agencyharvest/internal/harvest"
	"agencyharvest/internal/scrapers/tursab"
	"agencyharvest/internal/store"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	config Config
	tel    telemetry.API = telemetry.SlogAPI{}
	otelT  telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "harvester sweeps the TÜRSAB agency search and keeps the agencies it finds in a database.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)

		var err error
		config, err = loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		if config.Otlp.Enabled() {
			otelT, err = telemetry.Setup(cmd.Context(), "harvester", config.Otlp)
			if err != nil {
				serviceutil.Fatal("failed to setup telemetry", err)
			}
			telemetry.InstrumentPerfStats(cmd.Context())
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdownTelemetry()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The json5 config file to read.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func shutdownTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err := otelT.Shutdown(ctx)
	if err != nil {
		tel.ReportWarning("harvester.shutdown-telemetry", err)
	}
}

// openStore opens the store named by the --db flag or the config.
func openStore(ctx context.Context, uri string, required bool) store.Store {
	if uri == "" {
		uri = config.Database
	}
	if !required {
		return store.OpenOrDegrade(ctx, uri, tel)
	}
	backend, err := store.Open(ctx, uri)
	if err != nil {
		serviceutil.Fatal("failed to open store", err)
	}
	return store.New(backend, tel)
}

func openSession(ctx context.Context) (harvest.Session, error) {
	session, err := tursab.Open(ctx, config.sessionOptions(), tel)
	if err != nil {
		return nil, err
	}
	return session, nil
}
