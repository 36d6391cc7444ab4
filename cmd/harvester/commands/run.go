package commands

import (
	"os"

	"agencyharvest/internal/components/chrono"
	"agencyharvest/internal/components/serviceutil"
	"agencyharvest/internal/harvest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// exitAborted is the conventional exit code of a process stopped by SIGINT.
const exitAborted = 130

var (
	runFrom         int
	runTo           int
	runDb           string
	runResume       bool
	runRequireStore bool
)

func init() {
	runCmd.Flags().IntVar(&runFrom, "from", 0, "First key to query (default from config, else 1000).")
	runCmd.Flags().IntVar(&runTo, "to", 0, "Key to stop before (default from config, else 100000).")
	runCmd.Flags().StringVar(&runDb, "db", "", "Store uri, overrides the config and "+databaseEnv+".")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "Continue from the checkpoint of the last run.")
	runCmd.Flags().BoolVar(&runRequireStore, "require-store", false, "Exit instead of running without persistence when the store cannot be opened.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--from N] [--to N] [--db URI] [--resume] [--require-store]",
	Short: "Sweeps the key range against the registry and upserts every agency found.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := serviceutil.SignalContext(cmd.Context())
		defer cancel()

		harvestCfg := config.harvestConfig()
		if cmd.Flags().Changed("from") {
			harvestCfg.Start = runFrom
		}
		if cmd.Flags().Changed("to") {
			harvestCfg.End = runTo
		}
		harvestCfg.Resume = runResume
		if harvestCfg.Start >= harvestCfg.End {
			serviceutil.Fatal("invalid range", errInvalidRange(harvestCfg.Start, harvestCfg.End))
		}

		st := openStore(ctx, runDb, runRequireStore)
		defer st.Close()
		tel.ReportInfo("using store", "kind", st.Kind())

		controller := harvest.NewController(
			harvest.OpenerFunc(openSession),
			config.extractor(),
			st,
			chrono.NewStandardImpl(),
			tel,
			harvestCfg,
		)
		summary, err := controller.Run(ctx)
		if err != nil {
			serviceutil.Fatal("failed to start harvest", err)
		}

		t := newTable()
		t.AppendRows([]table.Row{
			{"Run", summary.RunID},
			{"Status", summary.Status.String()},
			{"Range", harvestRange(summary.StartKey, harvestCfg.End)},
			{"Next key", summary.State.CurrentKey},
			{"Successful", summary.State.SuccessfulQueries},
			{"Failed", summary.State.FailedQueries},
			{"Inserted", summary.State.Inserted},
			{"Updated", summary.State.Updated},
		})
		t.Render()

		if summary.Status == harvest.StatusAborted {
			st.Close()
			shutdownTelemetry()
			os.Exit(exitAborted)
		}
	},
}
