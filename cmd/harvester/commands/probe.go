package commands

import (
	"fmt"
	"strconv"

	"agencyharvest/internal/components/serviceutil"
	"agencyharvest/internal/extract"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe <code>",
	Short: "Queries the live registry for one code and prints what would be extracted, nothing is stored.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		code, err := strconv.Atoi(args[0])
		if err != nil {
			serviceutil.Fatal("code must be an integer", err)
		}

		session, err := openSession(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to open registry session", err)
		}
		defer session.Close()

		extractor := config.extractor()
		err = session.Submit(cmd.Context(), strconv.Itoa(code))
		if err != nil {
			serviceutil.Fatal("failed to submit query", err)
		}
		tree, err := session.AwaitRendered(cmd.Context(), extractor.Layout.Markers()...)
		if err != nil {
			serviceutil.Fatal("page did not render", err)
		}

		outcome := extractor.Extract(tree)
		switch outcome.Kind {
		case extract.KindRecords:
			renderRecords(outcome.Records)
		default:
			fmt.Printf("%s: %s\n", outcome.Kind, outcome.Message)
		}
	},
}
