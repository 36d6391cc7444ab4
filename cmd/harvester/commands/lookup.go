package commands

import (
	"errors"
	"fmt"
	"os"

	"agencyharvest/internal/components/serviceutil"
	"agencyharvest/internal/store"

	"github.com/spf13/cobra"
)

var lookupDb string

func init() {
	lookupCmd.Flags().StringVar(&lookupDb, "db", "", "Store uri, overrides the config and "+databaseEnv+".")
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <document-number> [--db URI]",
	Short: "Prints a stored agency.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore(cmd.Context(), lookupDb, true)
		defer st.Close()

		record, err := st.Lookup(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "no agency with document number %s\n", args[0])
			return
		}
		if err != nil {
			serviceutil.Fatal("failed to lookup agency", err)
		}
		renderRecord(record)
	},
}
