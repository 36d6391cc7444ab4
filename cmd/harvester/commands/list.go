package commands

import (
	"strings"

	"agencyharvest/internal/components/serviceutil"
	"agencyharvest/internal/registry"

	"github.com/antzucaro/matchr"
	"github.com/spf13/cobra"
)

var (
	listDb   string
	listCity string
)

func init() {
	listCmd.Flags().StringVar(&listDb, "db", "", "Store uri, overrides the config and "+databaseEnv+".")
	listCmd.Flags().StringVar(&listCity, "city", "", "Only list agencies in this city, close spellings match too.")
	rootCmd.AddCommand(listCmd)
}

// cityThreshold lets spelling variants through, ex. "Istanbul" for "İstanbul".
const cityThreshold = 0.9

func filterCity(records []registry.Record, city string) []registry.Record {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return records
	}
	var out []registry.Record
	for _, r := range records {
		name := strings.ToLower(r.City)
		if name == city || (name != "" && matchr.JaroWinkler(name, city, false) >= cityThreshold) {
			out = append(out, r)
		}
	}
	return out
}

var listCmd = &cobra.Command{
	Use:   "list [--db URI] [--city C]",
	Short: "Prints every stored agency.",
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore(cmd.Context(), listDb, true)
		defer st.Close()

		records, err := st.ListAll(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list agencies", err)
		}
		renderRecords(filterCity(records, listCity))
	},
}
