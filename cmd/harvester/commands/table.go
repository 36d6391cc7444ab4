package commands

import (
	"os"

	"agencyharvest/internal/registry"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func renderRecords(records []registry.Record) {
	t := newTable()
	t.AppendHeader(table.Row{"Document", "Name", "Phone", "Fax", "Email", "District", "City", "BTK"})
	for _, r := range records {
		t.AppendRow(table.Row{r.DocumentNumber, r.Name, r.Phone, r.Fax, r.Email, r.District, r.City, r.RegulatoryRef})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", len(records)})
	t.Render()
}

func renderRecord(r registry.Record) {
	t := newTable()
	t.AppendRows([]table.Row{
		{"Document", r.DocumentNumber},
		{"Name", r.Name},
		{"Phone", r.Phone},
		{"Fax", r.Fax},
		{"Email", r.Email},
		{"Address", r.Address},
		{"District", r.District},
		{"City", r.City},
		{"BTK", r.RegulatoryRef},
	})
	t.Render()
}
