package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"wyniki/pkg/ui"
)

// RenderResult prints a per-file table of a conversion run
func RenderResult(w io.Writer, r *Result) {
	t := ui.NewTable(w)
	t.SetTitle(fmt.Sprintf("XML results in %s", r.InputDir))
	t.AppendHeader(table.Row{"File", "Parameters", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	for _, f := range r.Files {
		status := "ok"
		if f.Err != nil {
			status = f.Err.Error()
		}
		t.AppendRow(table.Row{f.File, f.Rows, status})
	}

	t.AppendFooter(table.Row{fmt.Sprintf("%d files", len(r.Files)), r.Rows, fmt.Sprintf("%d failed", r.Failed())})
	t.Render()
}

// RenderRows prints up to limit rows as a preview; limit <= 0 prints all
func RenderRows(w io.Writer, rows []Row, limit int) {
	t := ui.NewTable(w)
	t.AppendHeader(table.Row{"Barcode", "Parameter", "Value", "Unit", "Range", "Original"})

	for i, r := range rows {
		if limit > 0 && i >= limit {
			t.AppendFooter(table.Row{"", fmt.Sprintf("%d more", len(rows)-limit)})
			break
		}
		bounds := ""
		if r.Low != "" || r.High != "" {
			bounds = r.Low + " - " + r.High
		}
		original := ""
		if r.OriginalUnit != r.Unit {
			original = r.OriginalValue + " " + r.OriginalUnit
		}
		t.AppendRow(table.Row{r.Barcode, r.Label, r.Value, r.Unit, bounds, original})
	}
	t.Render()
}
