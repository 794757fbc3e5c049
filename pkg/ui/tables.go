package ui

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"wyniki/pkg/models"
)

// NewTable returns a rounded table writer mirrored to w
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	if NoColor() {
		t.Style().Color = table.ColorOptions{}
	}
	return t
}

// RenderSummary prints per-order results and crawl totals
func RenderSummary(w io.Writer, s *models.CrawlSummary) {
	t := NewTable(w)
	t.SetTitle(fmt.Sprintf("Crawl %s", s.RunID))
	t.AppendHeader(table.Row{"#", "Order", "Identifier", "Saved", "Failed", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	for i, r := range s.Orders {
		t.AppendRow(table.Row{i + 1, string(r.Ref), r.Identifier, r.SavedCount(), r.FailedCount(), orderStatus(r)})
	}

	t.AppendFooter(table.Row{
		"", fmt.Sprintf("%d discovered", s.OrdersDiscovered),
		fmt.Sprintf("%d with files", s.OrdersWithArtifacts),
		s.ArtifactsSaved, s.ArtifactsFailed,
		formatDuration(s.Duration()),
	})
	t.Render()
}

func orderStatus(r models.OrderResult) string {
	switch {
	case r.Err != nil:
		return "error"
	case r.SoftFailure():
		return "no files"
	case r.FailedCount() > 0:
		return "partial"
	default:
		return "ok"
	}
}
