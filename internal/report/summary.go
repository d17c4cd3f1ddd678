package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"shooting_stats/internal/stats"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Summary renders the totals and one table per dimension for measure m,
// plus the Race × Gender matrix, for terminal output.
func Summary(r *Report, m stats.Measure) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Run %s", r.RunID)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s: %d rows read, %d kept, %d dropped",
		r.Input, r.Records.Input, r.Records.Kept, r.Records.Dropped)))
	b.WriteString("\n\n")

	totals := make([][]string, 0, len(stats.Measures))
	for _, meas := range stats.Measures {
		totals = append(totals, []string{meas.Label(), humanize.Comma(int64(r.Totals[meas.String()]))})
	}
	b.WriteString(renderTable([]string{"Measure", "Total"}, totals))
	b.WriteString("\n")

	for _, dim := range stats.Dimensions {
		t, ok := r.Table(dim, m)
		if !ok {
			continue
		}
		b.WriteString(headingStyle.Render(t.Chart.Title + " · " + dim.Label()))
		b.WriteString("\n")
		if len(t.Groups) == 0 {
			b.WriteString(mutedStyle.Render("no data"))
			b.WriteString("\n\n")
			continue
		}
		rows := make([][]string, 0, len(t.Groups))
		for _, g := range t.Groups {
			rows = append(rows, []string{g.Key, humanize.Comma(int64(g.Value))})
		}
		b.WriteString(renderTable([]string{dim.Label(), m.Label()}, rows))
		b.WriteString("\n")
	}

	if mt, ok := r.Matrix(m); ok && len(mt.Matrix.Rows) > 0 {
		b.WriteString(headingStyle.Render(mt.Chart.Title + " · Race × Gender"))
		b.WriteString("\n")
		headers := append([]string{"Race"}, mt.Matrix.Columns...)
		rows := make([][]string, 0, len(mt.Matrix.Rows))
		for _, race := range mt.Matrix.Rows {
			row := []string{race}
			for _, gender := range mt.Matrix.Columns {
				cell := "-"
				if mt.Matrix.Has(race, gender) {
					cell = humanize.Comma(int64(mt.Matrix.Value(race, gender)))
				}
				row = append(row, cell)
			}
			rows = append(rows, row)
		}
		b.WriteString(renderTable(headers, rows))
		b.WriteString("\n")
	}

	if len(r.Maps.Omitted) > 0 {
		b.WriteString(mutedStyle.Render("not on map: " + strings.Join(r.Maps.Omitted, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col > 0:
				return numberStyle
			default:
				return cellStyle
			}
		})
	return t.String() + "\n"
}
