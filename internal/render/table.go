// Package render turns ranking results into terminal tables and
// spreadsheets.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"xivmarket/internal/models"
	"xivmarket/internal/ranking"
	"xivmarket/internal/services/universalis"
)

// Table is a ranking laid out as rows of cells. Cells hold strings or ints;
// ints are printed with thousands separators.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
	// Footer rows (totals, timing) are printed after the data rows.
	Footer [][]any
	// Align is one of 'l' or 'r' per column.
	Align string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = cellStyle.Faint(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// String renders t as a rounded border table.
func (t Table) String() string {
	rows := make([][]string, 0, len(t.Rows)+len(t.Footer))
	for _, r := range t.Rows {
		rows = append(rows, cells(r))
	}
	for _, r := range t.Footer {
		rows = append(rows, cells(r))
	}
	footerFrom := len(t.Rows)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(t.Headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			switch {
			case row == table.HeaderRow:
				s = headerStyle
			case row >= footerFrom:
				s = footerStyle
			default:
				s = cellStyle
			}
			if col < len(t.Align) && t.Align[col] == 'r' {
				return s.Align(lipgloss.Right)
			}
			return s.Align(lipgloss.Left)
		})
	return tbl.String()
}

func cells(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = Cell(v)
	}
	return out
}

// Cell formats one value for display.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return models.Thousands(x)
	default:
		return fmt.Sprint(x)
	}
}

func timingRow(width int, t ranking.Timing) []any {
	row := make([]any, width)
	for i := range row {
		row[i] = ""
	}
	row[width-2] = fmt.Sprintf("Time: %.2fs", t.Elapsed.Seconds())
	row[width-1] = fmt.Sprintf("s/item: %.2f", t.PerItem.Seconds())
	return row
}

func Ventures(res *ranking.VentureResult) Table {
	t := Table{
		Name:    "Ventures",
		Headers: []string{"Server: " + res.Server, "Lvl", "~Gil/Hr (Inc. Tax)", "~Sales/Day"},
		Align:   "lrrr",
	}
	for _, r := range res.Rows {
		t.Rows = append(t.Rows, []any{r.Name, r.Level, r.GilPerHour, r.Velocity})
	}
	t.Footer = [][]any{timingRow(4, res.Timing)}
	return t
}

func Collectibles(res *ranking.CollectibleResult) Table {
	abbr := models.CurrencyAbbreviation(res.Currency)
	t := Table{
		Name:    "Collectibles",
		Headers: []string{"Server: " + res.Server, "Lvl", abbr, "Gil/Ea", "Gil/" + abbr},
		Align:   "llrrr",
	}
	for _, r := range res.Rows {
		t.Rows = append(t.Rows, []any{r.Name, r.Level, r.Reward, r.Cost, r.GilPerScrip})
	}
	t.Footer = [][]any{timingRow(5, res.Timing)}
	return t
}

func Scrips(res *ranking.ScripResult) Table {
	abbr := models.CurrencyAbbreviation(res.Currency)
	t := Table{
		Name:    "Scrip Rewards",
		Headers: []string{"Server: " + res.Server, abbr, "Gil/Ea (Inc. Tax)", "Gil/" + abbr, "~Sales/Day"},
		Align:   "llrrr",
	}
	for _, r := range res.Rows {
		t.Rows = append(t.Rows, []any{r.Name, r.Cost, r.Price, r.GilPerScrip, r.Velocity})
	}
	t.Footer = [][]any{timingRow(5, res.Timing)}
	return t
}

// QualityLabel names the price column of a gear table.
func QualityLabel(q universalis.Quality) string {
	switch q {
	case universalis.HQ:
		return "Price (HQ)"
	case universalis.NQ:
		return "Price (NQ)"
	default:
		return "Price"
	}
}

func Gear(res *ranking.GearResult) Table {
	title := strings.ToUpper(res.Title)
	totalLabel := "Total Price (Excl. Ornate)"
	if res.Title != title {
		// job groups
		title = strings.ToUpper(res.Title[:1]) + res.Title[1:]
		if res.Title == "all" {
			title = "Crafter + Gatherer"
		}
		totalLabel = "Total Price"
	}
	t := Table{
		Name:    "Gear",
		Headers: []string{"Slot", fmt.Sprintf("%s Gear (ilvl<=%d)", title, res.Ilvl), QualityLabel(res.Quality), "Server"},
		Align:   "llrl",
	}
	for _, r := range res.Rows {
		t.Rows = append(t.Rows, []any{r.Slot, r.Item, r.Price, r.World})
	}
	t.Footer = [][]any{
		{"", totalLabel, res.Total, ""},
		timingRow(4, res.Timing),
	}
	return t
}

func Resell(res *ranking.ResellResult) Table {
	t := Table{
		Name:    "Resell " + res.Mode,
		Headers: []string{"Home World: " + res.Home, "Home Price", "Foreign Price", "Profit (Inc. Tax)", "Lowest Server"},
		Align:   "lrrrl",
	}
	for _, r := range res.Rows {
		t.Rows = append(t.Rows, []any{r.Name, r.HomePrice, r.ForeignPrice, r.Profit, r.World})
	}
	t.Footer = [][]any{timingRow(5, res.Timing)}
	return t
}

// SaleStats lays a history summary out as a two column table.
func SaleStats(s *models.SaleStats) Table {
	return Table{
		Name:    "Sale Stats",
		Headers: []string{fmt.Sprintf("%s on %s (%d days)", s.Name, s.Server, s.NDays), "NQ", "HQ"},
		Align:   "lrr",
		Rows: [][]any{
			{"Sales (Gil)", s.NQSalesGil, s.HQSalesGil},
			{"Sales (Quantity)", s.NQSalesQuantity, s.HQSalesQuantity},
			{"Avg. Price", s.NQAverage(), s.HQAverage()},
		},
	}
}
