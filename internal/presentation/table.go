package presentation

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/truncate"

	"github.com/zjrosen/rulebook/internal/rules"
)

// Ellipsis marks a truncated cell.
const Ellipsis = "…"

// Renderer draws tables for terminal output.
type Renderer struct {
	// MaxColumnWidth truncates longer cells; 0 disables truncation.
	MaxColumnWidth int
}

// NewRenderer creates a renderer that truncates cells at maxColumnWidth.
func NewRenderer(maxColumnWidth int) *Renderer {
	return &Renderer{MaxColumnWidth: maxColumnWidth}
}

// RenderRules draws the rule list. The header of the sort column carries
// an arrow and selected rows are highlighted.
func (r *Renderer) RenderRules(rows []RuleDTO, sort rules.SortState) string {
	headers := []string{"#"}
	for _, col := range rules.AllColumns {
		title := col.Title()
		if sort.Active && sort.Column == col {
			if sort.Ascending {
				title += " ▲"
			} else {
				title += " ▼"
			}
		}
		headers = append(headers, title)
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = []string{
			strconv.Itoa(row.Position),
			r.truncate(row.Name),
			r.truncate(row.GroupNames),
			r.truncate(row.Provider),
		}
	}

	return r.newTable(headers, cells).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(rows) && rows[row].Selected:
				return selectedStyle
			case col == 0:
				return mutedStyle
			default:
				return cellStyle
			}
		}).
		String()
}

// RenderProviders draws the selectable provider types.
func (r *Renderer) RenderProviders(providers []ProviderDTO) string {
	cells := make([][]string, len(providers))
	for i, p := range providers {
		editable := "no"
		if p.Editable {
			editable = "yes"
		}
		cells[i] = []string{strconv.Itoa(p.Index), p.Name, p.TypeID, editable}
	}
	return r.newTable([]string{"Index", "Name", "Type", "Editable"}, cells).
		StyleFunc(plainStyle).
		String()
}

// RenderFields draws editable provider fields.
func (r *Renderer) RenderFields(fields []FieldDTO) string {
	cells := make([][]string, len(fields))
	for i, f := range fields {
		required := ""
		if f.Required {
			required = "required"
		}
		cells[i] = []string{f.Name, r.truncate(f.Value), required}
	}
	return r.newTable([]string{"Field", "Value", ""}, cells).
		StyleFunc(plainStyle).
		String()
}

// RenderPreview draws provider results per asset.
func (r *Renderer) RenderPreview(results []PreviewDTO) string {
	cells := make([][]string, len(results))
	for i, res := range results {
		version := res.Version
		if !res.Matched {
			version = "-"
		}
		cells[i] = []string{r.truncate(res.Asset), version}
	}
	return r.newTable([]string{"Asset", "Version"}, cells).
		StyleFunc(plainStyle).
		String()
}

func (r *Renderer) newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...)
}

func (r *Renderer) truncate(s string) string {
	if r.MaxColumnWidth <= 0 || lipgloss.Width(s) <= r.MaxColumnWidth {
		return s
	}
	return truncate.StringWithTail(s, uint(r.MaxColumnWidth), Ellipsis) //nolint:gosec // G115: width checked positive above
}

func plainStyle(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return cellStyle
}
