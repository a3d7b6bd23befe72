package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column with name and width.
type Column struct {
	Name  string
	Width int
	Align Alignment
	Style lipgloss.Style
}

// Alignment specifies column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// Table provides styled table rendering.
type Table struct {
	columns     []Column
	rows        [][]string
	title       string
	headerSep   bool
	indent      string
	headerStyle lipgloss.Style
	plain       bool
}

// NewTable creates a new table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{
		columns:     columns,
		headerSep:   true,
		indent:      "  ",
		headerStyle: Bold,
	}
}

// SetTitle sets a line rendered above the header.
func (t *Table) SetTitle(title string) *Table {
	t.title = title
	return t
}

// SetIndent sets the left indent for the table.
func (t *Table) SetIndent(indent string) *Table {
	t.indent = indent
	return t
}

// SetHeaderSeparator enables/disables the header separator line.
func (t *Table) SetHeaderSeparator(enabled bool) *Table {
	t.headerSep = enabled
	return t
}

// SetPlain disables all styling, for logs and golden files.
func (t *Table) SetPlain(plain bool) *Table {
	t.plain = plain
	return t
}

// AddRow adds a row of values to the table.
func (t *Table) AddRow(values ...string) *Table {
	for len(values) < len(t.columns) {
		values = append(values, "")
	}
	t.rows = append(t.rows, values)
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render returns the formatted table string.
func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	var sb strings.Builder

	if t.title != "" {
		sb.WriteString(t.indent)
		sb.WriteString(t.render(Bold, t.title))
		sb.WriteString("\n")
	}

	sb.WriteString(t.indent)
	var header []string
	for _, col := range t.columns {
		header = append(header, pad(t.render(t.headerStyle, col.Name), col.Width, col.Align))
	}
	sb.WriteString(strings.TrimRight(strings.Join(header, " "), " "))
	sb.WriteString("\n")

	if t.headerSep {
		totalWidth := len(t.columns) - 1
		for _, col := range t.columns {
			totalWidth += col.Width
		}
		sb.WriteString(t.indent)
		sb.WriteString(t.render(Dim, strings.Repeat("─", totalWidth)))
		sb.WriteString("\n")
	}

	for _, row := range t.rows {
		var cells []string
		for i, col := range t.columns {
			val := truncate(row[i], col.Width)
			if hasStyle(col.Style) {
				val = t.render(col.Style, val)
			}
			cells = append(cells, pad(val, col.Width, col.Align))
		}
		sb.WriteString(t.indent)
		sb.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (t *Table) render(s lipgloss.Style, text string) string {
	if t.plain {
		return text
	}
	return s.Render(text)
}

// hasStyle reports whether s changes how text looks.
func hasStyle(s lipgloss.Style) bool {
	return s.GetBold() || s.GetFaint() || s.GetReverse() ||
		s.GetForeground() != (lipgloss.NoColor{})
}

// truncate shortens plain text to width display cells, ending in "...".
func truncate(text string, width int) string {
	if lipgloss.Width(text) <= width {
		return text
	}
	if width <= 3 {
		return strings.Repeat(".", width)
	}
	var sb strings.Builder
	for _, r := range text {
		if lipgloss.Width(sb.String()+string(r)) > width-3 {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String() + "..."
}

// pad pads text to width display cells. lipgloss.Width ignores ANSI
// escape sequences.
func pad(text string, width int, align Alignment) string {
	n := lipgloss.Width(text)
	if n >= width {
		return text
	}
	padding := width - n

	switch align {
	case AlignRight:
		return strings.Repeat(" ", padding) + text
	case AlignCenter:
		left := padding / 2
		return strings.Repeat(" ", left) + text + strings.Repeat(" ", padding-left)
	default:
		return text + strings.Repeat(" ", padding)
	}
}
