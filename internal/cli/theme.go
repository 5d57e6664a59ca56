package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fastygo/roadmap/domain"
)

var (
	colorPlanned = lipgloss.Color("#8b5cf6")
	colorActive  = lipgloss.Color("#0ea5e9")
	colorWaiting = lipgloss.Color("#f97316")
	colorDone    = lipgloss.Color("#10b981")
	colorDim     = lipgloss.Color("#928374")
	colorHeader  = lipgloss.Color("#fe8019")
)

var (
	styleHeader = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleBold   = lipgloss.NewStyle().Bold(true)

	statusStyles = map[domain.Status]lipgloss.Style{
		domain.StatusPlanned: lipgloss.NewStyle().Foreground(colorPlanned),
		domain.StatusActive:  lipgloss.NewStyle().Foreground(colorActive),
		domain.StatusWaiting: lipgloss.NewStyle().Foreground(colorWaiting),
		domain.StatusDone:    lipgloss.NewStyle().Foreground(colorDone),
	}
)

// theme renders through lipgloss unless output is plain (pipes, files, tests).
type theme struct {
	plain bool
}

func (t theme) render(style lipgloss.Style, s string) string {
	if t.plain {
		return s
	}
	return style.Render(s)
}

func (t theme) header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", t.render(styleHeader, upper), t.render(styleDim, line))
}

func (t theme) dim(s string) string  { return t.render(styleDim, s) }
func (t theme) bold(s string) string { return t.render(styleBold, s) }

func (t theme) status(st domain.Status) string {
	style, ok := statusStyles[st]
	if !ok {
		style = styleDim
	}
	return t.render(style, st.Emoji()+" "+st.Label())
}

// table renders an aligned table with a header separator. Widths are measured
// with lipgloss so styled cells line up.
func (t theme) table(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	const colGap = 2
	cols := len(headers)
	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			b.WriteString(style(cell))
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", pad+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return t.render(styleHeader, s) })
	seps := make([]string, cols)
	for i, w := range widths {
		seps[i] = strings.Repeat("─", w)
	}
	writeRow(seps, t.dim)
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}
