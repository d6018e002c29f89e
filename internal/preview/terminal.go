package preview

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"terraingen/internal/config"
	"terraingen/internal/grid"
)

const (
	unclassifiedGlyph = "."
	forestGlyph       = "*"
)

// TerminalMap draws one glyph per stepped cell: the label's initial in its preview colour,
// or a forest glyph where the mask is set. Colour is dropped when the output is not a terminal.
func TerminalMap(layers Layers) string {
	if layers.Labels == nil || layers.Width <= 0 || layers.Height <= 0 {
		return ""
	}
	step := layers.Factor
	if step < 1 {
		step = 1
	}

	styles := make(map[string]lipgloss.Style, len(layers.Thresholds))
	for _, th := range layers.Thresholds {
		styles[th.Label] = lipgloss.NewStyle().Foreground(lipgloss.Color(colorOr(th.Color)))
	}
	forestStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#1f6b1f")).Bold(true)

	var b strings.Builder
	for y := 0; y < layers.Height; y += step {
		for x := 0; x < layers.Width; x += step {
			if layers.Mask != nil {
				if mark, ok := layers.Mask.Cell(x, y); ok && (layers.Mark == "" || mark == layers.Mark) {
					b.WriteString(forestStyle.Render(forestGlyph))
					continue
				}
			}
			label, ok := layers.Labels.Cell(x, y)
			if !ok {
				b.WriteString(unclassifiedGlyph)
				continue
			}
			b.WriteString(styles[label].Render(glyph(label)))
		}
		b.WriteByte('\n')
	}
	b.WriteString(legend(layers.Thresholds, styles))
	return b.String()
}

func glyph(label string) string {
	r, _ := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

func legend(thresholds []config.TerrainThreshold, styles map[string]lipgloss.Style) string {
	parts := make([]string, 0, len(thresholds)+1)
	for _, th := range thresholds {
		parts = append(parts, styles[th.Label].Render(glyph(th.Label))+" "+th.Label)
	}
	parts = append(parts, forestGlyph+" forest")
	return strings.Join(parts, "  ") + "\n"
}

// Coverage counts labelled cells per label, for summaries next to the map.
func Coverage(labels grid.LabelGrid) map[string]int {
	counts := make(map[string]int)
	labels.ForEachCell(func(x, y int) bool {
		if label, ok := labels.Cell(x, y); ok {
			counts[label]++
		}
		return true
	})
	return counts
}
