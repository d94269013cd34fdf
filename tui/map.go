package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minZoom     = 3
	maxZoom     = 18
	defaultZoom = 13
)

var (
	markerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	crosshairStyle = lipgloss.NewStyle().Faint(true)
	canvasStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("8"))
)

func clampZoom(zoom int) int {
	if zoom < minZoom {
		return minZoom
	}
	if zoom > maxZoom {
		return maxZoom
	}
	return zoom
}

// latSpanForZoom is the degrees of latitude spanned by the canvas: the
// whole world at zoom 0, halving with each level.
func latSpanForZoom(zoom int) float64 {
	return 360 / math.Pow(2, float64(zoom))
}

type cell struct {
	glyph rune
	style lipgloss.Style
}

// renderMap projects visible markers onto a character grid centered on the
// viewport. Markers outside the grid stay in the visible set; they are
// simply not drawn.
func (m appModel) renderMap() string {
	width := clampInt(m.width-4, 40, 110)
	height := clampInt(m.height-10, 10, 30)

	vp := m.tracker.Current()
	latSpan := latSpanForZoom(vp.Zoom)
	// Terminal cells are roughly twice as tall as wide.
	lonSpan := latSpan * float64(width) / float64(height) / 2

	grid := make([][]cell, height)
	for row := range grid {
		grid[row] = make([]cell, width)
		for col := range grid[row] {
			grid[row][col] = cell{glyph: ' '}
		}
	}
	grid[height/2][width/2] = cell{glyph: '+', style: crosshairStyle}

	drawn := 0
	for i, marker := range m.markers {
		col := int((marker.Venue.Lon - (vp.CenterLon - lonSpan/2)) / lonSpan * float64(width))
		row := int(((vp.CenterLat + latSpan/2) - marker.Venue.Lat) / latSpan * float64(height))
		if row < 0 || row >= height || col < 0 || col >= width {
			continue
		}
		if i == m.selected {
			grid[row][col] = cell{glyph: '◉', style: selectedStyle}
		} else if grid[row][col].glyph != '◉' {
			grid[row][col] = cell{glyph: '●', style: markerStyle}
		}
		drawn++
	}

	rows := make([]string, height)
	for row := range grid {
		var sb strings.Builder
		for _, c := range grid[row] {
			sb.WriteString(c.style.Render(string(c.glyph)))
		}
		rows[row] = sb.String()
	}
	canvas := canvasStyle.Render(strings.Join(rows, "\n"))

	return canvas + "\n" + m.mapFooter(drawn)
}

func (m appModel) mapFooter(drawn int) string {
	if len(m.markers) == 0 {
		return hint("No venues match the current filters.")
	}
	marker := m.markers[m.selected]
	label := fmt.Sprintf("◉ %s — %d event(s)", marker.Venue.Name, len(marker.Occurrences))
	if marker.Venue.Town != "" {
		label += " • " + marker.Venue.Town
	}
	footer := selectedStyle.Render(label)
	if drawn < len(m.markers) {
		footer += "\n" + hint(fmt.Sprintf("%d of %d markers on screen; pan or zoom out for the rest.", drawn, len(m.markers)))
	}
	return footer
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
