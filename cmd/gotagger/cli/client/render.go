package client

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mwantia/gotagger/internal/dataset"
)

// renderTag draws a tag as a badge in its own colors.
func renderTag(name string, color dataset.TagColor, enabled bool) string {
	if !enabled {
		return name
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(color.Background)).
		Foreground(lipgloss.Color(color.Foreground)).
		Padding(0, 1).
		Render(name)
}

func renderTags(tags []dataset.TagView, enabled bool) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, renderTag(tag.Name, tag.Color, enabled))
	}

	separator := ", "
	if enabled {
		separator = " "
	}
	return strings.Join(parts, separator)
}
