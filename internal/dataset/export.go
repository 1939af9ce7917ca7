package dataset

import (
	"context"

	"github.com/mwantia/gotagger/pkg/report"
)

// ExportSummary writes the tag summary into an xlsx workbook at path.
func (s *Session) ExportSummary(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, validationError("output path is required")
	}

	summary, err := s.TagSummary(ctx)
	if err != nil {
		return 0, err
	}

	rows := make([]report.TagRow, 0, len(summary))
	for _, tag := range summary {
		rows = append(rows, report.TagRow{
			Name:       tag.Name,
			Count:      tag.Count,
			Background: tag.Color.Background,
			Foreground: tag.Color.Foreground,
		})
	}

	if err := report.WriteTagSummary(path, rows); err != nil {
		return 0, err
	}

	s.log.Info("Exported %d tags to '%s'", len(rows), path)
	return len(rows), nil
}
