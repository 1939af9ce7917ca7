package dataset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportSummary(t *testing.T) {
	s, _ := setupSyncedDataset(t, map[string]string{
		"a.png": "x, y",
		"b.png": "x",
	})
	out := filepath.Join(t.TempDir(), "summary.xlsx")

	count, err := s.ExportSummary(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Tags")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"x", "2", "#eeeeee", "#333333"}, rows[1])
	assert.Equal(t, "y", rows[2][0])

	_, err = s.ExportSummary(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}
