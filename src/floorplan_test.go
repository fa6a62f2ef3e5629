package bitsentry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFloorplanDimensions(t *testing.T) {
	var img = render_floorplan(sample_report(t))
	var bounds = img.Bounds()
	assert.Equal(t, DEVICE_COLUMNS*floorplan_cell, bounds.Dx())
	assert.Equal(t, DEVICE_ROWS*floorplan_cell, bounds.Dy())
}

func TestRenderFloorplanPaintsAnomaly(t *testing.T) {
	var img = render_floorplan(sample_report(t))

	// The critical anomaly sits in column 1, rows [100, 120).
	var r, g, b, _ = img.At(1*floorplan_cell+2, 110*floorplan_cell+2).RGBA()
	assert.Greater(t, r, g, "critical cells render red-dominant")
	assert.Greater(t, r, b)
}

func TestWriteFloorplan(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "floorplan.png")
	require.NoError(t, write_floorplan(sample_report(t), path))

	var size, err = file_size(path)
	require.NoError(t, err)
	assert.Positive(t, size)
}
