package bitsentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture_device(t *testing.T) *device_model {
	t.Helper()
	var dm, err = new_device_model(
		device_info{Part: "xc5vlx50t", PartName: "xc5vlx50tff1136-2", FamilyType: "virtex5", Rows: DEVICE_ROWS, Cols: DEVICE_COLUMNS},
		[]tile_type{{Name: "INT"}, {Name: "CLBLL"}},
		[]*tile{
			{Name: "INT_X1Y100", Row: 100, Col: 1, Type: "INT"},
			{Name: "INT_X1Y45", Row: 45, Col: 1, Type: "INT"},
			{Name: "CLBLL_X1Y100", Row: 100, Col: 1, Type: "CLBLL"},
		},
		[]*wire{
			{Tile: "INT_X1Y100", WireId: 1},
			{Tile: "INT_X1Y100", WireId: 2},
			{Tile: "INT_X1Y100", WireId: 3},
			{Tile: "INT_X1Y100", WireId: 4},
			{Tile: "INT_X1Y45", WireId: 7},
			{Tile: "INT_X1Y45", WireId: 8},
		},
		[]*site{
			{Name: "SLICE_X0Y100", Type: "SLICE", Tile: "CLBLL_X1Y100"},
		},
		[]*pip{
			{Tile: "INT_X1Y100", StartWireId: 1, EndWireId: 2},
			{Tile: "INT_X1Y100", StartWireId: 3, EndWireId: 4},
			{Tile: "INT_X1Y45", StartWireId: 7, EndWireId: 8},
		},
	)
	require.NoError(t, err)
	return dm
}

func TestDeviceModelQueries(t *testing.T) {
	var dm = fixture_device(t)

	require.NotNil(t, dm.tile_by_name("INT_X1Y100"))
	assert.Nil(t, dm.tile_by_name("INT_X9Y9"))
	assert.Equal(t, "INT_X1Y45", dm.tile_at(1, 45).Name)
	assert.Len(t, dm.tiles_of_type("INT"), 2)
	assert.Len(t, dm.tiles_in_column(1), 3)
	assert.Len(t, dm.tiles_in_row(100), 2)
	assert.Len(t, dm.wires_of_tile("INT_X1Y100"), 4)
	assert.Len(t, dm.pips_of_tile("INT_X1Y100"), 2)
	assert.Len(t, dm.sites_of_tile("CLBLL_X1Y100"), 1)

	var cols, rows = dm.dimensions()
	assert.Equal(t, DEVICE_COLUMNS, cols)
	assert.Equal(t, DEVICE_ROWS, rows)
}

func TestDeviceModelRoutingEdges(t *testing.T) {
	var dm = fixture_device(t)

	var edges = dm.pips_from("INT_X1Y100", 1)
	require.Len(t, edges, 1)
	assert.Equal(t, "INT_X1Y100", edges[0].end_tile)
	assert.Equal(t, 2, edges[0].end_wire)

	assert.Empty(t, dm.pips_from("INT_X1Y100", 2))
}

func TestDeviceModelClassification(t *testing.T) {
	var dm = fixture_device(t)

	assert.True(t, is_routing_tile(dm.tile_by_name("INT_X1Y100")))
	assert.False(t, is_routing_tile(dm.tile_by_name("CLBLL_X1Y100")))
	assert.True(t, is_logic_tile(dm.tile_by_name("CLBLL_X1Y100")))
	assert.True(t, is_clock_tile(&tile{Type: "HCLK"}))
	assert.True(t, is_clock_tile(&tile{Type: "CLK_HROW"}))
	assert.False(t, is_clock_tile(dm.tile_by_name("INT_X1Y45")))
}

func TestFramesForSite(t *testing.T) {
	var dm = fixture_device(t)
	var rm = new_reverse_mapper(REVERSE_HYBRID, dm)

	assert.Equal(t, rm.frames_for_tile("CLBLL_X1Y100"), rm.frames_for_site("SLICE_X0Y100"))
	assert.Empty(t, rm.frames_for_site("SLICE_X9Y9"))
	// Site queries need a device model.
	assert.Empty(t, new_reverse_mapper(REVERSE_HYBRID, nil).frames_for_site("SLICE_X0Y100"))
}

// Dangling references are fatal: bad device data cannot yield
// trustworthy detections.
func TestDeviceModelValidation(t *testing.T) {
	var _, err = new_device_model(
		device_info{Part: "xc5vlx50t"},
		nil,
		[]*tile{{Name: "INT_X0Y0", Type: "INT"}},
		[]*wire{{Tile: "GHOST_X9Y9", WireId: 1}},
		nil,
		nil,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tile")

	_, err = new_device_model(
		device_info{Part: "xc5vlx50t"},
		nil,
		[]*tile{{Name: "INT_X0Y0", Type: "INT"}},
		nil,
		nil,
		[]*pip{{Tile: "GHOST_X9Y9", StartWireId: 1, EndWireId: 2}},
	)
	assert.Error(t, err)
}
