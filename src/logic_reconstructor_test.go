package bitsentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeLUTModificationClasses(t *testing.T) {
	var cases = []struct {
		golden, suspect uint64
		class           string
		semantic        string
		severity        severity_level
	}{
		{0x5555, 0x5555, "no_change", "no_change", SEVERITY_INFO},
		// One flipped minterm in a live function: Trojan signature.
		{0xDEADBEEF, 0xDEADBEEE, "minimal_targeted", "targeted_modification", SEVERITY_CRITICAL},
		{0xDEADBEEF, 0xDEADBE00, "moderate", "function_changed", SEVERITY_MEDIUM},
		// Live function forced to constant zero.
		{0x00000000000000FF, 0, "moderate", "function_disabled", SEVERITY_MEDIUM},
		// Dead LUT brought to life.
		{0, 0x8000000000000000, "minimal_targeted", "function_enabled", SEVERITY_HIGH},
	}

	for _, c := range cases {
		var analysis = analyze_lut_modification(c.golden, c.suspect)
		assert.Equal(t, c.class, analysis.change_class, "0x%X -> 0x%X", c.golden, c.suspect)
		assert.Equal(t, c.semantic, analysis.semantic, "0x%X -> 0x%X", c.golden, c.suspect)
		assert.Equal(t, c.severity, analysis.severity, "0x%X -> 0x%X", c.golden, c.suspect)
	}
}

func TestAnalyzeLUTModificationBoundaries(t *testing.T) {
	var tt = func(n int) uint64 {
		var v uint64
		for i := 0; i < n; i++ {
			v |= 1 << uint(i)
		}
		return v
	}

	assert.Equal(t, "minimal_targeted", analyze_lut_modification(0, tt(4)).change_class)
	assert.Equal(t, "moderate", analyze_lut_modification(0, tt(5)).change_class)
	assert.Equal(t, "moderate", analyze_lut_modification(0, tt(16)).change_class)
	assert.Equal(t, "substantial", analyze_lut_modification(0, tt(17)).change_class)
	assert.Equal(t, "substantial", analyze_lut_modification(0, tt(32)).change_class)
	assert.Equal(t, "complete_rewrite", analyze_lut_modification(0, tt(33)).change_class)
	assert.Equal(t, "complete_rewrite", analyze_lut_modification(0, ^uint64(0)).change_class)
}

func TestLUTConfigPredicates(t *testing.T) {
	var zero = &lut_config{truth_table: 0}
	assert.False(t, zero.is_initialized())
	assert.True(t, zero.is_constant())

	var ones = &lut_config{truth_table: ^uint64(0)}
	assert.True(t, ones.is_constant())

	var live = &lut_config{truth_table: 0xCAFE}
	assert.True(t, live.is_initialized())
	assert.False(t, live.is_constant())
}

func TestCompareLogic(t *testing.T) {
	var golden = new_logic_configuration("golden")
	var suspect = new_logic_configuration("suspect")

	var mk = func(tile, slice, name string, tt uint64) *lut_config {
		return &lut_config{tile: tile, slice: slice, lut_name: name, truth_table: tt, far: far_clb_logic}
	}

	golden.add_lut(mk("CLBLM_X2Y10", "SLICE_0", "A", 0x1111))
	golden.add_lut(mk("CLBLM_X2Y10", "SLICE_0", "B", 0x2222))
	suspect.add_lut(mk("CLBLM_X2Y10", "SLICE_0", "A", 0x1111))
	suspect.add_lut(mk("CLBLM_X2Y10", "SLICE_0", "B", 0x2223))
	suspect.add_lut(mk("CLBLM_X2Y11", "SLICE_1", "C", 0x3333))

	var cmp = compare_logic(golden, suspect)

	assert.Len(t, cmp.added, 1)
	assert.Empty(t, cmp.removed)
	require.Len(t, cmp.modified, 1)
	assert.Equal(t, "B", cmp.modified[0].id.lut_name)
	assert.Equal(t, uint64(0x2222), cmp.modified[0].golden_tt)
	assert.Equal(t, uint64(0x2223), cmp.modified[0].suspect_tt)
}

func TestLogicConfigurationUsedTiles(t *testing.T) {
	var config = new_logic_configuration("x")
	config.add_lut(&lut_config{tile: "CLBLM_X2Y10", slice: "SLICE_0", lut_name: "A", truth_table: 0xF})
	config.add_lut(&lut_config{tile: "CLBLM_X2Y11", slice: "SLICE_0", lut_name: "A", truth_table: 0})

	var used = config.used_tiles()
	assert.True(t, used["CLBLM_X2Y10"])
	assert.False(t, used["CLBLM_X2Y11"])
}

func TestLogicReconstructSkipsRoutingFrames(t *testing.T) {
	var lr = new_logic_reconstructor()
	var config = lr.reconstruct("x", []*frame_write{{
		far:     far_clb_routing,
		fields:  far_decode(far_clb_routing),
		payload: frame_payload(900),
	}})
	assert.Empty(t, config.luts)
	assert.Empty(t, config.ffs)
}
