package bitsentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCoverageCLBRoutingFrame(t *testing.T) {
	var mapper = new_frame_mapper()
	var cov = mapper.map_frame(far_clb_routing) // column 1, minor 5

	require.True(t, cov.is_valid)
	assert.Equal(t, COLUMN_CLB, cov.column_type)
	assert.True(t, cov.has_category(RES_ROUTING))
	assert.True(t, cov.has_category(RES_CONTROL))
	assert.False(t, cov.has_category(RES_LOGIC))

	// minor 5 in the bottom half covers rows [100, 120).
	assert.Equal(t, 100, cov.y_lo)
	assert.Equal(t, 120, cov.y_hi)
	assert.Contains(t, cov.tiles_affected, "CLBLL_X1Y100")
	assert.Contains(t, cov.tiles_affected, "INT_X1Y119")
	assert.Len(t, cov.tiles_affected, 40)

	assert.Equal(t, RISK_HIGH, cov.trojan_risk)
	assert.Contains(t, cov.attack_vectors, "routing_detour")
}

func TestCoverageCLBLogicFrame(t *testing.T) {
	var cov = new_frame_mapper().map_frame(far_clb_logic)

	require.True(t, cov.is_valid)
	assert.True(t, cov.has_category(RES_LOGIC))
	assert.False(t, cov.has_category(RES_ROUTING))
	assert.Equal(t, RISK_MEDIUM, cov.trojan_risk)
	assert.Contains(t, cov.attack_vectors, "lut_truth_table_modification")
}

func TestCoverageRoutingLogicBoundary(t *testing.T) {
	// Minor 21 is the last routing frame of a CLB column; 22 the
	// first logic frame.
	var mapper = new_frame_mapper()
	assert.True(t, mapper.map_frame(far_encode(BLOCK_CLB, 0, 1, 21)).has_category(RES_ROUTING))
	assert.True(t, mapper.map_frame(far_encode(BLOCK_CLB, 0, 1, 22)).has_category(RES_LOGIC))
}

func TestCoverageIOB(t *testing.T) {
	var cov = new_frame_mapper().map_frame(far_iob)

	require.True(t, cov.is_valid)
	assert.True(t, cov.has_category(RES_IO))
	assert.True(t, cov.has_category(RES_ROUTING))
	assert.Equal(t, RISK_CRITICAL, cov.trojan_risk)
	assert.Contains(t, cov.attack_vectors, "data_exfiltration")
}

func TestCoverageCLK(t *testing.T) {
	var cov = new_frame_mapper().map_frame(far_clk)

	require.True(t, cov.is_valid)
	assert.True(t, cov.has_category(RES_CLOCK))
	// Clock outranks everything, including the IOB rule.
	assert.Equal(t, RISK_CRITICAL, cov.trojan_risk)
	assert.Contains(t, cov.attack_vectors, "clock_network_tampering")
}

func TestCoverageBRAM(t *testing.T) {
	var mapper = new_frame_mapper()

	var interconnect = mapper.map_frame(far_bram_int)
	assert.Equal(t, BLOCK_BRAM_INT, interconnect.block_type)
	assert.True(t, interconnect.has_category(RES_ROUTING))
	assert.Equal(t, RISK_HIGH, interconnect.trojan_risk)

	var content = mapper.map_frame(far_encode(BLOCK_BRAM_CONTENT, 0, 4, 30))
	assert.Equal(t, BLOCK_BRAM_CONTENT, content.block_type)
	assert.True(t, content.has_category(RES_MEMORY))
	assert.Equal(t, RISK_MEDIUM, content.trojan_risk)
	assert.Contains(t, content.attack_vectors, "malicious_payload_storage")
}

func TestCoverageTopHalfStartsAtY80(t *testing.T) {
	var cov = new_frame_mapper().map_frame(far_encode(BLOCK_CLB, 1, 1, 0))
	assert.Equal(t, 80, cov.y_lo)
	assert.Equal(t, 100, cov.y_hi)
	assert.Contains(t, cov.tiles_affected, "CLBLL_X1Y80")
}

func TestCoverageClampsOutOfGridWindows(t *testing.T) {
	// Top half, minor 4 would start at row 160: clamped empty.
	var cov = new_frame_mapper().map_frame(far_encode(BLOCK_CLB, 1, 1, 4))
	assert.Equal(t, cov.y_lo, cov.y_hi)
	assert.Empty(t, cov.tiles_affected)
}

func TestCoverageInvalidFAR(t *testing.T) {
	var cov = new_frame_mapper().map_frame(far_encode(BLOCK_CLB, 0, 0, 0))
	assert.False(t, cov.is_valid)
	assert.Contains(t, cov.warning, "block_type_mismatch")
	assert.True(t, cov.has_category(RES_UNKNOWN))
}

// Bit-region partitioning: routing and logic regions never overlap
// and never exceed the frame.
func TestCoverageBitRegionPartitioning(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var major = rapid.IntRange(0, DEVICE_COLUMNS-1).Draw(t, "major")
		var minor = rapid.IntRange(0, frames_per_column(major)-1).Draw(t, "minor")
		var far = far_encode(block_type_for(major, minor), rapid.IntRange(0, 1).Draw(t, "tb"), major, minor)

		var cov = compute_coverage(far)
		assert.LessOrEqual(t, cov.routing_bit_count()+cov.logic_bit_count(), FRAME_BITS)

		var seen = make(map[int]bool)
		for _, ranges := range [][]bit_range{cov.routing_bit_ranges, cov.logic_bit_ranges} {
			for _, r := range ranges {
				for bit := r.start; bit < r.end; bit++ {
					assert.False(t, seen[bit], "bit %d appears in two regions", bit)
					seen[bit] = true
				}
			}
		}
	})
}

func TestFrameMapperMemoizes(t *testing.T) {
	var mapper = new_frame_mapper()
	var first = mapper.map_frame(far_clb_routing)
	var second = mapper.map_frame(far_clb_routing)
	assert.Same(t, first, second)
}

func TestFrameMapperEvictsBeyondCapacity(t *testing.T) {
	var mapper = new_frame_mapper()
	for _, far := range all_valid_fars() {
		mapper.map_frame(far)
	}
	assert.LessOrEqual(t, mapper.order.Len(), coverage_cache_size)
	assert.Equal(t, mapper.order.Len(), len(mapper.cache))
}
