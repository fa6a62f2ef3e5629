package bitsentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLBLayoutRegions(t *testing.T) {
	var db = new_bit_layout_db()

	var cases = []struct {
		offset   int
		function bit_function
	}{
		{0, BIT_PIP},
		{703, BIT_PIP},
		{704, BIT_PIP},
		{831, BIT_PIP},
		{832, BIT_LUT_INIT},
		{1087, BIT_LUT_INIT},
		{1088, BIT_FF_INIT},
		{1089, BIT_FF_CTRL},
		{1120, BIT_MUX_SEL},
		{1200, BIT_CARRY},
		{1250, BIT_FF_CTRL},
		{1311, BIT_FF_CTRL},
	}
	for _, c := range cases {
		var bd = db.descriptor(far_clb_routing, c.offset)
		require.NotNil(t, bd, "offset %d", c.offset)
		assert.Equal(t, c.function, bd.function, "offset %d", c.offset)
	}
}

func TestCLBLayoutLUTNames(t *testing.T) {
	var db = new_bit_layout_db()

	assert.Equal(t, "LUT_A", db.descriptor(far_clb_logic, 832).resource_name)
	assert.Equal(t, "LUT_B", db.descriptor(far_clb_logic, 832+64).resource_name)
	assert.Equal(t, "LUT_D", db.descriptor(far_clb_logic, 832+3*64).resource_name)
	assert.Equal(t, "INIT[63]", db.descriptor(far_clb_logic, 832+63).subfield)
}

func TestCLBLayoutFFSubfields(t *testing.T) {
	var db = new_bit_layout_db()

	assert.Equal(t, "INIT", db.descriptor(far_clb_logic, 1088).subfield)
	assert.Equal(t, "CLOCK_ENABLE", db.descriptor(far_clb_logic, 1089).subfield)
	assert.Equal(t, "SET_RESET", db.descriptor(far_clb_logic, 1090).subfield)
	assert.Equal(t, BIT_RESERVED, db.descriptor(far_clb_logic, 1091).function)
	assert.Equal(t, "FF_3", db.descriptor(far_clb_logic, 1088+3*8).resource_name)
}

func TestIOBLayout(t *testing.T) {
	var db = new_bit_layout_db()

	assert.Equal(t, BIT_PIP, db.descriptor(far_iob, 0).function)
	assert.Equal(t, BIT_IO_STANDARD, db.descriptor(far_iob, 800).function)
	assert.Equal(t, BIT_DRIVE_STRENGTH, db.descriptor(far_iob, 850).function)
	assert.Equal(t, BIT_SLEW_RATE, db.descriptor(far_iob, 900).function)
	assert.Equal(t, BIT_PULL, db.descriptor(far_iob, 1200).function)
}

func TestBRAMAndCLKLayouts(t *testing.T) {
	var db = new_bit_layout_db()

	var content = db.descriptor(far_encode(BLOCK_BRAM_CONTENT, 0, 4, 30), 100)
	assert.Equal(t, BIT_BRAM_INIT, content.function)
	assert.Equal(t, "BRAM_WORD_3", content.resource_name)

	assert.Equal(t, BIT_PIP, db.descriptor(far_bram_int, 500).function)
	assert.Equal(t, BIT_CLOCK_MUX, db.descriptor(far_clk, 0).function)
}

func TestDescriptorOutOfRange(t *testing.T) {
	var db = new_bit_layout_db()
	assert.Nil(t, db.descriptor(far_clb_routing, -1))
	assert.Nil(t, db.descriptor(far_clb_routing, FRAME_BITS))
	// DSP has no layout on this device.
	assert.Nil(t, db.descriptor(far_encode(BLOCK_DSP, 0, 1, 0), 10))
}

func TestRoutingAndSecurityFilters(t *testing.T) {
	var db = new_bit_layout_db()

	// CLB: both routing regions are routing-critical.
	assert.Len(t, db.routing_bits(far_clb_routing), 832)
	// Interconnect PIPs plus all four LUTs are security sensitive.
	assert.Len(t, db.security_sensitive_bits(far_clb_routing), 704+256)

	// CLK: the whole frame.
	assert.Len(t, db.routing_bits(far_clk), FRAME_BITS)
}

func TestExtractLUTTruthTable(t *testing.T) {
	var payload = make([]byte, FRAME_BYTES)

	// LUT B occupies bits [896, 960); set its first and last bit.
	write_bit(payload, 896, true)
	write_bit(payload, 959, true)

	var tt, err = extract_lut_truth_table(payload, "B")
	require.NoError(t, err)
	assert.Equal(t, uint64(1)<<63|1, tt)

	var zero uint64
	zero, err = extract_lut_truth_table(payload, "A")
	require.NoError(t, err)
	assert.Zero(t, zero)

	_, err = extract_lut_truth_table(payload, "E")
	assert.Error(t, err)
}
