package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Bit-offset semantics: what each of the 1312 bits of a
 *		frame controls, per block type.
 *
 * Description: The layouts are precomputed at construction and never
 *		change.  The PIP assignments inside the routing
 *		regions are a deterministic approximation; the
 *		detector only needs golden and suspect to agree on the
 *		rule.
 *
 *------------------------------------------------------------------*/

import "fmt"

type bit_function int

const (
	BIT_PIP bit_function = iota
	BIT_LUT_INIT
	BIT_FF_INIT
	BIT_FF_CTRL
	BIT_MUX_SEL
	BIT_CARRY
	BIT_CLOCK_MUX
	BIT_IO_STANDARD
	BIT_DRIVE_STRENGTH
	BIT_SLEW_RATE
	BIT_PULL
	BIT_BRAM_INIT
	BIT_BRAM_MODE
	BIT_RESERVED
	BIT_UNKNOWN
)

func (bf bit_function) String() string {
	switch bf {
	case BIT_PIP:
		return "pip"
	case BIT_LUT_INIT:
		return "lut_init"
	case BIT_FF_INIT:
		return "ff_init"
	case BIT_FF_CTRL:
		return "ff_ctrl"
	case BIT_MUX_SEL:
		return "mux_select"
	case BIT_CARRY:
		return "carry_chain"
	case BIT_CLOCK_MUX:
		return "clock_mux"
	case BIT_IO_STANDARD:
		return "io_standard"
	case BIT_DRIVE_STRENGTH:
		return "drive_strength"
	case BIT_SLEW_RATE:
		return "slew_rate"
	case BIT_PULL:
		return "pull_resistor"
	case BIT_BRAM_INIT:
		return "bram_init"
	case BIT_BRAM_MODE:
		return "bram_mode"
	case BIT_RESERVED:
		return "reserved"
	}
	return "unknown"
}

type bit_descriptor struct {
	offset                int
	function              bit_function
	resource_name         string
	subfield              string
	is_routing_critical   bool
	is_security_sensitive bool
}

func (bd *bit_descriptor) String() string {
	return fmt.Sprintf("Bit[%d]: %s - %s", bd.offset, bd.function, bd.resource_name)
}

// LUT truth tables sit at 832 + 64*index in a CLB logic frame.
const LUT_INIT_BASE = 832
const LUT_INIT_WIDTH = 64
const FF_CTRL_BASE = 1088
const FF_CTRL_STRIDE = 8

var lut_names = []string{"A", "B", "C", "D"}

func lut_index(name string) int {
	for i, n := range lut_names {
		if n == name {
			return i
		}
	}
	return -1
}

type bit_layout_db struct {
	clb      [FRAME_BITS]bit_descriptor
	iob      [FRAME_BITS]bit_descriptor
	bram     [FRAME_BITS]bit_descriptor
	bram_int [FRAME_BITS]bit_descriptor
	clk      [FRAME_BITS]bit_descriptor
}

func new_bit_layout_db() *bit_layout_db {
	var db = &bit_layout_db{}
	db.build_clb()
	db.build_iob()
	db.build_bram()
	db.build_bram_int()
	db.build_clk()
	return db
}

func (db *bit_layout_db) build_clb() {
	for bit := 0; bit < 704; bit++ {
		db.clb[bit] = bit_descriptor{
			offset:                bit,
			function:              BIT_PIP,
			resource_name:         fmt.Sprintf("INT_PIP_%d", bit/4),
			is_routing_critical:   true,
			is_security_sensitive: true,
		}
	}
	for bit := 704; bit < 832; bit++ {
		db.clb[bit] = bit_descriptor{
			offset:              bit,
			function:            BIT_PIP,
			resource_name:       fmt.Sprintf("CLB_PIP_%d", (bit-704)/2),
			is_routing_critical: true,
		}
	}
	for idx, name := range lut_names {
		var base = LUT_INIT_BASE + idx*LUT_INIT_WIDTH
		for i := 0; i < LUT_INIT_WIDTH; i++ {
			db.clb[base+i] = bit_descriptor{
				offset:                base + i,
				function:              BIT_LUT_INIT,
				resource_name:         "LUT_" + name,
				subfield:              fmt.Sprintf("INIT[%d]", i),
				is_security_sensitive: true,
			}
		}
	}
	for ff := 0; ff < 4; ff++ {
		var base = FF_CTRL_BASE + ff*FF_CTRL_STRIDE
		var name = fmt.Sprintf("FF_%d", ff)
		db.clb[base] = bit_descriptor{offset: base, function: BIT_FF_INIT, resource_name: name, subfield: "INIT"}
		db.clb[base+1] = bit_descriptor{offset: base + 1, function: BIT_FF_CTRL, resource_name: name, subfield: "CLOCK_ENABLE"}
		db.clb[base+2] = bit_descriptor{offset: base + 2, function: BIT_FF_CTRL, resource_name: name, subfield: "SET_RESET"}
		for i := 3; i < FF_CTRL_STRIDE; i++ {
			db.clb[base+i] = bit_descriptor{offset: base + i, function: BIT_RESERVED, resource_name: name}
		}
	}
	for bit := 1120; bit < 1200; bit++ {
		db.clb[bit] = bit_descriptor{
			offset:        bit,
			function:      BIT_MUX_SEL,
			resource_name: fmt.Sprintf("MUX_%d", (bit-1120)/4),
		}
	}
	for bit := 1200; bit < 1250; bit++ {
		db.clb[bit] = bit_descriptor{
			offset:        bit,
			function:      BIT_CARRY,
			resource_name: fmt.Sprintf("CARRY_BIT_%d", bit-1200),
		}
	}
	for bit := 1250; bit < FRAME_BITS; bit++ {
		db.clb[bit] = bit_descriptor{
			offset:        bit,
			function:      BIT_FF_CTRL,
			resource_name: fmt.Sprintf("CTRL_%d", bit-1250),
		}
	}
}

func (db *bit_layout_db) build_iob() {
	for bit := 0; bit < 800; bit++ {
		db.iob[bit] = bit_descriptor{
			offset:                bit,
			function:              BIT_PIP,
			resource_name:         fmt.Sprintf("IOB_ROUTE_%d", bit),
			is_routing_critical:   true,
			is_security_sensitive: true,
		}
	}
	for bit := 800; bit < 850; bit++ {
		db.iob[bit] = bit_descriptor{
			offset:        bit,
			function:      BIT_IO_STANDARD,
			resource_name: fmt.Sprintf("IOSTANDARD_BIT_%d", bit-800),
		}
	}
	for bit := 850; bit < 900; bit++ {
		db.iob[bit] = bit_descriptor{
			offset:        bit,
			function:      BIT_DRIVE_STRENGTH,
			resource_name: fmt.Sprintf("DRIVE_%d", bit-850),
		}
	}
	for bit := 900; bit < 1100; bit++ {
		db.iob[bit] = bit_descriptor{
			offset:        bit,
			function:      BIT_SLEW_RATE,
			resource_name: fmt.Sprintf("SLEW_%d", bit-900),
		}
	}
	for bit := 1100; bit < 1200; bit++ {
		db.iob[bit] = bit_descriptor{
			offset:        bit,
			function:      BIT_FF_CTRL,
			resource_name: fmt.Sprintf("IOB_REG_%d", bit-1100),
		}
	}
	for bit := 1200; bit < FRAME_BITS; bit++ {
		db.iob[bit] = bit_descriptor{
			offset:        bit,
			function:      BIT_PULL,
			resource_name: fmt.Sprintf("PULL_%d", bit-1200),
		}
	}
}

func (db *bit_layout_db) build_bram() {
	for bit := 0; bit < FRAME_BITS; bit++ {
		db.bram[bit] = bit_descriptor{
			offset:                bit,
			function:              BIT_BRAM_INIT,
			resource_name:         fmt.Sprintf("BRAM_WORD_%d", bit/32),
			subfield:              fmt.Sprintf("BIT[%d]", bit%32),
			is_security_sensitive: true,
		}
	}
}

func (db *bit_layout_db) build_bram_int() {
	for bit := 0; bit < FRAME_BITS; bit++ {
		db.bram_int[bit] = bit_descriptor{
			offset:                bit,
			function:              BIT_PIP,
			resource_name:         fmt.Sprintf("BRAM_INT_PIP_%d", bit/4),
			is_routing_critical:   true,
			is_security_sensitive: true,
		}
	}
}

func (db *bit_layout_db) build_clk() {
	for bit := 0; bit < FRAME_BITS; bit++ {
		db.clk[bit] = bit_descriptor{
			offset:                bit,
			function:              BIT_CLOCK_MUX,
			resource_name:         fmt.Sprintf("CLK_ROUTE_%d", bit),
			is_routing_critical:   true,
			is_security_sensitive: true,
		}
	}
}

func (db *bit_layout_db) layout_for(block int) *[FRAME_BITS]bit_descriptor {
	switch block {
	case BLOCK_CLB:
		return &db.clb
	case BLOCK_IOB:
		return &db.iob
	case BLOCK_BRAM_CONTENT:
		return &db.bram
	case BLOCK_BRAM_INT:
		return &db.bram_int
	case BLOCK_CLK:
		return &db.clk
	}
	return nil
}

// descriptor returns the semantics of one bit of a frame, or nil for
// out-of-range offsets and blocks with no layout.
func (db *bit_layout_db) descriptor(far uint32, offset int) *bit_descriptor {
	if offset < 0 || offset >= FRAME_BITS {
		return nil
	}
	var layout = db.layout_for(far_decode(far).block)
	if layout == nil {
		return nil
	}
	return &layout[offset]
}

func (db *bit_layout_db) routing_bits(far uint32) []*bit_descriptor {
	return db.filter_bits(far, func(bd *bit_descriptor) bool { return bd.is_routing_critical })
}

func (db *bit_layout_db) security_sensitive_bits(far uint32) []*bit_descriptor {
	return db.filter_bits(far, func(bd *bit_descriptor) bool { return bd.is_security_sensitive })
}

func (db *bit_layout_db) filter_bits(far uint32, keep func(*bit_descriptor) bool) []*bit_descriptor {
	var layout = db.layout_for(far_decode(far).block)
	if layout == nil {
		return nil
	}
	var result []*bit_descriptor
	for i := range layout {
		if keep(&layout[i]) {
			result = append(result, &layout[i])
		}
	}
	return result
}

// extract_lut_truth_table reads the 64-bit init value of LUT A-D out
// of a CLB logic frame.
func extract_lut_truth_table(payload []byte, lut_name string) (uint64, error) {
	var idx = lut_index(lut_name)
	if idx < 0 {
		return 0, fmt.Errorf("invalid LUT name %q", lut_name)
	}
	return extract_u64(payload, LUT_INIT_BASE+idx*LUT_INIT_WIDTH), nil
}
