package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Static frame geometry for the Virtex-5 VLX50T
 *		(xc5vlx50tff1136-2).
 *
 * Description: The device has 48 major columns and 160 tile rows,
 *		split into top and bottom halves at Y=80.  Each
 *		configuration frame is 41 32-bit words and covers 20
 *		tile rows.  Every column has a fixed number of frames
 *		("minors"), the first chunk of which carries routing
 *		configuration and the rest logic or memory content.
 *
 *		Everything in this file is a pure lookup.  An
 *		out-of-range major yields the "unknown" column rather
 *		than an error.
 *
 *------------------------------------------------------------------*/

// Frame geometry.
const FRAME_WORDS = 41
const FRAME_BYTES = FRAME_WORDS * 4 // 164
const FRAME_BITS = FRAME_BYTES * 8  // 1312

// Device grid.
const DEVICE_COLUMNS = 48
const DEVICE_ROWS = 160
const FRAME_ROWS = 20    // tile rows covered by one frame
const HALF_SPLIT_Y = 80  // first row of the top half

// Block type codes as they appear in the FAR.
const (
	BLOCK_CLB          = 0
	BLOCK_IOB          = 1
	BLOCK_BRAM_CONTENT = 2
	BLOCK_BRAM_INT     = 3
	BLOCK_DSP          = 4
	BLOCK_CLK          = 5
	BLOCK_CFG          = 6
	BLOCK_RESERVED     = 7
)

// BRAM columns split by minor: the first 28 frames configure the
// interconnect, the remaining 64 the memory content.
const BRAM_ROUTING_MINORS = 28

var block_type_names = map[int]string{
	BLOCK_CLB:          "CLB",
	BLOCK_IOB:          "IOB",
	BLOCK_BRAM_CONTENT: "BRAM_CONTENT",
	BLOCK_BRAM_INT:     "BRAM_INT",
	BLOCK_DSP:          "DSP",
	BLOCK_CLK:          "CLK",
	BLOCK_CFG:          "CFG",
	BLOCK_RESERVED:     "RESERVED",
}

func block_type_name(block int) string {
	var name, ok = block_type_names[block]
	if !ok {
		return "UNKNOWN"
	}
	return name
}

type column_type int

const (
	COLUMN_CLB column_type = iota
	COLUMN_IOB
	COLUMN_BRAM
	COLUMN_CLK
	COLUMN_UNKNOWN
)

func (ct column_type) String() string {
	switch ct {
	case COLUMN_CLB:
		return "CLB"
	case COLUMN_IOB:
		return "IOB"
	case COLUMN_BRAM:
		return "BRAM"
	case COLUMN_CLK:
		return "CLK"
	}
	return "UNKNOWN"
}

type column_info struct {
	ctype          column_type
	tile_types     []string
	frames         int // frames per column
	routing_frames int
	logic_frames   int
}

// The authoritative VLX50T column table.  Columns 0 and 47 are IOB,
// 23-24 are the clock spine, ten columns are BRAM, the rest CLB with
// CLBLL/CLBLM tile flavors alternating.
var column_table [DEVICE_COLUMNS]column_info

var bram_columns = []int{4, 8, 12, 16, 20, 28, 32, 36, 40, 44}
var clk_columns = []int{23, 24}
var iob_columns = []int{0, 47}

func init() {
	var is_bram = make(map[int]bool)
	for _, c := range bram_columns {
		is_bram[c] = true
	}

	var clb_parity = 0
	for major := 0; major < DEVICE_COLUMNS; major++ {
		switch {
		case major == 0 || major == 47:
			column_table[major] = column_info{
				ctype:          COLUMN_IOB,
				tile_types:     []string{"IOB", "INT"},
				frames:         54,
				routing_frames: 54,
				logic_frames:   0,
			}
		case major == 23 || major == 24:
			column_table[major] = column_info{
				ctype:          COLUMN_CLK,
				tile_types:     []string{"CLK"},
				frames:         4,
				routing_frames: 4,
				logic_frames:   0,
			}
		case is_bram[major]:
			column_table[major] = column_info{
				ctype:          COLUMN_BRAM,
				tile_types:     []string{"BRAM", "INT"},
				frames:         92,
				routing_frames: BRAM_ROUTING_MINORS,
				logic_frames:   0,
			}
		default:
			var flavor = "CLBLL"
			if clb_parity%2 == 1 {
				flavor = "CLBLM"
			}
			clb_parity++
			column_table[major] = column_info{
				ctype:          COLUMN_CLB,
				tile_types:     []string{flavor, "INT"},
				frames:         36,
				routing_frames: 22,
				logic_frames:   14,
			}
		}
	}
}

var unknown_column = column_info{ctype: COLUMN_UNKNOWN}

func column_info_for(major int) column_info {
	if major < 0 || major >= DEVICE_COLUMNS {
		return unknown_column
	}
	return column_table[major]
}

func frames_per_column(major int) int {
	return column_info_for(major).frames
}

func routing_frames_for(major int) int {
	return column_info_for(major).routing_frames
}

// is_routing_minor reports whether a minor selects a routing frame.
// Minor exactly equal to routing_frames is the first logic frame.
func is_routing_minor(major int, minor int) bool {
	var ci = column_info_for(major)
	return ci.ctype != COLUMN_UNKNOWN && minor < ci.routing_frames
}

// block_type_for returns the block code expected for a frame at
// (major, minor).  BRAM columns split on the minor; other columns have
// a single block code.
func block_type_for(major int, minor int) int {
	switch column_info_for(major).ctype {
	case COLUMN_CLB:
		return BLOCK_CLB
	case COLUMN_IOB:
		return BLOCK_IOB
	case COLUMN_BRAM:
		if minor < BRAM_ROUTING_MINORS {
			return BLOCK_BRAM_INT
		}
		return BLOCK_BRAM_CONTENT
	case COLUMN_CLK:
		return BLOCK_CLK
	}
	return BLOCK_RESERVED
}

/*------------------------------------------------------------------
 *
 * Column walker tables.
 *
 * The FDRI auto-increment walks minors within a column, then columns
 * within the current block in a fixed per-block order, then blocks in
 * ascending code order, and finally toggles the top/bottom half.
 * BRAM columns appear under two block codes with disjoint minor
 * windows.
 *
 *------------------------------------------------------------------*/

var clb_column_order []int

func init() {
	for major := 0; major < DEVICE_COLUMNS; major++ {
		if column_table[major].ctype == COLUMN_CLB {
			clb_column_order = append(clb_column_order, major)
		}
	}
}

// block_columns returns the ordered column list the walker uses for a
// block code, or nil for an unpopulated block.
func block_columns(block int) []int {
	switch block {
	case BLOCK_CLB:
		return clb_column_order
	case BLOCK_IOB:
		return iob_columns
	case BLOCK_BRAM_CONTENT, BLOCK_BRAM_INT:
		return bram_columns
	case BLOCK_CLK:
		return clk_columns
	}
	return nil
}

// walker_minor_bounds returns the half-open minor window the walker
// iterates for (block, column).
func walker_minor_bounds(block int, column int) (int, int) {
	switch block {
	case BLOCK_BRAM_INT:
		return 0, BRAM_ROUTING_MINORS
	case BLOCK_BRAM_CONTENT:
		return BRAM_ROUTING_MINORS, frames_per_column(column)
	}
	return 0, frames_per_column(column)
}

// next_populated_block returns the next block code that has columns,
// or -1 when the walker should toggle halves.
func next_populated_block(block int) int {
	for candidate := block + 1; candidate <= BLOCK_RESERVED; candidate++ {
		if block_columns(candidate) != nil {
			return candidate
		}
	}
	return -1
}

// lowest_populated_block is where the walker restarts after a
// top/bottom toggle.
func lowest_populated_block() int {
	for block := 0; block <= BLOCK_RESERVED; block++ {
		if block_columns(block) != nil {
			return block
		}
	}
	return BLOCK_CLB
}
