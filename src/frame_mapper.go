package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Forward mapping: FAR -> tiles, resource categories,
 *		bit regions, Trojan risk.
 *
 * Description: The mapper turns a frame address into everything the
 *		detector needs to reason spatially: which tiles the
 *		frame configures, whether its bits are routing or
 *		logic, and how attractive the frame is as a Trojan
 *		target.  Results are memoized in a small LRU owned by
 *		the mapper instance.
 *
 *------------------------------------------------------------------*/

import (
	"container/list"
	"fmt"
)

type resource_category int

const (
	RES_ROUTING resource_category = iota
	RES_LOGIC
	RES_MEMORY
	RES_CLOCK
	RES_IO
	RES_CONTROL
	RES_UNKNOWN
)

func (rc resource_category) String() string {
	switch rc {
	case RES_ROUTING:
		return "Routing"
	case RES_LOGIC:
		return "Logic"
	case RES_MEMORY:
		return "Memory"
	case RES_CLOCK:
		return "Clock"
	case RES_IO:
		return "IO"
	case RES_CONTROL:
		return "Control"
	}
	return "Unknown"
}

type risk_level int

const (
	RISK_LOW risk_level = iota
	RISK_MEDIUM
	RISK_HIGH
	RISK_CRITICAL
)

func (rl risk_level) String() string {
	switch rl {
	case RISK_CRITICAL:
		return "CRITICAL"
	case RISK_HIGH:
		return "HIGH"
	case RISK_MEDIUM:
		return "MEDIUM"
	}
	return "LOW"
}

type bit_range struct {
	start int // inclusive
	end   int // exclusive
}

func (r bit_range) width() int {
	return r.end - r.start
}

type frame_coverage struct {
	far      uint32
	fields   far_fields
	is_valid bool
	warning  string

	block_type  int
	column_type column_type

	tiles_affected []string
	y_lo, y_hi     int // half-open tile-row window, clamped to the grid

	categories         map[resource_category]bool
	routing_bit_ranges []bit_range
	logic_bit_ranges   []bit_range

	trojan_risk    risk_level
	attack_vectors []string
}

func (cov *frame_coverage) has_category(rc resource_category) bool {
	return cov.categories[rc]
}

func (cov *frame_coverage) is_routing_frame() bool { return cov.has_category(RES_ROUTING) }
func (cov *frame_coverage) is_logic_frame() bool   { return cov.has_category(RES_LOGIC) }
func (cov *frame_coverage) is_clock_frame() bool   { return cov.has_category(RES_CLOCK) }
func (cov *frame_coverage) is_io_frame() bool      { return cov.has_category(RES_IO) }

func (cov *frame_coverage) routing_bit_count() int {
	var n = 0
	for _, r := range cov.routing_bit_ranges {
		n += r.width()
	}
	return n
}

func (cov *frame_coverage) logic_bit_count() int {
	var n = 0
	for _, r := range cov.logic_bit_ranges {
		n += r.width()
	}
	return n
}

func (cov *frame_coverage) String() string {
	return fmt.Sprintf("Coverage(%s %s risk=%s tiles=%d)",
		far_hex(cov.far), cov.column_type, cov.trojan_risk, len(cov.tiles_affected))
}

const coverage_cache_size = 512

type frame_mapper struct {
	cache map[uint32]*list.Element
	order *list.List // front = most recent; values are *frame_coverage
}

func new_frame_mapper() *frame_mapper {
	return &frame_mapper{
		cache: make(map[uint32]*list.Element),
		order: list.New(),
	}
}

// map_frame computes (or recalls) the coverage for a FAR.  Validation
// failures yield an invalid-coverage record, never an error: the
// detector turns those into structural anomalies.
func (fm *frame_mapper) map_frame(far uint32) *frame_coverage {
	if elem, ok := fm.cache[far]; ok {
		fm.order.MoveToFront(elem)
		return elem.Value.(*frame_coverage)
	}

	var cov = compute_coverage(far)

	fm.cache[far] = fm.order.PushFront(cov)
	if fm.order.Len() > coverage_cache_size {
		var oldest = fm.order.Back()
		fm.order.Remove(oldest)
		delete(fm.cache, oldest.Value.(*frame_coverage).far)
	}

	return cov
}

func compute_coverage(far uint32) *frame_coverage {
	var fields = far_decode(far)
	var cov = &frame_coverage{
		far:        far,
		fields:     fields,
		categories: make(map[resource_category]bool),
	}

	if err := fields.validate(); err != nil {
		cov.is_valid = false
		cov.warning = err.Error()
		cov.block_type = fields.block
		cov.column_type = COLUMN_UNKNOWN
		cov.categories[RES_UNKNOWN] = true
		cov.trojan_risk = RISK_LOW
		return cov
	}

	cov.is_valid = true
	var ci = column_info_for(fields.major)
	cov.block_type = block_type_for(fields.major, fields.minor)
	cov.column_type = ci.ctype

	// Vertical window: each frame covers 20 tile rows of its half.
	var y_base = 0
	if fields.top_bottom == 1 {
		y_base = HALF_SPLIT_Y
	}
	cov.y_lo = clamp_row(y_base + fields.minor*FRAME_ROWS)
	cov.y_hi = clamp_row(y_base + (fields.minor+1)*FRAME_ROWS)

	for _, tt := range ci.tile_types {
		for y := cov.y_lo; y < cov.y_hi; y++ {
			cov.tiles_affected = append(cov.tiles_affected,
				fmt.Sprintf("%s_X%dY%d", tt, fields.major, y))
		}
	}

	classify_coverage(cov, ci, fields)
	assign_risk(cov)

	return cov
}

func clamp_row(y int) int {
	if y < 0 {
		return 0
	}
	if y > DEVICE_ROWS {
		return DEVICE_ROWS
	}
	return y
}

func classify_coverage(cov *frame_coverage, ci column_info, fields far_fields) {
	switch cov.block_type {
	case BLOCK_CLB:
		if is_routing_minor(fields.major, fields.minor) {
			cov.categories[RES_ROUTING] = true
		} else {
			cov.categories[RES_LOGIC] = true
		}
		cov.categories[RES_CONTROL] = true
	case BLOCK_IOB:
		cov.categories[RES_IO] = true
		cov.categories[RES_ROUTING] = true
		cov.categories[RES_CONTROL] = true
	case BLOCK_BRAM_CONTENT:
		cov.categories[RES_MEMORY] = true
	case BLOCK_BRAM_INT:
		cov.categories[RES_ROUTING] = true
	case BLOCK_CLK:
		cov.categories[RES_CLOCK] = true
		cov.categories[RES_ROUTING] = true
		cov.categories[RES_CONTROL] = true
	default:
		cov.categories[RES_UNKNOWN] = true
	}

	cov.routing_bit_ranges, cov.logic_bit_ranges = bit_regions_for(cov.block_type)
}

// bit_regions_for returns the routing and logic windows of a 1312-bit
// frame for a block type.  The two sets are disjoint by construction.
// Mux, carry, and control regions belong to neither.
func bit_regions_for(block int) ([]bit_range, []bit_range) {
	switch block {
	case BLOCK_CLB:
		// Interconnect and CLB-local routing; LUT init and FF ctrl.
		return []bit_range{{0, 704}, {704, 832}},
			[]bit_range{{832, 1088}, {1088, 1120}}
	case BLOCK_IOB:
		return []bit_range{{0, 800}}, nil
	case BLOCK_BRAM_INT, BLOCK_CLK:
		return []bit_range{{0, FRAME_BITS}}, nil
	}
	return nil, nil
}

/*------------------------------------------------------------------
 *
 * Trojan risk assignment.  Precedence-ordered: the first matching
 * rule supplies the level and the attack vectors.
 *
 *------------------------------------------------------------------*/

func assign_risk(cov *frame_coverage) {
	switch {
	case cov.has_category(RES_CLOCK):
		cov.trojan_risk = RISK_CRITICAL
		cov.attack_vectors = []string{"clock_network_tampering", "timing_manipulation"}
	case cov.column_type == COLUMN_IOB:
		cov.trojan_risk = RISK_CRITICAL
		cov.attack_vectors = []string{"data_exfiltration", "covert_channel_creation"}
	case cov.has_category(RES_ROUTING) && cov.block_type == BLOCK_CLB:
		cov.trojan_risk = RISK_HIGH
		cov.attack_vectors = []string{"routing_detour", "minimal_modification_trojan", "unused_region_routing"}
	case cov.block_type == BLOCK_BRAM_INT:
		cov.trojan_risk = RISK_HIGH
		cov.attack_vectors = []string{"memory_access_interception", "data_flow_manipulation"}
	case cov.has_category(RES_LOGIC):
		cov.trojan_risk = RISK_MEDIUM
		cov.attack_vectors = []string{"hidden_logic_insertion", "lut_truth_table_modification"}
	case cov.has_category(RES_MEMORY):
		cov.trojan_risk = RISK_MEDIUM
		cov.attack_vectors = []string{"malicious_payload_storage"}
	default:
		cov.trojan_risk = RISK_LOW
	}
}
