package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Reverse mapping: tile / coordinate / site / region ->
 *		the set of FARs that configure it.
 *
 * Description: Three index strategies:
 *
 *		  full    - enumerate every valid FAR up front and
 *		            build tile and column indices.  High
 *		            memory, O(1) queries.
 *		  lazy    - compute per query, memoize.
 *		  hybrid  - prebuild the (small) column index, memoize
 *		            tile lookups on first use.  The default.
 *
 *		A tile row can sit inside the forward window of a
 *		bottom-half frame and a top-half frame at once (the
 *		windows overlap after clamping), so the inverse
 *		considers both halves.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type reverse_strategy int

const (
	REVERSE_FULL reverse_strategy = iota
	REVERSE_LAZY
	REVERSE_HYBRID
)

type reverse_mapper struct {
	strategy reverse_strategy
	dm       *device_model // optional; needed for site queries

	tile_index   map[string][]uint32 // full strategy, or memoized
	column_index map[int][]uint32
}

func new_reverse_mapper(strategy reverse_strategy, dm *device_model) *reverse_mapper {
	var rm = &reverse_mapper{
		strategy:   strategy,
		dm:         dm,
		tile_index: make(map[string][]uint32),
	}
	switch strategy {
	case REVERSE_FULL:
		rm.build_column_index()
		rm.build_tile_index()
	case REVERSE_HYBRID:
		rm.build_column_index()
	}
	return rm
}

// all_valid_fars enumerates every legal FAR on the device.
func all_valid_fars() []uint32 {
	var fars []uint32
	for top_bottom := 0; top_bottom <= 1; top_bottom++ {
		for major := 0; major < DEVICE_COLUMNS; major++ {
			for minor := 0; minor < frames_per_column(major); minor++ {
				fars = append(fars, far_encode(block_type_for(major, minor), top_bottom, major, minor))
			}
		}
	}
	return fars
}

func (rm *reverse_mapper) build_column_index() {
	rm.column_index = make(map[int][]uint32, DEVICE_COLUMNS)
	for _, far := range all_valid_fars() {
		var major = far_decode(far).major
		rm.column_index[major] = append(rm.column_index[major], far)
	}
}

func (rm *reverse_mapper) build_tile_index() {
	for _, far := range all_valid_fars() {
		var cov = compute_coverage(far)
		for _, tile := range cov.tiles_affected {
			rm.tile_index[tile] = append(rm.tile_index[tile], far)
		}
	}
	for tile := range rm.tile_index {
		sort_fars(rm.tile_index[tile])
	}
}

// frames_for_column returns every FAR configuring a major column.
func (rm *reverse_mapper) frames_for_column(major int) []uint32 {
	if rm.column_index != nil {
		return rm.column_index[major]
	}
	var fars []uint32
	for top_bottom := 0; top_bottom <= 1; top_bottom++ {
		for minor := 0; minor < frames_per_column(major); minor++ {
			fars = append(fars, far_encode(block_type_for(major, minor), top_bottom, major, minor))
		}
	}
	return fars
}

// frames_for_tile maps a tile name like "CLBLL_X23Y45" to its FARs.
func (rm *reverse_mapper) frames_for_tile(name string) []uint32 {
	if cached, ok := rm.tile_index[name]; ok {
		return cached
	}
	if rm.strategy == REVERSE_FULL {
		return nil // the full index is authoritative
	}

	var tt, x, y, err = parse_tile_name(name)
	if err != nil {
		return nil
	}
	var fars = rm.frames_for_coordinate(x, y)

	// Only keep FARs whose forward coverage really names this tile
	// (the coordinate query cannot know the column's tile flavors).
	var kept []uint32
	for _, far := range fars {
		if coverage_names_tile(far, tt, x, y) {
			kept = append(kept, far)
		}
	}
	sort_fars(kept)
	rm.tile_index[name] = kept
	return kept
}

// frames_for_coordinate returns the FARs configuring grid cell (x,y),
// regardless of tile flavor.
func (rm *reverse_mapper) frames_for_coordinate(x int, y int) []uint32 {
	if x < 0 || x >= DEVICE_COLUMNS || y < 0 || y >= DEVICE_ROWS {
		return nil
	}
	var ci = column_info_for(x)
	if ci.ctype == COLUMN_UNKNOWN {
		return nil
	}

	// Candidate (top_bottom, minor) pairs whose forward window holds y.
	type candidate struct{ top_bottom, minor int }
	var candidates = []candidate{{0, y / FRAME_ROWS}}
	if y >= HALF_SPLIT_Y {
		candidates = append(candidates, candidate{1, (y - HALF_SPLIT_Y) / FRAME_ROWS})
	}

	var set = make(map[uint32]bool)
	for _, c := range candidates {
		if c.minor >= ci.frames {
			continue
		}
		switch ci.ctype {
		case COLUMN_CLB:
			// A CLB tile is co-configured by the routing and the
			// logic halves of its column.
			set[far_encode(BLOCK_CLB, c.top_bottom, x, c.minor)] = true
			if logic := ci.routing_frames + c.minor; logic < ci.frames {
				set[far_encode(BLOCK_CLB, c.top_bottom, x, logic)] = true
			}
		case COLUMN_BRAM:
			if c.minor < BRAM_ROUTING_MINORS {
				set[far_encode(BLOCK_BRAM_INT, c.top_bottom, x, c.minor)] = true
			}
			if content := c.minor + BRAM_ROUTING_MINORS; content < ci.frames {
				set[far_encode(BLOCK_BRAM_CONTENT, c.top_bottom, x, content)] = true
			}
		case COLUMN_IOB:
			set[far_encode(BLOCK_IOB, c.top_bottom, x, c.minor)] = true
		case COLUMN_CLK:
			set[far_encode(BLOCK_CLK, c.top_bottom, x, c.minor)] = true
		}
	}

	return far_set_sorted(set)
}

// frames_for_site resolves a site name through the device model.
func (rm *reverse_mapper) frames_for_site(name string) []uint32 {
	if rm.dm == nil {
		return nil
	}
	for _, s := range rm.dm.sites {
		if s.Name == name {
			return rm.frames_for_tile(s.Tile)
		}
	}
	return nil
}

// frames_for_region returns the union of FARs over a rectangle.  The
// result is deduplicated and sorted, so the call is idempotent and
// order-independent.
func (rm *reverse_mapper) frames_for_region(x_lo, x_hi, y_lo, y_hi int) []uint32 {
	var set = make(map[uint32]bool)
	for x := x_lo; x < x_hi; x++ {
		for y := y_lo; y < y_hi; y++ {
			for _, far := range rm.frames_for_coordinate(x, y) {
				set[far] = true
			}
		}
	}
	return far_set_sorted(set)
}

// frames_for_used_tiles is the expected configuration footprint of a
// design: the union of frames over its used tiles.
func (rm *reverse_mapper) frames_for_used_tiles(tiles map[string]bool) []uint32 {
	var set = make(map[uint32]bool)
	for name := range tiles {
		for _, far := range rm.frames_for_tile(name) {
			set[far] = true
		}
	}
	return far_set_sorted(set)
}

// routing_frames_for_tile filters a tile's frames down to routing
// frames; the PIP-to-bit mapper builds on this.
func (rm *reverse_mapper) routing_frames_for_tile(name string) []uint32 {
	var fars []uint32
	for _, far := range rm.frames_for_tile(name) {
		if compute_coverage(far).is_routing_frame() {
			fars = append(fars, far)
		}
	}
	return fars
}

func coverage_names_tile(far uint32, tt string, x int, y int) bool {
	var cov = compute_coverage(far)
	var want = fmt.Sprintf("%s_X%dY%d", tt, x, y)
	for _, name := range cov.tiles_affected {
		if name == want {
			return true
		}
	}
	return false
}

// parse_tile_name splits "CLBLL_X23Y45" into ("CLBLL", 23, 45).
func parse_tile_name(name string) (string, int, int, error) {
	var idx = strings.LastIndex(name, "_X")
	if idx < 0 {
		return "", 0, 0, fmt.Errorf("tile name %q has no _X<col>Y<row> suffix", name)
	}
	var coords = name[idx+2:]
	var yidx = strings.IndexByte(coords, 'Y')
	if yidx < 0 {
		return "", 0, 0, fmt.Errorf("tile name %q has no Y coordinate", name)
	}
	var x, err = strconv.Atoi(coords[:yidx])
	if err != nil {
		return "", 0, 0, fmt.Errorf("tile name %q: bad column: %w", name, err)
	}
	var y int
	y, err = strconv.Atoi(coords[yidx+1:])
	if err != nil {
		return "", 0, 0, fmt.Errorf("tile name %q: bad row: %w", name, err)
	}
	return name[:idx], x, y, nil
}

func sort_fars(fars []uint32) {
	sort.Slice(fars, func(i, j int) bool { return fars[i] < fars[j] })
}

func far_set_sorted(set map[uint32]bool) []uint32 {
	var fars = make([]uint32, 0, len(set))
	for far := range set {
		fars = append(fars, far)
	}
	sort_fars(fars)
	return fars
}
