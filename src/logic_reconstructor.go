package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Reconstruct configured logic (LUT truth tables and FF
 *		control) from CLB logic frames, and classify LUT
 *		changes semantically.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

const slices_per_clb = 2
const ffs_per_slice = 4

type lut_id struct {
	tile     string
	slice    string
	lut_name string
}

type lut_config struct {
	tile        string
	slice       string
	lut_name    string // A, B, C or D
	truth_table uint64
	far         uint32
}

func (l *lut_config) id() lut_id {
	return lut_id{tile: l.tile, slice: l.slice, lut_name: l.lut_name}
}

func (l *lut_config) is_initialized() bool {
	return l.truth_table != 0
}

// is_constant reports a LUT that outputs a constant 0 or 1.
func (l *lut_config) is_constant() bool {
	return l.truth_table == 0 || l.truth_table == ^uint64(0)
}

func (l *lut_config) String() string {
	return fmt.Sprintf("LUT_%s[%s/%s] = 0x%016X", l.lut_name, l.tile, l.slice, l.truth_table)
}

type ff_id struct {
	tile    string
	slice   string
	ff_name string
}

type ff_config struct {
	tile         string
	slice        string
	ff_name      string
	init_value   bool
	clock_enable bool
	set_reset    bool
	far          uint32
}

func (f *ff_config) id() ff_id {
	return ff_id{tile: f.tile, slice: f.slice, ff_name: f.ff_name}
}

type logic_configuration struct {
	bitstream_id string
	luts         map[lut_id]*lut_config
	ffs          map[ff_id]*ff_config
}

func new_logic_configuration(id string) *logic_configuration {
	return &logic_configuration{
		bitstream_id: id,
		luts:         make(map[lut_id]*lut_config),
		ffs:          make(map[ff_id]*ff_config),
	}
}

func (lc *logic_configuration) add_lut(l *lut_config) {
	lc.luts[l.id()] = l
}

func (lc *logic_configuration) add_ff(f *ff_config) {
	lc.ffs[f.id()] = f
}

func (lc *logic_configuration) used_tiles() map[string]bool {
	var tiles = make(map[string]bool)
	for _, l := range lc.luts {
		if l.is_initialized() {
			tiles[l.tile] = true
		}
	}
	return tiles
}

type logic_reconstructor struct {
	mapper *frame_mapper
}

func new_logic_reconstructor() *logic_reconstructor {
	return &logic_reconstructor{mapper: new_frame_mapper()}
}

// reconstruct extracts LUT and FF state from every CLB logic frame.
func (lr *logic_reconstructor) reconstruct(id string, frames []*frame_write) *logic_configuration {
	var config = new_logic_configuration(id)

	for _, fw := range frames {
		var cov = lr.mapper.map_frame(fw.far)
		if !cov.is_logic_frame() || cov.block_type != BLOCK_CLB {
			continue
		}

		for _, tile := range cov.tiles_affected {
			if !strings.Contains(tile, "CLB") {
				continue
			}
			lr.extract_tile_logic(fw, tile, config)
		}
	}

	return config
}

func (lr *logic_reconstructor) extract_tile_logic(fw *frame_write, tile string, config *logic_configuration) {
	for slice_idx := 0; slice_idx < slices_per_clb; slice_idx++ {
		var slice_name = fmt.Sprintf("SLICE_%d", slice_idx)

		for _, lut_name := range lut_names {
			var tt, err = extract_lut_truth_table(fw.payload, lut_name)
			if err != nil {
				continue
			}
			config.add_lut(&lut_config{
				tile:        tile,
				slice:       slice_name,
				lut_name:    lut_name,
				truth_table: tt,
				far:         fw.far,
			})
		}

		for ff_idx := 0; ff_idx < ffs_per_slice; ff_idx++ {
			var base = FF_CTRL_BASE + ff_idx*FF_CTRL_STRIDE
			config.add_ff(&ff_config{
				tile:         tile,
				slice:        slice_name,
				ff_name:      fmt.Sprintf("FF_%d", ff_idx),
				init_value:   extract_bit(fw.payload, base),
				clock_enable: extract_bit(fw.payload, base+1),
				set_reset:    extract_bit(fw.payload, base+2),
				far:          fw.far,
			})
		}
	}
}

/*------------------------------------------------------------------
 * Comparison.
 *------------------------------------------------------------------*/

type lut_modification struct {
	id         lut_id
	far        uint32
	golden_tt  uint64
	suspect_tt uint64
}

type logic_comparison struct {
	added    []lut_id
	removed  []lut_id
	modified []*lut_modification
}

func compare_logic(golden *logic_configuration, suspect *logic_configuration) *logic_comparison {
	var cmp = &logic_comparison{}

	for _, id := range sorted_lut_ids(suspect.luts) {
		var s = suspect.luts[id]
		var g, ok = golden.luts[id]
		if !ok {
			cmp.added = append(cmp.added, id)
			continue
		}
		if g.truth_table != s.truth_table {
			cmp.modified = append(cmp.modified, &lut_modification{
				id:         id,
				far:        s.far,
				golden_tt:  g.truth_table,
				suspect_tt: s.truth_table,
			})
		}
	}
	for _, id := range sorted_lut_ids(golden.luts) {
		if _, ok := suspect.luts[id]; !ok {
			cmp.removed = append(cmp.removed, id)
		}
	}

	return cmp
}

func sorted_lut_ids(luts map[lut_id]*lut_config) []lut_id {
	var ids = make([]lut_id, 0, len(luts))
	for id := range luts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].tile != ids[j].tile {
			return ids[i].tile < ids[j].tile
		}
		if ids[i].slice != ids[j].slice {
			return ids[i].slice < ids[j].slice
		}
		return ids[i].lut_name < ids[j].lut_name
	})
	return ids
}

/*------------------------------------------------------------------
 * Semantic classification of a LUT change.
 *------------------------------------------------------------------*/

type lut_change_analysis struct {
	bits_changed int
	change_class string
	semantic     string
	severity     severity_level
}

// analyze_lut_modification grades how a truth table changed.  A small
// targeted flip (1-4 bits) is the classic logic-Trojan signature.
func analyze_lut_modification(golden_tt uint64, suspect_tt uint64) lut_change_analysis {
	var changed = bits.OnesCount64(golden_tt ^ suspect_tt)

	var class string
	switch {
	case changed == 0:
		class = "no_change"
	case changed <= 4:
		class = "minimal_targeted"
	case changed <= 16:
		class = "moderate"
	case changed <= 32:
		class = "substantial"
	default:
		class = "complete_rewrite"
	}

	var golden_constant = golden_tt == 0 || golden_tt == ^uint64(0)
	var suspect_constant = suspect_tt == 0 || suspect_tt == ^uint64(0)

	var analysis = lut_change_analysis{bits_changed: changed, change_class: class}
	switch {
	case changed == 0:
		analysis.semantic = "no_change"
		analysis.severity = SEVERITY_INFO
	case !golden_constant && suspect_constant:
		analysis.semantic = "function_disabled"
		analysis.severity = SEVERITY_MEDIUM
	case golden_constant && !suspect_constant:
		analysis.semantic = "function_enabled"
		analysis.severity = SEVERITY_HIGH
	case class == "minimal_targeted":
		analysis.semantic = "targeted_modification"
		analysis.severity = SEVERITY_CRITICAL
	default:
		analysis.semantic = "function_changed"
		analysis.severity = SEVERITY_MEDIUM
	}

	return analysis
}
