package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Reconstruct the active routing state (which PIPs are
 *		on) from configuration frames.
 *
 * Description: The PIP-to-bit mapping is a deterministic
 *		approximation: a tile's PIPs round-robin over the
 *		tile's routing frames, and the bit offset folds the
 *		PIP index into the frame's routing region.  Golden and
 *		suspect are mapped by the same rule, which is all the
 *		comparison needs.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"sort"
)

type pip_key struct {
	tile       string
	start_wire int
	end_wire   int
}

type active_pip struct {
	tile       string
	start_wire int
	end_wire   int
	far        uint32
	bit_offset int
}

func (p *active_pip) key() pip_key {
	return pip_key{tile: p.tile, start_wire: p.start_wire, end_wire: p.end_wire}
}

func (p *active_pip) String() string {
	return fmt.Sprintf("PIP(%s: %d->%d)", p.tile, p.start_wire, p.end_wire)
}

type routing_configuration struct {
	bitstream_id string
	pips         map[pip_key]*active_pip
	by_tile      map[string][]*active_pip
	by_frame     map[uint32][]*active_pip
}

func new_routing_configuration(id string) *routing_configuration {
	return &routing_configuration{
		bitstream_id: id,
		pips:         make(map[pip_key]*active_pip),
		by_tile:      make(map[string][]*active_pip),
		by_frame:     make(map[uint32][]*active_pip),
	}
}

func (rc *routing_configuration) add(p *active_pip) {
	var k = p.key()
	if _, exists := rc.pips[k]; exists {
		return
	}
	rc.pips[k] = p
	rc.by_tile[p.tile] = append(rc.by_tile[p.tile], p)
	rc.by_frame[p.far] = append(rc.by_frame[p.far], p)
}

func (rc *routing_configuration) pips_in_tile(tile string) []*active_pip {
	return rc.by_tile[tile]
}

func (rc *routing_configuration) is_active(tile string, start_wire, end_wire int) bool {
	var _, ok = rc.pips[pip_key{tile: tile, start_wire: start_wire, end_wire: end_wire}]
	return ok
}

func (rc *routing_configuration) size() int {
	return len(rc.pips)
}

/*------------------------------------------------------------------
 * PIP-to-bit mapping.
 *------------------------------------------------------------------*/

type pip_location struct {
	far        uint32
	bit_offset int
}

type pip_frame_mapper struct {
	locations map[pip_key]pip_location
}

// new_pip_frame_mapper distributes every PIP of the device model over
// its tile's routing frames.  The assignment is deterministic across
// runs: tiles in sorted name order, PIPs in model order.
func new_pip_frame_mapper(dm *device_model, rm *reverse_mapper) *pip_frame_mapper {
	var pm = &pip_frame_mapper{locations: make(map[pip_key]pip_location)}

	var tile_names = make([]string, 0, len(dm.tiles))
	for _, t := range dm.tiles {
		tile_names = append(tile_names, t.Name)
	}
	sort.Strings(tile_names)

	for _, name := range tile_names {
		var pips = dm.pips_of_tile(name)
		if len(pips) == 0 {
			continue
		}
		var frames = rm.routing_frames_for_tile(name)
		if len(frames) == 0 {
			continue
		}

		for idx, p := range pips {
			var far = frames[idx%len(frames)]
			var cov = compute_coverage(far)
			var offset = routing_bit_at(cov, idx*4)
			if offset < 0 {
				continue
			}
			pm.locations[pip_key{tile: name, start_wire: p.StartWireId, end_wire: p.EndWireId}] =
				pip_location{far: far, bit_offset: offset}
		}
	}

	ambient_log.Debug("pip-to-bit map built", "pips", len(pm.locations))
	return pm
}

func (pm *pip_frame_mapper) location(tile string, start_wire, end_wire int) (pip_location, bool) {
	var loc, ok = pm.locations[pip_key{tile: tile, start_wire: start_wire, end_wire: end_wire}]
	return loc, ok
}

// routing_bit_at maps a linear index into the frame's routing bit
// regions, wrapping when the index exceeds the region size.
func routing_bit_at(cov *frame_coverage, n int) int {
	var total = cov.routing_bit_count()
	if total == 0 {
		return -1
	}
	n %= total
	for _, r := range cov.routing_bit_ranges {
		if n < r.width() {
			return r.start + n
		}
		n -= r.width()
	}
	return -1
}

/*------------------------------------------------------------------
 * Reconstruction.
 *------------------------------------------------------------------*/

type routing_reconstructor struct {
	dm     *device_model
	mapper *frame_mapper
	pm     *pip_frame_mapper
}

func new_routing_reconstructor(dm *device_model, rm *reverse_mapper) (*routing_reconstructor, error) {
	if dm == nil {
		return nil, fmt.Errorf("routing reconstruction requires a device model")
	}
	if rm == nil {
		rm = new_reverse_mapper(REVERSE_HYBRID, dm)
	}
	return &routing_reconstructor{
		dm:     dm,
		mapper: new_frame_mapper(),
		pm:     new_pip_frame_mapper(dm, rm),
	}, nil
}

// reconstruct walks every routing frame and tests the mapped bit of
// each candidate PIP in the frame's tiles.
func (rr *routing_reconstructor) reconstruct(id string, frames []*frame_write) *routing_configuration {
	var config = new_routing_configuration(id)

	for _, fw := range frames {
		var cov = rr.mapper.map_frame(fw.far)
		if !cov.is_routing_frame() {
			continue
		}

		for _, tile := range cov.tiles_affected {
			for _, p := range rr.dm.pips_of_tile(tile) {
				var loc, ok = rr.pm.location(tile, p.StartWireId, p.EndWireId)
				if !ok || loc.far != fw.far {
					continue
				}
				if extract_bit(fw.payload, loc.bit_offset) {
					config.add(&active_pip{
						tile:       tile,
						start_wire: p.StartWireId,
						end_wire:   p.EndWireId,
						far:        loc.far,
						bit_offset: loc.bit_offset,
					})
				}
			}
		}
	}

	return config
}

/*------------------------------------------------------------------
 * Comparison.
 *------------------------------------------------------------------*/

type routing_comparison struct {
	added   []*active_pip
	removed []*active_pip
	common  []*active_pip

	// New PIPs in tiles that carried no routing at all in golden:
	// the prime hidden-routing indicator.
	suspicious_additions []*active_pip
}

func compare_routing(golden *routing_configuration, suspect *routing_configuration) *routing_comparison {
	var cmp = &routing_comparison{}

	for _, p := range sorted_pips(suspect.pips) {
		if _, ok := golden.pips[p.key()]; ok {
			cmp.common = append(cmp.common, p)
		} else {
			cmp.added = append(cmp.added, p)
			if len(golden.pips_in_tile(p.tile)) == 0 {
				cmp.suspicious_additions = append(cmp.suspicious_additions, p)
			}
		}
	}
	for _, p := range sorted_pips(golden.pips) {
		if _, ok := suspect.pips[p.key()]; !ok {
			cmp.removed = append(cmp.removed, p)
		}
	}

	return cmp
}

func sorted_pips(pips map[pip_key]*active_pip) []*active_pip {
	var keys = make([]pip_key, 0, len(pips))
	for k := range pips {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].tile != keys[j].tile {
			return keys[i].tile < keys[j].tile
		}
		if keys[i].start_wire != keys[j].start_wire {
			return keys[i].start_wire < keys[j].start_wire
		}
		return keys[i].end_wire < keys[j].end_wire
	})
	var result = make([]*active_pip, 0, len(keys))
	for _, k := range keys {
		result = append(result, pips[k])
	}
	return result
}
