package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Golden baseline: the trusted reference snapshot a
 *		suspect bitstream is compared against.
 *
 * Description: Built from a trusted loaded bitstream plus an optional
 *		used-tile set.  When no tile set is supplied, a frame
 *		counts as "used" when more than 1% of its 1312 bits
 *		are set, and all of its covered tiles join the used
 *		set.  Logically immutable once built.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"sort"
)

// A frame is considered configured when more than this fraction of
// its bits are set.
const used_frame_threshold = 0.01

type golden_baseline struct {
	baseline_id string
	info        *bitstream_info
	source_hash string // SHA-256 of the golden .bit file

	frames        map[uint32]*frame_write
	write_history map[uint32][][]byte

	configured_columns map[int]bool
	block_type_counts  map[int]int

	used_tiles          map[string]bool
	used_tiles_supplied bool
}

// build_golden_baseline snapshots a trusted bitstream.  used_tiles
// may be nil, in which case usage is inferred from frame occupancy.
func build_golden_baseline(bs *loaded_bitstream, baseline_id string,
	mapper *frame_mapper, used_tiles map[string]bool) (*golden_baseline, error) {

	if len(bs.frames_by_far) == 0 {
		return nil, fmt.Errorf("golden baseline: bitstream %s has no frames", bs.info.filename)
	}
	if baseline_id == "" {
		baseline_id = "golden_" + bs.info.filename
	}
	if mapper == nil {
		mapper = new_frame_mapper()
	}

	var gb = &golden_baseline{
		baseline_id:        baseline_id,
		info:               bs.info,
		source_hash:        bs.info.sha256_hash,
		frames:             make(map[uint32]*frame_write, len(bs.frames_by_far)),
		write_history:      make(map[uint32][][]byte, len(bs.write_history)),
		configured_columns: make(map[int]bool),
		block_type_counts:  make(map[int]int),
	}

	for far, fw := range bs.frames_by_far {
		if err := check_payload_len(fw.payload); err != nil {
			return nil, fmt.Errorf("golden baseline: %s: %w", far_hex(far), err)
		}
		if fw.warning != "" {
			// Kept, but on the record: a mismatched block code in the
			// trusted reference is worth a look.
			ambient_log.Warn("golden frame failed FAR validation", "far", far_hex(far), "warning", fw.warning)
		}
		gb.frames[far] = fw
		gb.configured_columns[fw.fields.major] = true
		gb.block_type_counts[fw.fields.block]++
	}
	for far, history := range bs.write_history {
		var payloads = make([][]byte, 0, len(history))
		for _, fw := range history {
			payloads = append(payloads, fw.payload)
		}
		gb.write_history[far] = payloads
	}

	if used_tiles != nil {
		gb.used_tiles = used_tiles
		gb.used_tiles_supplied = true
	} else {
		gb.used_tiles = infer_used_tiles(bs, mapper)
	}

	ambient_log.Debug("golden baseline built",
		"id", gb.baseline_id,
		"frames", len(gb.frames),
		"used_tiles", len(gb.used_tiles),
		"tile_set", IfThenElse(gb.used_tiles_supplied, "supplied", "inferred"))

	return gb, nil
}

// infer_used_tiles marks every tile covered by a frame whose payload
// is more than 1% set.
func infer_used_tiles(bs *loaded_bitstream, mapper *frame_mapper) map[string]bool {
	var used = make(map[string]bool)
	for _, far := range bs.all_fars() {
		var fw = bs.frames_by_far[far]
		if float64(popcount_payload(fw.payload))/float64(FRAME_BITS) <= used_frame_threshold {
			continue
		}
		for _, tile := range mapper.map_frame(far).tiles_affected {
			used[tile] = true
		}
	}
	return used
}

func (gb *golden_baseline) has(far uint32) bool {
	return gb.frames[far] != nil
}

func (gb *golden_baseline) payload(far uint32) []byte {
	var fw = gb.frames[far]
	if fw == nil {
		return nil
	}
	return fw.payload
}

func (gb *golden_baseline) history(far uint32) [][]byte {
	return gb.write_history[far]
}

// expected_fars returns every configured FAR in ascending order.
func (gb *golden_baseline) expected_fars() []uint32 {
	var fars = make([]uint32, 0, len(gb.frames))
	for far := range gb.frames {
		fars = append(fars, far)
	}
	sort.Slice(fars, func(i, j int) bool { return fars[i] < fars[j] })
	return fars
}

func (gb *golden_baseline) far_set() map[uint32]bool {
	var set = make(map[uint32]bool, len(gb.frames))
	for far := range gb.frames {
		set[far] = true
	}
	return set
}

func (gb *golden_baseline) is_tile_used(name string) bool {
	return gb.used_tiles[name]
}

func (gb *golden_baseline) frame_count() int {
	return len(gb.frames)
}

// frame_writes returns the effective frames sorted by FAR, for the
// reconstruction passes of the enhanced detector.
func (gb *golden_baseline) frame_writes() []*frame_write {
	var frames = make([]*frame_write, 0, len(gb.frames))
	for _, far := range gb.expected_fars() {
		frames = append(frames, gb.frames[far])
	}
	return frames
}

// verify_frame reports whether suspect payload bytes match golden.
func (gb *golden_baseline) verify_frame(far uint32, suspect []byte) bool {
	var golden = gb.payload(far)
	return golden != nil && payloads_equal(golden, suspect)
}

// find_differences returns the differing bit offsets against golden,
// or nil when the frame is not in the baseline.
func (gb *golden_baseline) find_differences(far uint32, suspect []byte) []int {
	var golden = gb.payload(far)
	if golden == nil {
		return nil
	}
	return compare_payloads(golden, suspect)
}
