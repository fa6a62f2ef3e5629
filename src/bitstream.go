package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Loaded-bitstream container: the frame-write log plus
 *		the lookup indices the detector wants.
 *
 * Description: The effective value of a FAR is its last write; the
 *		full write history is kept because an intermediate
 *		write that is later overwritten can briefly configure
 *		the fabric.
 *
 *------------------------------------------------------------------*/

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type bitstream_info struct {
	filename    string
	design_name string
	device_name string
	build_date  string
	build_time  string
	file_size   int
	sha256_hash string

	// Derived statistics, filled when the indices are built.
	frame_count          int
	unique_far_count     int
	multi_write_fars     int
	total_writes         int
	block_type_counts    map[int]int
	column_coverage      map[int]bool
}

func (info *bitstream_info) String() string {
	return fmt.Sprintf("Bitstream(%s design=%q device=%q frames=%d unique=%d multi-write=%d)",
		info.filename, info.design_name, info.device_name,
		info.frame_count, info.unique_far_count, info.multi_write_fars)
}

type loaded_bitstream struct {
	info   *bitstream_info
	frames []*frame_write // full write log, program order

	frames_by_far        map[uint32]*frame_write   // last write per FAR
	write_history        map[uint32][]*frame_write // all writes per FAR, in order
	frames_by_column     map[int][]*frame_write
	frames_by_block_type map[int][]*frame_write
}

// load_bitstream parses a .bit file from disk.
func load_bitstream(path string) (*loaded_bitstream, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bitstream: %w", err)
	}
	var bs *loaded_bitstream
	bs, err = load_bitstream_bytes(filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	return bs, nil
}

// load_bitstream_bytes parses a .bit image already in memory.
func load_bitstream_bytes(name string, data []byte) (*loaded_bitstream, error) {
	var header_bytes, config, err = split_on_sync(data)
	if err != nil {
		return nil, err
	}

	var header bit_header
	header, err = lex_bit_header(header_bytes)
	if err != nil {
		return nil, err
	}

	var frames []*frame_write
	frames, err = lex_config_stream(config)
	if err != nil {
		return nil, err
	}

	for _, fw := range frames {
		if err := check_payload_len(fw.payload); err != nil {
			return nil, fmt.Errorf("frame %d (%s): %w", fw.index, far_hex(fw.far), err)
		}
	}

	var digest = sha256.Sum256(data)
	var info = &bitstream_info{
		filename:    name,
		design_name: header.design_name,
		device_name: header.device_name,
		build_date:  header.build_date,
		build_time:  header.build_time,
		file_size:   len(data),
		sha256_hash: hex.EncodeToString(digest[:]),
	}

	var bs = &loaded_bitstream{info: info, frames: frames}
	bs.build_indices()

	ambient_log.Debug("bitstream loaded",
		"file", name,
		"frames", info.frame_count,
		"unique_fars", info.unique_far_count,
		"multi_write_fars", info.multi_write_fars)

	return bs, nil
}

func (bs *loaded_bitstream) build_indices() {
	bs.frames_by_far = make(map[uint32]*frame_write)
	bs.write_history = make(map[uint32][]*frame_write)
	bs.frames_by_column = make(map[int][]*frame_write)
	bs.frames_by_block_type = make(map[int][]*frame_write)

	for _, fw := range bs.frames {
		bs.frames_by_far[fw.far] = fw
		bs.write_history[fw.far] = append(bs.write_history[fw.far], fw)
		bs.frames_by_column[fw.fields.major] = append(bs.frames_by_column[fw.fields.major], fw)
		bs.frames_by_block_type[fw.fields.block] = append(bs.frames_by_block_type[fw.fields.block], fw)
	}

	var info = bs.info
	info.frame_count = len(bs.frames)
	info.unique_far_count = len(bs.frames_by_far)
	info.total_writes = len(bs.frames)
	info.multi_write_fars = 0
	info.block_type_counts = make(map[int]int)
	info.column_coverage = make(map[int]bool)
	for _, history := range bs.write_history {
		if len(history) > 1 {
			info.multi_write_fars++
		}
	}
	for block, list := range bs.frames_by_block_type {
		info.block_type_counts[block] = len(list)
	}
	for column := range bs.frames_by_column {
		info.column_coverage[column] = true
	}
}

func (bs *loaded_bitstream) frame(far uint32) *frame_write {
	return bs.frames_by_far[far]
}

func (bs *loaded_bitstream) history(far uint32) []*frame_write {
	return bs.write_history[far]
}

// all_fars returns every configured FAR in ascending order.
func (bs *loaded_bitstream) all_fars() []uint32 {
	var fars = make([]uint32, 0, len(bs.frames_by_far))
	for far := range bs.frames_by_far {
		fars = append(fars, far)
	}
	sort.Slice(fars, func(i, j int) bool { return fars[i] < fars[j] })
	return fars
}

func (bs *loaded_bitstream) far_set() map[uint32]bool {
	var set = make(map[uint32]bool, len(bs.frames_by_far))
	for far := range bs.frames_by_far {
		set[far] = true
	}
	return set
}

// first_nonmatching_write returns the earliest write whose payload
// differs from reference, or nil when every write matches.
func (bs *loaded_bitstream) first_nonmatching_write(far uint32, reference []byte) *frame_write {
	for _, fw := range bs.write_history[far] {
		if !payloads_equal(fw.payload, reference) {
			return fw
		}
	}
	return nil
}
