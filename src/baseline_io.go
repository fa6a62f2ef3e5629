package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Durable golden-baseline snapshots.
 *
 * Description: A small versioned binary format with a magic header
 *		and the source file's SHA-256.  Deliberately not a
 *		general-purpose object serializer: a trusted reference
 *		in a security tool must not be reconstructable into
 *		arbitrary object graphs.
 *
 *		Layout (integers big-endian):
 *
 *		  "BSGB" u16(version)
 *		  strings: id, filename, design, device, date, time, hash
 *		  u64(file_size) u8(tiles_supplied)
 *		  u32(nframes)   { u32(far) payload[164] } sorted by FAR
 *		  u32(nhistory)  { u32(far) u16(nwrites) payload[164]... }
 *		  u32(ntiles)    { string } sorted
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/lestrrat-go/strftime"
)

var baseline_magic = []byte("BSGB")

const baseline_version = 1

func save_baseline(gb *golden_baseline, path string) error {
	var f, err = os.Create(path)
	if err != nil {
		return fmt.Errorf("saving baseline: %w", err)
	}
	defer f.Close()

	var w = bufio.NewWriter(f)
	if err := write_baseline(gb, w); err != nil {
		return fmt.Errorf("saving baseline: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("saving baseline: %w", err)
	}

	ambient_log.Info("baseline saved", "path", path, "frames", gb.frame_count())
	return nil
}

func write_baseline(gb *golden_baseline, w io.Writer) error {
	if _, err := w.Write(baseline_magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint16(baseline_version)); err != nil {
		return err
	}

	var info = gb.info
	for _, s := range []string{gb.baseline_id, info.filename, info.design_name,
		info.device_name, info.build_date, info.build_time, gb.source_hash} {
		if err := write_string(w, s); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.BigEndian, uint64(info.file_size)); err != nil {
		return err
	}
	var supplied = byte(0)
	if gb.used_tiles_supplied {
		supplied = 1
	}
	if _, err := w.Write([]byte{supplied}); err != nil {
		return err
	}

	var fars = gb.expected_fars()
	if err := binary.Write(w, binary.BigEndian, uint32(len(fars))); err != nil {
		return err
	}
	for _, far := range fars {
		if err := binary.Write(w, binary.BigEndian, far); err != nil {
			return err
		}
		if _, err := w.Write(gb.payload(far)); err != nil {
			return err
		}
	}

	var history_fars = make([]uint32, 0, len(gb.write_history))
	for far := range gb.write_history {
		history_fars = append(history_fars, far)
	}
	sort.Slice(history_fars, func(i, j int) bool { return history_fars[i] < history_fars[j] })
	if err := binary.Write(w, binary.BigEndian, uint32(len(history_fars))); err != nil {
		return err
	}
	for _, far := range history_fars {
		if err := binary.Write(w, binary.BigEndian, far); err != nil {
			return err
		}
		var writes = gb.write_history[far]
		if err := binary.Write(w, binary.BigEndian, uint16(len(writes))); err != nil {
			return err
		}
		for _, payload := range writes {
			if _, err := w.Write(payload); err != nil {
				return err
			}
		}
	}

	var tiles = make([]string, 0, len(gb.used_tiles))
	for tile := range gb.used_tiles {
		tiles = append(tiles, tile)
	}
	sort.Strings(tiles)
	if err := binary.Write(w, binary.BigEndian, uint32(len(tiles))); err != nil {
		return err
	}
	for _, tile := range tiles {
		if err := write_string(w, tile); err != nil {
			return err
		}
	}

	return nil
}

func load_baseline(path string) (*golden_baseline, error) {
	var f, err = os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading baseline: %w", err)
	}
	defer f.Close()

	var gb *golden_baseline
	gb, err = read_baseline(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("loading baseline %s: %w", path, err)
	}

	ambient_log.Info("baseline loaded", "path", path, "frames", gb.frame_count())
	return gb, nil
}

func read_baseline(r io.Reader) (*golden_baseline, error) {
	var magic = make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, err
	}
	if string(magic) != string(baseline_magic) {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version != baseline_version {
		return nil, fmt.Errorf("unsupported baseline version %d", version)
	}

	var fields [7]string
	for i := range fields {
		var s, err = read_string(r)
		if err != nil {
			return nil, err
		}
		fields[i] = s
	}
	var file_size uint64
	if err := binary.Read(r, binary.BigEndian, &file_size); err != nil {
		return nil, err
	}
	var supplied = make([]byte, 1)
	if _, err := io.ReadFull(r, supplied); err != nil {
		return nil, err
	}

	var gb = &golden_baseline{
		baseline_id: fields[0],
		info: &bitstream_info{
			filename:    fields[1],
			design_name: fields[2],
			device_name: fields[3],
			build_date:  fields[4],
			build_time:  fields[5],
			sha256_hash: fields[6],
			file_size:   int(file_size),
		},
		source_hash:         fields[6],
		frames:              make(map[uint32]*frame_write),
		write_history:       make(map[uint32][][]byte),
		configured_columns:  make(map[int]bool),
		block_type_counts:   make(map[int]int),
		used_tiles:          make(map[string]bool),
		used_tiles_supplied: supplied[0] == 1,
	}

	var nframes uint32
	if err := binary.Read(r, binary.BigEndian, &nframes); err != nil {
		return nil, err
	}
	for i := uint32(0); i < nframes; i++ {
		var far uint32
		if err := binary.Read(r, binary.BigEndian, &far); err != nil {
			return nil, err
		}
		var payload = make([]byte, FRAME_BYTES)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
		var ff = far_decode(far)
		gb.frames[far] = &frame_write{far: far, fields: ff, payload: payload, index: int(i)}
		gb.configured_columns[ff.major] = true
		gb.block_type_counts[ff.block]++
	}

	var nhistory uint32
	if err := binary.Read(r, binary.BigEndian, &nhistory); err != nil {
		return nil, err
	}
	for i := uint32(0); i < nhistory; i++ {
		var far uint32
		if err := binary.Read(r, binary.BigEndian, &far); err != nil {
			return nil, err
		}
		var nwrites uint16
		if err := binary.Read(r, binary.BigEndian, &nwrites); err != nil {
			return nil, err
		}
		var writes = make([][]byte, 0, nwrites)
		for j := uint16(0); j < nwrites; j++ {
			var payload = make([]byte, FRAME_BYTES)
			if _, err := io.ReadFull(r, payload); err != nil {
				return nil, err
			}
			writes = append(writes, payload)
		}
		gb.write_history[far] = writes
	}

	var ntiles uint32
	if err := binary.Read(r, binary.BigEndian, &ntiles); err != nil {
		return nil, err
	}
	for i := uint32(0); i < ntiles; i++ {
		var tile, err = read_string(r)
		if err != nil {
			return nil, err
		}
		gb.used_tiles[tile] = true
	}

	if len(gb.frames) == 0 {
		return nil, fmt.Errorf("baseline holds no frames")
	}

	return gb, nil
}

func write_string(w io.Writer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("string too long for baseline format (%d bytes)", len(s))
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	var _, err = w.Write([]byte(s))
	return err
}

func read_string(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	var buf = make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// default_baseline_name stamps a baseline filename the same way the
// report writer stamps its directories.
func default_baseline_name(baseline_id string) string {
	var stamp, err = strftime.Format("%Y%m%d-%H%M%S", time.Now())
	if err != nil {
		stamp = "baseline"
	}
	return fmt.Sprintf("%s_%s.baseline", baseline_id, stamp)
}
