package bitsentry

/*------------------------------------------------------------------
 *
 * Test helpers: synthesize .bit images at the frame level.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/binary"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// synth_write is one FAR write followed by a one-frame FDRI.
type synth_write struct {
	far     uint32
	payload []byte
}

// frame_payload builds a zeroed frame with the given bits set.
func frame_payload(set_bits ...int) []byte {
	var payload = make([]byte, FRAME_BYTES)
	for _, offset := range set_bits {
		write_bit(payload, offset, true)
	}
	return payload
}

func put_word(out []byte, w uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], w)
	return append(out, buf[:]...)
}

func t1_far_write(far uint32) []byte {
	var out []byte
	out = put_word(out, uint32(0b001)<<29|uint32(OP_WRITE)<<27|uint32(REG_FAR)<<13|1)
	out = put_word(out, far)
	return out
}

func t2_fdri(payloads ...[]byte) []byte {
	var words = 0
	for _, p := range payloads {
		words += len(p) / 4
	}
	var out []byte
	out = put_word(out, uint32(0b010)<<29|uint32(OP_WRITE)<<27|uint32(words))
	for _, p := range payloads {
		out = append(out, p...)
	}
	return out
}

func synth_header(design string, device string) []byte {
	var out []byte
	for _, rec := range []struct {
		tag   byte
		value string
	}{
		{'a', design},
		{'b', device},
		{'c', "2025/01/15"},
		{'d', "12:00:00"},
	} {
		out = append(out, 0x00, rec.tag, 0x00, byte(len(rec.value)+1))
		out = append(out, []byte(rec.value)...)
		out = append(out, 0x00)
	}
	return out
}

// synth_bit_file builds a complete .bit image: header, sync marker,
// then one FAR write + single-frame FDRI per entry, in order.
func synth_bit_file(design string, writes []synth_write) []byte {
	var out = synth_header(design, "5vlx50tff1136")
	out = append(out, sync_marker...)
	for _, w := range writes {
		out = append(out, t1_far_write(w.far)...)
		out = append(out, t2_fdri(w.payload)...)
	}
	return out
}

func synth_bitstream(t *testing.T, name string, writes []synth_write) *loaded_bitstream {
	t.Helper()
	var bs, err = load_bitstream_bytes(name, synth_bit_file("test_design", writes))
	require.NoError(t, err)
	return bs
}

func synth_baseline(t *testing.T, name string, writes []synth_write, used_tiles map[string]bool) *golden_baseline {
	t.Helper()
	var bs = synth_bitstream(t, name, writes)
	var gb, err = build_golden_baseline(bs, "", nil, used_tiles)
	require.NoError(t, err)
	return gb
}

func time_zero() time.Time {
	return time.Unix(0, 0).UTC()
}

func write_file(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func file_size(path string) (int64, error) {
	var info, err = os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Handy frame addresses used across the detector tests.
var (
	far_clb_routing = far_encode(BLOCK_CLB, 0, 1, 5)  // CLB column 1, routing minor
	far_clb_logic   = far_encode(BLOCK_CLB, 0, 2, 25) // CLB column 2, logic minor
	far_clk         = far_encode(BLOCK_CLK, 0, 23, 2) // clock spine
	far_iob         = far_encode(BLOCK_IOB, 0, 0, 3)  // IOB column 0
	far_bram_int    = far_encode(BLOCK_BRAM_INT, 0, 4, 7)
)
