package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Lex the post-sync configuration packet stream into an
 *		ordered frame-write log.
 *
 * Description: Words are big-endian 32 bits.  A Type-1 WRITE to the
 *		FAR register (one payload word) establishes the frame
 *		address.  A following Type-2 packet carries N*41 words
 *		of frame data; the address auto-increments after each
 *		41-word chunk per the device's column walker.
 *
 *		Every write is preserved in order, including repeated
 *		writes to the same FAR.  A transient write that is
 *		later overwritten is exactly the kind of evidence the
 *		detector needs, so nothing is coalesced here.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/binary"
	"fmt"
)

// Type-1 packet opcodes.
const (
	OP_NOP   = 0
	OP_READ  = 1
	OP_WRITE = 2
	OP_SYNC  = 3
)

// Configuration register addresses the lexer cares about.
const REG_FAR = 0x0001

type frame_lexer struct {
	payload []byte
	pos     int

	have_far bool
	far      far_fields

	result []*frame_write
}

func (lx *frame_lexer) next_word() (uint32, bool) {
	if lx.pos+4 > len(lx.payload) {
		return 0, false
	}
	var w = binary.BigEndian.Uint32(lx.payload[lx.pos:])
	lx.pos += 4
	return w, true
}

// lex_config_stream parses the configuration stream and returns the
// frame-write log in source-byte order.
func lex_config_stream(payload []byte) ([]*frame_write, error) {
	var lx = frame_lexer{payload: payload}

	for {
		var at = lx.pos
		var hdr, ok = lx.next_word()
		if !ok {
			break
		}

		var ptype = (hdr >> 29) & 0x7
		var op = int((hdr >> 27) & 0x3)

		switch ptype {
		case 0b001:
			// Register address is hdr[26:13]; the opcode bits above it
			// are excluded.
			var reg = int((hdr >> 13) & 0x3FFF)
			var wc = int(hdr & 0x1FFF)
			if op == OP_WRITE && reg == REG_FAR && wc == 1 {
				var value, ok = lx.next_word()
				if !ok {
					return nil, fmt.Errorf("%w: FAR write at offset %d has no payload word", ErrTruncatedPacket, at)
				}
				lx.far = far_decode(value)
				lx.have_far = true
				continue
			}
			// Other Type-1 registers (CMD, CTL, CRC, ...) carry no
			// frame data; skip their payload words.
			if lx.pos+4*wc > len(lx.payload) {
				return nil, fmt.Errorf("%w: Type-1 packet at offset %d declares %d words", ErrTruncatedPacket, at, wc)
			}
			lx.pos += 4 * wc

		case 0b010:
			var wc = int(hdr & 0x1FFFFFF)
			if lx.pos+4*wc > len(lx.payload) {
				return nil, fmt.Errorf("%w: Type-2 packet at offset %d declares %d words, %d bytes remain",
					ErrTruncatedPacket, at, wc, len(lx.payload)-lx.pos)
			}
			var body = lx.payload[lx.pos : lx.pos+4*wc]
			lx.pos += 4 * wc

			if wc == 0 {
				continue
			}
			if !lx.have_far {
				return nil, fmt.Errorf("%w (Type-2 packet at offset %d)", ErrFDRIBeforeFAR, at)
			}
			if wc%FRAME_WORDS != 0 {
				return nil, fmt.Errorf("%w: %d words at offset %d", ErrUnalignedFrame, wc, at)
			}
			if err := lx.generate_frames(body, wc/FRAME_WORDS); err != nil {
				return nil, err
			}
		}
	}

	return lx.result, nil
}

/*------------------------------------------------------------------
 *
 * Function:	generate_frames
 *
 * Purpose:	Emit N frame writes from one FDRI body, advancing the
 *		frame address after each 41-word chunk.
 *
 * Description: The walker order is: minors within a column, columns
 *		within the current block (fixed per-block column
 *		lists), blocks in ascending code order, then a
 *		top/bottom toggle.  A FAR whose fields fail validation
 *		still produces its frame writes; the warning rides on
 *		each write for the detector.
 *
 *------------------------------------------------------------------*/

func (lx *frame_lexer) generate_frames(body []byte, total int) error {
	var block = lx.far.block
	var top_bottom = lx.far.top_bottom
	var column = lx.far.major
	var minor = lx.far.minor

	var columns = block_columns(block)
	if columns == nil {
		// Unpopulated block code.  The walker cannot advance
		// columns; every emitted frame keeps this column and
		// carries a validation warning.
		columns = []int{column}
	}
	// A starting column outside the block's list is emitted as
	// written (the validation warning rides on each frame); the
	// walker re-enters the list when its minors run out.
	var col_idx = index_of(columns, column)

	var created = 0
	var max_iter = 4*total + 1000

	for created < total {
		if max_iter <= 0 {
			return fmt.Errorf("%w: emitted %d of %d frames", ErrWalkerOverflow, created, total)
		}
		max_iter--

		var far = far_encode(block, top_bottom, column, minor)
		var fields = far_decode(far)
		var warning = ""
		if err := fields.validate(); err != nil {
			warning = err.Error()
		}

		var chunk = body[created*FRAME_BYTES : (created+1)*FRAME_BYTES]
		var payload = make([]byte, FRAME_BYTES)
		copy(payload, chunk)

		lx.result = append(lx.result, &frame_write{
			far:     far,
			fields:  fields,
			payload: payload,
			index:   len(lx.result),
			warning: warning,
		})
		created++

		// Advance the address for the next chunk.
		var _, hi = walker_minor_bounds(block, column)
		if hi <= 0 {
			hi = 1
		}
		minor++
		if minor < hi {
			continue
		}

		if col_idx < 0 {
			col_idx = 0
		} else {
			col_idx++
		}
		if col_idx < len(columns) {
			column = columns[col_idx]
			minor = walker_lo(block, column)
			continue
		}

		var next = next_populated_block(block)
		if next < 0 {
			top_bottom ^= 1
			block = lowest_populated_block()
		} else {
			block = next
		}
		columns = block_columns(block)
		col_idx = 0
		column = columns[0]
		minor = walker_lo(block, column)
	}

	// The walker leaves the address where the device would leave it;
	// a later bare Type-2 continues from here.
	lx.far = far_fields{block: block, major: column, top_bottom: top_bottom, minor: minor}

	return nil
}

func walker_lo(block int, column int) int {
	var lo, _ = walker_minor_bounds(block, column)
	return lo
}

func index_of(list []int, value int) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}
