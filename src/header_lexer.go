package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Lex the .bit container header.
 *
 * Description: The header is a TLV sequence in front of the sync
 *		marker AA 99 55 66.  Each record is
 *
 *			(0x00|0x01) TAG 0x00 LEN value[LEN-1]
 *
 *		Recognized tags: 'a' design name, 'b' device name,
 *		'c' build date, 'd' build time, 'e' metadata.  Unknown
 *		tags are skipped.  Values are ASCII, typically NUL
 *		terminated; the terminator is stripped.
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"fmt"
	"strings"
)

var sync_marker = []byte{0xAA, 0x99, 0x55, 0x66}

type bit_header struct {
	design_name string
	device_name string
	build_date  string
	build_time  string
	meta        string
}

func (h bit_header) String() string {
	return fmt.Sprintf("Header(design=%q device=%q built=%s %s)",
		h.design_name, h.device_name, h.build_date, h.build_time)
}

// split_on_sync divides the raw file into header bytes and the
// configuration stream that starts right after the first sync marker.
func split_on_sync(data []byte) ([]byte, []byte, error) {
	var idx = bytes.Index(data, sync_marker)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w in %d bytes", ErrMissingSync, len(data))
	}
	return data[:idx], data[idx+len(sync_marker):], nil
}

// lex_bit_header walks the TLV records.  It is forgiving about junk
// between records (vendor tools pad the header) but a record whose
// declared length runs past the sync marker is fatal.
func lex_bit_header(header []byte) (bit_header, error) {
	var h bit_header
	var pos = 0

	for pos < len(header) {
		var c = header[pos]
		pos++
		if c != 0x00 && c != 0x01 {
			continue
		}
		if pos >= len(header) {
			break
		}
		var tag = header[pos]
		if tag < 'a' || tag > 'e' {
			continue
		}
		// Expect the 0x00 separator then the length byte.
		if pos+2 >= len(header) {
			break
		}
		if header[pos+1] != 0x00 {
			continue
		}
		var length = int(header[pos+2])
		pos += 3
		if length < 1 {
			continue
		}
		if pos+length-1 > len(header) {
			return h, fmt.Errorf("%w: tag %q length %d runs past header end at offset %d",
				ErrMalformedHeader, tag, length, pos)
		}
		var value = header_value(header[pos : pos+length-1])
		pos += length - 1

		switch tag {
		case 'a':
			h.design_name = value
		case 'b':
			h.device_name = value
		case 'c':
			h.build_date = value
		case 'd':
			h.build_time = value
		case 'e':
			h.meta = value
		}
	}

	return h, nil
}

func header_value(raw []byte) string {
	return strings.TrimRight(string(raw), "\x00")
}
