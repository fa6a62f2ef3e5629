package bitsentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexBitHeader(t *testing.T) {
	var header, err = lex_bit_header(synth_header("counter_top", "5vlx50tff1136"))
	require.NoError(t, err)

	assert.Equal(t, "counter_top", header.design_name)
	assert.Equal(t, "5vlx50tff1136", header.device_name)
	assert.Equal(t, "2025/01/15", header.build_date)
	assert.Equal(t, "12:00:00", header.build_time)
}

func TestLexBitHeaderSkipsUnknownTags(t *testing.T) {
	var raw = []byte{0x00, 'z', 0x00, 0x03, 'h', 'i'}
	raw = append(raw, 0x00, 'a', 0x00, 0x04)
	raw = append(raw, []byte("xy\x00")...)

	var header, err = lex_bit_header(raw)
	require.NoError(t, err)
	assert.Equal(t, "xy", header.design_name)
}

func TestLexBitHeaderTruncatedRecord(t *testing.T) {
	// Declared length runs past the end of the header bytes.
	var raw = []byte{0x00, 'a', 0x00, 0x20, 'x'}
	var _, err = lex_bit_header(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestSplitOnSync(t *testing.T) {
	var data = append([]byte{1, 2, 3}, sync_marker...)
	data = append(data, 9, 9)

	var head, tail, err = split_on_sync(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, head)
	assert.Equal(t, []byte{9, 9}, tail)
}

func TestSplitOnSyncMissing(t *testing.T) {
	var _, _, err = split_on_sync([]byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrMissingSync)
}
