package bitsentry

import "errors"

// Fatal lexer failure kinds.  Callers match with errors.Is; the
// wrapped message carries the offending byte offset.
var (
	ErrMalformedHeader = errors.New("malformed bitstream header")
	ErrMissingSync     = errors.New("sync marker not found")
	ErrTruncatedPacket = errors.New("truncated configuration packet")
	ErrUnalignedFrame  = errors.New("FDRI payload not a multiple of 41 words")
	ErrWalkerOverflow  = errors.New("frame address walker overflow")
	ErrFDRIBeforeFAR   = errors.New("FDRI encountered before any FAR write")
)
