package ber

import "errors"

// Sentinel errors surfaced by the primitives in this package. Callers in
// package codec wrap these with message-id and grammar-state context.
var (
	// ErrTruncated means fewer bytes were supplied than a header or
	// value declared; it is never fatal on its own, the caller may
	// have more bytes on the way.
	ErrTruncated = errors.New("ber: truncated input")

	// ErrIndefiniteLength means the length octet was 0x80 (indefinite
	// form), which this codec rejects outright.
	ErrIndefiniteLength = errors.New("ber: indefinite length form not supported")

	// ErrLengthOutOfRange means a length's long-form octet count
	// exceeds what this codec is willing to decode (see
	// NumLengthOctets in length.go: 1-4 octets).
	ErrLengthOutOfRange = errors.New("ber: length out of range")

	// ErrIntegerOutOfRange means an INTEGER/ENUMERATED primitive's
	// content was longer than 4 octets.
	ErrIntegerOutOfRange = errors.New("ber: integer out of range")

	// ErrZeroLengthInteger means an INTEGER/ENUMERATED primitive had
	// zero content octets, which X.690 never permits.
	ErrZeroLengthInteger = errors.New("ber: zero-length integer")

	// ErrInvalidBoolean means a BOOLEAN primitive's content was not
	// exactly one octet.
	ErrInvalidBoolean = errors.New("ber: invalid boolean encoding")

	// ErrInvalidUTF8 means a string-typed field's content was not
	// valid UTF-8 and strict validation was requested.
	ErrInvalidUTF8 = errors.New("ber: invalid UTF-8")
)
