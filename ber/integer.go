package ber

import "golang.org/x/exp/constraints"

// EncodeSignedInt returns the minimal two's-complement big-endian
// encoding of v: no redundant leading 0x00 or 0xFF octet. It backs both
// INTEGER and ENUMERATED primitives, which share this content encoding
// and differ only in their tag.
func EncodeSignedInt[T constraints.Signed](v T) []byte {
	u := uint64(v)
	if v >= 0 {
		n := 1
		for n < 8 && u>>(uint(n)*8) != 0 {
			n++
		}
		out := make([]byte, n)
		for i := 0; i < n; i++ {
			out[n-1-i] = byte(u >> (uint(i) * 8))
		}
		if out[0]&0x80 != 0 {
			out = append([]byte{0x00}, out...)
		}
		return out
	}

	n := 1
	for n < 8 {
		top := int64(u) >> (uint(n)*8 - 1)
		if top == -1 {
			break
		}
		n++
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = byte(u >> (uint(i) * 8))
	}
	return out
}

// DecodeBoundedInt decodes the minimal two's-complement content octets
// of an INTEGER/ENUMERATED whose value is known to fit in 32 bits (this
// codec uses it for messageID, version, size/time limits and result
// codes). ErrZeroLengthInteger and ErrIntegerOutOfRange are fatal
// decode errors.
func DecodeBoundedInt(content []byte) (int32, error) {
	if len(content) == 0 {
		return 0, ErrZeroLengthInteger
	}
	if len(content) > 4 {
		return 0, ErrIntegerOutOfRange
	}
	v := int32(0)
	if content[0]&0x80 != 0 {
		v = -1
	}
	for _, b := range content {
		v = (v << 8) | int32(b)
	}
	return v, nil
}
