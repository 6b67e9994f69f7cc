package ber

// TLV is a parsed tag-length header: the unit the decoder's grammar
// acts on. It does not carry the value octets — those remain in the
// caller's buffer at [offset+HeaderLen, offset+HeaderLen+Length) so
// that large values are never copied gratuitously.
type TLV struct {
	Class       Class
	Constructed bool
	Tag         int
	Length      int
	HeaderLen   int // octets consumed by the identifier + length fields
}

// End returns the offset, relative to the same origin as the offset
// PeekHeader was called with, of the first octet past this TLV's value.
func (t TLV) End(offset int) int {
	return offset + t.HeaderLen + t.Length
}

// Tokenizer turns a byte stream into TLV header events. It is the
// bottom layer of the decoder pipeline: it parses identifier and
// length octets only, and never buffers value octets itself — the
// grammar pulls those directly from the container's buffer once a
// header is available. It holds no state: because a header is at
// most a handful of octets, each call re-parses the tag, the first
// length octet and any further length octets from scratch rather than
// persisting partial progress, which is simpler and no less correct:
// PeekHeader is idempotent and cheap to retry once more bytes have
// arrived.
type Tokenizer struct{}

// PeekHeader attempts to parse one TLV header from the front of buf.
// ok is false (with err nil) when buf does not yet contain a complete
// header — the caller should retry once more bytes have been fed.
// A non-nil err is fatal for the stream (ErrIndefiniteLength or
// ErrLengthOutOfRange).
func (Tokenizer) PeekHeader(buf []byte) (tlv TLV, ok bool, err error) {
	id, n, err := DecodeTag(buf)
	if err != nil {
		if err == ErrTruncated {
			return TLV{}, false, nil
		}
		return TLV{}, false, err
	}

	length, m, err := DecodeLength(buf[n:])
	if err != nil {
		if err == ErrTruncated {
			return TLV{}, false, nil
		}
		return TLV{}, false, err
	}

	tlv = TLV{
		Class:       id.Class,
		Constructed: id.Constructed,
		Tag:         id.Tag,
		Length:      length,
		HeaderLen:   n + m,
	}
	return tlv, true, nil
}
