package codec

import (
	"github.com/oba-ldap/ldapcodec/ber"
	"github.com/oba-ldap/ldapcodec/message"
)

// OIDPagedResults is the Simple Paged Results control, RFC 2696.
const OIDPagedResults = "1.2.840.113556.1.4.319"

// PagedResultsValue is the structured payload of the paged results
// control:
//
//	realSearchControlValue ::= SEQUENCE {
//		size            INTEGER (0..maxInt),
//		cookie          OCTET STRING
//	}
type PagedResultsValue struct {
	Size   uint32
	Cookie []byte
}

// EncodeValue implements message.ControlPayload.
func (v *PagedResultsValue) EncodeValue() ([]byte, error) {
	sizeContent := ber.EncodeSignedInt(int64(v.Size))
	sizeTLV := ber.AppendTag(nil, ber.ClassUniversal, false, ber.TagInteger)
	sizeTLV = ber.AppendLength(sizeTLV, len(sizeContent))
	sizeTLV = append(sizeTLV, sizeContent...)

	cookieTLV := ber.AppendTag(nil, ber.ClassUniversal, false, ber.TagOctetString)
	cookieTLV = ber.AppendLength(cookieTLV, len(v.Cookie))
	cookieTLV = append(cookieTLV, v.Cookie...)

	content := append(sizeTLV, cookieTLV...)
	out := ber.AppendTag(nil, ber.ClassUniversal, true, ber.TagSequence)
	out = ber.AppendLength(out, len(content))
	return append(out, content...), nil
}

type pagedResultsCodec struct{}

func (pagedResultsCodec) DecodeValue(value []byte) (message.ControlPayload, error) {
	var tok ber.Tokenizer
	seq, ok, err := tok.PeekHeader(value)
	if err != nil || !ok || seq.Class != ber.ClassUniversal || seq.Tag != ber.TagSequence {
		return nil, errUnsupportedControlValue
	}
	pos := seq.HeaderLen

	sizeTLV, ok, err := tok.PeekHeader(value[pos:])
	if err != nil || !ok || sizeTLV.Tag != ber.TagInteger {
		return nil, errUnsupportedControlValue
	}
	sizeStart := pos + sizeTLV.HeaderLen
	if sizeStart+sizeTLV.Length > len(value) {
		return nil, errUnsupportedControlValue
	}
	size, err := ber.DecodeBoundedInt(value[sizeStart : sizeStart+sizeTLV.Length])
	if err != nil {
		return nil, err
	}
	pos = sizeStart + sizeTLV.Length

	cookieTLV, ok, err := tok.PeekHeader(value[pos:])
	if err != nil || !ok || cookieTLV.Tag != ber.TagOctetString {
		return nil, errUnsupportedControlValue
	}
	cookieStart := pos + cookieTLV.HeaderLen
	if cookieStart+cookieTLV.Length > len(value) {
		return nil, errUnsupportedControlValue
	}
	cookie := append([]byte(nil), value[cookieStart:cookieStart+cookieTLV.Length]...)

	return &PagedResultsValue{Size: uint32(size), Cookie: cookie}, nil
}

var errUnsupportedControlValue = &DecoderError{Kind: DecoderUnsupportedChoice, State: "control.value", MessageID: -1}

func init() {
	RegisterControl(OIDPagedResults, pagedResultsCodec{})
}
