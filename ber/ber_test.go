package ber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumLengthOctets(t *testing.T) {
	cases := []struct {
		length int
		want   int
	}{
		{0, 1}, {127, 1},
		{128, 2}, {255, 2},
		{256, 3}, {65535, 3},
		{65536, 4}, {16777215, 4},
		{16777216, 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NumLengthOctets(c.length), "length=%d", c.length)
	}
}

func TestLengthRoundTrip(t *testing.T) {
	for _, length := range []int{0, 1, 127, 128, 200, 65535, 70000, 16777215, 20000000} {
		encoded := AppendLength(nil, length)
		got, consumed, err := DecodeLength(encoded)
		require.NoError(t, err)
		assert.Equal(t, length, got)
		assert.Equal(t, len(encoded), consumed)
	}
}

func TestDecodeLengthTruncated(t *testing.T) {
	_, _, err := DecodeLength(nil)
	assert.ErrorIs(t, err, ErrTruncated)

	// long form header claims 2 more octets but only one is present.
	_, _, err = DecodeLength([]byte{0x82, 0x01})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeLengthIndefiniteRejected(t *testing.T) {
	_, _, err := DecodeLength([]byte{0x80})
	assert.ErrorIs(t, err, ErrIndefiniteLength)
}

func TestDecodeLengthOutOfRange(t *testing.T) {
	_, _, err := DecodeLength([]byte{0x85, 1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrLengthOutOfRange)
}

func TestTagRoundTrip(t *testing.T) {
	cases := []struct {
		class       Class
		constructed bool
		tag         int
	}{
		{ClassUniversal, false, TagInteger},
		{ClassApplication, true, 16},
		{ClassContextSpecific, false, 0},
		{ClassContextSpecific, true, 9},
	}
	for _, c := range cases {
		encoded := AppendTag(nil, c.class, c.constructed, c.tag)
		id, consumed, err := DecodeTag(encoded)
		require.NoError(t, err)
		assert.Equal(t, c.class, id.Class)
		assert.Equal(t, c.constructed, id.Constructed)
		assert.Equal(t, c.tag, id.Tag)
		assert.Equal(t, len(encoded), consumed)
	}
}

func TestEncodeSignedIntMinimalForm(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x00, 0x80}},
		{256, []byte{0x01, 0x00}},
		{-1, []byte{0xFF}},
		{-128, []byte{0x80}},
		{-129, []byte{0xFF, 0x7F}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, EncodeSignedInt(c.v), "v=%d", c.v)
	}
}

func TestDecodeBoundedIntRoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 127, 128, -128, -129, 2147483647, -2147483648} {
		encoded := EncodeSignedInt(v)
		got, err := DecodeBoundedInt(encoded)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDecodeBoundedIntErrors(t *testing.T) {
	_, err := DecodeBoundedInt(nil)
	assert.ErrorIs(t, err, ErrZeroLengthInteger)

	_, err = DecodeBoundedInt([]byte{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrIntegerOutOfRange)
}

func TestBooleanRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		got, err := DecodeBoolean([]byte{EncodeBoolean(v)})
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := DecodeBoolean([]byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrInvalidBoolean)
}

func TestDecodeUTF8Strict(t *testing.T) {
	invalid := []byte{0xFF, 0xFE}

	s, err := DecodeUTF8(invalid, false)
	require.NoError(t, err)
	assert.NotEmpty(t, s)

	_, err = DecodeUTF8(invalid, true)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestTokenizerPeekHeaderFragmentTolerance(t *testing.T) {
	// SEQUENCE, length 5, 5 content octets: full TLV is 7 bytes.
	full := append(AppendTag(nil, ClassUniversal, true, TagSequence), AppendLength(nil, 5)...)
	full = append(full, []byte{1, 2, 3, 4, 5}...)

	var tok Tokenizer
	for n := 0; n < 2; n++ {
		_, ok, err := tok.PeekHeader(full[:n])
		require.NoError(t, err)
		assert.False(t, ok, "expected truncated at %d bytes", n)
	}

	tlv, ok, err := tok.PeekHeader(full)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ClassUniversal, tlv.Class)
	assert.True(t, tlv.Constructed)
	assert.Equal(t, TagSequence, tlv.Tag)
	assert.Equal(t, 5, tlv.Length)
	assert.Equal(t, 2, tlv.HeaderLen)
	assert.Equal(t, len(full), tlv.End(0))
}
