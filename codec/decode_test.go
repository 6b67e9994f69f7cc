package codec

import (
	"strings"
	"testing"

	"encoding/hex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oba-ldap/ldapcodec/message"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}

func TestDecodeBindRequestSimpleAnonymous(t *testing.T) {
	pdu := hexBytes(t, "30 0c 02 01 01 60 07 02 01 03 04 00 80 00")
	msg, rest, err := Decode(pdu, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, int32(1), msg.MessageID)

	req, ok := msg.Op.(*message.BindRequest)
	require.True(t, ok)
	assert.Equal(t, int32(3), req.Version)
	assert.Equal(t, message.DN(""), req.Name)
	assert.Equal(t, message.AuthMethodSimple, req.AuthMethod)
	assert.Empty(t, req.SimplePassword)

	out, err := Encode(msg, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, pdu, out)
}

func TestDecodeBindResponseSuccess(t *testing.T) {
	pdu := hexBytes(t, "30 0c 02 01 01 61 07 0a 01 00 04 00 04 00")
	msg, rest, err := Decode(pdu, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, rest)

	resp, ok := msg.Op.(*message.BindResponse)
	require.True(t, ok)
	assert.Equal(t, message.ResultSuccess, resp.Result.ResultCode)
	assert.Equal(t, message.DN(""), resp.Result.MatchedDN)
	assert.Equal(t, "", resp.Result.DiagnosticMessage)

	out, err := Encode(msg, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, pdu, out)
}

func TestDecodeSearchRequestBaseObjectFilter(t *testing.T) {
	pdu := hexBytes(t, "30 2e 02 01 02 63 29 04 00 0a 01 00 0a 01 00 02 01 00 "+
		"02 01 00 01 01 00 a0 14 a3 12 04 0b 6f 62 6a 65 63 74 43 6c 61 73 73 "+
		"04 03 74 6f 70 30 00")
	msg, rest, err := Decode(pdu, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, int32(2), msg.MessageID)

	req, ok := msg.Op.(*message.SearchRequest)
	require.True(t, ok)
	assert.Equal(t, message.DN(""), req.BaseObject)
	assert.Equal(t, message.ScopeBaseObject, req.Scope)
	assert.Equal(t, message.DerefNever, req.DerefAliases)
	assert.Equal(t, uint32(0), req.SizeLimit)
	assert.Equal(t, uint32(0), req.TimeLimit)
	assert.False(t, req.TypesOnly)
	assert.Empty(t, req.Attributes)

	and, ok := req.Filter.(*message.AndFilter)
	require.True(t, ok)
	require.Len(t, and.Children, 1)
	eq, ok := and.Children[0].(*message.EqualityMatchFilter)
	require.True(t, ok)
	assert.Equal(t, "objectClass", eq.Type)
	assert.Equal(t, []byte("top"), eq.Value)

	out, err := Encode(msg, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, pdu, out)
}

func TestDecodeUnbindRequest(t *testing.T) {
	pdu := hexBytes(t, "30 05 02 01 03 42 00")
	msg, rest, err := Decode(pdu, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, int32(3), msg.MessageID)
	_, ok := msg.Op.(*message.UnbindRequest)
	assert.True(t, ok)

	out, err := Encode(msg, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, pdu, out)
}

func TestDecoderFragmentToleranceScenario6(t *testing.T) {
	pdu := hexBytes(t, "30 2e 02 01 02 63 29 04 00 0a 01 00 0a 01 00 02 01 00 "+
		"02 01 00 01 01 00 a0 14 a3 12 04 0b 6f 62 6a 65 63 74 43 6c 61 73 73 "+
		"04 03 74 6f 70 30 00")

	d := NewDecoder(DefaultOptions())
	require.NoError(t, d.Feed(pdu[:6]))
	_, ok := d.NextMessage()
	assert.False(t, ok, "partial PDU must not yield a message")

	require.NoError(t, d.Feed(pdu[6:]))
	msg, ok := d.NextMessage()
	require.True(t, ok)
	assert.Equal(t, int32(2), msg.MessageID)
}

func TestDecoderFragmentToleranceByteAtATime(t *testing.T) {
	pdu := hexBytes(t, "30 0c 02 01 01 61 07 0a 01 00 04 00 04 00")

	d := NewDecoder(DefaultOptions())
	for i := 0; i < len(pdu)-1; i++ {
		require.NoError(t, d.Feed(pdu[i:i+1]))
		_, ok := d.NextMessage()
		assert.False(t, ok)
	}
	require.NoError(t, d.Feed(pdu[len(pdu)-1:]))
	msg, ok := d.NextMessage()
	require.True(t, ok)
	assert.Equal(t, int32(1), msg.MessageID)
}

func TestDecoderStreamingEquivalenceAcrossSplits(t *testing.T) {
	pduA := hexBytes(t, "30 05 02 01 03 42 00")
	pduB := hexBytes(t, "30 0c 02 01 01 61 07 0a 01 00 04 00 04 00")
	whole := append(append([]byte{}, pduA...), pduB...)

	splits := [][]int{
		{len(whole)},
		{1, len(whole) - 1},
		{len(pduA) - 1, 2, len(whole) - len(pduA) - 1},
		{7, 5, 1, len(whole) - 13},
	}

	for _, split := range splits {
		d := NewDecoder(DefaultOptions())
		pos := 0
		for _, n := range split {
			require.NoError(t, d.Feed(whole[pos:pos+n]))
			pos += n
		}
		first, ok := d.NextMessage()
		require.True(t, ok)
		assert.Equal(t, int32(3), first.MessageID)
		second, ok := d.NextMessage()
		require.True(t, ok)
		assert.Equal(t, int32(1), second.MessageID)
	}
}

func TestDecoderMalformedPDUTruncatedContainer(t *testing.T) {
	// Outer SEQUENCE declares length 20 but the inner BindRequest's length
	// byte claims content reaching past that bound.
	pdu := []byte{
		0x30, 0x14, // SEQUENCE, length 20 -- so the whole PDU is 22 bytes
		0x02, 0x01, 0x01, // messageID 1
		0x60, 0x19, // BindRequest, length 25 -- its own content alone would
		// need 25 more bytes, overrunning the 20-byte outer container
		// after only 15 filler bytes are available for it here.
		0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00,
	}
	d := NewDecoder(DefaultOptions())
	err := d.Feed(pdu)
	require.Error(t, err)
	var decErr *DecoderError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, DecoderTruncatedContainer, decErr.Kind)

	// The container is poisoned: further feeds return the same error.
	err2 := d.Feed([]byte{0x00})
	assert.Same(t, err, err2)
}

func TestDecoderZeroLengthMessageIDIsDecodeError(t *testing.T) {
	pdu := []byte{0x30, 0x05, 0x02, 0x00, 0x42, 0x00, 0x00}
	_, _, err := Decode(pdu, DefaultOptions())
	require.Error(t, err)
	var decErr *DecoderError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, DecoderIntegerOutOfRange, decErr.Kind)
}

func TestDecoderMaxPduSizeExceeded(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxPDUSize = 4
	pdu := hexBytes(t, "30 05 02 01 03 42 00")
	_, _, err := Decode(pdu, opts)
	require.Error(t, err)
	var decErr *DecoderError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, DecoderMaxPduExceeded, decErr.Kind)
}

func TestDecoderRejectsDuplicateControlOID(t *testing.T) {
	// messageID=7, UnbindRequest, [0] Controls holding the same OID
	// "1.2.3" twice.
	pdu := hexBytes(t, ""+
		"30 19 "+ // outer SEQUENCE, length 25
		"02 01 07 "+ // messageID 7
		"42 00 "+ // UnbindRequest
		"a0 12 "+ // [0] Controls, length 18
		"30 07 04 05 31 2e 32 2e 33 "+ // control SEQUENCE { oid "1.2.3" }
		"30 07 04 05 31 2e 32 2e 33") // duplicate control
	_, _, err := Decode(pdu, DefaultOptions())
	require.Error(t, err)
	var decErr *DecoderError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, DecoderDuplicateControlOID, decErr.Kind)
}

func TestUnknownControlFidelity(t *testing.T) {
	cl := message.NewControlList()
	cl.Add(message.Control{OID: "1.2.999.1", Critical: true, Value: []byte{0x01, 0x02, 0x03}})
	msg := &message.Message{MessageID: 9, Op: &message.UnbindRequest{}, Controls: cl}

	encoded1, err := Encode(msg, DefaultOptions())
	require.NoError(t, err)

	decoded, rest, err := Decode(encoded1, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, rest)

	ctrl, ok := decoded.Controls.Get("1.2.999.1")
	require.True(t, ok)
	assert.True(t, ctrl.Critical)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, ctrl.Value)
	assert.Nil(t, ctrl.Payload)

	encoded2, err := Encode(decoded, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, encoded1, encoded2)
}

func TestDecodeStrictStringValidationRejectsInvalidUTF8(t *testing.T) {
	// BindRequest name OCTET STRING containing an invalid UTF-8 byte.
	pdu := []byte{
		0x30, 0x0d,
		0x02, 0x01, 0x01,
		0x60, 0x08,
		0x02, 0x01, 0x03,
		0x04, 0x01, 0xff,
		0x80, 0x00,
	}
	opts := DefaultOptions()
	opts.StrictStringValidation = true
	_, _, err := Decode(pdu, opts)
	require.Error(t, err)
	var decErr *DecoderError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, DecoderInvalidUTF8, decErr.Kind)

	opts.StrictStringValidation = false
	msg, _, err := Decode(pdu, opts)
	require.NoError(t, err)
	req := msg.Op.(*message.BindRequest)
	assert.NotEmpty(t, req.Name)
}
