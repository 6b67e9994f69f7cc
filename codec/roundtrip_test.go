package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oba-ldap/ldapcodec/message"
)

// roundTrip encodes msg, decodes the result, and asserts the decoded
// message re-encodes to the exact same bytes, checked at the wire
// level since message.Op values don't carry an equality method.
func roundTrip(t *testing.T, msg *message.Message) []byte {
	t.Helper()
	encoded, err := Encode(msg, DefaultOptions())
	require.NoError(t, err)

	decoded, rest, err := Decode(encoded, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, msg.MessageID, decoded.MessageID)

	reencoded, err := Encode(decoded, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, encoded, reencoded)
	return encoded
}

func TestRoundTripSearchResultEntry(t *testing.T) {
	msg := &message.Message{
		MessageID: 2,
		Op: &message.SearchResultEntry{
			ObjectName: "dc=example,dc=com",
			Attributes: []message.PartialAttribute{
				{Type: "objectClass", Values: [][]byte{[]byte("top"), []byte("domain")}},
				{Type: "dc", Values: [][]byte{[]byte("example")}},
			},
		},
	}
	encoded := roundTrip(t, msg)

	decoded, _, err := Decode(encoded, DefaultOptions())
	require.NoError(t, err)
	entry := decoded.Op.(*message.SearchResultEntry)
	assert.Equal(t, message.DN("dc=example,dc=com"), entry.ObjectName)
	require.Len(t, entry.Attributes, 2)
	assert.Equal(t, "objectClass", entry.Attributes[0].Type)
	assert.Equal(t, [][]byte{[]byte("top"), []byte("domain")}, entry.Attributes[0].Values)
}

func TestRoundTripSearchResultReference(t *testing.T) {
	msg := &message.Message{
		MessageID: 4,
		Op: &message.SearchResultReference{
			URIs: []string{"ldap://dc1.example.com/dc=example,dc=com", "ldap://dc2.example.com/dc=example,dc=com"},
		},
	}
	roundTrip(t, msg)
}

func TestRoundTripModifyRequest(t *testing.T) {
	msg := &message.Message{
		MessageID: 5,
		Op: &message.ModifyRequest{
			Object: "cn=bob,dc=example,dc=com",
			Changes: []message.Change{
				{Operation: message.ModifyOperationAdd, Modification: message.Attribute{Type: "mail", Values: [][]byte{[]byte("bob@example.com")}}},
				{Operation: message.ModifyOperationDelete, Modification: message.Attribute{Type: "fax"}},
				{Operation: message.ModifyOperationIncrement, Modification: message.Attribute{Type: "loginCount", Values: [][]byte{[]byte("1")}}},
			},
		},
	}
	roundTrip(t, msg)
}

func TestRoundTripModifyRequestZeroChanges(t *testing.T) {
	// A ModifyRequest with zero modifications is valid.
	msg := &message.Message{
		MessageID: 5,
		Op:        &message.ModifyRequest{Object: "cn=bob,dc=example,dc=com"},
	}
	encoded := roundTrip(t, msg)

	decoded, _, err := Decode(encoded, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, decoded.Op.(*message.ModifyRequest).Changes)
}

func TestRoundTripAddRequest(t *testing.T) {
	msg := &message.Message{
		MessageID: 6,
		Op: &message.AddRequest{
			Entry: "cn=carol,dc=example,dc=com",
			Attributes: []message.Attribute{
				{Type: "objectClass", Values: [][]byte{[]byte("inetOrgPerson")}},
				{Type: "cn", Values: [][]byte{[]byte("carol")}},
			},
		},
	}
	roundTrip(t, msg)
}

func TestRoundTripDeleteRequestResponse(t *testing.T) {
	roundTrip(t, &message.Message{MessageID: 7, Op: &message.DeleteRequest{DN: "cn=carol,dc=example,dc=com"}})
	roundTrip(t, &message.Message{
		MessageID: 7,
		Op: &message.DeleteResponse{Result: message.LdapResult{
			ResultCode: message.ResultNoSuchObject, DiagnosticMessage: "no such entry",
		}},
	})
}

func TestRoundTripModifyDNRequestWithNewSuperior(t *testing.T) {
	newSuperior := message.DN("ou=people,dc=example,dc=com")
	msg := &message.Message{
		MessageID: 8,
		Op: &message.ModifyDNRequest{
			Entry:        "cn=carol,dc=example,dc=com",
			NewRDN:       "cn=carol2",
			DeleteOldRDN: true,
			NewSuperior:  &newSuperior,
		},
	}
	encoded := roundTrip(t, msg)

	decoded, _, err := Decode(encoded, DefaultOptions())
	require.NoError(t, err)
	m := decoded.Op.(*message.ModifyDNRequest)
	require.NotNil(t, m.NewSuperior)
	assert.Equal(t, newSuperior, *m.NewSuperior)
}

func TestRoundTripModifyDNRequestWithoutNewSuperior(t *testing.T) {
	msg := &message.Message{
		MessageID: 8,
		Op: &message.ModifyDNRequest{
			Entry:        "cn=carol,dc=example,dc=com",
			NewRDN:       "cn=carol2",
			DeleteOldRDN: false,
		},
	}
	encoded := roundTrip(t, msg)
	decoded, _, err := Decode(encoded, DefaultOptions())
	require.NoError(t, err)
	assert.Nil(t, decoded.Op.(*message.ModifyDNRequest).NewSuperior)
}

func TestRoundTripCompareRequestResponse(t *testing.T) {
	msg := &message.Message{
		MessageID: 9,
		Op: &message.CompareRequest{
			Entry: "cn=carol,dc=example,dc=com",
			AVA:   message.AttributeValueAssertion{Attribute: "mail", Value: []byte("carol@example.com")},
		},
	}
	roundTrip(t, msg)

	resp := &message.Message{
		MessageID: 9,
		Op:        &message.CompareResponse{Result: message.LdapResult{ResultCode: message.ResultCompareTrue}},
	}
	roundTrip(t, resp)
}

func TestRoundTripAbandonRequest(t *testing.T) {
	roundTrip(t, &message.Message{MessageID: 10, Op: &message.AbandonRequest{MessageID: 3}})
}

func TestRoundTripExtendedRequestResponse(t *testing.T) {
	roundTrip(t, &message.Message{
		MessageID: 11,
		Op:        &message.ExtendedRequest{Name: "1.3.6.1.4.1.1466.20037", Value: []byte{0x01, 0x02}},
	})
	roundTrip(t, &message.Message{MessageID: 11, Op: &message.ExtendedRequest{Name: "1.3.6.1.4.1.1466.20037"}})

	name := "1.3.6.1.4.1.1466.20037"
	roundTrip(t, &message.Message{
		MessageID: 11,
		Op: &message.ExtendedResponse{
			Result: message.LdapResult{ResultCode: message.ResultSuccess},
			Name:   &name,
			Value:  []byte{0xAA},
		},
	})
	roundTrip(t, &message.Message{
		MessageID: 11,
		Op:        &message.ExtendedResponse{Result: message.LdapResult{ResultCode: message.ResultSuccess}},
	})
}

func TestRoundTripIntermediateResponse(t *testing.T) {
	name := "1.3.6.1.4.1.4203.1.9.1.4"
	roundTrip(t, &message.Message{
		MessageID: 12,
		Op:        &message.IntermediateResponse{Name: &name, Value: []byte("sync-refresh")},
	})
	roundTrip(t, &message.Message{MessageID: 12, Op: &message.IntermediateResponse{}})
}

func TestRoundTripBindRequestSASL(t *testing.T) {
	msg := &message.Message{
		MessageID: 13,
		Op: &message.BindRequest{
			Version:    3,
			Name:       "",
			AuthMethod: message.AuthMethodSASL,
			SASLCredentials: &message.SASLCredentials{
				Mechanism:   "DIGEST-MD5",
				Credentials: []byte{0x01, 0x02, 0x03},
			},
		},
	}
	encoded := roundTrip(t, msg)

	decoded, _, err := Decode(encoded, DefaultOptions())
	require.NoError(t, err)
	b := decoded.Op.(*message.BindRequest)
	require.NotNil(t, b.SASLCredentials)
	assert.Equal(t, "DIGEST-MD5", b.SASLCredentials.Mechanism)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, b.SASLCredentials.Credentials)
}

func TestRoundTripBindResponseWithServerSASLCreds(t *testing.T) {
	msg := &message.Message{
		MessageID: 14,
		Op: &message.BindResponse{
			Result:          message.LdapResult{ResultCode: message.ResultSuccess},
			ServerSASLCreds: []byte{0xAB, 0xCD},
		},
	}
	roundTrip(t, msg)
}

func TestRoundTripLdapResultWithReferral(t *testing.T) {
	msg := &message.Message{
		MessageID: 15,
		Op: &message.SearchResultDone{Result: message.LdapResult{
			ResultCode: message.ResultReferral,
			Referral:   []string{"ldap://other.example.com/dc=example,dc=com"},
		}},
	}
	encoded := roundTrip(t, msg)
	decoded, _, err := Decode(encoded, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"ldap://other.example.com/dc=example,dc=com"}, decoded.Op.(*message.SearchResultDone).Result.Referral)
}

func TestRoundTripAllFilterKinds(t *testing.T) {
	filters := []message.Filter{
		&message.AndFilter{Children: []message.Filter{
			&message.PresentFilter{Type: "objectClass"},
			&message.EqualityMatchFilter{Type: "cn", Value: []byte("bob")},
		}},
		&message.OrFilter{Children: []message.Filter{
			&message.GreaterOrEqualFilter{Type: "age", Value: []byte("21")},
			&message.LessOrEqualFilter{Type: "age", Value: []byte("65")},
		}},
		&message.NotFilter{Child: &message.ApproxMatchFilter{Type: "sn", Value: []byte("Smyth")}},
		&message.SubstringsFilter{
			Type: "cn", Initial: []byte("b"), HasInitial: true,
			Any: [][]byte{[]byte("o"), []byte("b")}, Final: []byte("y"), HasFinal: true,
		},
		&message.SubstringsFilter{Type: "cn", Any: [][]byte{[]byte("mid")}},
		&message.ExtensibleMatchFilter{
			MatchingRule: "caseIgnoreMatch", Type: "cn", MatchValue: []byte("bob"), DNAttributes: true,
		},
		&message.ExtensibleMatchFilter{MatchValue: []byte("bob")},
	}

	for i, f := range filters {
		msg := &message.Message{
			MessageID: int32(20 + i),
			Op: &message.SearchRequest{
				BaseObject: "dc=example,dc=com",
				Scope:      message.ScopeWholeSubtree,
				Filter:     f,
			},
		}
		roundTrip(t, msg)
	}
}

func TestRoundTripWithMultipleOrderedControls(t *testing.T) {
	cl := message.NewControlList()
	cl.Add(message.Control{OID: OIDPagedResults, Critical: true, Payload: &PagedResultsValue{Size: 50, Cookie: []byte("abc")}})
	cl.Add(message.Control{OID: "1.2.840.113556.1.4.473", Value: []byte{0x30, 0x03, 0x02, 0x01, 0x01}})

	msg := &message.Message{MessageID: 30, Op: &message.UnbindRequest{}, Controls: cl}
	encoded := roundTrip(t, msg)

	decoded, _, err := Decode(encoded, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 2, decoded.Controls.Len())

	all := decoded.Controls.All()
	assert.Equal(t, OIDPagedResults, all[0].OID)
	assert.True(t, all[0].Critical)
	payload, ok := all[0].Payload.(*PagedResultsValue)
	require.True(t, ok)
	assert.Equal(t, uint32(50), payload.Size)
	assert.Equal(t, []byte("abc"), payload.Cookie)

	assert.Equal(t, "1.2.840.113556.1.4.473", all[1].OID)
	assert.False(t, all[1].Critical)
}

func TestLengthComputationIsIdempotent(t *testing.T) {
	msg := &message.Message{
		MessageID: 2,
		Op: &message.SearchRequest{
			BaseObject: "dc=example,dc=com",
			Scope:      message.ScopeWholeSubtree,
			Filter:     &message.PresentFilter{Type: "objectClass"},
			Attributes: []string{"cn", "mail"},
		},
	}
	require.NoError(t, ComputeLengths(msg, DefaultOptions()))
	first := msg.MessageLength
	require.NoError(t, ComputeLengths(msg, DefaultOptions()))
	assert.Equal(t, first, msg.MessageLength)
}

func TestTrimMatchedDNIsOptIn(t *testing.T) {
	msg := &message.Message{
		MessageID: 1,
		Op: &message.BindResponse{Result: message.LdapResult{
			ResultCode: message.ResultSuccess, MatchedDN: "  dc=example,dc=com",
		}},
	}

	plain, err := Encode(msg, DefaultOptions())
	require.NoError(t, err)
	decodedPlain, _, err := Decode(plain, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, message.DN("  dc=example,dc=com"), decodedPlain.Op.(*message.BindResponse).Result.MatchedDN)

	opts := DefaultOptions()
	opts.TrimMatchedDN = true
	trimmed, err := Encode(msg, opts)
	require.NoError(t, err)
	decodedTrimmed, _, err := Decode(trimmed, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, message.DN("dc=example,dc=com"), decodedTrimmed.Op.(*message.BindResponse).Result.MatchedDN)

	// The source object itself must never be mutated by encoding.
	assert.Equal(t, message.DN("  dc=example,dc=com"), msg.Op.(*message.BindResponse).Result.MatchedDN)
}
