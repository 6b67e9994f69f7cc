package message

// AttributeValueAssertion is the (attribute, value) pair compared by a
// CompareRequest. Filter comparison nodes carry the same pair in their
// own Type and Value fields instead of using this type.
type AttributeValueAssertion struct {
	Attribute string
	Value     []byte

	AttributeLen int
	BodyLength   int
}

// CompareRequest is RFC 4511 §4.10.
//
// CompareRequest ::= [APPLICATION 14] SEQUENCE {
//	entry           LDAPDN,
//	ava             AttributeValueAssertion
// }
type CompareRequest struct {
	bodyLength
	Entry DN
	AVA   AttributeValueAssertion

	EntryLen int
}

func (*CompareRequest) Tag() int { return TagCompareRequest }

// CompareResponse is `[APPLICATION 15] LDAPResult`.
type CompareResponse struct {
	bodyLength
	Result LdapResult
}

func (*CompareResponse) Tag() int { return TagCompareResponse }
