package message

// IntermediateResponse is RFC 4511 §4.13. Like SearchResultEntry and
// SearchResultReference, it carries no LDAPResult.
//
// IntermediateResponse ::= [APPLICATION 25] SEQUENCE {
//	responseName     [0] LDAPOID OPTIONAL,
//	responseValue    [1] OCTET STRING OPTIONAL
// }
type IntermediateResponse struct {
	bodyLength
	Name  *string // nil if absent
	Value []byte  // nil if absent

	NameLen int
}

func (*IntermediateResponse) Tag() int { return TagIntermediateResponse }
