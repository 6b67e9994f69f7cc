package message

// AddRequest is RFC 4511 §4.7.
//
// AddRequest ::= [APPLICATION 8] SEQUENCE {
//	entry           LDAPDN,
//	attributes      AttributeList
// }
type AddRequest struct {
	bodyLength
	Entry      DN
	Attributes []Attribute

	EntryLen       int
	AttributesLen  int
}

func (*AddRequest) Tag() int { return TagAddRequest }

// AddResponse is `[APPLICATION 9] LDAPResult`.
type AddResponse struct {
	bodyLength
	Result LdapResult
}

func (*AddResponse) Tag() int { return TagAddResponse }
