package message

// ContextTagNewSuperior is the [0] newSuperior field of ModifyDNRequest.
const ContextTagNewSuperior = 0

// ModifyDNRequest is RFC 4511 §4.9.
//
// ModifyDNRequest ::= [APPLICATION 12] SEQUENCE {
//	entry           LDAPDN,
//	newrdn          RelativeLDAPDN,
//	deleteoldrdn    BOOLEAN,
//	newSuperior     [0] LDAPDN OPTIONAL
// }
type ModifyDNRequest struct {
	bodyLength
	Entry        DN
	NewRDN       string
	DeleteOldRDN bool
	NewSuperior  *DN // nil if absent

	EntryLen       int
	NewRDNLen      int
	NewSuperiorLen int
}

func (*ModifyDNRequest) Tag() int { return TagModifyDNRequest }

// ModifyDNResponse is `[APPLICATION 13] LDAPResult`.
type ModifyDNResponse struct {
	bodyLength
	Result LdapResult
}

func (*ModifyDNResponse) Tag() int { return TagModifyDNResponse }
