package message

// DeleteRequest is RFC 4511 §4.8: `[APPLICATION 10] LDAPDN`.
type DeleteRequest struct {
	bodyLength
	DN DN
}

func (*DeleteRequest) Tag() int { return TagDeleteRequest }

// DeleteResponse is `[APPLICATION 11] LDAPResult`.
type DeleteResponse struct {
	bodyLength
	Result LdapResult
}

func (*DeleteResponse) Tag() int { return TagDeleteResponse }
