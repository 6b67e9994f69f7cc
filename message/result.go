package message

// LdapResult is embedded in every LDAP response except
// SearchResultEntry, SearchResultReference and IntermediateResponse
// (RFC 4511 §4.1.9).
type LdapResult struct {
	ResultCode        ResultCode
	MatchedDN         DN
	DiagnosticMessage string
	Referral          []string // ordered list of LDAP URLs; nil if absent

	// Transient fields populated by the length computer: the content
	// length of matchedDN and diagnosticMessage as UTF-8,
	// and the content length of the [3] referral SEQUENCE (0 if
	// Referral is nil/empty).
	MatchedDNLen    int
	DiagnosticLen   int
	ReferralsLength int
	// BodyLength is the total content length of this LDAPResult's
	// fields (resultCode + matchedDN + diagnosticMessage + optional
	// referral), i.e. what a containing SEQUENCE/ProtocolOp adds to its
	// own length for this embedded result.
	BodyLength int
}
