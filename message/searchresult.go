package message

// PartialAttribute is one (type, value set) pair of a
// SearchResultEntry. Per invariant I4, an entry's attribute types are
// unique; the codec surfaces a duplicate as a decode error rather than
// silently merging.
//
// PartialAttribute ::= SEQUENCE {
//	type       AttributeDescription,
//	vals       SET OF value AttributeValue
// }
type PartialAttribute struct {
	Type   string
	Values [][]byte

	// Transient length-computer fields.
	TypeLen    int
	ValuesLen  int // content length of the SET OF value
	BodyLength int
}

// SearchResultEntry is RFC 4511 §4.5.2.
//
// SearchResultEntry ::= [APPLICATION 4] SEQUENCE {
//	objectName      LDAPDN,
//	attributes      PartialAttributeList
// }
type SearchResultEntry struct {
	bodyLength
	ObjectName DN
	Attributes []PartialAttribute

	ObjectNameLen  int
	AttributesLen  int // content length of the PartialAttributeList SEQUENCE OF
}

func (*SearchResultEntry) Tag() int { return TagSearchResultEntry }

// SearchResultReference is RFC 4511 §4.5.3.
//
// SearchResultReference ::= [APPLICATION 19] SEQUENCE OF uri URI
type SearchResultReference struct {
	bodyLength
	URIs []string
}

func (*SearchResultReference) Tag() int { return TagSearchResultReference }

// SearchResultDone is RFC 4511 §4.5.2: `[APPLICATION 5] LDAPResult`.
type SearchResultDone struct {
	bodyLength
	Result LdapResult
}

func (*SearchResultDone) Tag() int { return TagSearchResultDone }
