// Package message is the language-neutral LDAPv3 message model: the
// envelope, every ProtocolOp variant, controls, the LDAP result, the
// search filter tree, and the DN abstraction. It owns no encoding
// logic and no decoding logic — package codec walks these types to
// compute lengths, write bytes, and populate them from a wire stream.
package message

import "fmt"

// ProtocolOp application tags, RFC 4511 §4.2.
const (
	TagBindRequest           = 0
	TagBindResponse          = 1
	TagUnbindRequest         = 2
	TagSearchRequest         = 3
	TagSearchResultEntry     = 4
	TagSearchResultDone      = 5
	TagModifyRequest         = 6
	TagModifyResponse        = 7
	TagAddRequest            = 8
	TagAddResponse           = 9
	TagDeleteRequest         = 10
	TagDeleteResponse        = 11
	TagModifyDNRequest       = 12
	TagModifyDNResponse      = 13
	TagCompareRequest        = 14
	TagCompareResponse       = 15
	TagAbandonRequest        = 16
	TagSearchResultReference = 19
	TagExtendedRequest       = 23
	TagExtendedResponse      = 24
	TagIntermediateResponse  = 25
)

// OpName returns a human-readable name for an application tag, for use
// in diagnostics only.
func OpName(tag int) string {
	switch tag {
	case TagBindRequest:
		return "BindRequest"
	case TagBindResponse:
		return "BindResponse"
	case TagUnbindRequest:
		return "UnbindRequest"
	case TagSearchRequest:
		return "SearchRequest"
	case TagSearchResultEntry:
		return "SearchResultEntry"
	case TagSearchResultDone:
		return "SearchResultDone"
	case TagModifyRequest:
		return "ModifyRequest"
	case TagModifyResponse:
		return "ModifyResponse"
	case TagAddRequest:
		return "AddRequest"
	case TagAddResponse:
		return "AddResponse"
	case TagDeleteRequest:
		return "DeleteRequest"
	case TagDeleteResponse:
		return "DeleteResponse"
	case TagModifyDNRequest:
		return "ModifyDNRequest"
	case TagModifyDNResponse:
		return "ModifyDNResponse"
	case TagCompareRequest:
		return "CompareRequest"
	case TagCompareResponse:
		return "CompareResponse"
	case TagAbandonRequest:
		return "AbandonRequest"
	case TagSearchResultReference:
		return "SearchResultReference"
	case TagExtendedRequest:
		return "ExtendedRequest"
	case TagExtendedResponse:
		return "ExtendedResponse"
	case TagIntermediateResponse:
		return "IntermediateResponse"
	default:
		return fmt.Sprintf("Unknown(%d)", tag)
	}
}

// IsResponseTag reports whether tag identifies a response or
// unsolicited-notification ProtocolOp.
func IsResponseTag(tag int) bool {
	switch tag {
	case TagBindResponse, TagSearchResultEntry, TagSearchResultDone,
		TagModifyResponse, TagAddResponse, TagDeleteResponse,
		TagModifyDNResponse, TagCompareResponse, TagSearchResultReference,
		TagExtendedResponse, TagIntermediateResponse:
		return true
	default:
		return false
	}
}

// Context-specific tags used outside of any one operation's body.
const (
	// ContextTagControls is the LDAPMessage-level [0] Controls field.
	ContextTagControls = 0
	// ContextTagReferral is the LDAPResult [3] referral field.
	ContextTagReferral = 3
	// ContextTagServerSASLCreds is the BindResponse [7] field.
	ContextTagServerSASLCreds = 7
)
