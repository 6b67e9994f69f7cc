package codec

import (
	"github.com/oba-ldap/ldapcodec/ber"
	"github.com/oba-ldap/ldapcodec/message"
)

// ComputeLengths is the length computer: a post-order walk over msg
// that annotates every nested structure with its exact serialized
// length before anything is written. Encode calls this and then runs
// the forward write pass (writeOp and its helpers) back-to-back and
// must not be interrupted between the two.
func ComputeLengths(msg *message.Message, opts Options) error {
	if msg.Op == nil {
		return &EncoderError{MessageID: msg.MessageID, Kind: EncoderInvalidState, Reason: "message has no protocol operation"}
	}

	opTLVLen, err := computeOpLen(msg.Op, opts)
	if err != nil {
		return err
	}

	controlsContentLen, err := computeControlsLen(msg.Controls)
	if err != nil {
		return err
	}
	msg.ControlsLength = controlsContentLen

	total := ber.TLVLen(ber.TagInteger, intContentLen(int64(msg.MessageID))) + opTLVLen
	if msg.Controls != nil && msg.Controls.Len() > 0 {
		total += ber.TLVLen(message.ContextTagControls, controlsContentLen)
	}
	msg.MessageLength = total
	return nil
}

// intContentLen is the number of content octets EncodeSignedInt(v)
// produces, i.e. the length field of an INTEGER/ENUMERATED TLV.
func intContentLen(v int64) int {
	return len(ber.EncodeSignedInt(v))
}

// effectiveMatchedDN applies the TrimMatchedDN option without
// mutating the caller's message.
func effectiveMatchedDN(r *message.LdapResult, opts Options) string {
	if opts.TrimMatchedDN {
		return string(r.MatchedDN.TrimLeadingSpace())
	}
	return string(r.MatchedDN)
}

func computeResultLen(r *message.LdapResult, opts Options) int {
	matchedDN := effectiveMatchedDN(r, opts)
	r.MatchedDNLen = len(matchedDN)
	r.DiagnosticLen = len(r.DiagnosticMessage)

	refContent := 0
	for _, uri := range r.Referral {
		refContent += ber.TLVLen(ber.TagOctetString, len(uri))
	}
	r.ReferralsLength = refContent

	body := ber.TLVLen(ber.TagEnumerated, intContentLen(int64(r.ResultCode))) +
		ber.TLVLen(ber.TagOctetString, r.MatchedDNLen) +
		ber.TLVLen(ber.TagOctetString, r.DiagnosticLen)
	if len(r.Referral) > 0 {
		body += ber.TLVLen(message.ContextTagReferral, refContent)
	}
	r.BodyLength = body
	return body
}

func computeAttributeLen(a *message.Attribute) int {
	a.TypeLen = len(a.Type)
	valuesContent := 0
	for _, v := range a.Values {
		valuesContent += ber.TLVLen(ber.TagOctetString, len(v))
	}
	a.ValuesLen = valuesContent
	body := ber.TLVLen(ber.TagOctetString, a.TypeLen) + ber.TLVLen(ber.TagSet, valuesContent)
	a.BodyLength = body
	return ber.TLVLen(ber.TagSequence, body)
}

func computePartialAttributeLen(a *message.PartialAttribute) int {
	a.TypeLen = len(a.Type)
	valuesContent := 0
	for _, v := range a.Values {
		valuesContent += ber.TLVLen(ber.TagOctetString, len(v))
	}
	a.ValuesLen = valuesContent
	body := ber.TLVLen(ber.TagOctetString, a.TypeLen) + ber.TLVLen(ber.TagSet, valuesContent)
	a.BodyLength = body
	return ber.TLVLen(ber.TagSequence, body)
}

func computeChangeLen(c *message.Change) int {
	modTLV := computeAttributeLen(&c.Modification)
	body := ber.TLVLen(ber.TagEnumerated, intContentLen(int64(c.Operation))) + modTLV
	c.BodyLength = body
	return ber.TLVLen(ber.TagSequence, body)
}

// computeFilterLen is the post-order walk over a filter tree. It sets
// each node's cached BodyLength and returns the node's total TLV
// length including its own context-tag header.
func computeFilterLen(f message.Filter) int {
	switch v := f.(type) {
	case *message.AndFilter:
		content := 0
		for _, c := range v.Children {
			content += computeFilterLen(c)
		}
		v.SetBodyLength(content)
		return ber.TLVLen(message.FilterTagAnd, content)

	case *message.OrFilter:
		content := 0
		for _, c := range v.Children {
			content += computeFilterLen(c)
		}
		v.SetBodyLength(content)
		return ber.TLVLen(message.FilterTagOr, content)

	case *message.NotFilter:
		content := computeFilterLen(v.Child)
		v.SetBodyLength(content)
		return ber.TLVLen(message.FilterTagNot, content)

	case *message.EqualityMatchFilter:
		return computeAVAFilterLen(v, message.FilterTagEqualityMatch, v.Type, v.Value)
	case *message.GreaterOrEqualFilter:
		return computeAVAFilterLen(v, message.FilterTagGreaterOrEqual, v.Type, v.Value)
	case *message.LessOrEqualFilter:
		return computeAVAFilterLen(v, message.FilterTagLessOrEqual, v.Type, v.Value)
	case *message.ApproxMatchFilter:
		return computeAVAFilterLen(v, message.FilterTagApproxMatch, v.Type, v.Value)

	case *message.PresentFilter:
		content := len(v.Type)
		v.SetBodyLength(content)
		return ber.TLVLen(message.FilterTagPresent, content)

	case *message.SubstringsFilter:
		typeTLV := ber.TLVLen(ber.TagOctetString, len(v.Type))
		subContent := 0
		if v.HasInitial {
			subContent += ber.TLVLen(message.SubstringTagInitial, len(v.Initial))
		}
		for _, any := range v.Any {
			subContent += ber.TLVLen(message.SubstringTagAny, len(any))
		}
		if v.HasFinal {
			subContent += ber.TLVLen(message.SubstringTagFinal, len(v.Final))
		}
		subSeqTLV := ber.TLVLen(ber.TagSequence, subContent)
		content := typeTLV + subSeqTLV
		v.SetBodyLength(content)
		return ber.TLVLen(message.FilterTagSubstrings, content)

	case *message.ExtensibleMatchFilter:
		content := 0
		if v.MatchingRule != "" {
			content += ber.TLVLen(message.ExtensibleMatchTagRule, len(v.MatchingRule))
		}
		if v.Type != "" {
			content += ber.TLVLen(message.ExtensibleMatchTagType, len(v.Type))
		}
		content += ber.TLVLen(message.ExtensibleMatchTagValue, len(v.MatchValue))
		if v.DNAttributes {
			content += ber.TLVLen(message.ExtensibleMatchTagDNAttributes, 1)
		}
		v.SetBodyLength(content)
		return ber.TLVLen(message.FilterTagExtensibleMatch, content)

	default:
		return 0
	}
}

func computeAVAFilterLen(f message.Filter, tag int, typ string, value []byte) int {
	content := ber.TLVLen(ber.TagOctetString, len(typ)) + ber.TLVLen(ber.TagOctetString, len(value))
	f.SetBodyLength(content)
	return ber.TLVLen(tag, content)
}

func computeControlsLen(cl *message.ControlList) (int, error) {
	if cl == nil || cl.Len() == 0 {
		return 0, nil
	}
	total := 0
	for _, c := range cl.All() {
		value, hasValue, err := controlValueBytes(c)
		if err != nil {
			return 0, &EncoderError{Kind: EncoderInvalidState, Reason: "control " + c.OID + " payload encode failed", Err: err}
		}
		body := ber.TLVLen(ber.TagOctetString, len(c.OID))
		if c.Critical {
			body += ber.TLVLen(ber.TagBoolean, 1)
		}
		if hasValue {
			body += ber.TLVLen(ber.TagOctetString, len(value))
		}
		c.BodyLength = body
		total += ber.TLVLen(ber.TagSequence, body)
	}
	return total, nil
}

func controlValueBytes(c *message.Control) ([]byte, bool, error) {
	if c.Payload != nil {
		b, err := c.Payload.EncodeValue()
		return b, true, err
	}
	if c.Value != nil {
		return c.Value, true, nil
	}
	return nil, false, nil
}

// computeOpLen dispatches on msg.Op's concrete type: length
// computation and encoding are dispatch tables keyed by the
// discriminant rather than a class hierarchy.
func computeOpLen(op message.Op, opts Options) (int, error) {
	switch v := op.(type) {
	case *message.BindRequest:
		return computeBindRequestLen(v), nil
	case *message.BindResponse:
		return computeBindResponseLen(v, opts), nil
	case *message.UnbindRequest:
		v.SetBodyLength(0)
		return ber.TLVLen(message.TagUnbindRequest, 0), nil
	case *message.SearchRequest:
		return computeSearchRequestLen(v), nil
	case *message.SearchResultEntry:
		return computeSearchResultEntryLen(v), nil
	case *message.SearchResultReference:
		content := 0
		for _, uri := range v.URIs {
			content += ber.TLVLen(ber.TagOctetString, len(uri))
		}
		v.SetBodyLength(content)
		return ber.TLVLen(message.TagSearchResultReference, content), nil
	case *message.SearchResultDone:
		body := computeResultLen(&v.Result, opts)
		v.SetBodyLength(body)
		return ber.TLVLen(message.TagSearchResultDone, body), nil
	case *message.ModifyRequest:
		return computeModifyRequestLen(v), nil
	case *message.ModifyResponse:
		body := computeResultLen(&v.Result, opts)
		v.SetBodyLength(body)
		return ber.TLVLen(message.TagModifyResponse, body), nil
	case *message.AddRequest:
		return computeAddRequestLen(v), nil
	case *message.AddResponse:
		body := computeResultLen(&v.Result, opts)
		v.SetBodyLength(body)
		return ber.TLVLen(message.TagAddResponse, body), nil
	case *message.DeleteRequest:
		body := len(v.DN)
		v.SetBodyLength(body)
		return ber.TLVLen(message.TagDeleteRequest, body), nil
	case *message.DeleteResponse:
		body := computeResultLen(&v.Result, opts)
		v.SetBodyLength(body)
		return ber.TLVLen(message.TagDeleteResponse, body), nil
	case *message.ModifyDNRequest:
		return computeModifyDNRequestLen(v), nil
	case *message.ModifyDNResponse:
		body := computeResultLen(&v.Result, opts)
		v.SetBodyLength(body)
		return ber.TLVLen(message.TagModifyDNResponse, body), nil
	case *message.CompareRequest:
		return computeCompareRequestLen(v), nil
	case *message.CompareResponse:
		body := computeResultLen(&v.Result, opts)
		v.SetBodyLength(body)
		return ber.TLVLen(message.TagCompareResponse, body), nil
	case *message.AbandonRequest:
		body := intContentLen(int64(v.MessageID))
		v.SetBodyLength(body)
		return ber.TLVLen(message.TagAbandonRequest, body), nil
	case *message.ExtendedRequest:
		return computeExtendedRequestLen(v), nil
	case *message.ExtendedResponse:
		return computeExtendedResponseLen(v, opts), nil
	case *message.IntermediateResponse:
		return computeIntermediateResponseLen(v), nil
	default:
		return 0, &EncoderError{Kind: EncoderUnknownOp, Reason: "unrecognized protocol operation type"}
	}
}

func computeBindRequestLen(b *message.BindRequest) int {
	b.NameLen = len(b.Name)
	body := ber.TLVLen(ber.TagInteger, intContentLen(int64(b.Version))) +
		ber.TLVLen(ber.TagOctetString, b.NameLen)

	switch b.AuthMethod {
	case message.AuthMethodSimple:
		body += ber.TLVLen(message.AuthTagSimple, len(b.SimplePassword))
	case message.AuthMethodSASL:
		sc := b.SASLCredentials
		sc.MechanismLen = len(sc.Mechanism)
		saslBody := ber.TLVLen(ber.TagOctetString, sc.MechanismLen)
		if sc.Credentials != nil {
			saslBody += ber.TLVLen(ber.TagOctetString, len(sc.Credentials))
		}
		sc.BodyLength = saslBody
		body += ber.TLVLen(message.AuthTagSASL, saslBody)
	}
	b.SetBodyLength(body)
	return ber.TLVLen(message.TagBindRequest, body)
}

func computeBindResponseLen(b *message.BindResponse, opts Options) int {
	body := computeResultLen(&b.Result, opts)
	if b.ServerSASLCreds != nil {
		body += ber.TLVLen(message.ContextTagServerSASLCreds, len(b.ServerSASLCreds))
	}
	b.SetBodyLength(body)
	return ber.TLVLen(message.TagBindResponse, body)
}

func computeSearchRequestLen(s *message.SearchRequest) int {
	s.BaseObjectLen = len(s.BaseObject)
	attrsContent := 0
	for _, a := range s.Attributes {
		attrsContent += ber.TLVLen(ber.TagOctetString, len(a))
	}
	s.AttributesLen = attrsContent

	filterTLV := 0
	if s.Filter != nil {
		filterTLV = computeFilterLen(s.Filter)
	}

	body := ber.TLVLen(ber.TagOctetString, s.BaseObjectLen) +
		ber.TLVLen(ber.TagEnumerated, intContentLen(int64(s.Scope))) +
		ber.TLVLen(ber.TagEnumerated, intContentLen(int64(s.DerefAliases))) +
		ber.TLVLen(ber.TagInteger, intContentLen(int64(s.SizeLimit))) +
		ber.TLVLen(ber.TagInteger, intContentLen(int64(s.TimeLimit))) +
		ber.TLVLen(ber.TagBoolean, 1) +
		filterTLV +
		ber.TLVLen(ber.TagSequence, attrsContent)
	s.SetBodyLength(body)
	return ber.TLVLen(message.TagSearchRequest, body)
}

func computeSearchResultEntryLen(e *message.SearchResultEntry) int {
	e.ObjectNameLen = len(e.ObjectName)
	attrsContent := 0
	for i := range e.Attributes {
		attrsContent += computePartialAttributeLen(&e.Attributes[i])
	}
	e.AttributesLen = attrsContent
	body := ber.TLVLen(ber.TagOctetString, e.ObjectNameLen) + ber.TLVLen(ber.TagSequence, attrsContent)
	e.SetBodyLength(body)
	return ber.TLVLen(message.TagSearchResultEntry, body)
}

func computeModifyRequestLen(m *message.ModifyRequest) int {
	m.ObjectLen = len(m.Object)
	changesContent := 0
	for i := range m.Changes {
		changesContent += computeChangeLen(&m.Changes[i])
	}
	m.ChangesLen = changesContent
	body := ber.TLVLen(ber.TagOctetString, m.ObjectLen) + ber.TLVLen(ber.TagSequence, changesContent)
	m.SetBodyLength(body)
	return ber.TLVLen(message.TagModifyRequest, body)
}

func computeAddRequestLen(a *message.AddRequest) int {
	a.EntryLen = len(a.Entry)
	attrsContent := 0
	for i := range a.Attributes {
		attrsContent += computeAttributeLen(&a.Attributes[i])
	}
	a.AttributesLen = attrsContent
	body := ber.TLVLen(ber.TagOctetString, a.EntryLen) + ber.TLVLen(ber.TagSequence, attrsContent)
	a.SetBodyLength(body)
	return ber.TLVLen(message.TagAddRequest, body)
}

func computeModifyDNRequestLen(m *message.ModifyDNRequest) int {
	m.EntryLen = len(m.Entry)
	m.NewRDNLen = len(m.NewRDN)
	body := ber.TLVLen(ber.TagOctetString, m.EntryLen) +
		ber.TLVLen(ber.TagOctetString, m.NewRDNLen) +
		ber.TLVLen(ber.TagBoolean, 1)
	if m.NewSuperior != nil {
		m.NewSuperiorLen = len(*m.NewSuperior)
		body += ber.TLVLen(message.ContextTagNewSuperior, m.NewSuperiorLen)
	}
	m.SetBodyLength(body)
	return ber.TLVLen(message.TagModifyDNRequest, body)
}

func computeCompareRequestLen(c *message.CompareRequest) int {
	c.EntryLen = len(c.Entry)
	c.AVA.AttributeLen = len(c.AVA.Attribute)
	avaBody := ber.TLVLen(ber.TagOctetString, c.AVA.AttributeLen) + ber.TLVLen(ber.TagOctetString, len(c.AVA.Value))
	c.AVA.BodyLength = avaBody
	body := ber.TLVLen(ber.TagOctetString, c.EntryLen) + ber.TLVLen(ber.TagSequence, avaBody)
	c.SetBodyLength(body)
	return ber.TLVLen(message.TagCompareRequest, body)
}

func computeExtendedRequestLen(e *message.ExtendedRequest) int {
	e.NameLen = len(e.Name)
	body := ber.TLVLen(message.ContextTagExtendedRequestName, e.NameLen)
	if e.Value != nil {
		body += ber.TLVLen(message.ContextTagExtendedRequestValue, len(e.Value))
	}
	e.SetBodyLength(body)
	return ber.TLVLen(message.TagExtendedRequest, body)
}

func computeExtendedResponseLen(e *message.ExtendedResponse, opts Options) int {
	body := computeResultLen(&e.Result, opts)
	if e.Name != nil {
		e.NameLen = len(*e.Name)
		body += ber.TLVLen(message.ContextTagExtendedResponseName, e.NameLen)
	}
	if e.Value != nil {
		body += ber.TLVLen(message.ContextTagExtendedResponseValue, len(e.Value))
	}
	e.SetBodyLength(body)
	return ber.TLVLen(message.TagExtendedResponse, body)
}

func computeIntermediateResponseLen(i *message.IntermediateResponse) int {
	body := 0
	if i.Name != nil {
		i.NameLen = len(*i.Name)
		body += ber.TLVLen(message.ContextTagIntermediateResponseName, i.NameLen)
	}
	if i.Value != nil {
		body += ber.TLVLen(message.ContextTagIntermediateResponseValue, len(i.Value))
	}
	i.SetBodyLength(body)
	return ber.TLVLen(message.TagIntermediateResponse, body)
}
