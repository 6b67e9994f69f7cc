package codec

import (
	"github.com/oba-ldap/ldapcodec/ber"
	"github.com/oba-ldap/ldapcodec/message"
)

// Encode serializes msg into a single LDAPMessage PDU. It runs the
// length computer (ComputeLengths) and the forward write pass
// back-to-back — callers never see a msg with only one of the two
// passes applied.
func Encode(msg *message.Message, opts Options) ([]byte, error) {
	if err := ComputeLengths(msg, opts); err != nil {
		opts.Logger.Error("ldapcodec: length computation failed for id=%d: %v", msg.MessageID, err)
		return nil, err
	}

	w := newWriter(ber.TLVLen(ber.TagSequence, msg.MessageLength))
	w.universalHeader(ber.TagSequence, true, msg.MessageLength)
	writeUniversalInt(w, ber.TagInteger, int64(msg.MessageID))

	if err := writeOp(w, msg.Op, opts); err != nil {
		opts.Logger.Error("ldapcodec: encode failed for id=%d: %v", msg.MessageID, err)
		return nil, err
	}

	if msg.Controls != nil && msg.Controls.Len() > 0 {
		if err := writeControls(w, msg.Controls, msg.ControlsLength); err != nil {
			werr := &EncoderError{MessageID: msg.MessageID, Kind: EncoderInvalidState, Reason: "failed writing controls", Err: err}
			opts.Logger.Error("ldapcodec: %v", werr)
			return nil, werr
		}
	}

	if w.overflowed() {
		werr := &EncoderError{MessageID: msg.MessageID, Kind: EncoderOverflow, Reason: "write pass exceeded the length computer's prediction"}
		opts.Logger.Error("ldapcodec: %v", werr)
		return nil, werr
	}
	opts.Logger.Debug("ldapcodec: encoded message id=%d op=%T (%d bytes)", msg.MessageID, msg.Op, len(w.buf))
	return w.buf, nil
}

func writeUniversalInt(w *writer, tag int, v int64) {
	w.tlv(tag, false, ber.EncodeSignedInt(v))
}

func writeOctetString(w *writer, s string) {
	w.tlv(ber.TagOctetString, false, []byte(s))
}

func writeOctetStringBytes(w *writer, b []byte) {
	w.tlv(ber.TagOctetString, false, b)
}

func writeBoolean(w *writer, v bool) {
	w.tlv(ber.TagBoolean, false, []byte{ber.EncodeBoolean(v)})
}

func writeControls(w *writer, cl *message.ControlList, contentLen int) error {
	w.contextConstructedHeader(message.ContextTagControls, contentLen)
	for _, c := range cl.All() {
		if err := writeControl(w, c); err != nil {
			return err
		}
	}
	return nil
}

func writeControl(w *writer, c *message.Control) error {
	w.universalHeader(ber.TagSequence, true, c.BodyLength)
	writeOctetString(w, c.OID)
	if c.Critical {
		writeBoolean(w, true)
	}
	value, hasValue, err := controlValueBytes(c)
	if err != nil {
		return err
	}
	if hasValue {
		writeOctetStringBytes(w, value)
	}
	return nil
}

func writeResult(w *writer, r *message.LdapResult, opts Options) {
	writeUniversalInt(w, ber.TagEnumerated, int64(r.ResultCode))
	writeOctetString(w, effectiveMatchedDN(r, opts))
	writeOctetString(w, r.DiagnosticMessage)
	if len(r.Referral) > 0 {
		w.contextConstructedHeader(message.ContextTagReferral, r.ReferralsLength)
		for _, uri := range r.Referral {
			writeOctetString(w, uri)
		}
	}
}

func writeAttributeLike(w *writer, typ string, values [][]byte, valuesLen int, body int) {
	w.universalHeader(ber.TagSequence, true, body)
	writeOctetString(w, typ)
	w.universalHeader(ber.TagSet, true, valuesLen)
	for _, v := range values {
		writeOctetStringBytes(w, v)
	}
}

func writeAttribute(w *writer, a *message.Attribute) {
	writeAttributeLike(w, a.Type, a.Values, a.ValuesLen, a.BodyLength)
}

func writePartialAttribute(w *writer, a *message.PartialAttribute) {
	writeAttributeLike(w, a.Type, a.Values, a.ValuesLen, a.BodyLength)
}

func writeChange(w *writer, c *message.Change) {
	w.universalHeader(ber.TagSequence, true, c.BodyLength)
	writeUniversalInt(w, ber.TagEnumerated, int64(c.Operation))
	writeAttribute(w, &c.Modification)
}

// writeOp dispatches on op's concrete type, mirroring computeOpLen's
// type switch exactly: every case here writes precisely the bytes the
// matching computeOpLen case sized.
func writeOp(w *writer, op message.Op, opts Options) error {
	switch v := op.(type) {
	case *message.BindRequest:
		writeBindRequest(w, v)
	case *message.BindResponse:
		writeBindResponse(w, v, opts)
	case *message.UnbindRequest:
		w.applicationHeader(message.TagUnbindRequest, false, 0)
	case *message.SearchRequest:
		writeSearchRequest(w, v)
	case *message.SearchResultEntry:
		writeSearchResultEntry(w, v)
	case *message.SearchResultReference:
		w.applicationHeader(message.TagSearchResultReference, true, v.BodyLength())
		for _, uri := range v.URIs {
			writeOctetString(w, uri)
		}
	case *message.SearchResultDone:
		w.applicationHeader(message.TagSearchResultDone, true, v.BodyLength())
		writeResult(w, &v.Result, opts)
	case *message.ModifyRequest:
		writeModifyRequest(w, v)
	case *message.ModifyResponse:
		w.applicationHeader(message.TagModifyResponse, true, v.BodyLength())
		writeResult(w, &v.Result, opts)
	case *message.AddRequest:
		writeAddRequest(w, v)
	case *message.AddResponse:
		w.applicationHeader(message.TagAddResponse, true, v.BodyLength())
		writeResult(w, &v.Result, opts)
	case *message.DeleteRequest:
		w.applicationHeader(message.TagDeleteRequest, false, v.BodyLength())
		w.bytes([]byte(v.DN))
	case *message.DeleteResponse:
		w.applicationHeader(message.TagDeleteResponse, true, v.BodyLength())
		writeResult(w, &v.Result, opts)
	case *message.ModifyDNRequest:
		writeModifyDNRequest(w, v)
	case *message.ModifyDNResponse:
		w.applicationHeader(message.TagModifyDNResponse, true, v.BodyLength())
		writeResult(w, &v.Result, opts)
	case *message.CompareRequest:
		writeCompareRequest(w, v)
	case *message.CompareResponse:
		w.applicationHeader(message.TagCompareResponse, true, v.BodyLength())
		writeResult(w, &v.Result, opts)
	case *message.AbandonRequest:
		w.applicationHeader(message.TagAbandonRequest, false, v.BodyLength())
		w.bytes(ber.EncodeSignedInt(int64(v.MessageID)))
	case *message.ExtendedRequest:
		writeExtendedRequest(w, v)
	case *message.ExtendedResponse:
		writeExtendedResponse(w, v, opts)
	case *message.IntermediateResponse:
		writeIntermediateResponse(w, v)
	default:
		return &EncoderError{Kind: EncoderUnknownOp, Reason: "unrecognized protocol operation type"}
	}
	return nil
}

func writeBindRequest(w *writer, b *message.BindRequest) {
	w.applicationHeader(message.TagBindRequest, true, b.BodyLength())
	writeUniversalInt(w, ber.TagInteger, int64(b.Version))
	writeOctetString(w, string(b.Name))
	switch b.AuthMethod {
	case message.AuthMethodSimple:
		w.contextPrimitive(message.AuthTagSimple, b.SimplePassword)
	case message.AuthMethodSASL:
		sc := b.SASLCredentials
		w.contextConstructedHeader(message.AuthTagSASL, sc.BodyLength)
		writeOctetString(w, sc.Mechanism)
		if sc.Credentials != nil {
			writeOctetStringBytes(w, sc.Credentials)
		}
	}
}

func writeBindResponse(w *writer, b *message.BindResponse, opts Options) {
	w.applicationHeader(message.TagBindResponse, true, b.BodyLength())
	writeResult(w, &b.Result, opts)
	if b.ServerSASLCreds != nil {
		w.contextPrimitive(message.ContextTagServerSASLCreds, b.ServerSASLCreds)
	}
}

func writeSearchRequest(w *writer, s *message.SearchRequest) {
	w.applicationHeader(message.TagSearchRequest, true, s.BodyLength())
	writeOctetString(w, string(s.BaseObject))
	writeUniversalInt(w, ber.TagEnumerated, int64(s.Scope))
	writeUniversalInt(w, ber.TagEnumerated, int64(s.DerefAliases))
	writeUniversalInt(w, ber.TagInteger, int64(s.SizeLimit))
	writeUniversalInt(w, ber.TagInteger, int64(s.TimeLimit))
	writeBoolean(w, s.TypesOnly)
	if s.Filter != nil {
		writeFilter(w, s.Filter)
	}
	w.universalHeader(ber.TagSequence, true, s.AttributesLen)
	for _, a := range s.Attributes {
		writeOctetString(w, a)
	}
}

func writeFilter(w *writer, f message.Filter) {
	switch v := f.(type) {
	case *message.AndFilter:
		w.contextConstructedHeader(message.FilterTagAnd, v.BodyLength())
		for _, c := range v.Children {
			writeFilter(w, c)
		}
	case *message.OrFilter:
		w.contextConstructedHeader(message.FilterTagOr, v.BodyLength())
		for _, c := range v.Children {
			writeFilter(w, c)
		}
	case *message.NotFilter:
		w.contextConstructedHeader(message.FilterTagNot, v.BodyLength())
		writeFilter(w, v.Child)
	case *message.EqualityMatchFilter:
		writeAVAFilter(w, message.FilterTagEqualityMatch, v.BodyLength(), v.Type, v.Value)
	case *message.GreaterOrEqualFilter:
		writeAVAFilter(w, message.FilterTagGreaterOrEqual, v.BodyLength(), v.Type, v.Value)
	case *message.LessOrEqualFilter:
		writeAVAFilter(w, message.FilterTagLessOrEqual, v.BodyLength(), v.Type, v.Value)
	case *message.ApproxMatchFilter:
		writeAVAFilter(w, message.FilterTagApproxMatch, v.BodyLength(), v.Type, v.Value)
	case *message.PresentFilter:
		w.contextPrimitive(message.FilterTagPresent, []byte(v.Type))
	case *message.SubstringsFilter:
		writeSubstringsFilter(w, v)
	case *message.ExtensibleMatchFilter:
		writeExtensibleMatchFilter(w, v)
	}
}

func writeAVAFilter(w *writer, tag int, bodyLen int, typ string, value []byte) {
	w.contextConstructedHeader(tag, bodyLen)
	writeOctetString(w, typ)
	writeOctetStringBytes(w, value)
}

func writeSubstringsFilter(w *writer, v *message.SubstringsFilter) {
	w.contextConstructedHeader(message.FilterTagSubstrings, v.BodyLength())
	writeOctetString(w, v.Type)

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
	w.universalHeader(ber.TagSequence, true, subContent)
	if v.HasInitial {
		w.contextPrimitive(message.SubstringTagInitial, v.Initial)
	}
	for _, any := range v.Any {
		w.contextPrimitive(message.SubstringTagAny, any)
	}
	if v.HasFinal {
		w.contextPrimitive(message.SubstringTagFinal, v.Final)
	}
}

func writeExtensibleMatchFilter(w *writer, v *message.ExtensibleMatchFilter) {
	w.contextConstructedHeader(message.FilterTagExtensibleMatch, v.BodyLength())
	if v.MatchingRule != "" {
		w.contextPrimitive(message.ExtensibleMatchTagRule, []byte(v.MatchingRule))
	}
	if v.Type != "" {
		w.contextPrimitive(message.ExtensibleMatchTagType, []byte(v.Type))
	}
	w.contextPrimitive(message.ExtensibleMatchTagValue, v.MatchValue)
	if v.DNAttributes {
		w.contextPrimitive(message.ExtensibleMatchTagDNAttributes, []byte{ber.EncodeBoolean(true)})
	}
}

func writeSearchResultEntry(w *writer, e *message.SearchResultEntry) {
	w.applicationHeader(message.TagSearchResultEntry, true, e.BodyLength())
	writeOctetString(w, string(e.ObjectName))
	w.universalHeader(ber.TagSequence, true, e.AttributesLen)
	for i := range e.Attributes {
		writePartialAttribute(w, &e.Attributes[i])
	}
}

func writeModifyRequest(w *writer, m *message.ModifyRequest) {
	w.applicationHeader(message.TagModifyRequest, true, m.BodyLength())
	writeOctetString(w, string(m.Object))
	w.universalHeader(ber.TagSequence, true, m.ChangesLen)
	for i := range m.Changes {
		writeChange(w, &m.Changes[i])
	}
}

func writeAddRequest(w *writer, a *message.AddRequest) {
	w.applicationHeader(message.TagAddRequest, true, a.BodyLength())
	writeOctetString(w, string(a.Entry))
	w.universalHeader(ber.TagSequence, true, a.AttributesLen)
	for i := range a.Attributes {
		writeAttribute(w, &a.Attributes[i])
	}
}

func writeModifyDNRequest(w *writer, m *message.ModifyDNRequest) {
	w.applicationHeader(message.TagModifyDNRequest, true, m.BodyLength())
	writeOctetString(w, string(m.Entry))
	writeOctetString(w, m.NewRDN)
	writeBoolean(w, m.DeleteOldRDN)
	if m.NewSuperior != nil {
		w.contextPrimitive(message.ContextTagNewSuperior, []byte(*m.NewSuperior))
	}
}

func writeCompareRequest(w *writer, c *message.CompareRequest) {
	w.applicationHeader(message.TagCompareRequest, true, c.BodyLength())
	writeOctetString(w, string(c.Entry))
	w.universalHeader(ber.TagSequence, true, c.AVA.BodyLength)
	writeOctetString(w, c.AVA.Attribute)
	writeOctetStringBytes(w, c.AVA.Value)
}

func writeExtendedRequest(w *writer, e *message.ExtendedRequest) {
	w.applicationHeader(message.TagExtendedRequest, true, e.BodyLength())
	w.contextPrimitive(message.ContextTagExtendedRequestName, []byte(e.Name))
	if e.Value != nil {
		w.contextPrimitive(message.ContextTagExtendedRequestValue, e.Value)
	}
}

func writeExtendedResponse(w *writer, e *message.ExtendedResponse, opts Options) {
	w.applicationHeader(message.TagExtendedResponse, true, e.BodyLength())
	writeResult(w, &e.Result, opts)
	if e.Name != nil {
		w.contextPrimitive(message.ContextTagExtendedResponseName, []byte(*e.Name))
	}
	if e.Value != nil {
		w.contextPrimitive(message.ContextTagExtendedResponseValue, e.Value)
	}
}

func writeIntermediateResponse(w *writer, i *message.IntermediateResponse) {
	w.applicationHeader(message.TagIntermediateResponse, true, i.BodyLength())
	if i.Name != nil {
		w.contextPrimitive(message.ContextTagIntermediateResponseName, []byte(*i.Name))
	}
	if i.Value != nil {
		w.contextPrimitive(message.ContextTagIntermediateResponseValue, i.Value)
	}
}
