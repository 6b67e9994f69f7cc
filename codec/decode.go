package codec

import (
	"github.com/oba-ldap/ldapcodec/ber"
	"github.com/oba-ldap/ldapcodec/message"
)

// Decoder is the streaming container: it buffers fed bytes until a
// whole LDAPMessage PDU is available, then hands that fixed-size
// buffer to the grammar for a single bounds-checked recursive-descent
// parse. This gives fragment tolerance and split-independent decoding
// without a persistent byte-by-byte state machine: a PDU's own outer
// length tells the container exactly how many bytes to wait for.
type Decoder struct {
	opts  Options
	buf   []byte
	queue []*message.Message
	err   error
}

// NewDecoder returns a Decoder configured by opts.
func NewDecoder(opts Options) *Decoder {
	return &Decoder{opts: opts}
}

// Feed appends data to the decoder's input and decodes as many whole
// messages as are now available; decoded messages are retrieved with
// NextMessage. Once Feed returns a non-nil error the decoder is
// poisoned: every subsequent Feed call returns that same error, and
// NextMessage reports no message (nil, false), including for messages
// queued before the error; NextMessage itself has no error result.
// Feed never returns DecoderTruncatedInput; every kind it does return
// is fatal for the stream.
func (d *Decoder) Feed(data []byte) error {
	if d.err != nil {
		return d.err
	}
	d.buf = append(d.buf, data...)
	for {
		msg, consumed, err := d.tryDecodeOne()
		if err != nil {
			d.opts.Logger.Error("ldapcodec: decode failed, poisoning stream: %v", err)
			d.err = err
			return err
		}
		if consumed == 0 {
			return nil
		}
		d.opts.Logger.Debug("ldapcodec: decoded message id=%d op=%T (%d bytes)", msg.MessageID, msg.Op, consumed)
		d.queue = append(d.queue, msg)
		d.buf = d.buf[consumed:]
	}
}

// NextMessage pops the oldest fully-decoded message still queued, if
// any.
func (d *Decoder) NextMessage() (*message.Message, bool) {
	if d.err != nil || len(d.queue) == 0 {
		return nil, false
	}
	msg := d.queue[0]
	d.queue = d.queue[1:]
	return msg, true
}

// Decode is a convenience one-shot decode of exactly one LDAPMessage
// from data. It returns the decoded message and whatever bytes of data
// were left unconsumed.
func Decode(data []byte, opts Options) (*message.Message, []byte, error) {
	d := NewDecoder(opts)
	d.buf = data
	msg, consumed, err := d.tryDecodeOne()
	if err != nil {
		opts.Logger.Error("ldapcodec: decode failed: %v", err)
		return nil, nil, err
	}
	if consumed == 0 {
		return nil, data, &DecoderError{MessageID: -1, Kind: DecoderTruncatedInput, State: "message"}
	}
	opts.Logger.Debug("ldapcodec: decoded message id=%d op=%T (%d bytes)", msg.MessageID, msg.Op, consumed)
	return msg, data[consumed:], nil
}

// tryDecodeOne attempts to peel one whole LDAPMessage PDU off the
// front of d.buf. consumed == 0 with a nil error means the buffer does
// not yet hold a whole PDU; the caller should wait for more bytes via
// Feed.
func (d *Decoder) tryDecodeOne() (*message.Message, int, error) {
	var tok ber.Tokenizer
	tlv, ok, err := tok.PeekHeader(d.buf)
	if err != nil {
		return nil, 0, &DecoderError{MessageID: -1, Kind: mapTokenizerErrKind(err), State: "message", Err: err}
	}
	if !ok {
		return nil, 0, nil
	}
	if tlv.Class != ber.ClassUniversal || !tlv.Constructed || tlv.Tag != ber.TagSequence {
		return nil, 0, &DecoderError{MessageID: -1, Kind: DecoderUnexpectedTag, State: "message", Tag: tlv.Tag}
	}
	if uint32(tlv.Length) > d.opts.effectiveMaxPDUSize() {
		return nil, 0, &DecoderError{MessageID: -1, Kind: DecoderMaxPduExceeded, State: "message"}
	}

	total := tlv.End(0)
	if len(d.buf) < total {
		return nil, 0, nil
	}

	content := d.buf[tlv.HeaderLen:total]
	msg, err := decodeMessage(content, d.opts)
	if err != nil {
		return nil, 0, err
	}
	return msg, total, nil
}

func mapTokenizerErrKind(err error) DecoderErrorKind {
	switch err {
	case ber.ErrIndefiniteLength, ber.ErrLengthOutOfRange:
		return DecoderLengthOutOfRange
	default:
		return DecoderGrammarError
	}
}

// decodeState is a bounds-checked cursor over one container's content
// bytes — either a whole LDAPMessage body or a nested field's content.
// Every peekTLV call is bounds-checked against the end of buf, which is
// how TruncatedContainer (a declared length promising bytes the
// container doesn't have) is detected: buf itself is sized exactly to
// the parent's declared length, so a child TLV whose
// declared end overruns buf can only mean the peer lied about a length
// somewhere.
type decodeState struct {
	buf   []byte
	pos   int
	opts  Options
	msgID int32
}

func (s *decodeState) remaining() []byte { return s.buf[s.pos:] }

func (s *decodeState) contentOf(tlv ber.TLV) []byte {
	start := s.pos + tlv.HeaderLen
	return s.buf[start : start+tlv.Length]
}

func (s *decodeState) advance(tlv ber.TLV) {
	s.pos += tlv.HeaderLen + tlv.Length
}

// peekTLV reads the next TLV header at the cursor. It never reports
// "need more bytes" — by the time a decodeState exists, its entire buf
// is already in hand — so any header that doesn't fit, or whose
// declared length overruns buf, is DecoderTruncatedContainer.
func (s *decodeState) peekTLV(state string) (ber.TLV, error) {
	var tok ber.Tokenizer
	tlv, ok, err := tok.PeekHeader(s.remaining())
	if err != nil {
		return ber.TLV{}, &DecoderError{MessageID: s.msgID, Kind: mapTokenizerErrKind(err), State: state, Err: err}
	}
	if !ok || tlv.End(0) > len(s.remaining()) {
		return ber.TLV{}, &DecoderError{MessageID: s.msgID, Kind: DecoderTruncatedContainer, State: state, Tag: tlv.Tag}
	}
	return tlv, nil
}

// peekNextTag is peekTLV for an OPTIONAL field: ok is false (with a nil
// error) only when the container has no more bytes at all, meaning the
// field is genuinely absent. If bytes remain but don't form a valid
// header, that is still a hard error — something must occupy every
// declared byte of a container.
func (s *decodeState) peekNextTag(state string) (ber.TLV, bool, error) {
	if s.pos >= len(s.buf) {
		return ber.TLV{}, false, nil
	}
	tlv, err := s.peekTLV(state)
	if err != nil {
		return ber.TLV{}, false, err
	}
	return tlv, true, nil
}

func unexpectedTag(s *decodeState, state string, tag int) error {
	return &DecoderError{MessageID: s.msgID, Kind: DecoderUnexpectedTag, State: state, Tag: tag}
}

func wrapIntErr(s *decodeState, err error, state string) error {
	return &DecoderError{MessageID: s.msgID, Kind: DecoderIntegerOutOfRange, State: state, Err: err}
}

func wrapStrErr(s *decodeState, err error, state string) error {
	return &DecoderError{MessageID: s.msgID, Kind: DecoderInvalidUTF8, State: state, Err: err}
}

func decodeStringField(content []byte, opts Options) (string, error) {
	return ber.DecodeUTF8(content, opts.StrictStringValidation)
}

// decodeMessage parses the body of one LDAPMessage SEQUENCE (messageID,
// protocolOp, optional controls) from content, which holds exactly that
// SEQUENCE's declared content bytes.
func decodeMessage(content []byte, opts Options) (*message.Message, error) {
	s := &decodeState{buf: content, opts: opts, msgID: -1}

	idTLV, err := s.peekTLV("messageID")
	if err != nil {
		return nil, err
	}
	if idTLV.Class != ber.ClassUniversal || idTLV.Tag != ber.TagInteger {
		return nil, unexpectedTag(s, "messageID", idTLV.Tag)
	}
	id, err := ber.DecodeBoundedInt(s.contentOf(idTLV))
	if err != nil {
		return nil, wrapIntErr(s, err, "messageID")
	}
	s.advance(idTLV)
	s.msgID = id

	opTLV, err := s.peekTLV("protocolOp")
	if err != nil {
		return nil, err
	}
	if opTLV.Class != ber.ClassApplication {
		return nil, unexpectedTag(s, "protocolOp", opTLV.Tag)
	}
	op, err := decodeOp(opTLV.Tag, s.contentOf(opTLV), opts, id)
	if err != nil {
		return nil, err
	}
	s.advance(opTLV)

	msg := &message.Message{MessageID: id, Op: op}

	if tlv, ok, err := s.peekNextTag("controls"); err != nil {
		return nil, err
	} else if ok {
		if tlv.Class != ber.ClassContextSpecific || tlv.Tag != message.ContextTagControls {
			return nil, unexpectedTag(s, "controls", tlv.Tag)
		}
		cl, err := decodeControls(s.contentOf(tlv), id)
		if err != nil {
			return nil, err
		}
		msg.Controls = cl
		s.advance(tlv)
	}

	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: id, Kind: DecoderGrammarError, State: "message"}
	}
	return msg, nil
}

// decodeOp dispatches on the ProtocolOp's APPLICATION tag number,
// mirroring computeOpLen/writeOp's type switches.
func decodeOp(tag int, content []byte, opts Options, msgID int32) (message.Op, error) {
	switch tag {
	case message.TagBindRequest:
		return decodeBindRequest(content, opts, msgID)
	case message.TagBindResponse:
		return decodeBindResponse(content, opts, msgID)
	case message.TagUnbindRequest:
		if len(content) != 0 {
			return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: "unbindRequest"}
		}
		return &message.UnbindRequest{}, nil
	case message.TagSearchRequest:
		return decodeSearchRequest(content, opts, msgID)
	case message.TagSearchResultEntry:
		return decodeSearchResultEntry(content, opts, msgID)
	case message.TagSearchResultReference:
		return decodeSearchResultReference(content, opts, msgID)
	case message.TagSearchResultDone:
		r, err := decodePureResultOp(content, opts, msgID, "searchResultDone")
		if err != nil {
			return nil, err
		}
		return &message.SearchResultDone{Result: r}, nil
	case message.TagModifyRequest:
		return decodeModifyRequest(content, opts, msgID)
	case message.TagModifyResponse:
		r, err := decodePureResultOp(content, opts, msgID, "modifyResponse")
		if err != nil {
			return nil, err
		}
		return &message.ModifyResponse{Result: r}, nil
	case message.TagAddRequest:
		return decodeAddRequest(content, opts, msgID)
	case message.TagAddResponse:
		r, err := decodePureResultOp(content, opts, msgID, "addResponse")
		if err != nil {
			return nil, err
		}
		return &message.AddResponse{Result: r}, nil
	case message.TagDeleteRequest:
		return decodeDeleteRequest(content, opts, msgID)
	case message.TagDeleteResponse:
		r, err := decodePureResultOp(content, opts, msgID, "deleteResponse")
		if err != nil {
			return nil, err
		}
		return &message.DeleteResponse{Result: r}, nil
	case message.TagModifyDNRequest:
		return decodeModifyDNRequest(content, opts, msgID)
	case message.TagModifyDNResponse:
		r, err := decodePureResultOp(content, opts, msgID, "modifyDNResponse")
		if err != nil {
			return nil, err
		}
		return &message.ModifyDNResponse{Result: r}, nil
	case message.TagCompareRequest:
		return decodeCompareRequest(content, opts, msgID)
	case message.TagCompareResponse:
		r, err := decodePureResultOp(content, opts, msgID, "compareResponse")
		if err != nil {
			return nil, err
		}
		return &message.CompareResponse{Result: r}, nil
	case message.TagAbandonRequest:
		return decodeAbandonRequest(content, msgID)
	case message.TagExtendedRequest:
		return decodeExtendedRequest(content, opts, msgID)
	case message.TagExtendedResponse:
		return decodeExtendedResponse(content, opts, msgID)
	case message.TagIntermediateResponse:
		return decodeIntermediateResponse(content, opts, msgID)
	default:
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderUnsupportedChoice, State: "protocolOp", Tag: tag}
	}
}

func decodeLdapResult(s *decodeState, state string) (message.LdapResult, error) {
	var r message.LdapResult

	codeTLV, err := s.peekTLV(state + ".resultCode")
	if err != nil {
		return r, err
	}
	if codeTLV.Tag != ber.TagEnumerated {
		return r, unexpectedTag(s, state+".resultCode", codeTLV.Tag)
	}
	code, err := ber.DecodeBoundedInt(s.contentOf(codeTLV))
	if err != nil {
		return r, wrapIntErr(s, err, state+".resultCode")
	}
	r.ResultCode = message.ResultCode(code)
	s.advance(codeTLV)

	dnTLV, err := s.peekTLV(state + ".matchedDN")
	if err != nil {
		return r, err
	}
	if dnTLV.Tag != ber.TagOctetString {
		return r, unexpectedTag(s, state+".matchedDN", dnTLV.Tag)
	}
	dn, err := decodeStringField(s.contentOf(dnTLV), s.opts)
	if err != nil {
		return r, wrapStrErr(s, err, state+".matchedDN")
	}
	r.MatchedDN = message.DN(dn)
	s.advance(dnTLV)

	diagTLV, err := s.peekTLV(state + ".diagnosticMessage")
	if err != nil {
		return r, err
	}
	if diagTLV.Tag != ber.TagOctetString {
		return r, unexpectedTag(s, state+".diagnosticMessage", diagTLV.Tag)
	}
	diag, err := decodeStringField(s.contentOf(diagTLV), s.opts)
	if err != nil {
		return r, wrapStrErr(s, err, state+".diagnosticMessage")
	}
	r.DiagnosticMessage = diag
	s.advance(diagTLV)

	// The referral field is the only thing that can follow within
	// LDAPResult's own grammar; if what follows isn't tagged [3], it
	// belongs to whatever the caller's ProtocolOp appends afterward
	// (serverSaslCreds, responseName/Value) and is left untouched.
	if tlv, ok, err := s.peekNextTag(state + ".referral"); err != nil {
		return r, err
	} else if ok && tlv.Class == ber.ClassContextSpecific && tlv.Tag == message.ContextTagReferral {
		refs, err := decodeReferralList(s.contentOf(tlv), s.opts, s.msgID, state+".referral")
		if err != nil {
			return r, err
		}
		r.Referral = refs
		s.advance(tlv)
	}
	return r, nil
}

func decodePureResultOp(content []byte, opts Options, msgID int32, state string) (message.LdapResult, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	r, err := decodeLdapResult(s, state)
	if err != nil {
		return r, err
	}
	if s.pos != len(s.buf) {
		return r, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}
	return r, nil
}

func decodeReferralList(content []byte, opts Options, msgID int32, state string) ([]string, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	var out []string
	for s.pos < len(s.buf) {
		tlv, err := s.peekTLV(state)
		if err != nil {
			return nil, err
		}
		if tlv.Tag != ber.TagOctetString {
			return nil, unexpectedTag(s, state, tlv.Tag)
		}
		str, err := decodeStringField(s.contentOf(tlv), opts)
		if err != nil {
			return nil, wrapStrErr(s, err, state)
		}
		out = append(out, str)
		s.advance(tlv)
	}
	return out, nil
}

func decodeAVAContent(content []byte, opts Options, msgID int32, state string) (string, []byte, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}

	typTLV, err := s.peekTLV(state + ".type")
	if err != nil {
		return "", nil, err
	}
	if typTLV.Tag != ber.TagOctetString {
		return "", nil, unexpectedTag(s, state+".type", typTLV.Tag)
	}
	typ, err := decodeStringField(s.contentOf(typTLV), opts)
	if err != nil {
		return "", nil, wrapStrErr(s, err, state+".type")
	}
	s.advance(typTLV)

	valTLV, err := s.peekTLV(state + ".value")
	if err != nil {
		return "", nil, err
	}
	if valTLV.Tag != ber.TagOctetString {
		return "", nil, unexpectedTag(s, state+".value", valTLV.Tag)
	}
	val := append([]byte(nil), s.contentOf(valTLV)...)
	s.advance(valTLV)

	if s.pos != len(s.buf) {
		return "", nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}
	return typ, val, nil
}

func decodeFilter(s *decodeState, state string) (message.Filter, error) {
	tlv, err := s.peekTLV(state)
	if err != nil {
		return nil, err
	}
	if tlv.Class != ber.ClassContextSpecific {
		return nil, unexpectedTag(s, state, tlv.Tag)
	}
	content := s.contentOf(tlv)
	tag := tlv.Tag
	s.advance(tlv)

	switch tag {
	case message.FilterTagAnd:
		children, err := decodeFilterChildren(content, s.opts, s.msgID, state+".and")
		if err != nil {
			return nil, err
		}
		return &message.AndFilter{Children: children}, nil
	case message.FilterTagOr:
		children, err := decodeFilterChildren(content, s.opts, s.msgID, state+".or")
		if err != nil {
			return nil, err
		}
		return &message.OrFilter{Children: children}, nil
	case message.FilterTagNot:
		cs := &decodeState{buf: content, opts: s.opts, msgID: s.msgID}
		child, err := decodeFilter(cs, state+".not")
		if err != nil {
			return nil, err
		}
		if cs.pos != len(cs.buf) {
			return nil, &DecoderError{MessageID: s.msgID, Kind: DecoderGrammarError, State: state + ".not"}
		}
		return &message.NotFilter{Child: child}, nil
	case message.FilterTagEqualityMatch:
		typ, val, err := decodeAVAContent(content, s.opts, s.msgID, state+".equalityMatch")
		if err != nil {
			return nil, err
		}
		return &message.EqualityMatchFilter{Type: typ, Value: val}, nil
	case message.FilterTagGreaterOrEqual:
		typ, val, err := decodeAVAContent(content, s.opts, s.msgID, state+".greaterOrEqual")
		if err != nil {
			return nil, err
		}
		return &message.GreaterOrEqualFilter{Type: typ, Value: val}, nil
	case message.FilterTagLessOrEqual:
		typ, val, err := decodeAVAContent(content, s.opts, s.msgID, state+".lessOrEqual")
		if err != nil {
			return nil, err
		}
		return &message.LessOrEqualFilter{Type: typ, Value: val}, nil
	case message.FilterTagApproxMatch:
		typ, val, err := decodeAVAContent(content, s.opts, s.msgID, state+".approxMatch")
		if err != nil {
			return nil, err
		}
		return &message.ApproxMatchFilter{Type: typ, Value: val}, nil
	case message.FilterTagPresent:
		typ, err := decodeStringField(content, s.opts)
		if err != nil {
			return nil, wrapStrErr(s, err, state+".present")
		}
		return &message.PresentFilter{Type: typ}, nil
	case message.FilterTagSubstrings:
		return decodeSubstringsFilter(content, s.opts, s.msgID, state+".substrings")
	case message.FilterTagExtensibleMatch:
		return decodeExtensibleMatchFilter(content, s.opts, s.msgID, state+".extensibleMatch")
	default:
		return nil, &DecoderError{MessageID: s.msgID, Kind: DecoderUnsupportedChoice, State: state, Tag: tag}
	}
}

func decodeFilterChildren(content []byte, opts Options, msgID int32, state string) ([]message.Filter, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	var children []message.Filter
	for s.pos < len(s.buf) {
		f, err := decodeFilter(s, state)
		if err != nil {
			return nil, err
		}
		children = append(children, f)
	}
	return children, nil
}

func decodeSubstringsFilter(content []byte, opts Options, msgID int32, state string) (message.Filter, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}

	typTLV, err := s.peekTLV(state + ".type")
	if err != nil {
		return nil, err
	}
	if typTLV.Tag != ber.TagOctetString {
		return nil, unexpectedTag(s, state+".type", typTLV.Tag)
	}
	typ, err := decodeStringField(s.contentOf(typTLV), opts)
	if err != nil {
		return nil, wrapStrErr(s, err, state+".type")
	}
	s.advance(typTLV)

	seqTLV, err := s.peekTLV(state + ".substrings")
	if err != nil {
		return nil, err
	}
	if seqTLV.Class != ber.ClassUniversal || seqTLV.Tag != ber.TagSequence {
		return nil, unexpectedTag(s, state+".substrings", seqTLV.Tag)
	}
	seqContent := s.contentOf(seqTLV)
	s.advance(seqTLV)
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}

	f := &message.SubstringsFilter{Type: typ}
	ss := &decodeState{buf: seqContent, opts: opts, msgID: msgID}
	for ss.pos < len(ss.buf) {
		itemTLV, err := ss.peekTLV(state + ".item")
		if err != nil {
			return nil, err
		}
		if itemTLV.Class != ber.ClassContextSpecific {
			return nil, unexpectedTag(ss, state+".item", itemTLV.Tag)
		}
		itemContent := append([]byte(nil), ss.contentOf(itemTLV)...)
		switch itemTLV.Tag {
		case message.SubstringTagInitial:
			if f.HasInitial {
				return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state + ".initial"}
			}
			f.Initial = itemContent
			f.HasInitial = true
		case message.SubstringTagAny:
			f.Any = append(f.Any, itemContent)
		case message.SubstringTagFinal:
			if f.HasFinal {
				return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state + ".final"}
			}
			f.Final = itemContent
			f.HasFinal = true
		default:
			return nil, &DecoderError{MessageID: msgID, Kind: DecoderUnsupportedChoice, State: state + ".item", Tag: itemTLV.Tag}
		}
		ss.advance(itemTLV)
	}
	return f, nil
}

func decodeExtensibleMatchFilter(content []byte, opts Options, msgID int32, state string) (message.Filter, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	f := &message.ExtensibleMatchFilter{}

	if tlv, ok, err := s.peekNextTag(state + ".matchingRule"); err != nil {
		return nil, err
	} else if ok && tlv.Class == ber.ClassContextSpecific && tlv.Tag == message.ExtensibleMatchTagRule {
		rule, err := decodeStringField(s.contentOf(tlv), opts)
		if err != nil {
			return nil, wrapStrErr(s, err, state+".matchingRule")
		}
		f.MatchingRule = rule
		s.advance(tlv)
	}
	if tlv, ok, err := s.peekNextTag(state + ".type"); err != nil {
		return nil, err
	} else if ok && tlv.Class == ber.ClassContextSpecific && tlv.Tag == message.ExtensibleMatchTagType {
		typ, err := decodeStringField(s.contentOf(tlv), opts)
		if err != nil {
			return nil, wrapStrErr(s, err, state+".type")
		}
		f.Type = typ
		s.advance(tlv)
	}

	valTLV, err := s.peekTLV(state + ".matchValue")
	if err != nil {
		return nil, err
	}
	if valTLV.Class != ber.ClassContextSpecific || valTLV.Tag != message.ExtensibleMatchTagValue {
		return nil, unexpectedTag(s, state+".matchValue", valTLV.Tag)
	}
	f.MatchValue = append([]byte(nil), s.contentOf(valTLV)...)
	s.advance(valTLV)

	if tlv, ok, err := s.peekNextTag(state + ".dnAttributes"); err != nil {
		return nil, err
	} else if ok && tlv.Class == ber.ClassContextSpecific && tlv.Tag == message.ExtensibleMatchTagDNAttributes {
		b, err := ber.DecodeBoolean(s.contentOf(tlv))
		if err != nil {
			return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state + ".dnAttributes", Err: err}
		}
		f.DNAttributes = b
		s.advance(tlv)
	}

	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}
	return f, nil
}

func decodeAttributeFields(content []byte, opts Options, msgID int32, state string) (string, [][]byte, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}

	typTLV, err := s.peekTLV(state + ".type")
	if err != nil {
		return "", nil, err
	}
	if typTLV.Tag != ber.TagOctetString {
		return "", nil, unexpectedTag(s, state+".type", typTLV.Tag)
	}
	typ, err := decodeStringField(s.contentOf(typTLV), opts)
	if err != nil {
		return "", nil, wrapStrErr(s, err, state+".type")
	}
	s.advance(typTLV)

	setTLV, err := s.peekTLV(state + ".values")
	if err != nil {
		return "", nil, err
	}
	if setTLV.Class != ber.ClassUniversal || setTLV.Tag != ber.TagSet {
		return "", nil, unexpectedTag(s, state+".values", setTLV.Tag)
	}
	setContent := s.contentOf(setTLV)
	s.advance(setTLV)
	if s.pos != len(s.buf) {
		return "", nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}

	vs := &decodeState{buf: setContent, opts: opts, msgID: msgID}
	var values [][]byte
	for vs.pos < len(vs.buf) {
		vTLV, err := vs.peekTLV(state + ".values.item")
		if err != nil {
			return "", nil, err
		}
		if vTLV.Tag != ber.TagOctetString {
			return "", nil, unexpectedTag(vs, state+".values.item", vTLV.Tag)
		}
		values = append(values, append([]byte(nil), vs.contentOf(vTLV)...))
		vs.advance(vTLV)
	}
	return typ, values, nil
}

func decodeAttributeList(content []byte, opts Options, msgID int32, state string) ([]message.Attribute, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	var out []message.Attribute
	for s.pos < len(s.buf) {
		tlv, err := s.peekTLV(state)
		if err != nil {
			return nil, err
		}
		if tlv.Class != ber.ClassUniversal || tlv.Tag != ber.TagSequence {
			return nil, unexpectedTag(s, state, tlv.Tag)
		}
		typ, values, err := decodeAttributeFields(s.contentOf(tlv), opts, msgID, state)
		if err != nil {
			return nil, err
		}
		out = append(out, message.Attribute{Type: typ, Values: values})
		s.advance(tlv)
	}
	return out, nil
}

func decodePartialAttributeList(content []byte, opts Options, msgID int32, state string) ([]message.PartialAttribute, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	var out []message.PartialAttribute
	seen := make(map[string]bool)
	for s.pos < len(s.buf) {
		tlv, err := s.peekTLV(state)
		if err != nil {
			return nil, err
		}
		if tlv.Class != ber.ClassUniversal || tlv.Tag != ber.TagSequence {
			return nil, unexpectedTag(s, state, tlv.Tag)
		}
		typ, values, err := decodeAttributeFields(s.contentOf(tlv), opts, msgID, state)
		if err != nil {
			return nil, err
		}
		if seen[typ] {
			return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state + ".duplicateType"}
		}
		seen[typ] = true
		out = append(out, message.PartialAttribute{Type: typ, Values: values})
		s.advance(tlv)
	}
	return out, nil
}

func decodeChangeList(content []byte, opts Options, msgID int32, state string) ([]message.Change, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	var out []message.Change
	for s.pos < len(s.buf) {
		tlv, err := s.peekTLV(state)
		if err != nil {
			return nil, err
		}
		if tlv.Class != ber.ClassUniversal || tlv.Tag != ber.TagSequence {
			return nil, unexpectedTag(s, state, tlv.Tag)
		}
		cs := &decodeState{buf: s.contentOf(tlv), opts: opts, msgID: msgID}

		opTLV, err := cs.peekTLV(state + ".operation")
		if err != nil {
			return nil, err
		}
		if opTLV.Tag != ber.TagEnumerated {
			return nil, unexpectedTag(cs, state+".operation", opTLV.Tag)
		}
		opVal, err := ber.DecodeBoundedInt(cs.contentOf(opTLV))
		if err != nil {
			return nil, wrapIntErr(cs, err, state+".operation")
		}
		cs.advance(opTLV)

		modTLV, err := cs.peekTLV(state + ".modification")
		if err != nil {
			return nil, err
		}
		if modTLV.Class != ber.ClassUniversal || modTLV.Tag != ber.TagSequence {
			return nil, unexpectedTag(cs, state+".modification", modTLV.Tag)
		}
		typ, values, err := decodeAttributeFields(cs.contentOf(modTLV), opts, msgID, state+".modification")
		if err != nil {
			return nil, err
		}
		cs.advance(modTLV)
		if cs.pos != len(cs.buf) {
			return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
		}

		out = append(out, message.Change{
			Operation:    message.ModifyOperation(opVal),
			Modification: message.Attribute{Type: typ, Values: values},
		})
		s.advance(tlv)
	}
	return out, nil
}

func decodeBindRequest(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	state := "bindRequest"

	verTLV, err := s.peekTLV(state + ".version")
	if err != nil {
		return nil, err
	}
	if verTLV.Tag != ber.TagInteger {
		return nil, unexpectedTag(s, state+".version", verTLV.Tag)
	}
	ver, err := ber.DecodeBoundedInt(s.contentOf(verTLV))
	if err != nil {
		return nil, wrapIntErr(s, err, state+".version")
	}
	s.advance(verTLV)

	nameTLV, err := s.peekTLV(state + ".name")
	if err != nil {
		return nil, err
	}
	if nameTLV.Tag != ber.TagOctetString {
		return nil, unexpectedTag(s, state+".name", nameTLV.Tag)
	}
	name, err := decodeStringField(s.contentOf(nameTLV), opts)
	if err != nil {
		return nil, wrapStrErr(s, err, state+".name")
	}
	s.advance(nameTLV)

	authTLV, err := s.peekTLV(state + ".authentication")
	if err != nil {
		return nil, err
	}
	if authTLV.Class != ber.ClassContextSpecific {
		return nil, unexpectedTag(s, state+".authentication", authTLV.Tag)
	}

	b := &message.BindRequest{Version: ver, Name: message.DN(name)}
	switch authTLV.Tag {
	case message.AuthTagSimple:
		b.AuthMethod = message.AuthMethodSimple
		b.SimplePassword = append([]byte(nil), s.contentOf(authTLV)...)
	case message.AuthTagSASL:
		b.AuthMethod = message.AuthMethodSASL
		mech, creds, err := decodeSASLCredentials(s.contentOf(authTLV), opts, msgID, state+".authentication")
		if err != nil {
			return nil, err
		}
		b.SASLCredentials = &message.SASLCredentials{Mechanism: mech, Credentials: creds}
	default:
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderUnsupportedChoice, State: state + ".authentication", Tag: authTLV.Tag}
	}
	s.advance(authTLV)

	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}
	return b, nil
}

func decodeSASLCredentials(content []byte, opts Options, msgID int32, state string) (string, []byte, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}

	mechTLV, err := s.peekTLV(state + ".mechanism")
	if err != nil {
		return "", nil, err
	}
	if mechTLV.Tag != ber.TagOctetString {
		return "", nil, unexpectedTag(s, state+".mechanism", mechTLV.Tag)
	}
	mech, err := decodeStringField(s.contentOf(mechTLV), opts)
	if err != nil {
		return "", nil, wrapStrErr(s, err, state+".mechanism")
	}
	s.advance(mechTLV)

	var creds []byte
	if tlv, ok, err := s.peekNextTag(state + ".credentials"); err != nil {
		return "", nil, err
	} else if ok {
		if tlv.Tag != ber.TagOctetString {
			return "", nil, unexpectedTag(s, state+".credentials", tlv.Tag)
		}
		creds = append([]byte(nil), s.contentOf(tlv)...)
		s.advance(tlv)
	}
	if s.pos != len(s.buf) {
		return "", nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}
	return mech, creds, nil
}

func decodeBindResponse(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	r, err := decodeLdapResult(s, "bindResponse")
	if err != nil {
		return nil, err
	}
	b := &message.BindResponse{Result: r}

	if tlv, ok, err := s.peekNextTag("bindResponse.serverSaslCreds"); err != nil {
		return nil, err
	} else if ok {
		if tlv.Class != ber.ClassContextSpecific || tlv.Tag != message.ContextTagServerSASLCreds {
			return nil, unexpectedTag(s, "bindResponse.serverSaslCreds", tlv.Tag)
		}
		b.ServerSASLCreds = append([]byte(nil), s.contentOf(tlv)...)
		s.advance(tlv)
	}
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: "bindResponse"}
	}
	return b, nil
}

func decodeSearchRequest(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	state := "searchRequest"

	baseTLV, err := s.peekTLV(state + ".baseObject")
	if err != nil {
		return nil, err
	}
	if baseTLV.Tag != ber.TagOctetString {
		return nil, unexpectedTag(s, state+".baseObject", baseTLV.Tag)
	}
	base, err := decodeStringField(s.contentOf(baseTLV), opts)
	if err != nil {
		return nil, wrapStrErr(s, err, state+".baseObject")
	}
	s.advance(baseTLV)

	scopeTLV, err := s.peekTLV(state + ".scope")
	if err != nil {
		return nil, err
	}
	if scopeTLV.Tag != ber.TagEnumerated {
		return nil, unexpectedTag(s, state+".scope", scopeTLV.Tag)
	}
	scope, err := ber.DecodeBoundedInt(s.contentOf(scopeTLV))
	if err != nil {
		return nil, wrapIntErr(s, err, state+".scope")
	}
	s.advance(scopeTLV)

	derefTLV, err := s.peekTLV(state + ".derefAliases")
	if err != nil {
		return nil, err
	}
	if derefTLV.Tag != ber.TagEnumerated {
		return nil, unexpectedTag(s, state+".derefAliases", derefTLV.Tag)
	}
	deref, err := ber.DecodeBoundedInt(s.contentOf(derefTLV))
	if err != nil {
		return nil, wrapIntErr(s, err, state+".derefAliases")
	}
	s.advance(derefTLV)

	sizeTLV, err := s.peekTLV(state + ".sizeLimit")
	if err != nil {
		return nil, err
	}
	if sizeTLV.Tag != ber.TagInteger {
		return nil, unexpectedTag(s, state+".sizeLimit", sizeTLV.Tag)
	}
	size, err := ber.DecodeBoundedInt(s.contentOf(sizeTLV))
	if err != nil {
		return nil, wrapIntErr(s, err, state+".sizeLimit")
	}
	s.advance(sizeTLV)

	timeTLV, err := s.peekTLV(state + ".timeLimit")
	if err != nil {
		return nil, err
	}
	if timeTLV.Tag != ber.TagInteger {
		return nil, unexpectedTag(s, state+".timeLimit", timeTLV.Tag)
	}
	timeLim, err := ber.DecodeBoundedInt(s.contentOf(timeTLV))
	if err != nil {
		return nil, wrapIntErr(s, err, state+".timeLimit")
	}
	s.advance(timeTLV)

	typesOnlyTLV, err := s.peekTLV(state + ".typesOnly")
	if err != nil {
		return nil, err
	}
	if typesOnlyTLV.Tag != ber.TagBoolean {
		return nil, unexpectedTag(s, state+".typesOnly", typesOnlyTLV.Tag)
	}
	typesOnly, err := ber.DecodeBoolean(s.contentOf(typesOnlyTLV))
	if err != nil {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state + ".typesOnly", Err: err}
	}
	s.advance(typesOnlyTLV)

	filter, err := decodeFilter(s, state+".filter")
	if err != nil {
		return nil, err
	}

	attrsTLV, err := s.peekTLV(state + ".attributes")
	if err != nil {
		return nil, err
	}
	if attrsTLV.Class != ber.ClassUniversal || attrsTLV.Tag != ber.TagSequence {
		return nil, unexpectedTag(s, state+".attributes", attrsTLV.Tag)
	}
	attrsContent := s.contentOf(attrsTLV)
	s.advance(attrsTLV)
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}

	attrs, err := decodeAttributeSelection(attrsContent, opts, msgID, state+".attributes")
	if err != nil {
		return nil, err
	}

	return &message.SearchRequest{
		BaseObject:   message.DN(base),
		Scope:        message.SearchScope(scope),
		DerefAliases: message.DerefAliases(deref),
		SizeLimit:    uint32(size),
		TimeLimit:    uint32(timeLim),
		TypesOnly:    typesOnly,
		Filter:       filter,
		Attributes:   attrs,
	}, nil
}

func decodeAttributeSelection(content []byte, opts Options, msgID int32, state string) ([]string, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	var out []string
	for s.pos < len(s.buf) {
		tlv, err := s.peekTLV(state)
		if err != nil {
			return nil, err
		}
		if tlv.Tag != ber.TagOctetString {
			return nil, unexpectedTag(s, state, tlv.Tag)
		}
		str, err := decodeStringField(s.contentOf(tlv), opts)
		if err != nil {
			return nil, wrapStrErr(s, err, state)
		}
		out = append(out, str)
		s.advance(tlv)
	}
	return out, nil
}

func decodeSearchResultEntry(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	state := "searchResultEntry"

	nameTLV, err := s.peekTLV(state + ".objectName")
	if err != nil {
		return nil, err
	}
	if nameTLV.Tag != ber.TagOctetString {
		return nil, unexpectedTag(s, state+".objectName", nameTLV.Tag)
	}
	name, err := decodeStringField(s.contentOf(nameTLV), opts)
	if err != nil {
		return nil, wrapStrErr(s, err, state+".objectName")
	}
	s.advance(nameTLV)

	attrsTLV, err := s.peekTLV(state + ".attributes")
	if err != nil {
		return nil, err
	}
	if attrsTLV.Class != ber.ClassUniversal || attrsTLV.Tag != ber.TagSequence {
		return nil, unexpectedTag(s, state+".attributes", attrsTLV.Tag)
	}
	attrsContent := s.contentOf(attrsTLV)
	s.advance(attrsTLV)
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}

	attrs, err := decodePartialAttributeList(attrsContent, opts, msgID, state+".attributes")
	if err != nil {
		return nil, err
	}
	return &message.SearchResultEntry{ObjectName: message.DN(name), Attributes: attrs}, nil
}

func decodeSearchResultReference(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	var uris []string
	for s.pos < len(s.buf) {
		tlv, err := s.peekTLV("searchResultReference")
		if err != nil {
			return nil, err
		}
		if tlv.Tag != ber.TagOctetString {
			return nil, unexpectedTag(s, "searchResultReference", tlv.Tag)
		}
		uri, err := decodeStringField(s.contentOf(tlv), opts)
		if err != nil {
			return nil, wrapStrErr(s, err, "searchResultReference")
		}
		uris = append(uris, uri)
		s.advance(tlv)
	}
	return &message.SearchResultReference{URIs: uris}, nil
}

func decodeModifyRequest(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	state := "modifyRequest"

	objTLV, err := s.peekTLV(state + ".object")
	if err != nil {
		return nil, err
	}
	if objTLV.Tag != ber.TagOctetString {
		return nil, unexpectedTag(s, state+".object", objTLV.Tag)
	}
	obj, err := decodeStringField(s.contentOf(objTLV), opts)
	if err != nil {
		return nil, wrapStrErr(s, err, state+".object")
	}
	s.advance(objTLV)

	chTLV, err := s.peekTLV(state + ".changes")
	if err != nil {
		return nil, err
	}
	if chTLV.Class != ber.ClassUniversal || chTLV.Tag != ber.TagSequence {
		return nil, unexpectedTag(s, state+".changes", chTLV.Tag)
	}
	chContent := s.contentOf(chTLV)
	s.advance(chTLV)
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}

	changes, err := decodeChangeList(chContent, opts, msgID, state+".changes")
	if err != nil {
		return nil, err
	}
	return &message.ModifyRequest{Object: message.DN(obj), Changes: changes}, nil
}

func decodeAddRequest(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	state := "addRequest"

	entryTLV, err := s.peekTLV(state + ".entry")
	if err != nil {
		return nil, err
	}
	if entryTLV.Tag != ber.TagOctetString {
		return nil, unexpectedTag(s, state+".entry", entryTLV.Tag)
	}
	entry, err := decodeStringField(s.contentOf(entryTLV), opts)
	if err != nil {
		return nil, wrapStrErr(s, err, state+".entry")
	}
	s.advance(entryTLV)

	attrsTLV, err := s.peekTLV(state + ".attributes")
	if err != nil {
		return nil, err
	}
	if attrsTLV.Class != ber.ClassUniversal || attrsTLV.Tag != ber.TagSequence {
		return nil, unexpectedTag(s, state+".attributes", attrsTLV.Tag)
	}
	attrsContent := s.contentOf(attrsTLV)
	s.advance(attrsTLV)
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}

	attrs, err := decodeAttributeList(attrsContent, opts, msgID, state+".attributes")
	if err != nil {
		return nil, err
	}
	return &message.AddRequest{Entry: message.DN(entry), Attributes: attrs}, nil
}

func decodeDeleteRequest(content []byte, opts Options, msgID int32) (message.Op, error) {
	dn, err := decodeStringField(content, opts)
	if err != nil {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderInvalidUTF8, State: "deleteRequest", Err: err}
	}
	return &message.DeleteRequest{DN: message.DN(dn)}, nil
}

func decodeModifyDNRequest(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	state := "modifyDNRequest"

	entryTLV, err := s.peekTLV(state + ".entry")
	if err != nil {
		return nil, err
	}
	if entryTLV.Tag != ber.TagOctetString {
		return nil, unexpectedTag(s, state+".entry", entryTLV.Tag)
	}
	entry, err := decodeStringField(s.contentOf(entryTLV), opts)
	if err != nil {
		return nil, wrapStrErr(s, err, state+".entry")
	}
	s.advance(entryTLV)

	rdnTLV, err := s.peekTLV(state + ".newrdn")
	if err != nil {
		return nil, err
	}
	if rdnTLV.Tag != ber.TagOctetString {
		return nil, unexpectedTag(s, state+".newrdn", rdnTLV.Tag)
	}
	rdn, err := decodeStringField(s.contentOf(rdnTLV), opts)
	if err != nil {
		return nil, wrapStrErr(s, err, state+".newrdn")
	}
	s.advance(rdnTLV)

	delTLV, err := s.peekTLV(state + ".deleteoldrdn")
	if err != nil {
		return nil, err
	}
	if delTLV.Tag != ber.TagBoolean {
		return nil, unexpectedTag(s, state+".deleteoldrdn", delTLV.Tag)
	}
	del, err := ber.DecodeBoolean(s.contentOf(delTLV))
	if err != nil {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state + ".deleteoldrdn", Err: err}
	}
	s.advance(delTLV)

	m := &message.ModifyDNRequest{Entry: message.DN(entry), NewRDN: rdn, DeleteOldRDN: del}

	if tlv, ok, err := s.peekNextTag(state + ".newSuperior"); err != nil {
		return nil, err
	} else if ok {
		if tlv.Class != ber.ClassContextSpecific || tlv.Tag != message.ContextTagNewSuperior {
			return nil, unexpectedTag(s, state+".newSuperior", tlv.Tag)
		}
		sup, err := decodeStringField(s.contentOf(tlv), opts)
		if err != nil {
			return nil, wrapStrErr(s, err, state+".newSuperior")
		}
		supDN := message.DN(sup)
		m.NewSuperior = &supDN
		s.advance(tlv)
	}
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}
	return m, nil
}

func decodeCompareRequest(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	state := "compareRequest"

	entryTLV, err := s.peekTLV(state + ".entry")
	if err != nil {
		return nil, err
	}
	if entryTLV.Tag != ber.TagOctetString {
		return nil, unexpectedTag(s, state+".entry", entryTLV.Tag)
	}
	entry, err := decodeStringField(s.contentOf(entryTLV), opts)
	if err != nil {
		return nil, wrapStrErr(s, err, state+".entry")
	}
	s.advance(entryTLV)

	avaTLV, err := s.peekTLV(state + ".ava")
	if err != nil {
		return nil, err
	}
	if avaTLV.Class != ber.ClassUniversal || avaTLV.Tag != ber.TagSequence {
		return nil, unexpectedTag(s, state+".ava", avaTLV.Tag)
	}
	attr, val, err := decodeAVAContent(s.contentOf(avaTLV), opts, msgID, state+".ava")
	if err != nil {
		return nil, err
	}
	s.advance(avaTLV)
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}

	return &message.CompareRequest{
		Entry: message.DN(entry),
		AVA:   message.AttributeValueAssertion{Attribute: attr, Value: val},
	}, nil
}

func decodeAbandonRequest(content []byte, msgID int32) (message.Op, error) {
	id, err := ber.DecodeBoundedInt(content)
	if err != nil {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderIntegerOutOfRange, State: "abandonRequest", Err: err}
	}
	return &message.AbandonRequest{MessageID: id}, nil
}

func decodeExtendedRequest(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	state := "extendedRequest"

	nameTLV, err := s.peekTLV(state + ".requestName")
	if err != nil {
		return nil, err
	}
	if nameTLV.Class != ber.ClassContextSpecific || nameTLV.Tag != message.ContextTagExtendedRequestName {
		return nil, unexpectedTag(s, state+".requestName", nameTLV.Tag)
	}
	name, err := decodeStringField(s.contentOf(nameTLV), opts)
	if err != nil {
		return nil, wrapStrErr(s, err, state+".requestName")
	}
	s.advance(nameTLV)

	e := &message.ExtendedRequest{Name: name}
	if tlv, ok, err := s.peekNextTag(state + ".requestValue"); err != nil {
		return nil, err
	} else if ok {
		if tlv.Class != ber.ClassContextSpecific || tlv.Tag != message.ContextTagExtendedRequestValue {
			return nil, unexpectedTag(s, state+".requestValue", tlv.Tag)
		}
		e.Value = append([]byte(nil), s.contentOf(tlv)...)
		s.advance(tlv)
	}
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: state}
	}
	return e, nil
}

func decodeExtendedResponse(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	r, err := decodeLdapResult(s, "extendedResponse")
	if err != nil {
		return nil, err
	}
	e := &message.ExtendedResponse{Result: r}

	if tlv, ok, err := s.peekNextTag("extendedResponse.responseName"); err != nil {
		return nil, err
	} else if ok && tlv.Class == ber.ClassContextSpecific && tlv.Tag == message.ContextTagExtendedResponseName {
		name, err := decodeStringField(s.contentOf(tlv), opts)
		if err != nil {
			return nil, wrapStrErr(s, err, "extendedResponse.responseName")
		}
		e.Name = &name
		s.advance(tlv)
	}
	if tlv, ok, err := s.peekNextTag("extendedResponse.responseValue"); err != nil {
		return nil, err
	} else if ok {
		if tlv.Class != ber.ClassContextSpecific || tlv.Tag != message.ContextTagExtendedResponseValue {
			return nil, unexpectedTag(s, "extendedResponse.responseValue", tlv.Tag)
		}
		e.Value = append([]byte(nil), s.contentOf(tlv)...)
		s.advance(tlv)
	}
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: "extendedResponse"}
	}
	return e, nil
}

func decodeIntermediateResponse(content []byte, opts Options, msgID int32) (message.Op, error) {
	s := &decodeState{buf: content, opts: opts, msgID: msgID}
	i := &message.IntermediateResponse{}

	if tlv, ok, err := s.peekNextTag("intermediateResponse.responseName"); err != nil {
		return nil, err
	} else if ok && tlv.Class == ber.ClassContextSpecific && tlv.Tag == message.ContextTagIntermediateResponseName {
		name, err := decodeStringField(s.contentOf(tlv), opts)
		if err != nil {
			return nil, wrapStrErr(s, err, "intermediateResponse.responseName")
		}
		i.Name = &name
		s.advance(tlv)
	}
	if tlv, ok, err := s.peekNextTag("intermediateResponse.responseValue"); err != nil {
		return nil, err
	} else if ok {
		if tlv.Class != ber.ClassContextSpecific || tlv.Tag != message.ContextTagIntermediateResponseValue {
			return nil, unexpectedTag(s, "intermediateResponse.responseValue", tlv.Tag)
		}
		i.Value = append([]byte(nil), s.contentOf(tlv)...)
		s.advance(tlv)
	}
	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: "intermediateResponse"}
	}
	return i, nil
}

func decodeControls(content []byte, msgID int32) (*message.ControlList, error) {
	s := &decodeState{buf: content, msgID: msgID}
	cl := message.NewControlList()
	for s.pos < len(s.buf) {
		tlv, err := s.peekTLV("controls.control")
		if err != nil {
			return nil, err
		}
		if tlv.Class != ber.ClassUniversal || tlv.Tag != ber.TagSequence {
			return nil, unexpectedTag(s, "controls.control", tlv.Tag)
		}
		c, err := decodeControl(s.contentOf(tlv), msgID)
		if err != nil {
			return nil, err
		}
		if !cl.Add(*c) {
			return nil, &DecoderError{MessageID: msgID, Kind: DecoderDuplicateControlOID, State: "controls.control"}
		}
		s.advance(tlv)
	}
	return cl, nil
}

func decodeControl(content []byte, msgID int32) (*message.Control, error) {
	s := &decodeState{buf: content, msgID: msgID}

	oidTLV, err := s.peekTLV("control.oid")
	if err != nil {
		return nil, err
	}
	if oidTLV.Tag != ber.TagOctetString {
		return nil, unexpectedTag(s, "control.oid", oidTLV.Tag)
	}
	oid := string(s.contentOf(oidTLV))
	s.advance(oidTLV)

	c := &message.Control{OID: oid}

	if tlv, ok, err := s.peekNextTag("control.criticality"); err != nil {
		return nil, err
	} else if ok && tlv.Tag == ber.TagBoolean {
		crit, err := ber.DecodeBoolean(s.contentOf(tlv))
		if err != nil {
			return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: "control.criticality", Err: err}
		}
		c.Critical = crit
		s.advance(tlv)
	}

	if tlv, ok, err := s.peekNextTag("control.value"); err != nil {
		return nil, err
	} else if ok {
		if tlv.Tag != ber.TagOctetString {
			return nil, unexpectedTag(s, "control.value", tlv.Tag)
		}
		value := append([]byte(nil), s.contentOf(tlv)...)
		c.Value = value
		// An unregistered OID, or one whose registered codec rejects
		// this value, keeps the opaque bytes in Value rather than
		// failing the whole message, preserving round-trip fidelity.
		if codec, found := lookupControl(oid); found {
			if payload, err := codec.DecodeValue(value); err == nil {
				c.Payload = payload
			}
		}
		s.advance(tlv)
	}

	if s.pos != len(s.buf) {
		return nil, &DecoderError{MessageID: msgID, Kind: DecoderGrammarError, State: "control"}
	}
	return c, nil
}
