package codec

import "fmt"

// EncoderErrorKind discriminates the ways Encode can fail.
type EncoderErrorKind int

const (
	EncoderOverflow EncoderErrorKind = iota
	EncoderInvalidState
	EncoderUnknownOp
)

func (k EncoderErrorKind) String() string {
	switch k {
	case EncoderOverflow:
		return "Overflow"
	case EncoderInvalidState:
		return "InvalidState"
	case EncoderUnknownOp:
		return "UnknownOp"
	default:
		return "Unknown"
	}
}

// EncoderError is returned by Encode. MessageID is the id of the
// message being encoded when the failure occurred, if known.
type EncoderError struct {
	MessageID int32
	Kind      EncoderErrorKind
	Reason    string
	Err       error
}

func (e *EncoderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("codec: encode error (id=%d, %s): %s: %v", e.MessageID, e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("codec: encode error (id=%d, %s): %s", e.MessageID, e.Kind, e.Reason)
}

func (e *EncoderError) Unwrap() error { return e.Err }

// DecoderErrorKind discriminates the ways decoding can fail.
type DecoderErrorKind int

const (
	// DecoderTruncatedInput means more bytes are needed; it is never
	// fatal for the stream and Feed never returns it as an error (Feed
	// simply waits for more bytes). Only the one-shot Decode returns
	// it, when data does not hold a whole PDU.
	DecoderTruncatedInput DecoderErrorKind = iota
	DecoderTruncatedContainer
	DecoderUnexpectedTag
	DecoderLengthOutOfRange
	DecoderIntegerOutOfRange
	DecoderInvalidUTF8
	DecoderDuplicateControlOID
	DecoderMaxPduExceeded
	DecoderGrammarError
	DecoderUnsupportedChoice
)

func (k DecoderErrorKind) String() string {
	switch k {
	case DecoderTruncatedInput:
		return "TruncatedInput"
	case DecoderTruncatedContainer:
		return "TruncatedContainer"
	case DecoderUnexpectedTag:
		return "UnexpectedTag"
	case DecoderLengthOutOfRange:
		return "LengthOutOfRange"
	case DecoderIntegerOutOfRange:
		return "IntegerOutOfRange"
	case DecoderInvalidUTF8:
		return "InvalidUtf8"
	case DecoderDuplicateControlOID:
		return "DuplicateControlOid"
	case DecoderMaxPduExceeded:
		return "MaxPduExceeded"
	case DecoderGrammarError:
		return "GrammarError"
	case DecoderUnsupportedChoice:
		return "UnsupportedChoice"
	default:
		return "Unknown"
	}
}

// DecoderError is returned by Feed and Decode. Every kind other than
// DecoderTruncatedInput is fatal: once a Decoder returns one, it is
// poisoned, every subsequent Feed call returns the same error, and
// NextMessage reports no message.
type DecoderError struct {
	// MessageID is the partially-decoded message id, if one had been
	// parsed before the error; -1 if not.
	MessageID int32
	Kind      DecoderErrorKind
	State     string
	Tag       int
	Err       error
}

func (e *DecoderError) Error() string {
	base := fmt.Sprintf("codec: decode error (id=%d, %s, state=%s, tag=%d)", e.MessageID, e.Kind, e.State, e.Tag)
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", base, e.Err)
	}
	return base
}

func (e *DecoderError) Unwrap() error { return e.Err }
