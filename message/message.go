package message

// Op is a ProtocolOp: the tagged-union CHOICE body of an LDAPMessage.
// Every request/response variant implements it.
//
// Each variant is a distinct Go type discriminated by Tag(), and the
// length computer / encoder / decoder dispatch on that discriminant
// with a type switch rather than a class hierarchy with instanceof
// checks.
type Op interface {
	// Tag returns the APPLICATION tag number identifying this operation
	// (one of the Tag* constants in types.go).
	Tag() int

	// SetBodyLength and BodyLength hold the length computer's cached
	// content length of this operation's APPLICATION-tagged SEQUENCE.
	// Meaningful only between a ComputeLengths call and the matching
	// Encode call.
	SetBodyLength(n int)
	BodyLength() int
}

// Message is the LDAPMessage envelope.
//
// LDAPMessage ::= SEQUENCE {
//	messageID       MessageID,
//	protocolOp      CHOICE { ... },
//	controls        [0] Controls OPTIONAL
// }
type Message struct {
	// MessageID is > 0 for requests, 0 for unsolicited notifications,
	// and equal to the request's id for responses (invariant I1).
	MessageID int32

	// Op is the ProtocolOp body. A Message exclusively owns it.
	Op Op

	// Controls holds this message's controls, in insertion order, or
	// nil if there are none. A Message exclusively owns it.
	Controls *ControlList

	// MessageLength and ControlsLength are transient fields the length
	// computer populates: the content length of the outer SEQUENCE
	// (messageID + protocolOp + controls), and the content length of
	// the controls [0] SEQUENCE OF Control, respectively.
	MessageLength  int
	ControlsLength int
}

// OperationType returns the application tag of m's ProtocolOp, or -1 if
// m.Op is nil.
func (m *Message) OperationType() int {
	if m.Op == nil {
		return -1
	}
	return m.Op.Tag()
}

// IsResponse reports whether m carries a response (or unsolicited
// notification) ProtocolOp, per invariant I2.
func (m *Message) IsResponse() bool {
	if m.Op == nil {
		return false
	}
	return IsResponseTag(m.Op.Tag())
}
