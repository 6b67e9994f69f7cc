package message

// ControlPayload is the capability a control's structured, decoded form
// implements so the generic control-list encoder can serialize it back
// without type-switching on every known control OID. Controls with no
// registered codec simply carry their opaque Value and a nil Payload,
// preserving round-trip fidelity.
type ControlPayload interface {
	// EncodeValue returns the controlValue OCTET STRING content this
	// payload serializes to.
	EncodeValue() ([]byte, error)
}

// Control is an LDAP control, RFC 4511 §4.1.11.
type Control struct {
	OID      string
	Critical bool
	Value    []byte
	Payload  ControlPayload

	// BodyLength is the length computer's cached content length of
	// this control's SEQUENCE (transient).
	BodyLength int
}

// ControlList is an insertion-ordered collection of controls keyed by
// OID. Iteration order — and therefore encode order — is the order
// controls were appended, never map order.
type ControlList struct {
	order []string
	byOID map[string]*Control
}

// NewControlList returns an empty ControlList.
func NewControlList() *ControlList {
	return &ControlList{byOID: make(map[string]*Control)}
}

// Add appends c to the list. It reports false (and does not modify the
// list) if c.OID is already present — duplicate control OIDs within
// one message are a protocol error, and the codec never resolves that
// ambiguity by silently overwriting.
func (l *ControlList) Add(c Control) bool {
	if l.byOID == nil {
		l.byOID = make(map[string]*Control)
	}
	if _, exists := l.byOID[c.OID]; exists {
		return false
	}
	l.order = append(l.order, c.OID)
	stored := c
	l.byOID[c.OID] = &stored
	return true
}

// Get returns the control with the given OID, if present.
func (l *ControlList) Get(oid string) (*Control, bool) {
	if l == nil || l.byOID == nil {
		return nil, false
	}
	c, ok := l.byOID[oid]
	return c, ok
}

// Len returns the number of controls in the list.
func (l *ControlList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// All returns the controls in insertion order. The returned slice is
// freshly allocated, but its elements point at the list's stored
// controls, so changes made through them are seen by the list.
func (l *ControlList) All() []*Control {
	if l == nil {
		return nil
	}
	out := make([]*Control, 0, len(l.order))
	for _, oid := range l.order {
		out = append(out, l.byOID[oid])
	}
	return out
}
