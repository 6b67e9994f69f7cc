package codec

import (
	"sync"

	"github.com/oba-ldap/ldapcodec/message"
)

// ControlCodec decodes a control's opaque value bytes into a structured
// payload; the payload serializes itself back through
// message.ControlPayload.EncodeValue. Implementations register
// themselves with RegisterControl. Unknown OIDs are decoded as opaque
// value bytes and re-emitted unchanged, preserving round-trip fidelity.
type ControlCodec interface {
	// DecodeValue parses value into a message.ControlPayload.
	DecodeValue(value []byte) (message.ControlPayload, error)
}

// registry is the process-wide controls registry: read-mostly, safe
// for concurrent reads once registration has settled. It is the only
// process-wide state this codec owns.
var registry = struct {
	mu    sync.RWMutex
	codec map[string]ControlCodec
}{codec: make(map[string]ControlCodec)}

// RegisterControl associates oid with codec so that decoded controls
// carrying that OID get a structured Payload instead of an opaque
// Value. Intended to be called during process initialization (e.g.
// from an init func); registering the same OID twice replaces the
// prior codec.
func RegisterControl(oid string, codec ControlCodec) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.codec[oid] = codec
}

func lookupControl(oid string) (ControlCodec, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	c, ok := registry.codec[oid]
	return c, ok
}
