// Package ber implements the ASN.1 Basic Encoding Rules (ITU-T X.690)
// primitives needed by an LDAPv3 codec: tag and length octets, and the
// small set of universal types LDAP actually puts on the wire.
package ber

// Class is the tag class occupying the two high-order bits of the
// identifier octet.
type Class int

const (
	ClassUniversal       Class = 0x00
	ClassApplication     Class = 0x40
	ClassContextSpecific Class = 0x80
	ClassPrivate         Class = 0xC0
)

// classMask isolates the class bits of an identifier octet.
const classMask = 0xC0

// constructedMask isolates the primitive/constructed bit (bit 6).
const constructedMask = 0x20

// tagNumberMask isolates the low-order tag-number bits of a short-form
// identifier octet.
const tagNumberMask = 0x1F

// Universal tag numbers used by the LDAP wire format.
const (
	TagBoolean     = 0x01
	TagInteger     = 0x02
	TagOctetString = 0x04
	TagNull        = 0x05
	TagEnumerated  = 0x0A
	TagSequence    = 0x10
	TagSet         = 0x11
)
