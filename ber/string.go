package ber

import (
	"strings"
	"unicode/utf8"
)

// EncodeUTF8 returns the UTF-8 octets of s. Every LDAP string-typed
// field (DN, LDAPString, LDAPOID, URI) is carried as UTF-8 on the wire.
func EncodeUTF8(s string) []byte {
	return []byte(s)
}

// DecodeUTF8 converts content into a string. When strict is false,
// each run of ill-formed UTF-8 bytes is replaced by the Unicode
// replacement character U+FFFD; when strict is true, invalid UTF-8 is a
// decode error (codec.Options.StrictStringValidation).
func DecodeUTF8(content []byte, strict bool) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	if strict {
		return "", ErrInvalidUTF8
	}
	return strings.ToValidUTF8(string(content), "�"), nil
}
