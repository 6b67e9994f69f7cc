package message

import "strings"

// DN is a Distinguished Name, treated as an opaque, already-canonical
// string-shaped entity: it does not parse RDNs or validate attribute
// types, it only carries the string across the wire. The one
// exception is TrimMatchedDN: a configuration-gated heuristic that
// trims leading whitespace from a matchedDN on encode, kept for
// wire-level compatibility with peers that emit it that way.
type DN string

// TrimLeadingSpace returns d with leading whitespace removed. It is
// only ever applied to LDAPResult.MatchedDN, and only when
// codec.Options.TrimMatchedDN is set.
func (d DN) TrimLeadingSpace() DN {
	return DN(strings.TrimLeft(string(d), " \t"))
}

func (d DN) String() string { return string(d) }
