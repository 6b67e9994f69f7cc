package codec

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oba-ldap/ldapcodec/internal/obslog"
)

// DefaultMaxPDUSize is the default ceiling on a single decoded PDU.
const DefaultMaxPDUSize uint32 = 2 * 1024 * 1024

// Options holds the recognized codec configuration, plus the
// TrimMatchedDN flag that promotes a legacy unconditional heuristic
// to an opt-in one.
type Options struct {
	// MaxPDUSize rejects any PDU whose declared length exceeds it with
	// MaxPduExceeded. Zero means DefaultMaxPDUSize.
	MaxPDUSize uint32 `yaml:"maxPduSize"`

	// AllowBinaryAttributeOption names whether the ";binary" attribute
	// option suffix (e.g. "userCertificate;binary") is allowed. It is
	// stored and loaded from YAML, but no encode or decode path reads
	// it: attribute type strings pass through unvalidated, with or
	// without ";binary", whatever its value.
	AllowBinaryAttributeOption bool `yaml:"allowBinaryAttributeOption"`

	// StrictStringValidation turns invalid UTF-8 in a string-typed
	// field into a decode error (ber.ErrInvalidUTF8) instead of
	// replacement-character substitution.
	StrictStringValidation bool `yaml:"strictStringValidation"`

	// TrimMatchedDN enables the legacy leading-whitespace trim on
	// LDAPResult.MatchedDN during encode. Defaults to off; some LDAP
	// peers apply this trim unconditionally.
	TrimMatchedDN bool `yaml:"trimMatchedDN"`

	// Logger receives decode/encode diagnostics when non-nil. The
	// codec never logs by default.
	Logger *obslog.Logger `yaml:"-"`
}

// DefaultOptions returns the recognized configuration defaults.
func DefaultOptions() Options {
	return Options{
		MaxPDUSize:                 DefaultMaxPDUSize,
		AllowBinaryAttributeOption: true,
		StrictStringValidation:     false,
		TrimMatchedDN:              false,
	}
}

// effectiveMaxPDUSize returns o.MaxPDUSize, or DefaultMaxPDUSize if
// unset.
func (o Options) effectiveMaxPDUSize() uint32 {
	if o.MaxPDUSize == 0 {
		return DefaultMaxPDUSize
	}
	return o.MaxPDUSize
}

// LoadOptions reads YAML-encoded Options from path.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}
