package field

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// declaration is the closed schema of keys accepted in a declarative field option bag
type declaration struct {
	Type            string         `mapstructure:"type"`
	System          bool           `mapstructure:"system"`
	Default         any            `mapstructure:"default"`
	NeverPersist    bool           `mapstructure:"never_persist"`
	ReadOnly        bool           `mapstructure:"read_only"`
	Caption         string         `mapstructure:"caption"`
	UI              map[string]any `mapstructure:"ui"`
	Mandatory       bool           `mapstructure:"mandatory"`
	Required        bool           `mapstructure:"required"`
	Serialize       string         `mapstructure:"serialize"`
	PersistFormat   string         `mapstructure:"persist_format"`
	PersistTimezone string         `mapstructure:"persist_timezone"`

	// email only
	DNSCheck      bool     `mapstructure:"dns_check"`
	AllowMultiple bool     `mapstructure:"allow_multiple"`
	Separator     []string `mapstructure:"separator"`
	IncludeNames  bool     `mapstructure:"include_names"`
}

// Decode builds Options from a declarative option bag such as a YAML mapping.
// Unknown keys, unknown types and email-only keys on other types are rejected.
// verifier is attached to email fields that enable dns_check; nil means MXVerifier.
func Decode(raw map[string]any, verifier Verifier) (Options, error) {
	var decl declaration
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &decl,
	})
	if err != nil {
		return Options{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Options{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	typ, err := ParseType(decl.Type)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	if decl.PersistTimezone != "" {
		if _, err := time.LoadLocation(decl.PersistTimezone); err != nil {
			return Options{}, fmt.Errorf("%w: persist_timezone: %v", ErrInvalidOptions, err)
		}
	}

	o := Options{
		Type:         typ,
		System:       decl.System,
		Default:      decl.Default,
		NeverPersist: decl.NeverPersist,
		ReadOnly:     decl.ReadOnly,
		Caption:      decl.Caption,
		UI:           decl.UI,
		Mandatory:    decl.Mandatory,
		Required:     decl.Required,
		Persistence: PersistHints{
			Format:   decl.PersistFormat,
			Timezone: decl.PersistTimezone,
		},
	}

	if decl.Serialize != "" {
		if o.Serialize, err = SerializerByName(decl.Serialize); err != nil {
			return Options{}, err
		}
	}

	emailOnly := decl.DNSCheck || decl.AllowMultiple || decl.IncludeNames || len(decl.Separator) > 0
	if typ == TypeEmail {
		o.Normalizer = &Email{
			DNSCheck:      decl.DNSCheck,
			AllowMultiple: decl.AllowMultiple,
			IncludeNames:  decl.IncludeNames,
			Separators:    strings.Join(decl.Separator, ""),
			Verifier:      verifier,
		}
	} else if emailOnly {
		return Options{}, fmt.Errorf("%w: dns_check, allow_multiple, separator and include_names require type email", ErrInvalidOptions)
	}

	return o, nil
}
