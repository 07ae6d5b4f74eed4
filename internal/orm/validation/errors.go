// Package validation defines the structured validation failures raised while
// normalizing field values and checking records before they are saved.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrValidation matches every *Error and *Errors via errors.Is.
var ErrValidation = errors.New("validation failed")

// Kind classifies why a value was rejected
type Kind int

const (
	// KindFormat means the value is syntactically invalid
	KindFormat Kind = iota
	// KindVerification means a secondary check (e.g. a DNS lookup) rejected the value
	KindVerification
	// KindMultiplicity means more entries were supplied than the field permits
	KindMultiplicity
	// KindRequired means the value is null or empty but the field is required
	KindRequired
	// KindMandatory means the value is null but the field is mandatory
	KindMandatory
	// KindType means the value cannot be converted to the field type
	KindType
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindVerification:
		return "verification"
	case KindMultiplicity:
		return "multiplicity"
	case KindRequired:
		return "required"
	case KindMandatory:
		return "mandatory"
	case KindType:
		return "type"
	default:
		return "unknown"
	}
}

// Error is a single validation failure keyed by field name
type Error struct {
	Field   string
	Kind    Kind
	Message string
	// Err is the underlying cause, if any (for example a resolver error).
	Err error
}

// New creates a validation failure for a field
func New(field string, kind Kind, message string) *Error {
	return &Error{Field: field, Kind: kind, Message: message}
}

// Wrap creates a validation failure that keeps cause reachable through errors.Unwrap
func Wrap(field string, kind Kind, message string, cause error) *Error {
	return &Error{Field: field, Kind: kind, Message: message, Err: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports ErrValidation as a match
func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

// Errors aggregates several validation failures for one record
type Errors struct {
	list []*Error
}

// NewErrors creates an empty aggregate
func NewErrors() *Errors {
	return &Errors{}
}

// Add appends a failure
func (ve *Errors) Add(err *Error) {
	ve.list = append(ve.list, err)
}

// HasErrors returns true if there are any validation errors
func (ve *Errors) HasErrors() bool {
	return len(ve.list) > 0
}

// Count returns the number of failures
func (ve *Errors) Count() int {
	return len(ve.list)
}

// All returns the failures in the order they were added
func (ve *Errors) All() []*Error {
	out := make([]*Error, len(ve.list))
	copy(out, ve.list)
	return out
}

// Fields groups failure messages by field name
func (ve *Errors) Fields() map[string][]string {
	fields := make(map[string][]string)
	for _, e := range ve.list {
		fields[e.Field] = append(fields[e.Field], e.Message)
	}
	return fields
}

// Error implements the error interface
func (ve *Errors) Error() string {
	if !ve.HasErrors() {
		return "validation failed"
	}
	if len(ve.list) == 1 {
		return fmt.Sprintf("validation failed: %s", ve.list[0].Error())
	}

	messages := make([]string, 0, len(ve.list))
	for _, e := range ve.list {
		messages = append(messages, "  - "+e.Error())
	}
	return fmt.Sprintf("validation failed:\n%s", strings.Join(messages, "\n"))
}

// Is reports ErrValidation as a match
func (ve *Errors) Is(target error) bool {
	return target == ErrValidation
}

// ErrOrNil returns the aggregate as an error, or nil when it is empty
func (ve *Errors) ErrOrNil() error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// MarshalJSON implements json.Marshaler for custom JSON serialization
func (ve *Errors) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error  string              `json:"error"`
		Fields map[string][]string `json:"fields"`
	}{
		Error:  "validation_failed",
		Fields: ve.Fields(),
	})
}

// IsValidation returns true if err is or wraps a validation failure
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// AsError extracts the first *Error from err's chain
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
