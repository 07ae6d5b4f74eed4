package field

import "fmt"

// Type is the declared value type of a field
type Type int

const (
	// TypeUnspecified leaves values untouched for custom handling
	TypeUnspecified Type = iota

	// Text types
	TypeString
	TypeText

	TypeBoolean

	// Numeric types
	TypeInteger
	TypeMoney
	TypeFloat

	// Time types
	TypeDate
	TypeDatetime
	TypeTime

	// Structured types
	TypeComposite
	TypeOpaque

	// TypeEmail is a text type holding one or more validated addresses
	TypeEmail
)

// String returns the string representation of the type
func (t Type) String() string {
	switch t {
	case TypeUnspecified:
		return ""
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeMoney:
		return "money"
	case TypeFloat:
		return "float"
	case TypeDate:
		return "date"
	case TypeDatetime:
		return "datetime"
	case TypeTime:
		return "time"
	case TypeComposite:
		return "composite"
	case TypeOpaque:
		return "opaque"
	case TypeEmail:
		return "email"
	default:
		return "unknown"
	}
}

// ParseType converts a string to a Type. An empty string is TypeUnspecified.
func ParseType(s string) (Type, error) {
	switch s {
	case "":
		return TypeUnspecified, nil
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "integer", "int":
		return TypeInteger, nil
	case "money":
		return TypeMoney, nil
	case "float":
		return TypeFloat, nil
	case "date":
		return TypeDate, nil
	case "datetime":
		return TypeDatetime, nil
	case "time":
		return TypeTime, nil
	case "composite", "array":
		return TypeComposite, nil
	case "opaque", "object":
		return TypeOpaque, nil
	case "email":
		return TypeEmail, nil
	default:
		return 0, fmt.Errorf("unknown field type: %s", s)
	}
}

// IsTemporal returns true for date, datetime and time
func (t Type) IsTemporal() bool {
	return t == TypeDate || t == TypeDatetime || t == TypeTime
}

// IsNumeric returns true for integer, money and float
func (t Type) IsNumeric() bool {
	return t == TypeInteger || t == TypeMoney || t == TypeFloat
}

// IsText returns true if the type holds a string value
func (t Type) IsText() bool {
	return t == TypeString || t == TypeText || t == TypeEmail
}

// defaultLayout is the persistence layout used when no persist_format is given
func (t Type) defaultLayout() string {
	switch t {
	case TypeDate:
		return "2006-01-02"
	case TypeDatetime:
		return "2006-01-02 15:04:05"
	case TypeTime:
		return "15:04:05"
	default:
		return ""
	}
}
