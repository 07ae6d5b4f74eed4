package field

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Typecast converts a canonical value to its persisted form (Save) and back (Load)
type Typecast struct {
	Save func(value any) (any, error)
	Load func(value any) (any, error)
}

// Serializer encodes a value into a persistable scalar (Encode) and back (Decode)
type Serializer struct {
	Name   string
	Encode func(value any) (any, error)
	Decode func(value any) (any, error)
}

// JSON stores a value as a JSON document
var JSON = &Serializer{
	Name: "json",
	Encode: func(value any) (any, error) {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("json encode: %w", err)
		}
		return string(data), nil
	},
	Decode: func(value any) (any, error) {
		data, ok := asBytes(value)
		if !ok {
			return value, nil
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("json decode: %w", err)
		}
		return out, nil
	},
}

// YAML stores a value as a YAML document
var YAML = &Serializer{
	Name: "yaml",
	Encode: func(value any) (any, error) {
		data, err := yaml.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("yaml encode: %w", err)
		}
		return string(data), nil
	},
	Decode: func(value any) (any, error) {
		data, ok := asBytes(value)
		if !ok {
			return value, nil
		}
		var out any
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("yaml decode: %w", err)
		}
		return out, nil
	},
}

// SerializerByName returns a built-in serializer
func SerializerByName(name string) (*Serializer, error) {
	switch name {
	case "json":
		return JSON, nil
	case "yaml":
		return YAML, nil
	default:
		return nil, fmt.Errorf("%w: unknown serializer %q", ErrInvalidOptions, name)
	}
}

// ToPersistence converts a canonical value into the form handed to the backend:
// typecast save first, then serialize encode.
func (f *Field) ToPersistence(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	var err error
	if tc := f.typecast(); tc != nil && tc.Save != nil {
		if value, err = tc.Save(value); err != nil {
			return nil, fmt.Errorf("typecast %s: %w", f.Name, err)
		}
	}
	if f.Serialize != nil && f.Serialize.Encode != nil {
		if value, err = f.Serialize.Encode(value); err != nil {
			return nil, fmt.Errorf("serialize %s: %w", f.Name, err)
		}
	}
	return value, nil
}

// FromPersistence reverses ToPersistence: serialize decode, then typecast load
func (f *Field) FromPersistence(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	var err error
	if f.Serialize != nil && f.Serialize.Decode != nil {
		if value, err = f.Serialize.Decode(value); err != nil {
			return nil, fmt.Errorf("unserialize %s: %w", f.Name, err)
		}
	}
	if tc := f.typecast(); tc != nil && tc.Load != nil {
		if value, err = tc.Load(value); err != nil {
			return nil, fmt.Errorf("typecast %s: %w", f.Name, err)
		}
	}
	return value, nil
}

// typecast returns the explicit pair, or the default pair for the field type
func (f *Field) typecast() *Typecast {
	if f.Typecast != nil {
		return f.Typecast
	}

	switch {
	case f.Type.IsTemporal():
		return &Typecast{Save: f.formatTime, Load: f.loadValue}
	case f.Type == TypeComposite && f.Serialize == nil:
		return &Typecast{Save: JSON.Encode, Load: f.loadComposite}
	case f.Type == TypeUnspecified, f.Type == TypeOpaque:
		return nil
	default:
		return &Typecast{Load: f.loadValue}
	}
}

func (f *Field) formatTime(value any) (any, error) {
	t, ok := value.(time.Time)
	if !ok {
		return value, nil
	}
	layout := f.Persistence.Format
	if layout == "" {
		layout = f.Type.defaultLayout()
	}
	return t.In(f.location()).Format(layout), nil
}

// loadValue converts a backend scalar with the generic type rules
func (f *Field) loadValue(value any) (any, error) {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	return f.convert(value)
}

func (f *Field) loadComposite(value any) (any, error) {
	if _, ok := asBytes(value); ok {
		return JSON.Decode(value)
	}
	return value, nil
}

func asBytes(value any) ([]byte, bool) {
	switch v := value.(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	default:
		return nil, false
	}
}
