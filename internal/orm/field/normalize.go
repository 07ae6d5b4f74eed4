package field

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/conduit-lang/datamap/internal/orm/validation"
)

// Normalizer is the type-specific phase of normalization. It receives the raw
// value and returns an intermediate value that Field.Normalize then passes
// through the generic rules for the field's type.
type Normalizer interface {
	Normalize(ctx context.Context, f *Field, value any) (any, error)
}

// NormalizerFunc adapts a function to the Normalizer interface
type NormalizerFunc func(ctx context.Context, f *Field, value any) (any, error)

// Normalize implements Normalizer
func (fn NormalizerFunc) Normalize(ctx context.Context, f *Field, value any) (any, error) {
	return fn(ctx, f, value)
}

// Normalize converts raw into the field's canonical value or returns a
// *validation.Error. Partial results are never returned.
func (f *Field) Normalize(ctx context.Context, raw any) (any, error) {
	value := raw
	if f.Normalizer != nil && value != nil {
		v, err := f.Normalizer.Normalize(ctx, f, value)
		if err != nil {
			return nil, err
		}
		value = v
	}
	return f.normalizeGeneric(value)
}

func (f *Field) normalizeGeneric(value any) (any, error) {
	if value == nil {
		if f.Required {
			return nil, validation.New(f.Name, validation.KindRequired, "Must not be null")
		}
		return nil, nil
	}

	v, err := f.convert(value)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok && s == "" && f.Required {
		return nil, validation.New(f.Name, validation.KindRequired, "Must not be empty")
	}
	return v, nil
}

// convert applies the per-type conversion rules to a non-nil value
func (f *Field) convert(value any) (any, error) {
	switch f.Type {
	case TypeString, TypeEmail:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil, f.typeError()
		}
		return strings.TrimSpace(strings.NewReplacer("\r", "", "\n", "").Replace(s)), nil

	case TypeText:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil, f.typeError()
		}
		return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s), nil

	case TypeBoolean:
		return f.toBool(value)

	case TypeInteger:
		return f.toInt(value)

	case TypeFloat:
		return f.toFloat(value)

	case TypeMoney:
		v, err := f.toFloat(value)
		if err != nil {
			return nil, err
		}
		return math.Round(v*1e4) / 1e4, nil

	case TypeDate, TypeDatetime, TypeTime:
		return f.toTime(value)

	case TypeComposite:
		return f.toComposite(value)

	default:
		return value, nil
	}
}

func (f *Field) typeError() error {
	return validation.New(f.Name, validation.KindType, fmt.Sprintf("must be %s", f.Type))
}

func (f *Field) toBool(value any) (bool, error) {
	if s, ok := value.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "on", "y":
			return true, nil
		case "no", "off", "n":
			return false, nil
		}
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return false, f.typeError()
	}
	return b, nil
}

func (f *Field) toInt(value any) (int64, error) {
	switch v := value.(type) {
	case string:
		s := cleanNumber(v)
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return i, nil
		}
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, f.typeError()
		}
		return f.wholeFloat(fl)
	case float32, float64:
		return f.wholeFloat(cast.ToFloat64(v))
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, f.typeError()
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, f.typeError()
		}
		return int64(v), nil
	}
	i, err := cast.ToInt64E(value)
	if err != nil {
		return 0, f.typeError()
	}
	return i, nil
}

// wholeFloat converts fl when it is integral and inside the int64 range
func (f *Field) wholeFloat(fl float64) (int64, error) {
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if fl != math.Trunc(fl) || fl < math.MinInt64 || fl >= math.MaxInt64 {
		return 0, f.typeError()
	}
	return int64(fl), nil
}

func (f *Field) toFloat(value any) (float64, error) {
	if s, ok := value.(string); ok {
		fl, err := strconv.ParseFloat(cleanNumber(s), 64)
		if err != nil {
			return 0, f.typeError()
		}
		return fl, nil
	}
	fl, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, f.typeError()
	}
	return fl, nil
}

// cleanNumber drops whitespace and thousands separators
func cleanNumber(s string) string {
	return strings.NewReplacer(" ", "", ",", "", "\t", "").Replace(s)
}

func (f *Field) toTime(value any) (time.Time, error) {
	loc := f.location()
	switch v := value.(type) {
	case time.Time:
		return v.In(loc), nil
	case *time.Time:
		if v == nil {
			return time.Time{}, f.typeError()
		}
		return v.In(loc), nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range f.layouts() {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, nil
			}
		}
		return time.Time{}, f.typeError()
	}
	secs, err := cast.ToInt64E(value)
	if err != nil {
		return time.Time{}, f.typeError()
	}
	return time.Unix(secs, 0).In(loc), nil
}

// layouts returns the accepted parse layouts, most specific first
func (f *Field) layouts() []string {
	layouts := make([]string, 0, 6)
	if f.Persistence.Format != "" {
		layouts = append(layouts, f.Persistence.Format)
	}
	if l := f.Type.defaultLayout(); l != "" {
		layouts = append(layouts, l)
	}
	return append(layouts, time.RFC3339Nano, time.RFC3339, "2006-01-02", "15:04:05")
}

func (f *Field) location() *time.Location {
	if f.Persistence.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(f.Persistence.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (f *Field) toComposite(value any) (any, error) {
	if s, ok := value.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, f.typeError()
		}
		return decoded, nil
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return value, nil
	default:
		return nil, f.typeError()
	}
}
