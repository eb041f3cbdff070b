package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the declared primitive type of a schema field.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindStringSlice
)

// Field declares one payload field and its constraints. Min/Max of zero mean
// unbounded; MaxLen of zero means unbounded.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	MaxLen   int
	Min      float64
	Max      float64
	Enum     []string
	Media    bool // value is a URL produced by the uploader
	Default  any  // applied on create when the field is absent
}

// Schema is the validation contract of one resource. The create contract
// enforces required fields and applies defaults; the update contract makes
// every field optional. Both reject unknown fields.
type Schema struct {
	fields []Field
	index  map[string]int
}

func NewSchema(fields ...Field) *Schema {
	s := &Schema{fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// MediaFields returns the fields whose values come from file uploads.
func (s *Schema) MediaFields() []Field {
	var out []Field
	for _, f := range s.fields {
		if f.Media {
			out = append(out, f)
		}
	}
	return out
}

// ValidateCreate checks a payload against the create contract and returns a
// document containing only declared fields, with defaults applied.
func (s *Schema) ValidateCreate(in map[string]any) (map[string]any, error) {
	out, errs := s.check(in)
	for _, f := range s.fields {
		if _, present := out[f.Name]; present {
			continue
		}
		if f.Default != nil {
			out[f.Name] = f.Default
			continue
		}
		if f.Required {
			errs = append(errs, FieldError{Field: f.Name, Message: "is required"})
		}
	}
	if len(errs) > 0 {
		return nil, newValidationError(errs...)
	}
	return out, nil
}

// ValidateUpdate checks a payload against the update contract: every field is
// optional, but unknown fields and constraint violations are still rejected.
func (s *Schema) ValidateUpdate(in map[string]any) (map[string]any, error) {
	out, errs := s.check(in)
	if len(errs) > 0 {
		return nil, newValidationError(errs...)
	}
	if len(out) == 0 {
		return nil, newValidationError(FieldError{Field: "body", Message: "no updatable fields provided"})
	}
	return out, nil
}

func (s *Schema) check(in map[string]any) (map[string]any, []FieldError) {
	out := make(map[string]any, len(in))
	var errs []FieldError
	for name, val := range in {
		f, ok := s.Field(name)
		if !ok {
			errs = append(errs, FieldError{Field: name, Message: "unknown field"})
			continue
		}
		if msg := f.checkValue(val); msg != "" {
			errs = append(errs, FieldError{Field: name, Message: msg})
			continue
		}
		out[name] = val
	}
	return out, errs
}

func (f Field) checkValue(val any) string {
	switch f.Kind {
	case KindString:
		sv, ok := val.(string)
		if !ok {
			return "must be a string"
		}
		if f.Required && strings.TrimSpace(sv) == "" {
			return "must not be empty"
		}
		if f.MaxLen > 0 && len(sv) > f.MaxLen {
			return fmt.Sprintf("exceeds maximum length of %d", f.MaxLen)
		}
		if len(f.Enum) > 0 && !contains(f.Enum, sv) {
			return "must be one of: " + strings.Join(f.Enum, ", ")
		}
	case KindInt:
		iv, ok := val.(int64)
		if !ok {
			return "must be an integer"
		}
		if msg := f.checkBounds(float64(iv)); msg != "" {
			return msg
		}
	case KindFloat:
		fv, ok := val.(float64)
		if !ok {
			return "must be a number"
		}
		if msg := f.checkBounds(fv); msg != "" {
			return msg
		}
	case KindBool:
		if _, ok := val.(bool); !ok {
			return "must be a boolean"
		}
	case KindTime:
		if _, ok := val.(time.Time); !ok {
			return "must be an RFC3339 timestamp"
		}
	case KindStringSlice:
		sl, ok := val.([]string)
		if !ok {
			return "must be a list of strings"
		}
		if f.MaxLen > 0 && len(sl) > f.MaxLen {
			return fmt.Sprintf("exceeds maximum of %d items", f.MaxLen)
		}
	}
	return ""
}

func (f Field) checkBounds(v float64) string {
	if f.Min == 0 && f.Max == 0 {
		return ""
	}
	if v < f.Min {
		return "must be at least " + strconv.FormatFloat(f.Min, 'f', -1, 64)
	}
	if f.Max != 0 && v > f.Max {
		return "must be at most " + strconv.FormatFloat(f.Max, 'f', -1, 64)
	}
	return ""
}

// Coerce converts raw request values into the field's declared type. Numeric
// and time coercion happens here, at the handler boundary, never inside the
// validator.
func (f Field) Coerce(val any) (any, error) {
	switch f.Kind {
	case KindString:
		if s, ok := val.(string); ok {
			return s, nil
		}
	case KindInt:
		switch v := val.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case float64:
			if v == float64(int64(v)) {
				return int64(v), nil
			}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, nil
			}
		}
	case KindFloat:
		switch v := val.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		case string:
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				return n, nil
			}
		}
	case KindBool:
		switch v := val.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, nil
			}
		}
	case KindTime:
		switch v := val.(type) {
		case time.Time:
			return v, nil
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t, nil
			}
		}
	case KindStringSlice:
		switch v := val.(type) {
		case []string:
			return v, nil
		case []any:
			out := make([]string, 0, len(v))
			for _, e := range v {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("element is not a string")
				}
				out = append(out, s)
			}
			return out, nil
		case string:
			if v == "" {
				return []string{}, nil
			}
			parts := strings.Split(v, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %T", val)
}

func contains(set []string, s string) bool {
	for _, e := range set {
		if e == s {
			return true
		}
	}
	return false
}
