package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/medgraph/loader/internal/schema"
)

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "2006"}

// isNull reports whether a raw field value decodes as null. The upstream
// export writes NULL tokens literally.
func isNull(v string) bool {
	switch v {
	case "", "NULL", "null":
		return true
	}
	return false
}

// coerce converts a raw field value to its typed form. Null values and
// coercion failures return (nil, err); the caller decides whether err is
// fatal based on the field's Required flag.
func coerce(raw string, f schema.Field) (any, error) {
	v := strings.TrimSpace(raw)
	if isNull(v) {
		if f.Required {
			return nil, fmt.Errorf("field %s: required but empty", f.Column)
		}
		return nil, nil
	}

	switch f.Type {
	case schema.TypeString:
		return v, nil
	case schema.TypeInt:
		// Exports sometimes serialize integers as "123.0".
		fl, err := strconv.ParseFloat(v, 64)
		if err != nil || fl != math.Trunc(fl) {
			return nil, fmt.Errorf("field %s: %q is not an integer", f.Column, v)
		}
		return int64(fl), nil
	case schema.TypeFloat:
		fl, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: %q is not a number", f.Column, v)
		}
		return fl, nil
	case schema.TypeBool:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
		if fl, err := strconv.ParseFloat(v, 64); err == nil {
			return fl != 0, nil
		}
		return nil, fmt.Errorf("field %s: %q is not a boolean", f.Column, v)
	case schema.TypeDate:
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, v); err == nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("field %s: %q is not a date", f.Column, v)
	case schema.TypeID:
		if strings.ContainsAny(v, " \t") {
			return nil, fmt.Errorf("field %s: %q is not a valid identifier", f.Column, v)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("field %s: unknown type %q", f.Column, f.Type)
	}
}
