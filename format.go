package sqlqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/shopspring/decimal"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// NullLiteral is returned by the formatting helpers for nil values
const NullLiteral = "NULL"

// Number formats a number (or a slice/array of numbers) for inline use in SQL
//
// nil (or a nil pointer) formats as NULL; slice elements are joined with commas.
// strings must hold a valid number
func (d *Driver) Number(v any) (string, error) {
	return formatList(v, formatNumber)
}

// String formats a value (or a slice/array of values) as quoted, escaped string literal(s) for inline use in SQL
//
// nil (or a nil pointer) formats as NULL; slice elements are joined with commas.
// escaping is backend specific, so String connects to the server if not already connected
func (d *Driver) String(ctx context.Context, v any) (string, error) {
	return formatList(v, func(e any) (string, error) {
		return d.stringLiteral(ctx, e)
	})
}

// Bool formats a boolean (or a slice/array of booleans) as TRUE/FALSE for inline use in SQL
//
// nil (or a nil pointer) formats as NULL; numbers are true when non-zero; strings are parsed with strconv.ParseBool
func (d *Driver) Bool(v any) (string, error) {
	return formatList(v, formatBool)
}

// Scalar formats a value (or a slice/array of values) according to its type - booleans as Bool, numbers as Number
// and everything else as String
func (d *Driver) Scalar(ctx context.Context, v any) (string, error) {
	return formatList(v, func(e any) (string, error) {
		switch {
		case isBool(e):
			return formatBool(e)
		case isNumber(e):
			return formatNumber(e)
		}
		return d.stringLiteral(ctx, e)
	})
}

func (d *Driver) stringLiteral(ctx context.Context, v any) (string, error) {
	if err := d.checkOpen(); err != nil {
		return "", err
	}
	var s string
	switch sv := v.(type) {
	case string:
		s = sv
	case []byte:
		s = string(sv)
	case time.Time:
		s = sv.Format("2006-01-02 15:04:05.999999")
	case fmt.Stringer:
		s = sv.String()
	default:
		if isBool(v) {
			if reflect.ValueOf(v).Bool() {
				s = "1"
			} else {
				s = "0"
			}
		} else if isNumber(v) {
			var err error
			if s, err = formatNumber(v); err != nil {
				return "", err
			}
		} else if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
			s = rv.String()
		} else {
			return "", newError(MisuseError, d.backend.Name(), nil, "type %T cannot be formatted as a string", v)
		}
	}
	if err := d.ensureConnected(ctx); err != nil {
		return "", err
	}
	return d.backend.Escape(s), nil
}

// formatList formats v with scalar - or, if v is a slice/array, formats each element with scalar
func formatList(v any, scalar func(any) (string, error)) (string, error) {
	rv, null := deref(v)
	if null {
		return NullLiteral, nil
	}
	if (rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8) || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := range parts {
			ev, enull := deref(rv.Index(i).Interface())
			if enull {
				parts[i] = NullLiteral
				continue
			}
			s, err := scalar(ev.Interface())
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ","), nil
	}
	return scalar(rv.Interface())
}

func deref(v any) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv, true
		}
		rv = rv.Elem()
	}
	return rv, false
}

func isBool(v any) bool {
	return reflect.ValueOf(v).Kind() == reflect.Bool
}

func isNumber(v any) bool {
	switch v.(type) {
	case decimal.Decimal, json.Number:
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func formatNumber(v any) (string, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n.String(), nil
	case json.Number:
		return parseNumber(string(n))
	case []byte:
		return parseNumber(string(n))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("%v is not a finite number", f)
		}
		return strconv.FormatFloat(f, 'f', -1, rv.Type().Bits()), nil
	case reflect.Bool:
		if rv.Bool() {
			return "1", nil
		}
		return "0", nil
	case reflect.String:
		return parseNumber(rv.String())
	}
	return "", fmt.Errorf("type %T is not a number", v)
}

func parseNumber(s string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%q is not a number", s)
	}
	return d.String(), nil
}

func formatBool(v any) (string, error) {
	rv := reflect.ValueOf(v)
	var b bool
	switch rv.Kind() {
	case reflect.Bool:
		b = rv.Bool()
	case reflect.String:
		var err error
		if b, err = strconv.ParseBool(strings.TrimSpace(rv.String())); err != nil {
			return "", fmt.Errorf("%q is not a bool", rv.String())
		}
	default:
		if !isNumber(v) {
			return "", fmt.Errorf("type %T is not a bool", v)
		}
		s, err := formatNumber(v)
		if err != nil {
			return "", err
		}
		b = !decimal.RequireFromString(s).IsZero()
	}
	if b {
		return "TRUE", nil
	}
	return "FALSE", nil
}
