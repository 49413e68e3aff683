package sqlqueue

import (
	"encoding/json"
	"fmt"
	"github.com/shopspring/decimal"
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the coercion tag derived from a column's backend type
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInt
	TypeFloat
	TypeDecimal
	TypeBool
	TypeJSON
)

func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeJSON:
		return "json"
	}
	return "text"
}

// UseDecimals is an option that determines whether DECIMAL/NUMERIC columns are fetched as decimal.Decimal
//
// by default they are - with UseDecimals(false) they are fetched as text
type UseDecimals bool

// ColumnScanner is a func that converts a raw (non-nil) cell value to the value returned by fetches
type ColumnScanner func(src any) (value any, err error)

// TypeOf derives the coercion tag for a backend type name
func TypeOf(databaseType string, useDecimals bool) ColumnType {
	dbt := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(databaseType)), "UNSIGNED ")
	switch dbt {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR",
		"INT2", "INT4", "INT8", "SERIAL", "SMALLSERIAL", "BIGSERIAL", "OID":
		return TypeInt
	case "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8", "DOUBLE PRECISION":
		return TypeFloat
	case "DECIMAL", "NUMERIC":
		if useDecimals {
			return TypeDecimal
		}
		return TypeText
	case "BOOL", "BOOLEAN":
		return TypeBool
	case "JSON", "JSONB":
		return TypeJSON
	}
	return TypeText
}

func scannerFor(ct ColumnType) ColumnScanner {
	switch ct {
	case TypeInt:
		return IntColumn
	case TypeFloat:
		return FloatColumn
	case TypeDecimal:
		return DecimalColumn
	case TypeBool:
		return BoolColumn
	case TypeJSON:
		return JSONColumn
	}
	return TextColumn
}

type columnsInfo struct {
	count    int
	names    []string
	keys     []string
	dbTypes  []string
	types    []ColumnType
	scanners []ColumnScanner
	mapped   []bool
}

func newColumnsInfo(cols []Column, useDecimals bool, mappings Mappings) *columnsInfo {
	count := len(cols)
	result := &columnsInfo{
		count:    count,
		names:    make([]string, count),
		keys:     make([]string, count),
		dbTypes:  make([]string, count),
		types:    make([]ColumnType, count),
		scanners: make([]ColumnScanner, count),
		mapped:   make([]bool, count),
	}
	for i, c := range cols {
		result.names[i] = c.Name
		result.keys[i] = c.Name
		result.dbTypes[i] = c.DatabaseType
		result.types[i] = TypeOf(c.DatabaseType, useDecimals)
		result.scanners[i] = scannerFor(result.types[i])
		if m, ok := mappings[c.Name]; ok {
			if m.PropertyName != "" {
				result.keys[i] = m.PropertyName
			}
			if m.Scanner != nil {
				result.scanners[i] = m.Scanner
				result.mapped[i] = true
			}
		}
	}
	return result
}

// markJSON switches the named columns to JSON coercion
//
// columns with a mapped Scanner keep it
func (ci *columnsInfo) markJSON(columns ...string) {
	for _, name := range columns {
		for i, n := range ci.names {
			if n == name && !ci.mapped[i] {
				ci.types[i] = TypeJSON
				ci.scanners[i] = JSONColumn
			}
		}
	}
}

// convert coerces a raw row into a new row of fetchable values
func (ci *columnsInfo) convert(raw []any) ([]any, error) {
	row := make([]any, ci.count)
	for i := 0; i < ci.count && i < len(raw); i++ {
		if raw[i] == nil {
			continue
		}
		v, err := ci.scanners[i](raw[i])
		if err != nil {
			return nil, &Error{
				Kind:     ConversionError,
				SQLState: DefaultSQLState,
				Message:  fmt.Sprintf("column %q (%s): %s", ci.names[i], ci.types[i], err.Error()),
				cause:    err,
			}
		}
		row[i] = v
	}
	return row, nil
}

// TextColumn is a ColumnScanner that passes values through, converting []byte to string
func TextColumn(src any) (any, error) {
	switch v := src.(type) {
	case []byte:
		return string(v), nil
	}
	return src, nil
}

// IntColumn is a ColumnScanner that converts a column to int64
//
// text values beyond the int64 range are returned as uint64
func IntColumn(src any) (any, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return v, nil
		}
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int64(v), nil
		}
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	}
	return nil, fmt.Errorf("type %T is not an int", src)
}

func parseInt(s string) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// FloatColumn is a ColumnScanner that converts a column to float64
func FloatColumn(src any) (any, error) {
	switch v := src.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return nil, fmt.Errorf("type %T is not a float", src)
}

// DecimalColumn is a ColumnScanner that converts a column to decimal.Decimal
func DecimalColumn(src any) (any, error) {
	switch v := src.(type) {
	case decimal.Decimal:
		return v, nil
	case float32:
		return decimal.NewFromFloat(float64(v)), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.New(v, 0), nil
	case []byte:
		if len(v) > 2 && v[0] == '"' && v[len(v)-1] == '"' {
			return decimal.NewFromString(string(v[1 : len(v)-1]))
		}
		return decimal.NewFromString(string(v))
	case string:
		if len(v) > 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
			return decimal.NewFromString(v[1 : len(v)-1])
		}
		return decimal.NewFromString(v)
	}
	return nil, fmt.Errorf("type %T is not a decimal", src)
}

// BoolColumn is a ColumnScanner that converts a column to bool
//
// text values are true only for the canonical true literals ("t", "true" or "1") - anything else is false
func BoolColumn(src any) (any, error) {
	switch v := src.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case []byte:
		return isTrueLiteral(string(v)), nil
	case string:
		return isTrueLiteral(v), nil
	}
	return nil, fmt.Errorf("type %T is not a bool", src)
}

func isTrueLiteral(s string) bool {
	switch s {
	case "t", "true", "TRUE", "1":
		return true
	}
	return false
}

// JSONColumn is a ColumnScanner that decodes a JSON column
func JSONColumn(src any) (any, error) {
	var v any
	switch data := src.(type) {
	case []byte:
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case string:
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return src, nil
}

// TimeColumn is a ColumnScanner that parses DATETIME/TIMESTAMP text (for use in Mapping.Scanner)
func TimeColumn(src any) (any, error) {
	var s string
	switch v := src.(type) {
	case time.Time:
		return v, nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return nil, fmt.Errorf("type %T is not a time", src)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("cannot parse %q as time", s)
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}
