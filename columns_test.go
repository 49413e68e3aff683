package sqlqueue

import (
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"strings"
	"testing"
	"time"
)

func TestTypeOf(t *testing.T) {
	testCases := []struct {
		dbType      string
		useDecimals bool
		expect      ColumnType
	}{
		{"INT", true, TypeInt},
		{"BIGINT", true, TypeInt},
		{"UNSIGNED BIGINT", true, TypeInt},
		{"tinyint", true, TypeInt},
		{"INT4", true, TypeInt},
		{"INT8", true, TypeInt},
		{"DOUBLE", true, TypeFloat},
		{"FLOAT8", true, TypeFloat},
		{"DECIMAL", true, TypeDecimal},
		{"NUMERIC", true, TypeDecimal},
		{"DECIMAL", false, TypeText},
		{"BOOL", true, TypeBool},
		{"BOOLEAN", true, TypeBool},
		{"JSON", true, TypeJSON},
		{"JSONB", true, TypeJSON},
		{"VARCHAR", true, TypeText},
		{"DATETIME", true, TypeText},
		{"", true, TypeText},
	}
	for _, tc := range testCases {
		t.Run(tc.dbType, func(t *testing.T) {
			require.Equal(t, tc.expect, TypeOf(tc.dbType, tc.useDecimals))
		})
	}
}

func TestColumnType_String(t *testing.T) {
	assert.Equal(t, "text", TypeText.String())
	assert.Equal(t, "int", TypeInt.String())
	assert.Equal(t, "float", TypeFloat.String())
	assert.Equal(t, "decimal", TypeDecimal.String())
	assert.Equal(t, "bool", TypeBool.String())
	assert.Equal(t, "json", TypeJSON.String())
}

func TestNewColumnsInfo(t *testing.T) {
	info := newColumnsInfo([]Column{
		{Name: "a", DatabaseType: "VARCHAR"},
		{Name: "b", DatabaseType: "INT"},
		{Name: "c", DatabaseType: "DECIMAL"},
	}, true, Mappings{
		"a": {PropertyName: "aaa"},
		"c": {
			Scanner: func(src any) (value any, err error) {
				return "custom", nil
			},
		},
	})
	require.Equal(t, 3, info.count)
	require.Equal(t, []string{"a", "b", "c"}, info.names)
	require.Equal(t, []string{"aaa", "b", "c"}, info.keys)
	require.Equal(t, []ColumnType{TypeText, TypeInt, TypeDecimal}, info.types)

	row, err := info.convert([]any{[]byte("x"), []byte("16"), []byte("16.16")})
	require.NoError(t, err)
	require.Equal(t, []any{"x", int64(16), "custom"}, row)

	row, err = info.convert([]any{nil, nil, nil})
	require.NoError(t, err)
	require.Equal(t, []any{nil, nil, nil}, row)
}

func TestColumnsInfo_MarkJSON(t *testing.T) {
	info := newColumnsInfo([]Column{{Name: "a", DatabaseType: "TEXT"}}, true, nil)
	info.markJSON("a", "unknown")
	require.Equal(t, TypeJSON, info.types[0])
	row, err := info.convert([]any{`{"foo":"bar"}`})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"foo": "bar"}, row[0])
}

func TestColumnsInfo_MarkJSON_KeepsMappedScanner(t *testing.T) {
	upper := func(src any) (any, error) {
		return strings.ToUpper(src.(string)), nil
	}
	info := newColumnsInfo([]Column{{Name: "a", DatabaseType: "TEXT"}, {Name: "b", DatabaseType: "TEXT"}}, true,
		Mappings{"a": {Scanner: upper}, "b": {PropertyName: "bee"}})
	info.markJSON("a", "b")
	require.Equal(t, TypeText, info.types[0])
	require.Equal(t, TypeJSON, info.types[1])
	row, err := info.convert([]any{`{"foo":"bar"}`, `{"foo":"bar"}`})
	require.NoError(t, err)
	require.Equal(t, `{"FOO":"BAR"}`, row[0])
	require.Equal(t, map[string]any{"foo": "bar"}, row[1])
}

func TestColumnsInfo_ConvertError(t *testing.T) {
	info := newColumnsInfo([]Column{{Name: "a", DatabaseType: "INT"}}, true, nil)
	_, err := info.convert([]any{"not an int"})
	require.Error(t, err)
	var dbErr *Error
	require.ErrorAs(t, err, &dbErr)
	require.Equal(t, ConversionError, dbErr.Kind)
	require.Contains(t, dbErr.Message, `column "a" (int)`)
}

func TestTextColumn(t *testing.T) {
	v, err := TextColumn([]byte("bar"))
	require.NoError(t, err)
	require.Equal(t, "bar", v)
	v, err = TextColumn("foo")
	require.NoError(t, err)
	require.Equal(t, "foo", v)
	v, err = TextColumn(16)
	require.NoError(t, err)
	require.Equal(t, 16, v)
}

func TestIntColumn(t *testing.T) {
	v, err := IntColumn([]byte("42"))
	require.NoError(t, err)
	require.Equal(t, int64(42), v)
	v, err = IntColumn("-42")
	require.NoError(t, err)
	require.Equal(t, int64(-42), v)
	v, err = IntColumn(int32(16))
	require.NoError(t, err)
	require.Equal(t, int64(16), v)
	v, err = IntColumn(float64(16))
	require.NoError(t, err)
	require.Equal(t, int64(16), v)
	v, err = IntColumn(true)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	v, err = IntColumn([]byte("18446744073709551615"))
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)
	v, err = IntColumn(uint64(math.MaxUint64))
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)
	v, err = IntColumn(uint64(16))
	require.NoError(t, err)
	require.Equal(t, int64(16), v)

	_, err = IntColumn("x")
	require.Error(t, err)
	_, err = IntColumn(16.5)
	require.Error(t, err)
	_, err = IntColumn(struct{}{})
	require.Error(t, err)
}

func TestFloatColumn(t *testing.T) {
	v, err := FloatColumn([]byte("16.5"))
	require.NoError(t, err)
	require.Equal(t, 16.5, v)
	v, err = FloatColumn("1e3")
	require.NoError(t, err)
	require.Equal(t, 1000.0, v)
	v, err = FloatColumn(float32(20.5))
	require.NoError(t, err)
	require.Equal(t, 20.5, v)
	v, err = FloatColumn(int64(2))
	require.NoError(t, err)
	require.Equal(t, 2.0, v)
	_, err = FloatColumn("x")
	require.Error(t, err)
	_, err = FloatColumn(true)
	require.Error(t, err)
}

func TestDecimalColumn(t *testing.T) {
	v, err := DecimalColumn(16.1)
	require.NoError(t, err)
	require.Equal(t, "16.1", v.(decimal.Decimal).String())
	v, err = DecimalColumn(float32(20.5))
	require.NoError(t, err)
	require.Equal(t, "20.5", v.(decimal.Decimal).String())
	v, err = DecimalColumn(int64(20))
	require.NoError(t, err)
	require.Equal(t, "20", v.(decimal.Decimal).String())
	v, err = DecimalColumn(`30.5`)
	require.NoError(t, err)
	require.Equal(t, "30.5", v.(decimal.Decimal).String())
	v, err = DecimalColumn(`"40.5"`)
	require.NoError(t, err)
	require.Equal(t, "40.5", v.(decimal.Decimal).String())
	v, err = DecimalColumn([]byte(`50.5`))
	require.NoError(t, err)
	require.Equal(t, "50.5", v.(decimal.Decimal).String())
	v, err = DecimalColumn([]byte(`"60.5"`))
	require.NoError(t, err)
	require.Equal(t, "60.5", v.(decimal.Decimal).String())
	v, err = DecimalColumn(decimal.NewFromInt(7))
	require.NoError(t, err)
	require.Equal(t, "7", v.(decimal.Decimal).String())
	_, err = DecimalColumn("x")
	require.Error(t, err)
	_, err = DecimalColumn(true)
	require.Error(t, err)
}

func TestBoolColumn(t *testing.T) {
	testCases := []struct {
		src    any
		expect bool
	}{
		{"t", true},
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{[]byte("t"), true},
		{[]byte("1"), true},
		{"f", false},
		{"0", false},
		{"false", false},
		{"yes", false},
		{"", false},
		{true, true},
		{false, false},
		{int64(2), true},
		{int64(0), false},
		{float64(0), false},
	}
	for _, tc := range testCases {
		v, err := BoolColumn(tc.src)
		require.NoError(t, err)
		require.Equal(t, tc.expect, v, "%#v", tc.src)
	}
	_, err := BoolColumn(struct{}{})
	require.Error(t, err)
}

func TestJSONColumn(t *testing.T) {
	v, err := JSONColumn(`{"foo":"bar"}`)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"foo": "bar"}, v)
	v, err = JSONColumn([]byte(`["foo",1]`))
	require.NoError(t, err)
	require.Equal(t, []any{"foo", float64(1)}, v)
	_, err = JSONColumn(`{not valid json}`)
	require.Error(t, err)
	_, err = JSONColumn([]byte(`[not valid json]`))
	require.Error(t, err)
	v, err = JSONColumn(16)
	require.NoError(t, err)
	require.Equal(t, 16, v)
}

func TestTimeColumn(t *testing.T) {
	v, err := TimeColumn("2024-01-02 03:04:05")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), v)
	v, err = TimeColumn([]byte("2024-01-02 03:04:05.123456+00"))
	require.NoError(t, err)
	require.Equal(t, 123456000, v.(time.Time).Nanosecond())
	v, err = TimeColumn("2024-01-02")
	require.NoError(t, err)
	require.Equal(t, 2, v.(time.Time).Day())
	now := time.Now()
	v, err = TimeColumn(now)
	require.NoError(t, err)
	require.Equal(t, now, v)
	_, err = TimeColumn("not a time")
	require.Error(t, err)
	_, err = TimeColumn(16)
	require.Error(t, err)
}
