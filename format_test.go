package sqlqueue

import (
	"encoding/json"
	"errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
	"time"
)

func TestDriver_Number(t *testing.T) {
	d, fb := newTestDriver(t)
	i := 16
	var np *int
	testCases := []struct {
		value  any
		expect string
	}{
		{nil, "NULL"},
		{np, "NULL"},
		{&i, "16"},
		{42, "42"},
		{int8(-3), "-3"},
		{uint64(math.MaxUint64), "18446744073709551615"},
		{1.5, "1.5"},
		{float32(0.25), "0.25"},
		{1e21, "1000000000000000000000"},
		{"12.50", "12.5"},
		{" 7 ", "7"},
		{decimal.RequireFromString("16.160"), "16.16"},
		{json.Number("3"), "3"},
		{true, "1"},
		{[]any{1, nil, 2.5}, "1,NULL,2.5"},
		{[]int{1, 2, 3}, "1,2,3"},
		{[2]string{"1", "2"}, "1,2"},
		{[]int{}, ""},
	}
	for _, tc := range testCases {
		s, err := d.Number(tc.value)
		require.NoError(t, err, "%#v", tc.value)
		assert.Equal(t, tc.expect, s, "%#v", tc.value)
	}
	assert.Equal(t, 0, fb.connects)
}

func TestDriver_Number_Errors(t *testing.T) {
	d, _ := newTestDriver(t)
	for _, v := range []any{"abc", math.NaN(), math.Inf(1), struct{}{}, []any{1, "x"}} {
		_, err := d.Number(v)
		require.Error(t, err, "%#v", v)
	}
}

func TestDriver_String(t *testing.T) {
	d, fb := newTestDriver(t)
	s, err := d.String(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "NULL", s)
	assert.Equal(t, 0, fb.connects)

	testCases := []struct {
		value  any
		expect string
	}{
		{"O'Reilly", "'O''Reilly'"},
		{"héllo wörld", "'héllo wörld'"},
		{"", "''"},
		{[]byte("bytes"), "'bytes'"},
		{42, "'42'"},
		{true, "'1'"},
		{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "'2024-01-02 03:04:05'"},
		{decimal.RequireFromString("1.50"), "'1.5'"},
		{[]string{"a", "b'c"}, "'a','b''c'"},
		{[]any{"a", nil}, "'a',NULL"},
	}
	for _, tc := range testCases {
		s, err := d.String(ctx, tc.value)
		require.NoError(t, err, "%#v", tc.value)
		assert.Equal(t, tc.expect, s, "%#v", tc.value)
	}
	assert.Equal(t, 1, fb.connects)

	_, err = d.String(ctx, struct{}{})
	var dbErr *Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, MisuseError, dbErr.Kind)
}

func TestDriver_String_ConnectError(t *testing.T) {
	d, fb := newTestDriver(t)
	fb.connectErr = errors.New("refused")
	_, err := d.String(ctx, "x")
	var dbErr *Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, ConnectionError, dbErr.Kind)
}

func TestDriver_Bool(t *testing.T) {
	d, _ := newTestDriver(t)
	b := false
	testCases := []struct {
		value  any
		expect string
	}{
		{nil, "NULL"},
		{true, "TRUE"},
		{&b, "FALSE"},
		{1, "TRUE"},
		{0, "FALSE"},
		{0.0, "FALSE"},
		{-0.5, "TRUE"},
		{decimal.Zero, "FALSE"},
		{"false", "FALSE"},
		{"1", "TRUE"},
		{[]bool{true, false}, "TRUE,FALSE"},
	}
	for _, tc := range testCases {
		s, err := d.Bool(tc.value)
		require.NoError(t, err, "%#v", tc.value)
		assert.Equal(t, tc.expect, s, "%#v", tc.value)
	}
	_, err := d.Bool("x")
	require.Error(t, err)
	_, err = d.Bool(struct{}{})
	require.Error(t, err)
}

func TestDriver_Scalar(t *testing.T) {
	d, _ := newTestDriver(t)
	s, err := d.Scalar(ctx, []any{1, "a", true, nil, 2.5, decimal.NewFromInt(3)})
	require.NoError(t, err)
	assert.Equal(t, "1,'a',TRUE,NULL,2.5,3", s)

	s, err = d.Scalar(ctx, "it's")
	require.NoError(t, err)
	assert.Equal(t, "'it''s'", s)
}
