package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_Get_NormalizesEmpty(t *testing.T) {
	row := Row{
		"name":   "SH010",
		"empty":  "",
		"spaces": "   ",
		"null":   nil,
	}

	v, ok := row.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "SH010", v)

	for _, key := range []string{"empty", "spaces", "null", "missing"} {
		v, ok := row.Get(key)
		assert.False(t, ok, "key %q should normalize to absent", key)
		assert.Nil(t, v)
	}
}

func TestRow_CloneIsIndependent(t *testing.T) {
	row := Row{"status": "ip"}
	clone := row.Clone()
	clone["status"] = "fin"

	status, _ := row.String("status")
	assert.Equal(t, "ip", status)
}

func TestRow_Merge(t *testing.T) {
	row := Row{"status": "ip", "name": "comp"}
	row.Merge(Row{"status": "fin", "priority": int64(2)})

	status, _ := row.String("status")
	assert.Equal(t, "fin", status)
	priority, _ := row.Int64("priority")
	assert.Equal(t, int64(2), priority)
	name, _ := row.String("name")
	assert.Equal(t, "comp", name)
}

func TestCoerceString(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
		ok    bool
	}{
		{"string", "abc", "abc", true},
		{"bytes", []byte("abc"), "abc", true},
		{"int", 42, "42", true},
		{"int64", int64(42), "42", true},
		{"float", 1.5, "1.5", true},
		{"bool", true, "true", true},
		{"unsupported", map[string]string{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceString(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceInt64(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  int64
		ok    bool
	}{
		{"int64", int64(7), 7, true},
		{"float truncates", 7.9, 7, true},
		{"numeric string", " 12 ", 12, true},
		{"float string", "12.7", 12, true},
		{"garbage", "abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceInt64(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceBool(t *testing.T) {
	truthy := []interface{}{true, "true", "Yes", "on", "1", 1, 2.5}
	falsy := []interface{}{false, "false", "No", "off", "0", 0}

	for _, v := range truthy {
		got, ok := CoerceBool(v)
		require.True(t, ok, "value %v", v)
		assert.True(t, got, "value %v", v)
	}
	for _, v := range falsy {
		got, ok := CoerceBool(v)
		require.True(t, ok, "value %v", v)
		assert.False(t, got, "value %v", v)
	}

	_, ok := CoerceBool("maybe")
	assert.False(t, ok)
}

func TestCoerceTime(t *testing.T) {
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	got, ok := CoerceTime("2026-03-14")
	require.True(t, ok)
	assert.True(t, want.Equal(got))

	got, ok = CoerceTime("2026-03-14T10:30:00Z")
	require.True(t, ok)
	assert.Equal(t, 10, got.Hour())

	got, ok = CoerceTime("2026-03-14 10:30:00")
	require.True(t, ok)
	assert.Equal(t, 30, got.Minute())

	_, ok = CoerceTime("not a date")
	assert.False(t, ok)
}

func TestCoerceStrings(t *testing.T) {
	got, ok := CoerceStrings([]string{"a", " ", "b"})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	got, ok = CoerceStrings("a, b , ,c")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got, ok = CoerceStrings([]interface{}{"x", nil, int64(3)})
	require.True(t, ok)
	assert.Equal(t, []string{"x", "3"}, got)

	_, ok = CoerceStrings(42)
	assert.False(t, ok)
}

func TestMidnight(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	in := time.Date(2026, 3, 14, 17, 45, 12, 99, loc)
	got := Midnight(in)

	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}
