package util

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1234.5", 1234.5},
		{"$1,234.50", 1234.5},
		{"1.234.567", 1234567},
		{"1.500", 1.5},
		{"2.000.000", 2000000},
		{"12,5", 12.5},
		{"USD 99", 99},
		{"-42", -42},
		{"", 0},
		{"n/a", 0},
	}
	for _, c := range cases {
		if got := ParseAmount(c.in); got != c.want {
			t.Fatalf("ParseAmount(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-01-02", "2025/01/02", "2025.01.02"} {
		got, ok := ParseDate(in)
		if !ok || !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParseDate("not a date"); ok {
		t.Fatal("expected failure")
	}
}

func TestParseDateOr(t *testing.T) {
	fallback := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	if got := ParseDateOr("garbage", fallback); !got.Equal(fallback) {
		t.Fatalf("got %v", got)
	}
	if got := ParseDateOr("2025-06-01", fallback); got.Equal(fallback) {
		t.Fatal("valid date must not fall back")
	}
}
