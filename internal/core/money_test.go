package core

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestRoundMonetary(t *testing.T) {
	const f = -1235.019
	if got := RoundMonetary(f); math.Abs(got-(-1235.02)) > 1e-9 {
		t.Fatalf("RoundMonetary(%v) = %v", f, got)
	}
	if got := RoundMonetaryAbs(f); math.Abs(got-1235.02) > 1e-9 {
		t.Fatalf("RoundMonetaryAbs(%v) = %v", f, got)
	}
	if got := RoundMonetary(10.004); got != 10 {
		t.Fatalf("RoundMonetary(10.004) = %v", got)
	}
}

func TestParseMonetary(t *testing.T) {
	cases := []struct {
		in  string
		abs bool
		out float64
		ok  bool
	}{
		{" asdasd 339,59 €", false, 339.59, true},
		{"-9876,54321", false, -9876.54321, true},
		{"-9876,54321", true, 9876.54321, true},
		{"9876.54321", false, 9876.54321, true},
		{"+9876.54321", true, 9876.54321, true},
		{"1.234", false, 1.234, true},
		{"", false, 0, true},
		{"1.2.3", false, 0, false},
		{"abc", false, 0, false},
		{"€", false, 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMonetary(tc.in, tc.abs)
		if tc.ok {
			if err != nil || math.Abs(got-tc.out) > 1e-9 {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestParseMonetaryErrorNamesResidue(t *testing.T) {
	_, err := ParseMonetary("x 1,2,3 y", false)
	if err == nil {
		t.Fatal("expected error")
	}
	if want := `"1.2.3"`; !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q does not mention residue %s", err, want)
	}
}
