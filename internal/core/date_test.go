package core

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNewDateValidRange(t *testing.T) {
	cumulative := [13]int{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	for _, year := range []uint16{0, 1999, 2023, 65535} {
		for m := uint8(1); m <= 12; m++ {
			for d := uint8(1); d <= 31; d++ {
				date, err := NewDate(year, m, d)
				if err != nil {
					t.Fatalf("NewDate(%d,%d,%d) unexpected error: %v", year, m, d, err)
				}
				wantWeek := uint8((cumulative[m] + int(d) + 6) / 7)
				gy, gm, gd, gw := date.Parts()
				if gy != year || gm != m || gd != d || gw != wantWeek {
					t.Fatalf("Parts() = (%d,%d,%d,%d), want (%d,%d,%d,%d)", gy, gm, gd, gw, year, m, d, wantWeek)
				}
			}
		}
	}
}

func TestNewDateInvalid(t *testing.T) {
	cases := []struct {
		name       string
		month, day uint8
		want       error
	}{
		{"month 13", 13, 23, ErrInvalidMonth},
		{"month 0", 0, 1, ErrInvalidMonth},
		{"day 0", 11, 0, ErrInvalidDay},
		{"day 32", 11, 32, ErrInvalidDay},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDate(2023, tc.month, tc.day)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMustDatePanicsLikeNewDateFails(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for month 13")
		}
	}()
	MustDate(2023, 13, 1)
}

func TestWeekBoundaries(t *testing.T) {
	cases := []struct {
		month, day, week uint8
	}{
		{1, 1, 1},
		{1, 7, 1},
		{1, 8, 2},
		{7, 9, 28}, // 31+28+31+30+31+30+9 = 190, ceil(190/7) = 28
		{12, 31, 53},
	}
	for _, tc := range cases {
		if got := MustDate(2023, tc.month, tc.day).Week(); got != tc.week {
			t.Errorf("week of 2023-%02d-%02d = %d, want %d", tc.month, tc.day, got, tc.week)
		}
	}
}

func TestOrdering(t *testing.T) {
	ordered := []Date{
		MustDate(2000, 1, 1),
		MustDate(2000, 1, 2),
		MustDate(2000, 2, 1),
		MustDate(2001, 1, 1),
	}
	for i := 0; i+1 < len(ordered); i++ {
		if !ordered[i].Before(ordered[i+1]) || !ordered[i+1].After(ordered[i]) {
			t.Fatalf("%s should be before %s", ordered[i], ordered[i+1])
		}
		if ordered[i].Compare(ordered[i+1]) != -1 || ordered[i+1].Compare(ordered[i]) != 1 {
			t.Fatalf("Compare disagrees for %s and %s", ordered[i], ordered[i+1])
		}
	}
	now := MustDate(2000, 11, 23)
	if now != MustDate(2000, 11, 23) || now.Compare(now) != 0 {
		t.Fatal("equal dates must compare equal")
	}
}

func TestSetters(t *testing.T) {
	date := MustDate(2023, 11, 23)

	date.SetYear(2024)
	if date.Year() != 2024 || date.Month() != 11 || date.Day() != 23 {
		t.Fatalf("SetYear changed other fields: %s", date)
	}

	if err := date.SetMonth(13); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("SetMonth(13) err = %v", err)
	}
	if err := date.SetMonth(0); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("SetMonth(0) err = %v", err)
	}
	if err := date.SetMonth(12); err != nil {
		t.Fatalf("SetMonth(12) err = %v", err)
	}
	if date != MustDate(2024, 12, 23) {
		t.Fatalf("after SetMonth got %s week %d", date, date.Week())
	}

	if err := date.SetDay(32); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("SetDay(32) err = %v", err)
	}
	if err := date.SetDay(0); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("SetDay(0) err = %v", err)
	}
	if err := date.SetDay(31); err != nil {
		t.Fatalf("SetDay(31) err = %v", err)
	}
	if date.Week() != 53 || date != MustDate(2024, 12, 31) {
		t.Fatalf("after SetDay got %s week %d", date, date.Week())
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2023-03-15")
	if err != nil || got != MustDate(2023, 3, 15) {
		t.Fatalf("ParseDate = %s, %v", got, err)
	}
	got, err = ParseDate("2023-07")
	if err != nil || got != MustDate(2023, 7, 1) {
		t.Fatalf("ParseDate month form = %s, %v", got, err)
	}
	for _, bad := range []string{"", "2023", "2023-13-01", "2023-01-32", "x-01-01"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) expected error", bad)
		}
	}
}

func TestNextMonth(t *testing.T) {
	if got := MustDate(2023, 12, 15).NextMonth(); got != MustDate(2024, 1, 1) {
		t.Fatalf("NextMonth across year = %s", got)
	}
	if got := MustDate(2023, 2, 28).NextMonth(); got != MustDate(2023, 3, 1) {
		t.Fatalf("NextMonth = %s", got)
	}
}

func TestDateYAMLIsRawInteger(t *testing.T) {
	date := MustDate(2023, 7, 9)
	out, err := yaml.Marshal(map[string]Date{"d": date})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back map[string]Date
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["d"] != date {
		t.Fatalf("round trip = %s, want %s", back["d"], date)
	}

	var raw map[string]uint32
	if err := yaml.Unmarshal(out, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["d"] != uint32(date) {
		t.Fatalf("serialized %d, want packed %d", raw["d"], uint32(date))
	}

	// month 0 is never a valid layout
	var bad map[string]Date
	if err := yaml.Unmarshal([]byte("d: 131072\n"), &bad); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateJSON(t *testing.T) {
	d := MustDate(2023, 7, 1)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2023-07-01"` {
		t.Fatalf("Marshal = %s", b)
	}

	var got Date
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got != d {
		t.Fatalf("Unmarshal = %v, want %v", got, d)
	}

	if err := json.Unmarshal([]byte(`20230701`), &got); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("number: %v", err)
	}
}
