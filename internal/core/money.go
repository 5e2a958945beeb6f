// Package core provides the packed date, monetary sanitizing and the
// current-date source shared by the depot engine.
//
// This file contains the helpers that turn loose user input into monetary
// values rounded to two decimal places.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundMonetary rounds v to two decimal places, keeping its sign.
//
//	RoundMonetary(-1235.019) -> -1235.02
func RoundMonetary(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundMonetaryAbs rounds |v| to two decimal places.
//
//	RoundMonetaryAbs(-1235.019) -> 1235.02
func RoundMonetaryAbs(v float64) float64 {
	return math.Round(math.Abs(v)*100) / 100
}

// ParseMonetary parses a loosely formatted amount such as " 339,59 €" or
// "-9876,54321". Commas become dots and everything except digits, dots and
// sign characters is dropped before parsing. The result is not rounded.
// An empty input is zero. When abs is set the absolute value is returned.
//
// Examples:
//
//	ParseMonetary(" asdasd 339,59 €", false) -> 339.59, nil
//	ParseMonetary("-9876,54321", true)       -> 9876.54321, nil
//	ParseMonetary("1.2.3", false)            -> 0, ErrInvalidAmount
func ParseMonetary(s string, abs bool) (float64, error) {
	if s == "" {
		return 0, nil
	}
	residue := cleanMonetary(s)
	if residue == "" {
		return 0, fmt.Errorf("%w: nothing numeric in %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(residue)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot parse %q", ErrInvalidAmount, residue)
	}
	if abs {
		d = d.Abs()
	}
	return d.InexactFloat64(), nil
}

func cleanMonetary(s string) string {
	s = strings.ReplaceAll(s, ",", ".")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+':
			return r
		}
		return -1
	}, s)
}
