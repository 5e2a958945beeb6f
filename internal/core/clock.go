package core

import "time"

// Clock is the single source of "now" for the depot engine.
type Clock interface {
	// Current returns the current calendar year and month (1-12).
	Current() (year uint16, month uint8)
}

// SystemClock reads the host clock in UTC.
type SystemClock struct{}

func (SystemClock) Current() (uint16, uint8) {
	now := time.Now().UTC()
	return uint16(now.Year()), uint8(now.Month())
}

// FixedClock always reports the same year and month.
type FixedClock struct {
	Year  uint16
	Month uint8
}

func (c FixedClock) Current() (uint16, uint8) { return c.Year, c.Month }

// CurrentYear is a convenience for callers that only need the year.
func CurrentYear(c Clock) uint16 {
	y, _ := c.Current()
	return y
}
