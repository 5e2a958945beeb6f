package investing

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSection means a savings plan section does not end after it starts.
	ErrMalformedSection = errors.New("malformed savings plan section")
	ErrUnknownVariant   = errors.New("unknown investment variant")
	ErrUnknownInterval  = errors.New("unknown savings plan interval")
	ErrUnknownField     = errors.New("unknown month field")
	ErrInvalidMonthNr   = errors.New("month number out of range")
	ErrEntryNotFound    = errors.New("depot entry not found")
	ErrYearNotFound     = errors.New("year not found in history")
	ErrSectionNotFound  = errors.New("savings plan section not found")
	ErrDuplicateYear    = errors.New("duplicate year in history")
)

// OverlapError is returned when a new section touches or intersects an
// existing one. Existing is a copy of the conflicting section.
type OverlapError struct {
	Existing Section
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("savings plan section overlaps existing section %s", e.Existing)
}
