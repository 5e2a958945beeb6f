package core

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Date is a calendar date packed into a single 32-bit word:
//
//	bits 31..16  year   (0..65535)
//	bits 15..12  month  (1..12)
//	bits 11..6   day    (1..31)
//	bits  5..0   week   (1..53, derived)
//
// Because the year sits in the highest bits, followed by month, day and week,
// comparing two Dates as integers compares them chronologically.
//
// Week is derived from month and day on a fixed 365-day year with a 28-day
// February. Leap years are ignored and the day is not checked against the
// length of its month.
type Date uint32

const (
	maskYear  Date = 0xFFFF_0000
	maskMonth Date = 0x0000_F000
	maskDay   Date = 0x0000_0FC0
	maskWeek  Date = 0x0000_003F

	shiftYear  = 16
	shiftMonth = 12
	shiftDay   = 6
)

// daysBeforeMonth[m] is the number of days in a 365-day year before month m.
var daysBeforeMonth = [13]uint16{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// NewDate returns the packed date for year, month and day.
// Month must be in 1..12 and day in 1..31.
func NewDate(year uint16, month, day uint8) (Date, error) {
	if err := validateMonthDay(month, day); err != nil {
		return 0, err
	}
	return pack(year, month, day), nil
}

// MustDate is like NewDate but panics on an out-of-range month or day.
// It is meant for callers whose inputs were already validated.
func MustDate(year uint16, month, day uint8) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(fmt.Sprintf("core.MustDate(%d, %d, %d): %v", year, month, day, err))
	}
	return d
}

// DefaultDate is January 1st 2000.
func DefaultDate() Date { return pack(2000, 1, 1) }

// MaxDate is December 31st 65535, the largest representable date.
func MaxDate() Date { return pack(^uint16(0), 12, 31) }

// ParseDate parses "YYYY-MM-DD". "YYYY-MM" is accepted and means the first of the month.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q, want YYYY-MM-DD", ErrInvalidDate, s)
	}
	year, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: year %q", ErrInvalidDate, parts[0])
	}
	month, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: month %q", ErrInvalidMonth, parts[1])
	}
	day := uint64(1)
	if len(parts) == 3 {
		day, err = strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: day %q", ErrInvalidDay, parts[2])
		}
	}
	return NewDate(uint16(year), uint8(month), uint8(day))
}

func (d Date) Year() uint16 { return uint16(d >> shiftYear) }
func (d Date) Month() uint8 { return uint8((d & maskMonth) >> shiftMonth) }
func (d Date) Day() uint8   { return uint8((d & maskDay) >> shiftDay) }
func (d Date) Week() uint8  { return uint8(d & maskWeek) }

// Parts returns year, month, day and week.
func (d Date) Parts() (year uint16, month, day, week uint8) {
	return d.Year(), d.Month(), d.Day(), d.Week()
}

func (d *Date) SetYear(year uint16) {
	*d = (*d &^ maskYear) | Date(year)<<shiftYear
}

// SetMonth replaces the month and recomputes the week.
func (d *Date) SetMonth(month uint8) error {
	if err := validateMonthDay(month, 1); err != nil {
		return err
	}
	*d = (*d &^ maskMonth) | Date(month)<<shiftMonth
	d.setWeek()
	return nil
}

// SetDay replaces the day and recomputes the week.
func (d *Date) SetDay(day uint8) error {
	if err := validateMonthDay(1, day); err != nil {
		return err
	}
	*d = (*d &^ maskDay) | Date(day)<<shiftDay
	d.setWeek()
	return nil
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d < o:
		return -1
	case d > o:
		return 1
	}
	return 0
}

func (d Date) Before(o Date) bool { return d < o }
func (d Date) After(o Date) bool  { return d > o }

// Valid reports whether month and day are in range.
func (d Date) Valid() bool {
	return validateMonthDay(d.Month(), d.Day()) == nil
}

// FirstOfMonth returns the same year and month with day 1.
func (d Date) FirstOfMonth() Date { return pack(d.Year(), d.Month(), 1) }

// NextMonth returns the first day of the following month.
func (d Date) NextMonth() Date {
	if d.Month() == 12 {
		return pack(d.Year()+1, 1, 1)
	}
	return pack(d.Year(), d.Month()+1, 1)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}

// MarshalJSON writes the date as "YYYY-MM-DD". The document format is not
// affected; YAML keeps the packed integer.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalYAML reads the raw packed integer. The stored week is kept as is.
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	var raw uint32
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	date := Date(raw)
	if !date.Valid() {
		return fmt.Errorf("%w: packed value %d has month %d day %d", ErrInvalidDate, raw, date.Month(), date.Day())
	}
	*d = date
	return nil
}

func (d *Date) setWeek() {
	*d = (*d &^ maskWeek) | Date(weekOf(d.Month(), d.Day()))
}

func pack(year uint16, month, day uint8) Date {
	return Date(year)<<shiftYear | Date(month)<<shiftMonth | Date(day)<<shiftDay | Date(weekOf(month, day))
}

// weekOf is ceil(dayOfYear / 7).
func weekOf(month, day uint8) uint8 {
	dayOfYear := daysBeforeMonth[month] + uint16(day)
	return uint8((dayOfYear + 6) / 7)
}

func validateMonthDay(month, day uint8) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if day < 1 || day > 31 {
		return fmt.Errorf("%w: %d", ErrInvalidDay, day)
	}
	return nil
}
