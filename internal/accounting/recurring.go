package accounting

import (
	"fmt"
	"strings"

	"finanzbuch/internal/core"
)

// Period is the unit a recurring item's interval is counted in.
type Period uint8

const (
	EveryDay Period = iota
	EveryWeek
	EveryMonth
	EveryYear
)

var periodNames = [...]string{"Day", "Week", "Month", "Year"}

// periodsPerYear uses a 365-day year, like the packed date.
var periodsPerYear = [...]float64{365, 365.0 / 7, 12, 1}

func (p Period) String() string {
	if int(p) < len(periodNames) {
		return periodNames[p]
	}
	return fmt.Sprintf("Period(%d)", uint8(p))
}

func ParsePeriod(s string) (Period, error) {
	for i, n := range periodNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Period(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

func (p Period) MarshalText() ([]byte, error) {
	if int(p) >= len(periodNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPeriod, uint8(p))
	}
	return []byte(periodNames[p]), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Recurring is an income or expense that repeats Frequency times every
// Interval periods.
type Recurring struct {
	Name       string  `yaml:"name"`
	Quantity   float64 `yaml:"quantity"`
	Recurrence Period  `yaml:"recurrence"`
	Interval   uint16  `yaml:"interval"`
	Frequency  uint16  `yaml:"frequency"`
}

// PerMonth spreads the yearly total of the item evenly over twelve months.
func (r Recurring) PerMonth() float64 {
	if r.Interval == 0 || int(r.Recurrence) >= len(periodsPerYear) {
		return 0
	}
	perYear := periodsPerYear[r.Recurrence] / float64(r.Interval) * float64(r.Frequency)
	return core.RoundMonetaryAbs(r.Quantity * perYear / 12)
}
