package investing

import (
	"fmt"
	"strings"

	"finanzbuch/internal/core"
)

// Interval is the cadence of a savings plan section.
type Interval uint8

const (
	Monthly Interval = iota
	Annually
)

func (i Interval) String() string {
	switch i {
	case Monthly:
		return "Monthly"
	case Annually:
		return "Annually"
	}
	return fmt.Sprintf("Interval(%d)", uint8(i))
}

// ParseInterval accepts "monthly" and "annually" in any case.
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly":
		return Monthly, nil
	case "annually":
		return Annually, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownInterval, s)
}

func (i Interval) MarshalText() ([]byte, error) {
	if i > Annually {
		return nil, fmt.Errorf("%w: %d", ErrUnknownInterval, uint8(i))
	}
	return []byte(i.String()), nil
}

func (i *Interval) UnmarshalText(text []byte) error {
	parsed, err := ParseInterval(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Section is a contribution schedule over the closed interval [Start, End].
// A negative Amount models a withdrawal.
type Section struct {
	Start    core.Date `yaml:"start" json:"start"`
	End      core.Date `yaml:"end" json:"end"`
	Amount   float64   `yaml:"amount" json:"amount"`
	Interval Interval  `yaml:"interval" json:"interval"`
}

// Contains reports whether date lies within the closed interval.
func (s Section) Contains(date core.Date) bool {
	return s.Start <= date && date <= s.End
}

// overlaps reports whether the closed intervals of s and o touch or intersect.
func (s Section) overlaps(o Section) bool {
	return s.End == o.Start ||
		s.Start == o.End ||
		(s.Start < o.End && s.End > o.Start)
}

func (s Section) String() string {
	return fmt.Sprintf("%s..%s %.2f %s", s.Start, s.End, s.Amount, s.Interval)
}
