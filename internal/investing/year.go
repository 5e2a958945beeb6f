package investing

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"finanzbuch/internal/core"
)

// Year holds exactly twelve months; Months[i].Nr() == i+1.
type Year struct {
	Nr     uint16
	Months [12]Month
}

// NewYear returns an all-zero year.
func NewYear(nr uint16) Year {
	return Year{Nr: nr, Months: DefaultMonths()}
}

// DefaultMonths returns twelve zero-valued months numbered 1 to 12.
func DefaultMonths() [12]Month {
	var months [12]Month
	for i := range months {
		months[i] = Month{nr: uint8(i + 1)}
	}
	return months
}

// Month returns a pointer to the slot for nr (1-12).
func (y *Year) Month(nr uint8) (*Month, error) {
	if nr < 1 || nr > 12 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidMonth, nr)
	}
	return &y.Months[nr-1], nil
}

type yearDoc struct {
	Nr     uint16  `yaml:"year_nr"`
	Months []Month `yaml:"months"`
}

func (y Year) MarshalYAML() (interface{}, error) {
	return yearDoc{Nr: y.Nr, Months: y.Months[:]}, nil
}

func (y *Year) UnmarshalYAML(value *yaml.Node) error {
	var doc yearDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	if len(doc.Months) != 12 {
		return fmt.Errorf("year %d: expected 12 months, got %d", doc.Nr, len(doc.Months))
	}
	out := Year{Nr: doc.Nr}
	for i, m := range doc.Months {
		if int(m.Nr()) != i+1 {
			return fmt.Errorf("year %d: month at position %d has number %d", doc.Nr, i+1, m.Nr())
		}
		out.Months[i] = m
	}
	*y = out
	return nil
}
