package investing

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// History maps year numbers to years and always iterates in ascending order.
// The zero value is an empty history.
type History struct {
	years []Year
}

func (h *History) search(nr uint16) int {
	return sort.Search(len(h.years), func(i int) bool { return h.years[i].Nr >= nr })
}

// Get returns the year nr for modification.
func (h *History) Get(nr uint16) (*Year, bool) {
	i := h.search(nr)
	if i < len(h.years) && h.years[i].Nr == nr {
		return &h.years[i], true
	}
	return nil, false
}

func (h *History) Has(nr uint16) bool {
	_, ok := h.Get(nr)
	return ok
}

// Insert adds y at its ordered position. It refuses to replace an existing
// year and reports whether the year was added.
func (h *History) Insert(y Year) bool {
	i := h.search(y.Nr)
	if i < len(h.years) && h.years[i].Nr == y.Nr {
		return false
	}
	h.years = append(h.years, Year{})
	copy(h.years[i+1:], h.years[i:])
	h.years[i] = y
	return true
}

// First returns the earliest year number.
func (h *History) First() (uint16, bool) {
	if len(h.years) == 0 {
		return 0, false
	}
	return h.years[0].Nr, true
}

// Last returns the latest year number.
func (h *History) Last() (uint16, bool) {
	if len(h.years) == 0 {
		return 0, false
	}
	return h.years[len(h.years)-1].Nr, true
}

func (h *History) Len() int { return len(h.years) }

// Years returns the year numbers in ascending order.
func (h *History) Years() []uint16 {
	out := make([]uint16, len(h.years))
	for i, y := range h.years {
		out[i] = y.Nr
	}
	return out
}

// All returns a copy of every year in ascending order.
func (h *History) All() []Year {
	out := make([]Year, len(h.years))
	copy(out, h.years)
	return out
}

func (h History) clone() History {
	if h.years == nil {
		return History{}
	}
	return History{years: append([]Year(nil), h.years...)}
}

// MarshalYAML writes a mapping keyed by year number. yaml.v3 sorts integer
// keys, so the document keeps ascending order.
func (h History) MarshalYAML() (interface{}, error) {
	out := make(map[uint16]Year, len(h.years))
	for _, y := range h.years {
		out[y.Nr] = y
	}
	return out, nil
}

func (h *History) UnmarshalYAML(value *yaml.Node) error {
	var raw map[uint16]Year
	if err := value.Decode(&raw); err != nil {
		return err
	}
	var out History
	for key, y := range raw {
		if y.Nr != key {
			return fmt.Errorf("history key %d holds year %d", key, y.Nr)
		}
		out.Insert(y)
	}
	*h = out
	return nil
}
