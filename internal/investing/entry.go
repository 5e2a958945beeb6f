package investing

import (
	"fmt"
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	"finanzbuch/internal/core"
)

// Entry is one instrument of the depot. The name is fixed at construction
// because the depot key is derived from it.
type Entry struct {
	name        string
	Variant     Variant
	savingsPlan []Section
	History     History
}

// NewEntry returns an entry without savings plan or history.
func NewEntry(name string, variant Variant) *Entry {
	return &Entry{name: name, Variant: variant}
}

// NewEntryWithCurrentYear seeds the history with an empty current year.
func NewEntryWithCurrentYear(name string, variant Variant, clock core.Clock) *Entry {
	e := NewEntry(name, variant)
	e.History.Insert(NewYear(core.CurrentYear(clock)))
	return e
}

// NewEntryFrom builds an entry from stored parts. The plan is sorted by start;
// duplicate years are rejected.
func NewEntryFrom(name string, variant Variant, plan []Section, years []Year) (*Entry, error) {
	e := NewEntry(name, variant)
	e.savingsPlan = append([]Section(nil), plan...)
	e.sortPlan()
	for _, y := range years {
		if !e.History.Insert(y) {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateYear, y.Nr)
		}
	}
	return e, nil
}

func (e *Entry) Name() string { return e.name }

// SavingsPlan returns a copy of the sections in ascending start order.
func (e *Entry) SavingsPlan() []Section {
	return append([]Section(nil), e.savingsPlan...)
}

// AddSavingsPlanSection inserts s keeping the plan ordered and free of
// overlaps. It returns ErrMalformedSection when s does not end after it
// starts and an *OverlapError carrying the conflicting section when s
// touches or intersects an existing one.
//
// Annual sections are normalized first: the end is moved to at least one
// year after the start and onto the same month and day as the start. The
// section as stored is returned.
func (e *Entry) AddSavingsPlanSection(s Section) (Section, error) {
	if s.End <= s.Start {
		return Section{}, fmt.Errorf("%w: %s does not end after it starts", ErrMalformedSection, s)
	}

	if s.Interval == Annually {
		if s.End.Year() == s.Start.Year() {
			s.End = core.MustDate(s.Start.Year()+1, s.Start.Month(), s.Start.Day())
			slog.Info("Annual section ends in its start year, end moved one year ahead",
				"entry_name", e.name,
				"section_start", s.Start.String(),
				"section_end", s.End.String())
		}
		if s.End.Month() != s.Start.Month() || s.End.Day() != s.Start.Day() {
			s.End = core.MustDate(s.End.Year(), s.Start.Month(), s.Start.Day())
			slog.Info("Annual section must end on its start month and day, end adjusted",
				"entry_name", e.name,
				"section_start", s.Start.String(),
				"section_end", s.End.String())
		}
	}

	if s.End <= s.Start {
		return Section{}, fmt.Errorf("%w: %s does not end after it starts", ErrMalformedSection, s)
	}

	e.sortPlan()

	if len(e.savingsPlan) == 0 {
		e.savingsPlan = append(e.savingsPlan, s)
		return s, nil
	}

	for i, this := range e.savingsPlan {
		switch {
		case s.End < this.Start:
			e.savingsPlan = append(e.savingsPlan, Section{})
			copy(e.savingsPlan[i+1:], e.savingsPlan[i:])
			e.savingsPlan[i] = s
		case s.overlaps(this):
			return Section{}, &OverlapError{Existing: this}
		case s.Start > this.End:
			if i < len(e.savingsPlan)-1 {
				continue
			}
			e.savingsPlan = append(e.savingsPlan, s)
		default:
			panic(fmt.Sprintf("investing: section %s is neither before, after nor overlapping %s", s, this))
		}
		break
	}

	e.sortPlan()
	return s, nil
}

// RemoveSavingsPlanSection removes the section starting at start.
func (e *Entry) RemoveSavingsPlanSection(start core.Date) (Section, error) {
	for i, s := range e.savingsPlan {
		if s.Start == start {
			e.savingsPlan = append(e.savingsPlan[:i], e.savingsPlan[i+1:]...)
			return s, nil
		}
	}
	return Section{}, fmt.Errorf("%w: starting %s", ErrSectionNotFound, start)
}

// PlannedFor returns the contribution planned for date. Annual sections pay
// out in December only.
func (e *Entry) PlannedFor(date core.Date) float64 {
	for _, s := range e.savingsPlan {
		if !s.Contains(date) {
			continue
		}
		switch s.Interval {
		case Monthly:
			return s.Amount
		case Annually:
			if date.Month() == 12 {
				return s.Amount
			}
		}
	}
	return 0
}

// AddYear inserts an all-zero year. It returns false if the year exists.
func (e *Entry) AddYear(nr uint16) bool {
	return e.History.Insert(NewYear(nr))
}

// AddPreviousYear adds the year before the earliest one, or the current
// year when the history is empty. It returns the year that was added.
func (e *Entry) AddPreviousYear(clock core.Clock) (uint16, error) {
	first, ok := e.History.First()
	if !ok {
		nr := core.CurrentYear(clock)
		e.AddYear(nr)
		return nr, nil
	}
	if first == 0 {
		return 0, fmt.Errorf("%w: no year before 0", ErrYearNotFound)
	}
	e.AddYear(first - 1)
	return first - 1, nil
}

// SetMonthValue writes one cell of the history.
func (e *Entry) SetMonthValue(year uint16, month uint8, field MonthField, value float64) error {
	y, ok := e.History.Get(year)
	if !ok {
		return fmt.Errorf("%w: %d in %q", ErrYearNotFound, year, e.name)
	}
	m, err := y.Month(month)
	if err != nil {
		return err
	}
	return m.Set(field, value)
}

// Clone returns a deep copy.
func (e *Entry) Clone() *Entry {
	return &Entry{
		name:        e.name,
		Variant:     e.Variant,
		savingsPlan: e.SavingsPlan(),
		History:     e.History.clone(),
	}
}

func (e *Entry) sortPlan() {
	sort.SliceStable(e.savingsPlan, func(i, j int) bool {
		return e.savingsPlan[i].Start < e.savingsPlan[j].Start
	})
}

type entryDoc struct {
	Variant     Variant   `yaml:"variant"`
	Name        string    `yaml:"name"`
	SavingsPlan []Section `yaml:"savings_plan"`
	History     History   `yaml:"history"`
}

func (e *Entry) MarshalYAML() (interface{}, error) {
	plan := e.savingsPlan
	if plan == nil {
		plan = []Section{}
	}
	return entryDoc{
		Variant:     e.Variant,
		Name:        e.name,
		SavingsPlan: plan,
		History:     e.History,
	}, nil
}

func (e *Entry) UnmarshalYAML(value *yaml.Node) error {
	var doc entryDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	if len(doc.SavingsPlan) == 0 {
		doc.SavingsPlan = nil
	}
	*e = Entry{
		name:        doc.Name,
		Variant:     doc.Variant,
		savingsPlan: doc.SavingsPlan,
		History:     doc.History,
	}
	e.sortPlan()
	return nil
}
