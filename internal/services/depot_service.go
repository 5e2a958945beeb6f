// Package services orchestrates depot operations across the document,
// the event queue and the mirror.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"finanzbuch/internal/amqp"
	"finanzbuch/internal/core"
	"finanzbuch/internal/csvimport"
	"finanzbuch/internal/datafile"
	"finanzbuch/internal/investing"
)

var (
	ErrEmptyName   = errors.New("entry name is empty")
	ErrEntryExists = errors.New("depot entry already exists")
	ErrYearExists  = errors.New("year already in history")
)

// Publisher announces document changes.
type Publisher interface {
	PublishDepotChanged(ctx context.Context, msg *amqp.DepotChangedMessage) error
}

// DepotService is the only writer of the depot. Every mutation is a
// read-modify-write of the document held by the store.
type DepotService struct {
	store     *datafile.Store
	clock     core.Clock
	publisher Publisher
}

// NewDepotService wires a store and a clock. publisher may be nil.
func NewDepotService(store *datafile.Store, clock core.Clock, publisher Publisher) *DepotService {
	return &DepotService{store: store, clock: clock, publisher: publisher}
}

// Clock returns the clock the service evaluates "now" with.
func (s *DepotService) Clock() core.Clock { return s.clock }

// Revision returns the revision of the held document.
func (s *DepotService) Revision() uint64 { return s.store.Revision() }

// EntrySummary identifies an entry.
type EntrySummary struct {
	Key     uint64            `json:"key,string"`
	Name    string            `json:"name"`
	Variant investing.Variant `json:"variant"`
}

// MonthView is one month of an entry's history.
type MonthView struct {
	Month                  uint8   `json:"month"`
	Amount                 float64 `json:"amount"`
	PricePerUnit           float64 `json:"price_per_unit"`
	AdditionalTransactions float64 `json:"additional_transactions"`
	Value                  float64 `json:"value"`
}

// YearView is one year of an entry's history.
type YearView struct {
	Year   uint16      `json:"year"`
	Months []MonthView `json:"months"`
}

// EntryDetail is a read-only copy of an entry.
type EntryDetail struct {
	EntrySummary
	SavingsPlan []investing.Section `json:"savings_plan"`
	History     []YearView          `json:"history"`
}

// Entries lists all entries ordered by name.
func (s *DepotService) Entries() []EntrySummary {
	var out []EntrySummary
	_ = s.store.View(func(f *datafile.DataFile) error {
		depot := &f.Investing.Depot
		for _, key := range depot.Keys() {
			e, _ := depot.GetByKey(key)
			out = append(out, EntrySummary{Key: key, Name: e.Name(), Variant: e.Variant})
		}
		return nil
	})
	return out
}

// Entry returns the detail of the entry stored under key.
func (s *DepotService) Entry(key uint64) (EntryDetail, error) {
	var out EntryDetail
	err := s.store.View(func(f *datafile.DataFile) error {
		e, ok := f.Investing.Depot.GetByKey(key)
		if !ok {
			return entryNotFound(key)
		}
		out = detail(key, e)
		return nil
	})
	return out, err
}

// KeyOf resolves an entry name to its key.
func (s *DepotService) KeyOf(name string) (uint64, error) {
	key := investing.NameToKey(name)
	err := s.store.View(func(f *datafile.DataFile) error {
		if _, ok := f.Investing.Depot.GetByKey(key); !ok {
			return fmt.Errorf("%w: %q", investing.ErrEntryNotFound, name)
		}
		return nil
	})
	return key, err
}

// NameOf returns the name of the entry stored under key.
func (s *DepotService) NameOf(key uint64) (string, error) {
	var name string
	err := s.store.View(func(f *datafile.DataFile) error {
		e, ok := f.Investing.Depot.GetByKey(key)
		if !ok {
			return entryNotFound(key)
		}
		name = e.Name()
		return nil
	})
	return name, err
}

// CreateEntry adds an entry whose history starts with the current year.
func (s *DepotService) CreateEntry(ctx context.Context, name string, variant investing.Variant) (uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyName
	}
	key := investing.NameToKey(name)
	err := s.store.Update(ctx, func(f *datafile.DataFile) error {
		if _, ok := f.Investing.Depot.GetByKey(key); ok {
			return fmt.Errorf("%w: %q", ErrEntryExists, name)
		}
		f.Investing.Depot.Add(investing.NewEntryWithCurrentYear(name, variant, s.clock))
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Depot entry created", "entry_name", name, "entry_key", key, "variant", variant.String())
	s.publish(ctx, amqp.OpUpsert, key, name)
	return key, nil
}

// RemoveEntry deletes the entry stored under key.
func (s *DepotService) RemoveEntry(ctx context.Context, key uint64) error {
	var name string
	err := s.store.Update(ctx, func(f *datafile.DataFile) error {
		e, ok := f.Investing.Depot.GetByKey(key)
		if !ok {
			return entryNotFound(key)
		}
		name = e.Name()
		f.Investing.Depot.RemoveByKey(key)
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Depot entry removed", "entry_name", name, "entry_key", key)
	s.publish(ctx, amqp.OpRemove, key, name)
	return nil
}

// AddSection inserts a savings plan section into the entry's plan and
// returns it as stored. Annual sections may come back with another end.
func (s *DepotService) AddSection(ctx context.Context, key uint64, section investing.Section) (investing.Section, error) {
	var stored investing.Section
	err := s.updateEntry(ctx, key, func(e *investing.Entry) error {
		var err error
		stored, err = e.AddSavingsPlanSection(section)
		return err
	})
	return stored, err
}

// RemoveSection deletes the section starting at start.
func (s *DepotService) RemoveSection(ctx context.Context, key uint64, start core.Date) (investing.Section, error) {
	var removed investing.Section
	err := s.updateEntry(ctx, key, func(e *investing.Entry) error {
		var err error
		removed, err = e.RemoveSavingsPlanSection(start)
		return err
	})
	return removed, err
}

// AddYear adds year to the entry's history. Year 0 adds the year before
// the earliest one. It returns the year that was added.
func (s *DepotService) AddYear(ctx context.Context, key uint64, year uint16) (uint16, error) {
	err := s.updateEntry(ctx, key, func(e *investing.Entry) error {
		if year == 0 {
			var err error
			year, err = e.AddPreviousYear(s.clock)
			return err
		}
		if !e.AddYear(year) {
			return fmt.Errorf("%w: %d", ErrYearExists, year)
		}
		return nil
	})
	return year, err
}

// SetMonthValue parses raw as a monetary value and writes it into one
// month cell. It returns the stored value.
func (s *DepotService) SetMonthValue(ctx context.Context, key uint64, year uint16, month uint8, field investing.MonthField, raw string) (float64, error) {
	value, err := core.ParseMonetary(raw, true)
	if err != nil {
		return 0, err
	}
	var stored float64
	err = s.updateEntry(ctx, key, func(e *investing.Entry) error {
		if err := e.SetMonthValue(year, month, field, value); err != nil {
			return err
		}
		y, _ := e.History.Get(year)
		m, _ := y.Month(month)
		stored, _ = m.Get(field)
		return nil
	})
	return stored, err
}

// ImportColumn writes the values of one CSV column into consecutive months
// of year, starting at fromMonth. Values past December are ignored. It
// returns the number of months written.
func (s *DepotService) ImportColumn(ctx context.Context, key uint64, table *csvimport.Table, column int, year uint16, fromMonth uint8, field investing.MonthField) (int, error) {
	if fromMonth < 1 || fromMonth > 12 {
		return 0, fmt.Errorf("%w: %d", core.ErrInvalidMonth, fromMonth)
	}
	values, err := table.Column(column)
	if err != nil {
		return 0, err
	}
	room := 13 - int(fromMonth)
	if len(values) > room {
		slog.WarnContext(ctx, "CSV column longer than the rest of the year, truncating",
			"rows", len(values), "year", year, "from_month", fromMonth)
		values = values[:room]
	}

	err = s.updateEntry(ctx, key, func(e *investing.Entry) error {
		if !e.History.Has(year) {
			e.AddYear(year)
		}
		for i, v := range values {
			if err := e.SetMonthValue(year, fromMonth+uint8(i), field, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(values), nil
}

// PlannedFor returns the contribution the entry plans for date.
func (s *DepotService) PlannedFor(key uint64, date core.Date) (float64, error) {
	var planned float64
	err := s.store.View(func(f *datafile.DataFile) error {
		e, ok := f.Investing.Depot.GetByKey(key)
		if !ok {
			return entryNotFound(key)
		}
		planned = e.PlannedFor(date)
		return nil
	})
	return planned, err
}

// EnsureUniform extends every history to the same year range. Nothing is
// written when every history already covers it.
func (s *DepotService) EnsureUniform(ctx context.Context) (int, error) {
	var added int
	err := s.store.Update(ctx, func(f *datafile.DataFile) error {
		added = f.Investing.Depot.EnsureUniformHistories(s.clock)
		if added == 0 {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Histories made uniform", "years_added", added)
	s.publish(ctx, amqp.OpDepot, 0, "")
	return added, nil
}

// AddComparison appends a growth rate to the prognosis comparisons.
func (s *DepotService) AddComparison(ctx context.Context, rate investing.GrowthRate) error {
	return s.store.Update(ctx, func(f *datafile.DataFile) error {
		f.Investing.AddComparison(rate)
		return nil
	})
}

// Span returns the range of months the depot covers.
func (s *DepotService) Span() (investing.Span, bool) {
	var (
		span investing.Span
		ok   bool
	)
	_ = s.store.View(func(f *datafile.DataFile) error {
		span, ok = f.Investing.Depot.Span(s.clock)
		return nil
	})
	return span, ok
}

// Ledger computes the depot ledger of the held document.
func (s *DepotService) Ledger() (investing.Ledger, bool) {
	var (
		l  investing.Ledger
		ok bool
	)
	_ = s.store.View(func(f *datafile.DataFile) error {
		l, ok = f.Investing.Ledger(s.clock)
		return nil
	})
	return l, ok
}

var errUnchanged = errors.New("unchanged")

func (s *DepotService) updateEntry(ctx context.Context, key uint64, fn func(*investing.Entry) error) error {
	var name string
	err := s.store.Update(ctx, func(f *datafile.DataFile) error {
		e, ok := f.Investing.Depot.GetByKey(key)
		if !ok {
			return entryNotFound(key)
		}
		name = e.Name()
		return fn(e)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, amqp.OpUpsert, key, name)
	return nil
}

func (s *DepotService) publish(ctx context.Context, op string, key uint64, name string) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewDepotChangedMessage(op, key, name, s.store.Revision())
	if err := s.publisher.PublishDepotChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish depot change",
			"op", op, "entry_key", key, "error", err)
	}
}

func entryNotFound(key uint64) error {
	return fmt.Errorf("%w: key %d", investing.ErrEntryNotFound, key)
}

func detail(key uint64, e *investing.Entry) EntryDetail {
	d := EntryDetail{
		EntrySummary: EntrySummary{Key: key, Name: e.Name(), Variant: e.Variant},
		SavingsPlan:  e.SavingsPlan(),
		History:      make([]YearView, 0, e.History.Len()),
	}
	if d.SavingsPlan == nil {
		d.SavingsPlan = []investing.Section{}
	}
	for _, y := range e.History.All() {
		yv := YearView{Year: y.Nr, Months: make([]MonthView, 0, len(y.Months))}
		for _, m := range y.Months {
			yv.Months = append(yv.Months, MonthView{
				Month:                  m.Nr(),
				Amount:                 m.Amount(),
				PricePerUnit:           m.PricePerUnit(),
				AdditionalTransactions: m.AdditionalTransactions(),
				Value:                  core.RoundMonetary(m.Value()),
			})
		}
		d.History = append(d.History, yv)
	}
	return d
}
