package investing

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"finanzbuch/internal/core"
)

// NameToKey derives the depot key of an entry name: the 64-bit xxHash of its
// UTF-8 bytes. The hash is unseeded and therefore stable across runs.
func NameToKey(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Depot is the set of entries keyed by the hash of their names.
type Depot struct {
	entries map[uint64]*Entry
}

func NewDepot() *Depot {
	return &Depot{entries: make(map[uint64]*Entry)}
}

// Add stores e under the key of its name, replacing any entry with the same name.
func (d *Depot) Add(e *Entry) uint64 {
	if d.entries == nil {
		d.entries = make(map[uint64]*Entry)
	}
	key := NameToKey(e.Name())
	d.entries[key] = e
	return key
}

func (d *Depot) Get(name string) (*Entry, bool) {
	return d.GetByKey(NameToKey(name))
}

func (d *Depot) GetByKey(key uint64) (*Entry, bool) {
	e, ok := d.entries[key]
	return e, ok
}

func (d *Depot) Remove(name string) bool {
	return d.RemoveByKey(NameToKey(name))
}

func (d *Depot) RemoveByKey(key uint64) bool {
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	return true
}

func (d *Depot) Len() int { return len(d.entries) }

// Keys returns the keys ordered by entry name.
func (d *Depot) Keys() []uint64 {
	keys := make([]uint64, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return d.entries[keys[i]].Name() < d.entries[keys[j]].Name()
	})
	return keys
}

// Entries returns the entries ordered by name.
func (d *Depot) Entries() []*Entry {
	keys := d.Keys()
	out := make([]*Entry, len(keys))
	for i, k := range keys {
		out[i] = d.entries[k]
	}
	return out
}

// OldestYear is the earliest history year across all entries.
// It reports false when no entry has any history.
func (d *Depot) OldestYear() (uint16, bool) {
	var (
		oldest uint16
		found  bool
	)
	for _, e := range d.entries {
		first, ok := e.History.First()
		if !ok {
			continue
		}
		if !found || first < oldest {
			oldest, found = first, true
		}
	}
	return oldest, found
}

// Span covers the depot from January of the oldest year to the current month.
type Span struct {
	Start  core.Date `json:"start"`
	End    core.Date `json:"end"`
	Months int       `json:"months"`
}

// Span reports false when no entry has any history. Months counts the
// current month; it is zero when the oldest year lies in the future.
func (d *Depot) Span(clock core.Clock) (Span, bool) {
	oldest, ok := d.OldestYear()
	if !ok {
		return Span{}, false
	}
	year, month := clock.Current()
	count := (int(year)-int(oldest)+1)*12 - (12 - int(month))
	if count < 0 {
		count = 0
	}
	return Span{
		Start:  core.MustDate(oldest, 1, 1),
		End:    core.MustDate(year, month, 1),
		Months: count,
	}, true
}

// EnsureUniformHistories gives every entry a year for each year from the
// oldest recorded one through the current year. Without any history the
// current year is added everywhere. It returns the number of years inserted.
func (d *Depot) EnsureUniformHistories(clock core.Clock) int {
	current := core.CurrentYear(clock)
	oldest, ok := d.OldestYear()
	if !ok {
		oldest = current
	}
	added := 0
	for _, e := range d.entries {
		for y := uint32(oldest); y <= uint32(current); y++ {
			if e.AddYear(uint16(y)) {
				added++
			}
		}
	}
	return added
}

// Clone returns a deep copy.
func (d *Depot) Clone() *Depot {
	out := &Depot{entries: make(map[uint64]*Entry, len(d.entries))}
	for k, e := range d.entries {
		out.entries[k] = e.Clone()
	}
	return out
}

func (d Depot) MarshalYAML() (interface{}, error) {
	if d.entries == nil {
		return map[uint64]*Entry{}, nil
	}
	return d.entries, nil
}

// UnmarshalYAML re-keys entries whose stored key does not match the hash of
// their name, which happens for documents written with another hash function.
func (d *Depot) UnmarshalYAML(value *yaml.Node) error {
	var raw map[uint64]*Entry
	if err := value.Decode(&raw); err != nil {
		return err
	}
	entries := make(map[uint64]*Entry, len(raw))
	for stored, e := range raw {
		if e == nil {
			return fmt.Errorf("depot key %d has no entry", stored)
		}
		key := NameToKey(e.Name())
		if key != stored {
			slog.Warn("Depot entry key does not match its name, re-keying",
				"entry_name", e.Name(),
				"stored_key", stored,
				"entry_key", key)
		}
		if _, dup := entries[key]; dup {
			return fmt.Errorf("depot holds two entries named %q", e.Name())
		}
		entries[key] = e
	}
	d.entries = entries
	return nil
}
