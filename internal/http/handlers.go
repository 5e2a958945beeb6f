package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"finanzbuch/internal/core"
	"finanzbuch/internal/investing"
	applog "finanzbuch/internal/log"
	"finanzbuch/internal/services"
)

type createEntryRequest struct {
	Name    string            `json:"name"`
	Variant investing.Variant `json:"variant"`
}

type addYearRequest struct {
	Year *uint16 `json:"year"`
}

type setMonthRequest struct {
	Field investing.MonthField `json:"field"`
	Value json.RawMessage      `json:"value"`
}

type comparisonRequest struct {
	Rate investing.GrowthRate `json:"rate"`
}

func (s *Server) logChanged(r *http.Request, operation, name string, key uint64) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogEntryChanged(r.Context(), operation, name, key, s.depot.Revision())
}

func (s *Server) logSection(r *http.Request, operation string, key uint64, section investing.Section) {
	name, _ := s.depot.NameOf(key)
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogSectionChanged(r.Context(), operation, name, key,
			section.Start.String(), section.End.String(), section.Amount, s.depot.Revision())
}

func (s *Server) handleListEntries(w http.ResponseWriter, _ *http.Request) {
	entries := s.depot.Entries()
	if entries == nil {
		entries = []services.EntrySummary{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, applog.OpCreate, err)
		return
	}
	key, err := s.depot.CreateEntry(r.Context(), req.Name, req.Variant)
	if err != nil {
		writeDomainError(w, r, applog.OpCreate, err)
		return
	}
	d, err := s.depot.Entry(key)
	if err != nil {
		writeDomainError(w, r, applog.OpRead, err)
		return
	}
	s.logChanged(r, applog.OpCreate, d.Name, key)
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeDomainError(w, r, applog.OpRead, err)
		return
	}
	d, err := s.depot.Entry(key)
	if err != nil {
		writeDomainError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeDomainError(w, r, applog.OpDelete, err)
		return
	}
	name, err := s.depot.NameOf(key)
	if err != nil {
		writeDomainError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.depot.RemoveEntry(r.Context(), key); err != nil {
		writeDomainError(w, r, applog.OpDelete, err)
		return
	}
	s.logChanged(r, applog.OpDelete, name, key)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	var section investing.Section
	if err := decodeJSON(w, r, &section); err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	stored, err := s.depot.AddSection(r.Context(), key, section)
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	s.logSection(r, "add_section", key, stored)
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleRemoveSection(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	start, err := pathDate(r, "start")
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	removed, err := s.depot.RemoveSection(r.Context(), key, start)
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	s.logSection(r, "remove_section", key, removed)
	writeJSON(w, http.StatusOK, removed)
}

func (s *Server) handleAddYear(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	var req addYearRequest
	// an empty body adds the previous year
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeDomainError(w, r, applog.OpUpdate, err)
			return
		}
	}
	var year uint16
	if req.Year != nil {
		year = *req.Year
		if year == 0 {
			writeError(w, http.StatusUnprocessableEntity, "year must be positive")
			return
		}
	}
	added, err := s.depot.AddYear(r.Context(), key, year)
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	name, _ := s.depot.NameOf(key)
	s.logChanged(r, "add_year", name, key)
	writeJSON(w, http.StatusCreated, map[string]uint16{"year": added})
}

func (s *Server) handleSetMonthValue(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	year, month, err := pathYearMonth(r)
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	var req setMonthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	raw, err := looseValue(req.Value)
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	stored, err := s.depot.SetMonthValue(r.Context(), key, year, month, req.Field, raw)
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"field": req.Field,
		"value": stored,
	})
}

func (s *Server) handlePlanned(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeDomainError(w, r, applog.OpRead, err)
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		writeError(w, http.StatusUnprocessableEntity, "query parameter date is required")
		return
	}
	date, err := core.ParseDate(raw)
	if err != nil {
		writeDomainError(w, r, applog.OpRead, err)
		return
	}
	planned, err := s.depot.PlannedFor(key, date)
	if err != nil {
		writeDomainError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "planned": planned})
}

func (s *Server) handleUniform(w http.ResponseWriter, r *http.Request) {
	added, err := s.depot.EnsureUniform(r.Context())
	if err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"years_added": added})
}

func (s *Server) handleSpan(w http.ResponseWriter, r *http.Request) {
	span, ok := s.depot.Span()
	if !ok {
		writeDomainError(w, r, applog.OpRead, errNoHistory)
		return
	}
	writeJSON(w, http.StatusOK, span)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	// the span ends at the current month, so the month is part of the key
	year, month := s.depot.Clock().Current()
	name := fmt.Sprintf("ledger:%04d-%02d", year, month)
	ledger, err := s.ledgerCache.Get(name, s.depot.Revision(), func() (investing.Ledger, error) {
		l, ok := s.depot.Ledger()
		if !ok {
			return l, errNoHistory
		}
		return l, nil
	})
	if err != nil {
		writeDomainError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

func (s *Server) handleAddComparison(w http.ResponseWriter, r *http.Request) {
	var req comparisonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	if err := s.depot.AddComparison(r.Context(), req.Rate); err != nil {
		writeDomainError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}
