package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finanzbuch/internal/amqp"
	"finanzbuch/internal/core"
	"finanzbuch/internal/datafile"
	"finanzbuch/internal/investing"
	"finanzbuch/internal/sheets"
)

// Source hands out the document as it is on disk.
type Source interface {
	Reload() error
	Snapshot() (*datafile.DataFile, uint64)
}

// Mirror keeps a copy of the depot outside the document.
type Mirror interface {
	SaveEntry(ctx context.Context, key uint64, e *investing.Entry) error
	DeleteEntry(ctx context.Context, key uint64) error
	SaveDepot(ctx context.Context, depot *investing.Depot) error
}

// MirrorWorker follows depot changes into the SQL mirror and the exported
// ledger. Either target may be nil.
type MirrorWorker struct {
	source   Source
	mirror   Mirror
	exporter sheets.LedgerWriter
	clock    core.Clock
}

func NewMirrorWorker(source Source, mirror Mirror, exporter sheets.LedgerWriter, clock core.Clock) *MirrorWorker {
	return &MirrorWorker{
		source:   source,
		mirror:   mirror,
		exporter: exporter,
		clock:    clock,
	}
}

// HandleDepotChanged processes a single depot change message from AMQP.
func (w *MirrorWorker) HandleDepotChanged(ctx context.Context, msg *amqp.DepotChangedMessage) error {
	slog.InfoContext(ctx, "Processing depot change",
		"id", msg.ID,
		"op", msg.Op,
		"entry_key", msg.Key,
		"revision", msg.Revision)

	if err := w.source.Reload(); err != nil {
		return fmt.Errorf("reload document: %w", err)
	}
	doc, _ := w.source.Snapshot()

	if w.mirror != nil {
		if err := w.mirrorChange(ctx, doc, msg); err != nil {
			return err
		}
	}
	return w.export(ctx, doc)
}

// SyncAll mirrors and exports the whole depot. The worker runs it on
// startup to recover from messages missed while it was down.
func (w *MirrorWorker) SyncAll(ctx context.Context) error {
	if err := w.source.Reload(); err != nil {
		return fmt.Errorf("reload document: %w", err)
	}
	doc, revision := w.source.Snapshot()

	if w.mirror != nil {
		if err := w.mirror.SaveDepot(ctx, &doc.Investing.Depot); err != nil {
			return fmt.Errorf("mirror depot: %w", err)
		}
	}
	if err := w.export(ctx, doc); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Full sync completed",
		"entries", doc.Investing.Depot.Len(),
		"revision", revision)
	return nil
}

func (w *MirrorWorker) mirrorChange(ctx context.Context, doc *datafile.DataFile, msg *amqp.DepotChangedMessage) error {
	switch msg.Op {
	case amqp.OpDepot:
		if err := w.mirror.SaveDepot(ctx, &doc.Investing.Depot); err != nil {
			return fmt.Errorf("mirror depot: %w", err)
		}
	case amqp.OpUpsert:
		e, ok := doc.Investing.Depot.GetByKey(msg.Key)
		if !ok {
			// removed again before this message arrived
			slog.WarnContext(ctx, "Entry no longer in document, removing from mirror", "entry_key", msg.Key)
			return w.deleteEntry(ctx, msg.Key)
		}
		if err := w.mirror.SaveEntry(ctx, msg.Key, e); err != nil {
			return fmt.Errorf("mirror entry %q: %w", e.Name(), err)
		}
	case amqp.OpRemove:
		return w.deleteEntry(ctx, msg.Key)
	default:
		return fmt.Errorf("unknown operation %q", msg.Op)
	}
	return nil
}

func (w *MirrorWorker) deleteEntry(ctx context.Context, key uint64) error {
	if err := w.mirror.DeleteEntry(ctx, key); err != nil {
		return fmt.Errorf("delete mirrored entry %d: %w", key, err)
	}
	return nil
}

func (w *MirrorWorker) export(ctx context.Context, doc *datafile.DataFile) error {
	if w.exporter == nil {
		return nil
	}
	ledger, ok := doc.Investing.Ledger(w.clock)
	if !ok {
		slog.InfoContext(ctx, "Depot has no history, skipping ledger export")
		return nil
	}
	ref, err := w.exporter.WriteLedger(ctx, ledger)
	if err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	slog.InfoContext(ctx, "Ledger exported", "ref", ref, "months", ledger.Span.Months)
	return nil
}

// Materializer extends all histories to a common year range.
type Materializer interface {
	EnsureUniform(ctx context.Context) (int, error)
}

// UniformJob reloads the document, materializes uniform histories through m
// and then mirrors and exports everything.
func (w *MirrorWorker) UniformJob(m Materializer) Job {
	return func(ctx context.Context) error {
		if err := w.source.Reload(); err != nil {
			return fmt.Errorf("reload document: %w", err)
		}
		added, err := m.EnsureUniform(ctx)
		if err != nil {
			return fmt.Errorf("uniform histories: %w", err)
		}
		slog.InfoContext(ctx, "Uniform histories materialized", "years_added", added)
		return w.SyncAll(ctx)
	}
}
