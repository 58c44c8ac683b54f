// Package ledger tracks which items have already been relayed, so a run can
// be repeated (or crash and restart) without delivering anything twice.
package ledger

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"
)

// Record marks one relayed item. PostedAt is the delivery time, used only
// for retention pruning.
type Record struct {
	Key      string    `json:"key"`
	PostedAt time.Time `json:"postedAt"`
}

// Store persists the full record set. Save always rewrites the complete
// state; there is no incremental append at the storage level.
type Store interface {
	Load() ([]Record, error)
	Save(records []Record) error
}

// Ledger is the in-memory working copy for one run. It is not safe for
// concurrent use; the orchestrator owns it for the duration of a run.
type Ledger struct {
	store   Store
	records []Record
	keys    map[string]struct{}
	logger  *slog.Logger
}

// Open loads the persisted ledger. Load problems never surface to the
// caller: a missing backing state starts empty and is persisted immediately
// so the next run finds it, and unreadable state degrades to empty with a
// warning (recently relayed items may be re-sent).
func Open(store Store, logger *slog.Logger) *Ledger {
	l := &Ledger{
		store:  store,
		keys:   make(map[string]struct{}),
		logger: logger,
	}

	records, err := store.Load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("no ledger found, starting empty")
		if err := store.Save(nil); err != nil {
			logger.Warn("cannot create empty ledger", "err", err)
		}
	case err != nil:
		logger.Warn("ledger unreadable, starting empty", "err", err)
	default:
		for _, r := range records {
			if _, dup := l.keys[r.Key]; dup {
				continue
			}
			l.records = append(l.records, r)
			l.keys[r.Key] = struct{}{}
		}
	}
	return l
}

// Prune drops every record older than the retention window. Called once per
// run before any dispatch.
func (l *Ledger) Prune(now time.Time, retention time.Duration) {
	cutoff := now.Add(-retention)
	kept := l.records[:0]
	for _, r := range l.records {
		if r.PostedAt.Before(cutoff) {
			delete(l.keys, r.Key)
			continue
		}
		kept = append(kept, r)
	}
	if dropped := len(l.records) - len(kept); dropped > 0 {
		l.logger.Info("pruned ledger", "dropped", dropped, "kept", len(kept))
	}
	l.records = kept
}

// Contains reports whether key has already been relayed.
func (l *Ledger) Contains(key string) bool {
	_, ok := l.keys[key]
	return ok
}

// Append adds one record. The caller must have checked Contains first; a
// duplicate key is dropped with a warning rather than double-counted.
func (l *Ledger) Append(r Record) {
	if _, dup := l.keys[r.Key]; dup {
		l.logger.Warn("duplicate ledger append ignored", "key", r.Key)
		return
	}
	l.records = append(l.records, r)
	l.keys[r.Key] = struct{}{}
}

// Persist rewrites the full ledger to the backing store. Called synchronously
// after every append so the on-disk state never trails the in-memory state by
// more than the delivery in flight.
func (l *Ledger) Persist() error {
	return l.store.Save(l.records)
}

// Len returns the number of live records.
func (l *Ledger) Len() int {
	return len(l.records)
}
