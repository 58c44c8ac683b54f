// Package relay drives one pass over the configured channel mappings,
// relaying each new photo to its destination exactly once.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"photorelay/internal/domain"
	"photorelay/internal/filter"
	"photorelay/internal/ledger"
)

// Target pairs a mapping name with its constructed destination. A nil
// Notifier marks a mapping whose destination is not configured; it is
// skipped before any network access.
type Target struct {
	Name     string
	Notifier domain.Notifier
}

// Options wires one run. Source, Ledger and Logger are required.
type Options struct {
	Source       domain.Source
	Targets      []Target
	Ledger       *ledger.Ledger
	Window       filter.Window
	HistoryLimit int
	Retention    time.Duration
	Pacer        Pacer
	Logger       *slog.Logger
	Now          func() time.Time
}

// Orchestrator owns all mutable state for a single run. Execution is
// strictly sequential: channels one at a time, items oldest-first, so the
// ledger's implicit order matches posting order.
type Orchestrator struct {
	source     domain.Source
	targets    []Target
	ledger     *ledger.Ledger
	dispatcher *Dispatcher
	limit      int
	retention  time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func New(opts Options) *Orchestrator {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 100
	}
	if opts.Retention <= 0 {
		opts.Retention = 72 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pacer == nil {
		opts.Pacer = NewTokenBucket(1, 2*time.Second)
	}

	d := NewDispatcher(opts.Source, opts.Window, opts.Pacer, opts.Logger)
	d.now = opts.Now

	return &Orchestrator{
		source:     opts.Source,
		targets:    opts.Targets,
		ledger:     opts.Ledger,
		dispatcher: d,
		limit:      opts.HistoryLimit,
		retention:  opts.Retention,
		logger:     opts.Logger,
		now:        opts.Now,
	}
}

// Run performs one pass. Only an authentication failure aborts the run;
// every other problem skips its unit of work and continues, so the process
// always exits after attempting every mapping.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.ledger.Prune(o.now(), o.retention)

	if err := o.source.Authenticate(ctx); err != nil {
		return fmt.Errorf("source authentication: %w", err)
	}

	var delivered, failed int
	for _, t := range o.targets {
		if ctx.Err() != nil {
			o.logger.Warn("run interrupted, skipping remaining mappings", "err", ctx.Err())
			break
		}
		if t.Notifier == nil {
			o.logger.Info("skipping mapping: no destination configured", "mapping", t.Name)
			continue
		}

		d, f := o.relayChannel(ctx, t)
		delivered += d
		failed += f
	}

	o.logger.Info("run complete",
		"mappings", len(o.targets),
		"delivered", delivered,
		"failed", failed,
		"ledger_size", o.ledger.Len(),
	)
	return nil
}

func (o *Orchestrator) relayChannel(ctx context.Context, t Target) (delivered, failed int) {
	ch, err := o.source.Resolve(ctx, t.Name)
	if err != nil {
		o.logger.Warn("channel not found", "mapping", t.Name, "err", err)
		return 0, 0
	}

	items, err := o.source.RecentHistory(ctx, ch, o.limit)
	if err != nil {
		o.logger.Warn("history fetch failed", "mapping", t.Name, "channel", ch.Title, "err", err)
		return 0, 0
	}

	// Oldest first, so an interrupted run resumes in chronological order.
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	for _, item := range items {
		item.Channel = t.Name

		outcome, err := o.dispatcher.Dispatch(ctx, item, o.ledger, t.Notifier)
		switch outcome {
		case Delivered:
			o.commit(item)
			delivered++
			o.logger.Info("posted photo", "mapping", t.Name, "id", item.ID)
		case Failed:
			failed++
			o.logger.Error("relay failed", "mapping", t.Name, "id", item.ID, "err", err)
		}

		if ctx.Err() != nil {
			return delivered, failed
		}
	}
	return delivered, failed
}

// commit records a confirmed delivery and persists immediately. A persist
// failure is logged, not fatal: the worst case is a re-delivery next run.
func (o *Orchestrator) commit(item domain.Item) {
	o.ledger.Append(ledger.Record{
		Key:      item.DedupKey(),
		PostedAt: o.now().UTC(),
	})
	if err := o.ledger.Persist(); err != nil {
		o.logger.Warn("ledger persist failed", "key", item.DedupKey(), "err", err)
	}
}
