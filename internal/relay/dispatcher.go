package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"photorelay/internal/domain"
	"photorelay/internal/filter"
)

// Outcome is the result of dispatching one item.
type Outcome int

const (
	// Skipped: the item was out of scope (wrong kind, outside the recency
	// window, or already relayed). Nothing was sent, nothing to commit.
	Skipped Outcome = iota
	// Delivered: the destination confirmed the delivery. The caller must
	// commit the item's key to the ledger before moving on.
	Delivered
	// Failed: download or delivery failed. No in-run retry; the item stays
	// out of the ledger and is retried on the next run.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Caption limits for the destination's text field.
const (
	captionMaxLen   = 2000
	captionCutLen   = 1990
	captionEllipsis = "..."
)

// TruncateCaption caps a caption at the destination field limit, marking the
// cut with an ellipsis. Limits are in characters, not bytes, so a multi-byte
// rune is never split.
func TruncateCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= captionMaxLen {
		return caption
	}
	return string(runes[:captionCutLen]) + captionEllipsis
}

// Dispatcher relays one eligible item at a time: fetch payload, build the
// delivery, post it, pace. Commit-to-ledger is left to the caller so the
// ledger write happens only after a confirmed delivery.
type Dispatcher struct {
	source domain.Source
	window filter.Window
	pacer  Pacer
	logger *slog.Logger
	now    func() time.Time
}

func NewDispatcher(source domain.Source, window filter.Window, pacer Pacer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		source: source,
		window: window,
		pacer:  pacer,
		logger: logger,
		now:    time.Now,
	}
}

// Dispatch processes one candidate item against one destination. It blocks
// on the pacer before each submission, so successive deliveries are spaced
// out regardless of how the caller loops, while the caller's ledger commit
// for the previous item has already been persisted by the time the pause
// starts.
func (d *Dispatcher) Dispatch(ctx context.Context, item domain.Item, seen filter.Seen, dest domain.Notifier) (Outcome, error) {
	if !filter.Eligible(item, seen, d.window, d.now()) {
		d.logger.Debug("item out of scope", "key", item.DedupKey(), "kind", item.Kind)
		return Skipped, nil
	}

	data, err := d.source.Download(ctx, item.PayloadRef)
	if err != nil {
		return Failed, fmt.Errorf("download %s: %w", item.DedupKey(), err)
	}

	if err := d.pacer.Wait(ctx); err != nil {
		return Failed, fmt.Errorf("pacing %s: %w", item.DedupKey(), err)
	}

	delivery := domain.Delivery{
		Content:  TruncateCaption(item.Caption),
		FileName: fmt.Sprintf("%s_%d.jpg", item.Channel, item.ID),
		Data:     data,
	}
	if err := dest.Send(ctx, delivery); err != nil {
		return Failed, fmt.Errorf("deliver %s via %s: %w", item.DedupKey(), dest.Name(), err)
	}
	return Delivered, nil
}
