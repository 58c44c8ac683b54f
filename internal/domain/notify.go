package domain

import "context"

// Delivery is one outbound relay request: a caption (already truncated to the
// destination's limit) plus a single named binary attachment.
type Delivery struct {
	Content  string
	FileName string
	Data     []byte
}

// Notifier posts a delivery to one configured destination. Any non-nil error
// means the item was not delivered and must stay out of the ledger.
type Notifier interface {
	Name() string
	Send(ctx context.Context, d Delivery) error
}
