package domain

import "context"

// ChannelHandle identifies a live source channel resolved from a mapping name.
type ChannelHandle struct {
	ID    int64
	Title string
}

// Source is the narrow contract the relay needs from the message platform.
type Source interface {
	// Authenticate verifies the session credential. A failed authentication
	// is fatal to the run; no channel work is possible without it.
	Authenticate(ctx context.Context) error

	// Resolve finds the live channel whose display title contains name
	// (case-insensitive). Returns an error when no channel matches.
	Resolve(ctx context.Context, name string) (ChannelHandle, error)

	// RecentHistory returns up to limit of the most recent posts in the
	// channel. Order is unspecified; callers sort before dispatching.
	RecentHistory(ctx context.Context, ch ChannelHandle, limit int) ([]Item, error)

	// Download fetches the raw payload bytes for an item's PayloadRef.
	Download(ctx context.Context, payloadRef string) ([]byte, error)
}
