package domain

import (
	"fmt"
	"time"
)

// MediaKind classifies the media attached to a channel post.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaOther MediaKind = "other"
)

// Item is one candidate post pulled from a source channel. Channel is the
// logical mapping name, not the source platform's channel title; IDs ascend
// in posting order within a channel.
type Item struct {
	Channel    string
	ID         int
	CreatedAt  time.Time // UTC
	Kind       MediaKind
	PayloadRef string // opaque handle passed back to Source.Download
	Caption    string
}

// DedupKey identifies "this item, relayed for this mapping" across runs.
func (i Item) DedupKey() string {
	return fmt.Sprintf("%s-%d", i.Channel, i.ID)
}
