package storage

import (
	"context"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of a conversation. Turns are immutable once written;
// creation time defines conversation order.
type Turn struct {
	OwnerId   string    `bson:"owner_id" json:"ownerId"`
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// ConversationStore is an append-only record of turns keyed by owner.
// Implementations must support concurrent appends without breaking
// per-owner ordering.
type ConversationStore interface {
	Append(ctx context.Context, ownerId, role, content string) error
	Turns(ctx context.Context, ownerId string) ([]Turn, error)
	Close() error
}
