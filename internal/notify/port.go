package notify

import (
	"context"
	"errors"
	"time"

	"daybell/internal/models"
)

// ErrNotFound is returned by Cancel when the id has no live trigger.
// Callers treat it as already-absent, not as a failure.
var ErrNotFound = errors.New("no trigger with that id")

// Payload is the user-visible content of a notification.
type Payload struct {
	Title string
	Body  string
}

// Trigger describes when a notification fires. At is the first (or only)
// firing instant; Repeat, when set, makes the port re-fire on its own.
type Trigger struct {
	At     time.Time
	Repeat models.Repeat
}

// Port is the engine's one-way channel to a notification backend. The
// engine only ever writes: there is no way to ask the port what is
// currently scheduled, so callers must track that themselves.
type Port interface {
	// CreateChannel registers a delivery channel and returns its id.
	// Ports without a channel concept return the id unchanged.
	CreateChannel(ctx context.Context, channelID, displayName string) (string, error)

	// CreateTrigger arms a notification under the given id, replacing
	// any existing trigger with the same id.
	CreateTrigger(ctx context.Context, id string, p Payload, tr Trigger) error

	// Cancel disarms the trigger with the given id. Returns ErrNotFound
	// if no such trigger is live.
	Cancel(ctx context.Context, id string) error

	// CancelAll disarms every live trigger. It returns only after the
	// port has acknowledged, so a following CreateTrigger cannot race it.
	CancelAll(ctx context.Context) error

	// RequestPermission asks the backend whether notifications may be
	// delivered at all.
	RequestPermission(ctx context.Context) (bool, error)
}
