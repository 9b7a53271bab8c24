package wizard

import "context"

// Store persists at most one wizard state per administrator. Get returns
// (nil, nil) when no state exists. Reads and writes are last-write-wins:
// there is no compare-and-swap, which is acceptable while a single human
// administrator drives the flow.
type Store interface {
	Get(ctx context.Context, adminID int64) (*State, error)
	Put(ctx context.Context, adminID int64, st State) error
	Delete(ctx context.Context, adminID int64) error
}
