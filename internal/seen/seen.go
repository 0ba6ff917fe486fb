// Package seen answers "is this the first time for this key" atomically.
package seen

import "context"

type Marker interface {
	// MarkOnce records key and reports whether this call was the first one within the TTL.
	MarkOnce(ctx context.Context, key string) (bool, error)
	// Forget drops the mark so the next MarkOnce for key is first again.
	Forget(ctx context.Context, key string) error
}
