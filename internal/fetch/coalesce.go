package fetch

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Coalescing shares one in-flight source call between identical queries.
// Widgets configured for the same collection and columns commonly load at the
// same moment.
type Coalescing struct {
	source RecordSource
	group  singleflight.Group
}

// NewCoalescing wraps source.
func NewCoalescing(source RecordSource) *Coalescing {
	return &Coalescing{source: source}
}

// RetrieveMultiple implements RecordSource.
func (c *Coalescing) RetrieveMultiple(ctx context.Context, q Query) ([]Record, error) {
	value, err, _ := c.group.Do(q.Key(), func() (any, error) {
		return c.source.RetrieveMultiple(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	records, _ := value.([]Record)
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

// Invalidate forgets any in-flight call for q and forwards to the wrapped
// source when it keeps records.
func (c *Coalescing) Invalidate(ctx context.Context, q Query) error {
	c.group.Forget(q.Key())
	if inv, ok := c.source.(Invalidator); ok {
		return inv.Invalidate(ctx, q)
	}
	return nil
}
