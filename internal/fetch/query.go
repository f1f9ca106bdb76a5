package fetch

import (
	"context"
	"fmt"
	"strings"
)

// ActiveStateCode is the state value of records that may be offered.
const ActiveStateCode = 0

// Query names the collection and columns one widget configuration reads.
type Query struct {
	Collection    string `json:"targetEntity" yaml:"targetEntity"`
	DisplayColumn string `json:"displayColumn" yaml:"displayColumn"`
	SortColumn    string `json:"sortColumn,omitempty" yaml:"sortColumn,omitempty"`
}

// Record is one row returned by a RecordSource.
type Record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RecordSource retrieves the active records of a collection.
type RecordSource interface {
	RetrieveMultiple(ctx context.Context, q Query) ([]Record, error)
}

// Invalidator is implemented by sources that keep fetched records between
// calls. Invalidate drops what is kept for q so the next call reads through.
type Invalidator interface {
	Invalidate(ctx context.Context, q Query) error
}

// RecordSourceFunc adapts a function to RecordSource.
type RecordSourceFunc func(ctx context.Context, q Query) ([]Record, error)

// RetrieveMultiple implements RecordSource.
func (f RecordSourceFunc) RetrieveMultiple(ctx context.Context, q Query) ([]Record, error) {
	return f(ctx, q)
}

// Normalize trims surrounding whitespace from every field.
func (q Query) Normalize() Query {
	return Query{
		Collection:    strings.TrimSpace(q.Collection),
		DisplayColumn: strings.TrimSpace(q.DisplayColumn),
		SortColumn:    strings.TrimSpace(q.SortColumn),
	}
}

// Validate fails with a ConfigurationError when a required field is empty.
func (q Query) Validate() error {
	q = q.Normalize()
	if q.Collection == "" || q.DisplayColumn == "" {
		return &ConfigurationError{
			Message: "Target Entity or Display Column is empty.",
		}
	}
	return nil
}

// IDColumn is the identifier column of the collection.
func (q Query) IDColumn() string {
	return q.Collection + "id"
}

// ODataString renders the query options sent to a Web API endpoint.
func (q Query) ODataString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "?$select=%s,%s", q.DisplayColumn, q.IDColumn())
	fmt.Fprintf(&b, "&$filter=statecode eq %d", ActiveStateCode)
	if q.SortColumn != "" {
		fmt.Fprintf(&b, "&$orderby=%s asc", q.SortColumn)
	}
	return b.String()
}

// Key identifies the query for caching and coalescing.
func (q Query) Key() string {
	q = q.Normalize()
	return q.Collection + "|" + q.DisplayColumn + "|" + q.SortColumn
}
