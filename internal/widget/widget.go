// Package widget holds the state of one multi-select lookup instance: the
// configured query, the fetched option set, the persisted value and the
// derived selection.
package widget

import (
	"context"
	"errors"
	"log"
	"sync"

	"multilookup/api/internal/fetch"
	"multilookup/api/internal/lookup"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

var (
	ErrDisabled      = errors.New("widget is disabled")
	ErrNotReady      = errors.New("widget is not ready")
	ErrUnknownOption = errors.New("unknown option key")
)

// Config is what the host supplies on each update.
type Config struct {
	fetch.Query
	Disabled bool `json:"disabled"`
}

// OptionFetcher is satisfied by *fetch.Fetcher.
type OptionFetcher interface {
	Fetch(ctx context.Context, q fetch.Query) ([]lookup.Option, error)
}

// Notifier receives the output value after every user toggle. A nil value
// means the field should be cleared.
type Notifier func(value *string)

// FetchHook observes every fetched option set that is applied.
type FetchHook func(q fetch.Query, options []lookup.Option)

// View is a snapshot for rendering.
type View struct {
	Status       Status          `json:"status"`
	Error        string          `json:"error,omitempty"`
	Options      []lookup.Option `json:"options"`
	SelectedKeys []string        `json:"selectedKeys"`
	Value        *string         `json:"value"`
	Disabled     bool            `json:"disabled"`
	Query        fetch.Query     `json:"config"`
}

type Option func(*Widget)

// WithNotifier sets the host notification callback.
func WithNotifier(notify Notifier) Option {
	return func(w *Widget) { w.notify = notify }
}

// WithFetchHook registers a callback for applied fetch results.
func WithFetchHook(hook FetchHook) Option {
	return func(w *Widget) { w.onFetched = hook }
}

// Widget is safe for concurrent use. Reconciliation runs under the widget's
// own lock; the fetch is the only operation that runs outside it.
type Widget struct {
	fetcher   OptionFetcher
	notify    Notifier
	onFetched FetchHook

	mu         sync.Mutex
	cfg        Config
	configured bool
	generation uint64
	settled    chan struct{}
	status     Status
	errMsg     string
	fetched    []lookup.Option
	value      *string
	state      lookup.Reconciliation
}

func New(fetcher OptionFetcher, opts ...Option) *Widget {
	w := &Widget{
		fetcher: fetcher,
		status:  StatusLoading,
		settled: make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Configure applies host configuration. A changed query starts a new fetch
// and returns a channel closed once that fetch has been applied or discarded.
// An unchanged query only updates the disabled flag.
func (w *Widget) Configure(ctx context.Context, cfg Config) <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cfg.Disabled = cfg.Disabled
	q := cfg.Query.Normalize()
	if w.configured && q == w.cfg.Query {
		return w.settled
	}
	w.cfg.Query = q
	w.configured = true
	return w.startFetchLocked(ctx, false)
}

// Refresh fetches the current query again. Records cached by the fetcher's
// source are dropped first so the result reflects the source.
func (w *Widget) Refresh(ctx context.Context) <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.configured {
		return w.settled
	}
	return w.startFetchLocked(ctx, true)
}

func (w *Widget) startFetchLocked(ctx context.Context, invalidate bool) <-chan struct{} {
	w.generation++
	generation := w.generation
	q := w.cfg.Query

	done := make(chan struct{})
	w.settled = done
	w.status = StatusLoading
	w.errMsg = ""
	w.fetched = nil
	w.state = lookup.Reconciliation{}

	if err := q.Validate(); err != nil {
		w.status = StatusError
		w.errMsg = fetch.DisplayMessage(err)
		close(done)
		return done
	}

	go func() {
		defer close(done)
		if invalidate {
			w.invalidate(ctx, q)
		}
		options, err := w.fetcher.Fetch(ctx, q)
		w.complete(generation, q, options, err)
	}()
	return done
}

func (w *Widget) invalidate(ctx context.Context, q fetch.Query) {
	inv, ok := w.fetcher.(fetch.Invalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, q); err != nil {
		log.Printf("widget: invalidate %s: %v", q.Collection, err)
	}
}

func (w *Widget) complete(generation uint64, q fetch.Query, options []lookup.Option, err error) {
	w.mu.Lock()
	if generation != w.generation {
		latest := w.generation
		w.mu.Unlock()
		log.Printf("widget: discarding stale fetch for %s (generation %d, latest %d)", q.Collection, generation, latest)
		return
	}
	if err != nil {
		w.status = StatusError
		w.errMsg = fetch.DisplayMessage(err)
		w.mu.Unlock()
		return
	}
	w.status = StatusReady
	w.fetched = options
	w.reconcileLocked()
	hook := w.onFetched
	w.mu.Unlock()

	if hook != nil {
		hook(q, options)
	}
}

// SetValue replaces the persisted value; nil means the field is empty.
func (w *Widget) SetValue(value *string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value = cloneValue(value)
	if w.status == StatusReady {
		w.reconcileLocked()
	}
}

// Toggle applies a user selection change, stores the new value and notifies
// the host. It returns the output value sent to the host.
func (w *Widget) Toggle(t lookup.Toggle) (*string, error) {
	w.mu.Lock()
	if w.cfg.Disabled {
		w.mu.Unlock()
		return nil, ErrDisabled
	}
	if w.status != StatusReady {
		w.mu.Unlock()
		return nil, ErrNotReady
	}
	if !hasOption(w.state.Options, t.Key) {
		w.mu.Unlock()
		return nil, ErrUnknownOption
	}

	_, value := lookup.ApplyToggle(t, w.state.SelectedKeys, w.state.Options)
	w.value = &value
	w.reconcileLocked()
	notify := w.notify
	w.mu.Unlock()

	output := lookup.Output(value)
	if notify != nil {
		notify(cloneValue(output))
	}
	return output, nil
}

// View returns a copy of the current state.
func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return View{
		Status:       w.status,
		Error:        w.errMsg,
		Options:      append([]lookup.Option{}, w.state.Options...),
		SelectedKeys: append([]string{}, w.state.SelectedKeys...),
		Value:        cloneValue(w.value),
		Disabled:     w.cfg.Disabled,
		Query:        w.cfg.Query,
	}
}

// Output is the value the host should persist.
func (w *Widget) Output() *string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.value == nil {
		return nil
	}
	return lookup.Output(*w.value)
}

func (w *Widget) reconcileLocked() {
	w.state = lookup.Reconcile(w.value, w.fetched)
}

func hasOption(options []lookup.Option, key string) bool {
	for _, option := range options {
		if option.Key == key {
			return true
		}
	}
	return false
}

func cloneValue(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
