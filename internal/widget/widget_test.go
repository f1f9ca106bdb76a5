package widget

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"multilookup/api/internal/cache"
	"multilookup/api/internal/fetch"
	"multilookup/api/internal/lookup"
)

type fakeFetcher struct {
	FetchFn func(ctx context.Context, q fetch.Query) ([]lookup.Option, error)
}

func (f fakeFetcher) Fetch(ctx context.Context, q fetch.Query) ([]lookup.Option, error) {
	return f.FetchFn(ctx, q)
}

func fruitFetcher() fakeFetcher {
	return fakeFetcher{FetchFn: func(context.Context, fetch.Query) ([]lookup.Option, error) {
		return []lookup.Option{
			{Key: "1", Label: "Apple"},
			{Key: "2", Label: "Banana"},
			{Key: "3", Label: "Cherry"},
		}, nil
	}}
}

func fruitConfig() Config {
	return Config{Query: fetch.Query{Collection: "fruit", DisplayColumn: "name"}}
}

func strptr(s string) *string { return &s }

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not settle")
	}
}

func TestNewWidgetIsLoading(t *testing.T) {
	w := New(fruitFetcher())
	require.Equal(t, StatusLoading, w.View().Status)
}

func TestConfigureReconcilesValue(t *testing.T) {
	w := New(fruitFetcher())
	w.SetValue(strptr("Apple;Kiwi"))

	wait(t, w.Configure(context.Background(), fruitConfig()))

	view := w.View()
	require.Equal(t, StatusReady, view.Status)
	require.Equal(t, []string{"1", "MISSING_Kiwi"}, view.SelectedKeys)
	require.Len(t, view.Options, 4)
	require.Equal(t, "Kiwi (Item not found)", view.Options[3].Label)
}

func TestConfigureEmptyCollectionGoesToError(t *testing.T) {
	called := false
	w := New(fakeFetcher{FetchFn: func(context.Context, fetch.Query) ([]lookup.Option, error) {
		called = true
		return nil, nil
	}})

	wait(t, w.Configure(context.Background(), Config{Query: fetch.Query{DisplayColumn: "name"}}))

	view := w.View()
	require.Equal(t, StatusError, view.Status)
	require.Equal(t, "Configuration Error: Target Entity or Display Column is empty.", view.Error)
	require.False(t, called)
}

func TestConfigureFetchFailureGoesToError(t *testing.T) {
	w := New(fakeFetcher{FetchFn: func(context.Context, fetch.Query) ([]lookup.Option, error) {
		return nil, &fetch.FetchError{Collection: "fruit", Message: "403 Forbidden"}
	}})

	wait(t, w.Configure(context.Background(), fruitConfig()))

	view := w.View()
	require.Equal(t, StatusError, view.Status)
	require.Equal(t, "Error fetching data: 403 Forbidden", view.Error)
	require.Empty(t, view.Options)
}

func TestSameConfigDoesNotRefetch(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	w := New(fakeFetcher{FetchFn: func(context.Context, fetch.Query) ([]lookup.Option, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil, errors.New("down")
	}})

	wait(t, w.Configure(context.Background(), fruitConfig()))
	wait(t, w.Configure(context.Background(), fruitConfig()))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, calls)
	require.Equal(t, StatusError, w.View().Status)
}

func TestChangedConfigLeavesError(t *testing.T) {
	w := New(fruitFetcher())
	wait(t, w.Configure(context.Background(), Config{Query: fetch.Query{Collection: "fruit"}}))
	require.Equal(t, StatusError, w.View().Status)

	wait(t, w.Configure(context.Background(), fruitConfig()))
	require.Equal(t, StatusReady, w.View().Status)
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	w := New(fakeFetcher{FetchFn: func(_ context.Context, q fetch.Query) ([]lookup.Option, error) {
		if q.Collection == "fruit" {
			<-release
			return []lookup.Option{{Key: "1", Label: "Apple"}}, nil
		}
		return []lookup.Option{{Key: "c1", Label: "Produce"}}, nil
	}})

	first := w.Configure(context.Background(), fruitConfig())
	second := w.Configure(context.Background(), Config{Query: fetch.Query{Collection: "category", DisplayColumn: "title"}})
	wait(t, second)
	close(release)
	wait(t, first)

	view := w.View()
	require.Equal(t, StatusReady, view.Status)
	require.Equal(t, []lookup.Option{{Key: "c1", Label: "Produce"}}, view.Options)
	require.Equal(t, "category", view.Query.Collection)
}

func TestToggleNotifiesHost(t *testing.T) {
	var notified []*string
	w := New(fruitFetcher(), WithNotifier(func(value *string) {
		notified = append(notified, value)
	}))
	w.SetValue(strptr("Kiwi;Banana"))
	wait(t, w.Configure(context.Background(), fruitConfig()))

	value, err := w.Toggle(lookup.Toggle{Key: "3", Selected: true})
	require.NoError(t, err)
	require.Equal(t, "Kiwi; Banana; Cherry", *value)
	require.Equal(t, []string{"MISSING_Kiwi", "2", "3"}, w.View().SelectedKeys)

	_, err = w.Toggle(lookup.Toggle{Key: "MISSING_Kiwi", Selected: false})
	require.NoError(t, err)
	view := w.View()
	require.Equal(t, "Banana; Cherry", *view.Value)
	require.Len(t, view.Options, 3, "deselected ghost disappears")

	require.Len(t, notified, 2)
	require.Equal(t, "Banana; Cherry", *notified[1])
}

func TestToggleLastSelectionNotifiesNil(t *testing.T) {
	var notified []*string
	w := New(fruitFetcher(), WithNotifier(func(value *string) {
		notified = append(notified, value)
	}))
	w.SetValue(strptr("Apple"))
	wait(t, w.Configure(context.Background(), fruitConfig()))

	value, err := w.Toggle(lookup.Toggle{Key: "1", Selected: false})
	require.NoError(t, err)
	require.Nil(t, value)
	require.Len(t, notified, 1)
	require.Nil(t, notified[0])
	require.Nil(t, w.Output())
}

func TestToggleRejected(t *testing.T) {
	ctx := context.Background()

	loading := New(fakeFetcher{FetchFn: func(ctx context.Context, _ fetch.Query) ([]lookup.Option, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})
	cctx, cancel := context.WithCancel(ctx)
	done := loading.Configure(cctx, fruitConfig())
	_, err := loading.Toggle(lookup.Toggle{Key: "1", Selected: true})
	require.ErrorIs(t, err, ErrNotReady)
	cancel()
	wait(t, done)

	disabled := New(fruitFetcher())
	cfg := fruitConfig()
	cfg.Disabled = true
	wait(t, disabled.Configure(ctx, cfg))
	_, err = disabled.Toggle(lookup.Toggle{Key: "1", Selected: true})
	require.ErrorIs(t, err, ErrDisabled)
	require.True(t, disabled.View().Disabled)

	ready := New(fruitFetcher())
	wait(t, ready.Configure(ctx, fruitConfig()))
	_, err = ready.Toggle(lookup.Toggle{Key: "99", Selected: true})
	require.ErrorIs(t, err, ErrUnknownOption)
}

func TestSetValueWhileReadyReconciles(t *testing.T) {
	w := New(fruitFetcher())
	wait(t, w.Configure(context.Background(), fruitConfig()))

	w.SetValue(strptr("Cherry; Apple"))
	require.Equal(t, []string{"3", "1"}, w.View().SelectedKeys)

	w.SetValue(nil)
	view := w.View()
	require.Empty(t, view.SelectedKeys)
	require.Nil(t, view.Value)
}

func TestRefreshRefetches(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	w := New(fakeFetcher{FetchFn: func(context.Context, fetch.Query) ([]lookup.Option, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return []lookup.Option{{Key: "1", Label: "Apple"}}, nil
	}})
	wait(t, w.Configure(context.Background(), fruitConfig()))
	wait(t, w.Refresh(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, calls)
}

func TestFetchHookReceivesAppliedOptions(t *testing.T) {
	var got []lookup.Option
	var gotQuery fetch.Query
	hooked := make(chan struct{})
	w := New(fruitFetcher(), WithFetchHook(func(q fetch.Query, options []lookup.Option) {
		gotQuery, got = q, options
		close(hooked)
	}))
	wait(t, w.Configure(context.Background(), fruitConfig()))
	wait(t, hooked)

	require.Equal(t, "fruit", gotQuery.Collection)
	require.Len(t, got, 3)
}

func TestRefreshReadsThroughRecordCache(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var mu sync.Mutex
	records := []fetch.Record{{ID: "1", Name: "Apple"}}
	backend := fetch.RecordSourceFunc(func(context.Context, fetch.Query) ([]fetch.Record, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]fetch.Record(nil), records...), nil
	})
	source := fetch.NewCoalescing(cache.NewRedisCacheWithClient(client, backend, time.Minute))
	w := New(fetch.New(source, fetch.WithLogger(nil)))

	wait(t, w.Configure(ctx, fruitConfig()))
	require.Len(t, w.View().Options, 1)

	mu.Lock()
	records = append(records, fetch.Record{ID: "2", Name: "Banana"})
	mu.Unlock()

	cached, err := source.RetrieveMultiple(ctx, fruitConfig().Query)
	require.NoError(t, err)
	require.Len(t, cached, 1, "cache still holds the first record set")

	wait(t, w.Refresh(ctx))

	require.Equal(t, []lookup.Option{
		{Key: "1", Label: "Apple"},
		{Key: "2", Label: "Banana"},
	}, w.View().Options)
}

func TestConfigureDoesNotInvalidate(t *testing.T) {
	inv := &invalidatingFetcher{}
	w := New(inv)

	wait(t, w.Configure(context.Background(), fruitConfig()))
	require.Zero(t, inv.invalidated.Load())

	wait(t, w.Refresh(context.Background()))
	require.Equal(t, int32(1), inv.invalidated.Load())
}

type invalidatingFetcher struct {
	invalidated atomic.Int32
}

func (f *invalidatingFetcher) Fetch(context.Context, fetch.Query) ([]lookup.Option, error) {
	return []lookup.Option{{Key: "1", Label: "Apple"}}, nil
}

func (f *invalidatingFetcher) Invalidate(context.Context, fetch.Query) error {
	f.invalidated.Add(1)
	return nil
}
