package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"multilookup/api/internal/config"
	"multilookup/api/internal/fetch"
	"multilookup/api/internal/lookup"
	"multilookup/api/internal/rbac"
)

type fakeFetcher struct {
	fetchFn func(context.Context, fetch.Query) ([]lookup.Option, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, q fetch.Query) ([]lookup.Option, error) {
	if f.fetchFn != nil {
		return f.fetchFn(ctx, q)
	}
	return []lookup.Option{
		{Key: "1", Label: "Apple"},
		{Key: "2", Label: "Banana"},
		{Key: "3", Label: "Cherry"},
	}, nil
}

type fakePinger struct {
	pingFn func(context.Context) error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func newTestService(fetcher *fakeFetcher, db pinger) *Service {
	cfg := config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour}
	return NewService(context.Background(), cfg, fetcher, db, nil)
}

func hostToken(t *testing.T, svc *Service, hostID string) string {
	t.Helper()
	return hostTokenWithRole(t, svc, hostID, rbac.RoleEditor)
}

func hostTokenWithRole(t *testing.T, svc *Service, hostID string, role rbac.Role) string {
	t.Helper()
	token, err := svc.IssueHostToken(hostID, "Test host", role)
	if err != nil {
		t.Fatalf("IssueHostToken() error = %v", err)
	}
	return token
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v body=%s", err, rr.Body.String())
	}
	return payload
}

func stringList(t *testing.T, value any) []string {
	t.Helper()
	raw, ok := value.([]any)
	if !ok {
		t.Fatalf("expected list, got %T (%v)", value, value)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		out = append(out, item.(string))
	}
	return out
}

func optionKeys(t *testing.T, value any) []string {
	t.Helper()
	raw, ok := value.([]any)
	if !ok {
		t.Fatalf("expected option list, got %T (%v)", value, value)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		out = append(out, item.(map[string]any)["key"].(string))
	}
	return out
}
