package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/breakdown/internal/db"
	"horse.fit/breakdown/internal/engine"
)

type stubStore struct {
	pingErr   error
	runs      []db.SyncRun
	lastLimit int
}

func (s *stubStore) Ping(context.Context) error { return s.pingErr }

func (s *stubStore) ListRecentSyncRuns(_ context.Context, limit int) ([]db.SyncRun, error) {
	s.lastLimit = limit
	return s.runs, nil
}

type stubRunner struct {
	entities []string
	err      error
	block    chan struct{}
	started  chan struct{}
}

func (r *stubRunner) Run(_ context.Context, entity string) (engine.RunSummary, error) {
	r.entities = append(r.entities, entity)
	if r.started != nil {
		r.started <- struct{}{}
		<-r.block
	}
	summary := engine.RunSummary{RunID: "run-1", Entity: entity, Status: db.RunStatusCompleted, Counts: db.SyncCounts{Inserted: 2}}
	if r.err != nil {
		summary.Status = db.RunStatusFailed
		summary.Error = r.err.Error()
	}
	return summary, r.err
}

func doRequest(t *testing.T, srv *Server, method, target string) (*httptest.ResponseRecorder, jsendResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body jsendResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubStore{}, &stubRunner{}, zerolog.Nop(), Options{})
	rec, body := doRequest(t, srv, http.MethodGet, "/api/v1/health")
	if rec.Code != http.StatusOK || body.Status != "success" {
		t.Fatalf("unexpected health response %d %+v", rec.Code, body)
	}

	down := NewServer(&stubStore{pingErr: errors.New("refused")}, &stubRunner{}, zerolog.Nop(), Options{})
	rec, body = doRequest(t, down, http.MethodGet, "/api/v1/health")
	if rec.Code != http.StatusServiceUnavailable || body.Status != "fail" {
		t.Fatalf("unexpected degraded health response %d %+v", rec.Code, body)
	}
}

func TestSyncTriggerRunsEntity(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	srv := NewServer(&stubStore{}, runner, zerolog.Nop(), Options{})

	rec, body := doRequest(t, srv, http.MethodPost, "/api/v1/sync/BILLS")
	if rec.Code != http.StatusOK || body.Status != "success" {
		t.Fatalf("unexpected sync response %d %+v", rec.Code, body)
	}
	if len(runner.entities) != 1 || runner.entities[0] != engine.EntityBills {
		t.Fatalf("unexpected runner calls %v", runner.entities)
	}
	data, _ := body.Data.(map[string]any)
	if data["run_id"] != "run-1" {
		t.Fatalf("expected run summary in data, got %+v", body.Data)
	}
}

func TestSyncTriggerRejectsUnknownEntity(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	srv := NewServer(&stubStore{}, runner, zerolog.Nop(), Options{})

	rec, body := doRequest(t, srv, http.MethodPost, "/api/v1/sync/senators")
	if rec.Code != http.StatusBadRequest || body.Status != "fail" {
		t.Fatalf("unexpected response %d %+v", rec.Code, body)
	}
	if len(runner.entities) != 0 {
		t.Fatalf("runner should not be called, got %v", runner.entities)
	}
}

func TestSyncTriggerReportsFailure(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubStore{}, &stubRunner{err: errors.New("provider down")}, zerolog.Nop(), Options{})
	rec, body := doRequest(t, srv, http.MethodPost, "/api/v1/sync/votes")
	if rec.Code != http.StatusInternalServerError || body.Status != "error" {
		t.Fatalf("unexpected response %d %+v", rec.Code, body)
	}
}

func TestSyncTriggerRejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{started: make(chan struct{}), block: make(chan struct{})}
	srv := NewServer(&stubStore{}, runner, zerolog.Nop(), Options{})
	handler := srv.Handler()

	done := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync/reps", nil))
		done <- rec.Code
	}()
	<-runner.started

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync/reps", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected conflict, got %d", rec.Code)
	}

	close(runner.block)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("first run returned %d", code)
	}
}

func TestSyncRunsValidatesLimit(t *testing.T) {
	t.Parallel()

	store := &stubStore{runs: []db.SyncRun{{ID: "r1", Entity: "bills", Status: db.RunStatusCompleted}}}
	srv := NewServer(store, &stubRunner{}, zerolog.Nop(), Options{})

	rec, body := doRequest(t, srv, http.MethodGet, "/api/v1/sync/runs?limit=5")
	if rec.Code != http.StatusOK || body.Status != "success" || store.lastLimit != 5 {
		t.Fatalf("unexpected runs response %d %+v (limit %d)", rec.Code, body, store.lastLimit)
	}

	rec, _ = doRequest(t, srv, http.MethodGet, "/api/v1/sync/runs?limit=0")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected validation failure, got %d", rec.Code)
	}
}

func TestUnknownAPIRouteUsesJSend(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubStore{}, &stubRunner{}, zerolog.Nop(), Options{})
	rec, body := doRequest(t, srv, http.MethodGet, "/api/v1/nope")
	if rec.Code != http.StatusNotFound || body.Status != "fail" {
		t.Fatalf("unexpected response %d %+v", rec.Code, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubStore{}, &stubRunner{}, zerolog.Nop(), Options{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("unexpected metrics response %d", rec.Code)
	}
}
