package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/breakdown/internal/config"
	"horse.fit/breakdown/internal/db"
	"horse.fit/breakdown/internal/db/dbtest"
	"horse.fit/breakdown/internal/engine"
	"horse.fit/breakdown/internal/httpapi"
)

func TestRunRejectsUnknownCommand(t *testing.T) {
	if code := Run(nil); code != 2 {
		t.Fatalf("expected usage exit code, got %d", code)
	}
	if code := Run([]string{"frobnicate"}); code != 2 {
		t.Fatalf("expected usage exit code, got %d", code)
	}
	if code := Run([]string{"help"}); code != 0 {
		t.Fatalf("expected help exit code 0, got %d", code)
	}
}

func TestSubcommandsValidateArguments(t *testing.T) {
	cases := map[string][]string{
		"sync without target":   {"sync"},
		"sync unknown target":   {"sync", "senators"},
		"enrich without key":    {"enrich"},
		"serve with bad port":   {"serve", "--port", "0"},
		"schedule bad entities": {"schedule", "--entities", "reps,nope"},
	}
	for name, args := range cases {
		if code := Run(args); code != 2 {
			t.Fatalf("%s: expected exit code 2, got %d", name, code)
		}
	}
}

func TestParseEntities(t *testing.T) {
	t.Parallel()

	got, err := parseEntities(" Bills ")
	if err != nil || !reflect.DeepEqual(got, []string{engine.EntityBills}) {
		t.Fatalf("unexpected entities %v (%v)", got, err)
	}

	all, err := parseEntities("all")
	if err != nil || !reflect.DeepEqual(all, engine.Entities) {
		t.Fatalf("unexpected all entities %v (%v)", all, err)
	}

	if _, err := parseEntities("senators"); err == nil {
		t.Fatal("expected unknown target error")
	}
}

func TestParseEntityList(t *testing.T) {
	t.Parallel()

	got, err := parseEntityList("votes, reps,votes")
	if err != nil || !reflect.DeepEqual(got, []string{engine.EntityVotes, engine.EntityLegislators}) {
		t.Fatalf("unexpected entities %v (%v)", got, err)
	}

	empty, err := parseEntityList(" , ")
	if err != nil || !reflect.DeepEqual(empty, engine.Entities) {
		t.Fatalf("blank list should mean all, got %v (%v)", empty, err)
	}
}

func providerServer(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/118/house/members.json":  `{"status":"OK","results":[{"members":[{"id":"A000001","last_name":"Adams"},{"id":"A000001"}]}]}`,
		"/118/senate/members.json": `{"status":"OK","results":[{"members":[{"id":"B000002","last_name":"Baker"}]}]}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Environment:              "test",
		LogLevel:                 "error",
		CongressBaseURL:          baseURL,
		CongressAPIKey:           "key",
		CongressNumber:           118,
		CongressPageSize:         20,
		CongressFetchConcurrency: 2,
		CongressRequestTimeout:   5 * time.Second,
		SyncChunkSize:            20,
		DocumentBaseURL:          baseURL,
		DocumentTimeout:          5 * time.Second,
		SummaryProvider:          "openai",
		SummaryEndpoint:          baseURL,
		SummaryChunkChars:        8000,
		EnrichmentEnabled:        true,
		EnrichmentWorkers:        2,
		KafkaSyncTopic:           "breakdown.sync.completed",
		ScheduleInterval:         time.Hour,
	}
}

func TestRuntimeRunsEntryPoint(t *testing.T) {
	t.Parallel()

	pool := dbtest.Open(t)
	srv := providerServer(t)

	rt, err := newRuntime(context.Background(), testConfig(srv.URL), pool, zerolog.Nop(), runtimeOptions{})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer rt.Close(time.Second)
	if rt.dispatcher == nil {
		t.Fatal("expected enrichment dispatcher when enabled")
	}

	summary, err := rt.engine.Run(context.Background(), engine.EntityLegislators)
	if err != nil {
		t.Fatalf("sync reps: %v", err)
	}
	want := db.SyncCounts{Fetched: 3, Duplicates: 1, Inserted: 2}
	if summary.Status != db.RunStatusCompleted || summary.Counts != want {
		t.Fatalf("unexpected summary %+v", summary)
	}

	legislators, err := pool.ListLegislators(context.Background())
	if err != nil {
		t.Fatalf("list legislators: %v", err)
	}
	if len(legislators) != 2 {
		t.Fatalf("expected 2 legislators, got %d", len(legislators))
	}
}

func TestRuntimeWithoutEnrichment(t *testing.T) {
	t.Parallel()

	disabled := false
	rt, err := newRuntime(context.Background(), testConfig("http://127.0.0.1:1"), dbtest.Open(t), zerolog.Nop(), runtimeOptions{Enrichment: &disabled})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer rt.Close(0)
	if rt.dispatcher != nil || rt.enricher == nil {
		t.Fatalf("expected enricher without dispatcher, got dispatcher=%v", rt.dispatcher)
	}
}

func TestServeTriggersSyncThroughRuntime(t *testing.T) {
	t.Parallel()

	pool := dbtest.Open(t)
	srv := providerServer(t)
	rt, err := newRuntime(context.Background(), testConfig(srv.URL), pool, zerolog.Nop(), runtimeOptions{})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer rt.Close(time.Second)

	handler := httpapi.NewServer(pool, rt.engine, zerolog.Nop(), httpapi.Options{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync/reps", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sync/runs", nil))
	var body struct {
		Status string `json:"status"`
		Data   struct {
			Items []db.SyncRun `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if body.Status != "success" || len(body.Data.Items) != 1 || !strings.EqualFold(body.Data.Items[0].Entity, engine.EntityLegislators) {
		t.Fatalf("unexpected runs body %s", rec.Body.String())
	}
}
