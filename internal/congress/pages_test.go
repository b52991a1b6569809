package congress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeGetter struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	calls     []string
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	delay     time.Duration
}

func (g *fakeGetter) GetJSON(_ context.Context, url string) ([]byte, error) {
	current := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		seen := g.maxFlight.Load()
		if current <= seen || g.maxFlight.CompareAndSwap(seen, current) {
			break
		}
	}
	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	g.mu.Lock()
	g.calls = append(g.calls, url)
	g.mu.Unlock()

	if err, ok := g.failures[url]; ok {
		return nil, err
	}
	if body, ok := g.responses[url]; ok {
		return []byte(body), nil
	}
	return nil, fmt.Errorf("unexpected url %s", url)
}

func billPage(keys ...string) string {
	items := make([]string, 0, len(keys))
	for _, key := range keys {
		items = append(items, fmt.Sprintf(`{"bill_id":%q}`, key))
	}
	return `{"status":"OK","results":[{"bills":[` + strings.Join(items, ",") + `]}]}`
}

func keysOf(bills []BillRecord) []string {
	out := make([]string, 0, len(bills))
	for _, bill := range bills {
		out = append(out, bill.NaturalKey())
	}
	return out
}

func TestPageRequestPageURLs(t *testing.T) {
	t.Parallel()

	req := PageRequest{URL: "https://api.test/118/both/bills/introduced.json", PageSize: 20, Total: 50}
	want := []string{
		"https://api.test/118/both/bills/introduced.json?offset=0",
		"https://api.test/118/both/bills/introduced.json?offset=20",
		"https://api.test/118/both/bills/introduced.json?offset=40",
	}
	if got := req.PageURLs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected urls: %v", got)
	}

	unpaged := PageRequest{URL: "https://api.test/118/house/members.json"}
	if got := unpaged.PageURLs(); !reflect.DeepEqual(got, []string{"https://api.test/118/house/members.json"}) {
		t.Fatalf("unexpected unpaged urls: %v", got)
	}
}

func TestFetchPagesToleratesFailedPage(t *testing.T) {
	t.Parallel()

	base := "https://api.test/bills.json"
	getter := &fakeGetter{
		responses: map[string]string{
			base + "?offset=0":  billPage("a"),
			base + "?offset=20": billPage("b"),
			base + "?offset=40": billPage("c"),
			base + "?offset=60": billPage("d"),
			base + "?offset=80": `not json`,
		},
		failures: map[string]error{
			base + "?offset=20": errors.New("connection reset"),
		},
	}
	fetcher := NewPageFetcher(getter, 3, zerolog.Nop())

	got := FetchPages[BillRecord](context.Background(), fetcher, PageRequest{URL: base, Category: "introduced", PageSize: 20, Total: 100}, "bills")
	if want := []string{"a", "c", "d"}; !reflect.DeepEqual(keysOf(got), want) {
		t.Fatalf("unexpected keys: got %v want %v", keysOf(got), want)
	}
	if len(getter.calls) != 5 {
		t.Fatalf("unexpected call count: %d", len(getter.calls))
	}
}

func TestFetchPagesBoundsConcurrency(t *testing.T) {
	t.Parallel()

	base := "https://api.test/bills.json"
	responses := make(map[string]string)
	for offset := 0; offset < 200; offset += 20 {
		responses[WithOffset(base, offset)] = billPage(fmt.Sprintf("b%d", offset))
	}
	getter := &fakeGetter{responses: responses, delay: 10 * time.Millisecond}
	fetcher := NewPageFetcher(getter, 2, zerolog.Nop())

	got := FetchPages[BillRecord](context.Background(), fetcher, PageRequest{URL: base, PageSize: 20, Total: 200}, "bills")
	if len(got) != 10 {
		t.Fatalf("unexpected item count: %d", len(got))
	}
	if peak := getter.maxFlight.Load(); peak > 2 {
		t.Fatalf("concurrency exceeded limit: %d", peak)
	}
}

func TestFetchPagesStopsWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	getter := &fakeGetter{responses: map[string]string{}}
	got := FetchPages[BillRecord](ctx, NewPageFetcher(getter, 2, zerolog.Nop()), PageRequest{URL: "https://api.test/b.json", PageSize: 20, Total: 60}, "bills")
	if len(got) != 0 || len(getter.calls) != 0 {
		t.Fatalf("expected no requests after cancellation, got %d calls", len(getter.calls))
	}
}

func TestClientSendsAPIKeyAndRejectsErrors(t *testing.T) {
	t.Parallel()

	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		if r.URL.Path == "/missing" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(billPage("hr1-118")))
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{APIKey: " secret ", Timeout: time.Second, RequestsPerSecond: 100})
	body, err := client.GetJSON(context.Background(), srv.URL+"/bills")
	if err != nil {
		t.Fatalf("get json: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("unexpected api key header: %q", gotKey)
	}
	if !strings.Contains(string(body), "hr1-118") {
		t.Fatalf("unexpected body: %s", body)
	}

	if _, err := client.GetJSON(context.Background(), srv.URL+"/missing"); err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

type memorySubjectCache struct {
	values map[string][]string
	sets   int
}

func (c *memorySubjectCache) Get(_ context.Context, key string) ([]string, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *memorySubjectCache) Set(_ context.Context, key string, subjects []string) {
	c.sets++
	c.values[key] = subjects
}

func subjectPage(names ...string) string {
	items := make([]string, 0, len(names))
	for _, name := range names {
		items = append(items, fmt.Sprintf(`{"name":%q}`, name))
	}
	return `{"status":"OK","results":[{"subjects":[` + strings.Join(items, ",") + `]}]}`
}

func TestSubjectSourcePagesAndCaches(t *testing.T) {
	t.Parallel()

	endpoints := Endpoints{BaseURL: "https://api.test/congress/v1/", Congress: 118}
	base := endpoints.BillSubjects("hr1")
	getter := &fakeGetter{responses: map[string]string{
		WithOffset(base, 0): subjectPage("Health", "Taxation"),
		WithOffset(base, 2): subjectPage("Medicare"),
	}}
	cache := &memorySubjectCache{values: map[string][]string{}}
	source := NewSubjectSource(getter, endpoints, 2, cache, zerolog.Nop())

	got := source.Subjects(context.Background(), "hr1")
	if want := []string{"Health", "Taxation", "Medicare"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected subjects: %v", got)
	}
	if base != "https://api.test/congress/v1/118/bills/hr1/subjects.json" {
		t.Fatalf("unexpected subjects url: %s", base)
	}

	again := source.Subjects(context.Background(), "hr1")
	if !reflect.DeepEqual(again, got) || len(getter.calls) != 2 || cache.sets != 1 {
		t.Fatalf("expected cached subjects; calls=%d sets=%d", len(getter.calls), cache.sets)
	}
}

func TestSubjectSourceFailureYieldsNoData(t *testing.T) {
	t.Parallel()

	endpoints := Endpoints{BaseURL: "https://api.test", Congress: 118}
	getter := &fakeGetter{failures: map[string]error{
		WithOffset(endpoints.BillSubjects("s9"), 0): errors.New("timeout"),
	}}
	source := NewSubjectSource(getter, endpoints, 20, nil, zerolog.Nop())
	if got := source.Subjects(context.Background(), "s9"); got != nil {
		t.Fatalf("expected nil subjects, got %v", got)
	}
}
