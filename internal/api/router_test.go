package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/chat-ledger/internal/domain"
	"github.com/dvloznov/chat-ledger/internal/infra/sqlite"
	"github.com/dvloznov/chat-ledger/internal/jobs"
	"github.com/dvloznov/chat-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/chat-ledger/internal/logger"
	"github.com/dvloznov/chat-ledger/internal/pipeline"
)

type extractorFunc func(ctx context.Context, prompt string) (string, error)

func (f extractorFunc) Extract(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func newTestServer(t *testing.T, raw string) (*httptest.Server, *sqlite.Store, *inmemory.Store) {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("sqlite.Open() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	extractor := extractorFunc(func(context.Context, string) (string, error) { return raw, nil })
	p := pipeline.NewRecordPipeline(extractor, store,
		pipeline.WithClock(func() time.Time { return time.Date(2024, 6, 1, 4, 0, 0, 0, time.UTC) }),
		pipeline.WithLocation(time.UTC),
	)

	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(10, 1, jobStore)
	t.Cleanup(func() { queue.Close() })

	srv := httptest.NewServer(NewRouter(Deps{
		Processor:     p,
		Store:         store,
		Publisher:     queue,
		JobStore:      jobStore,
		ChannelSecret: "secret",
		Log:           logger.NewWithWriter(io.Discard),
	}))
	t.Cleanup(srv.Close)
	return srv, store, jobStore
}

func TestRouter_RecordThenList(t *testing.T) {
	srv, _, _ := newTestServer(t, `{"date":"今天","item":"午餐","amount":120,"category":"餐飲"}`)

	resp, err := http.Post(srv.URL+"/record", "application/json", strings.NewReader(`{"message":"午餐 120 元"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /record status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	var created struct {
		Status string        `json:"status"`
		Data   domain.Record `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	want := domain.Record{ID: created.Data.ID, Date: "2024-06-01", Item: "午餐", Amount: 120, Category: "餐飲"}
	if created.Status != "ok" || created.Data != want || created.Data.ID == 0 {
		t.Errorf("POST /record = %+v", created)
	}

	list, err := http.Get(srv.URL + "/list")
	if err != nil {
		t.Fatal(err)
	}
	defer list.Body.Close()
	var records []domain.Record
	json.NewDecoder(list.Body).Decode(&records)
	if len(records) != 1 || records[0] != created.Data {
		t.Errorf("GET /list = %+v, want [%+v]", records, created.Data)
	}
}

func TestRouter_RejectionLeavesLedgerEmpty(t *testing.T) {
	srv, store, _ := newTestServer(t, "not json")

	resp, err := http.Post(srv.URL+"/record", "application/json", strings.NewReader(`{"message":"hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["raw"] != "not json" || body["error"] == "" {
		t.Errorf("body = %v", body)
	}

	all, _ := store.List(context.Background())
	if len(all) != 0 {
		t.Errorf("ledger has %d records after rejection", len(all))
	}
}

func TestRouter_CallbackBadSignature(t *testing.T) {
	srv, _, jobStore := newTestServer(t, `{}`)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/callback", bytes.NewBufferString(`{"destination":"U","events":[]}`))
	req.Header.Set("X-Line-Signature", "bm9wZQ==")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	queued, _ := jobStore.ListJobs(context.Background(), jobs.JobFilter{})
	if len(queued) != 0 {
		t.Errorf("%d jobs queued for a bad signature", len(queued))
	}
}

func TestRouter_HealthAndUnknownRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t, `{}`)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/record", http.StatusMethodNotAllowed},
		{http.MethodGet, "/jobs", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
