package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/chat-ledger/internal/pipeline"
)

func TestOpenAI_Extract(t *testing.T) {
	const raw = `{"date":"今天","item":"taxi","amount":300,"category":"交通"}`

	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:   "ok",
			status: http.StatusOK,
			body:   `{"id":"c1","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":` + mustQuote(raw) + `}}],"usage":{"total_tokens":42}}`,
			want:   raw,
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"id":"c1","choices":[]}`,
			wantErr: true,
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"message":"slow down","type":"rate_limit"}}`,
			wantErr: true,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"bad key","type":"invalid_request_error"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
					t.Errorf("Authorization = %q", auth)
				}
				json.NewDecoder(r.Body).Decode(&gotReq)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			o := NewOpenAI("sk-test", srv.URL+"/v1", "gpt-4o-mini", time.Second)
			got, err := o.Extract(context.Background(), "prompt text")

			if tt.wantErr {
				if !errors.Is(err, pipeline.ErrBackendUnavailable) {
					t.Errorf("Extract() error = %v, want ErrBackendUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
			if gotReq["model"] != "gpt-4o-mini" {
				t.Errorf("request model = %v", gotReq["model"])
			}
			format, _ := gotReq["response_format"].(map[string]any)
			if format["type"] != "json_object" {
				t.Errorf("response_format = %v, want json_object", gotReq["response_format"])
			}
			msgs, _ := gotReq["messages"].([]any)
			if len(msgs) != 1 || !strings.Contains(mustJSON(msgs[0]), "prompt text") {
				t.Errorf("messages = %v", gotReq["messages"])
			}
		})
	}
}

func TestOpenAI_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o := NewOpenAI("sk-test", url+"/v1", "gpt-4o-mini", time.Second)
	if _, err := o.Extract(context.Background(), "p"); !errors.Is(err, pipeline.ErrBackendUnavailable) {
		t.Errorf("Extract() error = %v, want ErrBackendUnavailable", err)
	}
}

func mustQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
