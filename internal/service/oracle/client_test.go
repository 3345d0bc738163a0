package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iamasit07/drop4/internal/domain"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string]int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]int)}
}

func (m *memoryCache) LookupMove(_ context.Context, key string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.data[key]
	return col, ok, nil
}

func (m *memoryCache) StoreMove(_ context.Context, key string, column int, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = column
	return nil
}

// oracleServer answers every completion with body and records requests.
func oracleServer(t *testing.T, status int, body string) (*httptest.Server, *[]chatRequest, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var requests []chatRequest
	var auth []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		mu.Lock()
		requests = append(requests, req)
		auth = append(auth, r.Header.Get("Authorization"))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests, &auth
}

func newTestClient(srv *httptest.Server, cache Cache) *Client {
	return NewClient(Options{
		APIKey:   "sk-test",
		BaseURL:  srv.URL + "/v1",
		Model:    "test-model",
		Timeout:  2 * time.Second,
		Cache:    cache,
		CacheTTL: time.Minute,
	})
}

func contentResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestRequestMoveParsesResponseShapes(t *testing.T) {
	toolCall := `{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"choose_column","arguments":"{\"column\": 4}"}}]}}]}`
	legacyCall := `{"choices":[{"message":{"role":"assistant","function_call":{"name":"choose_column","arguments":"{\"column\":5}"}}}]}`

	cases := []struct {
		name string
		body string
		want int
	}{
		{"content", contentResponse(`{"column": 3}`), 3},
		{"fenced content", contentResponse("```json\n{\"column\": 2}\n```"), 2},
		{"tool call", toolCall, 4},
		{"function call", legacyCall, 5},
		{"out of range is passed through", contentResponse(`{"column": 9}`), 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _, _ := oracleServer(t, http.StatusOK, tc.body)
			col, err := newTestClient(srv, nil).RequestMove(context.Background(), domain.EmptyBoard(), domain.Player2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if col != tc.want {
				t.Fatalf("column = %d, want %d", col, tc.want)
			}
		})
	}
}

func TestRequestMoveFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`},
		{"not json", http.StatusOK, `<html>`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"missing column", http.StatusOK, contentResponse(`{"col": 3}`)},
		{"string column", http.StatusOK, contentResponse(`{"column": "3"}`)},
		{"fractional column", http.StatusOK, contentResponse(`{"column": 3.5}`)},
		{"prose only", http.StatusOK, contentResponse(`I would play the middle.`)},
		{"empty message", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":""}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _, _ := oracleServer(t, tc.status, tc.body)
			_, err := newTestClient(srv, nil).RequestMove(context.Background(), domain.EmptyBoard(), domain.Player2)
			if !errors.Is(err, domain.ErrOracleFailure) {
				t.Fatalf("expected ErrOracleFailure, got %v", err)
			}
		})
	}
}

func TestRequestMoveTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Options{APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := client.RequestMove(context.Background(), domain.EmptyBoard(), domain.Player2)
	if !errors.Is(err, domain.ErrOracleFailure) {
		t.Fatalf("expected ErrOracleFailure on timeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout was not enforced")
	}
}

func TestRequestMoveSendsPromptAndCredential(t *testing.T) {
	srv, requests, auth := oracleServer(t, http.StatusOK, contentResponse(`{"column": 3}`))
	board, _, _ := domain.ApplyMove(domain.EmptyBoard(), 3, domain.Player1)

	if _, err := newTestClient(srv, nil).RequestMove(context.Background(), board, domain.Player2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	if (*auth)[0] != "Bearer sk-test" {
		t.Fatalf("authorization header = %q", (*auth)[0])
	}

	req := (*requests)[0]
	if req.Model != "test-model" || req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if len(req.Tools) != 1 || req.Tools[0].Function.Name != functionName {
		t.Fatalf("expected the choose_column tool, got %+v", req.Tools)
	}
	if len(req.Messages) != 2 || !strings.Contains(req.Messages[0].Content, "must not be full") {
		t.Fatalf("system prompt lacks the column constraint")
	}
	user := req.Messages[1].Content
	for _, want := range []string{"Blue", "- - - R - - -", `["-","-","-","R","-","-","-"]`, "0, 1, 2, 3, 4, 5, 6"} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestRequestMoveCachesLegalAnswers(t *testing.T) {
	cache := newMemoryCache()
	srv, requests, _ := oracleServer(t, http.StatusOK, contentResponse(`{"column": 1}`))
	client := newTestClient(srv, cache)

	for i := 0; i < 2; i++ {
		col, err := client.RequestMove(context.Background(), domain.EmptyBoard(), domain.Player2)
		if err != nil || col != 1 {
			t.Fatalf("call %d: column %d, err %v", i, col, err)
		}
	}
	if len(*requests) != 1 {
		t.Fatalf("second call should be served from cache, got %d requests", len(*requests))
	}
}

func TestRequestMoveDoesNotCacheIllegalAnswers(t *testing.T) {
	cache := newMemoryCache()
	srv, requests, _ := oracleServer(t, http.StatusOK, contentResponse(`{"column": 0}`))
	client := newTestClient(srv, cache)

	board := domain.EmptyBoard()
	for i := 0; i < domain.Rows; i++ {
		board, _, _ = domain.ApplyMove(board, 0, domain.Player1)
	}

	for i := 0; i < 2; i++ {
		col, err := client.RequestMove(context.Background(), board, domain.Player2)
		if err != nil || col != 0 {
			t.Fatalf("call %d: column %d, err %v", i, col, err)
		}
	}
	if len(*requests) != 2 {
		t.Fatalf("illegal answers must be asked again, got %d requests", len(*requests))
	}
}
