package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"lottery-proxy/internal/config"
	"lottery-proxy/internal/constants"

	"github.com/rs/zerolog"
)

func newTestXosoClient(t *testing.T, handler http.HandlerFunc) (*XosoClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewXosoClient(&config.Config{RelayBaseURL: srv.URL}, zerolog.Nop())
	return client, srv
}

func TestFetchGameIssuesSuccess(t *testing.T) {
	var gotPath atomic.Value
	client, _ := newTestXosoClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.String())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"t":{"issueList":[
			{"turnNum":"25/12/2025","detail":"[\"12345\",\"67890\"]"},
			{"turnNum":"24/12/2025","detail":"[\"11111\"]"}
		]}}`))
	})

	issues, err := client.FetchGameIssues(context.Background(), "tphc", 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(issues))
	}
	if issues[0].TurnNum != "25/12/2025" {
		t.Fatalf("unexpected first issue: %+v", issues[0])
	}

	path, _ := gotPath.Load().(string)
	if !strings.Contains(path, "gameCode=tphc") || !strings.Contains(path, "limitNum=15") {
		t.Fatalf("unexpected request path %q", path)
	}
}

func TestFetchGameIssuesRetriesToCeiling(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestXosoClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchGameIssues(context.Background(), "miba", 15)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := attempts.Load(); got != int32(constants.FetchMaxAttempts) {
		t.Fatalf("made %d attempts, want %d", got, constants.FetchMaxAttempts)
	}
}

func TestFetchGameIssuesRetriesOnErrorCode(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestXosoClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		// numeric error code with nothing in the list
		w.Write([]byte(`{"success":false,"errorCode":10,"t":{"issueList":[]}}`))
	})

	_, err := client.FetchGameIssues(context.Background(), "dana", 15)
	if err == nil {
		t.Fatal("expected error for upstream error code")
	}
	if got := attempts.Load(); got != int32(constants.FetchMaxAttempts) {
		t.Fatalf("made %d attempts, want %d", got, constants.FetchMaxAttempts)
	}
}

func TestFetchGameIssuesEmptyListWithoutErrorCode(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestXosoClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"errorCode":"0","t":{"issueList":[]}}`))
	})

	issues, err := client.FetchGameIssues(context.Background(), "dana", 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("got %d issues, want 0", len(issues))
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("made %d attempts, want 1 (an empty clean response is not retryable)", got)
	}
}

func TestFetchGameIssuesRetriesOnNonJSON(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestXosoClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Write([]byte("<html>blocked</html>"))
	})

	if _, err := client.FetchGameIssues(context.Background(), "tphc", 15); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
	if got := attempts.Load(); got != int32(constants.FetchMaxAttempts) {
		t.Fatalf("made %d attempts, want %d", got, constants.FetchMaxAttempts)
	}
}

func TestFetchGameIssuesSendsBrowserHeaders(t *testing.T) {
	var gotUA atomic.Value
	client, _ := newTestXosoClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		w.Write([]byte(`{"t":{"issueList":[{"turnNum":"25/12/2025","detail":"[\"1\"]"}]}}`))
	})

	if _, err := client.FetchGameIssues(context.Background(), "tphc", 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ua, _ := gotUA.Load().(string)
	if !strings.Contains(ua, "Mozilla/5.0") {
		t.Fatalf("browser user agent not sent, got %q", ua)
	}
}

func TestHistoryResponseErrorCodeShapes(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{`{}`, false},
		{`{"errorCode":0}`, false},
		{`{"errorCode":"0"}`, false},
		{`{"errorCode":""}`, false},
		{`{"errorCode":null}`, false},
		{`{"errorCode":10}`, true},
		{`{"errorCode":"E_RATE"}`, true},
	}
	for _, tc := range cases {
		var decoded historyResponse
		if err := json.Unmarshal([]byte(tc.body), &decoded); err != nil {
			t.Fatalf("decode %q: %v", tc.body, err)
		}
		if got := decoded.hasErrorCode(); got != tc.want {
			t.Errorf("hasErrorCode(%q) = %v, want %v", tc.body, got, tc.want)
		}
	}
}
