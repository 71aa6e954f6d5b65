package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pixly/internal/api"
	"pixly/internal/pipeline"
	"pixly/internal/testsupport"
)

func newTestAPI(t *testing.T, token string) (*httptest.Server, *Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithTesseractStub([]string{"x"}))
	cfg.Paths.APIToken = token
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.InsertRecord(t, st, "Screenshot_2025_Jan_2_stack_trace.png", "Errors", "Traceback most recent call last")
	testsupport.InsertRecord(t, st, "Screenshot_2025_Jan_2_login_dialog.png", "UI", "Sign in button")

	metrics := pipeline.NewMetrics()
	processor, err := pipeline.NewFromConfig(context.Background(), cfg, st, metrics, nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	d, err := New(cfg, st, processor, metrics, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	srv := httptest.NewServer(d.api.handler())
	t.Cleanup(srv.Close)
	return srv, d
}

func getJSON(t *testing.T, srv *httptest.Server, path, token string, out any) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestAPIServerStats(t *testing.T) {
	srv, _ := newTestAPI(t, "")
	var stats api.StatsResponse
	if code := getJSON(t, srv, "/api/stats", "", &stats); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if stats.Total != 2 || stats.ByCategory["Errors"] != 1 || stats.ByCategory["UI"] != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestAPIServerSearch(t *testing.T) {
	srv, _ := newTestAPI(t, "")
	var resp api.SearchResponse
	if code := getJSON(t, srv, "/api/search?q=traceback&limit=5", "", &resp); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp.Query != "traceback" || len(resp.Items) != 1 || resp.Items[0].Category != "Errors" {
		t.Fatalf("unexpected search response %+v", resp)
	}

	var errResp api.ErrorResponse
	if code := getJSON(t, srv, "/api/search?q=%20", "", &errResp); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty query, got %d", code)
	}
	if code := getJSON(t, srv, "/api/search?q=x&limit=abc", "", &errResp); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", code)
	}
}

func TestAPIServerRecent(t *testing.T) {
	srv, _ := newTestAPI(t, "")
	var resp api.ListResponse
	if code := getJSON(t, srv, "/api/recent?limit=1", "", &resp); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Items))
	}
}

func TestAPIServerStatusAndMetrics(t *testing.T) {
	srv, _ := newTestAPI(t, "")
	var status api.DaemonStatus
	if code := getJSON(t, srv, "/api/status", "", &status); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if status.Running || status.Queue.Capacity != 100 {
		t.Fatalf("unexpected status %+v", status)
	}

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "pixly_watcher_queue_length") {
		t.Fatalf("expected queue gauge in metrics output")
	}
}

func TestAPIServerRejectsNonGET(t *testing.T) {
	srv, _ := newTestAPI(t, "")
	resp, err := srv.Client().Post(srv.URL+"/api/stats", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestAPIServerRequiresToken(t *testing.T) {
	srv, _ := newTestAPI(t, "s3cret")
	if code := getJSON(t, srv, "/api/stats", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code := getJSON(t, srv, "/api/stats", "wrong", nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", code)
	}
	if code := getJSON(t, srv, "/api/stats", "s3cret", nil); code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", code)
	}
}
