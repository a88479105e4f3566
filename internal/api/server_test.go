package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/analytics"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/classify"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/compose"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/config"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/extract"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/pipeline"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/store"
)

const testAPIKey = "test-key"

const apiDigest = `Subject: Daily intelligence (05/11/2024 09:30:00)

Automotive

1. Supplier buyout agreed

1. Supplier buyout agreed

The business is backed by Nordic Capital Partners.

Intelligence ID: INT-7001
Grade: Confirmed
`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Config{
		APIKey:         testAPIKey,
		WorkerCount:    1,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	extractor := extract.NewExtractor(nil)
	classifier := classify.NewFallback()
	composer := compose.NewComposer(nil)
	stats := classify.NewStats(time.Hour)

	orch := pipeline.NewOrchestrator(cfg, st, extractor, classifier, composer, stats, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	calc := analytics.NewCalculator(st, extractor, classifier)
	return NewServer(orch, calc, classifier, stats, composer, log, cfg)
}

func authedRequest(method, target, body, contentType string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func TestHealth_Public(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_Rejected(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", rec.Code)
	}
}

// ingestAndWait submits a digest and polls until the job settles.
func ingestAndWait(t *testing.T, s *Server) string {
	t.Helper()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/ingest", apiDigest, "text/plain"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode ingest response: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, authedRequest(http.MethodGet, accepted.PollURL, "", ""))
		if rec.Code != http.StatusOK {
			t.Fatalf("status poll returned %d", rec.Code)
		}
		var snap pipeline.JobSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		switch snap.Status {
		case pipeline.StatusCompleted:
			return accepted.JobID
		case pipeline.StatusFailed, pipeline.StatusPartial, pipeline.StatusDupSkipped:
			t.Fatalf("job ended %s: %v", snap.Status, snap.Progress.Errors)
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not complete in time")
	return ""
}

func TestIngest_EndToEnd(t *testing.T) {
	s := newTestServer(t)
	ingestAndWait(t, s)

	// The stored report is listed and retrievable.
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/reports", "", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("list reports returned %d", rec.Code)
	}
	var listing struct {
		Reports []store.EmailRow `json:"reports"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Reports) != 1 || listing.Reports[0].DealCount != 1 {
		t.Fatalf("unexpected listing %+v", listing.Reports)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/reports/1", "", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("get report returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Supplier buyout agreed") {
		t.Errorf("report body missing deal title: %s", rec.Body.String())
	}
}

func TestIngest_EmptyBody(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/ingest", "", "text/plain"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty body, got %d", rec.Code)
	}
}

func TestIngestStatus_NotFound(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/ingest/nope/status", "", ""))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestClassifyEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/classify",
		`{"name":"Blackstone Capital Partners"}`, "application/json"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res classify.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Classification != classify.TierDefinitePE {
		t.Errorf("expected definite_pe, got %s", res.Classification)
	}

	// The classification shows up in the rolling stats.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/stats/classifier", "", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats returned %d", rec.Code)
	}
	var snap classify.StatsSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if snap.Count != 1 {
		t.Errorf("expected 1 recorded classification, got %d", snap.Count)
	}
	if !snap.Degraded {
		t.Error("fallback classifier should report degraded stats")
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	s := newTestServer(t)
	ingestAndWait(t, s)

	for _, path := range []string{
		"/api/analytics/summary",
		"/api/analytics/sectors",
		"/api/analytics/firms",
		"/api/analytics/grades",
		"/api/analytics/regions",
	} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, authedRequest(http.MethodGet, path, "", ""))
		if rec.Code != http.StatusOK {
			t.Errorf("%s returned %d: %s", path, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/analytics/summary?period=bogus", "", ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid period, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/analytics/firms", "", ""))
	var firms struct {
		Firms []analytics.FirmCount `json:"firms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &firms); err != nil {
		t.Fatalf("decode firms: %v", err)
	}
	if len(firms.Firms) == 0 {
		t.Error("expected at least one PE firm in analytics")
	}
}

func TestComposeEndpoint(t *testing.T) {
	s := newTestServer(t)
	ingestAndWait(t, s)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/compose/1", "", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("compose returned %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"DEALS BY SECTOR", "NEWS SUMMARY", "DETAILED PRESS RELEASES"} {
		if !strings.Contains(body, want) {
			t.Errorf("composed output missing %q", want)
		}
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/compose/1?format=html", "", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("compose html returned %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/compose/999", "", ""))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown report, got %d", rec.Code)
	}
}
