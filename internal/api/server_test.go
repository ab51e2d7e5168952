package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/bingo/internal/downloader"
	"github.com/tanq16/bingo/internal/history"
	"github.com/tanq16/bingo/internal/ytdlp"
)

type fakeService struct {
	lastReq   downloader.Request
	result    *ytdlp.Result
	records   []history.Record
	stats     history.Stats
	breakdown map[string]int
	removed   int
	err       error
	limit     int
	platform  string
}

func (f *fakeService) Download(_ context.Context, req downloader.Request) *ytdlp.Result {
	f.lastReq = req
	return f.result
}

func (f *fakeService) ListFormats(_ context.Context, url, cookies string) *ytdlp.Result {
	f.lastReq = downloader.Request{URL: url, Mode: ytdlp.ModeListFormats, CookieSource: cookies}
	return f.result
}

func (f *fakeService) History(limit int, platform string) ([]history.Record, error) {
	f.limit, f.platform = limit, platform
	return f.records, f.err
}

func (f *fakeService) Recent(hours int) ([]history.Record, error) {
	f.limit = hours
	return f.records, f.err
}

func (f *fakeService) Stats(platform string) (history.Stats, error) { return f.stats, f.err }

func (f *fakeService) Breakdown() (map[string]int, error) { return f.breakdown, f.err }

func (f *fakeService) Prune(days int) (int, error) {
	f.limit = days
	return f.removed, f.err
}

func do(s *Server, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := New(&fakeService{}, Options{APIKey: "k"})
	rec := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDownload(t *testing.T) {
	f := &fakeService{result: &ytdlp.Result{Success: true, FilePath: "/h/a.mp4", Platform: "YouTube"}}
	s := New(f, Options{})
	rec := do(s, http.MethodPost, "/api/download", `{"url":"https://youtu.be/a","quality":"720"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, downloader.Request{URL: "https://youtu.be/a", Mode: ytdlp.ModeVideo, Quality: "720"}, f.lastReq)

	var res ytdlp.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "/h/a.mp4", res.FilePath)
}

func TestDownload_BadJSON(t *testing.T) {
	s := New(&fakeService{}, Options{})
	rec := do(s, http.MethodPost, "/api/download", `{"url":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload_FailureStatus(t *testing.T) {
	tests := map[ytdlp.Kind]int{
		ytdlp.KindValidation:        http.StatusBadRequest,
		ytdlp.KindToolMissing:       http.StatusServiceUnavailable,
		ytdlp.KindTranscoderMissing: http.StatusServiceUnavailable,
		ytdlp.KindProcessFailure:    http.StatusBadGateway,
		ytdlp.KindOutputLimit:       http.StatusRequestEntityTooLarge,
		ytdlp.KindTimeout:           http.StatusGatewayTimeout,
		ytdlp.KindCancelled:         StatusClientClosedRequest,
	}
	for kind, status := range tests {
		t.Run(string(kind), func(t *testing.T) {
			f := &fakeService{result: &ytdlp.Result{Error: "boom", ErrorKind: kind}}
			rec := do(New(f, Options{}), http.MethodPost, "/api/download", `{"url":"https://youtu.be/a","mode":"audio"}`)
			assert.Equal(t, status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error_kind":"`+string(kind)+`"`)
		})
	}
}

func TestFormats(t *testing.T) {
	f := &fakeService{result: &ytdlp.Result{Success: true, Formats: "137 mp4\n"}}
	rec := do(New(f, Options{}), http.MethodGet, "/api/formats?url=https://youtu.be/a&cookie_source=none", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "none", f.lastReq.CookieSource)
	assert.Contains(t, rec.Body.String(), `"formats":"137 mp4\n"`)
}

func TestHistory(t *testing.T) {
	f := &fakeService{records: []history.Record{{ID: 1, URL: "u", Platform: "Vimeo", Success: true}}}
	s := New(f, Options{})

	rec := do(s, http.MethodGet, "/api/history?limit=5&platform=vimeo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, f.limit)
	assert.Equal(t, "vimeo", f.platform)
	assert.Contains(t, rec.Body.String(), `"downloads":[{"id":1`)

	rec = do(s, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, f.limit)

	for _, q := range []string{"limit=0", "limit=101", "limit=ten"} {
		rec = do(s, http.MethodGet, "/api/history?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestHistoryRecent(t *testing.T) {
	f := &fakeService{records: []history.Record{{ID: 2, URL: "u", Platform: "YouTube", Success: true}}}
	s := New(f, Options{})

	rec := do(s, http.MethodGet, "/api/history/recent?hours=6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, f.limit)
	assert.Contains(t, rec.Body.String(), `"downloads":[{"id":2`)

	rec = do(s, http.MethodGet, "/api/history/recent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 24, f.limit)

	rec = do(s, http.MethodGet, "/api/history/recent?hours=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_StoreError(t *testing.T) {
	f := &fakeService{err: errors.New("corrupt")}
	rec := do(New(f, Options{}), http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPrune(t *testing.T) {
	f := &fakeService{removed: 3}
	s := New(f, Options{})
	rec := do(s, http.MethodDelete, "/api/history?max_age_days=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":3,"max_age_days":7}`, rec.Body.String())
	assert.Equal(t, 7, f.limit)
}

func TestStats(t *testing.T) {
	f := &fakeService{
		stats:     history.Stats{Total: 4, Successful: 3, Failed: 1, TotalSize: 600},
		breakdown: map[string]int{"YouTube": 4},
	}
	s := New(f, Options{})
	rec := do(s, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":4,"successful":3,"failed":1,"totalSize":600,"successRate":75}`, rec.Body.String())

	rec = do(s, http.MethodGet, "/api/stats/by-platform", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"YouTube":4}`, rec.Body.String())
}

func TestAPIKey(t *testing.T) {
	s := New(&fakeService{}, Options{APIKey: "secret"})
	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/stats", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/stats", "", apiKeyHeader, "wrong").Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/stats", "", apiKeyHeader, "secret").Code)
}

func TestRateLimit(t *testing.T) {
	s := New(&fakeService{}, Options{RateLimit: 0.001, Burst: 2})
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/stats", "").Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/stats", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(s, http.MethodGet, "/api/stats", "").Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/health", "").Code, "health is not limited")
}

func TestMetricsMounted(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("m 1\n")) })
	s := New(&fakeService{}, Options{Metrics: h, APIKey: "secret"})
	rec := do(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m 1\n", rec.Body.String())

	rec = do(New(&fakeService{}, Options{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
