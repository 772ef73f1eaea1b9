package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"copymatch/checker"
	"copymatch/config"
	"copymatch/highlight"
	"copymatch/metrics"
	"copymatch/store"
	"copymatch/types"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const essay = "The committee reviewed every submission received before the deadline and published its findings in the spring bulletin."

func newTestServer(t *testing.T, cfg config.ServerConfig) *httptest.Server {
	t.Helper()
	c := checker.New(checker.Options{
		Reports: store.NewReports(store.NewMemory()),
		Tracker: metrics.NewTracker("", ""),
	})
	t.Cleanup(func() { c.Close() })

	ts := httptest.NewServer(New(c, cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

type formFile struct {
	field, name, content string
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postCheck(t *testing.T, ts *httptest.Server, fields map[string]string, files ...formFile) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, fields, files...)
	resp, err := http.Post(ts.URL+"/check", contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func TestCheckFiles(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	resp := postCheck(t, ts, nil,
		formFile{"fileA", "a.txt", essay},
		formFile{"fileB", "b.txt", essay},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), "cors header")

	var report types.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 100.0, report.OverallScore, "identical uploads")
	assert.Equal(t, "a.txt", report.SourceFileName, "source name")
	assert.Equal(t, "b.txt", report.TargetFileName, "target name")
	assert.Equal(t, types.ModeLocal, report.Mode, "mode")
	assert.Equal(t, essay, report.TargetFullText, "full target text")
	require.Len(t, report.Highlights, 1)
	assert.Equal(t, highlight.MatchExact, report.Highlights[0].MatchType, "exact")

	get, err := http.Get(ts.URL + "/reports/" + report.ID)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode, "report cached")
}

func TestCheckTextBFallback(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	resp := postCheck(t, ts, map[string]string{"textB": essay, "mode": "LOCAL"},
		formFile{"fileA", "a.txt", essay},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report types.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 100.0, report.OverallScore, "inline target")
	assert.Equal(t, highlight.DefaultTargetFile, report.TargetFileName, "default target name")
}

func TestCheckRejectsOtherModes(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	resp := postCheck(t, ts, map[string]string{"mode": "web"},
		formFile{"fileA", "a.txt", essay},
		formFile{"fileB", "b.txt", essay},
	)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "status")
	assert.Equal(t, "mode must be 'local'", decodeError(t, resp), "error message")
}

func TestCheckRequiresDocuments(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	resp := postCheck(t, ts, map[string]string{"textB": "   "},
		formFile{"fileA", "a.txt", essay},
	)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "blank textB")
	assert.Equal(t, "local mode requires fileA and fileB or textB", decodeError(t, resp), "error message")

	resp = postCheck(t, ts, map[string]string{"textB": essay})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "no fileA")

	resp = postCheck(t, ts, nil,
		formFile{"fileA", "a.txt", "  \n  "},
		formFile{"fileB", "b.txt", essay},
	)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "empty fileA")
}

func TestCheckUploadTooLarge(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{MaxUploadBytes: 64})

	resp := postCheck(t, ts, nil,
		formFile{"fileA", "a.txt", strings.Repeat(essay, 4)},
		formFile{"fileB", "b.txt", essay},
	)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode, "status")
}

func TestBrotliResponse(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")

	client := &http.Client{Transport: &http.Transport{DisableCompression: true}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "br", resp.Header.Get("Content-Encoding"), "content encoding")
	var body map[string]string
	require.NoError(t, json.NewDecoder(brotli.NewReader(resp.Body)).Decode(&body))
	assert.Equal(t, "ok", body["status"], "health status")
	assert.Equal(t, "local", body["engine"], "engine")
}

func TestHighlightsEndpoint(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	payload := `{"textA":"The quick brown fox.","textB":"The   quick\nbrown fox.","score":100,
		"matches":[{"startA":0,"endA":20,"startB":0,"endB":20,"lineA":1,"lineB":1},
		           {"startA":"x","endA":20,"startB":0,"endB":20,"lineA":1,"lineB":1}]}`
	resp, err := http.Post(ts.URL+"/highlights", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Highlights     []highlight.Highlight `json:"highlights"`
		Score          float64               `json:"score"`
		DroppedMatches int                   `json:"droppedMatches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Highlights, 1)
	assert.Equal(t, highlight.MatchExact, body.Highlights[0].MatchType, "exact")
	assert.Equal(t, 1, body.DroppedMatches, "malformed record skipped")
	assert.Equal(t, 100.0, body.Score, "score")
}

func TestHighlightsRejectsNonArray(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	resp, err := http.Post(ts.URL+"/highlights", "application/json",
		strings.NewReader(`{"textA":"a","textB":"b","matches":{"startA":0}}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "matches must be an array")
}

func TestReportNotFound(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	resp, err := http.Get(ts.URL + "/reports/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "status")
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{RateLimit: 0.001, Burst: 2})

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes, "burst then limited")
}

func TestListAndDeleteReports(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	resp := postCheck(t, ts, nil,
		formFile{"fileA", "a.txt", essay},
		formFile{"fileB", "b.txt", essay},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report types.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))

	list := func() []string {
		resp, err := http.Get(ts.URL + "/reports")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			IDs []string `json:"ids"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body.IDs
	}
	del := func(id string) int {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/reports/"+id, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, []string{report.ID}, list(), "stored report listed")
	assert.Equal(t, http.StatusNoContent, del(report.ID), "deleted")
	assert.Empty(t, list(), "nothing left")
	assert.Equal(t, http.StatusNotFound, del(report.ID), "second delete")

	get, err := http.Get(ts.URL + "/reports/" + report.ID)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusNotFound, get.StatusCode, "gone")
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/check", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "preflight status")
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), "allow origin")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	postCheck(t, ts, nil,
		formFile{"fileA", "a.txt", essay},
		formFile{"fileB", "b.txt", essay},
	)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap metrics.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, int64(1), snap.Comparisons, "comparisons")
	assert.Equal(t, int64(1), snap.Highlights["exact"], "exact highlights")
}

func TestStartAndShutdown(t *testing.T) {
	c := checker.New(checker.Options{})
	defer c.Close()

	s := New(c, config.ServerConfig{})
	require.NoError(t, s.Start("127.0.0.1:0"))
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "serving")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
