package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/audit-service/internal/adapter/memory"
	"github.com/user/audit-service/internal/delivery/http/handler"
	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/integrity"
	"github.com/user/audit-service/internal/recommend"
	"github.com/user/audit-service/internal/repository"
	"github.com/user/audit-service/internal/usecase"
	"github.com/user/audit-service/pkg/metrics"
)

const page = `<html><head><title>T</title></head><body><img src="a.png"><p>hi</p></body></html>`

type stubFetcher struct {
	calls atomic.Int32
	err   error
}

func (f *stubFetcher) Fetch(context.Context, string, repository.FetchPolicy) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return page, nil
}

func newServer(t *testing.T) (*httptest.Server, *stubFetcher) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	fetcher := &stubFetcher{}
	reports := memory.NewReportRepo()
	cache := memory.NewCacheRepo(nil)
	fallback := recommend.NewFallback(nil)

	auditor := usecase.NewAuditUseCase(fetcher, fallback, reports, cache, m, logger, usecase.AuditOptions{})
	query := usecase.NewReportQuery(reports, cache, nil)
	integ := usecase.NewIntegrityUseCase(reports, integrity.NewRegistry("http://audit.test", nil))
	h := handler.NewHandler(auditor, query, integ, fallback.Strategy(), logger)

	srv := httptest.NewServer(New(h, Options{
		AllowedOrigins: []string{"*"},
		RequestTimeout: 5 * time.Second,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         logger,
	}))
	t.Cleanup(srv.Close)
	return srv, fetcher
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func submit(t *testing.T, srv *httptest.Server, url string) string {
	t.Helper()
	resp, body := do(t, http.MethodPost, srv.URL+"/audit", `{"url":"`+url+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "ux-audit-service", body["service"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, string(entity.StrategyFallback), body["strategy"])
}

func TestSubmitAndGetAudit(t *testing.T) {
	srv, fetcher := newServer(t)

	id := submit(t, srv, "https://example.com")
	assert.Equal(t, id, submit(t, srv, "https://example.com"))
	assert.EqualValues(t, 1, fetcher.calls.Load())

	resp, body := do(t, http.MethodGet, srv.URL+"/audit/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "https://example.com", body["target"])
	recs := body["recommendations"].(map[string]any)
	assert.EqualValues(t, 65, recs["webScore"])
	stamp := body["integrityStamp"].(map[string]any)
	assert.Equal(t, true, stamp["verified"])

	resp, body = do(t, http.MethodGet, srv.URL+"/audit/"+id+"/verify", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["verified"])
}

func TestGetUnknownAudit(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/audit/unknown-id", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, body["message"])
}

func TestSubmitAudit_BadInput(t *testing.T) {
	srv, fetcher := newServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "not a url", body: `{"url":"not a url"}`},
		{name: "missing url", body: `{}`},
		{name: "relative", body: `{"url":"/path"}`},
		{name: "unsupported scheme", body: `{"url":"javascript:alert(1)"}`},
		{name: "malformed json", body: `{"url":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/audit", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body["message"])
		})
	}
	assert.Zero(t, fetcher.calls.Load())
}

func TestSubmitAudit_PipelineFailure(t *testing.T) {
	srv, fetcher := newServer(t)
	fetcher.err = repository.ErrFetchTimeout

	resp, body := do(t, http.MethodPost, srv.URL+"/audit", `{"url":"https://slow.example"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, repository.ErrFetchTimeout.Error(), body["message"])
}

func TestPreflight(t *testing.T) {
	srv, _ := newServer(t)

	for _, path := range []string{"/audit", "/audit/some-id"} {
		resp, _ := do(t, http.MethodOptions, srv.URL+path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestListAndStats(t *testing.T) {
	srv, _ := newServer(t)
	submit(t, srv, "https://a.example")
	submit(t, srv, "https://b.example")

	resp, err := http.Get(srv.URL + "/audits?url=https://a.example")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 1)
	assert.Equal(t, "https://a.example", list[0]["target"])

	r, body := do(t, http.MethodGet, srv.URL+"/stats", "")
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.EqualValues(t, 2, body["totalAudits"])
	assert.EqualValues(t, 2, body["uniqueDomains"])
}

func TestCertificatesAndProposals(t *testing.T) {
	srv, _ := newServer(t)
	id := submit(t, srv, "https://example.com")

	resp, body := do(t, http.MethodPost, srv.URL+"/audit/"+id+"/certificates", `{"owner":"0xabc"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tokenID := body["tokenId"].(string)

	resp, body = do(t, http.MethodGet, srv.URL+"/certificates/"+tokenID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0xabc", body["mintedTo"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/audit/"+id+"/certificates", `{"owner":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/certificates/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/audit/"+id+"/certificates/metadata", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://audit.test/audit/"+id, body["external_url"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/audit/"+id+"/proposals", `{"type":"dispute","description":"score too low"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, srv.URL+"/audit/"+id+"/proposals", `{"type":"bribe","description":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/audit/" + id + "/proposals")
	require.NoError(t, err)
	var proposals []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&proposals))
	listResp.Body.Close()
	require.Len(t, proposals, 1)
	assert.Equal(t, "dispute", proposals[0]["proposalType"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newServer(t)
	submit(t, srv, "https://example.com")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `audits_total{stage="stored",status="success"} 1`)
	assert.Contains(t, buf.String(), `path="/audit"`)
}
