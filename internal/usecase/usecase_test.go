package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/audit-service/internal/adapter/memory"
	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/integrity"
	"github.com/user/audit-service/internal/recommend"
	"github.com/user/audit-service/internal/repository"
	"github.com/user/audit-service/pkg/metrics"
)

const scenarioPage = `<html><head><title>T</title></head><body><img src="a.png"><p>hi</p></body></html>`

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeFetcher struct {
	calls atomic.Int32
	body  string
	err   error
	gate  chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ string, _ repository.FetchPolicy) (string, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.body, f.err
}

type failingRecommender struct{}

func (failingRecommender) Recommend(context.Context, string, *entity.HeuristicReport) (*entity.Recommendation, error) {
	return nil, fmt.Errorf("%w: quota exceeded", repository.ErrGenerationFailed)
}

func (failingRecommender) Strategy() entity.Strategy { return entity.StrategyGenerative }

type harness struct {
	clock   *fakeClock
	fetcher *fakeFetcher
	reports *memory.ReportRepoImpl
	cache   *memory.CacheRepoImpl
	metrics *metrics.Metrics
	audit   *AuditUseCase
	query   *ReportQuery
}

func newHarness(t *testing.T, rec repository.Recommender) *harness {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)}
	if rec == nil {
		rec = recommend.NewFallback(clock.Now)
	}
	h := &harness{
		clock:   clock,
		fetcher: &fakeFetcher{body: scenarioPage},
		reports: memory.NewReportRepo(),
		cache:   memory.NewCacheRepo(clock.Now),
		metrics: metrics.New(prometheus.NewRegistry()),
	}

	n := 0
	var mu sync.Mutex
	h.audit = NewAuditUseCase(h.fetcher, rec, h.reports, h.cache, h.metrics, zaptest.NewLogger(t), AuditOptions{
		Now: clock.Now,
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("report-%d", n)
		},
	})
	h.query = NewReportQuery(h.reports, h.cache, clock.Now)
	return h
}

func TestAudit_StoresComposedReport(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	id, err := h.audit.Audit(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "report-1", id)

	report, err := h.query.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", report.Target)
	assert.Equal(t, 1, report.Heuristics.Accessibility.ImagesMissingAlt)
	assert.False(t, report.Heuristics.SEO.MetaDescriptionPresent)
	require.NotNil(t, report.Heuristics.SEO.Title)
	assert.Equal(t, "T", *report.Heuristics.SEO.Title)
	assert.Equal(t, 65, report.Recommendations.WebScore)
	require.NotEmpty(t, report.Recommendations.Priorities)
	assert.Equal(t, 1, report.Recommendations.Priorities[0].Rank)
	assert.Contains(t, report.Recommendations.Priorities[0].Text, "alt")
	assert.True(t, report.IntegrityStamp.Verified)
	assert.Equal(t, entity.ReportVersion, report.Version)
	assert.True(t, h.clock.Now().Equal(report.CreatedAt))

	ok, err := h.query.Verify(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.AuditsTotal.WithLabelValues("success", "stored")))
}

func TestAudit_CacheWindow(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	first, err := h.audit.Audit(ctx, "https://example.com")
	require.NoError(t, err)

	h.clock.Advance(14 * time.Minute)
	second, err := h.audit.Audit(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, h.fetcher.calls.Load(), "cache hit must not re-fetch")

	h.clock.Advance(time.Minute)
	third, err := h.audit.Audit(ctx, "https://example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	assert.EqualValues(t, 2, h.fetcher.calls.Load())

	// expiry never deletes the stored report
	_, err = h.query.Get(ctx, first)
	assert.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.CacheLookupsTotal.WithLabelValues("miss")))
}

func TestAudit_DifferentURLsAreSeparateEntries(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	a, err := h.audit.Audit(ctx, "https://example.com")
	require.NoError(t, err)
	b, err := h.audit.Audit(ctx, "https://example.com/")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAudit_InvalidInputRunsNothing(t *testing.T) {
	h := newHarness(t, nil)
	analyzed := false
	h.audit.analyze = func(string) (*entity.HeuristicReport, error) {
		analyzed = true
		return nil, nil
	}

	for _, in := range []string{"", "not a url", "ftp://example.com", "/relative"} {
		_, err := h.audit.Audit(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidInput, in)
	}
	assert.Zero(t, h.fetcher.calls.Load())
	assert.False(t, analyzed)
}

func TestAudit_FetchFailureWritesNothing(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.fetcher.err = repository.ErrDomainNotFound

	_, err := h.audit.Audit(ctx, "https://nope.invalid")
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, entity.StageFetching, stageErr.Stage)
	assert.Equal(t, repository.ErrDomainNotFound.Error(), stageErr.Message())

	all, _ := h.reports.List(ctx)
	assert.Empty(t, all)
	n, _ := h.cache.Len(ctx)
	assert.Zero(t, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.AuditsTotal.WithLabelValues("failure", "fetching")))

	// a later success is not blocked by the failure
	h.fetcher.err = nil
	_, err = h.audit.Audit(ctx, "https://nope.invalid")
	assert.NoError(t, err)
}

func TestAudit_GenerationFailureIsSurfaced(t *testing.T) {
	h := newHarness(t, failingRecommender{})
	ctx := context.Background()

	_, err := h.audit.Audit(ctx, "https://example.com")
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, entity.StageGenerating, stageErr.Stage)
	assert.ErrorIs(t, err, repository.ErrGenerationFailed)
	assert.NotContains(t, stageErr.Message(), "quota")

	all, _ := h.reports.List(ctx)
	assert.Empty(t, all)
}

func TestAudit_ConcurrentRequestsShareOneRun(t *testing.T) {
	h := newHarness(t, nil)
	h.fetcher.gate = make(chan struct{})

	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := h.audit.Audit(context.Background(), "https://example.com")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}

	require.Eventually(t, func() bool { return h.fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(h.fetcher.gate)
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	all, _ := h.reports.List(context.Background())
	assert.Len(t, all, 1)
}

func TestAudit_CancelledCallerDoesNotFailOthers(t *testing.T) {
	h := newHarness(t, nil)
	h.fetcher.gate = make(chan struct{})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := h.audit.Audit(firstCtx, "https://example.com")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return h.fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		id  string
		err error
	}
	second := make(chan result, 1)
	go func() {
		id, err := h.audit.Audit(context.Background(), "https://example.com")
		second <- result{id, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(h.fetcher.gate)
	res := <-second
	require.NoError(t, res.err)
	assert.NotEmpty(t, res.id)
	assert.Equal(t, int32(1), h.fetcher.calls.Load())

	report, err := h.reports.Get(context.Background(), res.id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", report.Target)
}

func TestAudit_DanglingCacheEntryIsAMiss(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	id, err := h.audit.Audit(ctx, "https://example.com")
	require.NoError(t, err)

	// simulate a cache that outlived its report store
	h.audit.reports = memory.NewReportRepo()
	again, err := h.audit.Audit(ctx, "https://example.com")
	require.NoError(t, err)
	assert.NotEqual(t, id, again)
}

func TestReportQuery_ListAndStats(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.audit.Audit(ctx, "https://a.example/one")
	require.NoError(t, err)
	h.clock.Advance(time.Hour)
	_, err = h.audit.Audit(ctx, "https://a.example/two")
	require.NoError(t, err)
	h.clock.Advance(time.Hour)
	_, err = h.audit.Audit(ctx, "https://b.example")
	require.NoError(t, err)

	all, err := h.query.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://b.example", all[0].Target)

	byTarget, err := h.query.List(ctx, " https://a.example/one ")
	require.NoError(t, err)
	require.Len(t, byTarget, 1)

	h.clock.Advance(22*time.Hour + 30*time.Minute)
	stats, err := h.query.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAudits)
	assert.Equal(t, 2, stats.UniqueDomains)
	assert.Equal(t, 2, stats.RecentAudits)
	assert.Equal(t, int64(0), stats.AvgProcessingTimeMS)
	assert.Equal(t, 100, stats.CacheHitRateApprox)
}

func TestReportQuery_EmptyStats(t *testing.T) {
	h := newHarness(t, nil)

	stats, err := h.query.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.AuditStats{}, *stats)
}

func TestReportQuery_VerifyUnknown(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.query.Verify(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
}

func TestIntegrityUseCase(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	id, err := h.audit.Audit(ctx, "https://example.com")
	require.NoError(t, err)

	uc := NewIntegrityUseCase(h.reports, integrity.NewRegistry("https://audit.example", h.clock.Now))

	cert, err := uc.MintCertificate(ctx, id, "0xabc")
	require.NoError(t, err)
	got, err := uc.Certificate(ctx, cert.TokenID)
	require.NoError(t, err)
	assert.Equal(t, cert, got)

	_, err = uc.MintCertificate(ctx, id, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, integrity.ErrOwnerRequired)

	_, err = uc.MintCertificate(ctx, "missing", "0xabc")
	assert.ErrorIs(t, err, repository.ErrReportNotFound)

	meta, err := uc.CertificateMetadata(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://audit.example/audit/"+id, meta.ExternalURL)

	p, err := uc.CreateProposal(ctx, id, entity.ProposalImprovement, "add alt text")
	require.NoError(t, err)
	_, err = uc.CreateProposal(ctx, id, "vote", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	proposals, err := uc.Proposals(ctx, id)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, p.ID, proposals[0].ID)

	_, err = uc.Proposals(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
}
