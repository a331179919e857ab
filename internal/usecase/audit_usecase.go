package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/user/audit-service/internal/analyzer"
	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/integrity"
	"github.com/user/audit-service/internal/repository"
	"github.com/user/audit-service/pkg/metrics"
	"github.com/user/audit-service/pkg/utils"
)

// DefaultCacheTTL is how long a completed audit answers repeat requests for the same URL.
const DefaultCacheTTL = 15 * time.Minute

// Auditor runs audits.
type Auditor interface {
	Audit(ctx context.Context, rawURL string) (string, error)
}

// AuditOptions tunes an AuditUseCase. Zero values select the defaults.
type AuditOptions struct {
	FetchPolicy repository.FetchPolicy
	CacheTTL    time.Duration
	Now         func() time.Time
	NewID       func() string
	Analyze     func(markup string) (*entity.HeuristicReport, error)
}

// AuditUseCase sequences fetch, analysis, recommendation and stamping for a
// URL and stores the composed report.
type AuditUseCase struct {
	fetcher     repository.PageFetcher
	recommender repository.Recommender
	stamper     *integrity.Stamper
	reports     repository.ReportRepository
	cache       repository.AuditCacheRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger

	policy   repository.FetchPolicy
	cacheTTL time.Duration
	now      func() time.Time
	newID    func() string
	analyze  func(string) (*entity.HeuristicReport, error)

	inflight singleflight.Group
}

// NewAuditUseCase creates a new instance of the audit use case.
func NewAuditUseCase(
	fetcher repository.PageFetcher,
	recommender repository.Recommender,
	reports repository.ReportRepository,
	cache repository.AuditCacheRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts AuditOptions,
) *AuditUseCase {
	if opts.FetchPolicy == (repository.FetchPolicy{}) {
		opts.FetchPolicy = repository.DefaultFetchPolicy
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Analyze == nil {
		opts.Analyze = analyzer.Analyze
	}

	return &AuditUseCase{
		fetcher:     fetcher,
		recommender: recommender,
		stamper:     integrity.NewStamper(opts.Now),
		reports:     reports,
		cache:       cache,
		metrics:     m,
		logger:      logger,
		policy:      opts.FetchPolicy,
		cacheTTL:    opts.CacheTTL,
		now:         opts.Now,
		newID:       opts.NewID,
		analyze:     opts.Analyze,
	}
}

// Audit returns the id of a report for rawURL, reusing a live cached report
// when one exists. Concurrent audits of the same URL share one pipeline run.
func (uc *AuditUseCase) Audit(ctx context.Context, rawURL string) (string, error) {
	target := utils.NormalizeURL(rawURL)
	if _, err := utils.ParseAbsoluteURL(target); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	key := utils.HashURL(target)
	log := uc.logger.With(zap.String("url", target))
	log.Debug("Audit stage", zap.String("stage", string(entity.StageReceived)))

	// The shared run outlives any one caller; fetch and generation carry their own timeouts.
	runCtx := context.WithoutCancel(ctx)
	ch := uc.inflight.DoChan(key, func() (any, error) {
		if id, ok := uc.lookup(runCtx, key, log); ok {
			uc.metrics.AuditsTotal.WithLabelValues("cached", string(entity.StageStored)).Inc()
			log.Info("Audit served from cache", zap.String("report_id", id))
			return id, nil
		}
		return uc.run(runCtx, target, key, log)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			log.Debug("Audit joined an in-flight run", zap.String("report_id", res.Val.(string)))
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		log.Debug("Audit caller gave up waiting", zap.Error(ctx.Err()))
		return "", ctx.Err()
	}
}

// lookup returns a cached report id. Entries whose report is gone are misses.
func (uc *AuditUseCase) lookup(ctx context.Context, key string, log *zap.Logger) (string, bool) {
	id, ok, err := uc.cache.Lookup(ctx, key)
	if err != nil {
		uc.metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		log.Warn("Audit cache lookup failed, running full audit", zap.Error(err))
		return "", false
	}
	if !ok {
		uc.metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return "", false
	}
	if _, err := uc.reports.Get(ctx, id); err != nil {
		uc.metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		if !errors.Is(err, repository.ErrReportNotFound) {
			log.Warn("Cached report could not be loaded", zap.String("report_id", id), zap.Error(err))
		}
		return "", false
	}
	uc.metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return id, true
}

func (uc *AuditUseCase) run(ctx context.Context, target, key string, log *zap.Logger) (string, error) {
	start := uc.now()
	stage := func(s entity.AuditStage) {
		log.Debug("Audit stage", zap.String("stage", string(s)))
	}

	stage(entity.StageFetching)
	markup, err := uc.fetcher.Fetch(ctx, target, uc.policy)
	if err != nil {
		return "", uc.fail(log, entity.StageFetching, err)
	}

	stage(entity.StageAnalyzing)
	heuristics, err := uc.analyze(markup)
	if err != nil {
		return "", uc.fail(log, entity.StageAnalyzing, err)
	}

	stage(entity.StageGenerating)
	rec, err := uc.recommender.Recommend(ctx, target, heuristics)
	if err != nil {
		return "", uc.fail(log, entity.StageGenerating, err)
	}

	stage(entity.StageStamping)
	id := uc.newID()
	contentDigest, err := integrity.ContentDigest(target, heuristics, rec)
	if err != nil {
		return "", uc.fail(log, entity.StageStamping, err)
	}
	stamp := uc.stamper.Stamp(id, target, contentDigest)

	finished := uc.now()
	report := &entity.AuditReport{
		ID:               id,
		Target:           target,
		Heuristics:       *heuristics,
		Recommendations:  *rec,
		IntegrityStamp:   stamp,
		CreatedAt:        finished.UTC(),
		ProcessingTimeMS: max(finished.Sub(start).Milliseconds(), 0),
		Version:          entity.ReportVersion,
	}

	if err := uc.reports.Put(ctx, report); err != nil {
		return "", uc.fail(log, entity.StageStored, err)
	}
	if err := uc.cache.Put(ctx, key, id, uc.cacheTTL); err != nil {
		// the report is stored; only reuse is lost
		log.Warn("Failed to cache audit result", zap.String("report_id", id), zap.Error(err))
	}
	stage(entity.StageStored)

	uc.metrics.AuditsTotal.WithLabelValues("success", string(entity.StageStored)).Inc()
	uc.metrics.AuditDuration.WithLabelValues(string(uc.recommender.Strategy())).Observe(finished.Sub(start).Seconds())
	log.Info("Audit completed",
		zap.String("report_id", id),
		zap.String("strategy", string(rec.Strategy)),
		zap.Int("web_score", rec.WebScore),
		zap.Int64("processing_time_ms", report.ProcessingTimeMS),
	)
	return id, nil
}

func (uc *AuditUseCase) fail(log *zap.Logger, stage entity.AuditStage, err error) error {
	uc.metrics.AuditsTotal.WithLabelValues("failure", string(stage)).Inc()
	if repository.IsFetchError(err) {
		log.Warn("Audit failed", zap.String("stage", string(stage)), zap.Error(err))
	} else {
		log.Error("Audit failed", zap.String("stage", string(stage)), zap.Error(err))
	}
	return &StageError{Stage: stage, Err: err}
}
