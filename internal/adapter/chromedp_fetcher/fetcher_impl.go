package chromedp_fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/audit-service/internal/repository"
	"go.uber.org/zap"
)

const userAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36`

// ChromedpFetcher renders pages in a headless browser so that markup built by
// scripts is part of the audited document.
type ChromedpFetcher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	slots       chan struct{}
	logger      *zap.Logger
}

// NewChromedpFetcher creates a fetcher that renders at most maxConcurrency
// pages at once.
func NewChromedpFetcher(maxConcurrency int, logger *zap.Logger) *ChromedpFetcher {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromedpFetcher{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		slots:       make(chan struct{}, maxConcurrency),
		logger:      logger,
	}
}

// Fetch navigates to url and returns the rendered document.
// Redirect limits are enforced by the browser.
func (c *ChromedpFetcher) Fetch(ctx context.Context, url string, policy repository.FetchPolicy) (string, error) {
	select {
	case c.slots <- struct{}{}:
		defer func() { <-c.slots }()
	case <-ctx.Done():
		return "", repository.ErrFetchTimeout
	}

	// Create a new browser context from the allocator
	taskCtx, cancel := chromedp.NewContext(c.allocCtx, chromedp.WithLogf(c.logger.Sugar().Debugf))
	defer cancel()

	// Create a timeout for the entire fetch task
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, policy.Timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	start := time.Now()
	resp, err := chromedp.RunResponse(taskCtx, chromedp.Navigate(url))
	if err != nil {
		c.logger.Warn("Failed to render URL", zap.String("url", url), zap.Error(err))
		if taskCtx.Err() != nil {
			return "", repository.ErrFetchTimeout
		}
		return "", classifyNavigation(err)
	}
	if err := checkResponse(resp); err != nil {
		return "", err
	}

	var markup string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		if taskCtx.Err() != nil {
			return "", repository.ErrFetchTimeout
		}
		return "", fmt.Errorf("%w: %v", repository.ErrNetwork, err)
	}
	if int64(len(markup)) > policy.MaxBytes {
		return "", repository.ErrBodyTooLarge
	}
	if strings.TrimSpace(markup) == "" {
		return "", repository.ErrEmptyDocument
	}

	c.logger.Debug("Rendered URL",
		zap.String("url", url),
		zap.Int64("status", resp.Status),
		zap.Duration("elapsed", time.Since(start)),
	)
	return markup, nil
}

// Close shuts down the browser process.
func (c *ChromedpFetcher) Close() {
	c.cancelAlloc()
}

func checkResponse(resp *network.Response) error {
	if resp == nil {
		return repository.ErrEmptyDocument
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return fmt.Errorf("%w: HTTP %d %s", repository.ErrHTTPStatus, resp.Status, resp.StatusText)
	}
	if !strings.HasPrefix(resp.MimeType, "text/html") && resp.MimeType != "application/xhtml+xml" {
		return repository.ErrNotHTML
	}
	return nil
}

// classifyNavigation maps Chrome net error names onto the fetch error set.
func classifyNavigation(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "ERR_NAME_NOT_RESOLVED"):
		return repository.ErrDomainNotFound
	case strings.Contains(msg, "ERR_CONNECTION_REFUSED"):
		return repository.ErrConnectionRefused
	case strings.Contains(msg, "ERR_TIMED_OUT"), strings.Contains(msg, "ERR_CONNECTION_TIMED_OUT"):
		return repository.ErrFetchTimeout
	case strings.Contains(msg, "ERR_TOO_MANY_REDIRECTS"):
		return repository.ErrTooManyRedirects
	default:
		return fmt.Errorf("%w: %v", repository.ErrNetwork, err)
	}
}
