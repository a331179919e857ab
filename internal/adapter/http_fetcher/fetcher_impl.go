package http_fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/user/audit-service/internal/repository"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (compatible; UXAuditBot/1.2; +https://github.com/user/audit-service)"

// HTTPFetcher retrieves pages over plain HTTP(S).
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a fetcher that issues at most ratePerSecond requests
// per second. A non-positive rate disables limiting.
func NewHTTPFetcher(ratePerSecond float64) *HTTPFetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &HTTPFetcher{
		client:  &http.Client{Transport: transport},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Fetch downloads the HTML document at rawURL within the bounds of policy.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, policy repository.FetchPolicy) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return "", classify(ctx, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repository.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	client := *f.client
	client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) > policy.MaxRedirects {
			return repository.ErrTooManyRedirects
		}
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: HTTP %d %s", repository.ErrHTTPStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType != "text/html" && mediaType != "application/xhtml+xml" {
		return "", repository.ErrNotHTML
	}

	// enforce the size cap; one extra byte tells an exact fit from an overflow
	raw, err := io.ReadAll(io.LimitReader(resp.Body, policy.MaxBytes+1))
	if err != nil {
		return "", classify(ctx, err)
	}
	if int64(len(raw)) > policy.MaxBytes {
		return "", repository.ErrBodyTooLarge
	}

	body, err := decode(raw, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repository.ErrNetwork, err)
	}
	return body, validateDocument(body)
}

// decode converts raw to UTF-8 using the declared or sniffed charset.
func decode(raw []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func validateDocument(body string) error {
	if strings.TrimSpace(body) == "" {
		return repository.ErrEmptyDocument
	}
	lower := strings.ToLower(body)
	if !strings.Contains(lower, "<html") && !strings.Contains(lower, "<!doctype") {
		return repository.ErrInvalidDocument
	}
	return nil
}

// classify maps transport failures onto the fetch error set.
func classify(ctx context.Context, err error) error {
	var (
		netErr net.Error
		dnsErr *net.DNSError
	)
	switch {
	case errors.Is(err, repository.ErrTooManyRedirects):
		return repository.ErrTooManyRedirects
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return repository.ErrFetchTimeout
	case errors.As(err, &dnsErr) && !dnsErr.IsTimeout:
		return repository.ErrDomainNotFound
	case errors.As(err, &netErr) && netErr.Timeout():
		return repository.ErrFetchTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return repository.ErrConnectionRefused
	default:
		return fmt.Errorf("%w: %v", repository.ErrNetwork, err)
	}
}
