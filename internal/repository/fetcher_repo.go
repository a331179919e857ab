package repository

import (
	"context"
	"time"
)

// FetchPolicy bounds a single page retrieval.
type FetchPolicy struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBytes     int64
}

// DefaultFetchPolicy mirrors the limits the service applies to every audit.
var DefaultFetchPolicy = FetchPolicy{
	Timeout:      10 * time.Second,
	MaxRedirects: 5,
	MaxBytes:     2 << 20,
}

// PageFetcher defines the contract for retrieving the raw HTML of a page.
type PageFetcher interface {
	// Fetch returns the HTML document at url or one of the fetch errors.
	Fetch(ctx context.Context, url string, policy FetchPolicy) (string, error)
}
