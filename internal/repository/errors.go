package repository

import "errors"

// Fetch failures. Each carries a message that is safe to show to the user.
var (
	ErrFetchTimeout      = errors.New("Request timeout. The website took too long to respond.")
	ErrDomainNotFound    = errors.New("Domain not found. Please check the URL and try again.")
	ErrConnectionRefused = errors.New("Connection refused. The website may be down or blocking requests.")
	ErrNetwork           = errors.New("Network error")
	ErrTooManyRedirects  = errors.New("Too many redirects")
	ErrHTTPStatus        = errors.New("The website returned an error status")
	ErrNotHTML           = errors.New("Invalid content type. Expected HTML document.")
	ErrBodyTooLarge      = errors.New("The page is too large to audit")
	ErrEmptyDocument     = errors.New("Empty HTML document received")
	ErrInvalidDocument   = errors.New("Invalid HTML document - missing HTML tags")
)

var (
	// ErrGenerationFailed is returned when the text-generation service cannot
	// be reached or answers with an error.
	ErrGenerationFailed = errors.New("recommendation service unavailable")

	ErrReportNotFound = errors.New("report not found")
	ErrDuplicateID    = errors.New("report id already stored")

	ErrCertificateNotFound = errors.New("certificate not found")
)

// IsFetchError reports whether err is one of the fetch failures.
func IsFetchError(err error) bool {
	for _, target := range []error{
		ErrFetchTimeout, ErrDomainNotFound, ErrConnectionRefused, ErrNetwork,
		ErrTooManyRedirects, ErrHTTPStatus, ErrNotHTML, ErrBodyTooLarge,
		ErrEmptyDocument, ErrInvalidDocument,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
