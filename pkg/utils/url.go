package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe cache keys.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeURL returns the form of rawURL used for cache keys. The address
// is assumed byte-stable across submissions, so only surrounding whitespace
// is removed.
func NormalizeURL(rawURL string) string {
	return strings.TrimSpace(rawURL)
}

// ParseAbsoluteURL parses rawURL and requires an http(s) scheme and a host.
func ParseAbsoluteURL(rawURL string) (*url.URL, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &url.Error{Op: "parse", URL: rawURL, Err: errUnsupportedScheme}
	}
	if u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: rawURL, Err: errMissingHost}
	}
	return u, nil
}

// Hostname returns the host of rawURL without port, or rawURL itself when it
// cannot be parsed.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
