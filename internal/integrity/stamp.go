package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/audit-service/internal/entity"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Stamper issues integrity stamps.
type Stamper struct {
	now func() time.Time
}

// NewStamper creates a Stamper. now defaults to time.Now.
func NewStamper(now func() time.Time) *Stamper {
	if now == nil {
		now = time.Now
	}
	return &Stamper{now: now}
}

// auditContent is the canonical form hashed by ContentDigest.
type auditContent struct {
	URL             string                  `json:"url"`
	Heuristics      *entity.HeuristicReport `json:"heuristics"`
	Recommendations *entity.Recommendation  `json:"recommendations"`
}

// ContentDigest returns the hex SHA-256 of the canonical JSON encoding of an
// audit's substantive content.
func ContentDigest(targetURL string, h *entity.HeuristicReport, rec *entity.Recommendation) (string, error) {
	data, err := json.Marshal(auditContent{URL: targetURL, Heuristics: h, Recommendations: rec})
	if err != nil {
		return "", fmt.Errorf("failed to encode audit content: %w", err)
	}
	return sha256Hex(string(data)), nil
}

// Stamp fingerprints contentDigest for reportID and targetURL at the current time.
func (s *Stamper) Stamp(reportID, targetURL, contentDigest string) entity.IntegrityStamp {
	ts := s.now().UTC().Format(timestampLayout)
	signature := signature(reportID, targetURL, ts)
	return entity.IntegrityStamp{
		Digest:        digest(reportID, targetURL, ts, contentDigest, signature),
		Verified:      true,
		Timestamp:     ts,
		Signature:     signature,
		ContentDigest: contentDigest,
		ReportID:      reportID,
		Target:        targetURL,
	}
}

// Validate recomputes the signature and digest of stamp and reports whether
// both match. It is a self-consistency check only.
func Validate(stamp entity.IntegrityStamp) bool {
	wantSig := signature(stamp.ReportID, stamp.Target, stamp.Timestamp)
	wantDigest := digest(stamp.ReportID, stamp.Target, stamp.Timestamp, stamp.ContentDigest, stamp.Signature)
	return stamp.Signature == wantSig && stamp.Digest == wantDigest
}

// VerifyReport validates the stamp of report and checks that it still covers
// the report's current content.
func VerifyReport(report *entity.AuditReport) (bool, error) {
	stamp := report.IntegrityStamp
	if stamp.ReportID != report.ID || stamp.Target != report.Target {
		return false, nil
	}
	content, err := ContentDigest(report.Target, &report.Heuristics, &report.Recommendations)
	if err != nil {
		return false, err
	}
	return content == stamp.ContentDigest && Validate(stamp), nil
}

func signature(reportID, targetURL, timestamp string) string {
	return sha256Hex(reportID + ":" + targetURL + ":" + timestamp)
}

func digest(reportID, targetURL, timestamp, contentDigest, signature string) string {
	return "0x" + sha256Hex(reportID+":"+targetURL+":"+timestamp+":"+contentDigest+":"+signature)
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
