package entity

import "time"

// ReportVersion is stamped on every AuditReport produced by this service.
const ReportVersion = "1.2.0"

// IntegrityStamp is a locally computed fingerprint over a report's content.
// Verified is always true: there is no external ledger to consult.
type IntegrityStamp struct {
	Digest        string `json:"digest"`
	Verified      bool   `json:"verified"`
	Timestamp     string `json:"timestamp"`
	Signature     string `json:"signature"`
	ContentDigest string `json:"contentDigest"`
	ReportID      string `json:"reportId"`
	Target        string `json:"target"`
}

// AuditReport is the composed, stored result of one successful audit.
type AuditReport struct {
	ID               string          `json:"id"`
	Target           string          `json:"target"`
	Heuristics       HeuristicReport `json:"heuristics"`
	Recommendations  Recommendation  `json:"recommendations"`
	IntegrityStamp   IntegrityStamp  `json:"integrityStamp"`
	CreatedAt        time.Time       `json:"createdAt"`
	ProcessingTimeMS int64           `json:"processingTimeMs"`
	Version          string          `json:"version"`
}

// AuditStats aggregates the report store.
type AuditStats struct {
	TotalAudits         int   `json:"totalAudits"`
	UniqueDomains       int   `json:"uniqueDomains"`
	RecentAudits        int   `json:"recentAudits"`
	AvgProcessingTimeMS int64 `json:"avgProcessingTimeMs"`
	CacheHitRateApprox  int   `json:"cacheHitRateApprox"`
}
