package entity

// AuditStage is a state in the per-request audit pipeline.
type AuditStage string

const (
	StageReceived   AuditStage = "received"
	StageFetching   AuditStage = "fetching"
	StageAnalyzing  AuditStage = "analyzing"
	StageGenerating AuditStage = "generating-recommendation"
	StageStamping   AuditStage = "stamping"
	StageStored     AuditStage = "stored"
	StageFailed     AuditStage = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s AuditStage) Terminal() bool {
	return s == StageStored || s == StageFailed
}
