package entity

import "time"

// Certificate is a minted ownership token for a report. It is a hash stub and
// is never written to any ledger.
type Certificate struct {
	TokenID         string `json:"tokenId"`
	ReportID        string `json:"reportId"`
	MintedTo        string `json:"mintedTo"`
	MintedAt        string `json:"mintedAt"`
	MetadataURI     string `json:"metadataUri"`
	TransactionHash string `json:"transactionHash"`
}

// CertificateAttribute is a single trait in CertificateMetadata.
type CertificateAttribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// CertificateMetadata is the descriptive document served for a certificate.
type CertificateMetadata struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Image         string                 `json:"image"`
	Attributes    []CertificateAttribute `json:"attributes"`
	ExternalURL   string                 `json:"external_url"`
	IntegrityHash string                 `json:"integrity_hash"`
}

// ProposalType classifies a review proposal.
type ProposalType string

const (
	ProposalImprovement ProposalType = "improvement"
	ProposalValidation  ProposalType = "validation"
	ProposalDispute     ProposalType = "dispute"
)

// Valid reports whether t is one of the known proposal types.
func (t ProposalType) Valid() bool {
	switch t {
	case ProposalImprovement, ProposalValidation, ProposalDispute:
		return true
	}
	return false
}

// ProposalStatus is the voting state of a proposal.
type ProposalStatus string

const (
	ProposalActive   ProposalStatus = "active"
	ProposalPassed   ProposalStatus = "passed"
	ProposalRejected ProposalStatus = "rejected"
)

// Proposal is a community review item attached to a report.
type Proposal struct {
	ID           string         `json:"id"`
	ReportID     string         `json:"reportId"`
	Type         ProposalType   `json:"proposalType"`
	Description  string         `json:"description"`
	VotesFor     int            `json:"votesFor"`
	VotesAgainst int            `json:"votesAgainst"`
	Status       ProposalStatus `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	VotingEndsAt time.Time      `json:"votingEndsAt"`
}
