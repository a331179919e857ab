package integrity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/repository"
)

// votingWindow is how long a proposal stays active.
const votingWindow = 7 * 24 * time.Hour

var (
	ErrOwnerRequired       = errors.New("owner address is required")
	ErrInvalidProposalType = errors.New("proposal type must be one of improvement, validation, dispute")
	ErrDescriptionRequired = errors.New("proposal description is required")
)

// Registry holds minted certificates and review proposals for the lifetime
// of the process.
type Registry struct {
	mu           sync.RWMutex
	certificates map[string]*entity.Certificate
	proposals    map[string][]*entity.Proposal

	baseURL string
	now     func() time.Time
}

// NewRegistry creates an empty Registry. baseURL prefixes metadata and
// report links.
func NewRegistry(baseURL string, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		certificates: make(map[string]*entity.Certificate),
		proposals:    make(map[string][]*entity.Proposal),
		baseURL:      strings.TrimRight(baseURL, "/"),
		now:          now,
	}
}

// MintCertificate issues a certificate for report to owner. The transaction
// hash is derived from the token id, owner and the report's integrity digest.
func (r *Registry) MintCertificate(report *entity.AuditReport, owner string) (*entity.Certificate, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrOwnerRequired
	}

	now := r.now().UTC()
	tokenID := fmt.Sprintf("audit-%s-%d", report.ID, now.UnixMilli())
	cert := &entity.Certificate{
		TokenID:         tokenID,
		ReportID:        report.ID,
		MintedTo:        owner,
		MintedAt:        now.Format(timestampLayout),
		MetadataURI:     r.baseURL + "/audit/" + report.ID + "/certificates/metadata",
		TransactionHash: "0x" + sha256Hex(tokenID+":"+owner+":"+report.IntegrityStamp.Digest),
	}

	r.mu.Lock()
	r.certificates[tokenID] = cert
	r.mu.Unlock()
	return cert, nil
}

// Certificate returns the certificate with tokenID.
func (r *Registry) Certificate(tokenID string) (*entity.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cert, ok := r.certificates[tokenID]
	if !ok {
		return nil, repository.ErrCertificateNotFound
	}
	return cert, nil
}

// CertificateMetadata describes report for certificate viewers.
func (r *Registry) CertificateMetadata(report *entity.AuditReport) entity.CertificateMetadata {
	shortID := report.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return entity.CertificateMetadata{
		Name:        "UX Audit Report #" + shortID,
		Description: "Integrity-stamped UX audit report for " + report.Target,
		Image:       r.baseURL + "/images/" + report.ID + ".png",
		Attributes: []entity.CertificateAttribute{
			{TraitType: "Audit Date", Value: report.CreatedAt.UTC().Format(timestampLayout)},
			{TraitType: "Website", Value: report.Target},
			{TraitType: "Overall Score", Value: report.Recommendations.WebScore},
			{TraitType: "Accessibility Issues", Value: report.Heuristics.Accessibility.ImagesMissingAlt},
			{TraitType: "Verified", Value: "True"},
		},
		ExternalURL:   r.baseURL + "/audit/" + report.ID,
		IntegrityHash: report.IntegrityStamp.Digest,
	}
}

// CreateProposal opens a review proposal on reportID.
func (r *Registry) CreateProposal(reportID string, kind entity.ProposalType, description string) (*entity.Proposal, error) {
	if !kind.Valid() {
		return nil, ErrInvalidProposalType
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	now := r.now().UTC()
	p := &entity.Proposal{
		ID:           uuid.NewString(),
		ReportID:     reportID,
		Type:         kind,
		Description:  description,
		Status:       entity.ProposalActive,
		CreatedAt:    now,
		VotingEndsAt: now.Add(votingWindow),
	}

	r.mu.Lock()
	r.proposals[reportID] = append(r.proposals[reportID], p)
	r.mu.Unlock()
	return p, nil
}

// Proposals returns the proposals on reportID, oldest first.
func (r *Registry) Proposals(reportID string) []*entity.Proposal {
	r.mu.RLock()
	out := make([]*entity.Proposal, len(r.proposals[reportID]))
	copy(out, r.proposals[reportID])
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
