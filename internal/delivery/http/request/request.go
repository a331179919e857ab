package request

type SubmitAuditRequest struct {
	URL string `json:"url"`
}

type MintCertificateRequest struct {
	Owner string `json:"owner"`
}

type CreateProposalRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}
