package response

type SubmitAuditResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	OK        bool              `json:"ok"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Strategy  string            `json:"strategy"`
	Endpoints map[string]string `json:"endpoints"`
}

type VerifyResponse struct {
	ID       string `json:"id"`
	Verified bool   `json:"verified"`
	Digest   string `json:"digest"`
}
