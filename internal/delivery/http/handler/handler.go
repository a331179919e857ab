package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/user/audit-service/internal/delivery/http/request"
	"github.com/user/audit-service/internal/delivery/http/response"
	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/integrity"
	"github.com/user/audit-service/internal/repository"
	"github.com/user/audit-service/internal/usecase"
	"github.com/user/audit-service/pkg/utils"
)

const (
	serviceName  = "ux-audit-service"
	maxBodyBytes = 1 << 20
)

type Handler struct {
	auditor   usecase.Auditor
	reports   *usecase.ReportQuery
	integrity *usecase.IntegrityUseCase
	strategy  entity.Strategy
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(
	auditor usecase.Auditor,
	reports *usecase.ReportQuery,
	integrity *usecase.IntegrityUseCase,
	strategy entity.Strategy,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		auditor:   auditor,
		reports:   reports,
		integrity: integrity,
		strategy:  strategy,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *Handler) HandleSubmitAudit(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitAuditRequest
	if !h.decode(w, r, &req) {
		return
	}

	target := strings.TrimSpace(req.URL)
	if target == "" {
		h.writeJSONError(w, "URL is required", http.StatusBadRequest)
		return
	}
	if _, err := utils.ParseAbsoluteURL(target); err != nil {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}

	id, err := h.auditor.Audit(r.Context(), target)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.SubmitAuditResponse{ID: id})
}

func (h *Handler) HandleGetAudit(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) HandleListAudits(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.List(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleVerifyAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := h.reports.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok, err := integrity.VerifyReport(report)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.VerifyResponse{ID: id, Verified: ok, Digest: report.IntegrityStamp.Digest})
}

func (h *Handler) HandleMintCertificate(w http.ResponseWriter, r *http.Request) {
	var req request.MintCertificateRequest
	if !h.decode(w, r, &req) {
		return
	}
	cert, err := h.integrity.MintCertificate(r.Context(), chi.URLParam(r, "id"), req.Owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, cert)
}

func (h *Handler) HandleGetCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.integrity.Certificate(r.Context(), chi.URLParam(r, "tokenId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cert)
}

func (h *Handler) HandleCertificateMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.integrity.CertificateMetadata(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, meta)
}

func (h *Handler) HandleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req request.CreateProposalRequest
	if !h.decode(w, r, &req) {
		return
	}
	proposal, err := h.integrity.CreateProposal(r.Context(), chi.URLParam(r, "id"), entity.ProposalType(req.Type), req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, proposal)
}

func (h *Handler) HandleListProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.integrity.Proposals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, proposals)
}

// HandlePreflight answers CORS preflight requests with an empty body.
func (h *Handler) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, response.HealthResponse{
		OK:        true,
		Service:   serviceName,
		Version:   entity.ReportVersion,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Strategy:  string(h.strategy),
		Endpoints: map[string]string{
			"submit":       "POST /audit",
			"report":       "GET /audit/{id}",
			"list":         "GET /audits",
			"stats":        "GET /stats",
			"verify":       "GET /audit/{id}/verify",
			"certificates": "POST /audit/{id}/certificates",
			"proposals":    "GET|POST /audit/{id}/proposals",
			"metrics":      "GET /metrics",
		},
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps use case errors onto status codes. Internal causes are
// logged and never sent to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stageErr *usecase.StageError
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrReportNotFound):
		h.writeJSONError(w, "Report not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrCertificateNotFound):
		h.writeJSONError(w, "Certificate not found", http.StatusNotFound)
	case errors.As(err, &stageErr):
		h.writeJSONError(w, stageErr.Message(), http.StatusInternalServerError)
	default:
		h.logger.Error("Request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Message: message})
}
