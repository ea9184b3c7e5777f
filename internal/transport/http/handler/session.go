package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vetvalidator/internal/app"
	"vetvalidator/internal/model"
	"vetvalidator/internal/transport/http/response"
)

type SessionHandler struct {
	ingestService *app.IngestService
	reportService *app.ReportService
}

type CreateSessionRequest struct {
	UnitCode     string `json:"unit_code" binding:"required,max=32"`
	UnitURL      string `json:"unit_url" binding:"required,max=512"`
	DocumentType string `json:"document_type" binding:"max=64"`
}

func NewSessionHandler(ingestService *app.IngestService, reportService *app.ReportService) *SessionHandler {
	return &SessionHandler{
		ingestService: ingestService,
		reportService: reportService,
	}
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if req.DocumentType != "" &&
		req.DocumentType != model.DocTypeUnitAssessment &&
		req.DocumentType != model.DocTypeLearnerGuide {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unknown document type")
		return
	}

	session, err := h.ingestService.CreateSession(c.Request.Context(), app.CreateSessionInput{
		UnitCode:     req.UnitCode,
		UnitURL:      req.UnitURL,
		DocumentType: req.DocumentType,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create session failed")
		}
		return
	}
	response.OK(c, session)
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	sessions, err := h.reportService.ListSessions(limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list sessions failed")
		return
	}
	response.OK(c, sessions)
}

// GetReport serves the session read-model: status, active results, and the
// session's aggregate quality metrics.
func (h *SessionHandler) GetReport(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get report failed")
		}
		return
	}
	response.OK(c, report)
}

// GetHistory serves the full result audit trail including superseded rows.
func (h *SessionHandler) GetHistory(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	history, err := h.reportService.GetHistory(sessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get history failed")
		}
		return
	}
	response.OK(c, history)
}

func (h *SessionHandler) CancelSession(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	if err := h.ingestService.CancelSession(c.Request.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "cancel session failed")
		}
		return
	}
	response.OK(c, gin.H{"cancelled_session_id": sessionID})
}

func (h *SessionHandler) Revalidate(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	session, err := h.ingestService.Revalidate(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotRetryable):
			response.Error(c, http.StatusConflict, response.CodeSessionState, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "revalidate failed")
		}
		return
	}
	response.OK(c, session)
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	s := c.Param(key)
	u, err := strconv.ParseUint(s, 10, 64)
	return uint(u), err
}
