package analyses

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-gap-backend/internal/intake"
	"estate-gap-backend/internal/shared/server/middleware"
	"estate-gap-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc   *Service
	polls *pollLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, polls: newPollLimiter(pollLimitWindow, nil)}
}

// RegisterRoutes attaches analysis routes to the router group. The POST that
// starts an analysis is registered separately so callers can rate limit it.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/gap-analyses/preview", h.preview)
	rg.GET("/gap-analyses", h.listAnalyses)
	rg.GET("/gap-analyses/:id", h.getAnalysis)
}

// RegisterAnalyzeRoute attaches the route that starts an analysis.
func (h *Handler) RegisterAnalyzeRoute(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, mw...), h.startAnalysis)
	rg.POST("/gap-analyses", handlers...)
}

type createRequest struct {
	ClientID string `json:"clientId"`
	intake.Input
}

func (h *Handler) startAnalysis(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "request body must be a JSON object", nil)
		return
	}
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		clientID = middleware.ClientIDFromContext(c)
	}
	if clientID == "" {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "clientId is required", []map[string]string{
			{"field": "clientId", "issue": "required"},
		})
		return
	}
	middleware.SetClientID(c, clientID)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	analysis, err := h.Svc.Create(ctx, clientID, req.Input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "clientId is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to start analysis", nil)
		}
		return
	}

	c.Set("analysisId", analysis.ID)
	c.Set("statusTransition", "->"+analysis.Status)
	respond.Accepted(c, gin.H{
		"analysisId": analysis.ID,
		"status":     analysis.Status,
	})
}

func (h *Handler) preview(c *gin.Context) {
	var in intake.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "request body must be a JSON object", nil)
		return
	}
	respond.OK(c, h.Svc.Preview(in))
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysisID := c.Param("id")
	if analysisID == "" {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "analysis id is required", nil)
		return
	}
	c.Set("analysisId", analysisID)

	caller := middleware.ClientIDFromContext(c)
	if caller == "" {
		caller = c.ClientIP()
	}
	if wait := h.polls.Wait(caller, analysisID); wait > 0 {
		respond.TooManyRequests(c, wait, "polling too frequently")
		return
	}

	analysis, err := h.Svc.Get(c.Request.Context(), analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to fetch analysis", nil)
		}
		return
	}

	respond.OK(c, analysisView(analysis))
}

func (h *Handler) listAnalyses(c *gin.Context) {
	clientID := strings.TrimSpace(c.Query("clientId"))
	if clientID == "" {
		clientID = middleware.ClientIDFromContext(c)
	}
	if clientID == "" {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "clientId is required", nil)
		return
	}

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.Svc.List(c.Request.Context(), clientID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to list analyses", nil)
		return
	}

	resp := make([]gin.H, 0, len(items))
	for _, a := range items {
		item := gin.H{
			"analysisId": a.ID,
			"clientId":   a.ClientID,
			"status":     a.Status,
			"createdAt":  a.CreatedAt,
		}
		if score := a.Score(); score != nil {
			item["score"] = *score
		}
		if a.Result != nil {
			item["recoveryStatus"] = a.Result.Recovery.Status
		}
		resp = append(resp, item)
	}

	respond.OK(c, resp)
}

func analysisView(a Analysis) gin.H {
	resp := gin.H{
		"id":              a.ID,
		"clientId":        a.ClientID,
		"status":          a.Status,
		"provider":        a.Provider,
		"model":           a.Model,
		"analysisVersion": a.AnalysisVersion,
		"createdAt":       a.CreatedAt,
		"updatedAt":       a.UpdatedAt,
	}
	if a.StartedAt != nil {
		resp["startedAt"] = a.StartedAt
	}
	if a.CompletedAt != nil {
		resp["completedAt"] = a.CompletedAt
	}
	if a.Status == StatusCompleted && a.Result != nil {
		resp["result"] = a.Result
	}
	if a.Status == StatusFailed {
		errBody := gin.H{
			"code":      a.ErrorCode,
			"retryable": a.ErrorRetryable,
		}
		if a.ErrorMessage != nil {
			errBody["message"] = *a.ErrorMessage
		}
		resp["error"] = errBody
	}
	return resp
}
