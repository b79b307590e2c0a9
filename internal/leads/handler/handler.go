package handler

import (
	"context"
	"net/http"
	"strconv"

	"lead_quality_backend/internal/leads/service"
	"lead_quality_backend/internal/leads/transport"
	"lead_quality_backend/platform/apperr"
	"lead_quality_backend/platform/httpkit"
	"lead_quality_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest = "invalid request"
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// ScanEnqueuer hands a duplicate scan to the background worker and returns
// the task id.
type ScanEnqueuer interface {
	EnqueueDuplicateScan(ctx context.Context) (string, error)
}

type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	enqueuer ScanEnqueuer
}

func New(svc *service.Service, val *validator.Validator, enqueuer ScanEnqueuer) *Handler {
	if val == nil {
		val = validator.Default
	}
	return &Handler{svc: svc, val: val, enqueuer: enqueuer}
}

// RegisterLeadRoutes mounts lead CRUD and scoring under rg.
func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListLeads)
	rg.POST("", h.CreateLead)
	rg.GET("/:id", h.GetLead)
	rg.PUT("/:id", h.UpdateLead)
	rg.DELETE("/:id", h.DeleteLead)
	rg.POST("/:id/score", h.ScoreLead)
}

// RegisterDuplicateRoutes mounts duplicate detection and resolution under rg.
// Static paths are registered before the :id routes.
func (h *Handler) RegisterDuplicateRoutes(rg *gin.RouterGroup, scanLimit gin.HandlerFunc) {
	if scanLimit != nil {
		rg.POST("/scan", scanLimit, h.Scan)
	} else {
		rg.POST("/scan", h.Scan)
	}
	rg.GET("/settings", h.GetSettings)
	rg.PUT("/settings", h.UpdateSettings)
	rg.GET("/audit", h.ListAudit)
	rg.GET("", h.ListGroups)
	rg.GET("/:id", h.GetGroup)
	rg.POST("/:id/merge", h.MergeGroup)
	rg.POST("/:id/ignore", h.IgnoreGroup)
	rg.POST("/:id/reset", h.ResetGroup)
	rg.POST("/:id/review", h.ReviewGroup)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return false
	}
	return true
}

func (h *Handler) CreateLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.CreateLead(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) GetLead(c *gin.Context) {
	lead, err := h.svc.GetLead(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) UpdateLead(c *gin.Context) {
	var req transport.UpdateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.UpdateLead(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) DeleteLead(c *gin.Context) {
	if err := h.svc.DeleteLead(c.Request.Context(), c.Param("id")); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListLeads(c *gin.Context) {
	var req transport.ListLeadsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.ListLeads(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ScoreLead(c *gin.Context) {
	result, err := h.svc.ScoreLead(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Scan runs duplicate detection inline, or queues it when ?async=true and a
// worker queue is configured.
func (h *Handler) Scan(c *gin.Context) {
	async, _ := strconv.ParseBool(c.Query("async"))
	if async && h.enqueuer != nil {
		taskID, err := h.enqueuer.EnqueueDuplicateScan(c.Request.Context())
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, transport.ScanResponse{Queued: true, TaskID: taskID})
		return
	}

	result, err := h.svc.ScanDuplicates(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListGroups(c *gin.Context) {
	var req transport.ListGroupsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.ListGroups(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetGroup(c *gin.Context) {
	group, err := h.svc.GetGroup(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, group)
}

func (h *Handler) MergeGroup(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.MergeGroupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.MergeGroup(c.Request.Context(), c.Param("id"), req, identity.Subject())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) IgnoreGroup(c *gin.Context) {
	h.transition(c, h.svc.IgnoreGroup)
}

func (h *Handler) ResetGroup(c *gin.Context) {
	h.transition(c, h.svc.ResetGroup)
}

func (h *Handler) ReviewGroup(c *gin.Context) {
	if c.Request.ContentLength > 0 {
		var req transport.ReviewGroupRequest
		if !h.bindJSON(c, &req) {
			return
		}
	}
	h.transition(c, h.svc.ReviewGroup)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, groupID, actor string) (transport.DuplicateGroupResponse, error)) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	group, err := fn(c.Request.Context(), c.Param("id"), identity.Subject())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, group)
}

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.svc.GetSettings(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, settings)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req transport.UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	settings, err := h.svc.UpdateSettings(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, settings)
}

func (h *Handler) ListAudit(c *gin.Context) {
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxAuditLimit {
			httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest).With("limit", "between 1 and 1000"))
			return
		}
		limit = parsed
	}

	result, err := h.svc.ListAudit(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
