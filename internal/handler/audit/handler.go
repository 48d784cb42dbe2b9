package audit

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/pkg/errors"
	"github.com/epi-platform/admin-api/pkg/httputil"
)

type AuditServicer interface {
	List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error)
}

type Handler struct {
	service AuditServicer
}

func NewHandler(service AuditServicer) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	audit := r.Group("/audit")
	{
		audit.GET("/logs", h.ListLogs)
		audit.GET("/logs/entity/:type/:id", h.GetEntityLogs)
		audit.GET("/logs/user/:id", h.GetUserLogs)
	}
}

type listQuery struct {
	UserID     string `form:"userId"`
	EntityType string `form:"entityType" binding:"omitempty,oneof=product category"`
	EntityID   string `form:"entityId"`
	Action     string `form:"action"`
	From       string `form:"from"`
	To         string `form:"to"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

func (h *Handler) ListLogs(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid audit query", err))
		return
	}

	filter := model.AuditFilter{
		UserID:     q.UserID,
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		Action:     q.Action,
		Limit:      q.Limit,
	}

	var err error
	if filter.From, err = parseTime(q.From); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("from must be an RFC 3339 time", err))
		return
	}
	if filter.To, err = parseTime(q.To); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("to must be an RFC 3339 time", err))
		return
	}

	h.respond(c, filter)
}

func (h *Handler) GetEntityLogs(c *gin.Context) {
	h.respond(c, model.AuditFilter{
		EntityType: c.Param("type"),
		EntityID:   c.Param("id"),
	})
}

func (h *Handler) GetUserLogs(c *gin.Context) {
	h.respond(c, model.AuditFilter{UserID: c.Param("id")})
}

func (h *Handler) respond(c *gin.Context, filter model.AuditFilter) {
	logs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, logs)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
