package plan

import (
	"github.com/gin-gonic/gin"

	"github.com/epi-platform/admin-api/internal/handler"
	"github.com/epi-platform/admin-api/internal/model"
	planService "github.com/epi-platform/admin-api/internal/service/plan"
	"github.com/epi-platform/admin-api/pkg/httputil"
)

// Handler exposes the installment calculator. It is stateless.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/plans")
	{
		plans.GET("/defaults", h.Defaults)
		plans.POST("/calculate", h.Calculate)
		plans.POST("/validate", h.Validate)
	}
}

func (h *Handler) Defaults(c *gin.Context) {
	httputil.RespondWithSuccess(c, planService.DefaultPlans())
}

// Calculate recomputes totals and auto-generated names as the admin types.
func (h *Handler) Calculate(c *gin.Context) {
	var req model.CalculateRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	plans := planService.Recalculate(req.Plans)
	for i := range plans {
		planService.SyncName(&plans[i])
	}

	httputil.RespondWithSuccess(c, model.CalculateResponse{
		EffectivePrice: planService.EffectivePrice(req.RegularPrice, req.SalePrice),
		Plans:          plans,
	})
}

func (h *Handler) Validate(c *gin.Context) {
	var req model.ValidatePlansRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	if err := planService.Validate(req.Plans); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "plans are valid")
}
