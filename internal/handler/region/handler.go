package region

import (
	"github.com/gin-gonic/gin"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/pkg/httputil"
)

type RegionLister interface {
	List() []model.Region
}

type Handler struct {
	regions RegionLister
}

func NewHandler(regions RegionLister) *Handler {
	return &Handler{regions: regions}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/regions", h.ListRegions)
}

func (h *Handler) ListRegions(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.regions.List())
}
