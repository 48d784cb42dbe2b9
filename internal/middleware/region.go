package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/epi-platform/admin-api/internal/service/region"
	"github.com/epi-platform/admin-api/pkg/errors"
	"github.com/epi-platform/admin-api/pkg/httputil"
)

const (
	HeaderXRegion = "X-Region"
	ContextRegion = "region_code"
)

// RegionMiddleware resolves the region an admin is viewing listings for.
type RegionMiddleware struct {
	regionSvc *region.Service
}

func NewRegionMiddleware(regionSvc *region.Service) *RegionMiddleware {
	return &RegionMiddleware{
		regionSvc: regionSvc,
	}
}

// DetectRegion reads the region from the X-Region header or the region query
// parameter. No region means the global view. An unsupported region is a 400.
func (m *RegionMiddleware) DetectRegion() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.GetHeader(HeaderXRegion)
		if code == "" {
			code = c.Query("region")
		}
		if code == "" {
			c.Next()
			return
		}

		r, ok := m.regionSvc.Get(code)
		if !ok {
			httputil.RespondWithError(c, errors.BadRequest("unsupported region "+code, nil))
			return
		}

		c.Set(ContextRegion, r.Code)
		c.Next()
	}
}

// RegionFrom returns the region code selected for the request, or "".
func RegionFrom(c *gin.Context) string {
	return c.GetString(ContextRegion)
}
