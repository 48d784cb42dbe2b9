package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epi-platform/admin-api/internal/middleware"
	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/service/region"
	"github.com/epi-platform/admin-api/pkg/auth"
	"github.com/epi-platform/admin-api/pkg/metrics"
)

const secret = "test-secret"

type okHandler struct{ path string }

func (h okHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET(h.path, func(c *gin.Context) { c.Status(http.StatusOK) })
}

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	regions, err := region.NewService([]model.Region{{Code: "IN", Name: "India"}, {Code: "US", Name: "United States"}})
	require.NoError(t, err)

	r := NewRouter(
		middleware.NewAuthMiddleware(auth.NewJWTAuthenticator(secret, "")),
		middleware.NewRegionMiddleware(regions),
		metrics.NewNop(),
		Handlers{
			Health:     okHandler{"/health/live"},
			Metrics:    func(c *gin.Context) { c.String(http.StatusOK, "metrics") },
			Regions:    okHandler{"/regions"},
			Categories: okHandler{"/categories"},
			Products:   okHandler{"/products"},
			Plans:      okHandler{"/plans/defaults"},
			Audit:      okHandler{"/audit/logs"},
		},
		RouterConfig{Mode: gin.TestMode, RateLimitOff: true},
	)
	r.Setup()
	return r.Engine()
}

func token(t *testing.T, claims model.AdminClaims) string {
	t.Helper()
	tok, err := auth.NewJWTAuthenticator(secret, "").GenerateToken(claims, time.Hour)
	require.NoError(t, err)
	return tok
}

func get(e *gin.Engine, path, tok string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w.Code
}

func TestPublicRoutes(t *testing.T) {
	e := setup(t)
	assert.Equal(t, http.StatusOK, get(e, "/health/live", ""))
	assert.Equal(t, http.StatusOK, get(e, "/metrics", ""))
	assert.Equal(t, http.StatusUnauthorized, get(e, "/api/v1/regions", ""))
}

func TestModuleAccess(t *testing.T) {
	e := setup(t)
	sub := token(t, model.AdminClaims{UserID: "u1", Modules: []string{model.ModuleProducts}})

	assert.Equal(t, http.StatusOK, get(e, "/api/v1/regions", sub))
	assert.Equal(t, http.StatusOK, get(e, "/api/v1/products", sub))
	assert.Equal(t, http.StatusOK, get(e, "/api/v1/plans/defaults", sub))
	assert.Equal(t, http.StatusForbidden, get(e, "/api/v1/categories", sub))
	assert.Equal(t, http.StatusForbidden, get(e, "/api/v1/audit/logs", sub))

	super := token(t, model.AdminClaims{UserID: "u2", IsSuperAdmin: true})
	assert.Equal(t, http.StatusOK, get(e, "/api/v1/categories", super))
	assert.Equal(t, http.StatusOK, get(e, "/api/v1/audit/logs", super))
}

func TestUnknownRegionRejected(t *testing.T) {
	e := setup(t)
	super := token(t, model.AdminClaims{UserID: "u2", IsSuperAdmin: true})

	assert.Equal(t, http.StatusOK, get(e, "/api/v1/products?region=in", super))
	assert.Equal(t, http.StatusBadRequest, get(e, "/api/v1/products?region=XX", super))
}
