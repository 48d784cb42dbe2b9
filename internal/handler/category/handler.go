package category

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/epi-platform/admin-api/internal/backend"
	"github.com/epi-platform/admin-api/internal/handler"
	"github.com/epi-platform/admin-api/internal/model"
	categoryService "github.com/epi-platform/admin-api/internal/service/category"
	"github.com/epi-platform/admin-api/internal/store"
	"github.com/epi-platform/admin-api/pkg/errors"
	"github.com/epi-platform/admin-api/pkg/httputil"
)

type CategoryServicer interface {
	List(ctx context.Context, q store.Query) ([]model.Category, httputil.Pagination, error)
	Get(ctx context.Context, id string) (*model.Category, error)
	Tree(ctx context.Context) ([]*categoryService.TreeNode, error)
	Create(ctx context.Context, req model.CategorySaveRequest) (*model.Category, error)
	Update(ctx context.Context, id string, req model.CategorySaveRequest) (*model.Category, error)
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, id string, upload backend.Upload) (*model.Category, error)
	Preview(req model.PreviewRequest) (model.Regional, error)
}

type Handler struct {
	service CategoryServicer
}

func NewHandler(service CategoryServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	categories := r.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/tree", h.GetTree)
		categories.GET("/tree.html", h.GetTreeHTML)
		categories.POST("", h.CreateCategory)
		categories.POST("/regional-preview", h.Preview)
		categories.GET("/:id", h.GetCategory)
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
		categories.PUT("/:id/image", h.UploadImage)
		categories.POST("/:id/regional-preview", h.Preview)
	}
}

func (h *Handler) ListCategories(c *gin.Context) {
	q, ok := handler.ListQuery(c)
	if !ok {
		return
	}

	items, p, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, items, p)
}

func (h *Handler) GetTree(c *gin.Context) {
	tree, err := h.service.Tree(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tree)
}

func (h *Handler) GetTreeHTML(c *gin.Context) {
	tree, err := h.service.Tree(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := categoryService.RenderHTML(c.Writer, tree); err != nil {
		_ = c.Error(err)
	}
}

func (h *Handler) GetCategory(c *gin.Context) {
	cat, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cat)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req model.CategorySaveRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	cat, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, cat)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	var req model.CategorySaveRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	cat, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cat)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "category deleted")
}

func (h *Handler) UploadImage(c *gin.Context) {
	uploads, err := handler.Uploads(c, "image")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if len(uploads) != 1 {
		httputil.RespondWithError(c, errors.BadRequest("exactly one image is required", nil))
		return
	}

	cat, err := h.service.UploadImage(c.Request.Context(), c.Param("id"), uploads[0])
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cat)
}

func (h *Handler) Preview(c *gin.Context) {
	var req model.PreviewRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	regional, err := h.service.Preview(req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, regional)
}
