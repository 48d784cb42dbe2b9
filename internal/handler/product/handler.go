package product

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/epi-platform/admin-api/internal/backend"
	"github.com/epi-platform/admin-api/internal/handler"
	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/store"
	"github.com/epi-platform/admin-api/pkg/httputil"
)

type ProductServicer interface {
	List(ctx context.Context, q store.Query) ([]model.Product, httputil.Pagination, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, req model.ProductSaveRequest) (*model.Product, error)
	Update(ctx context.Context, id string, req model.ProductSaveRequest) (*model.Product, error)
	Delete(ctx context.Context, id string) error
	UploadImages(ctx context.Context, id string, uploads []backend.Upload) (*model.Product, error)
	Preview(req model.PreviewRequest) (model.Regional, error)
}

type Handler struct {
	service ProductServicer
}

func NewHandler(service ProductServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	products := r.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.POST("", h.CreateProduct)
		products.POST("/regional-preview", h.Preview)
		products.GET("/:id", h.GetProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
		products.POST("/:id/images", h.UploadImages)
	}
}

func (h *Handler) ListProducts(c *gin.Context) {
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

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req model.ProductSaveRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var req model.ProductSaveRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "product deleted")
}

func (h *Handler) UploadImages(c *gin.Context) {
	uploads, err := handler.Uploads(c, "images")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.UploadImages(c.Request.Context(), c.Param("id"), uploads)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
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
