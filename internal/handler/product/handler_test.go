package product

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epi-platform/admin-api/internal/backend"
	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/store"
	"github.com/epi-platform/admin-api/pkg/errors"
	"github.com/epi-platform/admin-api/pkg/httputil"
	"github.com/epi-platform/admin-api/pkg/validator"
)

type fakeService struct {
	saved   *model.ProductSaveRequest
	query   store.Query
	uploads []backend.Upload
	err     error
}

func (f *fakeService) List(_ context.Context, q store.Query) ([]model.Product, httputil.Pagination, error) {
	f.query = q
	return []model.Product{{Base: model.Base{ID: "p1"}}}, httputil.NewPagination(1, 20, 1), nil
}

func (f *fakeService) Get(_ context.Context, id string) (*model.Product, error) {
	if id != "p1" {
		return nil, errors.NotFound("product", nil)
	}
	return &model.Product{Base: model.Base{ID: id}}, nil
}

func (f *fakeService) Create(_ context.Context, req model.ProductSaveRequest) (*model.Product, error) {
	f.saved = &req
	if f.err != nil {
		return nil, f.err
	}
	return &model.Product{Base: model.Base{ID: "p-new"}, Name: req.Name}, nil
}

func (f *fakeService) Update(_ context.Context, id string, req model.ProductSaveRequest) (*model.Product, error) {
	f.saved = &req
	return &model.Product{Base: model.Base{ID: id}}, f.err
}

func (f *fakeService) Delete(context.Context, string) error { return f.err }

func (f *fakeService) UploadImages(_ context.Context, id string, uploads []backend.Upload) (*model.Product, error) {
	f.uploads = uploads
	return &model.Product{Base: model.Base{ID: id}}, nil
}

func (f *fakeService) Preview(model.PreviewRequest) (model.Regional, error) {
	return model.EmptyRegional(), nil
}

func setup(svc *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.Register()
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateProductAcceptsLooseNumbers(t *testing.T) {
	svc := &fakeService{}
	r := setup(svc)

	w := do(r, http.MethodPost, "/api/v1/products", `{
		"name": "Phone",
		"categoryId": "phones",
		"regularPrice": 1000,
		"salePrice": "",
		"stockQuantity": "12",
		"regions": [{"region": "IN", "enabled": true, "price": "abc"}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, svc.saved)
	assert.Equal(t, model.FormValue("1000"), svc.saved.RegularPrice)
	assert.Equal(t, model.FormValue("abc"), svc.saved.Regions[0].Price)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestCreateProductValidation(t *testing.T) {
	r := setup(&fakeService{})

	w := do(r, http.MethodPost, "/api/v1/products", `{"categoryId": "phones"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name is required")

	w = do(r, http.MethodPost, "/api/v1/products", `{"name": "x", "categoryId": "c", "regions": [{"region": "india"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	svc := &fakeService{err: errors.Conflict("this product is already being saved", nil)}
	r := setup(svc)

	w := do(r, http.MethodPost, "/api/v1/products", `{"name": "Phone", "categoryId": "phones"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already being saved")

	svc.err = errors.Upstream("Product name already exists", nil)
	w = do(r, http.MethodDelete, "/api/v1/products/p1", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Product name already exists")

	w = do(r, http.MethodGet, "/api/v1/products/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListProductsPassesQuery(t *testing.T) {
	svc := &fakeService{}
	r := setup(svc)

	w := do(r, http.MethodGet, "/api/v1/products?search=phone&page=2&limit=5&sort=-price", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "phone", svc.query.Search)
	assert.Equal(t, 2, svc.query.Page)
	assert.Equal(t, "-price", svc.query.Sort)
	assert.Contains(t, w.Body.String(), `"pagination"`)
}

func TestUploadImagesReadsAltTexts(t *testing.T) {
	svc := &fakeService{}
	r := setup(svc)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"a.png", "b.png"} {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	}
	require.NoError(t, mw.WriteField("altText[1]", "back"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/p1/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, svc.uploads, 2)
	assert.Equal(t, "a.png", svc.uploads[0].Filename)
	assert.Equal(t, "", svc.uploads[0].AltText)
	assert.Equal(t, "back", svc.uploads[1].AltText)
}
