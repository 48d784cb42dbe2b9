package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epi-platform/admin-api/internal/config"
	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/pkg/circuitbreaker"
	apperrors "github.com/epi-platform/admin-api/pkg/errors"
	"github.com/epi-platform/admin-api/pkg/metrics"
)

// a 1x1 PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewClient(config.BackendConfig{
		BaseURL:         srv.URL + "/api/",
		Token:           "service-token",
		Timeout:         2 * time.Second,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}, metrics.NewNop())
}

func TestDecodeShapes(t *testing.T) {
	t.Run("envelope with pagination", func(t *testing.T) {
		res, err := decode[[]model.Category](200, []byte(`{"success":true,"data":[{"id":"a","name":"A"}],"pagination":{"page":1,"totalPages":3,"total":25}}`))
		require.NoError(t, err)
		require.Len(t, res.Data, 1)
		assert.Equal(t, "A", res.Data[0].Name)
		require.NotNil(t, res.Pagination)
		assert.Equal(t, 3, res.Pagination.TotalPages)
	})

	t.Run("bare array", func(t *testing.T) {
		res, err := decode[[]model.Category](200, []byte(`[{"id":"a"},{"id":"b"}]`))
		require.NoError(t, err)
		assert.Len(t, res.Data, 2)
	})

	t.Run("bare object", func(t *testing.T) {
		res, err := decode[model.Category](200, []byte(`{"id":"a","name":"A","parentCategoryId":null}`))
		require.NoError(t, err)
		assert.Equal(t, "a", res.Data.ID)
		assert.Nil(t, res.Data.ParentCategoryID)
	})

	t.Run("list nested in data", func(t *testing.T) {
		res, err := decode[[]model.Product](200, []byte(`{"success":true,"data":{"products":[{"id":"p1"}],"pagination":{"page":2,"totalPages":2,"total":101}}}`))
		require.NoError(t, err)
		require.Len(t, res.Data, 1)
		assert.Equal(t, 2, res.Pagination.Page)
	})

	t.Run("success false", func(t *testing.T) {
		_, err := decode[model.Category](200, []byte(`{"success":false,"message":"slug taken"}`))
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "slug taken", be.Message)
	})

	t.Run("http error uses backend message", func(t *testing.T) {
		_, err := decode[model.Category](404, []byte(`{"success":false,"message":"Category not found"}`))
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, 404, be.Status)
		assert.Equal(t, "Category not found", be.Message)
	})

	t.Run("http error without body", func(t *testing.T) {
		_, err := decode[model.Category](502, nil)
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "Bad Gateway", be.Message)
	})

	t.Run("empty success body", func(t *testing.T) {
		_, err := decode[json.RawMessage](204, nil)
		assert.NoError(t, err)
	})
}

func TestClientForwardsCallerToken(t *testing.T) {
	var gotAuth atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		assert.Equal(t, "/api/categories/admin/all", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	})

	_, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer service-token", gotAuth.Load())

	_, err = c.ListCategories(WithToken(context.Background(), "admin-token"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer admin-token", gotAuth.Load())
}

func TestClientSendsFullPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/products/p%201", r.URL.EscapedPath())

		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, float64(1000), got["regularPrice"])
		assert.Equal(t, []interface{}{}, got["regionalSeo"])

		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"p 1","name":"Phone"}}`))
	})

	payload := model.ProductPayload{
		Name:         "Phone",
		RegularPrice: decimal.NewFromInt(1000),
		Regional:     model.EmptyRegional(),
	}
	p, err := c.UpdateProduct(context.Background(), "p 1", payload)
	require.NoError(t, err)
	assert.Equal(t, "Phone", p.Name)
}

func TestClientTranslatesErrors(t *testing.T) {
	tests := []struct {
		status int
		code   apperrors.ErrorCode
	}{
		{http.StatusNotFound, apperrors.ErrNotFound},
		{http.StatusBadRequest, apperrors.ErrBadRequest},
		{http.StatusConflict, apperrors.ErrConflict},
		{http.StatusForbidden, apperrors.ErrForbidden},
		{http.StatusTeapot, apperrors.ErrUpstream},
	}

	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"success":false,"message":"nope"}`))
		})
		_, err := c.GetCategory(context.Background(), "x")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, tt.code), "status %d gave %v", tt.status, err)
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 2; i++ {
		_, err := c.GetProduct(context.Background(), "x")
		assert.True(t, apperrors.IsCode(err, apperrors.ErrUpstream))
	}
	assert.Equal(t, circuitbreaker.StateOpen, c.Breaker().State())

	_, err := c.GetProduct(context.Background(), "x")
	require.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 5; i++ {
		_, _ = c.GetProduct(context.Background(), "x")
	}
	assert.Equal(t, circuitbreaker.StateClosed, c.Breaker().State())
}

func TestAllProductsWalksPages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"p` + page + `"}],"pagination":{"page":` + page + `,"totalPages":3,"total":3}}`))
	})

	products, err := c.AllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "p3", products[2].ID)
}

func TestUploadProductImages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/p1/images", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["images"]
		require.Len(t, files, 2)
		assert.Equal(t, "image/png", files[0].Header.Get("Content-Type"))
		assert.Equal(t, "front.png", files[0].Filename)
		assert.Equal(t, "Front view", r.FormValue("altText[0]"))
		assert.Empty(t, r.FormValue("altText[1]"))

		f, err := files[1].Open()
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, pngPixel, data)

		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"p1","images":[{"url":"a"},{"url":"b"}]}}`))
	})

	p, err := c.UploadProductImages(context.Background(), "p1", []Upload{
		{Filename: "../front.png", Data: pngPixel, AltText: "Front view"},
		{Filename: "back.png", Data: pngPixel},
	})
	require.NoError(t, err)
	assert.Len(t, p.Images, 2)
}

func TestUploadRejectsNonImages(t *testing.T) {
	var called int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&called, 1)
	})

	_, err := c.UploadProductImages(context.Background(), "p1", []Upload{
		{Filename: "evil.png", Data: []byte(strings.Repeat("<html>", 10))},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
	assert.Zero(t, atomic.LoadInt32(&called))
}
