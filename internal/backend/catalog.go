package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/epi-platform/admin-api/internal/model"
)

const (
	listPageSize = 100
	maxListPages = 200
)

func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	res, err := call[[]model.Category](ctx, c, "categories", http.MethodGet,
		Endpoints.CategoriesAdmin, Endpoints.CategoriesAdmin, nil, nil)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	res, err := call[model.Category](ctx, c, "category", http.MethodGet,
		Endpoints.Category, path(Endpoints.Category, id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (c *Client) CreateCategory(ctx context.Context, payload model.CategoryPayload) (*model.Category, error) {
	res, err := call[model.Category](ctx, c, "category", http.MethodPost,
		Endpoints.Categories, Endpoints.Categories, nil, payload)
	if err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, payload model.CategoryPayload) (*model.Category, error) {
	res, err := call[model.Category](ctx, c, "category", http.MethodPut,
		Endpoints.Category, path(Endpoints.Category, id), nil, payload)
	if err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, "category", http.MethodDelete,
		Endpoints.Category, path(Endpoints.Category, id), nil, nil)
	return err
}

// ListProducts fetches one page of the admin product list.
func (c *Client) ListProducts(ctx context.Context, page, limit int) (Result[[]model.Product], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return call[[]model.Product](ctx, c, "products", http.MethodGet,
		Endpoints.ProductsAdmin, Endpoints.ProductsAdmin, q, nil)
}

// AllProducts walks every page of the admin product list.
func (c *Client) AllProducts(ctx context.Context) ([]model.Product, error) {
	var all []model.Product
	for page := 1; page <= maxListPages; page++ {
		res, err := c.ListProducts(ctx, page, listPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, res.Data...)

		if res.Pagination == nil {
			if len(res.Data) < listPageSize {
				break
			}
			continue
		}
		if res.Pagination.TotalPages <= page || len(res.Data) == 0 {
			break
		}
	}
	return all, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	res, err := call[model.Product](ctx, c, "product", http.MethodGet,
		Endpoints.Product, path(Endpoints.Product, id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (c *Client) CreateProduct(ctx context.Context, payload model.ProductPayload) (*model.Product, error) {
	res, err := call[model.Product](ctx, c, "product", http.MethodPost,
		Endpoints.Products, Endpoints.Products, nil, payload)
	if err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, payload model.ProductPayload) (*model.Product, error) {
	res, err := call[model.Product](ctx, c, "product", http.MethodPut,
		Endpoints.Product, path(Endpoints.Product, id), nil, payload)
	if err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, "product", http.MethodDelete,
		Endpoints.Product, path(Endpoints.Product, id), nil, nil)
	return err
}
