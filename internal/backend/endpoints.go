package backend

import (
	"fmt"
	"net/url"
)

// Endpoints is the path table of the catalog backend, relative to its base URL.
var Endpoints = struct {
	Categories      string
	CategoriesAdmin string
	Category        string
	CategoryImages  string
	Products        string
	ProductsAdmin   string
	Product         string
	ProductImages   string
}{
	Categories:      "/categories",
	CategoriesAdmin: "/categories/admin/all",
	Category:        "/categories/%s",
	CategoryImages:  "/categories/%s/category-images",
	Products:        "/products",
	ProductsAdmin:   "/products/admin/all",
	Product:         "/products/%s",
	ProductImages:   "/products/%s/images",
}

// path fills an id into a templated endpoint.
func path(tmpl, id string) string {
	return fmt.Sprintf(tmpl, url.PathEscape(id))
}
