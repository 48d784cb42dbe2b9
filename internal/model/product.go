package model

import "github.com/shopspring/decimal"

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDraft    ProductStatus = "draft"
)

type Image struct {
	URL       string `json:"url"`
	AltText   string `json:"altText,omitempty"`
	IsPrimary bool   `json:"isPrimary,omitempty"`
}

type Product struct {
	Base
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	CategoryID      string          `json:"categoryId"`
	RegularPrice    decimal.Decimal `json:"regularPrice"`
	SalePrice       decimal.Decimal `json:"salePrice"`
	Status          ProductStatus   `json:"status"`
	IsGlobalProduct bool            `json:"isGlobalProduct"`
	StockQuantity   int             `json:"stockQuantity"`
	Images          []Image         `json:"images,omitempty"`
	Plans           []Plan          `json:"plans,omitempty"`
	Regional
}

// ProductSaveRequest is what the console submits on create and update.
type ProductSaveRequest struct {
	Name            string           `json:"name" binding:"required,max=200"`
	Description     string           `json:"description"`
	CategoryID      string           `json:"categoryId" binding:"required"`
	RegularPrice    FormValue        `json:"regularPrice"`
	SalePrice       FormValue        `json:"salePrice"`
	Status          ProductStatus    `json:"status" binding:"omitempty,oneof=active inactive draft"`
	IsGlobalProduct bool             `json:"isGlobalProduct"`
	StockQuantity   FormValue        `json:"stockQuantity"`
	Regions         []RegionRowInput `json:"regions" binding:"dive"`
	Plans           []Plan           `json:"plans"`
}

// ProductPayload is the full replacement sent to the backend.
type ProductPayload struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	CategoryID      string          `json:"categoryId"`
	RegularPrice    decimal.Decimal `json:"regularPrice"`
	SalePrice       decimal.Decimal `json:"salePrice"`
	Status          ProductStatus   `json:"status"`
	IsGlobalProduct bool            `json:"isGlobalProduct"`
	StockQuantity   int             `json:"stockQuantity"`
	Plans           []Plan          `json:"plans"`
	Regional
}

// PreviewRequest asks for the collected regional payload without saving.
type PreviewRequest struct {
	IsGlobal     bool             `json:"isGlobal"`
	RegularPrice FormValue        `json:"regularPrice"`
	SalePrice    FormValue        `json:"salePrice"`
	Regions      []RegionRowInput `json:"regions" binding:"dive"`
}
