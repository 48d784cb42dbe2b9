package model

import "github.com/shopspring/decimal"

// Region is a market an entity can be priced, stocked and described for.
type Region struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Flag     string `json:"flag"`
	Currency string `json:"currency"`
}

type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLowStock   StockStatus = "low_stock"
)

type RegionalPricing struct {
	Region       string          `json:"region"`
	RegularPrice decimal.Decimal `json:"regularPrice"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	FinalPrice   decimal.Decimal `json:"finalPrice"`
}

type RegionalAvailability struct {
	Region        string      `json:"region"`
	StockQuantity int         `json:"stockQuantity"`
	IsAvailable   bool        `json:"isAvailable"`
	StockStatus   StockStatus `json:"stockStatus"`
}

type RegionalSeo struct {
	Region          string   `json:"region"`
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	Keywords        []string `json:"keywords"`
}

// Regional is the full set of per-region overrides of one entity. It is always
// sent whole; a region missing from it is not offered in that market.
type Regional struct {
	RegionalPricing      []RegionalPricing      `json:"regionalPricing"`
	RegionalAvailability []RegionalAvailability `json:"regionalAvailability"`
	RegionalSeo          []RegionalSeo          `json:"regionalSeo"`
}

// EmptyRegional returns non-nil empty arrays so a global entity clears
// every override on the backend.
func EmptyRegional() Regional {
	return Regional{
		RegionalPricing:      []RegionalPricing{},
		RegionalAvailability: []RegionalAvailability{},
		RegionalSeo:          []RegionalSeo{},
	}
}

// Codes returns the regions that carry an availability record.
func (r Regional) Codes() []string {
	codes := make([]string, 0, len(r.RegionalAvailability))
	for _, a := range r.RegionalAvailability {
		codes = append(codes, a.Region)
	}
	return codes
}

// RegionRowInput is one region row as submitted by the console.
type RegionRowInput struct {
	Region          string    `json:"region" binding:"required,region_code"`
	Enabled         bool      `json:"enabled"`
	IsAvailable     *bool     `json:"isAvailable"`
	StockQuantity   FormValue `json:"stockQuantity"`
	Price           FormValue `json:"price"`
	SalePrice       FormValue `json:"salePrice"`
	MetaTitle       string    `json:"metaTitle"`
	MetaDescription string    `json:"metaDescription"`
	Keywords        string    `json:"keywords"`
}

// FinalPrice is the price a customer pays: the sale price when one is set,
// otherwise the regular price.
func FinalPrice(regular, sale decimal.Decimal) decimal.Decimal {
	if sale.IsPositive() {
		return sale
	}
	return regular
}
