package override

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/pkg/errors"
)

// DefaultLowStockThreshold is used when Options leaves the threshold unset.
const DefaultLowStockThreshold = 3

// Base is the entity-level (global) view the regional rows fall back to.
type Base struct {
	RegularPrice decimal.Decimal
	SalePrice    decimal.Decimal
	IsGlobal     bool
}

type Options struct {
	LowStockThreshold int
	// RequireRegion rejects a non-global entity with no enabled region.
	RequireRegion bool
}

// Collect reduces the editor to the regional arrays of a save request. Only
// enabled rows contribute, in registry order. A global entity always yields
// empty arrays.
func Collect(e *Editor, base Base, opts Options) (model.Regional, error) {
	out := model.EmptyRegional()
	if base.IsGlobal {
		return out, nil
	}

	threshold := opts.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	for _, code := range e.EnabledCodes() {
		row := e.rows[code]

		out.RegionalPricing = append(out.RegionalPricing, Pricing(row, base))
		out.RegionalAvailability = append(out.RegionalAvailability, Availability(row, threshold))
		if seo, ok := Seo(row); ok {
			out.RegionalSeo = append(out.RegionalSeo, seo)
		}
	}

	if opts.RequireRegion && len(out.RegionalAvailability) == 0 {
		return out, errors.BadRequest("select at least one region or mark the item as global", nil)
	}

	return out, nil
}

// Pricing resolves a row against the base prices. A row without its own price
// inherits the base regular and sale prices. An unset sale price ends up equal
// to the regular price.
func Pricing(row *Row, base Base) model.RegionalPricing {
	regular := row.Price
	sale := row.SalePrice
	if !regular.IsPositive() {
		regular = base.RegularPrice
		if !sale.IsPositive() {
			sale = base.SalePrice
		}
	}
	if !sale.IsPositive() {
		sale = regular
	}

	return model.RegionalPricing{
		Region:       row.Region.Code,
		RegularPrice: regular,
		SalePrice:    sale,
		FinalPrice:   model.FinalPrice(regular, sale),
	}
}

func Availability(row *Row, threshold int) model.RegionalAvailability {
	stock := row.StockQuantity
	if !row.IsAvailable || stock < 0 {
		stock = 0
	}
	return model.RegionalAvailability{
		Region:        row.Region.Code,
		StockQuantity: stock,
		IsAvailable:   row.IsAvailable,
		StockStatus:   StockStatus(row.IsAvailable, stock, threshold),
	}
}

// StockStatus derives the status shown to shoppers. Only an unavailable region
// is out of stock; an available one at or below the threshold, zero included,
// is low stock.
func StockStatus(available bool, stock, threshold int) model.StockStatus {
	switch {
	case !available:
		return model.StockStatusOutOfStock
	case stock <= threshold:
		return model.StockStatusLowStock
	default:
		return model.StockStatusInStock
	}
}

// Seo returns false when both title and description are blank.
func Seo(row *Row) (model.RegionalSeo, bool) {
	title := strings.TrimSpace(row.MetaTitle)
	desc := strings.TrimSpace(row.MetaDescription)
	if title == "" && desc == "" {
		return model.RegionalSeo{}, false
	}
	return model.RegionalSeo{
		Region:          row.Region.Code,
		MetaTitle:       title,
		MetaDescription: desc,
		Keywords:        Keywords(row.Keywords),
	}, true
}

// LowStock returns the availability records at or below the threshold that
// are still on sale.
func LowStock(regional model.Regional) []model.RegionalAvailability {
	var out []model.RegionalAvailability
	for _, a := range regional.RegionalAvailability {
		if a.StockStatus == model.StockStatusLowStock {
			out = append(out, a)
		}
	}
	return out
}
