package override

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/service/region"
	"github.com/epi-platform/admin-api/pkg/errors"
)

// Row is the editable override state of one entity in one region. Values
// survive a toggle off so that re-enabling the region restores them.
type Row struct {
	Region          model.Region    `json:"region"`
	Enabled         bool            `json:"enabled"`
	IsAvailable     bool            `json:"isAvailable"`
	StockQuantity   int             `json:"stockQuantity"`
	Price           decimal.Decimal `json:"price"`
	SalePrice       decimal.Decimal `json:"salePrice"`
	MetaTitle       string          `json:"metaTitle"`
	MetaDescription string          `json:"metaDescription"`
	Keywords        string          `json:"keywords"`
}

// Editor holds one row per supported region for a single entity.
type Editor struct {
	order []string
	rows  map[string]*Row
}

// NewEditor starts with every region present and disabled.
func NewEditor(regions []model.Region) *Editor {
	e := &Editor{
		order: make([]string, 0, len(regions)),
		rows:  make(map[string]*Row, len(regions)),
	}
	for _, r := range regions {
		r.Code = region.Normalize(r.Code)
		e.order = append(e.order, r.Code)
		e.rows[r.Code] = &Row{Region: r, IsAvailable: true}
	}
	return e
}

// Load enables and fills the rows of every region the entity already has an
// override for. Records for regions outside the registry are ignored.
func (e *Editor) Load(existing model.Regional) {
	for _, p := range existing.RegionalPricing {
		if row := e.row(p.Region); row != nil {
			row.Enabled = true
			row.Price = p.RegularPrice
			row.SalePrice = p.SalePrice
		}
	}
	for _, a := range existing.RegionalAvailability {
		if row := e.row(a.Region); row != nil {
			row.Enabled = true
			row.IsAvailable = a.IsAvailable
			row.StockQuantity = a.StockQuantity
		}
	}
	for _, s := range existing.RegionalSeo {
		if row := e.row(s.Region); row != nil {
			row.Enabled = true
			row.MetaTitle = s.MetaTitle
			row.MetaDescription = s.MetaDescription
			row.Keywords = strings.Join(s.Keywords, ", ")
		}
	}
}

// Apply replays submitted rows: values are stored whether or not the row is
// enabled, then the row is toggled to the submitted state.
func (e *Editor) Apply(inputs []model.RegionRowInput) error {
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		code := region.Normalize(in.Region)
		if _, dup := seen[code]; dup {
			return errors.BadRequest(fmt.Sprintf("region %s submitted more than once", code), nil)
		}
		seen[code] = struct{}{}

		row := e.row(code)
		if row == nil {
			return errors.BadRequest(fmt.Sprintf("unsupported region %q", in.Region), nil)
		}
		assign(row, in)
		row.Enabled = in.Enabled
	}
	return nil
}

// Toggle enables or disables a region without touching its values.
func (e *Editor) Toggle(code string, enabled bool) error {
	row := e.row(code)
	if row == nil {
		return errors.BadRequest(fmt.Sprintf("unsupported region %q", code), nil)
	}
	row.Enabled = enabled
	return nil
}

// Set edits the values of an enabled row. A disabled row's fields are not
// editable.
func (e *Editor) Set(code string, in model.RegionRowInput) error {
	row := e.row(code)
	if row == nil {
		return errors.BadRequest(fmt.Sprintf("unsupported region %q", code), nil)
	}
	if !row.Enabled {
		return errors.BadRequest(fmt.Sprintf("region %s is disabled", row.Region.Code), nil)
	}
	assign(row, in)
	return nil
}

func (e *Editor) Row(code string) (Row, bool) {
	row := e.row(code)
	if row == nil {
		return Row{}, false
	}
	return *row, true
}

// Rows returns every row in registry order.
func (e *Editor) Rows() []Row {
	out := make([]Row, 0, len(e.order))
	for _, code := range e.order {
		out = append(out, *e.rows[code])
	}
	return out
}

// EnabledCodes returns the selected regions in registry order.
func (e *Editor) EnabledCodes() []string {
	var codes []string
	for _, code := range e.order {
		if e.rows[code].Enabled {
			codes = append(codes, code)
		}
	}
	return codes
}

// FieldsEditable reports whether the non-checkbox fields of a row accept
// input.
func (e *Editor) FieldsEditable(code string) bool {
	row := e.row(code)
	return row != nil && row.Enabled
}

func (e *Editor) row(code string) *Row {
	return e.rows[region.Normalize(code)]
}

func assign(row *Row, in model.RegionRowInput) {
	row.IsAvailable = in.IsAvailable == nil || *in.IsAvailable
	row.StockQuantity = Int(in.StockQuantity)
	row.Price = Decimal(in.Price)
	row.SalePrice = Decimal(in.SalePrice)
	row.MetaTitle = in.MetaTitle
	row.MetaDescription = in.MetaDescription
	row.Keywords = in.Keywords
}
