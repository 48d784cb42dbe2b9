package model

import "github.com/shopspring/decimal"

// Plan is an installment schedule offered for a product.
type Plan struct {
	Name          string          `json:"name"`
	Days          int             `json:"days"`
	PerDayAmount  decimal.Decimal `json:"perDayAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	IsRecommended bool            `json:"isRecommended"`
	IsLocked      bool            `json:"isLocked"`
}

type CalculateRequest struct {
	RegularPrice decimal.Decimal `json:"regularPrice"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	Plans        []Plan          `json:"plans" binding:"required,min=1"`
}

type CalculateResponse struct {
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
	Plans          []Plan          `json:"plans"`
}

type ValidatePlansRequest struct {
	Plans []Plan `json:"plans"`
}
