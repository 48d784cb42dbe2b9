package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as JSON numbers, like the backend sends it.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base contains the fields every backend entity carries
type Base struct {
	ID        string     `json:"id"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// ListQuery is the filter/sort/page set accepted by list endpoints
type ListQuery struct {
	Search     string `form:"search"`
	Status     string `form:"status"`
	CategoryID string `form:"categoryId"`
	Sort       string `form:"sort"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// FormValue is a raw admin-entered field. It accepts JSON strings, numbers and
// null so that whatever the console typed reaches the coercion step intact.
type FormValue string

func (v *FormValue) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = FormValue(s)
		return nil
	}
	*v = FormValue(raw)
	return nil
}

func (v FormValue) String() string {
	return strings.TrimSpace(string(v))
}
