package store

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/pkg/httputil"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query filters, sorts and pages an in-memory listing.
type Query struct {
	Search     string
	Status     string
	CategoryID string
	Region     string
	Sort       string
	Page       int
	Limit      int
}

func QueryFrom(q model.ListQuery, region string) Query {
	return Query{
		Search:     q.Search,
		Status:     q.Status,
		CategoryID: q.CategoryID,
		Region:     region,
		Sort:       q.Sort,
		Page:       q.Page,
		Limit:      q.Limit,
	}
}

func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	return q
}

// Paginate slices one page out of items.
func Paginate[T any](items []T, page, limit int) ([]T, httputil.Pagination) {
	p := httputil.NewPagination(page, limit, len(items))
	start := (p.Page - 1) * p.Limit
	if start >= len(items) {
		return []T{}, p
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], p
}

func QueryProducts(items []model.Product, q Query) ([]model.Product, httputil.Pagination) {
	q = q.normalized()

	out := make([]model.Product, 0, len(items))
	for _, p := range items {
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Name), q.Search) &&
			!strings.Contains(strings.ToLower(p.Description), q.Search) {
			continue
		}
		if q.Status != "" && string(p.Status) != q.Status {
			continue
		}
		if q.CategoryID != "" && p.CategoryID != q.CategoryID {
			continue
		}
		if q.Region != "" && !p.IsGlobalProduct && !availableIn(p.Regional, q.Region) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case "name":
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	case "-name":
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) > strings.ToLower(out[j].Name) })
	case "price":
		sort.SliceStable(out, func(i, j int) bool { return finalOf(out[i]).LessThan(finalOf(out[j])) })
	case "-price":
		sort.SliceStable(out, func(i, j int) bool { return finalOf(out[i]).GreaterThan(finalOf(out[j])) })
	case "newest":
		sort.SliceStable(out, func(i, j int) bool { return newer(out[i].Base, out[j].Base) })
	}

	return Paginate(out, q.Page, q.Limit)
}

func QueryCategories(items []model.Category, q Query) ([]model.Category, httputil.Pagination) {
	q = q.normalized()

	out := make([]model.Category, 0, len(items))
	for _, c := range items {
		if q.Search != "" && !strings.Contains(strings.ToLower(c.Name), q.Search) &&
			!strings.Contains(strings.ToLower(c.Slug), q.Search) {
			continue
		}
		switch q.Status {
		case "active":
			if !c.IsActive {
				continue
			}
		case "inactive":
			if c.IsActive {
				continue
			}
		}
		if q.CategoryID != "" && c.ParentID() != q.CategoryID {
			continue
		}
		if q.Region != "" && !c.IsGlobalCategory && !availableIn(c.Regional, q.Region) {
			continue
		}
		out = append(out, c)
	}

	switch q.Sort {
	case "name":
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	case "-name":
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) > strings.ToLower(out[j].Name) })
	case "order":
		sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	case "newest":
		sort.SliceStable(out, func(i, j int) bool { return newer(out[i].Base, out[j].Base) })
	}

	return Paginate(out, q.Page, q.Limit)
}

func availableIn(r model.Regional, region string) bool {
	for _, a := range r.RegionalAvailability {
		if strings.EqualFold(a.Region, region) && a.IsAvailable {
			return true
		}
	}
	return false
}

func finalOf(p model.Product) decimal.Decimal {
	return model.FinalPrice(p.RegularPrice, p.SalePrice)
}

func newer(a, b model.Base) bool {
	switch {
	case a.CreatedAt == nil:
		return false
	case b.CreatedAt == nil:
		return true
	default:
		return a.CreatedAt.After(*b.CreatedAt)
	}
}
