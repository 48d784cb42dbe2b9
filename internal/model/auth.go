package model

import (
	"github.com/golang-jwt/jwt/v5"
)

// Admin modules a sub-admin can be granted.
const (
	ModuleProducts   = "products"
	ModuleCategories = "categories"
)

// AdminClaims mirrors the admin user record the backend signs into its tokens.
type AdminClaims struct {
	jwt.RegisteredClaims
	UserID       string   `json:"userId"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	IsSuperAdmin bool     `json:"isSuperAdmin"`
	Modules      []string `json:"modules"`
}

// CanAccess reports whether the admin may use the given module. Super admins
// and routes without a module are always allowed.
func (c *AdminClaims) CanAccess(module string) bool {
	if module == "" || c.IsSuperAdmin {
		return true
	}
	for _, m := range c.Modules {
		if m == module {
			return true
		}
	}
	return false
}
