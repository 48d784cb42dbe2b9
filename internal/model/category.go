package model

type Category struct {
	Base
	Name             string  `json:"name"`
	Slug             string  `json:"slug,omitempty"`
	Description      string  `json:"description,omitempty"`
	ParentCategoryID *string `json:"parentCategoryId"`
	IsActive         bool    `json:"isActive"`
	IsGlobalCategory bool    `json:"isGlobalCategory"`
	DisplayOrder     int     `json:"displayOrder"`
	Image            *Image  `json:"image,omitempty"`
	Regional
}

// ParentID returns the parent id or "" for a root category.
func (c Category) ParentID() string {
	if c.ParentCategoryID == nil {
		return ""
	}
	return *c.ParentCategoryID
}

type CategorySaveRequest struct {
	Name             string           `json:"name" binding:"required,max=120"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	ParentCategoryID *string          `json:"parentCategoryId"`
	IsActive         *bool            `json:"isActive"`
	IsGlobalCategory bool             `json:"isGlobalCategory"`
	DisplayOrder     int              `json:"displayOrder"`
	Regions          []RegionRowInput `json:"regions" binding:"dive"`
}

type CategoryPayload struct {
	Name             string  `json:"name"`
	Slug             string  `json:"slug,omitempty"`
	Description      string  `json:"description"`
	ParentCategoryID *string `json:"parentCategoryId"`
	IsActive         bool    `json:"isActive"`
	IsGlobalCategory bool    `json:"isGlobalCategory"`
	DisplayOrder     int     `json:"displayOrder"`
	Regional
}
