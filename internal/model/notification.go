package model

// LowStockAlert lists the regions of one product at or below the threshold.
type LowStockAlert struct {
	ProductID   string
	ProductName string
	Threshold   int
	Regions     []RegionalAvailability
}

// Catalog event types published on the events channel.
const (
	EventProductSaved    = "product.saved"
	EventProductDeleted  = "product.deleted"
	EventCategorySaved   = "category.saved"
	EventCategoryDeleted = "category.deleted"
)
