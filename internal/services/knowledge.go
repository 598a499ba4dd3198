package services

import "github.com/inawohq/inawo-backend/internal/models"

// VendorContext is everything the AI needs to know about one vendor
type VendorContext struct {
	BusinessName string
	Category     string
	Knowledge    string
	OutOfStock   string
}

// VendorKnowledge resolves a vendor's product knowledge for prompt injection.
// Pure read; missing fields degrade to empty strings, never errors.
func VendorKnowledge(vendor *models.Vendor) VendorContext {
	if vendor == nil {
		return VendorContext{BusinessName: "Inawo Assistant", Category: "General"}
	}

	ctx := VendorContext{
		BusinessName: vendor.BusinessName,
		Category:     vendor.Category,
		Knowledge:    vendor.KnowledgeBaseText,
		OutOfStock:   vendor.OutOfStockItems,
	}
	if ctx.BusinessName == "" {
		ctx.BusinessName = "Inawo Assistant"
	}
	if ctx.Category == "" {
		ctx.Category = "General"
	}
	return ctx
}
