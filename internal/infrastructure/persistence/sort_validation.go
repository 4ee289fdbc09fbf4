package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed
// fields. Returns the defaultField if the input is empty or not whitelisted.
// Caller-supplied sort fields reach the SQL ORDER BY clause only through
// this check.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// MedicineSortFields contains allowed sort fields for medicines
var MedicineSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"generic_name": true,
	"brand_name":   true,
	"manufacturer": true,
	"dosage_form":  true,
	"strength":     true,
	"active":       true,
}

// BatchSortFields contains allowed sort fields for stock batches
var BatchSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"medicine_id":   true,
	"batch_number":  true,
	"quantity":      true,
	"unit_cost":     true,
	"selling_price": true,
	"expiry_date":   true,
	"received_date": true,
	"status":        true,
}

// StockItemSortFields contains allowed sort fields for stock records
var StockItemSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"medicine_id":       true,
	"current_stock":     true,
	"min_stock_level":   true,
	"max_stock_level":   true,
	"reorder_level":     true,
	"last_stock_update": true,
}

// TransactionSortFields contains allowed sort fields for ledger entries
var TransactionSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"medicine_id":    true,
	"batch_id":       true,
	"type":           true,
	"quantity":       true,
	"balance_before": true,
	"balance_after":  true,
}

// AlertSortFields contains allowed sort fields for stock alerts
var AlertSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"type":        true,
	"status":      true,
	"medicine_id": true,
	"batch_id":    true,
	"resolved_at": true,
}

// SaleSortFields contains allowed sort fields for sales
var SaleSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"bill_number":    true,
	"patient_id":     true,
	"bill_date":      true,
	"total_amount":   true,
	"paid_amount":    true,
	"payment_status": true,
}
