package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItemRequest is one requested line of a bill. BatchID pins a
// specific lot; when nil the soonest expiring eligible batch is chosen.
type SaleItemRequest struct {
	MedicineID  uuid.UUID
	BatchID     *uuid.UUID
	Quantity    int64
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxPct      decimal.Decimal
}

// CreateSaleRequest is the input for creating a bill
type CreateSaleRequest struct {
	PatientID      uuid.UUID
	PrescriptionID *uuid.UUID
	Items          []SaleItemRequest
	Notes          string
	GeneratedBy    string
}

// ApplyPaymentRequest is the input for settling part of a bill
type ApplyPaymentRequest struct {
	SaleID      uuid.UUID
	Amount      decimal.Decimal
	Method      string
	Reference   string
	ProcessedBy string
}
