package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiveBatchRequest is the input for a stock receipt
type ReceiveBatchRequest struct {
	MedicineID        uuid.UUID
	BatchNumber       string
	Quantity          int64
	UnitCost          decimal.Decimal
	SellingPrice      decimal.Decimal
	ManufacturingDate time.Time
	ExpiryDate        time.Time
	ReceivedDate      time.Time
	Location          string
	MinStockLevel     int64
	MaxStockLevel     int64
	ReorderLevel      int64
	PerformedBy       string
}

// ConsumeRequest is the input for dispensing stock from a batch
type ConsumeRequest struct {
	BatchID       uuid.UUID
	Quantity      int64
	ReferenceID   *uuid.UUID
	ReferenceType string
	PerformedBy   string
}

// WriteOffRequest is the input for removing unsellable stock
type WriteOffRequest struct {
	BatchID     uuid.UUID
	Quantity    int64
	Reason      string
	Notes       string
	PerformedBy string
}

// AdjustStockRequest is the input for a stock correction not tied to a
// single lot.
type AdjustStockRequest struct {
	MedicineID  uuid.UUID
	Quantity    int64
	Direction   string
	Type        string
	Reason      string
	PerformedBy string
}

// UpdateThresholdsRequest changes the reorder configuration of a
// medicine.
type UpdateThresholdsRequest struct {
	MedicineID    uuid.UUID
	MinStockLevel int64
	MaxStockLevel int64
	ReorderLevel  int64
}

// ReplayResult reports the consistency check between the ledger and the
// stored aggregate.
type ReplayResult struct {
	MedicineID    uuid.UUID `json:"medicine_id"`
	LedgerBalance int64     `json:"ledger_balance"`
	StoredStock   int64     `json:"stored_stock"`
	EntryCount    int       `json:"entry_count"`
	Consistent    bool      `json:"consistent"`
}
