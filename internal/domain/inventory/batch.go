package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// BatchStatus represents the lifecycle state of a stock batch
type BatchStatus string

const (
	BatchStatusAvailable  BatchStatus = "AVAILABLE"
	BatchStatusOutOfStock BatchStatus = "OUT_OF_STOCK"
	BatchStatusExpired    BatchStatus = "EXPIRED"
	BatchStatusDamaged    BatchStatus = "DAMAGED"
	BatchStatusRecalled   BatchStatus = "RECALLED"
)

// IsValid checks if the batch status is valid
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusAvailable, BatchStatusOutOfStock, BatchStatusExpired, BatchStatusDamaged, BatchStatusRecalled:
		return true
	}
	return false
}

// IsTerminal reports whether the status removes the batch from stock
// counting and dispensing permanently.
func (s BatchStatus) IsTerminal() bool {
	switch s {
	case BatchStatusExpired, BatchStatusDamaged, BatchStatusRecalled:
		return true
	}
	return false
}

// Batch is one dated lot of a medicine. A batch is never deleted, only
// status-transitioned, so the transaction ledger always has a row to
// point at.
type Batch struct {
	shared.BaseAggregateRoot
	MedicineID        uuid.UUID       `gorm:"type:uuid;not null;index;index:idx_batches_medicine_number,unique,priority:1"`
	BatchNumber       string          `gorm:"type:varchar(100);not null;index:idx_batches_medicine_number,unique,priority:2"`
	Quantity          int64           `gorm:"not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SellingPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ManufacturingDate time.Time       `gorm:"not null"`
	ExpiryDate        time.Time       `gorm:"not null;index"`
	ReceivedDate      time.Time       `gorm:"not null"`
	Status            BatchStatus     `gorm:"type:varchar(20);not null;index"`
	Location          string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (Batch) TableName() string {
	return "stock_batches"
}

// NewBatch creates a batch from a stock receipt
func NewBatch(medicineID uuid.UUID, batchNumber string, quantity int64, unitCost, sellingPrice decimal.Decimal, manufacturingDate, expiryDate, receivedDate time.Time, location string) (*Batch, error) {
	batchNumber = strings.TrimSpace(batchNumber)
	if medicineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "medicine id is required")
	}
	if batchNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "batch number is required")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "received quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unit cost cannot be negative")
	}
	if sellingPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "selling price cannot be negative")
	}
	if !expiryDate.After(manufacturingDate) {
		return nil, shared.NewDomainError("INVALID_INPUT", "expiry date must be after manufacturing date")
	}

	return &Batch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MedicineID:        medicineID,
		BatchNumber:       batchNumber,
		Quantity:          quantity,
		UnitCost:          unitCost,
		SellingPrice:      sellingPrice,
		ManufacturingDate: manufacturingDate,
		ExpiryDate:        expiryDate,
		ReceivedDate:      receivedDate,
		Status:            BatchStatusAvailable,
		Location:          location,
	}, nil
}

// Consume removes units from the batch for dispensing. The caller is
// responsible for running this inside the same atomic unit as the
// aggregate decrement and ledger append.
func (b *Batch) Consume(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "consume quantity must be positive")
	}
	if b.Status != BatchStatusAvailable {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("batch %s is %s and cannot be dispensed", b.BatchNumber, b.Status))
	}
	if b.Quantity < quantity {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("batch %s holds %d units, requested %d", b.BatchNumber, b.Quantity, quantity))
	}

	b.Quantity -= quantity
	if b.Quantity == 0 {
		b.Status = BatchStatusOutOfStock
	}
	return nil
}

// WriteOff removes units that are no longer sellable. A full write-off
// moves the batch into the terminal state for the given reason; a
// partial write-off leaves the remainder dispensable.
func (b *Batch) WriteOff(quantity int64, reason TransactionType) error {
	if reason != TransactionTypeExpired && reason != TransactionTypeDamaged {
		return shared.NewDomainError("INVALID_INPUT", "write-off reason must be EXPIRED or DAMAGED")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "write-off quantity must be positive")
	}
	if b.Status != BatchStatusAvailable {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("batch %s is %s and cannot be written off", b.BatchNumber, b.Status))
	}
	if b.Quantity < quantity {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("batch %s holds %d units, requested write-off of %d", b.BatchNumber, b.Quantity, quantity))
	}

	b.Quantity -= quantity
	if b.Quantity == 0 {
		if reason == TransactionTypeExpired {
			b.Status = BatchStatusExpired
		} else {
			b.Status = BatchStatusDamaged
		}
	}
	return nil
}

// Recall pulls the batch from circulation regardless of remaining
// quantity. Recalled units stay on the row for traceability but are
// never counted as stock again.
func (b *Batch) Recall() error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("batch %s is already %s", b.BatchNumber, b.Status))
	}
	b.Status = BatchStatusRecalled
	return nil
}

// MarkExpired transitions a batch whose expiry date has passed. Used by
// the periodic expiry sweep.
func (b *Batch) MarkExpired(now time.Time) error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("batch %s is already %s", b.BatchNumber, b.Status))
	}
	if now.Before(b.ExpiryDate) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("batch %s does not expire until %s", b.BatchNumber, b.ExpiryDate.Format("2006-01-02")))
	}
	b.Status = BatchStatusExpired
	return nil
}

// IsExpired checks whether the expiry date has passed
func (b *Batch) IsExpired(now time.Time) bool {
	return !now.Before(b.ExpiryDate)
}

// WillExpireWithin checks whether the batch expires inside the horizon
func (b *Batch) WillExpireWithin(now time.Time, days int) bool {
	return !b.ExpiryDate.After(now.AddDate(0, 0, days))
}

// IsDispensable reports whether the batch can satisfy an unpinned
// consumption right now.
func (b *Batch) IsDispensable(now time.Time) bool {
	return b.Status == BatchStatusAvailable && b.Quantity > 0 && !b.IsExpired(now)
}

// CountsTowardStock reports whether the batch's quantity contributes to
// the medicine's aggregate stock figure.
func (b *Batch) CountsTowardStock() bool {
	return !b.Status.IsTerminal()
}
