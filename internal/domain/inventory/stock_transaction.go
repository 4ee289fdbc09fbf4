package inventory

import (
	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// TransactionType classifies what caused a stock movement
type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "PURCHASE"
	TransactionTypeSale       TransactionType = "SALE"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
	TransactionTypeExpired    TransactionType = "EXPIRED"
	TransactionTypeDamaged    TransactionType = "DAMAGED"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeSale, TransactionTypeAdjustment,
		TransactionTypeExpired, TransactionTypeDamaged, TransactionTypeTransfer:
		return true
	}
	return false
}

// TransactionDirection is the sign of a stock movement. Most types imply
// a direction; ADJUSTMENT and TRANSFER carry either.
type TransactionDirection string

const (
	DirectionIn  TransactionDirection = "IN"
	DirectionOut TransactionDirection = "OUT"
)

// ImpliedDirection returns the direction a type forces, or "" when the
// caller must supply one.
func (t TransactionType) ImpliedDirection() TransactionDirection {
	switch t {
	case TransactionTypePurchase:
		return DirectionIn
	case TransactionTypeSale, TransactionTypeExpired, TransactionTypeDamaged:
		return DirectionOut
	}
	return ""
}

// StockTransaction is one immutable entry of the stock ledger. Rows are
// only ever inserted; the aggregate's currentStock must stay derivable
// by replaying them from zero.
type StockTransaction struct {
	shared.BaseEntity
	InventoryID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	MedicineID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	BatchID       *uuid.UUID           `gorm:"type:uuid;index"`
	Type          TransactionType      `gorm:"type:varchar(20);not null;index"`
	Direction     TransactionDirection `gorm:"type:varchar(5);not null"`
	Quantity      int64                `gorm:"not null"`
	BalanceBefore int64                `gorm:"not null"`
	BalanceAfter  int64                `gorm:"not null"`
	ReferenceID   *uuid.UUID           `gorm:"type:uuid;index"`
	ReferenceType string               `gorm:"type:varchar(50)"`
	PerformedBy   string               `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (StockTransaction) TableName() string {
	return "stock_transactions"
}

// NewStockTransaction builds a ledger entry. Quantity is always stored
// positive; direction carries the sign.
func NewStockTransaction(inventoryID, medicineID uuid.UUID, batchID *uuid.UUID, txType TransactionType, direction TransactionDirection, quantity, balanceBefore int64, referenceID *uuid.UUID, referenceType, performedBy string) (*StockTransaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "invalid transaction type")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "transaction quantity must be positive")
	}
	if performedBy == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "performed by is required")
	}

	if implied := txType.ImpliedDirection(); implied != "" {
		direction = implied
	} else if direction != DirectionIn && direction != DirectionOut {
		return nil, shared.NewDomainError("INVALID_INPUT", "direction is required for this transaction type")
	}

	balanceAfter := balanceBefore
	if direction == DirectionIn {
		balanceAfter += quantity
	} else {
		balanceAfter -= quantity
	}
	if balanceAfter < 0 {
		return nil, shared.NewDomainError("INVARIANT_VIOLATION", "ledger entry would take stock below zero")
	}

	return &StockTransaction{
		BaseEntity:    shared.NewBaseEntity(),
		InventoryID:   inventoryID,
		MedicineID:    medicineID,
		BatchID:       batchID,
		Type:          txType,
		Direction:     direction,
		Quantity:      quantity,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		ReferenceID:   referenceID,
		ReferenceType: referenceType,
		PerformedBy:   performedBy,
	}, nil
}

// SignedQuantity returns the quantity with the direction applied
func (t *StockTransaction) SignedQuantity() int64 {
	if t.Direction == DirectionIn {
		return t.Quantity
	}
	return -t.Quantity
}

// Replay folds a transaction sequence into the stock level it implies,
// starting from zero. Used as a consistency check against the stored
// aggregate.
func Replay(transactions []*StockTransaction) int64 {
	var total int64
	for _, tx := range transactions {
		total += tx.SignedQuantity()
	}
	return total
}
