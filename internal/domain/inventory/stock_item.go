package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// StockItem is the per-medicine stock aggregate. CurrentStock is a
// stored projection of the batch quantities and the transaction ledger,
// kept in the same atomic unit as every ledger append so threshold
// checks stay cheap.
type StockItem struct {
	shared.BaseAggregateRoot
	MedicineID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CurrentStock    int64     `gorm:"not null;default:0"`
	MinStockLevel   int64     `gorm:"not null;default:0"`
	MaxStockLevel   int64     `gorm:"not null;default:0"`
	ReorderLevel    int64     `gorm:"not null;default:0"`
	LastStockUpdate time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockItem) TableName() string {
	return "stock_items"
}

// NewStockItem creates the stock aggregate for a medicine. Called lazily
// on first batch receipt.
func NewStockItem(medicineID uuid.UUID, minStockLevel, maxStockLevel, reorderLevel int64) (*StockItem, error) {
	if medicineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "medicine id is required")
	}
	if minStockLevel < 0 || maxStockLevel < 0 || reorderLevel < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "stock levels cannot be negative")
	}
	if maxStockLevel > 0 && reorderLevel > maxStockLevel {
		return nil, shared.NewDomainError("INVALID_INPUT", "reorder level cannot exceed max stock level")
	}

	return &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MedicineID:        medicineID,
		CurrentStock:      0,
		MinStockLevel:     minStockLevel,
		MaxStockLevel:     maxStockLevel,
		ReorderLevel:      reorderLevel,
		LastStockUpdate:   time.Now(),
	}, nil
}

// ApplyDelta moves the stored stock figure by a signed amount. The batch
// checks run first, so a negative result here means the projection and
// the ledger disagree.
func (s *StockItem) ApplyDelta(delta int64) error {
	next := s.CurrentStock + delta
	if next < 0 {
		return shared.NewDomainError("INVARIANT_VIOLATION",
			fmt.Sprintf("stock for medicine %s would go negative: %d%+d", s.MedicineID, s.CurrentStock, delta))
	}
	s.CurrentStock = next
	s.LastStockUpdate = time.Now()
	s.AddDomainEvent(NewStockLevelChangedEvent(s, delta))
	return nil
}

// UpdateThresholds changes the reorder configuration
func (s *StockItem) UpdateThresholds(minStockLevel, maxStockLevel, reorderLevel int64) error {
	if minStockLevel < 0 || maxStockLevel < 0 || reorderLevel < 0 {
		return shared.NewDomainError("INVALID_INPUT", "stock levels cannot be negative")
	}
	if maxStockLevel > 0 && reorderLevel > maxStockLevel {
		return shared.NewDomainError("INVALID_INPUT", "reorder level cannot exceed max stock level")
	}
	s.MinStockLevel = minStockLevel
	s.MaxStockLevel = maxStockLevel
	s.ReorderLevel = reorderLevel
	return nil
}

// IsOutOfStock reports whether no stock remains
func (s *StockItem) IsOutOfStock() bool {
	return s.CurrentStock == 0
}

// IsLowStock reports whether stock sits at or below the reorder level
// without being fully out.
func (s *StockItem) IsLowStock() bool {
	return s.CurrentStock > 0 && s.CurrentStock <= s.ReorderLevel
}
