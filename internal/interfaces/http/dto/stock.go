package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/hms/pharmacy/internal/application/inventory"
	"github.com/hms/pharmacy/internal/domain/inventory"
)

// ReceiveBatchRequest records a stock receipt
type ReceiveBatchRequest struct {
	MedicineID        uuid.UUID       `json:"medicine_id" binding:"required"`
	BatchNumber       string          `json:"batch_number" binding:"required,max=100"`
	Quantity          int64           `json:"quantity" binding:"required,gt=0"`
	UnitCost          decimal.Decimal `json:"unit_cost" binding:"dgte0"`
	SellingPrice      decimal.Decimal `json:"selling_price" binding:"dgte0"`
	ManufacturingDate time.Time       `json:"manufacturing_date" binding:"required"`
	ExpiryDate        time.Time       `json:"expiry_date" binding:"required"`
	ReceivedDate      time.Time       `json:"received_date"`
	Location          string          `json:"location" binding:"max=100"`
	MinStockLevel     int64           `json:"min_stock_level" binding:"min=0"`
	MaxStockLevel     int64           `json:"max_stock_level" binding:"min=0"`
	ReorderLevel      int64           `json:"reorder_level" binding:"min=0"`
}

// ToApplication converts the request to the application layer input
func (r ReceiveBatchRequest) ToApplication(performedBy string) appinventory.ReceiveBatchRequest {
	return appinventory.ReceiveBatchRequest{
		MedicineID:        r.MedicineID,
		BatchNumber:       r.BatchNumber,
		Quantity:          r.Quantity,
		UnitCost:          r.UnitCost,
		SellingPrice:      r.SellingPrice,
		ManufacturingDate: r.ManufacturingDate,
		ExpiryDate:        r.ExpiryDate,
		ReceivedDate:      r.ReceivedDate,
		Location:          r.Location,
		MinStockLevel:     r.MinStockLevel,
		MaxStockLevel:     r.MaxStockLevel,
		ReorderLevel:      r.ReorderLevel,
		PerformedBy:       performedBy,
	}
}

// ConsumeStockRequest dispenses stock from a specific batch
type ConsumeStockRequest struct {
	BatchID       uuid.UUID  `json:"batch_id" binding:"required"`
	Quantity      int64      `json:"quantity" binding:"required,gt=0"`
	ReferenceID   *uuid.UUID `json:"reference_id"`
	ReferenceType string     `json:"reference_type" binding:"max=50"`
}

// ToApplication converts the request to the application layer input
func (r ConsumeStockRequest) ToApplication(performedBy string) appinventory.ConsumeRequest {
	return appinventory.ConsumeRequest{
		BatchID:       r.BatchID,
		Quantity:      r.Quantity,
		ReferenceID:   r.ReferenceID,
		ReferenceType: r.ReferenceType,
		PerformedBy:   performedBy,
	}
}

// WriteOffStockRequest removes unsellable stock from a batch
type WriteOffStockRequest struct {
	BatchID  uuid.UUID `json:"batch_id" binding:"required"`
	Quantity int64     `json:"quantity" binding:"required,gt=0"`
	Reason   string    `json:"reason" binding:"required,oneof=EXPIRED DAMAGED"`
	Notes    string    `json:"notes"`
}

// ToApplication converts the request to the application layer input
func (r WriteOffStockRequest) ToApplication(performedBy string) appinventory.WriteOffRequest {
	return appinventory.WriteOffRequest{
		BatchID:     r.BatchID,
		Quantity:    r.Quantity,
		Reason:      r.Reason,
		Notes:       r.Notes,
		PerformedBy: performedBy,
	}
}

// AdjustStockRequest corrects the stock level of a medicine outside the
// batch lifecycle, for example after a physical count.
type AdjustStockRequest struct {
	MedicineID uuid.UUID `json:"medicine_id" binding:"required"`
	Quantity   int64     `json:"quantity" binding:"required,gt=0"`
	Direction  string    `json:"direction" binding:"required,oneof=IN OUT"`
	Reason     string    `json:"reason" binding:"required"`
}

// ToApplication converts the request to the application layer input
func (r AdjustStockRequest) ToApplication(performedBy string) appinventory.AdjustStockRequest {
	return appinventory.AdjustStockRequest{
		MedicineID:  r.MedicineID,
		Quantity:    r.Quantity,
		Direction:   r.Direction,
		Reason:      r.Reason,
		PerformedBy: performedBy,
	}
}

// UpdateThresholdsRequest changes the reorder configuration of a
// medicine.
type UpdateThresholdsRequest struct {
	MinStockLevel int64 `json:"min_stock_level" binding:"min=0"`
	MaxStockLevel int64 `json:"max_stock_level" binding:"min=0"`
	ReorderLevel  int64 `json:"reorder_level" binding:"min=0"`
}

// ResolveAlertRequest manually resolves an active alert
type ResolveAlertRequest struct {
	Notes string `json:"notes"`
}

// ListStockRequest holds stock level listing filters
type ListStockRequest struct {
	ListRequest
	MedicineID   *uuid.UUID `form:"medicine_id"`
	BelowReorder bool       `form:"below_reorder"`
	OutOfStock   bool       `form:"out_of_stock"`
}

// ToFilter converts the request to a domain filter
func (r ListStockRequest) ToFilter() inventory.StockItemFilter {
	return inventory.StockItemFilter{
		MedicineID:   r.MedicineID,
		BelowReorder: r.BelowReorder,
		OutOfStock:   r.OutOfStock,
	}
}

// ListBatchesRequest holds batch listing filters
type ListBatchesRequest struct {
	ListRequest
	MedicineID   *uuid.UUID `form:"medicine_id"`
	Status       string     `form:"status" binding:"omitempty,oneof=AVAILABLE OUT_OF_STOCK EXPIRED DAMAGED RECALLED"`
	BatchNumber  string     `form:"batch_number"`
	ExpiryBefore *time.Time `form:"expiry_before" time_format:"2006-01-02"`
	ExpiryAfter  *time.Time `form:"expiry_after" time_format:"2006-01-02"`
}

// ToFilter converts the request to a domain filter
func (r ListBatchesRequest) ToFilter() inventory.BatchFilter {
	filter := inventory.BatchFilter{
		MedicineID:   r.MedicineID,
		BatchNumber:  r.BatchNumber,
		ExpiryBefore: r.ExpiryBefore,
		ExpiryAfter:  r.ExpiryAfter,
	}
	if r.Status != "" {
		status := inventory.BatchStatus(r.Status)
		filter.Status = &status
	}
	return filter
}

// ListTransactionsRequest holds ledger listing filters
type ListTransactionsRequest struct {
	ListRequest
	MedicineID *uuid.UUID `form:"medicine_id"`
	BatchID    *uuid.UUID `form:"batch_id"`
	Type       string     `form:"type" binding:"omitempty,oneof=PURCHASE SALE ADJUSTMENT EXPIRED DAMAGED TRANSFER"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
}

// ToFilter converts the request to a domain filter
func (r ListTransactionsRequest) ToFilter() inventory.TransactionFilter {
	filter := inventory.TransactionFilter{
		MedicineID: r.MedicineID,
		BatchID:    r.BatchID,
		From:       r.From,
		To:         r.To,
	}
	if r.Type != "" {
		txType := inventory.TransactionType(r.Type)
		filter.Type = &txType
	}
	return filter
}

// ListAlertsRequest holds alert listing filters
type ListAlertsRequest struct {
	ListRequest
	MedicineID *uuid.UUID `form:"medicine_id"`
	Type       string     `form:"type" binding:"omitempty,oneof=LOW_STOCK STOCK_OUT EXPIRY_WARNING"`
	Status     string     `form:"status" binding:"omitempty,oneof=ACTIVE RESOLVED"`
}

// ToFilter converts the request to a domain filter
func (r ListAlertsRequest) ToFilter() inventory.AlertFilter {
	filter := inventory.AlertFilter{MedicineID: r.MedicineID}
	if r.Type != "" {
		alertType := inventory.AlertType(r.Type)
		filter.Type = &alertType
	}
	if r.Status != "" {
		status := inventory.AlertStatus(r.Status)
		filter.Status = &status
	}
	return filter
}

// BatchResponse is the API shape of a stock batch
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	MedicineID        uuid.UUID       `json:"medicine_id"`
	BatchNumber       string          `json:"batch_number"`
	Quantity          int64           `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	ManufacturingDate time.Time       `json:"manufacturing_date"`
	ExpiryDate        time.Time       `json:"expiry_date"`
	ReceivedDate      time.Time       `json:"received_date"`
	Status            string          `json:"status"`
	Location          string          `json:"location,omitempty"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// FromBatch converts a batch to its API shape
func FromBatch(b *inventory.Batch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		MedicineID:        b.MedicineID,
		BatchNumber:       b.BatchNumber,
		Quantity:          b.Quantity,
		UnitCost:          b.UnitCost,
		SellingPrice:      b.SellingPrice,
		ManufacturingDate: b.ManufacturingDate,
		ExpiryDate:        b.ExpiryDate,
		ReceivedDate:      b.ReceivedDate,
		Status:            string(b.Status),
		Location:          b.Location,
		Version:           b.Version,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// FromBatches converts a list of batches
func FromBatches(batches []*inventory.Batch) []BatchResponse {
	out := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, FromBatch(b))
	}
	return out
}

// StockItemResponse is the API shape of a stock level
type StockItemResponse struct {
	ID              uuid.UUID `json:"id"`
	MedicineID      uuid.UUID `json:"medicine_id"`
	CurrentStock    int64     `json:"current_stock"`
	MinStockLevel   int64     `json:"min_stock_level"`
	MaxStockLevel   int64     `json:"max_stock_level"`
	ReorderLevel    int64     `json:"reorder_level"`
	LastStockUpdate time.Time `json:"last_stock_update"`
	Version         int       `json:"version"`
}

// FromStockItem converts a stock level to its API shape
func FromStockItem(item *inventory.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:              item.ID,
		MedicineID:      item.MedicineID,
		CurrentStock:    item.CurrentStock,
		MinStockLevel:   item.MinStockLevel,
		MaxStockLevel:   item.MaxStockLevel,
		ReorderLevel:    item.ReorderLevel,
		LastStockUpdate: item.LastStockUpdate,
		Version:         item.Version,
	}
}

// FromStockItems converts a list of stock levels
func FromStockItems(items []*inventory.StockItem) []StockItemResponse {
	out := make([]StockItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FromStockItem(item))
	}
	return out
}

// TransactionResponse is the API shape of a ledger entry
type TransactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	InventoryID   uuid.UUID  `json:"inventory_id"`
	MedicineID    uuid.UUID  `json:"medicine_id"`
	BatchID       *uuid.UUID `json:"batch_id,omitempty"`
	Type          string     `json:"type"`
	Direction     string     `json:"direction"`
	Quantity      int64      `json:"quantity"`
	BalanceBefore int64      `json:"balance_before"`
	BalanceAfter  int64      `json:"balance_after"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty"`
	ReferenceType string     `json:"reference_type,omitempty"`
	PerformedBy   string     `json:"performed_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FromTransaction converts a ledger entry to its API shape
func FromTransaction(tx *inventory.StockTransaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		InventoryID:   tx.InventoryID,
		MedicineID:    tx.MedicineID,
		BatchID:       tx.BatchID,
		Type:          string(tx.Type),
		Direction:     string(tx.Direction),
		Quantity:      tx.Quantity,
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
		ReferenceID:   tx.ReferenceID,
		ReferenceType: tx.ReferenceType,
		PerformedBy:   tx.PerformedBy,
		CreatedAt:     tx.CreatedAt,
	}
}

// FromTransactions converts a list of ledger entries
func FromTransactions(txs []*inventory.StockTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, FromTransaction(tx))
	}
	return out
}

// AlertResponse is the API shape of a stock alert
type AlertResponse struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	MedicineID uuid.UUID  `json:"medicine_id"`
	BatchID    *uuid.UUID `json:"batch_id,omitempty"`
	Status     string     `json:"status"`
	Message    string     `json:"message,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// FromAlert converts an alert to its API shape
func FromAlert(a *inventory.Alert) AlertResponse {
	return AlertResponse{
		ID:         a.ID,
		Type:       string(a.Type),
		MedicineID: a.MedicineID,
		BatchID:    a.BatchID,
		Status:     string(a.Status),
		Message:    a.Message,
		ResolvedAt: a.ResolvedAt,
		ResolvedBy: a.ResolvedBy,
		Notes:      a.Notes,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// FromAlerts converts a list of alerts
func FromAlerts(alerts []*inventory.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, FromAlert(a))
	}
	return out
}

// SweepResponse reports the outcome of an expiry maintenance run
type SweepResponse struct {
	Affected int `json:"affected"`
}
