package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// Event types published by the inventory domain
const (
	EventTypeStockLevelChanged = "inventory.stock_level_changed"
	EventTypeBatchReceived     = "inventory.batch_received"
	EventTypeBatchWrittenOff   = "inventory.batch_written_off"
	EventTypeBatchRecalled     = "inventory.batch_recalled"
	EventTypeBatchExpired      = "inventory.batch_expired"
	EventTypeAlertRaised       = "inventory.alert_raised"
	EventTypeAlertResolved     = "inventory.alert_resolved"
)

// StockLevelChangedEvent is published whenever the stored stock figure
// of a medicine moves.
type StockLevelChangedEvent struct {
	shared.BaseDomainEvent
	MedicineID   uuid.UUID `json:"medicine_id"`
	Delta        int64     `json:"delta"`
	CurrentStock int64     `json:"current_stock"`
	ReorderLevel int64     `json:"reorder_level"`
}

// NewStockLevelChangedEvent creates a stock level changed event
func NewStockLevelChangedEvent(item *StockItem, delta int64) *StockLevelChangedEvent {
	return &StockLevelChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLevelChanged, "StockItem", item.ID),
		MedicineID:      item.MedicineID,
		Delta:           delta,
		CurrentStock:    item.CurrentStock,
		ReorderLevel:    item.ReorderLevel,
	}
}

// BatchReceivedEvent is published when a new lot enters stock
type BatchReceivedEvent struct {
	shared.BaseDomainEvent
	MedicineID  uuid.UUID `json:"medicine_id"`
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
	Quantity    int64     `json:"quantity"`
	ExpiryDate  time.Time `json:"expiry_date"`
}

// NewBatchReceivedEvent creates a batch received event
func NewBatchReceivedEvent(batch *Batch) *BatchReceivedEvent {
	return &BatchReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchReceived, "Batch", batch.ID),
		MedicineID:      batch.MedicineID,
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		Quantity:        batch.Quantity,
		ExpiryDate:      batch.ExpiryDate,
	}
}

// BatchStatusChangedEvent is published when a batch leaves circulation
// (write-off, recall, expiry sweep).
type BatchStatusChangedEvent struct {
	shared.BaseDomainEvent
	MedicineID  uuid.UUID   `json:"medicine_id"`
	BatchID     uuid.UUID   `json:"batch_id"`
	BatchNumber string      `json:"batch_number"`
	Status      BatchStatus `json:"status"`
	Quantity    int64       `json:"quantity"`
}

// NewBatchStatusChangedEvent creates a batch status changed event
func NewBatchStatusChangedEvent(eventType string, batch *Batch) *BatchStatusChangedEvent {
	return &BatchStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Batch", batch.ID),
		MedicineID:      batch.MedicineID,
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		Status:          batch.Status,
		Quantity:        batch.Quantity,
	}
}

// AlertRaisedEvent is published when a new alert becomes ACTIVE
type AlertRaisedEvent struct {
	shared.BaseDomainEvent
	AlertType  AlertType  `json:"alert_type"`
	MedicineID uuid.UUID  `json:"medicine_id"`
	BatchID    *uuid.UUID `json:"batch_id,omitempty"`
	Message    string     `json:"message"`
}

// NewAlertRaisedEvent creates an alert raised event
func NewAlertRaisedEvent(alert *Alert) *AlertRaisedEvent {
	return &AlertRaisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAlertRaised, "Alert", alert.ID),
		AlertType:       alert.Type,
		MedicineID:      alert.MedicineID,
		BatchID:         alert.BatchID,
		Message:         alert.Message,
	}
}

// AlertResolvedEvent is published when an alert is resolved
type AlertResolvedEvent struct {
	shared.BaseDomainEvent
	AlertType  AlertType  `json:"alert_type"`
	MedicineID uuid.UUID  `json:"medicine_id"`
	BatchID    *uuid.UUID `json:"batch_id,omitempty"`
	ResolvedBy string     `json:"resolved_by"`
}

// NewAlertResolvedEvent creates an alert resolved event
func NewAlertResolvedEvent(alert *Alert) *AlertResolvedEvent {
	return &AlertResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAlertResolved, "Alert", alert.ID),
		AlertType:       alert.Type,
		MedicineID:      alert.MedicineID,
		BatchID:         alert.BatchID,
		ResolvedBy:      alert.ResolvedBy,
	}
}
