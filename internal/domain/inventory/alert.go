package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// AlertType classifies the condition an alert reports
type AlertType string

const (
	AlertTypeLowStock      AlertType = "LOW_STOCK"
	AlertTypeStockOut      AlertType = "STOCK_OUT"
	AlertTypeExpiryWarning AlertType = "EXPIRY_WARNING"
)

// IsValid checks if the alert type is valid
func (t AlertType) IsValid() bool {
	switch t {
	case AlertTypeLowStock, AlertTypeStockOut, AlertTypeExpiryWarning:
		return true
	}
	return false
}

// AlertStatus is the lifecycle state of an alert
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "ACTIVE"
	AlertStatusResolved AlertStatus = "RESOLVED"
)

// Alert is a derived flag raised when a stock or expiry threshold is
// crossed. At most one ACTIVE alert may exist per condition key; a
// resolved alert is never reopened, a fresh row is created instead.
type Alert struct {
	shared.BaseAggregateRoot
	Type       AlertType   `gorm:"type:varchar(20);not null;index"`
	MedicineID uuid.UUID   `gorm:"type:uuid;not null;index"`
	BatchID    *uuid.UUID  `gorm:"type:uuid;index"`
	Status     AlertStatus `gorm:"type:varchar(10);not null;index"`
	Message    string      `gorm:"type:text"`
	ResolvedAt *time.Time
	ResolvedBy string `gorm:"type:varchar(100)"`
	Notes      string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Alert) TableName() string {
	return "stock_alerts"
}

// NewAlert raises a new alert for a condition
func NewAlert(alertType AlertType, medicineID uuid.UUID, batchID *uuid.UUID, message string) (*Alert, error) {
	if !alertType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "invalid alert type")
	}
	if medicineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "medicine id is required")
	}
	if alertType == AlertTypeExpiryWarning && batchID == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "expiry warnings are raised per batch")
	}

	alert := &Alert{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              alertType,
		MedicineID:        medicineID,
		BatchID:           batchID,
		Status:            AlertStatusActive,
		Message:           message,
	}
	alert.AddDomainEvent(NewAlertRaisedEvent(alert))
	return alert, nil
}

// ConditionKey identifies the condition an alert watches. Two alerts
// with the same key describe the same underlying problem.
func (a *Alert) ConditionKey() string {
	if a.BatchID != nil {
		return fmt.Sprintf("%s:%s:%s", a.Type, a.MedicineID, a.BatchID)
	}
	return fmt.Sprintf("%s:%s", a.Type, a.MedicineID)
}

// Resolve closes the alert. Staff resolution records who and why;
// automatic resolution passes the system actor.
func (a *Alert) Resolve(resolvedBy, notes string) error {
	if a.Status == AlertStatusResolved {
		return shared.NewDomainError("CONFLICT", "alert is already resolved")
	}
	if resolvedBy == "" {
		return shared.NewDomainError("INVALID_INPUT", "resolved by is required")
	}
	now := time.Now()
	a.Status = AlertStatusResolved
	a.ResolvedAt = &now
	a.ResolvedBy = resolvedBy
	a.Notes = notes
	a.AddDomainEvent(NewAlertResolvedEvent(a))
	return nil
}

// IsActive reports whether the alert still needs attention
func (a *Alert) IsActive() bool {
	return a.Status == AlertStatusActive
}
