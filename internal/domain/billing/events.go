package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// Event types published by the billing domain
const (
	EventTypeSaleCreated     = "billing.sale_created"
	EventTypePaymentReceived = "billing.payment_received"
)

// SaleCreatedEvent is published once a bill and its stock movements have
// committed together.
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	BillNumber  string          `json:"bill_number"`
	PatientID   uuid.UUID       `json:"patient_id"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewSaleCreatedEvent creates a sale created event
func NewSaleCreatedEvent(sale *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, "Sale", sale.ID),
		BillNumber:      sale.BillNumber,
		PatientID:       sale.PatientID,
		ItemCount:       len(sale.Items),
		TotalAmount:     sale.TotalAmount,
	}
}

// PaymentReceivedEvent is published when a payment is applied to a bill
type PaymentReceivedEvent struct {
	shared.BaseDomainEvent
	BillNumber    string          `json:"bill_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// NewPaymentReceivedEvent creates a payment received event
func NewPaymentReceivedEvent(sale *Sale, payment *Payment) *PaymentReceivedEvent {
	return &PaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReceived, "Sale", sale.ID),
		BillNumber:      sale.BillNumber,
		PaymentID:       payment.ID,
		Amount:          payment.Amount,
		PaidAmount:      sale.PaidAmount,
		PaymentStatus:   sale.PaymentStatus,
	}
}
