package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// PaymentStatus reflects how much of a bill has been settled
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

var hundred = decimal.NewFromInt(100)

// ComputePaymentStatus derives the payment status from amounts alone, so
// it comes out identical regardless of payment ordering. Overpayment is
// accepted and reads as PAID with a credit balance.
func ComputePaymentStatus(paidAmount, totalAmount decimal.Decimal) PaymentStatus {
	switch {
	case paidAmount.IsZero():
		return PaymentStatusPending
	case paidAmount.LessThan(totalAmount):
		return PaymentStatusPartial
	default:
		return PaymentStatusPaid
	}
}

// LineItem is one batch-backed line of a bill. Each line draws from
// exactly one batch and is bound to the ledger entry that decremented
// it.
type LineItem struct {
	shared.BaseEntity
	SaleID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	MedicineID     uuid.UUID       `gorm:"type:uuid;not null"`
	BatchID        uuid.UUID       `gorm:"type:uuid;not null"`
	TransactionID  *uuid.UUID      `gorm:"type:uuid"`
	Quantity       int64           `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountPct    decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	TaxPct         decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (LineItem) TableName() string {
	return "sale_items"
}

// Payment is one settlement against a bill. Append-only; the sale's
// paidAmount is the sum of its payments.
type Payment struct {
	shared.BaseEntity
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method      string          `gorm:"type:varchar(50);not null"`
	PaymentDate time.Time       `gorm:"not null"`
	Reference   string          `gorm:"type:varchar(100)"`
	ProcessedBy string          `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "sale_payments"
}

// Sale is a point-of-sale bill. It is created atomically with its items
// and the stock movements they caused, and once created is corrected
// only through compensating operations, never mutated.
type Sale struct {
	shared.BaseAggregateRoot
	BillNumber     string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	PatientID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PrescriptionID *uuid.UUID      `gorm:"type:uuid"`
	BillDate       time.Time       `gorm:"not null"`
	Items          []LineItem      `gorm:"foreignKey:SaleID"`
	Payments       []Payment       `gorm:"foreignKey:SaleID"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentStatus  PaymentStatus   `gorm:"type:varchar(10);not null;index"`
	GeneratedBy    string          `gorm:"type:varchar(100);not null"`
	Notes          string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// NewSale starts an empty bill. Items are added before the sale is
// persisted; the bill number is assigned inside the same atomic unit
// that persists everything.
func NewSale(patientID uuid.UUID, prescriptionID *uuid.UUID, generatedBy, notes string) (*Sale, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "patient id is required")
	}
	if strings.TrimSpace(generatedBy) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "generated by is required")
	}

	return &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PatientID:         patientID,
		PrescriptionID:    prescriptionID,
		BillDate:          time.Now(),
		Items:             make([]LineItem, 0),
		Payments:          make([]Payment, 0),
		Subtotal:          decimal.Zero,
		Discount:          decimal.Zero,
		Tax:               decimal.Zero,
		TotalAmount:       decimal.Zero,
		PaidAmount:        decimal.Zero,
		PaymentStatus:     PaymentStatusPending,
		GeneratedBy:       generatedBy,
		Notes:             notes,
	}, nil
}

// AddItem appends a line and recomputes the bill totals. Amounts are
// rounded half-up to the currency's minor unit per line.
func (s *Sale) AddItem(medicineID, batchID uuid.UUID, quantity int64, unitPrice, discountPct, taxPct decimal.Decimal) (*LineItem, error) {
	if medicineID == uuid.Nil || batchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "medicine and batch ids are required")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unit price cannot be negative")
	}
	if discountPct.IsNegative() || discountPct.GreaterThan(hundred) {
		return nil, shared.NewDomainError("INVALID_INPUT", "discount percent must be between 0 and 100")
	}
	if taxPct.IsNegative() || taxPct.GreaterThan(hundred) {
		return nil, shared.NewDomainError("INVALID_INPUT", "tax percent must be between 0 and 100")
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(quantity))
	discountAmount := subtotal.Mul(discountPct).Div(hundred).Round(2)
	taxable := subtotal.Sub(discountAmount)
	taxAmount := taxable.Mul(taxPct).Div(hundred).Round(2)
	total := taxable.Add(taxAmount).Round(2)

	item := LineItem{
		BaseEntity:     shared.NewBaseEntity(),
		SaleID:         s.ID,
		MedicineID:     medicineID,
		BatchID:        batchID,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		DiscountPct:    discountPct,
		TaxPct:         taxPct,
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          total,
	}
	s.Items = append(s.Items, item)
	s.recalculateTotals()
	return &s.Items[len(s.Items)-1], nil
}

func (s *Sale) recalculateTotals() {
	subtotal := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero
	for _, item := range s.Items {
		subtotal = subtotal.Add(item.Subtotal)
		discount = discount.Add(item.DiscountAmount)
		tax = tax.Add(item.TaxAmount)
	}
	s.Subtotal = subtotal
	s.Discount = discount
	s.Tax = tax
	s.TotalAmount = subtotal.Sub(discount).Add(tax)
}

// AssignBillNumber sets the externally visible bill number. Called once,
// inside the transaction that generates it.
func (s *Sale) AssignBillNumber(billNumber string) error {
	if billNumber == "" {
		return shared.NewDomainError("INVALID_INPUT", "bill number is required")
	}
	if s.BillNumber != "" {
		return shared.NewDomainError("CONFLICT", "bill number is already assigned")
	}
	s.BillNumber = billNumber
	return nil
}

// Finalize validates the bill is complete and publishes the created
// event.
func (s *Sale) Finalize() error {
	if len(s.Items) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "a sale needs at least one item")
	}
	if s.BillNumber == "" {
		return shared.NewDomainError("INVALID_STATE", "bill number must be assigned before finalizing")
	}
	s.AddDomainEvent(NewSaleCreatedEvent(s))
	return nil
}

// ApplyPayment records a settlement and recomputes the payment status
func (s *Sale) ApplyPayment(amount decimal.Decimal, method, reference, processedBy string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "payment amount must be positive")
	}
	if strings.TrimSpace(method) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "payment method is required")
	}
	if strings.TrimSpace(processedBy) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "processed by is required")
	}

	payment := Payment{
		BaseEntity:  shared.NewBaseEntity(),
		SaleID:      s.ID,
		Amount:      amount,
		Method:      method,
		PaymentDate: time.Now(),
		Reference:   reference,
		ProcessedBy: processedBy,
	}
	s.Payments = append(s.Payments, payment)
	s.PaidAmount = s.PaidAmount.Add(amount)
	s.PaymentStatus = ComputePaymentStatus(s.PaidAmount, s.TotalAmount)
	s.AddDomainEvent(NewPaymentReceivedEvent(s, &payment))
	return &s.Payments[len(s.Payments)-1], nil
}

// CreditBalance returns how far payments exceed the bill total
func (s *Sale) CreditBalance() decimal.Decimal {
	if s.PaidAmount.GreaterThan(s.TotalAmount) {
		return s.PaidAmount.Sub(s.TotalAmount)
	}
	return decimal.Zero
}

// OutstandingAmount returns what remains to be paid
func (s *Sale) OutstandingAmount() decimal.Decimal {
	if s.TotalAmount.GreaterThan(s.PaidAmount) {
		return s.TotalAmount.Sub(s.PaidAmount)
	}
	return decimal.Zero
}
