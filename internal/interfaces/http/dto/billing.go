package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appbilling "github.com/hms/pharmacy/internal/application/billing"
	"github.com/hms/pharmacy/internal/domain/billing"
)

// SaleItemRequest is one requested line of a bill. BatchID pins a
// specific lot; without it the soonest expiring eligible batch is
// dispensed.
type SaleItemRequest struct {
	MedicineID  uuid.UUID       `json:"medicine_id" binding:"required"`
	BatchID     *uuid.UUID      `json:"batch_id"`
	Quantity    int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"dgte0"`
	DiscountPct decimal.Decimal `json:"discount_pct" binding:"dgte0"`
	TaxPct      decimal.Decimal `json:"tax_pct" binding:"dgte0"`
}

// CreateSaleRequest creates a bill and dispenses its stock atomically
type CreateSaleRequest struct {
	PatientID      uuid.UUID         `json:"patient_id" binding:"required"`
	PrescriptionID *uuid.UUID        `json:"prescription_id"`
	Items          []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes          string            `json:"notes"`
}

// ToApplication converts the request to the application layer input
func (r CreateSaleRequest) ToApplication(generatedBy string) appbilling.CreateSaleRequest {
	items := make([]appbilling.SaleItemRequest, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, appbilling.SaleItemRequest{
			MedicineID:  item.MedicineID,
			BatchID:     item.BatchID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			DiscountPct: item.DiscountPct,
			TaxPct:      item.TaxPct,
		})
	}
	return appbilling.CreateSaleRequest{
		PatientID:      r.PatientID,
		PrescriptionID: r.PrescriptionID,
		Items:          items,
		Notes:          r.Notes,
		GeneratedBy:    generatedBy,
	}
}

// ApplyPaymentRequest settles part of a bill
type ApplyPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required,dgt0"`
	Method    string          `json:"method" binding:"required,max=50"`
	Reference string          `json:"reference" binding:"max=100"`
}

// ToApplication converts the request to the application layer input
func (r ApplyPaymentRequest) ToApplication(saleID uuid.UUID, processedBy string) appbilling.ApplyPaymentRequest {
	return appbilling.ApplyPaymentRequest{
		SaleID:      saleID,
		Amount:      r.Amount,
		Method:      r.Method,
		Reference:   r.Reference,
		ProcessedBy: processedBy,
	}
}

// ListSalesRequest holds bill listing filters
type ListSalesRequest struct {
	ListRequest
	PatientID     *uuid.UUID `form:"patient_id"`
	PaymentStatus string     `form:"payment_status" binding:"omitempty,oneof=PENDING PARTIAL PAID"`
	BillNumber    string     `form:"bill_number"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
}

// ToFilter converts the request to a domain filter
func (r ListSalesRequest) ToFilter() billing.SaleFilter {
	filter := billing.SaleFilter{
		PatientID:  r.PatientID,
		BillNumber: r.BillNumber,
		From:       r.From,
		To:         r.To,
	}
	if r.PaymentStatus != "" {
		status := billing.PaymentStatus(r.PaymentStatus)
		filter.PaymentStatus = &status
	}
	return filter
}

// LineItemResponse is the API shape of one bill line
type LineItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	MedicineID     uuid.UUID       `json:"medicine_id"`
	BatchID        uuid.UUID       `json:"batch_id"`
	TransactionID  *uuid.UUID      `json:"transaction_id,omitempty"`
	Quantity       int64           `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	TaxPct         decimal.Decimal `json:"tax_pct"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// PaymentResponse is the API shape of one payment
type PaymentResponse struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	PaymentDate time.Time       `json:"payment_date"`
	Reference   string          `json:"reference,omitempty"`
	ProcessedBy string          `json:"processed_by"`
}

// SaleResponse is the API shape of a bill
type SaleResponse struct {
	ID             uuid.UUID          `json:"id"`
	BillNumber     string             `json:"bill_number"`
	PatientID      uuid.UUID          `json:"patient_id"`
	PrescriptionID *uuid.UUID         `json:"prescription_id,omitempty"`
	BillDate       time.Time          `json:"bill_date"`
	Items          []LineItemResponse `json:"items"`
	Payments       []PaymentResponse  `json:"payments"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Discount       decimal.Decimal    `json:"discount"`
	Tax            decimal.Decimal    `json:"tax"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	PaidAmount     decimal.Decimal    `json:"paid_amount"`
	PaymentStatus  string             `json:"payment_status"`
	GeneratedBy    string             `json:"generated_by"`
	Notes          string             `json:"notes,omitempty"`
	Version        int                `json:"version"`
	CreatedAt      time.Time          `json:"created_at"`
}

// FromSale converts a bill to its API shape
func FromSale(s *billing.Sale) SaleResponse {
	items := make([]LineItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, LineItemResponse{
			ID:             item.ID,
			MedicineID:     item.MedicineID,
			BatchID:        item.BatchID,
			TransactionID:  item.TransactionID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountPct:    item.DiscountPct,
			TaxPct:         item.TaxPct,
			Subtotal:       item.Subtotal,
			DiscountAmount: item.DiscountAmount,
			TaxAmount:      item.TaxAmount,
			Total:          item.Total,
		})
	}
	payments := make([]PaymentResponse, 0, len(s.Payments))
	for _, p := range s.Payments {
		payments = append(payments, PaymentResponse{
			ID:          p.ID,
			Amount:      p.Amount,
			Method:      p.Method,
			PaymentDate: p.PaymentDate,
			Reference:   p.Reference,
			ProcessedBy: p.ProcessedBy,
		})
	}
	return SaleResponse{
		ID:             s.ID,
		BillNumber:     s.BillNumber,
		PatientID:      s.PatientID,
		PrescriptionID: s.PrescriptionID,
		BillDate:       s.BillDate,
		Items:          items,
		Payments:       payments,
		Subtotal:       s.Subtotal,
		Discount:       s.Discount,
		Tax:            s.Tax,
		TotalAmount:    s.TotalAmount,
		PaidAmount:     s.PaidAmount,
		PaymentStatus:  string(s.PaymentStatus),
		GeneratedBy:    s.GeneratedBy,
		Notes:          s.Notes,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
	}
}

// FromSales converts a list of bills
func FromSales(sales []*billing.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, FromSale(s))
	}
	return out
}
