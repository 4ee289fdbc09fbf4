package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// SaleFilter holds the typed query criteria for sale listings
type SaleFilter struct {
	PatientID     *uuid.UUID
	PaymentStatus *PaymentStatus
	BillNumber    string
	From          *time.Time
	To            *time.Time
}

// SaleRepository defines the persistence contract for bills. Save
// persists the sale together with its items and payments.
type SaleRepository interface {
	Save(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByBillNumber(ctx context.Context, billNumber string) (*Sale, error)
	NextBillNumber(ctx context.Context, date time.Time) (string, error)
	List(ctx context.Context, filter SaleFilter, page shared.Page) ([]*Sale, int64, error)
}
