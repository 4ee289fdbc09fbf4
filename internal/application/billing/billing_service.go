package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/hms/pharmacy/internal/application/inventory"
	"github.com/hms/pharmacy/internal/domain/billing"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// DefaultMaxConflictRetries bounds the optimistic-lock retry loop
const DefaultMaxConflictRetries = 3

// BillingService creates bills and applies payments. Creating a sale
// consumes batch stock, updates the per-medicine aggregates, appends
// ledger entries and re-evaluates alerts inside one transaction scope;
// nothing of a failed sale is ever observable.
type BillingService struct {
	scope          TransactionScope
	saleRepo       billing.SaleRepository
	eventPublisher shared.EventPublisher
	maxRetries     int
}

// NewBillingService creates a new BillingService
func NewBillingService(scope TransactionScope, saleRepo billing.SaleRepository) *BillingService {
	return &BillingService{
		scope:      scope,
		saleRepo:   saleRepo,
		maxRetries: DefaultMaxConflictRetries,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BillingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMaxRetries overrides the optimistic-lock retry budget
func (s *BillingService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

func (s *BillingService) withRetry(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err = s.scope.Execute(ctx, fn)
		if !shared.IsCode(err, "CONCURRENCY_CONFLICT") {
			return err
		}
	}
	return err
}

func (s *BillingService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// CreateSale builds a bill from batch-backed lines. Each line draws
// from exactly one batch, pinned by the caller or chosen
// first-expiry-first-out. The whole multi-batch consumption is
// all-or-nothing.
func (s *BillingService) CreateSale(ctx context.Context, req CreateSaleRequest) (*billing.Sale, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "a sale needs at least one item")
	}

	var sale *billing.Sale
	var events []shared.DomainEvent
	now := time.Now()

	err := s.withRetry(ctx, func(repos TransactionalRepositories) error {
		events = events[:0]

		var err error
		sale, err = billing.NewSale(req.PatientID, req.PrescriptionID, req.GeneratedBy, req.Notes)
		if err != nil {
			return err
		}

		// Batches are cached per id so a later line sees the quantity
		// an earlier line already consumed in this sale.
		batches := make(map[uuid.UUID]*inventory.Batch)
		loadBatch := func(id uuid.UUID) (*inventory.Batch, error) {
			if b, ok := batches[id]; ok {
				return b, nil
			}
			b, err := repos.BatchRepo().FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			batches[b.ID] = b
			return b, nil
		}

		// Lines are tracked by index; sale.Items may reallocate as it
		// grows.
		type plannedLine struct {
			index int
			batch *inventory.Batch
		}
		plan := make([]plannedLine, 0, len(req.Items))

		for _, line := range req.Items {
			var batch *inventory.Batch
			if line.BatchID != nil {
				batch, err = loadBatch(*line.BatchID)
				if err != nil {
					return err
				}
				if batch.MedicineID != line.MedicineID {
					return shared.NewDomainError("INVALID_INPUT",
						fmt.Sprintf("batch %s does not belong to medicine %s", batch.BatchNumber, line.MedicineID))
				}
				if batch.IsExpired(now) && batch.Status == inventory.BatchStatusAvailable {
					return shared.NewDomainError("INSUFFICIENT_STOCK",
						fmt.Sprintf("batch %s has expired", batch.BatchNumber))
				}
			} else {
				candidates, err := repos.BatchRepo().FindDispensable(ctx, line.MedicineID, now)
				if err != nil {
					return err
				}
				for i, c := range candidates {
					if cached, ok := batches[c.ID]; ok {
						candidates[i] = cached
					}
				}
				batch, err = inventory.SelectBatchFEFO(candidates, line.Quantity, now)
				if err != nil {
					if shared.IsCode(err, "INSUFFICIENT_STOCK") {
						return shared.NewDomainError("INSUFFICIENT_STOCK",
							fmt.Sprintf("medicine %s: no batch can supply %d units", line.MedicineID, line.Quantity))
					}
					return err
				}
				batches[batch.ID] = batch
			}

			if err := batch.Consume(line.Quantity); err != nil {
				return err
			}
			if _, err := sale.AddItem(line.MedicineID, batch.ID, line.Quantity, line.UnitPrice, line.DiscountPct, line.TaxPct); err != nil {
				return err
			}
			plan = append(plan, plannedLine{index: len(sale.Items) - 1, batch: batch})
		}

		// Batch rows are written in ascending id order so concurrent
		// multi-line sales cannot deadlock on row locks.
		touched := make([]*inventory.Batch, 0, len(batches))
		for _, b := range batches {
			touched = append(touched, b)
		}
		sort.Slice(touched, func(i, j int) bool {
			return touched[i].ID.String() < touched[j].ID.String()
		})
		for _, b := range touched {
			if err := repos.BatchRepo().Save(ctx, b); err != nil {
				return err
			}
		}

		number, err := repos.SaleRepo().NextBillNumber(ctx, now)
		if err != nil {
			return err
		}
		if err := sale.AssignBillNumber(number); err != nil {
			return err
		}

		// One ledger entry per line, each bound to the line it settles.
		stockItems := make(map[uuid.UUID]*inventory.StockItem)
		saleID := sale.ID
		for _, pl := range plan {
			item := &sale.Items[pl.index]
			stock, ok := stockItems[pl.batch.MedicineID]
			if !ok {
				stock, err = repos.StockItemRepo().FindByMedicineID(ctx, pl.batch.MedicineID)
				if err != nil {
					if shared.IsCode(err, "NOT_FOUND") {
						return shared.NewDomainError("INVARIANT_VIOLATION",
							fmt.Sprintf("no stock record for medicine %s with live batches", pl.batch.MedicineID))
					}
					return err
				}
				stockItems[pl.batch.MedicineID] = stock
			}

			balanceBefore := stock.CurrentStock
			if err := stock.ApplyDelta(-item.Quantity); err != nil {
				return err
			}

			batchID := pl.batch.ID
			entry, err := inventory.NewStockTransaction(stock.ID, pl.batch.MedicineID, &batchID,
				inventory.TransactionTypeSale, "", item.Quantity, balanceBefore, &saleID, "SALE", req.GeneratedBy)
			if err != nil {
				return err
			}
			if err := repos.TransactionRepo().Append(ctx, entry); err != nil {
				return err
			}
			entryID := entry.ID
			item.TransactionID = &entryID
		}
		for _, stock := range stockItems {
			if err := repos.StockItemRepo().Save(ctx, stock); err != nil {
				return err
			}
		}

		if err := sale.Finalize(); err != nil {
			return err
		}
		if err := repos.SaleRepo().Save(ctx, sale); err != nil {
			return err
		}

		for _, stock := range stockItems {
			alertEvents, err := appinventory.EvaluateStockAlerts(ctx, repos.AlertRepo(), stock)
			if err != nil {
				return err
			}
			events = append(events, alertEvents...)
			events = append(events, stock.GetDomainEvents()...)
			stock.ClearDomainEvents()
		}
		for _, b := range touched {
			if b.Quantity == 0 {
				resolved, err := appinventory.ResolveExpiryWarning(ctx, repos.AlertRepo(), b, "batch fully consumed")
				if err != nil {
					return err
				}
				events = append(events, resolved...)
			}
		}
		events = append(events, sale.GetDomainEvents()...)
		sale.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return sale, nil
}

// ApplyPayment settles part of a bill and recomputes its payment
// status.
func (s *BillingService) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*billing.Sale, error) {
	var sale *billing.Sale
	var events []shared.DomainEvent

	err := s.withRetry(ctx, func(repos TransactionalRepositories) error {
		events = events[:0]

		var err error
		sale, err = repos.SaleRepo().FindByID(ctx, req.SaleID)
		if err != nil {
			return err
		}
		if _, err := sale.ApplyPayment(req.Amount, req.Method, req.Reference, req.ProcessedBy); err != nil {
			return err
		}
		if err := repos.SaleRepo().Save(ctx, sale); err != nil {
			return err
		}
		events = append(events, sale.GetDomainEvents()...)
		sale.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return sale, nil
}

// GetSale returns one bill with its items and payments
func (s *BillingService) GetSale(ctx context.Context, id uuid.UUID) (*billing.Sale, error) {
	return s.saleRepo.FindByID(ctx, id)
}

// GetSaleByBillNumber returns one bill by its printed number
func (s *BillingService) GetSaleByBillNumber(ctx context.Context, billNumber string) (*billing.Sale, error) {
	return s.saleRepo.FindByBillNumber(ctx, billNumber)
}

// ListSales lists bills
func (s *BillingService) ListSales(ctx context.Context, filter billing.SaleFilter, page shared.Page) ([]*billing.Sale, int64, error) {
	page.Normalize()
	return s.saleRepo.List(ctx, filter, page)
}
