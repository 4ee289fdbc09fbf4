package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/catalog"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
)

const (
	// DefaultExpiryWarningDays is the default expiry warning horizon
	DefaultExpiryWarningDays = 30
	// DefaultMaxConflictRetries bounds the optimistic-lock retry loop
	DefaultMaxConflictRetries = 3
)

// StockService orchestrates the batch, stock, ledger and alert
// repositories. Every stock-affecting operation runs its check and its
// act inside one transaction scope and retries on optimistic-lock
// conflicts; domain events are published only after the scope commits.
type StockService struct {
	scope             TransactionScope
	medicineRepo      catalog.MedicineRepository
	batchRepo         inventory.BatchRepository
	stockItemRepo     inventory.StockItemRepository
	transactionRepo   inventory.TransactionRepository
	alertRepo         inventory.AlertRepository
	eventPublisher    shared.EventPublisher
	expiryWarningDays int
	maxRetries        int
}

// NewStockService creates a new StockService
func NewStockService(
	scope TransactionScope,
	medicineRepo catalog.MedicineRepository,
	batchRepo inventory.BatchRepository,
	stockItemRepo inventory.StockItemRepository,
	transactionRepo inventory.TransactionRepository,
	alertRepo inventory.AlertRepository,
) *StockService {
	return &StockService{
		scope:             scope,
		medicineRepo:      medicineRepo,
		batchRepo:         batchRepo,
		stockItemRepo:     stockItemRepo,
		transactionRepo:   transactionRepo,
		alertRepo:         alertRepo,
		expiryWarningDays: DefaultExpiryWarningDays,
		maxRetries:        DefaultMaxConflictRetries,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetExpiryWarningDays overrides the expiry warning horizon
func (s *StockService) SetExpiryWarningDays(days int) {
	if days > 0 {
		s.expiryWarningDays = days
	}
}

// SetMaxRetries overrides the optimistic-lock retry budget
func (s *StockService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// withRetry re-runs the scope on optimistic-lock conflicts. The function
// must be restartable: it re-reads everything it touches on each
// attempt.
func (s *StockService) withRetry(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err = s.scope.Execute(ctx, fn)
		if !shared.IsCode(err, "CONCURRENCY_CONFLICT") {
			return err
		}
	}
	return err
}

// publishEvents hands committed domain events to the fan-out. Failures
// are deliberately not surfaced; the stock change is already committed.
func (s *StockService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// ReceiveBatch registers a new lot and increments the medicine's stock,
// recording a PURCHASE ledger entry, in one atomic unit.
func (s *StockService) ReceiveBatch(ctx context.Context, req ReceiveBatchRequest) (*inventory.Batch, error) {
	medicine, err := s.medicineRepo.FindByID(ctx, req.MedicineID)
	if err != nil {
		return nil, err
	}
	if !medicine.Active {
		return nil, shared.NewDomainError("CONFLICT", fmt.Sprintf("medicine %s is inactive", medicine.Name))
	}

	var batch *inventory.Batch
	var events []shared.DomainEvent

	err = s.withRetry(ctx, func(repos TransactionalRepositories) error {
		events = events[:0]

		existing, err := repos.BatchRepo().FindByMedicineAndNumber(ctx, req.MedicineID, strings.TrimSpace(req.BatchNumber))
		if err != nil && !shared.IsCode(err, "NOT_FOUND") {
			return err
		}
		if existing != nil {
			return shared.NewDomainError("ALREADY_EXISTS",
				fmt.Sprintf("batch %s already exists for this medicine", req.BatchNumber))
		}

		batch, err = inventory.NewBatch(req.MedicineID, req.BatchNumber, req.Quantity,
			req.UnitCost, req.SellingPrice, req.ManufacturingDate, req.ExpiryDate, req.ReceivedDate, req.Location)
		if err != nil {
			return err
		}
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return err
		}

		seed, err := inventory.NewStockItem(req.MedicineID, req.MinStockLevel, req.MaxStockLevel, req.ReorderLevel)
		if err != nil {
			return err
		}
		item, err := repos.StockItemRepo().GetOrCreate(ctx, seed)
		if err != nil {
			return err
		}

		balanceBefore := item.CurrentStock
		if err := item.ApplyDelta(req.Quantity); err != nil {
			return err
		}
		if err := repos.StockItemRepo().Save(ctx, item); err != nil {
			return err
		}

		batchID := batch.ID
		entry, err := inventory.NewStockTransaction(item.ID, req.MedicineID, &batchID,
			inventory.TransactionTypePurchase, "", req.Quantity, balanceBefore, nil, "STOCK_RECEIPT", req.PerformedBy)
		if err != nil {
			return err
		}
		if err := repos.TransactionRepo().Append(ctx, entry); err != nil {
			return err
		}

		alertEvents, err := EvaluateStockAlerts(ctx, repos.AlertRepo(), item)
		if err != nil {
			return err
		}
		events = append(events, alertEvents...)

		if batch.WillExpireWithin(time.Now(), s.expiryWarningDays) {
			expiryEvents, err := EnsureExpiryWarning(ctx, repos.AlertRepo(), batch)
			if err != nil {
				return err
			}
			events = append(events, expiryEvents...)
		}

		events = append(events, item.GetDomainEvents()...)
		item.ClearDomainEvents()
		events = append(events, inventory.NewBatchReceivedEvent(batch))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return batch, nil
}

// Consume dispenses stock from one batch and records a SALE ledger
// entry. Insufficiency is checked inside the same scope that decrements.
func (s *StockService) Consume(ctx context.Context, req ConsumeRequest) (*inventory.StockTransaction, error) {
	var entry *inventory.StockTransaction
	var events []shared.DomainEvent

	err := s.withRetry(ctx, func(repos TransactionalRepositories) error {
		events = events[:0]

		batch, err := repos.BatchRepo().FindByID(ctx, req.BatchID)
		if err != nil {
			return err
		}
		if batch.IsExpired(time.Now()) && batch.Status == inventory.BatchStatusAvailable {
			return shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("batch %s has expired", batch.BatchNumber))
		}
		if err := batch.Consume(req.Quantity); err != nil {
			return err
		}
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return err
		}

		item, err := repos.StockItemRepo().FindByMedicineID(ctx, batch.MedicineID)
		if err != nil {
			if shared.IsCode(err, "NOT_FOUND") {
				return shared.NewDomainError("INVARIANT_VIOLATION",
					fmt.Sprintf("no stock record for medicine %s with live batches", batch.MedicineID))
			}
			return err
		}

		balanceBefore := item.CurrentStock
		if err := item.ApplyDelta(-req.Quantity); err != nil {
			return err
		}
		if err := repos.StockItemRepo().Save(ctx, item); err != nil {
			return err
		}

		batchID := batch.ID
		entry, err = inventory.NewStockTransaction(item.ID, batch.MedicineID, &batchID,
			inventory.TransactionTypeSale, "", req.Quantity, balanceBefore, req.ReferenceID, req.ReferenceType, req.PerformedBy)
		if err != nil {
			return err
		}
		if err := repos.TransactionRepo().Append(ctx, entry); err != nil {
			return err
		}

		alertEvents, err := EvaluateStockAlerts(ctx, repos.AlertRepo(), item)
		if err != nil {
			return err
		}
		events = append(events, alertEvents...)

		if batch.Quantity == 0 {
			resolved, err := ResolveExpiryWarning(ctx, repos.AlertRepo(), batch, "batch fully consumed")
			if err != nil {
				return err
			}
			events = append(events, resolved...)
		}

		events = append(events, item.GetDomainEvents()...)
		item.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return entry, nil
}

// WriteOff removes unsellable units from a batch, recording an EXPIRED
// or DAMAGED ledger entry.
func (s *StockService) WriteOff(ctx context.Context, req WriteOffRequest) (*inventory.StockTransaction, error) {
	var reason inventory.TransactionType
	switch strings.ToUpper(req.Reason) {
	case string(inventory.TransactionTypeExpired):
		reason = inventory.TransactionTypeExpired
	case string(inventory.TransactionTypeDamaged):
		reason = inventory.TransactionTypeDamaged
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "write-off reason must be EXPIRED or DAMAGED")
	}

	var entry *inventory.StockTransaction
	var events []shared.DomainEvent

	err := s.withRetry(ctx, func(repos TransactionalRepositories) error {
		events = events[:0]

		batch, err := repos.BatchRepo().FindByID(ctx, req.BatchID)
		if err != nil {
			return err
		}
		if err := batch.WriteOff(req.Quantity, reason); err != nil {
			return err
		}
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return err
		}

		item, err := repos.StockItemRepo().FindByMedicineID(ctx, batch.MedicineID)
		if err != nil {
			return err
		}
		balanceBefore := item.CurrentStock
		if err := item.ApplyDelta(-req.Quantity); err != nil {
			return err
		}
		if err := repos.StockItemRepo().Save(ctx, item); err != nil {
			return err
		}

		batchID := batch.ID
		entry, err = inventory.NewStockTransaction(item.ID, batch.MedicineID, &batchID,
			reason, "", req.Quantity, balanceBefore, nil, "WRITE_OFF", req.PerformedBy)
		if err != nil {
			return err
		}
		if err := repos.TransactionRepo().Append(ctx, entry); err != nil {
			return err
		}

		alertEvents, err := EvaluateStockAlerts(ctx, repos.AlertRepo(), item)
		if err != nil {
			return err
		}
		events = append(events, alertEvents...)

		if batch.Quantity == 0 {
			resolved, err := ResolveExpiryWarning(ctx, repos.AlertRepo(), batch, "batch written off")
			if err != nil {
				return err
			}
			events = append(events, resolved...)
			events = append(events, inventory.NewBatchStatusChangedEvent(inventory.EventTypeBatchWrittenOff, batch))
		}

		events = append(events, item.GetDomainEvents()...)
		item.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return entry, nil
}

// Adjust records a stock correction or transfer that is not tied to a
// single lot.
func (s *StockService) Adjust(ctx context.Context, req AdjustStockRequest) (*inventory.StockTransaction, error) {
	var txType inventory.TransactionType
	switch strings.ToUpper(req.Type) {
	case string(inventory.TransactionTypeAdjustment), "":
		txType = inventory.TransactionTypeAdjustment
	case string(inventory.TransactionTypeTransfer):
		txType = inventory.TransactionTypeTransfer
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "adjustment type must be ADJUSTMENT or TRANSFER")
	}

	var direction inventory.TransactionDirection
	switch strings.ToUpper(req.Direction) {
	case string(inventory.DirectionIn):
		direction = inventory.DirectionIn
	case string(inventory.DirectionOut):
		direction = inventory.DirectionOut
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "direction must be IN or OUT")
	}

	var entry *inventory.StockTransaction
	var events []shared.DomainEvent

	err := s.withRetry(ctx, func(repos TransactionalRepositories) error {
		events = events[:0]

		item, err := repos.StockItemRepo().FindByMedicineID(ctx, req.MedicineID)
		if err != nil {
			return err
		}

		delta := req.Quantity
		if direction == inventory.DirectionOut {
			delta = -delta
		}
		balanceBefore := item.CurrentStock
		if err := item.ApplyDelta(delta); err != nil {
			return err
		}
		if err := repos.StockItemRepo().Save(ctx, item); err != nil {
			return err
		}

		entry, err = inventory.NewStockTransaction(item.ID, req.MedicineID, nil,
			txType, direction, req.Quantity, balanceBefore, nil, req.Reason, req.PerformedBy)
		if err != nil {
			return err
		}
		if err := repos.TransactionRepo().Append(ctx, entry); err != nil {
			return err
		}

		alertEvents, err := EvaluateStockAlerts(ctx, repos.AlertRepo(), item)
		if err != nil {
			return err
		}
		events = append(events, alertEvents...)
		events = append(events, item.GetDomainEvents()...)
		item.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return entry, nil
}

// RecallBatch pulls a lot from circulation. Remaining units leave the
// stock figure through an ADJUSTMENT entry referencing the recall.
func (s *StockService) RecallBatch(ctx context.Context, batchID uuid.UUID, performedBy string) (*inventory.Batch, error) {
	var batch *inventory.Batch
	var events []shared.DomainEvent

	err := s.withRetry(ctx, func(repos TransactionalRepositories) error {
		events = events[:0]

		var err error
		batch, err = repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		remaining := batch.Quantity
		if err := batch.Recall(); err != nil {
			return err
		}
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return err
		}

		if remaining > 0 {
			item, err := repos.StockItemRepo().FindByMedicineID(ctx, batch.MedicineID)
			if err != nil {
				return err
			}
			balanceBefore := item.CurrentStock
			if err := item.ApplyDelta(-remaining); err != nil {
				return err
			}
			if err := repos.StockItemRepo().Save(ctx, item); err != nil {
				return err
			}

			id := batch.ID
			entry, err := inventory.NewStockTransaction(item.ID, batch.MedicineID, &id,
				inventory.TransactionTypeAdjustment, inventory.DirectionOut, remaining, balanceBefore,
				nil, "BATCH_RECALL", performedBy)
			if err != nil {
				return err
			}
			if err := repos.TransactionRepo().Append(ctx, entry); err != nil {
				return err
			}

			alertEvents, err := EvaluateStockAlerts(ctx, repos.AlertRepo(), item)
			if err != nil {
				return err
			}
			events = append(events, alertEvents...)
			events = append(events, item.GetDomainEvents()...)
			item.ClearDomainEvents()
		}

		resolved, err := ResolveExpiryWarning(ctx, repos.AlertRepo(), batch, "batch recalled")
		if err != nil {
			return err
		}
		events = append(events, resolved...)
		events = append(events, inventory.NewBatchStatusChangedEvent(inventory.EventTypeBatchRecalled, batch))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return batch, nil
}

// SweepExpired transitions every dispensable batch whose expiry has
// passed, writing off remaining units. Each batch is processed in its
// own atomic unit so one conflict does not abort the sweep.
func (s *StockService) SweepExpired(ctx context.Context, performedBy string) (int, error) {
	now := time.Now()
	expired, err := s.batchRepo.FindExpiredActive(ctx, now)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, candidate := range expired {
		batchID := candidate.ID
		var events []shared.DomainEvent

		err := s.withRetry(ctx, func(repos TransactionalRepositories) error {
			events = events[:0]

			batch, err := repos.BatchRepo().FindByID(ctx, batchID)
			if err != nil {
				return err
			}
			if batch.Status.IsTerminal() {
				return nil
			}
			remaining := batch.Quantity
			if err := batch.MarkExpired(now); err != nil {
				return err
			}
			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}

			if remaining > 0 {
				item, err := repos.StockItemRepo().FindByMedicineID(ctx, batch.MedicineID)
				if err != nil {
					return err
				}
				balanceBefore := item.CurrentStock
				if err := item.ApplyDelta(-remaining); err != nil {
					return err
				}
				if err := repos.StockItemRepo().Save(ctx, item); err != nil {
					return err
				}

				id := batch.ID
				entry, err := inventory.NewStockTransaction(item.ID, batch.MedicineID, &id,
					inventory.TransactionTypeExpired, "", remaining, balanceBefore, nil, "EXPIRY_SWEEP", performedBy)
				if err != nil {
					return err
				}
				if err := repos.TransactionRepo().Append(ctx, entry); err != nil {
					return err
				}

				alertEvents, err := EvaluateStockAlerts(ctx, repos.AlertRepo(), item)
				if err != nil {
					return err
				}
				events = append(events, alertEvents...)
				events = append(events, item.GetDomainEvents()...)
				item.ClearDomainEvents()
			}

			resolved, err := ResolveExpiryWarning(ctx, repos.AlertRepo(), batch, "batch expired")
			if err != nil {
				return err
			}
			events = append(events, resolved...)
			events = append(events, inventory.NewBatchStatusChangedEvent(inventory.EventTypeBatchExpired, batch))
			return nil
		})
		if err != nil {
			return swept, err
		}

		s.publishEvents(ctx, events)
		swept++
	}
	return swept, nil
}

// EvaluateExpiryWarnings raises EXPIRY_WARNING alerts for every stocked
// batch inside the warning horizon. Idempotent; intended for periodic
// invocation.
func (s *StockService) EvaluateExpiryWarnings(ctx context.Context) (int, error) {
	now := time.Now()
	expiring, err := s.batchRepo.FindExpiring(ctx, now, s.expiryWarningDays)
	if err != nil {
		return 0, err
	}

	raised := 0
	for _, candidate := range expiring {
		batchID := candidate.ID
		var events []shared.DomainEvent

		err := s.withRetry(ctx, func(repos TransactionalRepositories) error {
			events = events[:0]

			batch, err := repos.BatchRepo().FindByID(ctx, batchID)
			if err != nil {
				return err
			}
			if !batch.IsDispensable(now) || !batch.WillExpireWithin(now, s.expiryWarningDays) {
				return nil
			}
			raisedEvents, err := EnsureExpiryWarning(ctx, repos.AlertRepo(), batch)
			if err != nil {
				return err
			}
			events = append(events, raisedEvents...)
			return nil
		})
		if err != nil {
			return raised, err
		}
		if len(events) > 0 {
			s.publishEvents(ctx, events)
			raised++
		}
	}
	return raised, nil
}

// ResolveAlert closes an alert by staff action
func (s *StockService) ResolveAlert(ctx context.Context, alertID uuid.UUID, resolvedBy, notes string) (*inventory.Alert, error) {
	var alert *inventory.Alert
	var events []shared.DomainEvent

	err := s.withRetry(ctx, func(repos TransactionalRepositories) error {
		events = events[:0]

		var err error
		alert, err = repos.AlertRepo().FindByID(ctx, alertID)
		if err != nil {
			return err
		}
		if err := alert.Resolve(resolvedBy, notes); err != nil {
			return err
		}
		if err := repos.AlertRepo().Save(ctx, alert); err != nil {
			return err
		}
		events = append(events, alert.GetDomainEvents()...)
		alert.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return alert, nil
}

// UpdateThresholds changes a medicine's reorder configuration and
// re-evaluates its stock alerts against the new levels.
func (s *StockService) UpdateThresholds(ctx context.Context, req UpdateThresholdsRequest) (*inventory.StockItem, error) {
	var item *inventory.StockItem
	var events []shared.DomainEvent

	err := s.withRetry(ctx, func(repos TransactionalRepositories) error {
		events = events[:0]

		var err error
		item, err = repos.StockItemRepo().FindByMedicineID(ctx, req.MedicineID)
		if err != nil {
			return err
		}
		if err := item.UpdateThresholds(req.MinStockLevel, req.MaxStockLevel, req.ReorderLevel); err != nil {
			return err
		}
		if err := repos.StockItemRepo().Save(ctx, item); err != nil {
			return err
		}

		alertEvents, err := EvaluateStockAlerts(ctx, repos.AlertRepo(), item)
		if err != nil {
			return err
		}
		events = append(events, alertEvents...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return item, nil
}

// GetStock returns the stock aggregate for a medicine
func (s *StockService) GetStock(ctx context.Context, medicineID uuid.UUID) (*inventory.StockItem, error) {
	return s.stockItemRepo.FindByMedicineID(ctx, medicineID)
}

// ListStock lists stock aggregates
func (s *StockService) ListStock(ctx context.Context, filter inventory.StockItemFilter, page shared.Page) ([]*inventory.StockItem, int64, error) {
	page.Normalize()
	return s.stockItemRepo.List(ctx, filter, page)
}

// GetBatch returns one batch
func (s *StockService) GetBatch(ctx context.Context, batchID uuid.UUID) (*inventory.Batch, error) {
	return s.batchRepo.FindByID(ctx, batchID)
}

// ListBatches lists batches
func (s *StockService) ListBatches(ctx context.Context, filter inventory.BatchFilter, page shared.Page) ([]*inventory.Batch, int64, error) {
	page.Normalize()
	return s.batchRepo.List(ctx, filter, page)
}

// ExpiringBatches returns stocked batches expiring inside the horizon
func (s *StockService) ExpiringBatches(ctx context.Context, days int) ([]*inventory.Batch, error) {
	if days <= 0 {
		days = s.expiryWarningDays
	}
	return s.batchRepo.FindExpiring(ctx, time.Now(), days)
}

// ListTransactions lists ledger entries
func (s *StockService) ListTransactions(ctx context.Context, filter inventory.TransactionFilter, page shared.Page) ([]*inventory.StockTransaction, int64, error) {
	page.Normalize()
	return s.transactionRepo.List(ctx, filter, page)
}

// ListAlerts lists alerts
func (s *StockService) ListAlerts(ctx context.Context, filter inventory.AlertFilter, page shared.Page) ([]*inventory.Alert, int64, error) {
	page.Normalize()
	return s.alertRepo.List(ctx, filter, page)
}

// Replay folds a medicine's full ledger from zero and compares the
// result with the stored aggregate. The ledger is the source of truth;
// a mismatch means the projection drifted.
func (s *StockService) Replay(ctx context.Context, medicineID uuid.UUID) (*ReplayResult, error) {
	item, err := s.stockItemRepo.FindByMedicineID(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	entries, err := s.transactionRepo.FindByMedicineID(ctx, medicineID)
	if err != nil {
		return nil, err
	}

	balance := inventory.Replay(entries)
	return &ReplayResult{
		MedicineID:    medicineID,
		LedgerBalance: balance,
		StoredStock:   item.CurrentStock,
		EntryCount:    len(entries),
		Consistent:    balance == item.CurrentStock,
	}, nil
}
