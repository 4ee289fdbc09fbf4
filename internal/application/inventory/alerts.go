package inventory

import (
	"context"
	"fmt"

	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// SystemActor is recorded when the engine itself resolves an alert
// because the triggering condition cleared.
const SystemActor = "system"

// EvaluateStockAlerts reconciles the LOW_STOCK and STOCK_OUT conditions
// of one medicine against its current stock figure. Re-evaluating an
// already correct state is a no-op, so callers can invoke it after
// every delta without producing duplicates. Must run inside the same
// atomic unit as the delta it reacts to.
func EvaluateStockAlerts(ctx context.Context, alertRepo inventory.AlertRepository, item *inventory.StockItem) ([]shared.DomainEvent, error) {
	var events []shared.DomainEvent

	raise := func(alertType inventory.AlertType, message string) error {
		existing, err := alertRepo.FindActiveByCondition(ctx, alertType, item.MedicineID, nil)
		if err != nil && !shared.IsCode(err, "NOT_FOUND") {
			return err
		}
		if existing != nil {
			return nil
		}
		alert, err := inventory.NewAlert(alertType, item.MedicineID, nil, message)
		if err != nil {
			return err
		}
		if err := alertRepo.Save(ctx, alert); err != nil {
			return err
		}
		events = append(events, alert.GetDomainEvents()...)
		alert.ClearDomainEvents()
		return nil
	}

	clear := func(alertType inventory.AlertType, note string) error {
		existing, err := alertRepo.FindActiveByCondition(ctx, alertType, item.MedicineID, nil)
		if err != nil {
			if shared.IsCode(err, "NOT_FOUND") {
				return nil
			}
			return err
		}
		if existing == nil {
			return nil
		}
		if err := existing.Resolve(SystemActor, note); err != nil {
			return err
		}
		if err := alertRepo.Save(ctx, existing); err != nil {
			return err
		}
		events = append(events, existing.GetDomainEvents()...)
		existing.ClearDomainEvents()
		return nil
	}

	switch {
	case item.IsOutOfStock():
		if err := raise(inventory.AlertTypeStockOut, fmt.Sprintf("medicine %s is out of stock", item.MedicineID)); err != nil {
			return nil, err
		}
		if err := clear(inventory.AlertTypeLowStock, "superseded by stock-out"); err != nil {
			return nil, err
		}
	case item.IsLowStock():
		if err := raise(inventory.AlertTypeLowStock,
			fmt.Sprintf("medicine %s stock at %d, reorder level %d", item.MedicineID, item.CurrentStock, item.ReorderLevel)); err != nil {
			return nil, err
		}
		if err := clear(inventory.AlertTypeStockOut, "stock replenished"); err != nil {
			return nil, err
		}
	default:
		if err := clear(inventory.AlertTypeLowStock, "stock above reorder level"); err != nil {
			return nil, err
		}
		if err := clear(inventory.AlertTypeStockOut, "stock replenished"); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// EnsureExpiryWarning raises the per-batch EXPIRY_WARNING alert if none
// is active yet.
func EnsureExpiryWarning(ctx context.Context, alertRepo inventory.AlertRepository, batch *inventory.Batch) ([]shared.DomainEvent, error) {
	batchID := batch.ID
	existing, err := alertRepo.FindActiveByCondition(ctx, inventory.AlertTypeExpiryWarning, batch.MedicineID, &batchID)
	if err != nil && !shared.IsCode(err, "NOT_FOUND") {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}
	alert, err := inventory.NewAlert(inventory.AlertTypeExpiryWarning, batch.MedicineID, &batchID,
		fmt.Sprintf("batch %s expires on %s", batch.BatchNumber, batch.ExpiryDate.Format("2006-01-02")))
	if err != nil {
		return nil, err
	}
	if err := alertRepo.Save(ctx, alert); err != nil {
		return nil, err
	}
	events := alert.GetDomainEvents()
	alert.ClearDomainEvents()
	return events, nil
}

// ResolveExpiryWarning closes the per-batch EXPIRY_WARNING alert once
// the batch no longer holds dispensable stock.
func ResolveExpiryWarning(ctx context.Context, alertRepo inventory.AlertRepository, batch *inventory.Batch, note string) ([]shared.DomainEvent, error) {
	batchID := batch.ID
	existing, err := alertRepo.FindActiveByCondition(ctx, inventory.AlertTypeExpiryWarning, batch.MedicineID, &batchID)
	if err != nil {
		if shared.IsCode(err, "NOT_FOUND") {
			return nil, nil
		}
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if err := existing.Resolve(SystemActor, note); err != nil {
		return nil, err
	}
	if err := alertRepo.Save(ctx, existing); err != nil {
		return nil, err
	}
	events := existing.GetDomainEvents()
	existing.ClearDomainEvents()
	return events, nil
}
