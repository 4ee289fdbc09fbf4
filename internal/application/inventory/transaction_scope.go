package inventory

import (
	"context"

	"github.com/hms/pharmacy/internal/domain/inventory"
)

// TransactionScope provides transactional access to the stock
// repositories. Everything executed within one scope commits or rolls
// back as a unit; the check and the act of a stock movement always live
// in the same scope.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the stock repositories bound to the
// current transaction.
type TransactionalRepositories interface {
	BatchRepo() inventory.BatchRepository
	StockItemRepo() inventory.StockItemRepository
	TransactionRepo() inventory.TransactionRepository
	AlertRepo() inventory.AlertRepository
}

// NoOpTransactionScope runs the function against plain repositories
// without a transaction. Used in tests.
type NoOpTransactionScope struct {
	batchRepo     inventory.BatchRepository
	stockItemRepo inventory.StockItemRepository
	txRepo        inventory.TransactionRepository
	alertRepo     inventory.AlertRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	batchRepo inventory.BatchRepository,
	stockItemRepo inventory.StockItemRepository,
	txRepo inventory.TransactionRepository,
	alertRepo inventory.AlertRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		batchRepo:     batchRepo,
		stockItemRepo: stockItemRepo,
		txRepo:        txRepo,
		alertRepo:     alertRepo,
	}
}

// Execute runs the function without transaction semantics
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BatchRepo returns the batch repository
func (s *NoOpTransactionScope) BatchRepo() inventory.BatchRepository { return s.batchRepo }

// StockItemRepo returns the stock item repository
func (s *NoOpTransactionScope) StockItemRepo() inventory.StockItemRepository { return s.stockItemRepo }

// TransactionRepo returns the ledger repository
func (s *NoOpTransactionScope) TransactionRepo() inventory.TransactionRepository { return s.txRepo }

// AlertRepo returns the alert repository
func (s *NoOpTransactionScope) AlertRepo() inventory.AlertRepository { return s.alertRepo }
