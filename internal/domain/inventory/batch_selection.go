package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/hms/pharmacy/internal/domain/shared"
)

// SortFEFO orders batches first-expiry-first-out: earliest expiry date,
// then earliest received date, then batch id so the order is
// deterministic under ties.
func SortFEFO(batches []*Batch) {
	sort.Slice(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return a.ID.String() < b.ID.String()
	})
}

// SelectBatchFEFO picks the lot an unpinned consumption should draw
// from. A line is satisfied from exactly one batch, so the soonest
// expiring dispensable batch that covers the full quantity wins.
func SelectBatchFEFO(batches []*Batch, quantity int64, now time.Time) (*Batch, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "requested quantity must be positive")
	}

	candidates := make([]*Batch, 0, len(batches))
	for _, b := range batches {
		if b.IsDispensable(now) {
			candidates = append(candidates, b)
		}
	}
	SortFEFO(candidates)

	for _, b := range candidates {
		if b.Quantity >= quantity {
			return b, nil
		}
	}
	return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
		fmt.Sprintf("no single batch holds %d units", quantity))
}

// ExpiringWithin filters batches whose expiry falls inside the warning
// horizon and which still hold stock. Already expired batches are the
// sweep's business, not the warning's.
func ExpiringWithin(batches []*Batch, now time.Time, days int) []*Batch {
	out := make([]*Batch, 0)
	for _, b := range batches {
		if b.Status != BatchStatusAvailable || b.Quantity == 0 {
			continue
		}
		if b.IsExpired(now) {
			continue
		}
		if b.WillExpireWithin(now, days) {
			out = append(out, b)
		}
	}
	SortFEFO(out)
	return out
}
