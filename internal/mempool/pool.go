// Package mempool implements the bounded, fee-priority pool of pending
// transactions described by the ledger simulator.
package mempool

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// Admission errors.
var (
	ErrAlreadyExists = errors.New("mempool: transaction already admitted")
	ErrFull          = errors.New("mempool: full and incoming fee does not exceed the lowest entry")
)

// entry pairs an admitted transaction with its admission time, used for
// expiry cleanup and for Stats' oldest_age.
type entry struct {
	tx         *tx.Transaction
	admittedAt time.Time
}

// Pool is a bounded set of pending transactions, unique by hash, evicted by
// lowest fee on overflow.
type Pool struct {
	mu      sync.Mutex
	maxSize int
	expiry  time.Duration
	entries map[types.Hash]*entry
}

// New creates an empty pool bounded to maxSize entries, with entries older
// than expiry eligible for cleanup.
func New(maxSize int, expiry time.Duration) *Pool {
	return &Pool{
		maxSize: maxSize,
		expiry:  expiry,
		entries: make(map[types.Hash]*entry),
	}
}

// Add admits a transaction. Duplicates (by hash) are rejected. If the pool
// is full, expired entries are cleaned up first; if still full, the
// incoming transaction replaces the lowest-fee entry only if its fee
// strictly exceeds that entry's fee — a tie is rejected, not evicted.
func (p *Pool) Add(t *tx.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := t.Hash()
	if _, exists := p.entries[h]; exists {
		return ErrAlreadyExists
	}

	if len(p.entries) >= p.maxSize {
		p.cleanupExpiredLocked()
	}

	if len(p.entries) >= p.maxSize {
		lowestHash, lowestFee, ok := p.findLowestFeeLocked()
		if !ok || t.Fee <= lowestFee {
			return ErrFull
		}
		delete(p.entries, lowestHash)
	}

	p.entries[h] = &entry{tx: t, admittedAt: time.Now()}
	return nil
}

// Remove drops a transaction by hash. It is a no-op if absent.
func (p *Pool) Remove(h types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, h)
}

// RemoveMany drops several transactions by hash.
func (p *Pool) RemoveMany(hashes []types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range hashes {
		delete(p.entries, h)
	}
}

// Has reports whether a transaction with the given hash is currently
// admitted.
func (p *Pool) Has(h types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[h]
	return ok
}

// Get returns the transaction with the given hash, if admitted.
func (p *Pool) Get(h types.Hash) (*tx.Transaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[h]
	if !ok {
		return nil, false
	}
	return e.tx, true
}

// Count returns the number of admitted transactions.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Top returns up to n admitted transactions sorted descending by fee. Ties
// break on insertion order (no stable secondary key is mandated).
func (p *Pool) Top(n int) []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	all := make([]*entry, 0, len(p.entries))
	for _, e := range p.entries {
		all = append(all, e)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].tx.Fee != all[j].tx.Fee {
			return all[i].tx.Fee > all[j].tx.Fee
		}
		return all[i].admittedAt.Before(all[j].admittedAt)
	})

	if n > len(all) {
		n = len(all)
	}
	out := make([]*tx.Transaction, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].tx
	}
	return out
}

// CleanupExpired removes entries older than expiry and returns the count
// removed.
func (p *Pool) CleanupExpired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cleanupExpiredLocked()
}

func (p *Pool) cleanupExpiredLocked() int {
	if p.expiry <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-p.expiry)
	removed := 0
	for h, e := range p.entries {
		if e.admittedAt.Before(cutoff) {
			delete(p.entries, h)
			removed++
		}
	}
	return removed
}

// findLowestFeeLocked returns the hash and fee of the lowest-fee entry. The
// caller must hold p.mu.
func (p *Pool) findLowestFeeLocked() (types.Hash, float64, bool) {
	var (
		lowestHash types.Hash
		lowestFee  float64
		found      bool
	)
	for h, e := range p.entries {
		if !found || e.tx.Fee < lowestFee {
			lowestHash = h
			lowestFee = e.tx.Fee
			found = true
		}
	}
	return lowestHash, lowestFee, found
}
