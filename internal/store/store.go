package store

import (
	"context"
	"time"

	"ledgerflow/internal/domain"
)

// LogKey identifies one of the store's logical collections: the account
// log, the credit-card log, or the local-account log, each keyed by its
// owning account/card identifier. access-code mailboxes (the
// *_access_codes collections in spec.md §6) are addressed the same way.
type LogKey struct {
	Kind       domain.Kind
	Identifier string
}

// Store is the persistence interface C5 names: find/find_one/find_matching
// style queries plus insert/update/remove and a last-date lookup used to
// bound a provider fetch window. Both the in-memory and the Postgres-backed
// implementation satisfy it, so the reconciler and the rest of the system
// are storage-agnostic. Grounded on
// a repository-interface style, generalized
// from a flat SQL table to a per-log JSON document collection.
type Store interface {
	// Find returns every transaction in log ordered by ascending Seq.
	Find(ctx context.Context, log LogKey) ([]domain.Transaction, error)
	// FindOne returns the single stored transaction matching fingerprint,
	// or ok=false if none does. Returns *reconciler.MatchAmbiguity-shaped
	// errors via the err return when more than one document matches.
	FindOne(ctx context.Context, log LogKey, fingerprint string, fingerprintOf func(domain.Transaction) string) (domain.Transaction, bool, error)
	// FindMatching returns every stored transaction in log with Seq >= fromSeq.
	FindMatching(ctx context.Context, log LogKey, fromSeq int) ([]domain.Transaction, error)
	// Count returns the number of transactions stored for log.
	Count(ctx context.Context, log LogKey) (int, error)
	// Insert appends a new transaction document to log.
	Insert(ctx context.Context, log LogKey, t domain.Transaction) error
	// Update overwrites the stored transaction at t.Seq within log.
	Update(ctx context.Context, log LogKey, t domain.Transaction) error
	// Remove deletes the transaction at seq within log, if present.
	Remove(ctx context.Context, log LogKey, seq int) error
	// LastDate returns the transaction_date of the last (highest-Seq)
	// transaction stored for log, used to bound the next provider fetch
	// window — mirrors database/runtime.py's
	// last_account_transaction_date.
	LastDate(ctx context.Context, log LogKey) (time.Time, bool, error)
}

