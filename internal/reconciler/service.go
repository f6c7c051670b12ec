package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/rules"
	"ledgerflow/internal/store"
	"ledgerflow/pkg/logger"
)

// Service orchestrates one log's update: applying the rule engine to
// freshly fetched transactions, diffing them against the store with
// Merge, pairing any diverged-invalid entries, writing the resulting
// MergeOps back, and checking balance continuity. Its validate-then-
// delegate shape is adapted from
// a validate-then-delegate transaction service, whose
// Create/BulkCreate validation pipeline is replaced here by the
// reconciliation pipeline the new domain actually needs (see DESIGN.md's
// "Dropped/adapted teacher modules").
type Service struct {
	store   store.Store
	locks   *store.LockRegistry
	rulesMu sync.RWMutex
	rules   []rules.Rule
	notify  func(ctx context.Context, msg string)
}

// NewService wires a store, its lock registry, and the active rule set.
// notify is called with a one-line message whenever a log is found
// diverged or an inconsistency is detected; pass nil to skip notification.
func NewService(s store.Store, locks *store.LockRegistry, ruleset []rules.Rule, notify func(ctx context.Context, msg string)) *Service {
	if notify == nil {
		notify = func(context.Context, string) {}
	}
	return &Service{store: s, locks: locks, rules: ruleset, notify: notify}
}

// SetRules replaces the active rule set, picked up by the next Apply call,
// since rule definitions may be edited between scheduler runs without a
// service restart.
func (s *Service) SetRules(ruleset []rules.Rule) {
	s.rulesMu.Lock()
	defer s.rulesMu.Unlock()
	s.rules = ruleset
}

func (s *Service) activeRules() []rules.Rule {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()
	return s.rules
}

// ApplyResult reports how many of each kind of write Apply made: removed,
// inserted, and updated counts from the merge outcome.
type ApplyResult struct {
	Removed int
	Inserted int
	Updated int
}

// Apply runs the full per-log update pipeline against a freshly fetched
// batch of provider transactions, in provider order, for one account or
// card log. Invalid-status pairing (remove a superseded placeholder,
// discard its consolidated replacement) happens inline inside Merge; Apply
// only needs to execute whatever ops Merge returns.
func (s *Service) Apply(ctx context.Context, log store.LogKey, fetched []domain.Transaction) (ApplyResult, error) {
	lock := s.locks.For(log)
	lock.Lock()
	defer lock.Unlock()

	var result ApplyResult

	stored, err := s.store.Find(ctx, log)
	if err != nil {
		return result, fmt.Errorf("reconciler: loading stored log %s/%s: %w", log.Kind, log.Identifier, err)
	}

	active := s.activeRules()
	processed := make([]domain.Transaction, len(fetched))
	for i, t := range fetched {
		processed[i] = rules.ApplyRulesToTransaction(active, t)
	}

	fp := FingerprintFor(log.Kind)

	ops, err := Merge(fp, string(log.Kind), log.Identifier, stored, processed)
	if err != nil {
		s.notify(ctx, err.Error())
		return result, err
	}

	for _, op := range ops {
		switch op.Action {
		case Insert:
			if err := s.store.Insert(ctx, log, op.Transaction); err != nil {
				return result, fmt.Errorf("reconciler: inserting into %s/%s: %w", log.Kind, log.Identifier, err)
			}
			result.Inserted++
		case Update:
			if err := s.store.Update(ctx, log, op.Transaction); err != nil {
				return result, fmt.Errorf("reconciler: updating %s/%s: %w", log.Kind, log.Identifier, err)
			}
			result.Updated++
		case Remove:
			if err := s.store.Remove(ctx, log, op.Transaction.Seq); err != nil {
				return result, fmt.Errorf("reconciler: removing from %s/%s: %w", log.Kind, log.Identifier, err)
			}
			result.Removed++
		}
	}

	final, err := s.store.Find(ctx, log)
	if err != nil {
		return result, err
	}

	if dup := CountDuplicateSeqs(final); dup > 0 {
		msg := fmt.Sprintf("reconciler: %s/%s has %d duplicate seq values after merge", log.Kind, log.Identifier, dup)
		logger.GetLogger().WithFields(map[string]any{"kind": log.Kind, "identifier": log.Identifier, "duplicates": dup}).Warn(msg)
		s.notify(ctx, msg)
	}

	if count, err := s.store.Count(ctx, log); err != nil {
		logger.GetLogger().WithError(err).WithFields(map[string]any{"kind": log.Kind, "identifier": log.Identifier}).Warn("reconciler: count check failed")
	} else if count != len(final) {
		msg := fmt.Sprintf("reconciler: %s/%s store reports %d documents but Find returned %d", log.Kind, log.Identifier, count, len(final))
		logger.GetLogger().WithFields(map[string]any{"kind": log.Kind, "identifier": log.Identifier}).Warn(msg)
		s.notify(ctx, msg)
	}

	continuitySlice := final
	if affectedSeq, ok := lowestAffectedSeq(ops); ok && affectedSeq > 0 {
		if tail, err := s.store.FindMatching(ctx, log, affectedSeq-1); err == nil {
			continuitySlice = tail
		}
	}

	if err := CheckBalanceContinuity(string(log.Kind), log.Identifier, continuitySlice); err != nil {
		logger.GetLogger().WithError(err).WithFields(map[string]any{"kind": log.Kind, "identifier": log.Identifier}).Warn("reconciler: balance continuity check failed")
		s.notify(ctx, err.Error())
	}

	return result, nil
}

// lowestAffectedSeq returns the smallest Seq any merge op touched, used to
// bound CheckBalanceContinuity to the changed tail of the log plus one
// anchor record instead of re-scanning the whole thing on every run.
func lowestAffectedSeq(ops []MergeOp) (int, bool) {
	if len(ops) == 0 {
		return 0, false
	}
	lowest := ops[0].Transaction.Seq
	for _, op := range ops[1:] {
		if op.Transaction.Seq < lowest {
			lowest = op.Transaction.Seq
		}
	}
	return lowest, true
}

// LastDate exposes the store's last-known transaction date for log, used by
// the ingest layer to bound how far back it asks the provider session to
// fetch.
func (s *Service) LastDate(ctx context.Context, log store.LogKey) (time.Time, bool, error) {
	return s.store.LastDate(ctx, log)
}
