package reconciler

import (
	"ledgerflow/internal/domain"
	"ledgerflow/pkg/logger"
)

// MergeAction distinguishes the kinds of store writes a merge can request:
// a brand-new transaction, a re-sequencing of one already present, or the
// removal of a stored transaction that a diverged-pairing resolution has
// matched against a fetched replacement (see diverged.go).
type MergeAction string

const (
	Insert MergeAction = "insert"
	Update MergeAction = "update"
	Remove MergeAction = "remove"
)

// MergeOp is one write the store must apply to reconcile its state with
// the freshly fetched log.
type MergeOp struct {
	Action      MergeAction
	Transaction domain.Transaction
}

// Merge reconciles `stored` (the log's transactions already in the store,
// ordered by ascending Seq) against `fetched` (the provider's current
// view of the same log, in provider order) and returns the ordered writes
// needed to bring the store in line. It implements, via one LCS edit
// script, every case spec.md names for the store merge:
//
//   - empty store, fetched non-empty: every element is an insert.
//   - append-tail: the fetched log is stored's prefix plus new entries;
//     the diff is all equals followed by inserts.
//   - prepend-head: new entries appear before stored's first transaction;
//     inserts appear first and every stored transaction is re-sequenced.
//   - diverged-no-match: a stored transaction is absent from the fetched
//     log before every fetched transaction has been accounted for, and is
//     never later paired against an invalid fetched record — returns a
//     *DivergedHistory error.
//   - diverged-pairing: a stored-only transaction still flagged
//     status_flags.invalid is later matched, by date and amount, against
//     an invalid fetched-only transaction — emits remove(stored) and
//     drops the fetched record rather than inserting it or raising
//     DivergedHistory. More than one same-date/amount candidate raises
//     DivergedHistory instead, since the pairing would be ambiguous.
//   - overlap-with-matches: insertions/deletions appear in the interior of
//     the log, all equal and delete ops at or after the overlap get their
//     Seq bumped to stay contiguous.
//   - empty overlap: fetched and stored share no transactions at all; every
//     stored transaction would be reported diverged, since none of it
//     appears before the fetched log is exhausted.
//
// Grounded on database/io.py's select_new_transactions.
func Merge(fp Fingerprint, logKind, identifier string, stored, fetched []domain.Transaction) ([]MergeOp, error) {
	if len(fetched) == 0 {
		return nil, nil
	}

	fetchedByFp := make(map[string]domain.Transaction, len(fetched))
	fetchedFps := make([]string, len(fetched))
	for i, t := range fetched {
		f := fp(t)
		fetchedByFp[f] = t
		fetchedFps[i] = f
	}

	storedByFp := make(map[string]domain.Transaction, len(stored))
	storedFps := make([]string, len(stored))
	for i, t := range stored {
		f := fp(t)
		storedByFp[f] = t
		storedFps[i] = f
	}

	ops := lcsDiff(storedFps, fetchedFps)
	lastFetchedFp := fetchedFps[len(fetchedFps)-1]

	var results []MergeOp
	var diverged []domain.Transaction
	nextSeq := 0
	sequenceChangeNeeded := false
	allFetchedProcessed := false

	for _, op := range ops {
		if op.Value == lastFetchedFp {
			allFetchedProcessed = true
		}

		switch op.Tag {
		case tagInsert:
			txn := fetchedByFp[op.Value]
			if txn.StatusFlags.Invalid {
				candidates := pairCandidates(diverged, txn)
				switch len(candidates) {
				case 0:
					// No pending diverged entry to pair against: skip,
					// per spec.md's diff procedure.
				case 1:
					match := candidates[0]
					results = append(results, MergeOp{Remove, match})
					diverged = removeDiverged(diverged, match.Seq)
					logger.GetLogger().WithFields(map[string]any{
						"date":   txn.TransactionDate,
						"amount": txn.Amount.String(),
					}).Warn("reconciler: paired invalid status_flags transaction against pending stored entry")
				default:
					return nil, &DivergedHistory{LogKind: logKind, Identifier: identifier, Seq: candidates[0].Seq}
				}
				break
			}
			txn.Seq = nextSeq
			results = append(results, MergeOp{Insert, txn})
			nextSeq++
			sequenceChangeNeeded = true

		case tagEqual:
			if !sequenceChangeNeeded {
				nextSeq = storedByFp[op.Value].Seq + 1
			} else {
				updated := storedByFp[op.Value]
				updated.Seq = nextSeq
				results = append(results, MergeOp{Update, updated})
				nextSeq++
			}

		case tagDelete:
			switch {
			case allFetchedProcessed && sequenceChangeNeeded:
				updated := storedByFp[op.Value]
				updated.Seq = nextSeq
				results = append(results, MergeOp{Update, updated})
				nextSeq++
			case allFetchedProcessed && !sequenceChangeNeeded:
				// Trailing stored transactions beyond what fetched
				// reported; loop breaks below before reaching here again.
			default:
				diverged = append(diverged, storedByFp[op.Value])
			}
		}

		if allFetchedProcessed && !sequenceChangeNeeded {
			break
		}
	}

	if len(diverged) > 0 {
		return nil, &DivergedHistory{LogKind: logKind, Identifier: identifier, Seq: diverged[0].Seq}
	}

	return results, nil
}

// CountDuplicateSeqs implements I1's post-merge check: it returns how many
// Seq values occur more than once in ordered, which should always be zero
// once a merge's ops have been applied.
func CountDuplicateSeqs(ordered []domain.Transaction) int {
	seen := make(map[int]int, len(ordered))
	for _, t := range ordered {
		seen[t.Seq]++
	}
	duplicates := 0
	for _, count := range seen {
		if count > 1 {
			duplicates++
		}
	}
	return duplicates
}

// CheckBalanceContinuity verifies I6's balance continuity across an
// ordered account-log slice: round(prev.balance + next.amount, 2) must
// equal next.balance for every adjacent pair. Pass nil for credit-card or
// local-account slices that don't carry a running balance.
func CheckBalanceContinuity(logKind, identifier string, ordered []domain.Transaction) error {
	for i := 1; i < len(ordered); i++ {
		prev, next := ordered[i-1], ordered[i]
		if prev.Balance == nil || next.Balance == nil {
			continue
		}
		expected := prev.Balance.Add(next.Amount).Round(2)
		if !expected.Equal(next.Balance.Round(2)) {
			return &ConsistencyFailure{LogKind: logKind, Identifier: identifier, Seq: next.Seq}
		}
	}
	return nil
}
