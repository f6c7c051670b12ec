package reconciler

import "ledgerflow/internal/domain"

// pairCandidates returns every diverged (stored-only, still
// status_flags.invalid) entry accumulated so far in Merge's diff pass
// whose date and amount match invalidated, the identity spec.md's diff
// procedure uses to pair an invalid fetched transaction against the
// non-consolidated placeholder it supersedes. Zero candidates means skip
// the fetched record; exactly one means pair and remove it; more than one
// is an ambiguous pairing the caller raises DivergedHistory over.
func pairCandidates(pending []domain.Transaction, invalidated domain.Transaction) []domain.Transaction {
	var matches []domain.Transaction
	for _, candidate := range pending {
		if !candidate.StatusFlags.Invalid {
			continue
		}
		if candidate.TransactionDate.Equal(invalidated.TransactionDate) && candidate.Amount.Equal(invalidated.Amount) {
			matches = append(matches, candidate)
		}
	}
	return matches
}

// removeDiverged drops the entry at seq from the accumulated diverged
// list once it has been successfully paired and removed.
func removeDiverged(pending []domain.Transaction, seq int) []domain.Transaction {
	out := pending[:0:0]
	for _, t := range pending {
		if t.Seq != seq {
			out = append(out, t)
		}
	}
	return out
}
