// Package reconciler merges a freshly fetched provider log against the
// transactions already in the store, using the same fingerprint-and-diff
// approach as database/io.py's select_new_transactions, now expressed as
// an explicit LCS-based edit script instead of Python's difflib.Differ.
package reconciler

import "fmt"

// DivergedHistory is raised when a transaction present in the store is no
// longer present anywhere in the freshly fetched log, and isn't explained
// by a still-pending fetch window — the bank's reported history no longer
// contains a transaction we previously recorded. Grounded on
// database/io.py's DatabaseMatchError('transaction history has diverged').
type DivergedHistory struct {
	LogKind    string
	Identifier string
	Seq        int
}

func (e *DivergedHistory) Error() string {
	return fmt.Sprintf("reconciler: %s/%s history has diverged at seq %d", e.LogKind, e.Identifier, e.Seq)
}

// ConsistencyFailure is raised when two adjacent account-log transactions
// don't satisfy balance continuity (round(prev.balance+next.amount, 2) !=
// next.balance).
type ConsistencyFailure struct {
	LogKind    string
	Identifier string
	Seq        int
}

func (e *ConsistencyFailure) Error() string {
	return fmt.Sprintf("reconciler: %s/%s balance continuity broken at seq %d", e.LogKind, e.Identifier, e.Seq)
}

// MatchAmbiguity is raised when a fingerprint lookup against the store
// returns more than one candidate, meaning two distinct stored
// transactions share the same (date, amount, balance/type) identity.
// Grounded on database/io.py's DatabaseMatchError('Found more than one
// match for a transaction, check the algorithm').
type MatchAmbiguity struct {
	LogKind     string
	Identifier  string
	Fingerprint string
	Count       int
}

func (e *MatchAmbiguity) Error() string {
	return fmt.Sprintf("reconciler: %s/%s fingerprint %q matched %d stored transactions", e.LogKind, e.Identifier, e.Fingerprint, e.Count)
}
