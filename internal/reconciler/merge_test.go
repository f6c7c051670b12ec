package reconciler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerflow/internal/domain"
)

// creditCardTxn builds a minimal credit-card-log transaction for the merge
// scenarios, defined in terms of the credit-card log's
// (transaction_date, value_date, amount, type) fingerprint only.
func creditCardTxn(seq int, date string, amount float64, invalid bool) domain.Transaction {
	return creditCardTxnDated(seq, date, date, amount, invalid)
}

// creditCardTxnDated is creditCardTxn with an independently settable
// value_date, used by the diverged-pairing tests: pairCandidates matches
// on (transaction_date, amount) alone, so a placeholder and its settled
// replacement can share those while differing in value_date (and
// therefore fingerprint) enough for the diff to treat them as distinct
// entries rather than an already-matched equal pair.
func creditCardTxnDated(seq int, transactionDate, valueDate string, amount float64, invalid bool) domain.Transaction {
	td, err := time.Parse("2006-01-02T15:04", transactionDate)
	if err != nil {
		panic(err)
	}
	vd, err := time.Parse("2006-01-02T15:04", valueDate)
	if err != nil {
		panic(err)
	}
	return domain.Transaction{
		Kind:            domain.KindCreditCard,
		Type:            domain.Purchase,
		Amount:          decimal.NewFromFloat(amount),
		TransactionDate: td,
		ValueDate:       vd,
		Seq:             seq,
		StatusFlags:     domain.StatusFlags{Invalid: invalid},
	}
}

func seqs(ops []MergeOp) []int {
	out := make([]int, len(ops))
	for i, op := range ops {
		out[i] = op.Transaction.Seq
	}
	return out
}

func actions(ops []MergeOp) []MergeAction {
	out := make([]MergeAction, len(ops))
	for i, op := range ops {
		out[i] = op.Action
	}
	return out
}

// TestMerge_S1_EmptyStoreInsertion covers S1: merging into an empty log
// inserts every fetched transaction, sequenced from zero.
func TestMerge_S1_EmptyStoreInsertion(t *testing.T) {
	fetched := []domain.Transaction{
		creditCardTxn(0, "2019-01-01T00:00", -1.0, false),
		creditCardTxn(0, "2019-01-01T01:00", -2.0, false),
		creditCardTxn(0, "2019-01-02T00:00", -3.0, false),
	}

	ops, err := Merge(CreditCardFingerprint, "credit_card", "card-1", nil, fetched)

	require.NoError(t, err)
	assert.Equal(t, []MergeAction{Insert, Insert, Insert}, actions(ops))
	assert.Equal(t, []int{0, 1, 2}, seqs(ops))
}

// TestMerge_S2_AppendToTail covers S2: the fetched log repeats the stored
// prefix and appends three new entries, which land at seqs 3..5.
func TestMerge_S2_AppendToTail(t *testing.T) {
	jan0 := creditCardTxn(0, "2019-01-01T00:00", -1.0, false)
	jan1 := creditCardTxn(1, "2019-01-01T01:00", -2.0, false)
	jan2 := creditCardTxn(2, "2019-01-02T00:00", -3.0, false)
	stored := []domain.Transaction{jan0, jan1, jan2}

	feb0 := creditCardTxn(0, "2019-02-01T00:00", -4.0, false)
	feb1 := creditCardTxn(0, "2019-02-01T01:00", -5.0, false)
	feb2 := creditCardTxn(0, "2019-02-02T00:00", -6.0, false)
	fetched := []domain.Transaction{jan0, jan1, jan2, feb0, feb1, feb2}

	ops, err := Merge(CreditCardFingerprint, "credit_card", "card-1", stored, fetched)

	require.NoError(t, err)
	assert.Equal(t, []MergeAction{Insert, Insert, Insert}, actions(ops))
	assert.Equal(t, []int{3, 4, 5}, seqs(ops))
}

// TestMerge_S3_PrependToHead covers S3: new entries appear before the
// stored log's first transaction, so every stored entry is re-sequenced.
func TestMerge_S3_PrependToHead(t *testing.T) {
	feb0 := creditCardTxn(0, "2019-02-01T00:00", -4.0, false)
	feb1 := creditCardTxn(1, "2019-02-01T01:00", -5.0, false)
	feb2 := creditCardTxn(2, "2019-02-02T00:00", -6.0, false)
	stored := []domain.Transaction{feb0, feb1, feb2}

	jan0 := creditCardTxn(0, "2019-01-01T00:00", -1.0, false)
	jan1 := creditCardTxn(0, "2019-01-01T01:00", -2.0, false)
	jan2 := creditCardTxn(0, "2019-01-02T00:00", -3.0, false)
	fetched := []domain.Transaction{jan0, jan1, jan2, feb0, feb1, feb2}

	ops, err := Merge(CreditCardFingerprint, "credit_card", "card-1", stored, fetched)

	require.NoError(t, err)
	require.Len(t, ops, 6)
	assert.Equal(t, []MergeAction{Insert, Insert, Insert, Update, Update, Update}, actions(ops))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, seqs(ops))
}

// TestMerge_S4_IdenticalFetchIsIdempotent covers S4: re-fetching the exact
// same log produces no writes at all.
func TestMerge_S4_IdenticalFetchIsIdempotent(t *testing.T) {
	stored := []domain.Transaction{
		creditCardTxn(0, "2019-01-01T00:00", -1.0, false),
		creditCardTxn(1, "2019-01-01T01:00", -2.0, false),
		creditCardTxn(2, "2019-01-02T00:00", -3.0, false),
		creditCardTxn(3, "2019-02-01T00:00", -4.0, false),
		creditCardTxn(4, "2019-02-01T01:00", -5.0, false),
		creditCardTxn(5, "2019-02-02T00:00", -6.0, false),
	}

	ops, err := Merge(CreditCardFingerprint, "credit_card", "card-1", stored, stored)

	require.NoError(t, err)
	assert.Empty(t, ops)
}

// TestMerge_S5_DivergedMiddleFails covers S5: a stored transaction in the
// middle of the log is missing from the fetched log and cannot be paired
// against anything invalid, so Merge reports DivergedHistory pointing at
// the stored record and returns no ops at all.
func TestMerge_S5_DivergedMiddleFails(t *testing.T) {
	first := creditCardTxn(3, "2019-02-01T00:00", -4.0, false)
	stale := creditCardTxn(4, "2019-02-01T01:00", -5.0, false)
	last := creditCardTxn(5, "2019-02-02T00:00", -6.0, false)
	stored := []domain.Transaction{first, stale, last}

	corrected := creditCardTxn(0, "2019-02-01T01:00", -5.5, false)
	fetched := []domain.Transaction{first, corrected, last}

	ops, err := Merge(CreditCardFingerprint, "credit_card", "card-1", stored, fetched)

	require.Nil(t, ops)
	require.Error(t, err)
	var diverged *DivergedHistory
	require.ErrorAs(t, err, &diverged)
	assert.Equal(t, stale.Seq, diverged.Seq)
}

// TestMerge_DivergedPairing covers the invalid-pairing case §4.4 adds to
// the diff procedure: a stored entry still flagged status_flags.invalid
// that later matches an invalid fetched entry by date and amount is
// removed rather than raising DivergedHistory, and the fetched replacement
// is discarded rather than inserted.
func TestMerge_DivergedPairing(t *testing.T) {
	pending := creditCardTxnDated(3, "2019-03-01T00:00", "2019-03-01T00:00", -10.0, true)
	stored := []domain.Transaction{pending}

	settled := creditCardTxnDated(0, "2019-03-01T00:00", "2019-03-02T00:00", -10.0, true)
	fetched := []domain.Transaction{settled}

	ops, err := Merge(CreditCardFingerprint, "credit_card", "card-1", stored, fetched)

	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, Remove, ops[0].Action)
	assert.Equal(t, pending.Seq, ops[0].Transaction.Seq)
}

// TestMerge_DivergedPairing_Ambiguous covers the ">1 candidate" branch of
// the same rule: more than one pending diverged entry shares the invalid
// fetched record's date and amount, so the pairing is ambiguous and Merge
// raises DivergedHistory instead of guessing which one to remove.
func TestMerge_DivergedPairing_Ambiguous(t *testing.T) {
	pendingA := creditCardTxnDated(3, "2019-03-01T00:00", "2019-03-01T00:00", -10.0, true)
	pendingA2 := creditCardTxnDated(4, "2019-03-01T00:00", "2019-03-09T00:00", -10.0, true)
	stored := []domain.Transaction{pendingA, pendingA2}

	// Both pending entries share the same (transaction_date, amount), so a
	// single invalid fetched record matching that pair is ambiguous.
	settled := creditCardTxnDated(0, "2019-03-01T00:00", "2019-03-15T00:00", -10.0, true)
	fetched := []domain.Transaction{settled}

	_, err := Merge(CreditCardFingerprint, "credit_card", "card-1", stored, fetched)

	require.Error(t, err)
	var diverged *DivergedHistory
	require.ErrorAs(t, err, &diverged)
	assert.Equal(t, pendingA.Seq, diverged.Seq)
}

// TestMerge_EmptyFetchedIsNoOp covers the degenerate case the function
// short-circuits on: nothing fetched means nothing to merge.
func TestMerge_EmptyFetchedIsNoOp(t *testing.T) {
	stored := []domain.Transaction{creditCardTxn(0, "2019-01-01T00:00", -1.0, false)}

	ops, err := Merge(CreditCardFingerprint, "credit_card", "card-1", stored, nil)

	require.NoError(t, err)
	assert.Nil(t, ops)
}

// TestCountDuplicateSeqs exercises P1/P3's post-merge invariant check: the
// ordered log a successful merge produces should never carry a repeated
// Seq.
func TestCountDuplicateSeqs(t *testing.T) {
	clean := []domain.Transaction{
		creditCardTxn(0, "2019-01-01T00:00", -1.0, false),
		creditCardTxn(1, "2019-01-01T01:00", -2.0, false),
	}
	assert.Equal(t, 0, CountDuplicateSeqs(clean))

	dirty := []domain.Transaction{
		creditCardTxn(0, "2019-01-01T00:00", -1.0, false),
		creditCardTxn(0, "2019-01-01T01:00", -2.0, false),
		creditCardTxn(1, "2019-01-02T00:00", -3.0, false),
	}
	assert.Equal(t, 1, CountDuplicateSeqs(dirty))
}

// TestCheckBalanceContinuity exercises P2: adjacent account-log balances
// must satisfy round(prev.balance + next.amount, 2) == next.balance.
func TestCheckBalanceContinuity(t *testing.T) {
	bal := func(v float64) *decimal.Decimal {
		d := decimal.NewFromFloat(v)
		return &d
	}

	ok := []domain.Transaction{
		{Seq: 0, Amount: decimal.NewFromFloat(-10), Balance: bal(90)},
		{Seq: 1, Amount: decimal.NewFromFloat(5), Balance: bal(95)},
	}
	assert.NoError(t, CheckBalanceContinuity("account", "acc-1", ok))

	broken := []domain.Transaction{
		{Seq: 0, Amount: decimal.NewFromFloat(-10), Balance: bal(90)},
		{Seq: 1, Amount: decimal.NewFromFloat(5), Balance: bal(999)},
	}
	err := CheckBalanceContinuity("account", "acc-1", broken)
	require.Error(t, err)
	var failure *ConsistencyFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 1, failure.Seq)
}
