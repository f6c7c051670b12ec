package reconciler

import (
	"fmt"

	"ledgerflow/internal/domain"
)

// Fingerprint is a stable identity string for a transaction within one
// provider fetch, used both to diff a fetched batch against the store and
// to look an individual transaction up by (date, amount, ...) when no
// transaction_id is available. The two log kinds use different tuples
// because the credit-card log carries no running balance.
type Fingerprint func(domain.Transaction) string

// AccountFingerprint identifies an account-log transaction by
// (transaction_date, value_date, amount, balance).
func AccountFingerprint(t domain.Transaction) string {
	balance := "nil"
	if t.Balance != nil {
		balance = t.Balance.String()
	}
	return fmt.Sprintf("%s|%s|%s|%s",
		t.TransactionDate.Format("2006-01-02"),
		t.ValueDate.Format("2006-01-02"),
		t.Amount.String(),
		balance,
	)
}

// CreditCardFingerprint identifies a credit-card-log transaction by
// (transaction_date, value_date, amount, type).
func CreditCardFingerprint(t domain.Transaction) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		t.TransactionDate.Format("2006-01-02"),
		t.ValueDate.Format("2006-01-02"),
		t.Amount.String(),
		string(t.Type),
	)
}

// LocalAccountFingerprint reuses the account-log fingerprint unchanged, per
// SPEC_FULL.md §9: (transaction_date, value_date, amount, balance), taking
// value_date from the transaction's own ValueDate field.
func LocalAccountFingerprint(t domain.Transaction) string {
	return AccountFingerprint(t)
}

// FingerprintFor returns the Fingerprint function for a log kind.
func FingerprintFor(kind domain.Kind) Fingerprint {
	switch kind {
	case domain.KindCreditCard:
		return CreditCardFingerprint
	case domain.KindLocalAccount:
		return LocalAccountFingerprint
	default:
		return AccountFingerprint
	}
}
