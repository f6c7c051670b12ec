// Package domain holds the canonical transaction model shared by the
// parser, rule engine, reconciler and store.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of movement kinds a provider parser can
// classify a raw record into.
type TransactionType string

const (
	IssuedTransfer            TransactionType = "ISSUED_TRANSFER"
	ReceivedTransfer          TransactionType = "RECEIVED_TRANSFER"
	BankCommission            TransactionType = "BANK_COMMISSION"
	BankCommissionReturn      TransactionType = "BANK_COMMISSION_RETURN"
	MortgageReceipt           TransactionType = "MORTGAGE_RECEIPT"
	DomiciledReceipt          TransactionType = "DOMICILED_RECEIPT"
	ReturnDeposit             TransactionType = "RETURN_DEPOSIT"
	CreditCardInvoice         TransactionType = "CREDIT_CARD_INVOICE"
	CreditCardInvoicePayment  TransactionType = "CREDIT_CARD_INVOICE_PAYMENT"
	Purchase                  TransactionType = "PURCHASE"
	PurchaseReturn            TransactionType = "PURCHASE_RETURN"
	ATMWithdrawal             TransactionType = "ATM_WITHDRAWAL"
	UnknownType               TransactionType = "UNKNOWN"
)

// TransactionDirection tells whether a raw amount charges or credits the
// account it was fetched for, before any sign normalization.
type TransactionDirection string

const (
	Charge TransactionDirection = "CHARGE"
	Income TransactionDirection = "INCOME"
)

// DataOrigin tags which stage last wrote a mutable field: the original
// parse, the rule engine, or a manual user edit. The rule engine does not
// consult a field's origin before writing it, and marks every field it
// writes as Rules.
type DataOrigin string

const (
	Original DataOrigin = "ORIGINAL"
	Rules    DataOrigin = "RULES"
	User     DataOrigin = "USER"
)

// Kind distinguishes which logical log a transaction belongs to, since the
// account log, credit-card log and local-account log have different
// fingerprints and continuity requirements.
type Kind string

const (
	KindAccount      Kind = "account"
	KindCreditCard   Kind = "credit_card"
	KindLocalAccount Kind = "local_account"
)

// Flags records, per mutable field, which stage produced its current value.
type Flags struct {
	Type        DataOrigin `json:"type"`
	Source      DataOrigin `json:"source"`
	Destination DataOrigin `json:"destination"`
	Details     DataOrigin `json:"details"`
	Comment     DataOrigin `json:"comment"`
	Tags        DataOrigin `json:"tags"`
	Category    DataOrigin `json:"category"`
}

// NewFlags returns a Flags value with every field set to Original, the
// state a freshly parsed transaction starts in.
func NewFlags() Flags {
	return Flags{
		Type:        Original,
		Source:      Original,
		Destination: Original,
		Details:     Original,
		Comment:     Original,
		Tags:        Original,
		Category:    Original,
	}
}

// StatusFlags carries provider-reported validity hints that survive into
// the store (e.g. a credit-card movement still pending consolidation) plus
// the reconciler's own duplicate marker: ValidDuplicate is set on a
// transaction that legitimately repeats another's fingerprint (e.g. two
// identical same-day purchases) so find_matching-style lookups can skip it
// rather than treating it as an ambiguous match.
type StatusFlags struct {
	Invalid        bool `json:"invalid"`
	ValidDuplicate bool `json:"valid_duplicate"`
}

// Category is a node in the flat, parent-by-id category tree loaded from
// configuration; there are no parent pointers, only parent ids.
type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

// RelatedTransaction cross-references a transaction on another log, used to
// link a credit-card invoice charge with the account-log entry it offsets.
type RelatedTransaction struct {
	AccountType   Kind   `json:"account_type"`
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id"`
}

// Transaction is the single canonical record that flows through the
// parser, rule engine and reconciler regardless of which provider or log it
// originated from. Not every field applies to every Kind: Balance is unset
// for credit-card transactions, TransactionID is unset for local-account
// transactions, see spec.md §3 for the per-kind applicability table.
type Transaction struct {
	Kind            Kind                 `json:"kind"`
	TransactionID   string               `json:"transaction_id,omitempty"`
	Type            TransactionType      `json:"type"`
	Currency        string               `json:"currency"`
	Amount          decimal.Decimal      `json:"amount"`
	Balance         *decimal.Decimal     `json:"balance,omitempty"`
	ValueDate       time.Time            `json:"value_date"`
	TransactionDate time.Time            `json:"transaction_date"`
	Source          Subject              `json:"source"`
	Destination     Subject              `json:"destination"`
	Account         *Account             `json:"account,omitempty"`
	LocalAccount    *LocalAccount        `json:"local_account,omitempty"`
	Card            *Card                `json:"card,omitempty"`
	Details         map[string]any       `json:"details"`
	Keywords        []string             `json:"keywords"`
	Comment         string               `json:"comment"`
	Category        *Category            `json:"category,omitempty"`
	Tags            []string             `json:"tags"`
	Flags           Flags                `json:"flags"`
	StatusFlags     StatusFlags          `json:"status_flags"`
	Subtransactions []Transaction        `json:"subtransactions,omitempty"`
	Related         *RelatedTransaction  `json:"related,omitempty"`
	Offset          *RelatedTransaction  `json:"offset,omitempty"`
	ID              string               `json:"_id,omitempty"`
	Seq             int                  `json:"_seq"`
}

// Clone deep-copies a transaction so the rule engine can compare a
// before/after pair by value without either mutating the other. Subject
// values are immutable once constructed, so only the mutable containers
// (Details, Keywords, Tags, Subtransactions) and the Category, Balance,
// Related and Offset pointers are copied; the Account, LocalAccount and
// Card pointers are shared with the original.
func (t Transaction) Clone() Transaction {
	clone := t

	if t.Details != nil {
		clone.Details = make(map[string]any, len(t.Details))
		for k, v := range t.Details {
			clone.Details[k] = v
		}
	}
	if t.Keywords != nil {
		clone.Keywords = append([]string(nil), t.Keywords...)
	}
	if t.Tags != nil {
		clone.Tags = append([]string(nil), t.Tags...)
	}
	if t.Subtransactions != nil {
		clone.Subtransactions = make([]Transaction, len(t.Subtransactions))
		for i, sub := range t.Subtransactions {
			clone.Subtransactions[i] = sub.Clone()
		}
	}
	if t.Category != nil {
		cat := *t.Category
		clone.Category = &cat
	}
	if t.Balance != nil {
		b := *t.Balance
		clone.Balance = &b
	}
	if t.Related != nil {
		r := *t.Related
		clone.Related = &r
	}
	if t.Offset != nil {
		o := *t.Offset
		clone.Offset = &o
	}
	return clone
}

// Equal reports whether two transactions carry the same observable state,
// the comparison the rule engine's fixed-point loop uses to decide whether
// another reprocessing pass is needed.
func (t Transaction) Equal(other Transaction) bool {
	if t.Type != other.Type || t.Comment != other.Comment ||
		!subjectsEqual(t.Source, other.Source) || !subjectsEqual(t.Destination, other.Destination) {
		return false
	}
	if (t.Category == nil) != (other.Category == nil) {
		return false
	}
	if t.Category != nil && *t.Category != *other.Category {
		return false
	}
	if len(t.Tags) != len(other.Tags) {
		return false
	}
	for i := range t.Tags {
		if t.Tags[i] != other.Tags[i] {
			return false
		}
	}
	if len(t.Details) != len(other.Details) {
		return false
	}
	for k, v := range t.Details {
		if other.Details[k] != v {
			return false
		}
	}
	return true
}
