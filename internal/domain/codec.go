package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// transactionAlias mirrors Transaction's JSON shape but swaps Subject for
// json.RawMessage so Source/Destination can be routed through
// (Un)MarshalSubjectJSON while every other field uses its default codec.
type transactionAlias struct {
	Kind            Kind                `json:"kind"`
	TransactionID   string              `json:"transaction_id,omitempty"`
	Type            TransactionType     `json:"type"`
	Currency        string              `json:"currency"`
	Amount          json.RawMessage     `json:"amount"`
	Balance         *json.RawMessage    `json:"balance,omitempty"`
	ValueDate       time.Time           `json:"value_date"`
	TransactionDate time.Time           `json:"transaction_date"`
	Source          json.RawMessage     `json:"source"`
	Destination     json.RawMessage     `json:"destination"`
	Account         *Account            `json:"account,omitempty"`
	LocalAccount    *LocalAccount       `json:"local_account,omitempty"`
	Card            *Card               `json:"card,omitempty"`
	Details         map[string]any      `json:"details"`
	Keywords        []string            `json:"keywords"`
	Comment         string              `json:"comment"`
	Category        *Category           `json:"category,omitempty"`
	Tags            []string            `json:"tags"`
	Flags           Flags               `json:"flags"`
	StatusFlags     StatusFlags         `json:"status_flags"`
	Subtransactions []Transaction       `json:"subtransactions,omitempty"`
	Related         *RelatedTransaction `json:"related,omitempty"`
	Offset          *RelatedTransaction `json:"offset,omitempty"`
	ID              string              `json:"_id,omitempty"`
	Seq             int                 `json:"_seq"`
}

// MarshalJSON encodes Source/Destination with the __type__ discriminator
// tag so a stored document round-trips back to the same concrete Subject
// variant it was written with (see internal/store for the collection-level
// encoding this feeds into).
func (t Transaction) MarshalJSON() ([]byte, error) {
	amount, err := json.Marshal(t.Amount)
	if err != nil {
		return nil, err
	}
	source, err := MarshalSubjectJSON(t.Source)
	if err != nil {
		return nil, err
	}
	destination, err := MarshalSubjectJSON(t.Destination)
	if err != nil {
		return nil, err
	}
	var balance *json.RawMessage
	if t.Balance != nil {
		b, err := json.Marshal(t.Balance)
		if err != nil {
			return nil, err
		}
		raw := json.RawMessage(b)
		balance = &raw
	}
	return json.Marshal(transactionAlias{
		Kind:            t.Kind,
		TransactionID:   t.TransactionID,
		Type:            t.Type,
		Currency:        t.Currency,
		Amount:          amount,
		Balance:         balance,
		ValueDate:       t.ValueDate,
		TransactionDate: t.TransactionDate,
		Source:          source,
		Destination:     destination,
		Account:         t.Account,
		LocalAccount:    t.LocalAccount,
		Card:            t.Card,
		Details:         t.Details,
		Keywords:        t.Keywords,
		Comment:         t.Comment,
		Category:        t.Category,
		Tags:            t.Tags,
		Flags:           t.Flags,
		StatusFlags:     t.StatusFlags,
		Subtransactions: t.Subtransactions,
		Related:         t.Related,
		Offset:          t.Offset,
		ID:              t.ID,
		Seq:             t.Seq,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON, resolving Source/Destination
// back to concrete Subject variants via their __type__ tag.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var alias transactionAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var amount decimal.Decimal
	if err := json.Unmarshal(alias.Amount, &amount); err != nil {
		return err
	}

	source, err := UnmarshalSubjectJSON(alias.Source)
	if err != nil {
		return err
	}
	destination, err := UnmarshalSubjectJSON(alias.Destination)
	if err != nil {
		return err
	}

	*t = Transaction{
		Kind:            alias.Kind,
		TransactionID:   alias.TransactionID,
		Type:            alias.Type,
		Currency:        alias.Currency,
		Amount:          amount,
		ValueDate:       alias.ValueDate,
		TransactionDate: alias.TransactionDate,
		Source:          source,
		Destination:     destination,
		Account:         alias.Account,
		LocalAccount:    alias.LocalAccount,
		Card:            alias.Card,
		Details:         alias.Details,
		Keywords:        alias.Keywords,
		Comment:         alias.Comment,
		Category:        alias.Category,
		Tags:            alias.Tags,
		Flags:           alias.Flags,
		StatusFlags:     alias.StatusFlags,
		Subtransactions: alias.Subtransactions,
		Related:         alias.Related,
		Offset:          alias.Offset,
		ID:              alias.ID,
		Seq:             alias.Seq,
	}

	if alias.Balance != nil {
		var balance decimal.Decimal
		if err := json.Unmarshal(*alias.Balance, &balance); err != nil {
			return err
		}
		t.Balance = &balance
	}
	return nil
}
