package domain

import (
	"encoding/json"
	"fmt"
)

// Subject is the sum type a transaction's Source and Destination take: one
// of Bank, Account, LocalAccount, Card, Issuer, Recipient, Wallet,
// UnknownSubject or UnknownWallet. It round-trips through JSON using the
// same __type__ discriminator the store's document encoding relies on for
// every polymorphic field (see internal/store/codec.go).
type Subject interface {
	subjectName() string
	typeTag() string
}

// Named returns the display name of a Subject, or "" for the two variants
// that carry none (UnknownSubject, UnknownWallet).
func Named(s Subject) string {
	if s == nil {
		return ""
	}
	return s.subjectName()
}

type namedSubject struct {
	Name string `json:"name"`
}

func (n namedSubject) subjectName() string { return n.Name }

// Bank is the Source/Destination for bank-commission and invoice movements.
type Bank struct {
	namedSubject
	ID string `json:"id"`
}

func (Bank) typeTag() string { return "Bank" }

// NewBank constructs a Bank subject from its configured name and id.
func NewBank(name, id string) Bank {
	return Bank{namedSubject: namedSubject{Name: name}, ID: id}
}

// Account is a configured bank account, used both as a transaction's owning
// account and, for internal transfers, as the other side of the movement.
type Account struct {
	namedSubject
	ID string `json:"id"`
}

func (Account) typeTag() string { return "Account" }

// NewAccount constructs an Account subject from its configured name and id.
func NewAccount(name, id string) Account {
	return Account{namedSubject: namedSubject{Name: name}, ID: id}
}

// LocalAccount is a manually tracked account with no provider-fetched
// history, carrying no balance-continuity requirement.
type LocalAccount struct {
	namedSubject
	ID string `json:"id"`
}

func (LocalAccount) typeTag() string { return "LocalAccount" }

// NewLocalAccount constructs a LocalAccount subject.
func NewLocalAccount(name, id string) LocalAccount {
	return LocalAccount{namedSubject: namedSubject{Name: name}, ID: id}
}

// Card is a configured credit or debit card.
type Card struct {
	namedSubject
	Number string `json:"number"`
}

func (Card) typeTag() string { return "Card" }

// NewCard constructs a Card subject from its configured name and number.
func NewCard(name, number string) Card {
	return Card{namedSubject: namedSubject{Name: name}, Number: number}
}

// Issuer is an external party that sent money to one of our accounts.
type Issuer struct{ namedSubject }

func (Issuer) typeTag() string { return "Issuer" }

// NewIssuer constructs an Issuer subject.
func NewIssuer(name string) Issuer { return Issuer{namedSubject{Name: name}} }

// Recipient is an external party money was sent to.
type Recipient struct{ namedSubject }

func (Recipient) typeTag() string { return "Recipient" }

// NewRecipient constructs a Recipient subject.
func NewRecipient(name string) Recipient { return Recipient{namedSubject{Name: name}} }

// Wallet is a named cash/local wallet subject, distinct from UnknownWallet.
type Wallet struct{ namedSubject }

func (Wallet) typeTag() string { return "Wallet" }

// NewWallet constructs a Wallet subject.
func NewWallet(name string) Wallet { return Wallet{namedSubject{Name: name}} }

// UnknownSubject marks a source/destination the parser could not resolve
// from the available details; rule conditions matching on name always fail
// against it rather than panicking on a nil name.
type UnknownSubject struct{}

func (UnknownSubject) subjectName() string { return "" }
func (UnknownSubject) typeTag() string     { return "UnknownSubject" }

// UnknownWallet marks an ATM withdrawal or cash movement whose counterpart
// wallet isn't tracked.
type UnknownWallet struct{}

func (UnknownWallet) subjectName() string { return "" }
func (UnknownWallet) typeTag() string     { return "UnknownWallet" }

func subjectsEqual(a, b Subject) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.typeTag() != b.typeTag() {
		return false
	}
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ab) == string(bb)
}

// MarshalSubjectJSON encodes s with the __type__ discriminator the store's
// document collections persist, e.g. {"__type__":"Recipient","name":"..."}.
func MarshalSubjectJSON(s Subject) ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	tagged := map[string]json.RawMessage{"__type__": mustJSON(s.typeTag())}
	for k, v := range fields {
		tagged[k] = v
	}
	return json.Marshal(tagged)
}

// UnmarshalSubjectJSON decodes a __type__-tagged subject document back into
// the concrete Subject it was encoded from.
func UnmarshalSubjectJSON(raw []byte) (Subject, error) {
	var probe struct {
		Type string `json:"__type__"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case "Bank":
		var v Bank
		return v, json.Unmarshal(raw, &v)
	case "Account":
		var v Account
		return v, json.Unmarshal(raw, &v)
	case "LocalAccount":
		var v LocalAccount
		return v, json.Unmarshal(raw, &v)
	case "Card":
		var v Card
		return v, json.Unmarshal(raw, &v)
	case "Issuer":
		var v Issuer
		return v, json.Unmarshal(raw, &v)
	case "Recipient":
		var v Recipient
		return v, json.Unmarshal(raw, &v)
	case "Wallet":
		var v Wallet
		return v, json.Unmarshal(raw, &v)
	case "UnknownSubject":
		return UnknownSubject{}, nil
	case "UnknownWallet":
		return UnknownWallet{}, nil
	default:
		return nil, fmt.Errorf("domain: unknown subject __type__ %q", probe.Type)
	}
}

func mustJSON(v string) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
