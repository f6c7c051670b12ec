package ingest

import (
	"ledgerflow/internal/config"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/parser"
	"ledgerflow/internal/parser/providera"
	"ledgerflow/internal/parser/providerb"
)

// parseAccountRecord dispatches a raw record to the provider parser named
// by provider, converting the configuration entries into that provider
// package's own Bank/Account/Card info structs first.
func parseAccountRecord(provider string, bank config.BankEntry, account config.AccountEntry, cards []config.CardEntry, record parser.Record) (domain.Transaction, bool) {
	switch provider {
	case "providera":
		return providera.ParseAccountTransaction(providerABank(bank), providerAAccount(account, cards), record)
	default:
		return providerb.ParseAccountTransaction(providerBBank(bank), providerBAccount(account, cards), record)
	}
}

// parseCardRecord dispatches a raw credit-card record the same way.
func parseCardRecord(provider string, bank config.BankEntry, account config.AccountEntry, card config.CardEntry, cards []config.CardEntry, record parser.Record) (domain.Transaction, bool) {
	switch provider {
	case "providera":
		return providera.ParseCreditCardTransaction(providerABank(bank), providerAAccount(account, cards), providerACard(card), record)
	default:
		return providerb.ParseCreditCardTransaction(providerBBank(bank), providerBAccount(account, cards), providerBCard(card), record)
	}
}

func providerABank(bank config.BankEntry) providera.BankInfo {
	return providera.BankInfo{ID: bank.ID, Name: bank.Name}
}

func providerBBank(bank config.BankEntry) providerb.BankInfo {
	return providerb.BankInfo{ID: bank.ID, Name: bank.Name}
}

func providerACard(card config.CardEntry) providera.CardInfo {
	return providera.CardInfo{Name: card.Name, Number: card.Number}
}

func providerBCard(card config.CardEntry) providerb.CardInfo {
	return providerb.CardInfo{Name: card.Name, Number: card.Number}
}

// providerAAccount builds providera.AccountInfo's slice-of-cards shape.
func providerAAccount(account config.AccountEntry, cards []config.CardEntry) providera.AccountInfo {
	out := make([]providera.CardInfo, 0, len(cards))
	for _, c := range cards {
		out = append(out, providerACard(c))
	}
	return providera.AccountInfo{ID: account.ID, Name: account.Name, Cards: out}
}

// providerBAccount builds providerb.AccountInfo's number-keyed map shape.
func providerBAccount(account config.AccountEntry, cards []config.CardEntry) providerb.AccountInfo {
	out := make(map[string]providerb.CardInfo, len(cards))
	for _, c := range cards {
		out[c.Number] = providerBCard(c)
	}
	return providerb.AccountInfo{ID: account.ID, Name: account.Name, Cards: out}
}
