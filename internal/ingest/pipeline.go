// Package ingest wires the per-account/per-card scheduler tasks to the
// parser, rule engine, reconciler and store, grounded on
// original_source/src/bank/runtime.py's update_account/update_card
// functions.
package ingest

import (
	"context"
	"fmt"
	"time"

	"ledgerflow/internal/config"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/parser"
	"ledgerflow/internal/reconciler"
	"ledgerflow/internal/rules"
	"ledgerflow/internal/scheduler"
	"ledgerflow/internal/store"
)

// Session is the contract the opaque headless-browser scraping
// collaborator must satisfy: for a given bank and account/card, return the
// provider's raw movement records fetched since the account's last known
// transaction date. since is the store's LastDate for the log, or the zero
// time when nothing has been ingested yet; a Session implementation may use
// it to narrow the date range it asks the provider for. Only this contract
// is defined here; no implementation ships in this repository.
type Session interface {
	FetchAccountRecords(ctx context.Context, bank config.BankEntry, account config.AccountEntry, since time.Time) ([]parser.Record, error)
	FetchCardRecords(ctx context.Context, bank config.BankEntry, account config.AccountEntry, card config.CardEntry, since time.Time) ([]parser.Record, error)
}

// providerOf picks which of the two concrete provider parsers applies to
// a configured bank. Real deployments would carry a `provider` key per
// bank in the configuration file; this system's two wired providers are
// selected by bank id, matching the original_source layout where each
// bank had its own parsing module.
func providerOf(bank config.BankEntry) string {
	switch bank.ID {
	case "bankia":
		return "providera"
	default:
		return "providerb"
	}
}

// AccountTasks builds one scheduler.AccountTask per configured bank
// account and, for each account's active cards, one additional task for
// the card's own log. ruleset is re-evaluated on every fetch since rule
// definitions may change between runs.
func AccountTasks(registry *config.Registry, svc *reconciler.Service, ruleset func() []rules.Rule) []scheduler.AccountTask {
	banksByID := make(map[string]config.BankEntry, len(registry.Banks))
	for _, b := range registry.Banks {
		banksByID[b.ID] = b
	}

	var tasks []scheduler.AccountTask
	for _, account := range registry.Accounts {
		account := account
		bank, ok := banksByID[account.BankID]
		if !ok {
			continue
		}

		tasks = append(tasks, scheduler.AccountTask{
			Name: fmt.Sprintf("%s/%s", bank.ID, account.ID),
			Fetch: func(ctx context.Context, session scheduler.Session) (int, error) {
				svc.SetRules(ruleset())
				return fetchAccount(ctx, session, bank, account, registry, svc)
			},
		})

		for _, card := range registry.CardsForAccount(account.ID) {
			if !card.Active {
				continue
			}
			card := card
			tasks = append(tasks, scheduler.AccountTask{
				Name: fmt.Sprintf("%s/%s/card:%s", bank.ID, account.ID, card.Number),
				Fetch: func(ctx context.Context, session scheduler.Session) (int, error) {
					svc.SetRules(ruleset())
					return fetchCard(ctx, session, bank, account, card, registry, svc)
				},
			})
		}
	}
	return tasks
}

func fetchAccount(ctx context.Context, session scheduler.Session, bank config.BankEntry, account config.AccountEntry, registry *config.Registry, svc *reconciler.Service) (int, error) {
	ingestSession, ok := session.(Session)
	if !ok {
		return 0, fmt.Errorf("ingest: session does not implement the provider-fetch contract")
	}

	log := store.LogKey{Kind: account.KindOf(), Identifier: account.ID}
	since, _, err := svc.LastDate(ctx, log)
	if err != nil {
		return 0, fmt.Errorf("ingest: reading last known date for account %s: %w", account.ID, err)
	}

	records, err := ingestSession.FetchAccountRecords(ctx, bank, account, since)
	if err != nil {
		return 0, fmt.Errorf("ingest: fetching account %s: %w", account.ID, err)
	}

	cards := registry.CardsForAccount(account.ID)
	transactions := make([]domain.Transaction, 0, len(records))
	for _, record := range records {
		t, ok := parseAccountRecord(providerOf(bank), bank, account, cards, record)
		if ok {
			transactions = append(transactions, t)
		}
	}

	result, err := svc.Apply(ctx, log, transactions)
	if err != nil {
		return 0, err
	}
	return result.Inserted, nil
}

func fetchCard(ctx context.Context, session scheduler.Session, bank config.BankEntry, account config.AccountEntry, card config.CardEntry, registry *config.Registry, svc *reconciler.Service) (int, error) {
	ingestSession, ok := session.(Session)
	if !ok {
		return 0, fmt.Errorf("ingest: session does not implement the provider-fetch contract")
	}

	log := store.LogKey{Kind: domain.KindCreditCard, Identifier: card.Number}
	since, _, err := svc.LastDate(ctx, log)
	if err != nil {
		return 0, fmt.Errorf("ingest: reading last known date for card %s: %w", card.Number, err)
	}

	records, err := ingestSession.FetchCardRecords(ctx, bank, account, card, since)
	if err != nil {
		return 0, fmt.Errorf("ingest: fetching card %s: %w", card.Number, err)
	}

	cards := registry.CardsForAccount(account.ID)
	transactions := make([]domain.Transaction, 0, len(records))
	for _, record := range records {
		t, ok := parseCardRecord(providerOf(bank), bank, account, card, cards, record)
		if ok {
			transactions = append(transactions, t)
		}
	}

	result, err := svc.Apply(ctx, log, transactions)
	if err != nil {
		return 0, err
	}
	return result.Inserted, nil
}
