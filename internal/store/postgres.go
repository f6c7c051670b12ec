package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"ledgerflow/internal/domain"
	"ledgerflow/pkg/logger"
)

// PostgresStore persists every log's collection as one table per Kind
// (account_transactions, credit_card_transactions,
// local_account_transactions) plus an access-code mailbox table, holding
// one JSON document per row keyed by (log_key, seq). Generalized from
// a database/sql + lib/pq
// prepared-statement pattern, which operated on a single flat transactions
// table instead of one table per log kind.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-opened *sql.DB. Schema creation is the
// caller's responsibility (see cmd/api/main.go's startup migration step).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func tableFor(kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindAccount:
		return "account_transactions", nil
	case domain.KindCreditCard:
		return "credit_card_transactions", nil
	case domain.KindLocalAccount:
		return "local_account_transactions", nil
	default:
		return "", fmt.Errorf("store: unknown log kind %q", kind)
	}
}

func (s *PostgresStore) Find(ctx context.Context, log LogKey) ([]domain.Transaction, error) {
	table, err := tableFor(log.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT document FROM %s WHERE log_key = $1 ORDER BY seq ASC`, table)
	rows, err := s.db.QueryContext(ctx, query, log.Identifier)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("table", table).Error("store: failed to query log")
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			logger.GetLogger().WithError(err).Error("store: failed to scan document")
			continue
		}
		t, err := DecodeDocument(raw)
		if err != nil {
			logger.GetLogger().WithError(err).Error("store: failed to decode document")
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindOne(ctx context.Context, log LogKey, fingerprint string, fingerprintOf func(domain.Transaction) string) (domain.Transaction, bool, error) {
	all, err := s.Find(ctx, log)
	if err != nil {
		return domain.Transaction{}, false, err
	}
	var matches []domain.Transaction
	for _, t := range all {
		if t.StatusFlags.ValidDuplicate {
			continue
		}
		if fingerprintOf(t) == fingerprint {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Transaction{}, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return domain.Transaction{}, false, fmt.Errorf("store: fingerprint %q matched %d rows in %s/%s", fingerprint, len(matches), log.Kind, log.Identifier)
	}
}

func (s *PostgresStore) FindMatching(ctx context.Context, log LogKey, fromSeq int) ([]domain.Transaction, error) {
	table, err := tableFor(log.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT document FROM %s WHERE log_key = $1 AND seq >= $2 ORDER BY seq ASC`, table)
	rows, err := s.db.QueryContext(ctx, query, log.Identifier, fromSeq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		t, err := DecodeDocument(raw)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context, log LogKey) (int, error) {
	table, err := tableFor(log.Kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE log_key = $1`, table)
	var count int
	err = s.db.QueryRowContext(ctx, query, log.Identifier).Scan(&count)
	return count, err
}

func (s *PostgresStore) Insert(ctx context.Context, log LogKey, t domain.Transaction) error {
	table, err := tableFor(log.Kind)
	if err != nil {
		return err
	}
	raw, err := EncodeDocument(t)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (log_key, seq, transaction_date, document)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (log_key, seq) DO UPDATE SET document = EXCLUDED.document, transaction_date = EXCLUDED.transaction_date
	`, table)
	_, err = s.db.ExecContext(ctx, query, log.Identifier, t.Seq, t.TransactionDate, raw)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("table", table).Error("store: failed to insert document")
	}
	return err
}

func (s *PostgresStore) Update(ctx context.Context, log LogKey, t domain.Transaction) error {
	return s.Insert(ctx, log, t)
}

func (s *PostgresStore) Remove(ctx context.Context, log LogKey, seq int) error {
	table, err := tableFor(log.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE log_key = $1 AND seq = $2`, table)
	_, err = s.db.ExecContext(ctx, query, log.Identifier, seq)
	return err
}

func (s *PostgresStore) LastDate(ctx context.Context, log LogKey) (time.Time, bool, error) {
	table, err := tableFor(log.Kind)
	if err != nil {
		return time.Time{}, false, err
	}
	query := fmt.Sprintf(`SELECT transaction_date FROM %s WHERE log_key = $1 ORDER BY seq DESC LIMIT 1`, table)
	var date time.Time
	err = s.db.QueryRowContext(ctx, query, log.Identifier).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return date, true, nil
}

var _ Store = (*PostgresStore)(nil)

// Schema is the DDL cmd/api/main.go applies at startup, one table per log
// kind plus the access-code mailbox, mirroring the four logical
// collections spec.md §6 names.
const Schema = `
CREATE TABLE IF NOT EXISTS account_transactions (
	log_key TEXT NOT NULL,
	seq INTEGER NOT NULL,
	transaction_date TIMESTAMPTZ NOT NULL,
	document JSONB NOT NULL,
	PRIMARY KEY (log_key, seq)
);
CREATE TABLE IF NOT EXISTS credit_card_transactions (
	log_key TEXT NOT NULL,
	seq INTEGER NOT NULL,
	transaction_date TIMESTAMPTZ NOT NULL,
	document JSONB NOT NULL,
	PRIMARY KEY (log_key, seq)
);
CREATE TABLE IF NOT EXISTS local_account_transactions (
	log_key TEXT NOT NULL,
	seq INTEGER NOT NULL,
	transaction_date TIMESTAMPTZ NOT NULL,
	document JSONB NOT NULL,
	PRIMARY KEY (log_key, seq)
);
CREATE TABLE IF NOT EXISTS access_codes (
	log_key TEXT NOT NULL PRIMARY KEY,
	code TEXT NOT NULL,
	issued_at TIMESTAMPTZ NOT NULL
);
`
