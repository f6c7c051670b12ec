// Package store persists each log's transactions as JSON documents,
// keeping the transaction model's own __type__-tagged encoding
// (internal/domain/codec.go) for nested Subject fields and adding the
// outer "dataclass::Transaction" wrapper database/io.py's
// encode_transaction/decode_transaction use for the top-level record, so a
// document decodes back to an equal transaction through either the
// in-memory or the Postgres-backed implementation.
package store

import (
	"encoding/json"
	"fmt"

	"ledgerflow/internal/domain"
)

const transactionTypeTag = "dataclass::Transaction"

// EncodeDocument serializes a transaction into the document form
// persisted in a collection: the transaction's own JSON fields plus a
// top-level __type__ discriminator.
func EncodeDocument(t domain.Transaction) ([]byte, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("store: encoding transaction: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tagValue, _ := json.Marshal(transactionTypeTag)
	fields["__type__"] = tagValue
	return json.Marshal(fields)
}

// DecodeDocument is the inverse of EncodeDocument.
func DecodeDocument(raw []byte) (domain.Transaction, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Transaction{}, err
	}
	delete(fields, "__type__")
	body, err := json.Marshal(fields)
	if err != nil {
		return domain.Transaction{}, err
	}
	var t domain.Transaction
	if err := json.Unmarshal(body, &t); err != nil {
		return domain.Transaction{}, fmt.Errorf("store: decoding transaction: %w", err)
	}
	return t, nil
}
