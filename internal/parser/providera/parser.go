// Package providera parses the first of the two concrete provider payload
// shapes this system supports: integer amounts with an explicit decimal
// places field, numeric movement codes, and a "references by template
// code" detail structure. Grounded on bank/bankia/parsing.py.
package providera

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/parser"
)

// BankInfo and AccountInfo mirror the subset of configuration the parser
// needs to stamp a transaction's owning Account/Bank/Card subjects.
type BankInfo struct {
	ID   string
	Name string
}

type AccountInfo struct {
	ID    string
	Name  string
	Cards []CardInfo
}

type CardInfo struct {
	Name   string
	Number string
}

var literalFields = []string{
	"beneficiarioOEmisor",
	"conceptoMovimiento.descripcionConcepto",
	"referencias.0300.descripcion",
	"referencias.0400.descripcion",
	"referencias.0440.descripcion",
	"referencias.0500.descripcion",
	"referencias.0503.descripcion",
}

type detailSpec struct {
	field string
	path  string
}

var detailSpecs = []detailSpec{
	{"transaction_type", "codigoMovimiento"},
	{"transaction_type", "claveMovimiento"},
	{"purchase_shop_name", "referencias.0440.descripcion"},
	{"purchase_shop_name", "lugarMovimiento"},
	{"librado", "referencias.0503.descripcion"},
	{"concepto", "referencias.0300.descripcion"},
	{"beneficiarioOEmisor", "beneficiarioOEmisor"},
	{"beneficiarioOEmisor", "referencias.0500.descripcion"},
	{"issuer", "referencias.0400.descripcion"},
	{"is_transfer", "indicadorTransferencia"},
	{"purchase_card_number", "referencias.0240.descripcion"},
}

var (
	paycheckCodes           = set("105")
	transferCodes           = set("163", "203", "603", "673")
	bankCommissionCodes     = set("205", "275", "578")
	receiptCodes            = set("253", "257", "261")
	mortgageReceiptCodes    = set("255")
	creditCardInvoiceCodes  = set("274", "400")
	purchaseCodes           = set("800", "410", "226")
)

func set(codes ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func classifyType(movementCode string, direction domain.TransactionDirection) domain.TransactionType {
	switch {
	case has(paycheckCodes, movementCode):
		if direction == domain.Income {
			return domain.ReceivedTransfer
		}
	case has(bankCommissionCodes, movementCode):
		if direction == domain.Charge {
			return domain.BankCommission
		}
		return domain.BankCommissionReturn
	case has(receiptCodes, movementCode):
		if direction == domain.Charge {
			return domain.DomiciledReceipt
		}
	case has(mortgageReceiptCodes, movementCode):
		if direction == domain.Charge {
			return domain.MortgageReceipt
		}
	case has(creditCardInvoiceCodes, movementCode):
		if direction == domain.Charge {
			return domain.CreditCardInvoice
		}
		return domain.CreditCardInvoicePayment
	case has(purchaseCodes, movementCode):
		if direction == domain.Charge {
			return domain.Purchase
		}
		return domain.PurchaseReturn
	case has(transferCodes, movementCode):
		if direction == domain.Charge {
			return domain.IssuedTransfer
		}
		return domain.ReceivedTransfer
	}
	return domain.UnknownType
}

func has(set map[string]struct{}, code string) bool {
	_, ok := set[code]
	return ok
}

func title(s string) string {
	return strings.Title(strings.ToLower(s)) //nolint:staticcheck // matches Python's str.title()
}

func getSource(details map[string]any, bank BankInfo, account AccountInfo, movementType domain.TransactionType) domain.Subject {
	switch movementType {
	case domain.ReceivedTransfer:
		name, _ := firstString(details, "beneficiarioOEmisor", "issuer")
		return domain.NewIssuer(title(name))
	case domain.IssuedTransfer, domain.CreditCardInvoice, domain.DomiciledReceipt, domain.MortgageReceipt, domain.BankCommission, domain.CreditCardInvoicePayment:
		return domain.NewAccount(account.Name, account.ID)
	case domain.BankCommissionReturn:
		return domain.NewBank(bank.Name, bank.ID)
	case domain.Purchase:
		if card, ok := details["card"].(domain.Card); ok {
			return card
		}
		return domain.UnknownSubject{}
	case domain.PurchaseReturn:
		name, _ := details["purchase_shop_name"].(string)
		return domain.NewRecipient(title(name))
	default:
		return domain.UnknownSubject{}
	}
}

func getDestination(details map[string]any, bank BankInfo, account AccountInfo, movementType domain.TransactionType) domain.Subject {
	switch movementType {
	case domain.ReceivedTransfer:
		return domain.NewAccount(account.Name, account.ID)
	case domain.IssuedTransfer:
		name, _ := details["beneficiarioOEmisor"].(string)
		return domain.NewRecipient(title(name))
	case domain.CreditCardInvoice, domain.MortgageReceipt, domain.BankCommission, domain.CreditCardInvoicePayment:
		return domain.NewBank(bank.Name, bank.ID)
	case domain.BankCommissionReturn:
		return domain.NewAccount(account.Name, account.ID)
	case domain.DomiciledReceipt:
		name, _ := details["issuer"].(string)
		return domain.NewRecipient(title(name))
	case domain.Purchase:
		name, _ := details["purchase_shop_name"].(string)
		return domain.NewRecipient(title(name))
	case domain.PurchaseReturn:
		if card, ok := details["card"].(domain.Card); ok {
			return card
		}
		return domain.UnknownSubject{}
	default:
		return domain.UnknownSubject{}
	}
}

func firstString(details map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := details[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func getComment(details map[string]any, movementType domain.TransactionType, movement parser.Record) string {
	if movementType == domain.IssuedTransfer || movementType == domain.ReceivedTransfer {
		if v, ok := parser.GetNestedString(movement, "referencias.0300.descripcion"); ok {
			return title(v)
		}
	}
	return ""
}

func extractDetails(movement parser.Record) map[string]any {
	details := make(map[string]any)
	for _, spec := range detailSpecs {
		if _, exists := details[spec.field]; exists {
			continue
		}
		if v := parser.GetNestedItem(movement, spec.path); v != nil {
			details[spec.field] = v
		}
	}
	return details
}

// referencesByCode reindexes the "referencias" array into a map keyed by
// its codigoPlantilla template code, the shape DETAIL_SPECS paths expect.
func referencesByCode(movement parser.Record) parser.Record {
	raw, _ := movement["referencias"].([]any)
	out := make(parser.Record, len(raw))
	for _, item := range raw {
		ref, ok := item.(parser.Record)
		if !ok {
			continue
		}
		code, _ := ref["codigoPlantilla"].(string)
		if code == "" {
			continue
		}
		fields := make(parser.Record, len(ref))
		for k, v := range ref {
			if k == "codigoPlantilla" {
				continue
			}
			fields[k] = v
		}
		out[code] = fields
	}
	return out
}

func decodeNumericValue(amount parser.Record) (decimal.Decimal, bool) {
	if signed, ok := amount["importeConSigno"].(float64); ok {
		decimals, _ := amount["numeroDecimales"].(float64)
		return decimal.NewFromFloat(signed).Shift(int32(-decimals)), true
	}
	if plain, ok := amount["importe"].(float64); ok {
		decimals, _ := amount["decimales"].(float64)
		return decimal.NewFromFloat(plain).Shift(int32(-decimals)), true
	}
	return decimal.Zero, false
}

func resolveCard(details map[string]any, account AccountInfo) {
	maskedAny, ok := details["purchase_card_number"]
	if !ok {
		return
	}
	masked, ok := maskedAny.(string)
	if !ok {
		return
	}
	for _, card := range account.Cards {
		if parser.MatchMaskedCardNumber(masked, card.Number) {
			details["card"] = domain.NewCard(card.Name, card.Number)
			return
		}
	}
	details["card"] = domain.NewCard("Unknown card", masked)
}

// ParseAccountTransaction converts a raw account-log movement into a
// canonical domain.Transaction, returning ok=false when the movement
// carries no usable amount (a malformed/empty payload, dropped rather than
// causing the whole batch to fail, per spec.md's ParseFailure semantics).
func ParseAccountTransaction(bank BankInfo, account AccountInfo, movement parser.Record) (domain.Transaction, bool) {
	movement = parser.Record(movement)
	movement["referencias"] = referencesByCode(movement)

	amountRecord, _ := movement["importe"].(parser.Record)
	amount, ok := decodeNumericValue(amountRecord)
	if !ok {
		return domain.Transaction{}, false
	}

	direction := domain.Income
	if amount.IsNegative() {
		direction = domain.Charge
	}

	details := extractDetails(movement)
	resolveCard(details, account)
	details["account"] = domain.NewAccount(account.Name, account.ID)

	movementCode, _ := details["transaction_type"].(string)
	movementType := classifyType(movementCode, direction)

	balanceRecord, _ := movement["saldoPosterior"].(parser.Record)
	balance, hasBalance := decodeNumericValue(balanceRecord)

	currency, _ := parser.GetNestedString(amountRecord, "moneda.nombreCorto")
	valueDate, _ := parser.GetNestedString(movement, "fechaValor.valor")
	transactionDate, _ := parser.GetNestedString(movement, "fechaMovimiento.valor")

	txn := domain.Transaction{
		Kind:            domain.KindAccount,
		Type:            movementType,
		Currency:        currency,
		Amount:          amount,
		ValueDate:       parseDate(valueDate),
		TransactionDate: parseDate(transactionDate),
		Source:          getSource(details, bank, account, movementType),
		Destination:     getDestination(details, bank, account, movementType),
		Account:         accountSubject(account),
		Details:         withoutCard(details),
		Keywords:        parser.ExtractKeywords(parser.ExtractLiterals(movement, literalFields)),
		Comment:         getComment(details, movementType, movement),
		Tags:            []string{},
		Flags:           domain.NewFlags(),
		Seq:             0,
	}
	if hasBalance {
		txn.Balance = &balance
	}
	if card, ok := details["card"].(domain.Card); ok {
		txn.Card = &card
	}
	return txn, true
}

// ParseCreditCardTransaction converts a raw credit-card-log movement.
// Unlike the account log there is no balance field; status flags capture
// whether the bank still reports it as a pending/non-consolidated operation,
// which the reconciler may later pair against a settled replacement.
func ParseCreditCardTransaction(bank BankInfo, account AccountInfo, card CardInfo, movement parser.Record) (domain.Transaction, bool) {
	amountRecord, _ := movement["importeMovimiento"].(parser.Record)
	amount, ok := decodeNumericValue(amountRecord)
	if !ok {
		return domain.Transaction{}, false
	}
	direction := domain.Income
	if amount.IsNegative() {
		direction = domain.Charge
	}

	details := extractDetails(movement)
	details["card"] = domain.NewCard(card.Name, card.Number)
	details["account"] = domain.NewAccount(account.Name, account.ID)

	movementCode, _ := details["transaction_type"].(string)
	movementType := classifyType(movementCode, direction)

	currency, _ := parser.GetNestedString(amountRecord, "nombreMoneda")
	date, _ := parser.GetNestedString(movement, "fechaMovimiento.valor")

	txn := domain.Transaction{
		Kind:            domain.KindCreditCard,
		Type:            movementType,
		Currency:        currency,
		Amount:          amount,
		ValueDate:       parseDate(date),
		TransactionDate: parseDate(date),
		Source:          getSource(details, bank, account, movementType),
		Destination:     getDestination(details, bank, account, movementType),
		Card:            cardSubject(card),
		Details:         extractDetails(movement),
		Keywords:        parser.ExtractKeywords(parser.ExtractLiterals(movement, literalFields)),
		Comment:         getComment(details, movementType, movement),
		Tags:            []string{},
		Flags:           domain.NewFlags(),
		StatusFlags:     creditCardStatusFlags(movement),
	}
	return txn, true
}

// creditCardStatusFlags reads the provider's own pending/debit-operation
// marker off the raw movement, alongside indicadorTransferencia it is a
// flat top-level indicator rather than a referencias template code. A
// movement still carrying indicadorApunte "P" (pendiente) has not yet been
// consolidated into the settled history the bank otherwise reports, so it
// is kept but marked invalid rather than discarded.
func creditCardStatusFlags(movement parser.Record) domain.StatusFlags {
	indicator, _ := movement["indicadorApunte"].(string)
	return domain.StatusFlags{Invalid: indicator == "P"}
}

func withoutCard(details map[string]any) map[string]any {
	out := make(map[string]any, len(details))
	for k, v := range details {
		if k == "card" || k == "account" || k == "bank" {
			continue
		}
		out[k] = v
	}
	return out
}

func accountSubject(a AccountInfo) *domain.Account {
	acc := domain.NewAccount(a.Name, a.ID)
	return &acc
}

func cardSubject(c CardInfo) *domain.Card {
	card := domain.NewCard(c.Name, c.Number)
	return &card
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
