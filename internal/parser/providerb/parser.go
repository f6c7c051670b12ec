// Package providerb parses the second concrete provider payload shape:
// plain float amounts nested under an amount/currency object, with
// scheme.subCategory.id driving classification. Grounded on
// bank/bbva/parsing.py.
package providerb

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/parser"
)

type BankInfo struct {
	ID   string
	Name string
}

type AccountInfo struct {
	ID    string
	Name  string
	Cards map[string]CardInfo // keyed by card number
}

type CardInfo struct {
	Name   string
	Number string
}

var keywordFields = []string{
	"name",
	"humanConceptName",
	"concept.name",
	"extendedName",
	"humanExtendedConceptName",
	"cardTransactionDetail.concept.name",
	"cardTransactionDetail.concept.shop.name",
	"wireTransactionDetail.sender.person.name",
}

var (
	paycheckCodes          = set("0114")
	purchaseCodes          = set("0017", "00400", "0005")
	transferCodes          = set("0149", "0064")
	withdrawalCodes        = set("0022", "00200", "0007")
	domiciledReceiptCodes  = set("0058")
	creditCardInvoiceCodes = set("0060", "0070")
)

func set(codes ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func has(s map[string]struct{}, code string) bool {
	_, ok := s[code]
	return ok
}

func classifyType(code string, direction domain.TransactionDirection) domain.TransactionType {
	switch {
	case has(purchaseCodes, code):
		if direction == domain.Charge {
			return domain.Purchase
		}
		return domain.PurchaseReturn
	case has(transferCodes, code):
		if direction == domain.Charge {
			return domain.IssuedTransfer
		}
		return domain.ReceivedTransfer
	case has(paycheckCodes, code):
		if direction == domain.Income {
			return domain.ReceivedTransfer
		}
	case has(withdrawalCodes, code):
		if direction == domain.Charge {
			return domain.ATMWithdrawal
		}
	case has(domiciledReceiptCodes, code):
		if direction == domain.Charge {
			return domain.DomiciledReceipt
		}
		return domain.ReturnDeposit
	case has(creditCardInvoiceCodes, code):
		if direction == domain.Charge {
			return domain.CreditCardInvoice
		}
		return domain.CreditCardInvoicePayment
	}
	return domain.UnknownType
}

func title(s string) string { return strings.Title(strings.ToLower(s)) } //nolint:staticcheck

func safeIssuer(name string) domain.Subject {
	if name == "" {
		return domain.UnknownSubject{}
	}
	return domain.NewIssuer(name)
}

func safeRecipient(name string) domain.Subject {
	if name == "" {
		return domain.UnknownSubject{}
	}
	return domain.NewRecipient(name)
}

func getSource(details map[string]any, bank BankInfo, account AccountInfo, t domain.TransactionType) domain.Subject {
	switch t {
	case domain.ATMWithdrawal, domain.IssuedTransfer, domain.CreditCardInvoice, domain.CreditCardInvoicePayment,
		domain.DomiciledReceipt, domain.MortgageReceipt, domain.BankCommission, domain.Purchase:
		return domain.NewAccount(account.Name, account.ID)
	case domain.BankCommissionReturn:
		return domain.NewBank(bank.Name, bank.ID)
	case domain.ReturnDeposit:
		s, _ := details["creditor_name"].(string)
		return safeIssuer(s)
	case domain.ReceivedTransfer:
		s, _ := details["issuer_name"].(string)
		return safeIssuer(s)
	case domain.PurchaseReturn:
		s, _ := details["shop_name"].(string)
		return safeIssuer(s)
	default:
		return domain.UnknownSubject{}
	}
}

func getDestination(details map[string]any, bank BankInfo, account AccountInfo, t domain.TransactionType) domain.Subject {
	switch t {
	case domain.ReceivedTransfer, domain.BankCommissionReturn, domain.ReturnDeposit, domain.PurchaseReturn:
		return domain.NewAccount(account.Name, account.ID)
	case domain.ATMWithdrawal:
		return domain.UnknownWallet{}
	case domain.CreditCardInvoice, domain.MortgageReceipt, domain.BankCommission, domain.CreditCardInvoicePayment:
		return domain.NewBank(bank.Name, bank.ID)
	case domain.IssuedTransfer:
		s, _ := details["beneficiary"].(string)
		return safeRecipient(s)
	case domain.DomiciledReceipt:
		s, _ := details["creditor_name"].(string)
		return safeRecipient(s)
	case domain.Purchase:
		s, _ := details["shop_name"].(string)
		return safeRecipient(s)
	default:
		return domain.UnknownSubject{}
	}
}

func setDetail(details map[string]any, record parser.Record, field string, paths []string, fmtFn func(string) string) {
	for _, path := range paths {
		if v, ok := parser.GetNestedString(record, path); ok && v != "" {
			if fmtFn != nil {
				v = fmtFn(v)
			}
			details[field] = v
			return
		}
	}
}

func getAccountTransactionDetails(record parser.Record, t domain.TransactionType) map[string]any {
	details := map[string]any{}
	switch t {
	case domain.Purchase:
		setDetail(details, record, "shop_name", []string{"comments.[0].text", "cardTransactionDetail.shop.name", "humanConceptName"}, title)
		setDetail(details, record, "card_number", []string{"origin.panCode"}, nil)
		setDetail(details, record, "activity", []string{"cardTransactionDetail.shop.businessActivity.name"}, nil)
	case domain.ATMWithdrawal:
		setDetail(details, record, "atm_name", []string{"cardTransactionDetail.shop.name", "extendedName"}, nil)
	case domain.IssuedTransfer:
		setDetail(details, record, "beneficiary", []string{"wireTransactionDetail.sender.person.name"}, title)
		setDetail(details, record, "concept", []string{"humanExtendedConceptName"}, nil)
	case domain.ReceivedTransfer:
		setDetail(details, record, "origin_account_number", []string{"wireTransactionDetail.sender.account.formats.ccc"}, nil)
		setDetail(details, record, "issuer_name", []string{"wireTransactionDetail.sender.person.name"}, nil)
		setDetail(details, record, "concept", []string{"humanExtendedConceptName"}, nil)
	case domain.DomiciledReceipt:
		setDetail(details, record, "creditor_name", []string{"billTransactionDetail.creditor.name"}, nil)
		setDetail(details, record, "concept", []string{"billTransactionDetail.extendedBillConceptName", "extendedName"}, title)
	case domain.ReturnDeposit:
		setDetail(details, record, "return_reason", []string{"billTransactionDetail.extendedIntentionName"}, title)
	}
	return details
}

func getCardTransactionDetails(record parser.Record, t domain.TransactionType) map[string]any {
	details := map[string]any{}
	if t == domain.Purchase {
		setDetail(details, record, "shop_name", []string{"shop.name"}, title)
	}
	return details
}

func getComment(details map[string]any, t domain.TransactionType) string {
	switch t {
	case domain.IssuedTransfer, domain.ReceivedTransfer, domain.DomiciledReceipt:
		s, _ := details["concept"].(string)
		return s
	case domain.ReturnDeposit:
		s, _ := details["return_reason"].(string)
		return s
	}
	return ""
}

func getCard(account AccountInfo, number string) *domain.Card {
	if number == "" {
		return nil
	}
	if c, ok := account.Cards[number]; ok {
		card := domain.NewCard(c.Name, c.Number)
		return &card
	}
	card := domain.NewCard("Unknown card", number)
	return &card
}

func decodeDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return t
	}
	return time.Time{}
}

// ParseAccountTransaction converts a raw account-log record into a
// canonical domain.Transaction.
func ParseAccountTransaction(bank BankInfo, account AccountInfo, record parser.Record) (domain.Transaction, bool) {
	amountRecord, _ := record["amount"].(parser.Record)
	amountFloat, ok := amountRecord["amount"].(float64)
	if !ok {
		return domain.Transaction{}, false
	}
	amount := decimal.NewFromFloat(amountFloat)

	code, _ := parser.GetNestedString(record, "scheme.subCategory.id")
	if code == "0054" {
		code, _ = parser.GetNestedString(record, "concept.id")
	}

	direction := domain.Income
	if amount.IsNegative() {
		direction = domain.Charge
	}
	transactionType := classifyType(code, direction)

	details := getAccountTransactionDetails(record, transactionType)
	cardNumber, _ := details["card_number"].(string)
	delete(details, "card_number")
	usedCard := getCard(account, cardNumber)

	literals := parser.ExtractLiterals(record, keywordFields)
	for _, v := range details {
		if s, ok := v.(string); ok {
			literals = append(literals, s)
		}
	}

	comment := getComment(details, transactionType)
	source := getSource(details, bank, account, transactionType)
	destination := getDestination(details, bank, account, transactionType)

	currency, _ := parser.GetNestedString(amountRecord, "currency.code")
	balanceRecord, _ := record["balance"].(parser.Record)
	availableBalanceRecord, _ := balanceRecord["availableBalance"].(parser.Record)
	balanceFloat, hasBalance := availableBalanceRecord["amount"].(float64)

	id, _ := record["id"].(string)
	valueDate, _ := parser.GetNestedString(record, "valueDate")
	transactionDate, _ := parser.GetNestedString(record, "transactionDate")

	txn := domain.Transaction{
		Kind:            domain.KindAccount,
		TransactionID:   id,
		Type:            transactionType,
		Currency:        currency,
		Amount:          amount,
		ValueDate:       decodeDate(valueDate),
		TransactionDate: decodeDate(transactionDate),
		Source:          source,
		Destination:     destination,
		Account:         accountSubject(account),
		Card:            usedCard,
		Details:         details,
		Keywords:        parser.ExtractKeywords(literals),
		Comment:         comment,
		Tags:            []string{},
		Flags:           domain.NewFlags(),
	}
	if hasBalance {
		balance := decimal.NewFromFloat(balanceFloat)
		txn.Balance = &balance
	}
	return txn, true
}

// ParseCreditCardTransaction converts a raw credit-card-log record,
// returning ok=false only when the record carries no amount. A record whose
// operationTypeIndicator is "D" (a debit-operation hold, after
// bank/bbva/parsing.py's is_debit_operation) is kept and marked
// StatusFlags.Invalid rather than dropped, so the reconciler's
// diverged-pairing logic in spec.md §9 can still see it. No consolidation
// marker is read: that indicator is the only thing that sets Invalid.
func ParseCreditCardTransaction(bank BankInfo, account AccountInfo, card CardInfo, record parser.Record) (domain.Transaction, bool) {
	amountRecord, _ := record["amount"].(parser.Record)
	amountFloat, ok := amountRecord["amount"].(float64)
	if !ok {
		return domain.Transaction{}, false
	}
	amount := decimal.NewFromFloat(amountFloat)

	code, _ := parser.GetNestedString(record, "concept.id")
	if code == "0000" {
		code = "0005"
	}

	direction := domain.Income
	if amount.IsNegative() {
		direction = domain.Charge
	}
	transactionType := classifyType(code, direction)

	details := getCardTransactionDetails(record, transactionType)
	usedCard := domain.NewCard(card.Name, card.Number)

	literals := parser.ExtractLiterals(record, keywordFields)
	for _, v := range details {
		if s, ok := v.(string); ok {
			literals = append(literals, s)
		}
	}

	comment := getComment(details, transactionType)
	source := getSource(details, bank, account, transactionType)
	destination := getDestination(details, bank, account, transactionType)

	currency, _ := parser.GetNestedString(amountRecord, "currency.code")
	id, _ := record["id"].(string)
	valueDate, _ := parser.GetNestedString(record, "valueDate")
	transactionDate, _ := parser.GetNestedString(record, "transactionDate")

	statusFlags := domain.StatusFlags{}
	if operationType, _ := record["operationTypeIndicator"].(string); operationType == "D" {
		statusFlags.Invalid = true
	}

	return domain.Transaction{
		Kind:            domain.KindCreditCard,
		TransactionID:   id,
		Type:            transactionType,
		Currency:        currency,
		Amount:          amount,
		ValueDate:       decodeDate(valueDate),
		TransactionDate: decodeDate(transactionDate),
		Source:          source,
		Destination:     destination,
		Card:            &usedCard,
		Details:         details,
		Keywords:        parser.ExtractKeywords(literals),
		Comment:         comment,
		Tags:            []string{},
		Flags:           domain.NewFlags(),
		StatusFlags:     statusFlags,
	}, true
}

func accountSubject(a AccountInfo) *domain.Account {
	acc := domain.NewAccount(a.Name, a.ID)
	return &acc
}
