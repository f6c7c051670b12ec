package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ledgerflow/internal/domain"
	"ledgerflow/pkg/logger"
)

// TransactionView wraps a domain.Transaction to resolve the dotted field
// paths conditions, captures and templates reference ("details.concepto",
// "source", "amount", "category.id"...), mirroring common/utils's
// get_nested_item applied to a dataclass instance instead of a dict.
type TransactionView struct {
	Txn domain.Transaction
}

// Field resolves path against the wrapped transaction, returning the raw
// value (string, float64, []string, domain.Subject...) and whether it
// resolved to anything at all.
func (v TransactionView) Field(path string) (any, bool) {
	segments := strings.Split(path, ".")
	switch segments[0] {
	case "amount":
		f, _ := v.Txn.Amount.Float64()
		return f, true
	case "comment":
		return v.Txn.Comment, true
	case "currency":
		return v.Txn.Currency, true
	case "type":
		return string(v.Txn.Type), true
	case "source":
		return v.Txn.Source, true
	case "destination":
		return v.Txn.Destination, true
	case "keywords":
		return v.Txn.Keywords, true
	case "tags":
		return v.Txn.Tags, true
	case "category":
		if v.Txn.Category == nil {
			return nil, false
		}
		if len(segments) > 1 && segments[1] == "id" {
			return v.Txn.Category.ID, true
		}
		return v.Txn.Category.Name, true
	case "details":
		if len(segments) < 2 {
			return v.Txn.Details, true
		}
		val, ok := v.Txn.Details[segments[1]]
		return val, ok
	default:
		return nil, false
	}
}

// fieldString resolves path to its display-string form, unwrapping a
// Subject to its Name the way check_condition/SetFromCapture do.
func (v TransactionView) fieldString(path string) (string, bool) {
	val, ok := v.Field(path)
	if !ok {
		return "", false
	}
	switch t := val.(type) {
	case domain.UnknownSubject, domain.UnknownWallet:
		return "", false
	case domain.Subject:
		return domain.Named(t), true
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

func captureFrom(view TransactionView, source, pattern string, group int) (string, bool) {
	value, ok := view.fieldString(source)
	if !ok {
		return "", false
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return "", false
	}
	match := re.FindStringSubmatch(value)
	if match == nil {
		return value, true
	}
	if group+1 < len(match) {
		return match[group+1], true
	}
	return value, true
}

func checkCondition(view TransactionView, condition Condition) bool {
	switch c := condition.(type) {
	case MatchCondition:
		return checkMatchCondition(view, c)
	case MatchNumericCondition:
		return checkMatchNumericCondition(view, c)
	default:
		return false
	}
}

func checkMatchNumericCondition(view TransactionView, c MatchNumericCondition) bool {
	raw, ok := view.Field(c.Field)
	if !ok {
		return false
	}
	value, ok := raw.(float64)
	if !ok {
		return false
	}
	if c.Absolute && value < 0 {
		value = -value
	}
	return c.Operator.compare(value, c.Value)
}

func checkMatchCondition(view TransactionView, c MatchCondition) bool {
	raw, ok := view.Field(c.Field)
	if !ok {
		return false
	}
	if _, isUnknown := raw.(domain.UnknownSubject); isUnknown {
		return false
	}
	if _, isUnknown := raw.(domain.UnknownWallet); isUnknown {
		return false
	}

	if list, ok := raw.([]string); ok {
		return checkValues(c, func(value string) bool { return contains(list, value) })
	}

	fieldValue, ok := view.fieldString(c.Field)
	if !ok {
		return false
	}

	var checker func(value string) bool
	switch c.Regex {
	case "search":
		checker = func(value string) bool {
			re, err := regexp.Compile("(?i)" + value)
			return err == nil && re.MatchString(fieldValue)
		}
	case "match":
		checker = func(value string) bool {
			re, err := regexp.Compile("(?i)^" + value)
			return err == nil && re.MatchString(fieldValue)
		}
	default:
		checker = func(value string) bool { return value == fieldValue }
	}
	return checkValues(c, checker)
}

func checkValues(c MatchCondition, check func(string) bool) bool {
	result := c.Operator == AND
	for _, value := range c.Values {
		ok := check(value)
		if c.Operator == AND {
			result = result && ok
		} else {
			result = result || ok
		}
	}
	return result
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func matchingRules(userRules []Rule, view TransactionView) []Rule {
	var matched []Rule
	for _, rule := range userRules {
		allMatch := true
		for _, condition := range rule.Conditions {
			if !checkCondition(view, condition) {
				allMatch = false
				break
			}
		}
		if allMatch {
			matched = append(matched, rule)
		}
	}
	return matched
}

func runValueSetter(action ValueSetter, txn domain.Transaction) domain.Transaction {
	clone := txn.Clone()
	raw, ok := action.GetValue(TransactionView{Txn: txn})
	if !ok {
		logger.GetLogger().WithField("field", action.Field).Warn("rule: could not resolve value, leaving field untouched")
		return clone
	}
	rendered := renderTemplate(raw, txn)
	wrapped := fieldWrapper(action.Field, rendered)
	setField(&clone, action.Field, wrapped)
	markFieldChanged(&clone, action.Field)
	return clone
}

func runValueAdder(action ValueAdder, txn domain.Transaction) domain.Transaction {
	clone := txn.Clone()
	for _, value := range action.Values {
		rendered := renderTemplate(value, txn)
		switch action.Field {
		case "tags":
			if !contains(clone.Tags, rendered) {
				clone.Tags = append(clone.Tags, rendered)
			}
		case "keywords":
			if !contains(clone.Keywords, rendered) {
				clone.Keywords = append(clone.Keywords, rendered)
			}
		}
	}
	markFieldChanged(&clone, action.Field)
	return clone
}

func runAction(txn domain.Transaction, action Action) domain.Transaction {
	switch a := action.(type) {
	case ValueSetter:
		return runValueSetter(a, txn)
	case ValueAdder:
		return runValueAdder(a, txn)
	default:
		return txn
	}
}

func setField(txn *domain.Transaction, field string, value any) {
	switch field {
	case "source":
		if s, ok := value.(domain.Subject); ok {
			txn.Source = s
		}
	case "destination":
		if s, ok := value.(domain.Subject); ok {
			txn.Destination = s
		}
	case "comment":
		if s, ok := value.(string); ok {
			txn.Comment = s
		}
	case "category":
		if s, ok := value.(string); ok {
			txn.Category = &domain.Category{ID: s, Name: s}
		}
	case "type":
		if s, ok := value.(string); ok {
			txn.Type = domain.TransactionType(s)
		}
	default:
		if strings.HasPrefix(field, "details.") {
			key := strings.TrimPrefix(field, "details.")
			if txn.Details == nil {
				txn.Details = map[string]any{}
			}
			txn.Details[key] = value
		}
	}
}

func markFieldChanged(txn *domain.Transaction, field string) {
	switch field {
	case "type":
		txn.Flags.Type = domain.Rules
	case "source":
		txn.Flags.Source = domain.Rules
	case "destination":
		txn.Flags.Destination = domain.Rules
	case "details":
		txn.Flags.Details = domain.Rules
	case "comment":
		txn.Flags.Comment = domain.Rules
	case "tags":
		txn.Flags.Tags = domain.Rules
	case "category":
		txn.Flags.Category = domain.Rules
	}
}

var templatePattern = regexp.MustCompile(`\{([a-zA-Z0-9_.]+)\}`)

// renderTemplate expands "{details.concepto}"/"{transaction.amount}"-style
// placeholders against the transaction, mirroring rules/io.py's
// raw_value.format(details=transaction.details, transaction=transaction).
// A reference that can't be resolved is left as an empty string rather
// than raising, since Go has no direct KeyError equivalent to catch here.
func renderTemplate(raw string, txn domain.Transaction) string {
	view := TransactionView{Txn: txn}
	return templatePattern.ReplaceAllStringFunc(raw, func(match string) string {
		path := strings.TrimSuffix(strings.TrimPrefix(match, "{"), "}")
		path = strings.TrimPrefix(path, "transaction.")
		path = strings.TrimPrefix(strings.Replace(path, "details[", "details.", 1), "")
		path = strings.TrimSuffix(path, "]")
		value, ok := view.fieldString(path)
		if !ok {
			return ""
		}
		return value
	})
}

// maxReprocessIterations bounds apply_rules_to_transaction's reprocess loop:
// the Python original relies on an unbounded while with dataclass equality
// as the stop condition, but a misconfigured rule set (a Set action whose
// value always differs after rendering) could otherwise spin forever, so a
// concrete ceiling is enforced and logged if ever hit.
const maxReprocessIterations = 32

// ApplyRulesToTransaction repeatedly applies every matching rule's actions
// until a full pass makes no further change, the fixed point
// apply_rules_to_transaction computes in rules/io.py.
func ApplyRulesToTransaction(userRules []Rule, txn domain.Transaction) domain.Transaction {
	process := func(current domain.Transaction) domain.Transaction {
		view := TransactionView{Txn: current}
		for _, rule := range matchingRules(userRules, view) {
			for _, action := range rule.Actions {
				current = runAction(current, action)
				view = TransactionView{Txn: current}
			}
		}
		return current
	}

	original := txn
	updated := process(original)

	for i := 0; !original.Equal(updated); i++ {
		if i >= maxReprocessIterations {
			logger.GetLogger().WithField("iterations", i).Warn("rule engine: reprocessing did not converge, bailing out")
			break
		}
		original = updated
		updated = process(original)
	}
	return updated
}
