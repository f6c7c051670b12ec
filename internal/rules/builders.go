package rules

import "ledgerflow/internal/domain"

// Match builds a single-value equality (or regex) condition. Grounded on
// rules/io.py's Match.
func Match(field, value string, regex ...string) MatchCondition {
	return MatchCondition{Field: field, Values: []string{value}, Operator: AND, Regex: regexOf(regex)}
}

// MatchAll requires every given value to satisfy the condition.
func MatchAll(field string, values ...string) MatchCondition {
	return MatchCondition{Field: field, Values: values, Operator: AND}
}

// MatchAny requires at least one given value to satisfy the condition.
func MatchAny(field string, values ...string) MatchCondition {
	return MatchCondition{Field: field, Values: values, Operator: OR}
}

// MatchAllRegex and MatchAnyRegex are MatchAll/MatchAny with an explicit
// regex mode ("search" or "match") instead of exact-equality checking.
func MatchAllRegex(field, regex string, values ...string) MatchCondition {
	return MatchCondition{Field: field, Values: values, Operator: AND, Regex: regex}
}

func MatchAnyRegex(field, regex string, values ...string) MatchCondition {
	return MatchCondition{Field: field, Values: values, Operator: OR, Regex: regex}
}

func regexOf(modes []string) string {
	if len(modes) == 0 {
		return ""
	}
	return modes[0]
}

// MatchNumeric builds a numeric comparison condition.
func MatchNumeric(field string, value float64, operator NumericOperator, absolute bool) MatchNumericCondition {
	return MatchNumericCondition{Field: field, Value: value, Operator: operator, Absolute: absolute}
}

// Set builds an action that overwrites field with a literal template
// string, e.g. "{details.concepto}". Grounded on rules/io.py's Set.
func Set(field, value string) ValueSetter {
	return ValueSetter{
		Field:    field,
		GetValue: func(TransactionView) (string, bool) { return value, true },
	}
}

// SetFromCapture builds an action that overwrites field with a regex
// capture group taken from another field's current value. Grounded on
// rules/io.py's SetFromCapture.
func SetFromCapture(field, source, pattern string, captureGroup int) ValueSetter {
	return ValueSetter{
		Field: field,
		GetValue: func(view TransactionView) (string, bool) {
			return captureFrom(view, source, pattern, captureGroup)
		},
	}
}

// Add builds an action that appends one or more literal values to a list
// field (tags) without duplicating existing entries.
func Add(field string, values ...string) ValueAdder {
	return ValueAdder{Field: field, Values: values}
}

// fieldWrapper mirrors rules/io.py's FIELD_WRAPPERS: source/destination
// values written by a rule are wrapped as Issuer/Recipient subjects rather
// than left as bare strings.
func fieldWrapper(field, value string) any {
	switch field {
	case "source":
		return domain.NewIssuer(value)
	case "destination":
		return domain.NewRecipient(value)
	default:
		return value
	}
}
