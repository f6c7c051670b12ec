// Package rules implements the condition/action rule engine that enriches
// a parsed transaction (category, tags, source/destination rewrites)
// before it reaches the reconciler. Grounded on rules/domain.py and
// rules/io.py.
package rules

// Operator picks how a MatchCondition combines its per-value checks: AND
// requires every value to satisfy the check, OR requires just one.
type Operator int

const (
	AND Operator = iota
	OR
)

// Condition is the sum type a Rule's condition list holds: MatchCondition
// or MatchNumericCondition.
type Condition interface {
	isCondition()
}

// MatchCondition matches a string/list-valued field against one or more
// literal values, optionally as a regex search/match instead of equality.
type MatchCondition struct {
	Field    string
	Values   []string
	Operator Operator
	// Regex is "", "search" or "match"; "" means exact/contains equality.
	Regex string
}

func (MatchCondition) isCondition() {}

// MatchNumericCondition compares a numeric field against a threshold using
// one of the NumericOperator comparators.
type MatchNumericCondition struct {
	Field    string
	Value    float64
	Operator NumericOperator
	Absolute bool
}

func (MatchNumericCondition) isCondition() {}

// NumericOperator is one of the comparison operators a MatchNumericCondition
// can use, modeled on Python's operator module functions referenced by
// name in rules/io.py's MatchNumeric.
type NumericOperator string

const (
	OpLT NumericOperator = "lt"
	OpLE NumericOperator = "le"
	OpGT NumericOperator = "gt"
	OpGE NumericOperator = "ge"
	OpEQ NumericOperator = "eq"
	OpNE NumericOperator = "ne"
)

func (op NumericOperator) compare(value, threshold float64) bool {
	switch op {
	case OpLT:
		return value < threshold
	case OpLE:
		return value <= threshold
	case OpGT:
		return value > threshold
	case OpGE:
		return value >= threshold
	case OpEQ:
		return value == threshold
	case OpNE:
		return value != threshold
	default:
		return false
	}
}

// Action is the sum type a Rule's action list holds: ValueSetter or
// ValueAdder.
type Action interface {
	isAction()
}

// ValueSetter overwrites a single field, either with a literal value (Set)
// or a value captured from another field via regex (SetFromCapture).
type ValueSetter struct {
	Field    string
	GetValue func(TransactionView) (string, bool)
}

func (ValueSetter) isAction() {}

// ValueAdder appends one or more values to a list field (tags) if not
// already present.
type ValueAdder struct {
	Field  string
	Values []string
}

func (ValueAdder) isAction() {}

// Rule is a list of conditions (all of which must hold) paired with the
// actions to apply to a transaction that matches them.
type Rule struct {
	Name       string
	Conditions []Condition
	Actions    []Action
}
