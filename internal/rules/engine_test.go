package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerflow/internal/domain"
)

// TestApplyRulesToTransaction_S6_FixedPoint covers S6: a destination that
// matches one rule's condition only after a prior rule's action has run
// must still be picked up, since ApplyRulesToTransaction reprocesses to a
// fixed point rather than making a single pass.
func TestApplyRulesToTransaction_S6_FixedPoint(t *testing.T) {
	ruleset := []Rule{
		{
			Name:       "paypal-moleskine",
			Conditions: []Condition{MatchAllRegex("destination", "search", "Paypal")},
			Actions: []Action{
				SetFromCapture("destination", "destination", `\*(\w+)`, 0),
				Add("tags", "paypal"),
			},
		},
		{
			Name:       "moleskine-books",
			Conditions: []Condition{Match("destination", "MOLESKINE")},
			Actions:    []Action{Set("category", "books")},
		},
	}

	txn := domain.Transaction{
		Destination: domain.NewRecipient("PAYPAL *MOLESKINE"),
		Amount:      decimal.NewFromFloat(-12.34),
		Flags:       domain.NewFlags(),
	}

	result := ApplyRulesToTransaction(ruleset, txn)

	assert.Equal(t, "MOLESKINE", domain.Named(result.Destination))
	assert.Equal(t, []string{"paypal"}, result.Tags)
	require.NotNil(t, result.Category)
	assert.Equal(t, "books", result.Category.ID)
}

// TestApplyRulesToTransaction_P4_Idempotent covers P4: re-running the rule
// set against an already-stable transaction must not change it further.
func TestApplyRulesToTransaction_P4_Idempotent(t *testing.T) {
	ruleset := []Rule{
		{
			Name:       "paypal-moleskine",
			Conditions: []Condition{MatchAllRegex("destination", "search", "Paypal")},
			Actions: []Action{
				SetFromCapture("destination", "destination", `\*(\w+)`, 0),
				Add("tags", "paypal"),
			},
		},
		{
			Name:       "moleskine-books",
			Conditions: []Condition{Match("destination", "MOLESKINE")},
			Actions:    []Action{Set("category", "books")},
		},
	}

	txn := domain.Transaction{
		Destination: domain.NewRecipient("PAYPAL *MOLESKINE"),
		Amount:      decimal.NewFromFloat(-12.34),
		Flags:       domain.NewFlags(),
	}

	stable := ApplyRulesToTransaction(ruleset, txn)
	reprocessed := ApplyRulesToTransaction(ruleset, stable)

	assert.True(t, stable.Equal(reprocessed))
}

// TestApplyRulesToTransaction_NoMatch leaves a transaction untouched when
// no rule's conditions hold.
func TestApplyRulesToTransaction_NoMatch(t *testing.T) {
	ruleset := []Rule{
		{
			Name:       "paypal-moleskine",
			Conditions: []Condition{Match("destination", "Paypal", "search")},
			Actions:    []Action{Add("tags", "paypal")},
		},
	}

	txn := domain.Transaction{
		Destination: domain.NewRecipient("Local Grocer"),
		Amount:      decimal.NewFromFloat(-5.0),
		Flags:       domain.NewFlags(),
	}

	result := ApplyRulesToTransaction(ruleset, txn)

	assert.Equal(t, "Local Grocer", domain.Named(result.Destination))
	assert.Empty(t, result.Tags)
}

// TestMatchNumericCondition_Absolute exercises the numeric-condition
// comparator's absolute-value handling, used to match charges regardless
// of their sign.
func TestMatchNumericCondition_Absolute(t *testing.T) {
	ruleset := []Rule{
		{
			Name:       "large-charge",
			Conditions: []Condition{MatchNumeric("amount", 100, OpGE, true)},
			Actions:    []Action{Add("tags", "large")},
		},
	}

	charge := domain.Transaction{Amount: decimal.NewFromFloat(-150.0), Flags: domain.NewFlags()}
	result := ApplyRulesToTransaction(ruleset, charge)
	assert.Contains(t, result.Tags, "large")

	small := domain.Transaction{Amount: decimal.NewFromFloat(-10.0), Flags: domain.NewFlags()}
	result = ApplyRulesToTransaction(ruleset, small)
	assert.NotContains(t, result.Tags, "large")
}

// TestApplyRulesToTransaction_MatchAny exercises the OR-combined
// MatchAny builder used by category rules with multiple accepted values.
func TestApplyRulesToTransaction_MatchAny(t *testing.T) {
	ruleset := []Rule{
		{
			Name:       "groceries",
			Conditions: []Condition{MatchAny("destination", "Mercadona", "Carrefour")},
			Actions:    []Action{Set("category", "groceries")},
		},
	}

	txn := domain.Transaction{Destination: domain.NewRecipient("Carrefour"), Flags: domain.NewFlags()}
	result := ApplyRulesToTransaction(ruleset, txn)
	require.NotNil(t, result.Category)
	assert.Equal(t, "groceries", result.Category.ID)
}
