package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promostack/discount-engine/internal/domain"
)

func conditionContext() EvalContext {
	return EvalContext{
		Quantity:        5,
		OriginalPrice:   200,
		ProductIDs:      []string{"12345", "67890"},
		CollectionIDs:   []string{"col-1"},
		CustomerSegment: "vip",
	}
}

func TestEvaluateConditions_NoConditions(t *testing.T) {
	rule := domain.DiscountRule{Type: domain.RuleTypePercentage, Value: 10}

	satisfied, reason := EvaluateConditions(rule, conditionContext())

	assert.True(t, satisfied)
	assert.Empty(t, reason)
}

func TestEvaluateConditions_MinAmount(t *testing.T) {
	rule := domain.DiscountRule{
		Type:       domain.RuleTypePercentage,
		Conditions: &domain.RuleConditions{MinAmount: floatPtr(500)},
	}

	satisfied, reason := EvaluateConditions(rule, conditionContext())

	assert.False(t, satisfied)
	assert.Contains(t, reason, "minimum cart amount")
}

func TestEvaluateConditions_MinAmountExactlyMet(t *testing.T) {
	rule := domain.DiscountRule{
		Type:       domain.RuleTypePercentage,
		Conditions: &domain.RuleConditions{MinAmount: floatPtr(200)},
	}

	satisfied, _ := EvaluateConditions(rule, conditionContext())

	assert.True(t, satisfied)
}

func TestEvaluateConditions_MinQuantity(t *testing.T) {
	rule := domain.DiscountRule{
		Type:       domain.RuleTypePercentage,
		Conditions: &domain.RuleConditions{MinQuantity: floatPtr(6)},
	}

	satisfied, reason := EvaluateConditions(rule, conditionContext())

	assert.False(t, satisfied)
	assert.Contains(t, reason, "minimum quantity")
}

func TestEvaluateConditions_RequiredProducts_AnyOf(t *testing.T) {
	rule := domain.DiscountRule{
		Type:       domain.RuleTypePercentage,
		Conditions: &domain.RuleConditions{RequiredProducts: []string{"99999", "67890"}},
	}

	satisfied, _ := EvaluateConditions(rule, conditionContext())

	assert.True(t, satisfied)
}

func TestEvaluateConditions_RequiredProducts_NoneMatch(t *testing.T) {
	rule := domain.DiscountRule{
		Type:       domain.RuleTypePercentage,
		Conditions: &domain.RuleConditions{RequiredProducts: []string{"99999"}},
	}

	satisfied, reason := EvaluateConditions(rule, conditionContext())

	assert.False(t, satisfied)
	assert.Contains(t, reason, "required products")
}

func TestEvaluateConditions_RequiredCollections(t *testing.T) {
	rule := domain.DiscountRule{
		Type:       domain.RuleTypePercentage,
		Conditions: &domain.RuleConditions{RequiredCollections: []string{"col-2"}},
	}

	satisfied, reason := EvaluateConditions(rule, conditionContext())

	assert.False(t, satisfied)
	assert.Contains(t, reason, "required collections")
}

func TestEvaluateConditions_CustomerSegment(t *testing.T) {
	rule := domain.DiscountRule{
		Type:       domain.RuleTypePercentage,
		Conditions: &domain.RuleConditions{CustomerSegments: []string{"wholesale"}},
	}

	satisfied, reason := EvaluateConditions(rule, conditionContext())

	assert.False(t, satisfied)
	assert.Contains(t, reason, "customer segment")
}

func TestEvaluateConditions_ShortCircuitOrder(t *testing.T) {
	// Both amount and quantity fail; the amount check runs first.
	rule := domain.DiscountRule{
		Type: domain.RuleTypePercentage,
		Conditions: &domain.RuleConditions{
			MinAmount:   floatPtr(500),
			MinQuantity: floatPtr(100),
		},
	}

	satisfied, reason := EvaluateConditions(rule, conditionContext())

	assert.False(t, satisfied)
	assert.Contains(t, reason, "minimum cart amount")
}

func TestEvaluateConditions_BogoMinBuyQuantity(t *testing.T) {
	rule := domain.DiscountRule{
		Type:       domain.RuleTypeBuyXGetY,
		BogoConfig: &domain.BogoConfig{BuyQuantity: 10, GetQuantity: 1},
	}

	satisfied, reason := EvaluateConditions(rule, conditionContext())

	assert.False(t, satisfied)
	assert.Contains(t, reason, "minimum buy quantity")
}

func TestEvaluateConditions_BogoMinBuyQuantityMet(t *testing.T) {
	rule := domain.DiscountRule{
		Type:       domain.RuleTypeBuyXGetY,
		BogoConfig: &domain.BogoConfig{BuyQuantity: 2, GetQuantity: 1},
	}

	satisfied, _ := EvaluateConditions(rule, conditionContext())

	assert.True(t, satisfied)
}

func TestEvaluateConditions_BogoBuyQuantityFromRuleValue(t *testing.T) {
	// No stored config: the rule value stands in for the buy quantity.
	rule := domain.DiscountRule{Type: domain.RuleTypeBuyXGetY, Value: 10}

	satisfied, reason := EvaluateConditions(rule, conditionContext())

	assert.False(t, satisfied)
	assert.Contains(t, reason, "minimum buy quantity")
}

func TestEvaluateConditions_NonBogoSkipsBuyQuantityCheck(t *testing.T) {
	rule := domain.DiscountRule{Type: domain.RuleTypeFixedAmount, Value: 1000}

	satisfied, _ := EvaluateConditions(rule, conditionContext())

	assert.True(t, satisfied)
}
