package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPercentageRule() DiscountRule {
	return DiscountRule{Type: RuleTypePercentage, Value: 10, IsActive: true}
}

// ============================================================================
// Stack-Level Validation Tests
// ============================================================================

func TestValidateStack_Valid(t *testing.T) {
	errs := ValidateStack("Summer Sale", []DiscountRule{validPercentageRule()})
	assert.Empty(t, errs)
}

func TestValidateStack_NameRequired(t *testing.T) {
	errs := ValidateStack("   ", []DiscountRule{validPercentageRule()})
	require.Len(t, errs, 1)
	assert.Equal(t, "stack name is required", errs[0])
}

func TestValidateStack_AtLeastOneRule(t *testing.T) {
	errs := ValidateStack("Summer Sale", nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "at least one discount rule is required", errs[0])
}

func TestValidateStack_CollectsAllErrors(t *testing.T) {
	errs := ValidateStack("", nil)
	assert.Len(t, errs, 2)
}

// ============================================================================
// Rule-Level Validation Tests
// ============================================================================

func TestValidateStack_RuleTypeRequired(t *testing.T) {
	errs := ValidateStack("s", []DiscountRule{{}})
	require.Len(t, errs, 1)
	assert.Equal(t, "rule 1: type is required", errs[0])
}

func TestValidateStack_InvalidRuleType(t *testing.T) {
	errs := ValidateStack("s", []DiscountRule{{Type: "bogus"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `invalid type "bogus"`)
}

func TestValidateStack_PercentageRange(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		valid bool
	}{
		{"zero", 0, true},
		{"hundred", 100, true},
		{"negative", -1, false},
		{"over hundred", 101, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStack("s", []DiscountRule{{Type: RuleTypePercentage, Value: tt.value}})
			if tt.valid {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Contains(t, errs[0], "percentage value must be between 0 and 100")
			}
		})
	}
}

func TestValidateStack_FixedAmountPositive(t *testing.T) {
	errs := ValidateStack("s", []DiscountRule{{Type: RuleTypeFixedAmount, Value: 0}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "fixed amount value must be greater than 0")

	errs = ValidateStack("s", []DiscountRule{{Type: RuleTypeFixedAmount, Value: 9.99}})
	assert.Empty(t, errs)
}

func TestValidateStack_ErrorsPrefixedWithRulePosition(t *testing.T) {
	errs := ValidateStack("s", []DiscountRule{
		validPercentageRule(),
		{Type: RuleTypeFixedAmount, Value: -5},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "rule 2:")
}

// ============================================================================
// BOGO Validation Tests
// ============================================================================

func validBogoConfig() *BogoConfig {
	return &BogoConfig{
		BuyQuantity:        2,
		GetQuantity:        1,
		EligibleProductIDs: []string{"12345"},
		FreeProductMode:    FreeProductModeSpecific,
	}
}

func TestValidateStack_BogoConfigRequired(t *testing.T) {
	errs := ValidateStack("s", []DiscountRule{{Type: RuleTypeBuyXGetY}})
	require.Len(t, errs, 1)
	assert.Equal(t, "rule 1: bogo configuration is required", errs[0])
}

func TestValidateStack_BogoValid(t *testing.T) {
	errs := ValidateStack("s", []DiscountRule{{Type: RuleTypeBuyXGetY, BogoConfig: validBogoConfig()}})
	assert.Empty(t, errs)
}

func TestValidateStack_BogoQuantitiesPositive(t *testing.T) {
	cfg := validBogoConfig()
	cfg.BuyQuantity = 0
	cfg.GetQuantity = -1

	errs := ValidateStack("s", []DiscountRule{{Type: RuleTypeBuyXGetY, BogoConfig: cfg}})

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "buy quantity must be greater than 0")
	assert.Contains(t, errs[1], "get quantity must be greater than 0")
}

func TestValidateStack_BogoInvalidMode(t *testing.T) {
	cfg := validBogoConfig()
	cfg.FreeProductMode = "random"

	errs := ValidateStack("s", []DiscountRule{{Type: RuleTypeBuyXGetY, BogoConfig: cfg}})

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `invalid free product mode "random"`)
}

func TestValidateStack_BogoCheapestRequiresEligible(t *testing.T) {
	cfg := validBogoConfig()
	cfg.FreeProductMode = FreeProductModeCheapest
	cfg.EligibleProductIDs = nil

	errs := ValidateStack("s", []DiscountRule{{Type: RuleTypeBuyXGetY, BogoConfig: cfg}})

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "cheapest mode requires eligible products")
}

func TestValidateStack_BogoFreeWithoutEligible(t *testing.T) {
	cfg := validBogoConfig()
	cfg.EligibleProductIDs = nil
	cfg.FreeProductIDs = []string{"11111"}

	errs := ValidateStack("s", []DiscountRule{{Type: RuleTypeBuyXGetY, BogoConfig: cfg}})

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "free products cannot be specified without eligible products")
}

func TestValidateStack_BogoNoProductsAtAll(t *testing.T) {
	cfg := validBogoConfig()
	cfg.EligibleProductIDs = nil
	cfg.FreeProductIDs = nil

	errs := ValidateStack("s", []DiscountRule{{Type: RuleTypeBuyXGetY, BogoConfig: cfg}})

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "at least one eligible or free product must be specified")
}

func TestValidateStack_BogoLimitPositive(t *testing.T) {
	zero := 0.0
	cfg := validBogoConfig()
	cfg.LimitPerOrder = &zero

	errs := ValidateStack("s", []DiscountRule{{Type: RuleTypeBuyXGetY, BogoConfig: cfg}})

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "limit per order must be greater than 0")
}
