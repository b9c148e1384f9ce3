package domain

import (
	"sort"
	"time"
)

// Discount rule type constants.
const (
	RuleTypePercentage   = "percentage"
	RuleTypeFixedAmount  = "fixed_amount"
	RuleTypeBuyXGetY     = "buy_x_get_y"
	RuleTypeFreeShipping = "free_shipping"
)

// Free product selection mode constants for buy_x_get_y rules.
const (
	FreeProductModeSpecific = "specific"
	FreeProductModeCheapest = "cheapest"
)

// DiscountStack is a named, shop-scoped ordered collection of discount rules
// evaluated together against one cart.
type DiscountStack struct {
	ID                 string         `json:"id"`
	ShopID             string         `json:"shop_id"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	IsActive           bool           `json:"is_active"`
	StopOnFirstFailure bool           `json:"stop_on_first_failure"`
	StartDate          *time.Time     `json:"start_date,omitempty"`
	EndDate            *time.Time     `json:"end_date,omitempty"`
	Rules              []DiscountRule `json:"rules"`
	CurrentUsageCount  int            `json:"current_usage_count"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// DiscountRule is a single rule within a stack. Value's meaning depends on
// Type: a percentage in [0,100] for percentage rules, a currency amount for
// fixed_amount rules, and a fallback buy quantity for buy_x_get_y rules.
type DiscountRule struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Value      float64         `json:"value"`
	Priority   int             `json:"priority"`
	IsActive   bool            `json:"is_active"`
	Conditions *RuleConditions `json:"conditions,omitempty"`
	BogoConfig *BogoConfig     `json:"bogo_config,omitempty"`
}

// RuleConditions is the optional eligibility predicate set of a rule.
// A nil field means that check is skipped.
type RuleConditions struct {
	MinAmount           *float64 `json:"min_amount,omitempty"`
	MinQuantity         *float64 `json:"min_quantity,omitempty"`
	RequiredProducts    []string `json:"required_products,omitempty"`
	RequiredCollections []string `json:"required_collections,omitempty"`
	CustomerSegments    []string `json:"customer_segments,omitempty"`
}

// BogoConfig is the canonical buy-X-get-Y configuration stored on a rule
// after normalization. Quantities are floats: fractional quantities are a
// supported feature (weighted goods), not an error.
type BogoConfig struct {
	BuyQuantity        float64  `json:"buy_quantity"`
	GetQuantity        float64  `json:"get_quantity"`
	EligibleProductIDs []string `json:"eligible_product_ids"`
	FreeProductIDs     []string `json:"free_product_ids"`
	// LimitPerOrder caps free items per order. Nil means unlimited; an
	// explicit 0 means no free items at all.
	LimitPerOrder   *float64 `json:"limit_per_order,omitempty"`
	FreeProductMode string   `json:"free_product_mode"`
}

// ValidRuleTypes returns the set of valid discount rule types.
func ValidRuleTypes() []string {
	return []string{
		RuleTypePercentage,
		RuleTypeFixedAmount,
		RuleTypeBuyXGetY,
		RuleTypeFreeShipping,
	}
}

// IsValidRuleType checks whether the given type string is a valid rule type.
func IsValidRuleType(t string) bool {
	for _, v := range ValidRuleTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// IsValidFreeProductMode checks whether the given mode string is a valid
// free product selection mode.
func IsValidFreeProductMode(mode string) bool {
	return mode == FreeProductModeSpecific || mode == FreeProductModeCheapest
}

// WithinValidityWindow reports whether the stack's optional validity window
// contains the given instant. An unset bound is open-ended.
func (s *DiscountStack) WithinValidityWindow(now time.Time) bool {
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}

// ActiveRulesByPriority returns the stack's active rules sorted by ascending
// priority. The sort is stable: priority ties keep their original order.
func (s *DiscountStack) ActiveRulesByPriority() []DiscountRule {
	rules := make([]DiscountRule, 0, len(s.Rules))
	for _, r := range s.Rules {
		if r.IsActive {
			rules = append(rules, r)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
	return rules
}
