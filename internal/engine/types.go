package engine

import (
	"github.com/promostack/discount-engine/internal/domain"
)

// CartItem is a single read-only cart line. Quantities are floats so that
// weighed goods (for example 1.5 kg) flow through the same arithmetic as
// unit counts.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// EvalContext is the caller-supplied snapshot an evaluation runs against.
// The engine never mutates it. CartItems may be empty, in which case BOGO
// calculations fall back to a single synthetic line derived from Quantity
// and OriginalPrice.
type EvalContext struct {
	Quantity        float64    `json:"quantity"`
	OriginalPrice   float64    `json:"original_price"`
	CartItems       []CartItem `json:"cart_items,omitempty"`
	ProductIDs      []string   `json:"product_ids,omitempty"`
	CollectionIDs   []string   `json:"collection_ids,omitempty"`
	CustomerSegment string     `json:"customer_segment,omitempty"`
	ShippingCost    float64    `json:"shipping_cost"`
	TaxRate         float64    `json:"tax_rate"`
}

// FreeItem is one granted free-item group in a calculation result.
type FreeItem struct {
	ProductID  string  `json:"product_id"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalValue float64 `json:"total_value"`
}

// CalculationDetails is the diagnostic record attached to every BOGO
// calculation. Calculation-time anomalies are reported through the Error
// field rather than a Go error, so callers always receive a well-formed
// result.
type CalculationDetails struct {
	Error                 string  `json:"error,omitempty"`
	EligibleItemCount     int     `json:"eligible_item_count"`
	TotalEligibleQuantity float64 `json:"total_eligible_quantity"`
	SetsQualified         float64 `json:"sets_qualified"`
	FreeItemCount         float64 `json:"free_item_count"`
	// LimitApplied is nil when no cap is configured, false when a cap exists
	// but was not reached, and true when the cap clamped the free item count.
	LimitApplied    *bool   `json:"limit_applied,omitempty"`
	FreeProductMode string  `json:"free_product_mode,omitempty"`
	BuyQuantity     float64 `json:"buy_quantity"`
	GetQuantity     float64 `json:"get_quantity"`
}

// CalculationResult is the immutable outcome of one BOGO calculation.
type CalculationResult struct {
	AppliedAmount float64            `json:"applied_amount"`
	FreeItems     []FreeItem         `json:"free_items"`
	Details       CalculationDetails `json:"calculation_details"`
}

// AppliedDiscount records a rule that was applied during stack evaluation,
// with enough detail to explain the outcome.
type AppliedDiscount struct {
	RuleID             string                 `json:"rule_id,omitempty"`
	Type               string                 `json:"type"`
	Value              float64                `json:"value"`
	Priority           int                    `json:"priority"`
	AmountApplied      float64                `json:"amount_applied"`
	Conditions         *domain.RuleConditions `json:"conditions,omitempty"`
	CalculationDetails *CalculationDetails    `json:"calculation_details,omitempty"`
}

// SkippedDiscount records a rule that was not applied and why.
type SkippedDiscount struct {
	RuleID   string `json:"rule_id,omitempty"`
	Type     string `json:"type"`
	Priority int    `json:"priority"`
	Reason   string `json:"reason"`
}

// OrderSummary is the terminal state of a stack evaluation: a plain data
// structure with no behavior, suitable for direct serialization.
type OrderSummary struct {
	OriginalPrice          float64           `json:"original_price"`
	FinalPrice             float64           `json:"final_price"`
	ShippingCost           float64           `json:"shipping_cost"`
	OriginalShippingCost   float64           `json:"original_shipping_cost"`
	FreeShippingApplied    bool              `json:"free_shipping_applied"`
	TaxRate                float64           `json:"tax_rate"`
	TaxAmount              float64           `json:"tax_amount"`
	Subtotal               float64           `json:"subtotal"`
	FinalTotal             float64           `json:"final_total"`
	AppliedDiscounts       []AppliedDiscount `json:"applied_discounts"`
	SkippedDiscounts       []SkippedDiscount `json:"skipped_discounts"`
	ProductDiscountAmount  float64           `json:"product_discount_amount"`
	ShippingDiscountAmount float64           `json:"shipping_discount_amount"`
	TotalDiscountAmount    float64           `json:"total_discount_amount"`
	SavingsPercentage      float64           `json:"savings_percentage"`
	StopOnFirstFailure     bool              `json:"stop_on_first_failure"`
}
