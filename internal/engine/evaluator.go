package engine

import (
	"log/slog"
	"math"

	"github.com/promostack/discount-engine/internal/domain"
)

// Reason recorded for rules that are never evaluated because an earlier
// failure stopped the chain.
const reasonChainStopped = "previous rule in chain failed"

// Evaluator folds a discount stack over an evaluation context. It holds no
// per-evaluation state: every call is pure over its inputs, so concurrent
// evaluations need no coordination.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator creates a stack evaluator.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	return &Evaluator{logger: logger}
}

// Evaluate applies the stack's active rules in priority order against the
// context and returns a fully populated order summary. Rules whose
// conditions fail are recorded as skipped; when the stack is configured to
// stop on first failure, every subsequent rule is skipped without further
// evaluation.
func (e *Evaluator) Evaluate(stack *domain.DiscountStack, ctx EvalContext) *OrderSummary {
	rules := stack.ActiveRulesByPriority()

	currentPrice := ctx.OriginalPrice
	shippingCost := ctx.ShippingCost

	var (
		applied             []AppliedDiscount
		skipped             []SkippedDiscount
		productDiscount     float64
		shippingDiscount    float64
		freeShippingApplied bool
		stopProcessing      bool
	)

	for _, rule := range rules {
		if stopProcessing {
			skipped = append(skipped, SkippedDiscount{
				RuleID:   rule.ID,
				Type:     rule.Type,
				Priority: rule.Priority,
				Reason:   reasonChainStopped,
			})
			continue
		}

		satisfied, reason := EvaluateConditions(rule, ctx)
		if !satisfied {
			if stack.StopOnFirstFailure {
				stopProcessing = true
			}
			skipped = append(skipped, SkippedDiscount{
				RuleID:   rule.ID,
				Type:     rule.Type,
				Priority: rule.Priority,
				Reason:   reason,
			})
			continue
		}

		entry := AppliedDiscount{
			RuleID:     rule.ID,
			Type:       rule.Type,
			Value:      rule.Value,
			Priority:   rule.Priority,
			Conditions: rule.Conditions,
		}

		switch rule.Type {
		case domain.RuleTypePercentage:
			amount := currentPrice * rule.Value / 100
			currentPrice -= amount
			productDiscount += amount
			entry.AmountApplied = amount

		case domain.RuleTypeFixedAmount:
			amount := math.Min(rule.Value, currentPrice)
			currentPrice -= amount
			productDiscount += amount
			entry.AmountApplied = amount

		case domain.RuleTypeFreeShipping:
			// Shipping is zeroed at most once; a second free-shipping rule
			// in the same stack has no further effect.
			if !freeShippingApplied {
				shippingDiscount = shippingCost
				shippingCost = 0
				freeShippingApplied = true
				entry.AmountApplied = shippingDiscount
			}

		case domain.RuleTypeBuyXGetY:
			result := e.calculateBogoRule(rule, ctx)
			currentPrice -= result.AppliedAmount
			productDiscount += result.AppliedAmount
			entry.AmountApplied = result.AppliedAmount
			details := result.Details
			entry.CalculationDetails = &details
		}

		applied = append(applied, entry)
	}

	if currentPrice < 0 {
		currentPrice = 0
	}

	taxAmount := (currentPrice + shippingCost) * ctx.TaxRate
	finalTotal := currentPrice + shippingCost + taxAmount
	totalDiscount := productDiscount + shippingDiscount

	savings := 0.0
	if base := ctx.OriginalPrice + ctx.ShippingCost; base > 0 {
		savings = math.Round(totalDiscount/base*100*100) / 100
	}

	if applied == nil {
		applied = []AppliedDiscount{}
	}
	if skipped == nil {
		skipped = []SkippedDiscount{}
	}

	return &OrderSummary{
		OriginalPrice:          ctx.OriginalPrice,
		FinalPrice:             currentPrice,
		ShippingCost:           shippingCost,
		OriginalShippingCost:   ctx.ShippingCost,
		FreeShippingApplied:    freeShippingApplied,
		TaxRate:                ctx.TaxRate,
		TaxAmount:              taxAmount,
		Subtotal:               currentPrice,
		FinalTotal:             finalTotal,
		AppliedDiscounts:       applied,
		SkippedDiscounts:       skipped,
		ProductDiscountAmount:  productDiscount,
		ShippingDiscountAmount: shippingDiscount,
		TotalDiscountAmount:    totalDiscount,
		SavingsPercentage:      savings,
		StopOnFirstFailure:     stack.StopOnFirstFailure,
	}
}

// calculateBogoRule selects between the per-line calculation and the legacy
// aggregate formula. The enhanced path is used when the configuration names
// eligible products or uses cheapest mode; everything else falls back to the
// legacy formula for backward compatibility.
func (e *Evaluator) calculateBogoRule(rule domain.DiscountRule, ctx EvalContext) CalculationResult {
	var cfg domain.BogoConfig
	if rule.BogoConfig != nil {
		cfg = *rule.BogoConfig
	} else {
		// A rule without a stored configuration still calculates: derive one
		// from the rule value the same way creation-time normalization would.
		cfg = NormalizeBogoConfig(BogoConfigInput{}, rule.Value)
	}

	var result CalculationResult
	if cfg.FreeProductMode == domain.FreeProductModeCheapest || len(cfg.EligibleProductIDs) > 0 {
		result = CalculateBogo(cfg, ctx)
	} else {
		result = CalculateBogoLegacy(cfg, ctx)
	}

	if result.Details.Error != "" && e.logger != nil {
		e.logger.Debug("bogo calculation reported an error",
			slog.String("rule_id", rule.ID),
			slog.String("error", result.Details.Error),
		)
	}

	return result
}
