package engine

import (
	"fmt"

	"github.com/promostack/discount-engine/internal/domain"
)

// EvaluateConditions checks a rule's eligibility conditions against the
// evaluation context. Checks run in a fixed order and short-circuit on the
// first failure: minimum cart amount, minimum quantity, required product
// membership, required collection membership, required customer segment,
// and, for buy_x_get_y rules only, a minimum buy quantity derived from the
// rule's effective configuration. An absent condition field is vacuously
// satisfied. The context is never mutated.
func EvaluateConditions(rule domain.DiscountRule, ctx EvalContext) (bool, string) {
	c := rule.Conditions
	if c != nil {
		if c.MinAmount != nil && ctx.OriginalPrice < *c.MinAmount {
			return false, fmt.Sprintf("minimum cart amount not met: requires %g, have %g", *c.MinAmount, ctx.OriginalPrice)
		}
		if c.MinQuantity != nil && ctx.Quantity < *c.MinQuantity {
			return false, fmt.Sprintf("minimum quantity not met: requires %g, have %g", *c.MinQuantity, ctx.Quantity)
		}
		if len(c.RequiredProducts) > 0 && !containsAny(ctx.ProductIDs, c.RequiredProducts) {
			return false, "required products are not in the cart"
		}
		if len(c.RequiredCollections) > 0 && !containsAny(ctx.CollectionIDs, c.RequiredCollections) {
			return false, "required collections are not in the cart"
		}
		if len(c.CustomerSegments) > 0 && !contains(c.CustomerSegments, ctx.CustomerSegment) {
			return false, fmt.Sprintf("customer segment %q is not eligible", ctx.CustomerSegment)
		}
	}

	if rule.Type == domain.RuleTypeBuyXGetY {
		buyQty := effectiveBuyQuantity(rule)
		if ctx.Quantity < buyQty {
			return false, fmt.Sprintf("minimum buy quantity not met: requires %g, have %g", buyQty, ctx.Quantity)
		}
	}

	return true, ""
}

// effectiveBuyQuantity resolves the buy quantity the same way the config
// normalizer does: configured value, else the rule value, else 1.
func effectiveBuyQuantity(rule domain.DiscountRule) float64 {
	if rule.BogoConfig != nil && rule.BogoConfig.BuyQuantity > 0 {
		return rule.BogoConfig.BuyQuantity
	}
	if rule.Value > 0 {
		return rule.Value
	}
	return 1
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// containsAny reports whether have contains at least one of want.
func containsAny(have, want []string) bool {
	haveSet := toSet(have)
	for _, w := range want {
		if haveSet[w] {
			return true
		}
	}
	return false
}
