package engine

import (
	"math"
	"sort"

	"github.com/promostack/discount-engine/internal/domain"
)

// Calculation error tags reported through CalculationDetails.Error. These
// are reported conditions, not fatal ones: the caller always receives a
// zero-amount result it can consume uniformly.
const (
	ErrTagInvalidQuantity    = "Invalid quantity"
	ErrTagInvalidBuyQuantity = "Invalid buyQuantity: must be greater than 0"
	ErrTagInvalidGetQuantity = "Invalid getQuantity: must be greater than 0"
)

// CalculateBogo computes the buy-X-get-Y discount for a cart snapshot under
// the given configuration. Quantities may be fractional; all arithmetic is
// floating point with no mid-calculation rounding. The function is pure and
// never fails: anomalies are reported in the result's details.
func CalculateBogo(cfg domain.BogoConfig, ctx EvalContext) CalculationResult {
	if ctx.Quantity <= 0 {
		return errorResult(cfg, ErrTagInvalidQuantity)
	}
	if cfg.BuyQuantity <= 0 {
		return errorResult(cfg, ErrTagInvalidBuyQuantity)
	}
	if cfg.GetQuantity <= 0 {
		return errorResult(cfg, ErrTagInvalidGetQuantity)
	}

	lines := effectiveLines(ctx)

	// A line counts toward the buy quantity if the eligible set is empty
	// (any product qualifies) or its product is a member.
	eligibleSet := toSet(cfg.EligibleProductIDs)
	var eligible []CartItem
	var totalEligibleQty float64
	for _, line := range lines {
		if len(eligibleSet) == 0 || eligibleSet[line.ProductID] {
			eligible = append(eligible, line)
			totalEligibleQty += line.Quantity
		}
	}

	// BuyQuantity > 0 is guaranteed above, so this division is safe.
	setsQualified := math.Floor(totalEligibleQty / cfg.BuyQuantity)
	freeItemCount := setsQualified * cfg.GetQuantity

	var limitApplied *bool
	if cfg.LimitPerOrder != nil {
		applied := false
		if freeItemCount > *cfg.LimitPerOrder {
			freeItemCount = *cfg.LimitPerOrder
			applied = true
		}
		limitApplied = &applied
	}

	var candidates []CartItem
	if cfg.FreeProductMode == domain.FreeProductModeCheapest {
		// Free items come from the lowest-priced eligible lines. The sort is
		// stable: price ties keep their cart order.
		candidates = make([]CartItem, len(eligible))
		copy(candidates, eligible)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].UnitPrice < candidates[j].UnitPrice
		})
	} else {
		pool := cfg.FreeProductIDs
		if len(pool) == 0 {
			pool = cfg.EligibleProductIDs
		}
		poolSet := toSet(pool)
		for _, line := range lines {
			if poolSet[line.ProductID] {
				candidates = append(candidates, line)
			}
		}
	}

	freeItems, appliedAmount := allocateFreeItems(candidates, freeItemCount)

	return CalculationResult{
		AppliedAmount: appliedAmount,
		FreeItems:     freeItems,
		Details: CalculationDetails{
			EligibleItemCount:     len(eligible),
			TotalEligibleQuantity: totalEligibleQty,
			SetsQualified:         setsQualified,
			FreeItemCount:         freeItemCount,
			LimitApplied:          limitApplied,
			FreeProductMode:       cfg.FreeProductMode,
			BuyQuantity:           cfg.BuyQuantity,
			GetQuantity:           cfg.GetQuantity,
		},
	}
}

// CalculateBogoLegacy computes a buy-X-get-Y discount from aggregate
// quantity and price alone, with no per-line cart. A complete set consumes
// buy+get units together, unlike CalculateBogo where a set is buy-only.
// The two formulas intentionally diverge for backward compatibility and are
// kept as separate code paths.
func CalculateBogoLegacy(cfg domain.BogoConfig, ctx EvalContext) CalculationResult {
	if ctx.Quantity <= 0 {
		return errorResult(cfg, ErrTagInvalidQuantity)
	}
	if cfg.BuyQuantity <= 0 {
		return errorResult(cfg, ErrTagInvalidBuyQuantity)
	}
	if cfg.GetQuantity <= 0 {
		return errorResult(cfg, ErrTagInvalidGetQuantity)
	}

	completeSets := math.Floor(ctx.Quantity / (cfg.BuyQuantity + cfg.GetQuantity))
	freeItemCount := completeSets * cfg.GetQuantity

	var limitApplied *bool
	if cfg.LimitPerOrder != nil {
		applied := false
		if freeItemCount > *cfg.LimitPerOrder {
			freeItemCount = *cfg.LimitPerOrder
			applied = true
		}
		limitApplied = &applied
	}

	unitPrice := ctx.OriginalPrice / ctx.Quantity
	appliedAmount := freeItemCount * unitPrice

	var freeItems []FreeItem
	if freeItemCount > 0 {
		freeItems = append(freeItems, FreeItem{
			Quantity:   freeItemCount,
			UnitPrice:  unitPrice,
			TotalValue: appliedAmount,
		})
	}

	return CalculationResult{
		AppliedAmount: appliedAmount,
		FreeItems:     freeItems,
		Details: CalculationDetails{
			TotalEligibleQuantity: ctx.Quantity,
			SetsQualified:         completeSets,
			FreeItemCount:         freeItemCount,
			LimitApplied:          limitApplied,
			FreeProductMode:       cfg.FreeProductMode,
			BuyQuantity:           cfg.BuyQuantity,
			GetQuantity:           cfg.GetQuantity,
		},
	}
}

// effectiveLines returns the cart lines a calculation operates on. Lines
// with non-positive quantity are discarded. When the context carries no
// cart at all, a single synthetic line is derived from the aggregate
// quantity and price.
func effectiveLines(ctx EvalContext) []CartItem {
	if len(ctx.CartItems) == 0 {
		productID := ""
		if len(ctx.ProductIDs) > 0 {
			productID = ctx.ProductIDs[0]
		}
		return []CartItem{{
			ProductID: productID,
			Quantity:  ctx.Quantity,
			UnitPrice: ctx.OriginalPrice / ctx.Quantity,
		}}
	}

	lines := make([]CartItem, 0, len(ctx.CartItems))
	for _, item := range ctx.CartItems {
		if item.Quantity > 0 {
			lines = append(lines, item)
		}
	}
	return lines
}

// allocateFreeItems walks the candidate lines in order, greedily consuming
// up to remaining units per line. The applied amount is the exact sum of the
// per-line total values, never recomputed independently.
func allocateFreeItems(candidates []CartItem, remaining float64) ([]FreeItem, float64) {
	var freeItems []FreeItem
	var appliedAmount float64

	for _, line := range candidates {
		if remaining <= 0 {
			break
		}
		qty := math.Min(line.Quantity, remaining)
		if qty <= 0 {
			continue
		}
		totalValue := line.UnitPrice * qty
		freeItems = append(freeItems, FreeItem{
			ProductID:  line.ProductID,
			Quantity:   qty,
			UnitPrice:  line.UnitPrice,
			TotalValue: totalValue,
		})
		appliedAmount += totalValue
		remaining -= qty
	}

	return freeItems, appliedAmount
}

func errorResult(cfg domain.BogoConfig, tag string) CalculationResult {
	return CalculationResult{
		AppliedAmount: 0,
		FreeItems:     []FreeItem{},
		Details: CalculationDetails{
			Error:           tag,
			FreeProductMode: cfg.FreeProductMode,
			BuyQuantity:     cfg.BuyQuantity,
			GetQuantity:     cfg.GetQuantity,
		},
	}
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
