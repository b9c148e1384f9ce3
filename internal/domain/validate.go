package domain

import (
	"fmt"
	"strings"
)

// ValidateStack checks a full discount-stack definition before it is
// accepted for persistence. It returns zero or more human-readable error
// strings and never returns a Go error: the caller decides whether a
// non-empty list blocks the write. Rules are expected to carry normalized
// BOGO configurations.
func ValidateStack(name string, rules []DiscountRule) []string {
	var errs []string

	if strings.TrimSpace(name) == "" {
		errs = append(errs, "stack name is required")
	}
	if len(rules) == 0 {
		errs = append(errs, "at least one discount rule is required")
	}

	for i, rule := range rules {
		label := fmt.Sprintf("rule %d", i+1)

		if rule.Type == "" {
			errs = append(errs, fmt.Sprintf("%s: type is required", label))
			continue
		}
		if !IsValidRuleType(rule.Type) {
			errs = append(errs, fmt.Sprintf("%s: invalid type %q, must be one of: %s",
				label, rule.Type, strings.Join(ValidRuleTypes(), ", ")))
			continue
		}

		switch rule.Type {
		case RuleTypePercentage:
			if rule.Value < 0 || rule.Value > 100 {
				errs = append(errs, fmt.Sprintf("%s: percentage value must be between 0 and 100", label))
			}
		case RuleTypeFixedAmount:
			if rule.Value <= 0 {
				errs = append(errs, fmt.Sprintf("%s: fixed amount value must be greater than 0", label))
			}
		case RuleTypeBuyXGetY:
			errs = append(errs, validateBogoConfig(label, rule.BogoConfig)...)
		}
	}

	return errs
}

// validateBogoConfig applies the BOGO-specific cross-field rules. For
// buy_x_get_y rules the buy/get quantities stand in for the rule value.
func validateBogoConfig(label string, cfg *BogoConfig) []string {
	if cfg == nil {
		return []string{fmt.Sprintf("%s: bogo configuration is required", label)}
	}

	var errs []string

	if cfg.BuyQuantity <= 0 {
		errs = append(errs, fmt.Sprintf("%s: buy quantity must be greater than 0", label))
	}
	if cfg.GetQuantity <= 0 {
		errs = append(errs, fmt.Sprintf("%s: get quantity must be greater than 0", label))
	}

	if cfg.FreeProductMode != "" && !IsValidFreeProductMode(cfg.FreeProductMode) {
		errs = append(errs, fmt.Sprintf("%s: invalid free product mode %q, must be %q or %q",
			label, cfg.FreeProductMode, FreeProductModeSpecific, FreeProductModeCheapest))
	}

	switch cfg.FreeProductMode {
	case FreeProductModeCheapest:
		if len(cfg.EligibleProductIDs) == 0 {
			errs = append(errs, fmt.Sprintf("%s: cheapest mode requires eligible products to be specified", label))
		}
	default:
		// Specific mode. Free products without eligible products is a
		// distinct, more precise error than nothing being specified at all.
		if len(cfg.EligibleProductIDs) == 0 && len(cfg.FreeProductIDs) > 0 {
			errs = append(errs, fmt.Sprintf("%s: free products cannot be specified without eligible products", label))
		} else if len(cfg.EligibleProductIDs) == 0 && len(cfg.FreeProductIDs) == 0 {
			errs = append(errs, fmt.Sprintf("%s: at least one eligible or free product must be specified", label))
		}
	}

	if cfg.LimitPerOrder != nil && *cfg.LimitPerOrder <= 0 {
		errs = append(errs, fmt.Sprintf("%s: limit per order must be greater than 0", label))
	}

	return errs
}
