package engine

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/promostack/discount-engine/internal/domain"
)

// OptionalNumber is a tri-state numeric field for JSON input: it records
// whether the field was present at all, and whether a usable numeric value
// was supplied. Numeric-as-string representations from external form input
// ("5") are accepted here so the core only ever sees a concrete
// numeric-or-absent value.
type OptionalNumber struct {
	Present bool
	Valid   bool
	Value   float64
}

// UnmarshalJSON is only invoked when the field is present, so Present always
// becomes true. An explicit null or an unparseable value is present but not
// valid.
func (n *OptionalNumber) UnmarshalJSON(data []byte) error {
	n.Present = true
	n.Valid = false

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.Valid = true
		n.Value = f
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			n.Valid = true
			n.Value = f
		}
		return nil
	}

	// Wrong type entirely (object, array, bool). Read defensively: the field
	// is treated as supplied-but-unusable rather than failing the decode.
	return nil
}

// MarshalJSON round-trips the tri-state: absent and invalid values encode as
// null.
func (n OptionalNumber) MarshalJSON() ([]byte, error) {
	if !n.Present || !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// BogoConfigInput is the raw, partially-specified BOGO configuration as
// submitted by a caller. Product ID lists accept arbitrary JSON values;
// anything that is not a well-formed identifier string is filtered out
// during normalization.
type BogoConfigInput struct {
	BuyQuantity        *float64       `json:"buy_quantity,omitempty"`
	GetQuantity        *float64       `json:"get_quantity,omitempty"`
	EligibleProductIDs []any          `json:"eligible_product_ids,omitempty"`
	FreeProductIDs     []any          `json:"free_product_ids,omitempty"`
	LimitPerOrder      OptionalNumber `json:"limit_per_order,omitempty"`
	FreeProductMode    string         `json:"free_product_mode,omitempty"`
}

// NormalizeBogoConfig derives a complete, self-consistent BOGO configuration
// from a partial one. Each field resolves through an ordered list of
// sources, left to right:
//
//   - buy quantity: raw value, else the rule-level fallback, else 1
//   - get quantity: raw value, else 1
//   - free product mode: raw value, else specific
//   - free products: always empty in cheapest mode; otherwise the filtered
//     raw list, auto-defaulted to the eligible list when empty so a specific
//     mode configuration cannot silently grant nothing
//   - limit per order: preserved when the caller supplied one (an explicit
//     null means unlimited), else defaulted to the get quantity
//
// The transform is pure and idempotent on configurations it has produced.
func NormalizeBogoConfig(input BogoConfigInput, fallbackValue float64) domain.BogoConfig {
	cfg := domain.BogoConfig{
		BuyQuantity: 1,
		GetQuantity: 1,
	}

	switch {
	case input.BuyQuantity != nil:
		cfg.BuyQuantity = *input.BuyQuantity
	case fallbackValue != 0:
		cfg.BuyQuantity = fallbackValue
	}

	if input.GetQuantity != nil {
		cfg.GetQuantity = *input.GetQuantity
	}

	cfg.EligibleProductIDs = FilterProductIDs(input.EligibleProductIDs)

	cfg.FreeProductMode = input.FreeProductMode
	if cfg.FreeProductMode == "" {
		cfg.FreeProductMode = domain.FreeProductModeSpecific
	}

	if cfg.FreeProductMode == domain.FreeProductModeCheapest {
		// Cheapest mode never reads a free-product pool; any supplied value
		// is discarded so it cannot leak into the allocation.
		cfg.FreeProductIDs = []string{}
	} else {
		cfg.FreeProductIDs = FilterProductIDs(input.FreeProductIDs)
		if len(cfg.FreeProductIDs) == 0 {
			cfg.FreeProductIDs = append([]string{}, cfg.EligibleProductIDs...)
		}
	}

	switch {
	case input.LimitPerOrder.Present && input.LimitPerOrder.Valid:
		v := input.LimitPerOrder.Value
		cfg.LimitPerOrder = &v
	case input.LimitPerOrder.Present:
		// Explicit "no limit".
		cfg.LimitPerOrder = nil
	default:
		v := cfg.GetQuantity
		cfg.LimitPerOrder = &v
	}

	return cfg
}

// BogoInputFromConfig converts a canonical configuration back into input
// form, so re-normalizing an already-normalized configuration yields the
// same configuration.
func BogoInputFromConfig(cfg domain.BogoConfig) BogoConfigInput {
	input := BogoConfigInput{
		FreeProductMode: cfg.FreeProductMode,
	}

	buy, get := cfg.BuyQuantity, cfg.GetQuantity
	input.BuyQuantity = &buy
	input.GetQuantity = &get

	input.EligibleProductIDs = make([]any, 0, len(cfg.EligibleProductIDs))
	for _, id := range cfg.EligibleProductIDs {
		input.EligibleProductIDs = append(input.EligibleProductIDs, id)
	}
	input.FreeProductIDs = make([]any, 0, len(cfg.FreeProductIDs))
	for _, id := range cfg.FreeProductIDs {
		input.FreeProductIDs = append(input.FreeProductIDs, id)
	}

	input.LimitPerOrder = OptionalNumber{Present: true}
	if cfg.LimitPerOrder != nil {
		input.LimitPerOrder.Valid = true
		input.LimitPerOrder.Value = *cfg.LimitPerOrder
	}

	return input
}
