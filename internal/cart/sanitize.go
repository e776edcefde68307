// Package cart reconciles externally-sourced cart data with the storefront
// invariants and owns the add/update/clear round-trips against the cart
// store. Sanitize is the sole gate between raw cart payloads and anything
// the rest of the system trusts.
package cart

import (
	"math"
	"strconv"
	"strings"

	"storefront-service/internal/domain"
)

// DefaultSize is the canonical bucket for blank or placeholder size labels.
const DefaultSize = "Default"

// Sanitize normalizes a raw cart structure. Per size entry: the quantity is
// coerced to a positive integer (non-finite, zero and negative values drop
// the entry); the label is trimmed, with blank/"default"/"undefined"
// collapsing to DefaultSize; purely-numeric labels are legacy corrupt data
// and drop the entry outright rather than being normalized. Quantities of
// entries that collide on the same normalized (product, size) pair are
// summed. Products with no surviving sizes are omitted. The result always
// satisfies the cart invariants, however malformed the input, and the
// function is idempotent.
func Sanitize(raw domain.RawCart) domain.CartData {
	clean := make(domain.CartData)
	for productID, sizes := range raw {
		if productID == "" || sizes == nil {
			continue
		}
		valid := make(map[string]int)
		for label, rawQty := range sizes {
			qty, ok := coerceQuantity(rawQty)
			if !ok {
				continue
			}
			size, ok := NormalizeSize(label)
			if !ok {
				continue
			}
			valid[size] += qty
		}
		if len(valid) > 0 {
			clean[productID] = valid
		}
	}
	return clean
}

// NormalizeSize canonicalizes a size label. The second return is false for
// purely-numeric labels, which are rejected rather than normalized.
func NormalizeSize(label string) (string, bool) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return DefaultSize, true
	}
	lower := strings.ToLower(trimmed)
	if lower == "default" || lower == "undefined" {
		return DefaultSize, true
	}
	if isNumericLabel(trimmed) {
		return "", false
	}
	return trimmed, true
}

func isNumericLabel(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// coerceQuantity turns a raw quantity value into a positive integer,
// truncating fractional values toward zero.
func coerceQuantity(v any) (int, bool) {
	var f float64
	switch val := v.(type) {
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case float32:
		f = float64(val)
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	qty := int(f)
	if qty <= 0 {
		return 0, false
	}
	return qty, true
}
