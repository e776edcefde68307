// File: storefront-service/internal/cart/sanitize_test.go
package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
)

func TestSanitize_QuantitiesArePositiveIntegers(t *testing.T) {
	raw := domain.RawCart{
		"prod-1": {
			"M":  float64(2.9), // truncates toward zero
			"L":  "3",
			"XL": float64(0), // dropped
			"S":  -1,         // dropped
		},
	}

	clean := Sanitize(raw)

	require.Contains(t, clean, "prod-1")
	assert.Equal(t, map[string]int{"M": 2, "L": 3}, clean["prod-1"])
}

func TestSanitize_PlaceholderLabelsCollapseToDefault(t *testing.T) {
	raw := domain.RawCart{
		"prod-1": {
			"":          float64(1),
			"undefined": float64(2),
			"  ":        float64(4),
		},
	}

	clean := Sanitize(raw)

	assert.Equal(t, domain.CartData{"prod-1": {DefaultSize: 7}}, clean)
}

func TestSanitize_CollidingKeysSum(t *testing.T) {
	raw := domain.RawCart{
		"p1": {"default": float64(2), "Default": float64(3)},
	}

	clean := Sanitize(raw)

	assert.Equal(t, domain.CartData{"p1": {DefaultSize: 5}}, clean)
}

func TestSanitize_NumericSizeLabelDropsEntry(t *testing.T) {
	raw := domain.RawCart{
		"p1": {"10": float64(1)},
	}

	clean := Sanitize(raw)

	assert.Empty(t, clean, "products with no surviving sizes are omitted")
}

func TestSanitize_Idempotent(t *testing.T) {
	raw := domain.RawCart{
		"prod-1": {"m": "2", "undefined": float64(1), "42": float64(9)},
		"prod-2": {"Default": float64(3.7)},
		"":       {"M": float64(1)},
	}

	once := Sanitize(raw)
	twice := Sanitize(once.Raw())

	assert.Equal(t, once, twice)
}

func TestSanitize_MalformedStructures(t *testing.T) {
	raw := domain.RawCart{
		"prod-1": nil,
		"":       {"M": float64(1)},
		"prod-2": {"M": "not a number"},
		"prod-3": {"M": []any{1}},
	}

	clean := Sanitize(raw)

	assert.Empty(t, clean)
}

func TestNormalizeSize(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"", DefaultSize, true},
		{"   ", DefaultSize, true},
		{"default", DefaultSize, true},
		{"DEFAULT", DefaultSize, true},
		{"undefined", DefaultSize, true},
		{"M", "M", true},
		{" 40x60cm ", "40x60cm", true},
		{"10", "", false},
		{"007", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeSize(tt.in)
		assert.Equal(t, tt.wantOK, ok, "label %q", tt.in)
		assert.Equal(t, tt.want, got, "label %q", tt.in)
	}
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int
		wantOK bool
	}{
		{"int", 3, 3, true},
		{"float truncates", float64(2.9), 2, true},
		{"numeric string", " 4 ", 4, true},
		{"fractional string", "1.5", 1, true},
		{"zero", float64(0), 0, false},
		{"negative", -2, 0, false},
		{"sub-one fraction", float64(0.4), 0, false},
		{"garbage string", "many", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceQuantity(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
