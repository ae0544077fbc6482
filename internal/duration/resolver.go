// Package duration resolves the reserved service duration of an order from
// the metadata of its line items.
package duration

import (
	"strconv"

	"github.com/bookable/bookingd/internal/model"
)

// MetadataKey is the metadata field holding a service duration in minutes, on
// either the variant or its product.
const MetadataKey = "duration_min"

// TotalMinutes sums the per-item service durations of the order's line items.
// Each item resolves its duration from variant metadata first, falling back to
// product metadata when the variant value is absent or non-positive. An item
// with neither contributes 0 minutes; callers see that as a shorter (possibly
// empty) reservation rather than an error.
func TotalMinutes(items []model.LineItem) int {
	total := 0
	for _, item := range items {
		total += ItemMinutes(item)
	}
	return total
}

// ItemMinutes resolves one line item's duration.
func ItemMinutes(item model.LineItem) int {
	if v, ok := minutesFromMetadata(item.VariantMetadata); ok {
		return v
	}
	if v, ok := minutesFromMetadata(item.ProductMetadata); ok {
		return v
	}
	return 0
}

func minutesFromMetadata(md map[string]any) (int, bool) {
	if md == nil {
		return 0, false
	}
	raw, ok := md[MetadataKey]
	if !ok {
		return 0, false
	}
	n, ok := asInt(raw)
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

// asInt tolerates the value shapes JSON metadata arrives in.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
