package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultUnit is used when a fragment carries no explicit unit.
const DefaultUnit = "個"

// qtyUnitPattern splits "name [*] qty unit". The name is lazy: the first
// position from which a quantity/unit suffix completes the fragment wins.
var qtyUnitPattern = regexp.MustCompile(`(?s)^(.*?)\s*(?:[*xXｘＸ＊×]?\s*(\d+(?:\.\d+)?)\s*([a-zA-Z\x{4e00}-\x{9fa5}]{1,4}[²³]?))?$`)

// qtyMarkerPattern accepts an explicit multiplication marker with no unit,
// e.g. "螺絲*3".
var qtyMarkerPattern = regexp.MustCompile(`(?s)^(.*?)\s*[*xXｘＸ＊×]\s*(\d+(?:\.\d+)?)$`)

// QuantityMatch is the best-effort split of a material fragment.
type QuantityMatch struct {
	Name        string
	Quantity    float64
	Unit        string
	HasQuantity bool
}

// ParseQuantity splits a fragment into name, quantity and unit. It never fails:
// a fragment without a recognizable suffix is returned whole with quantity 1.
func ParseQuantity(fragment string) QuantityMatch {
	trimmed := strings.TrimSpace(fragment)
	out := QuantityMatch{Name: trimmed, Quantity: 1, Unit: DefaultUnit}
	if trimmed == "" {
		return out
	}

	if m := qtyUnitPattern.FindStringSubmatch(trimmed); m != nil && m[2] != "" {
		if qty, err := strconv.ParseFloat(m[2], 64); err == nil {
			out.Quantity = qty
			out.Unit = strings.TrimSpace(m[3])
			out.HasQuantity = true
			if name := strings.TrimSpace(m[1]); name != "" {
				out.Name = name
			}
			return out
		}
	}

	if m := qtyMarkerPattern.FindStringSubmatch(trimmed); m != nil {
		if qty, err := strconv.ParseFloat(m[2], 64); err == nil {
			out.Quantity = qty
			out.HasQuantity = true
			if name := strings.TrimSpace(m[1]); name != "" {
				out.Name = name
			}
		}
	}

	return out
}

// stripQuantity returns only the name part of a fragment.
func stripQuantity(fragment string) string {
	return ParseQuantity(fragment).Name
}
