package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var skuScentPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*(?:-[A-Z0-9]+)*$`)

// MakeSKU builds the variant SKU from its size and scent, e.g. a 8oz
// lavender fields candle becomes CDL-8-LAVENDER-FIELDS.
func MakeSKU(sizeOz int32, scent string) (string, error) {
	if sizeOz <= 0 {
		return "", fmt.Errorf("size must be positive, got %d", sizeOz)
	}
	code := scentCode(scent)
	if code == "" || !skuScentPattern.MatchString(code) {
		return "", fmt.Errorf("scent %q yields no valid code", scent)
	}
	return fmt.Sprintf("CDL-%d-%s", sizeOz, code), nil
}

// ParseSKU splits a variant SKU back into its size and scent code.
func ParseSKU(sku string) (sizeOz int32, scentCode string, err error) {
	parts := strings.SplitN(sku, "-", 3)
	if len(parts) != 3 || parts[0] != "CDL" {
		return 0, "", fmt.Errorf("malformed sku %q", sku)
	}
	size, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil || size <= 0 {
		return 0, "", fmt.Errorf("malformed sku size in %q", sku)
	}
	if !skuScentPattern.MatchString(parts[2]) {
		return 0, "", fmt.Errorf("malformed sku scent in %q", sku)
	}
	return int32(size), parts[2], nil
}

func scentCode(scent string) string {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(scent)))
	cleaned := make([]string, 0, len(fields))
	for _, f := range fields {
		var b strings.Builder
		for _, r := range f {
			if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			cleaned = append(cleaned, b.String())
		}
	}
	return strings.Join(cleaned, "-")
}
