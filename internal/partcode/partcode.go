// Package partcode builds the human-readable and retail identifiers of a part.
// Everything here is pure: no storage, no clock.
package partcode

import (
	"fmt"
	"strconv"

	"gestorpecas/internal/model"
)

// RetailPrefix marks codes as in-store (GS1 restricted circulation range).
const RetailPrefix = "290"

const (
	baseCodeLen    = 8
	retailCodeLen  = 13
	retailIDDigits = 9
	maxRetailID    = 999_999_999
)

// ComposeBaseCode joins the three segments as MMM NN III, zero padded.
// Callers keep every segment within its width; the allocator enforces that.
func ComposeBaseCode(manufacturerCode, modelSeq, itemSeq int) string {
	return fmt.Sprintf("%03d%02d%03d", manufacturerCode, modelSeq, itemSeq)
}

// Suffix is the one-letter variant suffix, empty for the base condition.
func Suffix(kind model.VariationKind) string {
	switch kind {
	case model.VariationRepaired:
		return "R"
	case model.VariationRefurbParts:
		return "P"
	default:
		return ""
	}
}

// ComposeVariantCode appends the variation suffix to a base code.
func ComposeVariantCode(baseCode string, kind model.VariationKind) string {
	return baseCode + Suffix(kind)
}

// SplitVariantCode is the inverse of ComposeVariantCode.
func SplitVariantCode(code string) (base string, kind model.VariationKind, ok bool) {
	switch len(code) {
	case baseCodeLen:
		return code, model.VariationBase, isDigits(code)
	case baseCodeLen + 1:
		base = code[:baseCodeLen]
		if !isDigits(base) {
			return "", "", false
		}
		switch code[baseCodeLen] {
		case 'R':
			return base, model.VariationRepaired, true
		case 'P':
			return base, model.VariationRefurbParts, true
		}
	}
	return "", "", false
}

// DeriveRetailCode returns the EAN-13 for an internal id: prefix, id padded
// to nine digits, check digit. Zero and ids that do not fit give ok=false.
func DeriveRetailCode(internalID uint) (code string, ok bool) {
	if internalID == 0 || internalID > maxRetailID {
		return "", false
	}
	payload := fmt.Sprintf("%s%0*d", RetailPrefix, retailIDDigits, internalID)
	check, err := CheckDigit(payload)
	if err != nil {
		return "", false
	}
	return payload + strconv.Itoa(check), true
}

// CheckDigit computes the EAN-13 check digit of a 12-digit payload. Weights
// alternate 1,3,1,3... starting at the leftmost digit.
func CheckDigit(payload string) (int, error) {
	if len(payload) != retailCodeLen-1 || !isDigits(payload) {
		return 0, fmt.Errorf("partcode: payload %q is not 12 digits", payload)
	}
	sum := 0
	for i := 0; i < len(payload); i++ {
		d := int(payload[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10, nil
}

// ValidRetailCode reports whether code is a well-formed EAN-13.
func ValidRetailCode(code string) bool {
	if len(code) != retailCodeLen {
		return false
	}
	check, err := CheckDigit(code[:retailCodeLen-1])
	if err != nil {
		return false
	}
	return int(code[retailCodeLen-1]-'0') == check
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
