package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kraklabs/obfuscator/internal/errs"
	"github.com/kraklabs/obfuscator/internal/mapping"
)

// padNumber renders n as a decimal string of exactly width digits: shorter
// numbers are zero-padded on the left, longer ones keep only their
// low-order width digits. Used by the fixed-width numeric generators (NINO,
// postcodes).
func padNumber(n uint64, width int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) >= width {
		return s[len(s)-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}

// adjustLength pads or truncates value to match targetLen, per §4.A's
// preserveLength rule: trailing space for text, trailing "0" for digit
// strings. isNumeric controls the pad character.
func adjustLength(value string, targetLen int, isNumeric bool) string {
	if targetLen <= 0 || len(value) == targetLen {
		return value
	}
	if len(value) > targetLen {
		return value[:targetLen]
	}
	pad := " "
	if isNumeric {
		pad = "0"
	}
	return value + strings.Repeat(pad, targetLen-len(value))
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// applyFormatting applies the optional post-generation formatting rules:
// addPrefix, addSuffix, pattern substitution (`#` is replaced by the next
// character of value, left to right), and a case transform.
func applyFormatting(value string, f *mapping.Formatting) string {
	if f == nil {
		return value
	}
	if f.Pattern != "" {
		value = applyPattern(f.Pattern, value)
	}
	switch f.CaseTransform {
	case "upper":
		value = strings.ToUpper(value)
	case "lower":
		value = strings.ToLower(value)
	case "title":
		value = strings.Title(strings.ToLower(value)) //nolint:staticcheck // matches teacher's plain-ASCII formatting helpers, not Unicode-aware casing
	}
	if f.AddPrefix != "" {
		value = f.AddPrefix + value
	}
	if f.AddSuffix != "" {
		value = value + f.AddSuffix
	}
	return value
}

// applyPattern replaces each '#' in pattern with the next rune of source, in
// order, leaving any other character in pattern untouched.
func applyPattern(pattern, source string) string {
	runes := []rune(source)
	var b strings.Builder
	idx := 0
	for _, r := range pattern {
		if r == '#' {
			if idx < len(runes) {
				b.WriteRune(runes[idx])
				idx++
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// validateValue enforces an optional Validation block: regex, length bounds,
// and an allowed-value set. A nil Validation always passes.
func validateValue(value string, v *mapping.Validation) error {
	if v == nil {
		return nil
	}
	if v.Regex != "" {
		re, err := regexp.Compile(v.Regex)
		if err != nil {
			return &errs.ValidationError{Rule: "regex", Value: value}
		}
		if !re.MatchString(value) {
			return &errs.ValidationError{Rule: "regex:" + v.Regex, Value: value}
		}
	}
	if v.MinLength > 0 && len(value) < v.MinLength {
		return &errs.ValidationError{Rule: "minLength", Value: value}
	}
	if v.MaxLength > 0 && len(value) > v.MaxLength {
		return &errs.ValidationError{Rule: "maxLength", Value: value}
	}
	if len(v.AllowedValues) > 0 {
		ok := false
		for _, allowed := range v.AllowedValues {
			if value == allowed {
				ok = true
				break
			}
		}
		if !ok {
			return &errs.ValidationError{Rule: "allowedValues", Value: value}
		}
	}
	return nil
}
