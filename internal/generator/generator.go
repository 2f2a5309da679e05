package generator

import (
	"fmt"
	"strings"

	"github.com/kraklabs/obfuscator/internal/errs"
	"github.com/kraklabs/obfuscator/internal/mapping"
)

// ukLocaleSuffix lets a mapping flag a Phone/UKPostcode column as UK-locale
// without adding a new field to ColumnSpec: appending "|uk" to the
// effective seed is a convention of this engine, not a spec-mandated wire
// field.
const ukLocaleSuffix = "|uk"

// Generate implements the Deterministic Value Generator's contract (§4.A):
// pure, total, and a function only of (dataType, original, effectiveSeed,
// preserveLength) plus the optional formatting/validation overrides carried
// on the request.
func Generate(req Request) (string, error) {
	ukLocale := strings.HasSuffix(req.EffectiveSeed, ukLocaleSuffix)
	seed := strings.TrimSuffix(req.EffectiveSeed, ukLocaleSuffix)

	normalized := normalize(req.BaseType, req.Original)
	s := stableHash(seed + "|" + req.BaseType + "|" + normalized)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		value, err := generateForBaseType(req.BaseType, s, ukLocale)
		if err != nil {
			return "", err
		}

		value = applyLengthPreservation(req.BaseType, value, req.Original, req.PreserveLength)
		value = applyFormatting(value, req.Formatting)

		if err := validateValue(value, req.Validation); err != nil {
			lastErr = err
			s = rehash(s)
			continue
		}
		return value, nil
	}

	return "", &errs.GenerationError{
		DataType: req.BaseType,
		Original: req.Original,
		Err:      fmt.Errorf("exhausted %d retries without a value satisfying validation: %w", maxRetries, lastErr),
	}
}

// applyLengthPreservation enforces §4.A's preserveLength rule, special-casing
// CreditCard so a truncation never invalidates its Luhn check digit: if
// truncating would break Luhn, it recomputes the check digit for the
// truncated length instead of blindly slicing.
func applyLengthPreservation(baseType, value, original string, preserveLength bool) string {
	if !preserveLength || len(value) == len(original) {
		return value
	}
	if baseType == "CreditCard" && len(original) < len(value) {
		return truncateCreditCard(value, len(original))
	}
	return adjustLength(value, len(original), isAllDigits(value))
}

// truncateCreditCard shortens a generated PAN to targetLen digits and
// recomputes its Luhn check digit so the result still validates.
func truncateCreditCard(value string, targetLen int) string {
	if targetLen < 2 || targetLen >= len(value) {
		return adjustLength(value, targetLen, true)
	}
	head := value[:targetLen-1]
	digits := make([]int, len(head))
	for i, r := range head {
		digits[i] = int(r - '0')
	}
	check := luhnCheckDigit(digits)
	return head + string(rune('0'+check))
}

// generateForBaseType dispatches to the per-type generator named in §4.A's
// per-type rules table. baseType has already been resolved from a custom
// DataTypes key to its standard name by the caller (internal/worker).
func generateForBaseType(baseType string, s uint64, ukLocale bool) (string, error) {
	switch baseType {
	case mapping.TypeFirstName:
		return generateFirstName(s), nil
	case mapping.TypeLastName:
		return generateLastName(s), nil
	case mapping.TypeFullName:
		return generateFullName(s), nil
	case mapping.TypeEmail:
		return generateEmail(s), nil
	case mapping.TypePhone:
		return generatePhone(s, ukLocale), nil
	case mapping.TypeFullAddress:
		return generateFullAddress(s), nil
	case mapping.TypeAddressLine1:
		return generateAddressLine1(s), nil
	case mapping.TypeAddressLine2:
		return generateAddressLine2(s), nil
	case mapping.TypeCity, mapping.TypeSuburb:
		return generateCity(s), nil
	case mapping.TypeState:
		return generateState(s), nil
	case mapping.TypeStateAbbr:
		return generateStateAbbr(s), nil
	case mapping.TypePostCode:
		return generatePostCode(s), nil
	case mapping.TypeZipCode:
		return generateZipCode(s), nil
	case mapping.TypeCountry:
		return generateCountry(s), nil
	case mapping.TypeUKPostcode:
		return generateUKPostcode(s), nil
	case mapping.TypeCreditCard:
		return generateCreditCard(s), nil
	case mapping.TypeNINO:
		return generateNINO(s), nil
	case mapping.TypeSortCode:
		return generateSortCode(s), nil
	case mapping.TypeLicenseNumber:
		return generateLicenseNumber(s), nil
	case mapping.TypeCompanyName:
		return generateCompanyName(s), nil
	case mapping.TypeBusinessABN:
		return generateABN(s), nil
	case mapping.TypeBusinessACN:
		return generateACN(s), nil
	case mapping.TypeVehicleRegistration:
		return generateVehicleRegistration(s), nil
	case mapping.TypeVINNumber:
		return generateVINNumber(s), nil
	case mapping.TypeVehicleMakeModel:
		return generateVehicleMakeModel(s), nil
	case mapping.TypeEngineNumber:
		return generateEngineNumber(s), nil
	case mapping.TypeGPSCoordinate:
		return generateGPSCoordinate(s), nil
	case mapping.TypeRouteCode:
		return generateRouteCode(s), nil
	case mapping.TypeDepotLocation:
		return generateDepotLocation(s), nil
	case mapping.TypeDate:
		return generateDate(s), nil
	case mapping.TypeDateOfBirth:
		return generateDateOfBirth(s), nil
	default:
		return "", &errs.GenerationError{
			DataType: baseType,
			Err:      fmt.Errorf("no generator registered for base type %q", baseType),
		}
	}
}
