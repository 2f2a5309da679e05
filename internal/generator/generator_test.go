package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/obfuscator/internal/mapping"
)

func TestGenerate_Deterministic(t *testing.T) {
	req := Request{
		BaseType:      mapping.TypeEmail,
		Original:      "alice@example.com",
		EffectiveSeed: "seed-1",
	}

	first, err := Generate(req)
	require.NoError(t, err)

	second, err := Generate(req)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same input must always produce the same synthetic value")
}

func TestGenerate_DifferentSeedsDiverge(t *testing.T) {
	a, err := Generate(Request{BaseType: mapping.TypeEmail, Original: "alice@example.com", EffectiveSeed: "seed-a"})
	require.NoError(t, err)
	b, err := Generate(Request{BaseType: mapping.TypeEmail, Original: "alice@example.com", EffectiveSeed: "seed-b"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "different seeds should (overwhelmingly likely) diverge")
}

func TestGenerate_PreserveLength(t *testing.T) {
	original := "Alexandra"
	value, err := Generate(Request{
		BaseType:       mapping.TypeFirstName,
		Original:       original,
		EffectiveSeed:  "seed",
		PreserveLength: true,
	})
	require.NoError(t, err)
	assert.Len(t, value, len(original))
}

func TestGenerate_CreditCardTruncationPreservesLuhn(t *testing.T) {
	value, err := Generate(Request{
		BaseType:       mapping.TypeCreditCard,
		Original:       "4111111111",
		EffectiveSeed:  "seed",
		PreserveLength: true,
	})
	require.NoError(t, err)
	require.Len(t, value, 10)
	assert.True(t, luhnValid(value), "truncated credit card number must still satisfy Luhn")
}

func TestGenerate_UKLocaleSuffixSelectsUKFormat(t *testing.T) {
	ukValue, err := Generate(Request{BaseType: mapping.TypePhone, Original: "0700000000", EffectiveSeed: "seed" + ukLocaleSuffix})
	require.NoError(t, err)

	auValue, err := Generate(Request{BaseType: mapping.TypePhone, Original: "0700000000", EffectiveSeed: "seed"})
	require.NoError(t, err)

	assert.NotEqual(t, ukValue, auValue)
}

func TestGenerate_ValidationAllowedValues(t *testing.T) {
	value, err := Generate(Request{
		BaseType:      mapping.TypeState,
		Original:      "Victoria",
		EffectiveSeed: "seed",
		Validation: &mapping.Validation{
			AllowedValues: []string{"OnlyThisOne"},
		},
	})
	require.Error(t, err)
	assert.Empty(t, value)
}

func TestGenerate_UnknownBaseType(t *testing.T) {
	_, err := Generate(Request{BaseType: "NotARealType", Original: "x", EffectiveSeed: "seed"})
	require.Error(t, err)
}

func luhnValid(number string) bool {
	sum := 0
	alt := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}
