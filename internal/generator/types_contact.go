package generator

import "fmt"

// generateEmail builds localpart(s) ⊕ "@" ⊕ domain(s), matching
// ^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$ per §4.A.
func generateEmail(s uint64) string {
	first := pick(firstNames, subSeed(s, "first"))
	last := pick(lastNames, subSeed(s, "last"))
	n := subSeed(s, "n") % 10000
	localpart := fmt.Sprintf("%s.%s%d", first, last, n)
	domain := pick(emailDomains, subSeed(s, "domain"))
	return localpart + "@" + domain
}

// generatePhone builds a locale-specific numeric pattern. The default is
// the AU mobile/landline shape; a UK-flagged seed switches to the UK
// pattern, per §4.A.
func generatePhone(s uint64, ukLocale bool) string {
	if ukLocale {
		return generatePhoneUK(s)
	}
	return generatePhoneAU(s)
}

// generatePhoneAU matches (\+61|0)[2-478]\d{8}.
func generatePhoneAU(s uint64) string {
	areaDigits := []byte{'2', '3', '4', '7', '8'}
	area := areaDigits[s%uint64(len(areaDigits))]
	rest := padNumber((s/uint64(len(areaDigits)))%100_000_000, 8)
	return fmt.Sprintf("0%c%s", area, rest)
}

// generatePhoneUK matches a standard +44 mobile shape (+447 then 9 digits).
func generatePhoneUK(s uint64) string {
	return "+447" + padNumber(s%1_000_000_000, 9)
}
