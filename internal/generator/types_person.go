package generator

// generateFirstName, generateLastName, and generateFullName implement §4.A's
// name-pool rule: pick from a locale-appropriate pool indexed by s mod
// |pool|, with FullName deriving each half from disjoint sub-seeds of s so
// it does not simply echo a correlated first/last pair every time.

func generateFirstName(s uint64) string {
	return pick(firstNames, s)
}

func generateLastName(s uint64) string {
	return pick(lastNames, s)
}

func generateFullName(s uint64) string {
	first := pick(firstNames, subSeed(s, "first"))
	last := pick(lastNames, subSeed(s, "last"))
	return first + " " + last
}

func generateCompanyName(s uint64) string {
	stem := pick(companyStems, subSeed(s, "stem"))
	suffix := pick(companySuffixes, subSeed(s, "suffix"))
	return stem + " " + suffix
}
