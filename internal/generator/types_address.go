package generator

import "fmt"

// generateAddressLine1 builds a numbered street address: a numeric prefix
// derived from s plus a street name and suffix pool pair, per §4.A.
func generateAddressLine1(s uint64) string {
	number := subSeed(s, "num")%9998 + 1
	name := pick(streetNames, subSeed(s, "name"))
	suffix := pick(streetSuffixes, subSeed(s, "suffix"))
	return fmt.Sprintf("%d %s %s", number, name, suffix)
}

func generateAddressLine2(s uint64) string {
	unit := subSeed(s, "unit")%50 + 1
	return fmt.Sprintf("Unit %d", unit)
}

func generateFullAddress(s uint64) string {
	line1 := generateAddressLine1(subSeed(s, "line1"))
	city := generateCity(subSeed(s, "city"))
	state := generateStateAbbr(subSeed(s, "state"))
	postCode := generatePostCode(subSeed(s, "post"))
	return fmt.Sprintf("%s, %s %s %s", line1, city, state, postCode)
}

func generateCity(s uint64) string {
	return pick(cities, s)
}

func generateState(s uint64) string {
	return pick(states, s)
}

func generateStateAbbr(s uint64) string {
	return pick(stateAbbrs, s)
}

func generateCountry(s uint64) string {
	return pick(countries, s)
}

// generatePostCode produces a 4-digit AU-style postcode.
func generatePostCode(s uint64) string {
	return padNumber(s%10000, 4)
}

// generateZipCode produces a 5-digit US-style zip code.
func generateZipCode(s uint64) string {
	return padNumber(s%100000, 5)
}

// generateUKPostcode produces an "AA9 9AA"-shaped outward/inward pair.
func generateUKPostcode(s uint64) string {
	letters := "ABCDEFGHIJKLMNOPRSTUWYZ"
	a := letters[s%uint64(len(letters))]
	b := letters[(s/uint64(len(letters)))%uint64(len(letters))]
	district := s % 10
	sector := (s / 10) % 10
	tailA := letters[(s/100)%uint64(len(letters))]
	tailB := letters[(s/1000)%uint64(len(letters))]
	return fmt.Sprintf("%c%c%d %d%c%c", a, b, district, sector, tailA, tailB)
}

// generateGPSCoordinate produces a plausible "lat,lon" pair within AU bounds.
func generateGPSCoordinate(s uint64) string {
	latFrac := float64(subSeed(s, "lat")%10_000_000) / 1_000_000
	lonFrac := float64(subSeed(s, "lon")%10_000_000) / 1_000_000
	lat := -10.0 - latFrac*(44.0-10.0)/10 // roughly within Australia's latitude band
	lon := 113.0 + lonFrac*(154.0-113.0)/10
	return fmt.Sprintf("%.6f,%.6f", lat, lon)
}
