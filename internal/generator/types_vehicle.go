package generator

import (
	"fmt"
	"strings"
)

// generateVehicleMakeModel picks a make/model pair from disjoint sub-seeds.
func generateVehicleMakeModel(s uint64) string {
	makeName := pick(vehicleMakes, subSeed(s, "make"))
	model := pick(vehicleModels, subSeed(s, "model"))
	return makeName + " " + model
}

// generateVehicleRegistration produces an "ABC123"-shaped plate.
func generateVehicleRegistration(s uint64) string {
	letters := "ABCDEFGHJKLMNPRSTUVWXYZ"
	l1 := letters[s%uint64(len(letters))]
	l2 := letters[(s/uint64(len(letters)))%uint64(len(letters))]
	l3 := letters[(s/uint64(len(letters))/uint64(len(letters)))%uint64(len(letters))]
	digits := padNumber((s/1000)%1000, 3)
	return string([]byte{l1, l2, l3}) + digits
}

// generateVINNumber produces a 17-character VIN (no embedded checksum
// validation is specified in the Glossary beyond "deterministic format").
func generateVINNumber(s uint64) string {
	alphabet := "ABCDEFGHJKLMNPRSTUVWXYZ0123456789" // VINs exclude I, O, Q
	var b strings.Builder
	cursor := s
	for i := 0; i < 17; i++ {
		b.WriteByte(alphabet[cursor%uint64(len(alphabet))])
		cursor /= uint64(len(alphabet))
		if cursor == 0 {
			cursor = rehash(s + uint64(i))
		}
	}
	return b.String()
}

// generateEngineNumber produces a manufacturer-style alphanumeric code.
func generateEngineNumber(s uint64) string {
	return fmt.Sprintf("ENG%s", padNumber(s%100_000_000, 8))
}

// generateLicenseNumber produces a driver's license-shaped alphanumeric
// code: one letter followed by 6 digits.
func generateLicenseNumber(s uint64) string {
	letters := "ABCDEFGHJKLMNPRSTUVWXYZ"
	l := letters[s%uint64(len(letters))]
	return fmt.Sprintf("%c%s", l, padNumber((s/uint64(len(letters)))%1_000_000, 6))
}

// generateSortCode produces a 6-digit UK bank sort code, rendered as
// "99-99-99".
func generateSortCode(s uint64) string {
	n := padNumber(s%1_000_000, 6)
	return n[0:2] + "-" + n[2:4] + "-" + n[4:6]
}
