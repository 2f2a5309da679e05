package generator

// abnWeights are the official ABN check-digit weights, applied to the 11
// digits with the first digit's value reduced by one before weighting.
var abnWeights = [11]int{10, 1, 3, 5, 7, 9, 11, 13, 15, 17, 19}

// generateABN derives an 11-digit Business ABN from s whose weighted sum
// (per the ABN check-digit algorithm) is a multiple of 89, per §4.A: "for
// ABN/ACN/NINO the check digits must validate." Digits 3-11 are taken
// directly from s; digits 1-2 are solved for algebraically so the whole
// number validates exactly, rather than retried until one happens to.
func generateABN(s uint64) string {
	digits := make([]int, 11)
	cursor := s
	for i := 2; i < 11; i++ {
		digits[i] = int(cursor % 10)
		cursor /= 10
		if cursor == 0 {
			cursor = rehash(cursor + uint64(i))
		}
	}

	sumRest := 0
	for i := 2; i < 11; i++ {
		sumRest += abnWeights[i] * digits[i]
	}

	target := ((-sumRest)%89 + 89) % 89
	digits[0] = target/10 + 1 // 1..9, never a leading zero
	digits[1] = target % 10

	return digitsToString(digits)
}

// acnWeights are the official ACN check-digit weights (8 data digits).
var acnWeights = [8]int{8, 7, 6, 5, 4, 3, 2, 1}

// generateACN derives a 9-digit Business ACN from s: 8 data digits plus a
// weighted-sum-mod-10 check digit.
func generateACN(s uint64) string {
	digits := make([]int, 9)
	cursor := s
	for i := 0; i < 8; i++ {
		digits[i] = int(cursor % 10)
		cursor /= 10
		if cursor == 0 {
			cursor = rehash(cursor + uint64(i))
		}
	}

	sum := 0
	for i := 0; i < 8; i++ {
		sum += acnWeights[i] * digits[i]
	}
	remainder := sum % 10
	check := (10 - remainder) % 10
	digits[8] = check

	return digitsToString(digits)
}

func digitsToString(digits []int) string {
	buf := make([]byte, len(digits))
	for i, d := range digits {
		buf[i] = byte('0' + d)
	}
	return string(buf)
}

// ninoFirstLetters and ninoSecondLetters hold the prefix letters; neither
// contains D, F, G, I, O, Q, U or V. ninoReservedPrefixes lists the letter
// pairs the real NINO format reserves, which generateNINO steps past.
var ninoFirstLetters = []byte("ABCEHJKLMNPRSTWXYZ")
var ninoSecondLetters = []byte("ABCEHJKLMNPRSTWXYZ")
var ninoSuffixLetters = []byte("ABCD")
var ninoReservedPrefixes = map[string]bool{"BG": true, "GB": true, "KN": true, "NK": true, "NT": true, "TN": true, "ZZ": true}

// generateNINO derives a UK National Insurance Number in the standard
// AA 99 99 99 A shape. There is no numeric checksum in the real NINO format
// beyond the letter-set restrictions applied here.
func generateNINO(s uint64) string {
	l1 := ninoFirstLetters[s%uint64(len(ninoFirstLetters))]
	i2 := (s / uint64(len(ninoFirstLetters))) % uint64(len(ninoSecondLetters))
	l2 := ninoSecondLetters[i2]
	for ninoReservedPrefixes[string([]byte{l1, l2})] {
		i2 = (i2 + 1) % uint64(len(ninoSecondLetters))
		l2 = ninoSecondLetters[i2]
	}
	digits := s % 1_000_000
	suffix := ninoSuffixLetters[s%uint64(len(ninoSuffixLetters))]
	return string([]byte{l1, l2}) + padNumber(digits, 6) + string(suffix)
}
