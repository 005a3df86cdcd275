package domain

import (
	"sort"
	"strings"
)

// naturalKey splits s into alternating text and digit runs. The first run is
// always text (possibly empty), so runs at equal positions have the same kind.
func naturalKey(s string) []string {
	var runs []string
	start := 0
	digit := false
	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		if isDigit != digit {
			runs = append(runs, s[start:i])
			start = i
			digit = isDigit
		}
	}
	return append(runs, s[start:])
}

// compareDigits compares two runs of ASCII digits by numeric value
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// NaturalCompare orders names so that embedded numbers compare by value and
// text compares case-insensitively: "mod1" < "Mod2" < "Mod10".
func NaturalCompare(a, b string) int {
	ka, kb := naturalKey(a), naturalKey(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		var c int
		if i%2 == 1 {
			c = compareDigits(ka[i], kb[i])
		} else {
			c = strings.Compare(strings.ToLower(ka[i]), strings.ToLower(kb[i]))
		}
		if c != 0 {
			return c
		}
	}
	if len(ka) != len(kb) {
		if len(ka) < len(kb) {
			return -1
		}
		return 1
	}
	// Equal keys ("Mod" vs "mod", "1" vs "01"): fall back to bytes for a total order
	return strings.Compare(a, b)
}

// NaturalLess reports whether a sorts before b in natural order
func NaturalLess(a, b string) bool {
	return NaturalCompare(a, b) < 0
}

// SortNatural sorts names in place in natural order
func SortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return NaturalLess(names[i], names[j])
	})
}

// SortedNatural returns a natural-sorted copy of names
func SortedNatural(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	SortNatural(out)
	return out
}
