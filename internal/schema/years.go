package schema

import "strings"

// YearSelector reports whether a wide-table header is a year column.
type YearSelector func(header string) bool

// ExtractYear returns the integer value of the first run of four consecutive
// ASCII digits in h. Longer digit runs contribute their first four digits.
func ExtractYear(h string) (int, bool) {
	run := 0
	for i := 0; i < len(h); i++ {
		if !isDigit(h[i]) {
			run = 0
			continue
		}
		run++
		if run == 4 {
			s := h[i-3 : i+1]
			return int(s[0]-'0')*1000 + int(s[1]-'0')*100 + int(s[2]-'0')*10 + int(s[3]-'0'), true
		}
	}
	return 0, false
}

// PopulationYearColumn matches headers such as "2022 Population": the first
// four characters are digits and the text mentions "Population".
func PopulationYearColumn(h string) bool {
	if len(h) < 4 || !allDigits(h[:4]) {
		return false
	}
	if !strings.Contains(h, "Population") {
		return false
	}
	_, ok := ExtractYear(h)
	return ok
}

// GDPYearColumn matches headers made only of digits ("1960", "2020") that
// carry a four-digit year.
func GDPYearColumn(h string) bool {
	if h == "" || !allDigits(h) {
		return false
	}
	_, ok := ExtractYear(h)
	return ok
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
