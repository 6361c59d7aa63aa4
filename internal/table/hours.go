package table

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	afterEquals  = regexp.MustCompile(`=\s*([0-9.,]+)`)
	bareDecimal  = regexp.MustCompile(`([0-9]+,[0-9]+|[0-9]+\.[0-9]+)`)
	clockPattern = regexp.MustCompile(`(\d{1,2})\s*:\s*(\d{2})`)
	bareInteger  = regexp.MustCompile(`^\s*([0-9]+)\s*h?\s*$`)
)

// ParseDecimalHours extracts decimal hours from a total-hours cell. It tries,
// in order: the number after "=" ("08:30 = 8,50 h"), a bare decimal with
// either separator, an HH:MM clock, and a bare integer. No match yields 0.
func ParseDecimalHours(s string) float64 {
	if m := afterEquals.FindStringSubmatch(s); m != nil {
		return parseNumber(m[1])
	}
	if m := bareDecimal.FindStringSubmatch(s); m != nil {
		return parseNumber(m[1])
	}
	if m := clockPattern.FindStringSubmatch(s); m != nil {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return float64(hh) + float64(mm)/60
	}
	if m := bareInteger.FindStringSubmatch(s); m != nil {
		return parseNumber(m[1])
	}
	return 0
}

// parseNumber reads a number written with "," or "." as decimal separator.
// When both appear, "." is a thousands separator ("1.234,5").
func parseNumber(s string) float64 {
	t := strings.Join(strings.Fields(s), "")
	if strings.Contains(t, ",") {
		t = strings.ReplaceAll(t, ".", "")
		t = strings.Replace(t, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0
	}
	return f
}
