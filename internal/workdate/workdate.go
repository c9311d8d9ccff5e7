// Package workdate normalizes the free-form dates typed into work reports and
// import sheets to YYYY-MM-DD.
package workdate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minYear = 1900
	maxYear = 2100
)

var (
	nonDigits = regexp.MustCompile(`[^0-9]`)
	yearFirst = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	yearLast  = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)
)

// Normalize converts s to YYYY-MM-DD. Accepted inputs are YYYYMMDD (separators
// ignored), Y-M-D, D-M-Y and M-D-Y, with "-", "/" or "." as separator. Day-first
// wins when both readings of a year-last date are valid.
//
// When s cannot be read as a real calendar date between 1900 and 2100 the
// trimmed input is returned and ok is false.
func Normalize(s string) (normalized string, ok bool) {
	str := strings.TrimSpace(s)
	if str == "" {
		return "", false
	}

	if digits := nonDigits.ReplaceAllString(str, ""); len(digits) == 8 {
		y, m, d := atoi(digits[:4]), atoi(digits[4:6]), atoi(digits[6:])
		if valid(y, m, d) {
			return format(y, m, d), true
		}
	}

	if match := yearFirst.FindStringSubmatch(str); match != nil {
		y, m, d := atoi(match[1]), atoi(match[2]), atoi(match[3])
		if valid(y, m, d) {
			return format(y, m, d), true
		}
	}

	if match := yearLast.FindStringSubmatch(str); match != nil {
		a, b, y := atoi(match[1]), atoi(match[2]), atoi(match[3])
		if valid(y, b, a) {
			return format(y, b, a), true
		}
		if valid(y, a, b) {
			return format(y, a, b), true
		}
	}

	return str, false
}

// Parse is Normalize for callers that reject unparseable dates.
func Parse(s string) (string, error) {
	normalized, ok := Normalize(s)
	if !ok {
		return "", fmt.Errorf("invalid date %q", strings.TrimSpace(s))
	}
	return normalized, nil
}

func valid(y, m, d int) bool {
	if y < minYear || y > maxYear || m < 1 || m > 12 || d < 1 || d > 31 {
		return false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Year() == y && int(t.Month()) == m && t.Day() == d
}

func format(y, m, d int) string {
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
