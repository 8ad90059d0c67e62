package conversation

import (
	"errors"
	"math"
	"regexp"
	"strconv"
)

var digitRun = regexp.MustCompile(`\d+`)

// ParseBudget takes the first run of decimal digits in text as a whole amount.
// Currency symbols and decimal points are not interpreted: "12.50" yields 12.
// Runs too long for a float64 are clamped to math.MaxFloat64 so the session stays
// JSON-encodable.
func ParseBudget(text string) (float64, bool) {
	match := digitRun.FindString(text)
	if match == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxFloat64, true
		}
		return 0, false
	}
	return amount, true
}
