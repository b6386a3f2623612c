package recipe

import (
	"regexp"
	"strconv"
	"strings"
)

// Strings that mean "no numeric quantity"; such ingredients are never summed.
var qualitativeAmounts = map[string]bool{
	"to taste": true,
	"pinch":    true,
	"pinches":  true,
	"some":     true,
	"a little": true,
	"a bit":    true,
	"dash":     true,
	"optional": true,
}

var unicodeFractions = map[string]float64{
	"½": 0.5,
	"⅓": 1.0 / 3,
	"⅔": 2.0 / 3,
	"¼": 0.25,
	"¾": 0.75,
}

var fractionRe = regexp.MustCompile(`^(\d+)/(\d+)$`)
var leadingNumberRe = regexp.MustCompile(`^[\d./ ½⅓⅔¼¾]+`)

// ParseQuantity parses a quantity string to a number. It handles "2", "0.5",
// "1/2", "1 1/2", "½" and tolerates a trailing unit ("2 cups"). Returns nil
// for empty or qualitative values ("to taste", "pinch").
func ParseQuantity(value string) *float64 {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" || qualitativeAmounts[s] {
		return nil
	}

	// Mixed number: "1 1/2" or "1 ½"
	parts := strings.Fields(s)
	if len(parts) == 2 {
		if whole, err := strconv.Atoi(parts[0]); err == nil {
			if frac := ParseQuantity(parts[1]); frac != nil && *frac > 0 && *frac < 1 {
				v := float64(whole) + *frac
				return &v
			}
		}
	}

	if v, ok := unicodeFractions[s]; ok {
		return &v
	}

	if m := fractionRe.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den != 0 {
			v := num / den
			return &v
		}
		return nil
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return &v
	}

	// "2 cups": parse the leading numeric part only
	if prefix := strings.TrimSpace(leadingNumberRe.FindString(s)); prefix != "" && prefix != s {
		return ParseQuantity(prefix)
	}
	return nil
}
