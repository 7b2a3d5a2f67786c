package matching

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTimezone is applied to profiles that never set one.
const DefaultTimezone = "GMT+0"

var timezonePattern = regexp.MustCompile(`(?i)^GMT([+-])(\d{1,2})(?::(\d{2}))?$`)

// ParseTimezoneOffset converts descriptors such as "GMT+3", "gmt-05" or "GMT+05:30"
// into a signed hour offset. Missing or malformed values resolve to 0.
func ParseTimezoneOffset(raw string) float64 {
	m := timezonePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0
	}
	hours, err := strconv.Atoi(m[2])
	if err != nil {
		return 0
	}
	minutes := 0
	if m[3] != "" {
		minutes, err = strconv.Atoi(m[3])
		if err != nil {
			return 0
		}
	}
	offset := float64(hours) + float64(minutes)/60.0
	if m[1] == "-" {
		return -offset
	}
	return offset
}

// TimezoneScore decays linearly from maxScore at identical offsets to 0 once the
// offsets are maxScore hours or more apart.
func TimezoneScore(a, b string, maxScore float64) float64 {
	return offsetScore(ParseTimezoneOffset(a), ParseTimezoneOffset(b), maxScore)
}

func offsetScore(a, b, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	diff := math.Abs(a - b)
	return math.Max(0, maxScore-math.Min(diff, maxScore))
}
