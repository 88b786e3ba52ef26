package structured

import (
	"math"
	"regexp"
	"strconv"
)

var isoDurationPattern = regexp.MustCompile(`^P(?:([\d.]+)Y)?(?:([\d.]+)W)?(?:([\d.]+)D)?(?:T(?:([\d.]+)H)?(?:([\d.]+)M)?(?:([\d.]+)S)?)?$`)

// ParseISODuration converts an ISO-8601 duration (PT#H#M#S, any subset of
// components) to whole minutes: hours*60 + minutes + round(seconds/60).
// Returns nil for empty or unparseable input.
func ParseISODuration(s string) *int {
	if s == "" {
		return nil
	}
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}

	var minutes float64
	matched := false
	for i, factor := range []float64{525600, 10080, 1440, 60, 1, 1.0 / 60} {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return nil
		}
		if factor == 1.0/60 {
			// Seconds round to the nearest minute.
			minutes += math.Round(v / 60)
		} else {
			minutes += v * factor
		}
		matched = true
	}
	if !matched {
		return nil
	}

	total := int(minutes)
	return &total
}
