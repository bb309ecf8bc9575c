package source

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var countPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?|\.\d+)([KMB]?)$`)

var suffixMultipliers = map[string]float64{
	"":  1,
	"K": 1e3,
	"M": 1e6,
	"B": 1e9,
}

// ParseCount converts an abbreviated count as shown by the dashboard
// ("850", "1.2K", "3M", "4B") into an integer.
func ParseCount(s string) (int64, error) {
	m := countPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrFormat, s)
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrFormat, s, err)
	}

	v := math.Round(n * suffixMultipliers[m[2]])
	// float64(math.MaxInt64) is 2^63, one past the largest int64.
	if v >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrFormat, s)
	}
	return int64(v), nil
}
