package finance

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseWindow turns a user window such as 7d, 2w, 3m or 1y into a day count.
// An empty window means the default history length.
func ParseWindow(window string) (int, error) {
	window = strings.ToLower(strings.TrimSpace(window))
	if window == "" {
		return defaultHistoryDays, nil
	}

	unit := window[len(window)-1]
	n, err := strconv.Atoi(window[:len(window)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid window format: %s (use format like 7d, 2w, 3m, 1y)", window)
	}

	switch unit {
	case 'd':
		return n, nil
	case 'w':
		return n * 7, nil
	case 'm':
		return n * 30, nil
	case 'y':
		return n * 365, nil
	default:
		return 0, fmt.Errorf("invalid window format: %s (use format like 7d, 2w, 3m, 1y)", window)
	}
}

// rangeForDays picks the smallest Yahoo range parameter covering days daily bars.
func rangeForDays(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	case days <= 1825:
		return "5y"
	default:
		return "max"
	}
}
