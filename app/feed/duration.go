package feed

import (
	"strconv"
	"strings"
)

// ParseDuration converts an itunes:duration value to seconds. It accepts plain
// seconds ("90") or colon separated "MM:SS" / "HH:MM:SS". Anything else is 0.
func ParseDuration(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if !strings.Contains(value, ":") {
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds < 0 {
			return 0
		}
		return seconds
	}

	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}

	return total
}
