package evaluator

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var lagTimePattern = regexp.MustCompile(`^P(?:(\d+)D)?T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseLagTime parses the grammar P[nD]T[nH][nM][nS] (ISO-8601-style
// duration, days/hours/minutes/seconds only, all components optional) into
// a time.Duration.
func ParseLagTime(s string) (time.Duration, error) {
	matches := lagTimePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("evaluator: invalid lag time grammar: %q", s)
	}

	days := parseNumberOrZero(matches[1])
	hours := parseNumberOrZero(matches[2])
	minutes := parseNumberOrZero(matches[3])
	seconds := parseNumberOrZero(matches[4])

	total := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second

	return total, nil
}

// FormatLagTime renders d back into the P[nD]T[nH][nM][nS] grammar,
// omitting zero-valued components except when the whole duration is zero
// (rendered as "PT0S").
func FormatLagTime(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := int64(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int64(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int64(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := int64(d / time.Second)

	out := "P"
	if days > 0 {
		out += fmt.Sprintf("%dD", days)
	}
	out += "T"
	if hours > 0 {
		out += fmt.Sprintf("%dH", hours)
	}
	if minutes > 0 {
		out += fmt.Sprintf("%dM", minutes)
	}
	if seconds > 0 || (days == 0 && hours == 0 && minutes == 0) {
		out += fmt.Sprintf("%dS", seconds)
	}
	return out
}

func parseNumberOrZero(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
