package progress

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// positionPattern matches the timeline tokens ffmpeg prints: "time=" in -stats
// lines, "out_time=" in -progress output, and "out_time_us=" / "out_time_ms="
// (both microseconds).
var positionPattern = regexp.MustCompile(`(?:^|[\s,])(?:out_)?time(_us|_ms)?=\s*(\S+)`)

// ParsePosition extracts the current position in the source timeline, in
// seconds, from one line of encoder output. It reports false for lines
// without a usable token; "N/A", negative, and malformed values never parse.
// When a line carries several tokens the last one wins.
func ParsePosition(line string) (float64, bool) {
	matches := positionPattern.FindAllStringSubmatch(line, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		unit, value := matches[i][1], matches[i][2]
		var (
			seconds float64
			ok      bool
		)
		if unit != "" {
			seconds, ok = parseMicros(value)
		} else {
			seconds, ok = parseClock(value)
		}
		if ok {
			return seconds, true
		}
	}
	return 0, false
}

func parseMicros(value string) (float64, bool) {
	us, err := strconv.ParseInt(value, 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	return float64(us) / 1e6, true
}

// parseClock accepts HH:MM:SS(.frac), MM:SS(.frac), or plain seconds.
func parseClock(value string) (float64, bool) {
	if value == "" || strings.HasPrefix(value, "-") {
		return 0, false
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, false
	}
	total := 0.0
	for i, part := range parts {
		last := i == len(parts)-1
		if part == "" {
			return 0, false
		}
		var (
			n   float64
			err error
		)
		if last {
			n, err = strconv.ParseFloat(part, 64)
		} else {
			var whole uint64
			whole, err = strconv.ParseUint(part, 10, 32)
			n = float64(whole)
		}
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
			return 0, false
		}
		if i > 0 && (n >= 60) {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
