package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
)

// DefaultTimezone is the zone in which report days are counted.
const DefaultTimezone = "America/Sao_Paulo"

// ParseTimezoneLocation resolves the configured zone. It accepts IANA names
// ("America/Sao_Paulo"), "UTC"/"GMT" and fixed offsets ("UTC-3", "-03:00", "+5:30").
// Fixed offsets become a time.FixedZone and ignore DST.
func ParseTimezoneLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	switch strings.ToUpper(tz) {
	case "", "UTC", "ETC/UTC", "GMT":
		return time.UTC, nil
	}

	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}

	offset, ok := parseOffset(tz)
	if !ok {
		return nil, fmt.Errorf("unsupported timezone %q", tz)
	}

	return time.FixedZone(offsetName(offset), offset), nil
}

// CalendarDays returns the calendar date of now in loc together with the day before it.
func CalendarDays(now time.Time, loc *time.Location) (today, yesterday civil.Date) {
	today = civil.DateOf(now.In(loc))
	return today, today.AddDays(-1)
}

func parseOffset(s string) (int, bool) {
	if len(s) >= 3 && strings.EqualFold(s[:3], "UTC") {
		s = strings.TrimSpace(s[3:])
		if s == "" {
			return 0, true
		}
	}
	if len(s) < 2 {
		return 0, false
	}

	var sign int
	switch s[0] {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return 0, false
	}

	hours, minutes, found := strings.Cut(s[1:], ":")
	if !found {
		minutes = "0"
	}

	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 14 {
		return 0, false
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m >= 60 {
		return 0, false
	}

	return sign * (h*3600 + m*60), true
}

func offsetName(offset int) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offset/3600, (offset%3600)/60)
}
