package util

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var isoWeekRe = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// ISOWeekID formats t as an ISO-8601 week id, e.g. "2026-W04".
func ISOWeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// ParseISOWeek returns the Monday 00:00 UTC that starts the given ISO week.
func ParseISOWeek(id string) (time.Time, error) {
	m := isoWeekRe.FindStringSubmatch(id)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid iso week %q", id)
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("invalid iso week %q", id)
	}

	// Jan 4th is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset+(week-1)*7)

	if y, w := monday.ISOWeek(); y != year || w != week {
		return time.Time{}, fmt.Errorf("iso week %q does not exist", id)
	}
	return monday, nil
}

// WeekRange returns [Monday, next Monday) for an ISO week id.
func WeekRange(id string) (time.Time, time.Time, error) {
	from, err := ParseISOWeek(id)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, from.AddDate(0, 0, 7), nil
}

// IsISOWeek reports whether id is a well-formed, existing ISO week.
func IsISOWeek(id string) bool {
	_, err := ParseISOWeek(id)
	return err == nil
}
