// Package followup drives the redial machinery: candidate-requested
// callbacks, follow-up calls after unreachable dials, the delayed assessment
// scheduling call, and the stale-call sweep.
package followup

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativePattern = regexp.MustCompile(`(?:in|after)\s+(\d+)\s*(minutes?|mins?|hours?|hrs?)`)
	clockPattern    = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
	weekdays        = map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	dayParts = map[string]int{
		"morning":   10,
		"afternoon": 14,
		"evening":   18,
	}
)

// ParseCallbackTime turns a candidate's free-text callback request into a
// concrete time. It is total: unparseable text falls back to two hours from
// now, so a callback is always scheduled.
func ParseCallbackTime(text string, now time.Time) time.Time {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return now.Add(2 * time.Hour)
	}

	if m := relativePattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			if strings.HasPrefix(m[2], "m") {
				return now.Add(time.Duration(n) * time.Minute)
			}
			return now.Add(time.Duration(n) * time.Hour)
		}
	}

	if strings.Contains(lower, "tomorrow") {
		hour := 10
		for part, h := range dayParts {
			if strings.Contains(lower, part) {
				hour = h
				break
			}
		}
		if h, minute, ok := parseClock(lower); ok {
			hour = h
			return atHour(now.AddDate(0, 0, 1), hour, minute)
		}
		return atHour(now.AddDate(0, 0, 1), hour, 0)
	}

	for name, day := range weekdays {
		if !strings.Contains(lower, name) {
			continue
		}
		hour, minute := 10, 0
		if h, m, ok := parseClock(lower); ok {
			hour, minute = h, m
		}
		target := atHour(now, hour, minute)
		for target.Weekday() != day || !target.After(now) {
			target = target.AddDate(0, 0, 1)
		}
		return target
	}

	if hour, minute, ok := parseClock(lower); ok {
		target := atHour(now, hour, minute)
		if !target.After(now) {
			target = target.AddDate(0, 0, 1)
		}
		return target
	}

	for part, hour := range dayParts {
		if strings.Contains(lower, part) {
			target := atHour(now, hour, 0)
			if !target.After(now) {
				target = target.AddDate(0, 0, 1)
			}
			return target
		}
	}

	return now.Add(2 * time.Hour)
}

// parseClock extracts an explicit clock time. A bare number only counts when
// an am/pm marker disambiguates it from ages and dates.
func parseClock(text string) (hour, minute int, ok bool) {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	if m[2] == "" && m[3] == "" {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return 0, 0, false
	}
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return 0, 0, false
		}
	}

	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute, true
}

func atHour(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

// NextFollowUpSlot picks the follow-up time for an unreachable candidate:
// requests before 14:00 land on the 16:00 slot the same day, later ones on
// 10:00 the next day.
func NextFollowUpSlot(now time.Time) time.Time {
	if now.Hour() < 14 {
		return atHour(now, 16, 0)
	}
	return atHour(now.AddDate(0, 0, 1), 10, 0)
}
