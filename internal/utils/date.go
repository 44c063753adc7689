package utils

import (
	"fmt"
	"time"
)

// NextDailyRun returns the first hour:minute in now's location strictly after now.
func NextDailyRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// PrettyDate renders "Monday, 02 January 2006".
func PrettyDate(date time.Time) string {
	return date.Format("Monday, 02 January 2006")
}

func PrettyDateTime(date time.Time) string {
	return fmt.Sprintf("%02d %s %d - %02d:%02d %s",
		date.Day(),
		date.Month().String()[:3],
		date.Year(),
		date.Hour(),
		date.Minute(),
		date.Format("MST"),
	)
}

// RelativeAge turns a publication time into "5 minutes ago" style text.
func RelativeAge(now, published time.Time) string {
	if published.IsZero() {
		return ""
	}
	d := now.Sub(published)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	default:
		return plural(int(d.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
