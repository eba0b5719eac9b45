package shuttle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// NormalizeTime zero-pads the hour of an H:MM or HH:MM string ("8:30" ->
// "08:30"). Any other shape is returned unchanged.
func NormalizeTime(raw string) string {
	m := timeRe.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	h := m[1]
	if len(h) == 1 {
		h = "0" + h
	}
	return h + ":" + m[2]
}

// NormalizeDateTime normalizes only the time segment of a "<date> <time>"
// string. Strings that do not split into exactly two space-separated parts
// are returned unchanged.
func NormalizeDateTime(raw string) string {
	parts := strings.Split(strings.TrimSpace(raw), " ")
	if len(parts) != 2 {
		return raw
	}
	return parts[0] + " " + NormalizeTime(parts[1])
}

// NormalizeDate rewrites dash separators to the canonical slash form.
func NormalizeDate(raw string) string {
	return strings.ReplaceAll(raw, "-", "/")
}

// ParseDateTime parses a "<date> <time>" string into epoch milliseconds in
// local time. Dashes and slashes are both accepted as date separators.
// Missing month/day default to 01, a missing time to 00:00. The empty
// string parses to 0; so does anything without a numeric year.
func ParseDateTime(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	parts := strings.SplitN(raw, " ", 2)
	d := strings.Split(NormalizeDate(parts[0]), "/")
	year := atoiOr(pick(d, 0), -1)
	if year < 0 {
		return 0
	}
	month := atoiOr(pick(d, 1), 1)
	day := atoiOr(pick(d, 2), 1)
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	hour, minute := 0, 0
	if len(parts) == 2 && parts[1] != "" {
		hm := strings.Split(parts[1], ":")
		hour = atoiOr(pick(hm, 0), 0)
		minute = atoiOr(pick(hm, 1), 0)
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local)
	return t.UnixMilli()
}

// FormatDayKey renders a time as the YYYYMMDD key used for per-day sets.
func FormatDayKey(t time.Time) string {
	return t.Format("20060102")
}

// FormatDate renders a time as the canonical YYYY/MM/DD date.
func FormatDate(t time.Time) string {
	return t.Format("2006/01/02")
}

// FormatClock renders a time as HH:MM.
func FormatClock(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// SafeInt parses an integer, falling back to def on any parse failure.
func SafeInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}

func pick(parts []string, i int) string {
	if i < len(parts) {
		return strings.TrimSpace(parts[i])
	}
	return ""
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
