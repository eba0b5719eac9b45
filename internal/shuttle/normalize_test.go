package shuttle

import (
	"testing"
	"time"
)

func TestNormalizeTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0:50", "00:50"},
		{"8:30", "08:30"},
		{"10:00", "10:00"},
		{"23:59", "23:59"},
		{"8:3", "8:3"},     // minutes must be two digits
		{"830", "830"},     // no colon
		{"", ""},           // empty passes through
		{"abc", "abc"},     // free text passes through
		{"8:30 ", "8:30 "}, // trailing space breaks the shape
	}
	for _, c := range cases {
		if got := NormalizeTime(c.in); got != c.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeDateTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025/12/08 8:00", "2025/12/08 08:00"},
		{"2025/12/08 18:00", "2025/12/08 18:00"},
		{"2025/12/08", "2025/12/08"},            // no time segment
		{"2025/12/08 8:00 extra", "2025/12/08 8:00 extra"}, // three parts
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeDateTime(c.in); got != c.want {
			t.Errorf("NormalizeDateTime(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	if got := ParseDateTime(""); got != 0 {
		t.Fatalf("ParseDateTime(\"\") = %d, want 0", got)
	}

	want := time.Date(2025, 1, 5, 0, 0, 0, 0, time.Local).UnixMilli()
	if got := ParseDateTime("2025-01-05"); got != want {
		t.Errorf("ParseDateTime(2025-01-05) = %d, want %d", got, want)
	}
	if got := ParseDateTime("2025/01/05"); got != want {
		t.Errorf("ParseDateTime(2025/01/05) = %d, want %d", got, want)
	}

	want = time.Date(2025, 12, 8, 8, 30, 0, 0, time.Local).UnixMilli()
	if got := ParseDateTime("2025-12-08 8:30"); got != want {
		t.Errorf("ParseDateTime(2025-12-08 8:30) = %d, want %d", got, want)
	}

	// Missing month and day default to 01.
	want = time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local).UnixMilli()
	if got := ParseDateTime("2025"); got != want {
		t.Errorf("ParseDateTime(2025) = %d, want %d", got, want)
	}

	if got := ParseDateTime("not a date"); got != 0 {
		t.Errorf("ParseDateTime(garbage) = %d, want 0", got)
	}
}

func TestSafeInt(t *testing.T) {
	if got := SafeInt("3", 1); got != 3 {
		t.Errorf("SafeInt(3) = %d", got)
	}
	if got := SafeInt(" 4 ", 1); got != 4 {
		t.Errorf("SafeInt with spaces = %d", got)
	}
	if got := SafeInt("", 1); got != 1 {
		t.Errorf("SafeInt empty = %d, want default", got)
	}
	if got := SafeInt("x", 7); got != 7 {
		t.Errorf("SafeInt garbage = %d, want default", got)
	}
}

func TestStatusFromText(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"已上車", StatusBoarded},
		{"12:00 已上車", StatusBoarded},
		{"No-show", StatusNoShow},
		{"已上車 No-show", StatusBoarded}, // boarded checked first
		{"預約", StatusBooked},
		{"", StatusBooked},
	}
	for _, c := range cases {
		if got := StatusFromText(c.in); got != c.want {
			t.Errorf("StatusFromText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
