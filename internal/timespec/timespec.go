package timespec

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is returned when a time string is not a strict
// zero-padded "HH:MM" with hour 0-23 and minute 0-59.
var ErrInvalidFormat = errors.New("invalid time format, expected HH:MM")

// TimeOfDay is a wall-clock time with no date or timezone attached.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Parse parses a strict "HH:MM" string. Both fields must be exactly two
// digits; "9:30", "24:00" and "09:60" are all rejected. This is the
// machine format stored in snapshots, not a user-facing parser.
func Parse(raw string) (TimeOfDay, error) {
	if len(raw) != 5 || raw[2] != ':' {
		return TimeOfDay{}, ErrInvalidFormat
	}
	for _, i := range []int{0, 1, 3, 4} {
		if raw[i] < '0' || raw[i] > '9' {
			return TimeOfDay{}, ErrInvalidFormat
		}
	}
	hour := int(raw[0]-'0')*10 + int(raw[1]-'0')
	minute := int(raw[3]-'0')*10 + int(raw[4]-'0')
	if hour > 23 || minute > 59 {
		return TimeOfDay{}, ErrInvalidFormat
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// String returns the canonical zero-padded "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Format12 returns the 12-hour display form, e.g. "01:05 PM".
// Midnight is "12:00 AM", noon is "12:00 PM".
func Format12(t TimeOfDay) string {
	period := "AM"
	hour := t.Hour
	if hour >= 12 {
		period = "PM"
	}
	hour = hour % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%02d:%02d %s", hour, t.Minute, period)
}
