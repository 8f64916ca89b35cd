package occurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"daybell/internal/models"
	"daybell/internal/timespec"
)

// NextTrigger returns the next absolute instant at which a time-of-day
// reminder should fire, relative to ref: today if the wall-clock time has
// not yet passed, otherwise tomorrow. The comparison is strict, so a
// reminder set for ref's exact time still fires today.
func NextTrigger(tod timespec.TimeOfDay, ref time.Time) time.Time {
	at := time.Date(ref.Year(), ref.Month(), ref.Day(), tod.Hour, tod.Minute, 0, 0, ref.Location())
	if at.Before(ref) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// DailyRule builds a FREQ=DAILY recurrence rule anchored at the next
// trigger instant for tod. The notification port owns the actual
// re-firing; the rule is used to preview future occurrences.
func DailyRule(tod timespec.TimeOfDay, ref time.Time) (*rrule.RRule, error) {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: NextTrigger(tod, ref),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build daily rule: %w", err)
	}
	return rule, nil
}

// Upcoming returns the next count occurrences of a task strictly after
// the given instant. Non-repeating tasks have at most one occurrence.
func Upcoming(task *models.Task, after time.Time, count int) ([]time.Time, error) {
	tod, err := timespec.Parse(task.Time)
	if err != nil {
		return nil, err
	}

	if task.Repeat != models.RepeatDaily {
		return []time.Time{NextTrigger(tod, after)}, nil
	}

	rule, err := DailyRule(tod, after)
	if err != nil {
		return nil, err
	}

	iterator := rule.Iterator()
	var results []time.Time
	for len(results) < count {
		next, ok := iterator()
		if !ok {
			break
		}
		if next.Before(after) {
			continue
		}
		results = append(results, next)
	}
	return results, nil
}
