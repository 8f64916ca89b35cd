package models

import "time"

// Repeat describes how often a scheduled notification re-fires.
type Repeat string

const (
	RepeatNone  Repeat = ""
	RepeatDaily Repeat = "daily"
)

// ScheduledEntry records what the engine last pushed to the notification
// port for one task. The port exposes no query API, so this record is the
// only view of "actual" scheduled state the engine ever has.
type ScheduledEntry struct {
	ItemID    string
	ListID    string
	Time      string
	Label     string
	Repeat    Repeat
	TriggerAt time.Time
}

// Matches reports whether the entry still reflects the given task, i.e.
// nothing the port was told about has changed.
func (e *ScheduledEntry) Matches(t *Task) bool {
	return e.Time == t.Time && e.Label == t.Label && e.Repeat == t.Repeat
}
