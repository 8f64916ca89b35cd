package engine

import (
	"errors"
	"sort"
	"time"

	"daybell/internal/models"
	"daybell/internal/occurrence"
	"daybell/internal/timespec"
)

type OpKind string

const (
	OpCancel OpKind = "cancel"
	OpCreate OpKind = "create"
)

var errInvalidTask = errors.New("task is missing an id or label")

// Op is a single port operation the reconciler decided on. Task and
// TriggerAt are set only for creates.
type Op struct {
	Kind      OpKind
	ItemID    string
	Task      models.Task
	TriggerAt time.Time
}

// ItemFailure reports one item that could not be scheduled. The rest of
// the batch is unaffected.
type ItemFailure struct {
	ItemID string
	Err    error
}

// Plan diffs the desired task set against the entries last pushed to the
// port and returns the minimal operation sequence: creates for new tasks,
// cancel+create pairs for changed ones, cancels for removed ones.
// Unchanged tasks produce nothing, so planning the same state twice is a
// no-op the second time. Tasks whose time string fails validation are
// returned as failures and skipped.
func Plan(desired []models.Task, scheduled map[string]models.ScheduledEntry, now time.Time) ([]Op, []ItemFailure) {
	var ops []Op
	var failures []ItemFailure

	seen := make(map[string]bool, len(desired))
	for _, task := range desired {
		seen[task.ID] = true

		entry, exists := scheduled[task.ID]
		if exists && entry.Matches(&task) {
			continue
		}

		if !task.Valid() {
			failures = append(failures, ItemFailure{ItemID: task.ID, Err: errInvalidTask})
			continue
		}
		tod, err := timespec.Parse(task.Time)
		if err != nil {
			failures = append(failures, ItemFailure{ItemID: task.ID, Err: err})
			continue
		}

		if exists {
			ops = append(ops, Op{Kind: OpCancel, ItemID: task.ID})
		}
		ops = append(ops, Op{
			Kind:      OpCreate,
			ItemID:    task.ID,
			Task:      task,
			TriggerAt: occurrence.NextTrigger(tod, now),
		})
	}

	// Entries whose task left the desired set get cancelled. Map order is
	// random, so sort for a deterministic operation sequence.
	var removed []string
	for id := range scheduled {
		if !seen[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		ops = append(ops, Op{Kind: OpCancel, ItemID: id})
	}

	return ops, failures
}
