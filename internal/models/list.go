package models

import "strings"

// Task is a single reminder item inside a list. Time is the canonical
// "HH:MM" string validated by timespec.Parse before a task is accepted.
type Task struct {
	ID     string `json:"id"`
	Time   string `json:"time"`
	Label  string `json:"task"`
	Repeat Repeat `json:"repeat,omitempty"`
}

// Valid reports whether the task satisfies the model invariants:
// a non-empty id, a non-empty label after trimming, and a repeat value
// the engine understands. The time string is validated separately.
func (t *Task) Valid() bool {
	if t.ID == "" || strings.TrimSpace(t.Label) == "" {
		return false
	}
	return t.Repeat == RepeatNone || t.Repeat == RepeatDaily
}

// TaskList is a named, ordered collection of tasks.
type TaskList struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`
}

// FindTask returns the index of the task with the given id, or -1.
func (l *TaskList) FindTask(taskID string) int {
	for i := range l.Tasks {
		if l.Tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// Snapshot is the full persisted state: every list and every task.
// It is the single source of truth for desired scheduling state.
type Snapshot struct {
	Version int        `json:"version,omitempty"`
	Lists   []TaskList `json:"lists"`
}

// FindList returns the index of the list with the given id, or -1.
func (s *Snapshot) FindList(listID string) int {
	for i := range s.Lists {
		if s.Lists[i].ID == listID {
			return i
		}
	}
	return -1
}
