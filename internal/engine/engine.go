package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"daybell/internal/models"
	"daybell/internal/notify"
	"daybell/internal/occurrence"
	"daybell/internal/store"
	"daybell/internal/timespec"
)

var (
	ErrNoSuchList = errors.New("no list with that id")
	ErrNoSuchTask = errors.New("no task with that id")
	ErrEmptyLabel = errors.New("task label must not be empty")
)

// Result reports what one reconciliation batch did at the port.
type Result struct {
	Created   []string
	Cancelled []string
	Failures  []ItemFailure
}

// Engine owns the snapshot (desired state) and the record of what was
// last pushed to the notification port (scheduled state). The port is
// write-only, so that record is never read back from anywhere.
//
// All operations take the engine mutex, which also guarantees that no two
// reconciliation batches run concurrently: the cancel-before-create order
// is only meaningful within a single batch.
type Engine struct {
	gateway store.Gateway
	port    notify.Port
	key     string

	now   func() time.Time
	newID func() string

	mu        sync.Mutex
	snapshot  *models.Snapshot
	scheduled map[string]models.ScheduledEntry
	activeID  string
}

func New(gateway store.Gateway, port notify.Port, key string) *Engine {
	return &Engine{
		gateway:   gateway,
		port:      port,
		key:       key,
		now:       time.Now,
		newID:     func() string { return strconv.FormatInt(time.Now().UnixNano(), 36) },
		snapshot:  &models.Snapshot{},
		scheduled: make(map[string]models.ScheduledEntry),
	}
}

// Load reads the persisted snapshot. A missing or undecodable snapshot is
// not fatal: the engine starts from an empty one and the next save
// overwrites whatever was there.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	blob, err := e.gateway.Load(ctx, e.key)
	if errors.Is(err, store.ErrAbsent) {
		e.snapshot = &models.Snapshot{}
		return nil
	}
	if err != nil {
		e.snapshot = &models.Snapshot{}
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap, err := store.Decode(blob)
	if err != nil {
		e.snapshot = &models.Snapshot{}
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	e.snapshot = snap
	if len(snap.Lists) > 0 && e.activeID == "" {
		e.activeID = snap.Lists[0].ID
	}
	return nil
}

// save persists the current snapshot. On failure the in-memory snapshot
// stays the source of truth; the caller decides how to report it.
func (e *Engine) save(ctx context.Context) error {
	blob, err := store.Encode(e.snapshot)
	if err != nil {
		return err
	}
	if err := e.gateway.Save(ctx, e.key, blob); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Lists returns a copy of every list in snapshot order.
func (e *Engine) Lists() []models.TaskList {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.TaskList, len(e.snapshot.Lists))
	copy(out, e.snapshot.Lists)
	return out
}

// Tasks returns a copy of the tasks of one list in stored order.
func (e *Engine) Tasks(listID string) ([]models.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.snapshot.FindList(listID)
	if idx < 0 {
		return nil, ErrNoSuchList
	}
	out := make([]models.Task, len(e.snapshot.Lists[idx].Tasks))
	copy(out, e.snapshot.Lists[idx].Tasks)
	return out, nil
}

// ActiveListID returns the list currently selected for scheduling, or ""
// when no list exists yet.
func (e *Engine) ActiveListID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID
}

// SetActiveList switches the active list. Switching never cancels the
// previous list's notifications; those stay live until an explicit delete
// or bulk reschedule.
func (e *Engine) SetActiveList(listID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snapshot.FindList(listID) < 0 {
		return ErrNoSuchList
	}
	e.activeID = listID
	return nil
}

func (e *Engine) AddList(ctx context.Context, name string) (models.TaskList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.TaskList{}, fmt.Errorf("list name must not be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	list := models.TaskList{ID: e.newID(), Name: name}
	e.snapshot.Lists = append(e.snapshot.Lists, list)
	if e.activeID == "" {
		e.activeID = list.ID
	}
	return list, e.save(ctx)
}

// DeleteList removes a list and cancels whatever triggers its tasks still
// have live at the port.
func (e *Engine) DeleteList(ctx context.Context, listID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.snapshot.FindList(listID)
	if idx < 0 {
		return ErrNoSuchList
	}

	for _, task := range e.snapshot.Lists[idx].Tasks {
		e.cancelLocked(ctx, task.ID)
	}

	e.snapshot.Lists = append(e.snapshot.Lists[:idx], e.snapshot.Lists[idx+1:]...)
	if e.activeID == listID {
		e.activeID = ""
		if len(e.snapshot.Lists) > 0 {
			e.activeID = e.snapshot.Lists[0].ID
		}
	}
	return e.save(ctx)
}

// AddTask validates and appends a task to a list. The new task is not
// scheduled until Apply or RescheduleList runs.
func (e *Engine) AddTask(ctx context.Context, listID, timeRaw, label string, repeat models.Repeat) (models.Task, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.Task{}, ErrEmptyLabel
	}
	tod, err := timespec.Parse(timeRaw)
	if err != nil {
		return models.Task{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.snapshot.FindList(listID)
	if idx < 0 {
		return models.Task{}, ErrNoSuchList
	}

	task := models.Task{ID: e.newID(), Time: tod.String(), Label: label, Repeat: repeat}
	e.snapshot.Lists[idx].Tasks = append(e.snapshot.Lists[idx].Tasks, task)
	return task, e.save(ctx)
}

// UpdateTask rewrites a task's time and label in place. The live trigger,
// if any, is not touched until the next Apply or RescheduleList.
func (e *Engine) UpdateTask(ctx context.Context, listID, taskID, timeRaw, label string) (models.Task, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.Task{}, ErrEmptyLabel
	}
	tod, err := timespec.Parse(timeRaw)
	if err != nil {
		return models.Task{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	li := e.snapshot.FindList(listID)
	if li < 0 {
		return models.Task{}, ErrNoSuchList
	}
	ti := e.snapshot.Lists[li].FindTask(taskID)
	if ti < 0 {
		return models.Task{}, ErrNoSuchTask
	}

	task := &e.snapshot.Lists[li].Tasks[ti]
	task.Time = tod.String()
	task.Label = label
	return *task, e.save(ctx)
}

// DeleteTask removes a task and cancels its trigger if one is live. A
// task re-added with the same id later is treated as brand new.
func (e *Engine) DeleteTask(ctx context.Context, listID, taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	li := e.snapshot.FindList(listID)
	if li < 0 {
		return ErrNoSuchList
	}
	ti := e.snapshot.Lists[li].FindTask(taskID)
	if ti < 0 {
		return ErrNoSuchTask
	}

	e.cancelLocked(ctx, taskID)

	tasks := e.snapshot.Lists[li].Tasks
	e.snapshot.Lists[li].Tasks = append(tasks[:ti], tasks[ti+1:]...)
	return e.save(ctx)
}

// cancelLocked cancels a task's trigger at the port and drops its entry.
// An id the port does not know is already absent, not an error.
func (e *Engine) cancelLocked(ctx context.Context, taskID string) {
	if _, ok := e.scheduled[taskID]; !ok {
		return
	}
	if err := e.port.Cancel(ctx, taskID); err != nil && !errors.Is(err, notify.ErrNotFound) {
		log.Printf("Failed to cancel trigger %s: %v", taskID, err)
	}
	delete(e.scheduled, taskID)
}

// Apply reconciles one list's tasks against the engine's scheduled-state
// record and issues the minimal cancel/create sequence. Only entries
// belonging to that list are considered, so other lists' live
// notifications are untouched. Per-item failures leave the item
// unscheduled and the batch continues.
func (e *Engine) Apply(ctx context.Context, listID string) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.snapshot.FindList(listID)
	if idx < 0 {
		return nil, ErrNoSuchList
	}
	list := &e.snapshot.Lists[idx]

	prior := make(map[string]models.ScheduledEntry)
	for id, entry := range e.scheduled {
		if entry.ListID == listID {
			prior[id] = entry
		}
	}

	ops, failures := Plan(list.Tasks, prior, e.now())
	res := &Result{Failures: failures}

	for _, op := range ops {
		switch op.Kind {
		case OpCancel:
			if err := e.port.Cancel(ctx, op.ItemID); err != nil && !errors.Is(err, notify.ErrNotFound) {
				log.Printf("Failed to cancel trigger %s: %v", op.ItemID, err)
			}
			delete(e.scheduled, op.ItemID)
			res.Cancelled = append(res.Cancelled, op.ItemID)
		case OpCreate:
			if err := e.createLocked(ctx, listID, list.Name, op); err != nil {
				res.Failures = append(res.Failures, ItemFailure{ItemID: op.ItemID, Err: err})
			} else {
				res.Created = append(res.Created, op.ItemID)
			}
		}
	}
	return res, nil
}

// RescheduleList is the coarse path behind the explicit "schedule
// reminders" action: one CancelAll, then one create per task in stored
// order. CancelAll wipes every list's triggers, so the whole scheduled
// record is dropped before the creates begin; the creates start only
// after CancelAll has returned.
func (e *Engine) RescheduleList(ctx context.Context, listID string) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.snapshot.FindList(listID)
	if idx < 0 {
		return nil, ErrNoSuchList
	}
	list := &e.snapshot.Lists[idx]

	if err := e.port.CancelAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to cancel existing triggers: %w", err)
	}
	e.scheduled = make(map[string]models.ScheduledEntry)

	res := &Result{}
	now := e.now()
	for _, task := range list.Tasks {
		tod, err := timespec.Parse(task.Time)
		if err != nil {
			res.Failures = append(res.Failures, ItemFailure{ItemID: task.ID, Err: err})
			continue
		}
		op := Op{Kind: OpCreate, ItemID: task.ID, Task: task, TriggerAt: occurrence.NextTrigger(tod, now)}
		if err := e.createLocked(ctx, listID, list.Name, op); err != nil {
			res.Failures = append(res.Failures, ItemFailure{ItemID: task.ID, Err: err})
			continue
		}
		res.Created = append(res.Created, task.ID)
	}
	return res, nil
}

func (e *Engine) createLocked(ctx context.Context, listID, listName string, op Op) error {
	tod, _ := timespec.Parse(op.Task.Time)
	payload := notify.Payload{
		Title: op.Task.Label,
		Body:  fmt.Sprintf("%s · %s", listName, timespec.Format12(tod)),
	}
	trigger := notify.Trigger{At: op.TriggerAt, Repeat: op.Task.Repeat}

	if err := e.port.CreateTrigger(ctx, op.ItemID, payload, trigger); err != nil {
		log.Printf("Failed to create trigger %s: %v", op.ItemID, err)
		return err
	}

	e.scheduled[op.ItemID] = models.ScheduledEntry{
		ItemID:    op.ItemID,
		ListID:    listID,
		Time:      op.Task.Time,
		Label:     op.Task.Label,
		Repeat:    op.Task.Repeat,
		TriggerAt: op.TriggerAt,
	}
	return nil
}

// ScheduledCount reports how many triggers the engine believes are live.
func (e *Engine) ScheduledCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.scheduled)
}

// CancelAll wipes every live trigger and the scheduled record.
func (e *Engine) CancelAll(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.port.CancelAll(ctx); err != nil {
		return fmt.Errorf("failed to cancel triggers: %w", err)
	}
	e.scheduled = make(map[string]models.ScheduledEntry)
	return nil
}
