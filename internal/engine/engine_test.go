package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"daybell/internal/models"
	"daybell/internal/notify"
	"daybell/internal/store"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)

// fakePort records every operation in call order and simulates a port
// that tracks live triggers only so Cancel can report ErrNotFound.
type fakePort struct {
	calls      []string
	live       map[string]bool
	failCreate map[string]error
	failAll    error
}

func newFakePort() *fakePort {
	return &fakePort{live: make(map[string]bool), failCreate: make(map[string]error)}
}

func (p *fakePort) CreateChannel(ctx context.Context, id, name string) (string, error) {
	p.calls = append(p.calls, "channel:"+id)
	return id, nil
}

func (p *fakePort) CreateTrigger(ctx context.Context, id string, payload notify.Payload, tr notify.Trigger) error {
	p.calls = append(p.calls, "create:"+id)
	if err := p.failCreate[id]; err != nil {
		return err
	}
	p.live[id] = true
	return nil
}

func (p *fakePort) Cancel(ctx context.Context, id string) error {
	p.calls = append(p.calls, "cancel:"+id)
	if !p.live[id] {
		return notify.ErrNotFound
	}
	delete(p.live, id)
	return nil
}

func (p *fakePort) CancelAll(ctx context.Context) error {
	p.calls = append(p.calls, "cancelAll")
	if p.failAll != nil {
		return p.failAll
	}
	p.live = make(map[string]bool)
	return nil
}

func (p *fakePort) RequestPermission(ctx context.Context) (bool, error) {
	return true, nil
}

type fakeGateway struct {
	blobs   map[string][]byte
	loadErr error
	saveErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{blobs: make(map[string][]byte)}
}

func (g *fakeGateway) Load(ctx context.Context, key string) ([]byte, error) {
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	blob, ok := g.blobs[key]
	if !ok {
		return nil, store.ErrAbsent
	}
	return blob, nil
}

func (g *fakeGateway) Save(ctx context.Context, key string, blob []byte) error {
	if g.saveErr != nil {
		return g.saveErr
	}
	g.blobs[key] = blob
	return nil
}

func newTestEngine(gateway *fakeGateway, port *fakePort) *Engine {
	e := New(gateway, port, "snapshot")
	e.now = func() time.Time { return testNow }
	seq := 0
	e.newID = func() string {
		seq++
		return fmt.Sprintf("id%d", seq)
	}
	return e
}

func setupList(t *testing.T, e *Engine, name string, times ...string) models.TaskList {
	t.Helper()
	ctx := context.Background()
	list, err := e.AddList(ctx, name)
	if err != nil {
		t.Fatalf("AddList(%q) returned error: %v", name, err)
	}
	for i, at := range times {
		if _, err := e.AddTask(ctx, list.ID, at, fmt.Sprintf("%s task %d", name, i+1), models.RepeatDaily); err != nil {
			t.Fatalf("AddTask returned error: %v", err)
		}
	}
	return list
}

func TestApplyIdempotence(t *testing.T) {
	ctx := context.Background()
	port := newFakePort()
	e := newTestEngine(newFakeGateway(), port)
	list := setupList(t, e, "Morning", "07:30", "08:00")

	res, err := e.Apply(ctx, list.ID)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(res.Created) != 2 || len(res.Cancelled) != 0 || len(res.Failures) != 0 {
		t.Fatalf("first Apply: %+v", res)
	}

	before := len(port.calls)
	res, err = e.Apply(ctx, list.ID)
	if err != nil {
		t.Fatalf("second Apply returned error: %v", err)
	}
	if len(res.Created) != 0 || len(res.Cancelled) != 0 {
		t.Errorf("second Apply produced ops: %+v", res)
	}
	if len(port.calls) != before {
		t.Errorf("second Apply touched the port: %v", port.calls[before:])
	}
}

func TestApplyReschedulesChangedTask(t *testing.T) {
	ctx := context.Background()
	port := newFakePort()
	e := newTestEngine(newFakeGateway(), port)
	list := setupList(t, e, "Morning", "07:30")
	tasks, _ := e.Tasks(list.ID)

	if _, err := e.Apply(ctx, list.ID); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	if _, err := e.UpdateTask(ctx, list.ID, tasks[0].ID, "07:45", "changed"); err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}

	port.calls = nil
	if _, err := e.Apply(ctx, list.ID); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	want := []string{"cancel:" + tasks[0].ID, "create:" + tasks[0].ID}
	if strings.Join(port.calls, ",") != strings.Join(want, ",") {
		t.Errorf("port calls = %v, want %v", port.calls, want)
	}
}

func TestDeleteTaskCancelsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	port := newFakePort()
	e := newTestEngine(newFakeGateway(), port)
	list := setupList(t, e, "Morning", "07:30", "08:00")
	tasks, _ := e.Tasks(list.ID)

	if _, err := e.Apply(ctx, list.ID); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	port.calls = nil
	if err := e.DeleteTask(ctx, list.ID, tasks[0].ID); err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	if got := strings.Join(port.calls, ","); got != "cancel:"+tasks[0].ID {
		t.Errorf("port calls = %v, want single cancel", port.calls)
	}
	if e.ScheduledCount() != 1 {
		t.Errorf("scheduled count = %d, want 1", e.ScheduledCount())
	}

	// A later Apply must not emit anything for the deleted id.
	port.calls = nil
	if _, err := e.Apply(ctx, list.ID); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	for _, call := range port.calls {
		if strings.HasSuffix(call, tasks[0].ID) {
			t.Errorf("stale op for deleted task: %v", port.calls)
		}
	}
}

func TestBulkRescheduleOrder(t *testing.T) {
	ctx := context.Background()
	port := newFakePort()
	e := newTestEngine(newFakeGateway(), port)
	list := setupList(t, e, "Day", "06:00", "12:30", "21:15")
	tasks, _ := e.Tasks(list.ID)

	res, err := e.RescheduleList(ctx, list.ID)
	if err != nil {
		t.Fatalf("RescheduleList returned error: %v", err)
	}
	if len(res.Created) != 3 || len(res.Failures) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	want := []string{"cancelAll"}
	for _, task := range tasks {
		want = append(want, "create:"+task.ID)
	}
	if strings.Join(port.calls, ",") != strings.Join(want, ",") {
		t.Errorf("port calls = %v, want %v", port.calls, want)
	}
}

func TestBulkRescheduleAbortsWhenCancelAllFails(t *testing.T) {
	ctx := context.Background()
	port := newFakePort()
	port.failAll = errors.New("port down")
	e := newTestEngine(newFakeGateway(), port)
	list := setupList(t, e, "Day", "06:00")

	if _, err := e.RescheduleList(ctx, list.ID); err == nil {
		t.Fatal("expected error when CancelAll fails")
	}
	for _, call := range port.calls {
		if strings.HasPrefix(call, "create:") {
			t.Errorf("create issued after failed CancelAll: %v", port.calls)
		}
	}
}

func TestCreateFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	port := newFakePort()
	e := newTestEngine(newFakeGateway(), port)
	list := setupList(t, e, "Day", "06:00", "12:30", "21:15")
	tasks, _ := e.Tasks(list.ID)
	port.failCreate[tasks[1].ID] = errors.New("rejected")

	res, err := e.RescheduleList(ctx, list.ID)
	if err != nil {
		t.Fatalf("RescheduleList returned error: %v", err)
	}
	if len(res.Created) != 2 {
		t.Errorf("created = %v, want the two healthy tasks", res.Created)
	}
	if len(res.Failures) != 1 || res.Failures[0].ItemID != tasks[1].ID {
		t.Errorf("failures = %+v, want one for %s", res.Failures, tasks[1].ID)
	}
	// Failed item holds no entry, so the next Apply retries it.
	if e.ScheduledCount() != 2 {
		t.Errorf("scheduled count = %d, want 2", e.ScheduledCount())
	}
}

func TestCrossListIsolation(t *testing.T) {
	ctx := context.Background()
	port := newFakePort()
	e := newTestEngine(newFakeGateway(), port)
	listA := setupList(t, e, "A", "07:00", "08:00")
	listB := setupList(t, e, "B", "09:00")

	if _, err := e.Apply(ctx, listB.ID); err != nil {
		t.Fatalf("Apply(B) returned error: %v", err)
	}
	tasksB, _ := e.Tasks(listB.ID)

	// Reconciling A while B is active must not reference B's ids, and
	// must not cancel B's live trigger.
	if err := e.SetActiveList(listB.ID); err != nil {
		t.Fatalf("SetActiveList returned error: %v", err)
	}
	port.calls = nil
	if _, err := e.Apply(ctx, listA.ID); err != nil {
		t.Fatalf("Apply(A) returned error: %v", err)
	}
	for _, call := range port.calls {
		for _, task := range tasksB {
			if strings.HasSuffix(call, task.ID) {
				t.Errorf("operation touched list B item: %v", port.calls)
			}
		}
	}
	if !port.live[tasksB[0].ID] {
		t.Error("list B trigger was cancelled by reconciling list A")
	}
}

func TestSwitchingActiveListCancelsNothing(t *testing.T) {
	ctx := context.Background()
	port := newFakePort()
	e := newTestEngine(newFakeGateway(), port)
	listA := setupList(t, e, "A", "07:00")
	listB := setupList(t, e, "B", "09:00")

	if _, err := e.Apply(ctx, listA.ID); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	port.calls = nil
	if err := e.SetActiveList(listB.ID); err != nil {
		t.Fatalf("SetActiveList returned error: %v", err)
	}
	if len(port.calls) != 0 {
		t.Errorf("switching lists touched the port: %v", port.calls)
	}
}

func TestLoadFallsBackToEmptySnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("absent snapshot", func(t *testing.T) {
		e := newTestEngine(newFakeGateway(), newFakePort())
		if err := e.Load(ctx); err != nil {
			t.Fatalf("Load of absent snapshot must not error, got %v", err)
		}
		if len(e.Lists()) != 0 {
			t.Errorf("expected empty snapshot")
		}
	})

	t.Run("load failure", func(t *testing.T) {
		gateway := newFakeGateway()
		gateway.loadErr = errors.New("connection refused")
		e := newTestEngine(gateway, newFakePort())
		if err := e.Load(ctx); err == nil {
			t.Fatal("expected reported error")
		}
		// Reported, but the engine still runs on an empty snapshot.
		if _, err := e.AddList(ctx, "fresh"); err != nil {
			t.Fatalf("engine unusable after load failure: %v", err)
		}
		if len(e.Lists()) != 1 {
			t.Errorf("expected the fresh list")
		}
	})

	t.Run("corrupt snapshot", func(t *testing.T) {
		gateway := newFakeGateway()
		gateway.blobs["snapshot"] = []byte("not json")
		e := newTestEngine(gateway, newFakePort())
		if err := e.Load(ctx); err == nil {
			t.Fatal("expected reported error")
		}
		if len(e.Lists()) != 0 {
			t.Errorf("expected empty snapshot after corrupt load")
		}
	})
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	gateway := newFakeGateway()
	gateway.saveErr = errors.New("disk full")
	e := newTestEngine(gateway, newFakePort())

	if _, err := e.AddList(ctx, "Morning"); err == nil {
		t.Fatal("expected save error to be reported")
	}
	if len(e.Lists()) != 1 {
		t.Errorf("in-memory state lost on save failure")
	}
}

func TestLoadRestoresListsAndActiveList(t *testing.T) {
	ctx := context.Background()
	gateway := newFakeGateway()
	first := newTestEngine(gateway, newFakePort())
	list := setupList(t, first, "Morning", "07:30")

	second := newTestEngine(gateway, newFakePort())
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := second.ActiveListID(); got != list.ID {
		t.Errorf("active list = %q, want first list %q", got, list.ID)
	}
	tasks, err := second.Tasks(list.ID)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("restored tasks = %v, %v", tasks, err)
	}
	if tasks[0].Time != "07:30" || tasks[0].Repeat != models.RepeatDaily {
		t.Errorf("restored task mismatch: %+v", tasks[0])
	}
}
