package engine

import (
	"testing"
	"time"

	"daybell/internal/models"
)

func entryFor(task models.Task, at time.Time) models.ScheduledEntry {
	return models.ScheduledEntry{
		ItemID:    task.ID,
		Time:      task.Time,
		Label:     task.Label,
		Repeat:    task.Repeat,
		TriggerAt: at,
	}
}

func TestPlanNoChanges(t *testing.T) {
	task := models.Task{ID: "t1", Time: "07:30", Label: "stretch", Repeat: models.RepeatDaily}
	scheduled := map[string]models.ScheduledEntry{
		"t1": entryFor(task, testNow.Add(time.Hour)),
	}

	ops, failures := Plan([]models.Task{task}, scheduled, testNow)
	if len(ops) != 0 || len(failures) != 0 {
		t.Errorf("Plan on unchanged state: ops=%v failures=%v", ops, failures)
	}
}

func TestPlanNewTask(t *testing.T) {
	task := models.Task{ID: "t1", Time: "10:01", Label: "stretch"}

	ops, failures := Plan([]models.Task{task}, nil, testNow)
	if len(failures) != 0 {
		t.Fatalf("failures = %v", failures)
	}
	if len(ops) != 1 || ops[0].Kind != OpCreate || ops[0].ItemID != "t1" {
		t.Fatalf("ops = %+v, want one create for t1", ops)
	}
	want := time.Date(2024, 3, 15, 10, 1, 0, 0, time.Local)
	if !ops[0].TriggerAt.Equal(want) {
		t.Errorf("TriggerAt = %v, want %v", ops[0].TriggerAt, want)
	}
}

func TestPlanChangedTask(t *testing.T) {
	old := models.Task{ID: "t1", Time: "07:30", Label: "stretch", Repeat: models.RepeatDaily}
	scheduled := map[string]models.ScheduledEntry{"t1": entryFor(old, testNow)}

	changed := old
	changed.Label = "stretch longer"
	ops, _ := Plan([]models.Task{changed}, scheduled, testNow)
	if len(ops) != 2 || ops[0].Kind != OpCancel || ops[1].Kind != OpCreate {
		t.Fatalf("ops = %+v, want cancel then create", ops)
	}
	if ops[0].ItemID != "t1" || ops[1].ItemID != "t1" {
		t.Errorf("ops reference wrong ids: %+v", ops)
	}
}

func TestPlanRemovedTasksCancelDeterministically(t *testing.T) {
	a := models.Task{ID: "a", Time: "07:00", Label: "a"}
	b := models.Task{ID: "b", Time: "08:00", Label: "b"}
	scheduled := map[string]models.ScheduledEntry{
		"b": entryFor(b, testNow),
		"a": entryFor(a, testNow),
	}

	ops, _ := Plan(nil, scheduled, testNow)
	if len(ops) != 2 {
		t.Fatalf("ops = %+v, want two cancels", ops)
	}
	if ops[0].Kind != OpCancel || ops[1].Kind != OpCancel {
		t.Fatalf("ops = %+v, want cancels only", ops)
	}
	if ops[0].ItemID != "a" || ops[1].ItemID != "b" {
		t.Errorf("cancel order = %s,%s, want sorted a,b", ops[0].ItemID, ops[1].ItemID)
	}
}

func TestPlanRejectsBlankLabel(t *testing.T) {
	task := models.Task{ID: "t1", Time: "09:00", Label: "   "}

	ops, failures := Plan([]models.Task{task}, nil, testNow)
	if len(ops) != 0 {
		t.Errorf("ops = %+v, want none", ops)
	}
	if len(failures) != 1 || failures[0].ItemID != "t1" {
		t.Errorf("failures = %+v, want one for t1", failures)
	}
}

func TestPlanMalformedTimeIsPerItemFailure(t *testing.T) {
	good := models.Task{ID: "good", Time: "09:00", Label: "fine"}
	bad := models.Task{ID: "bad", Time: "9:00", Label: "broken"}

	ops, failures := Plan([]models.Task{bad, good}, nil, testNow)
	if len(failures) != 1 || failures[0].ItemID != "bad" {
		t.Fatalf("failures = %+v, want one for bad", failures)
	}
	if len(ops) != 1 || ops[0].ItemID != "good" {
		t.Errorf("ops = %+v, want create for good only", ops)
	}
}
