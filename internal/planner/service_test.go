package planner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testService(t *testing.T) (*Service, *time.Time) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "planner.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &Planner{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	clock := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	svc := &Service{DB: db, Now: func() time.Time { return clock }}
	return svc, &clock
}

func TestSyncCreatesUserAndPlanner(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	user := User{ID: "u1", Email: "u1@example.com", Name: "Uma"}
	incoming := Document{
		"2024-01-01": day(map[string]TimeSlot{
			"9:00 AM": {Subtasks: []Subtask{{Text: "Read", Done: false}}},
		}),
	}

	if err := svc.Sync(ctx, user, incoming); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	doc, err := svc.GetPlanner(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPlanner: %v", err)
	}
	if len(doc) != 1 || len(doc["2024-01-01"].Tasks) != 1 {
		t.Errorf("unexpected stored document: %+v", doc)
	}

	goals, err := svc.GetGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("GetGoals: %v", err)
	}
	if goals.WeeklyNumericGoal != 10 || goals.WeeklyTextGoal != "" || goals.LastGoalUpdate != nil {
		t.Errorf("new user goals should be defaults, got %+v", goals)
	}
}

func TestSyncMergesIntoStoredPlanner(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	user := User{ID: "u1", Email: "u1@example.com", Name: "Uma"}

	first := Document{
		"2024-01-01": day(map[string]TimeSlot{
			"9:00 AM": {Subtasks: []Subtask{{Text: "Read", Done: false}}},
		}),
	}
	if err := svc.Sync(ctx, user, first); err != nil {
		t.Fatalf("first Sync: %v", err)
	}

	second := Document{
		"2024-01-01": day(map[string]TimeSlot{
			"9:00 AM": {Subtasks: []Subtask{
				{Text: "Read", Done: true},
				{Text: "Write", Done: false},
			}},
		}),
		"2024-01-02": day(map[string]TimeSlot{
			"14:30": {Subtasks: []Subtask{{Text: "Gym", Done: false}}},
		}),
	}
	if err := svc.Sync(ctx, user, second); err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	doc, err := svc.GetPlanner(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPlanner: %v", err)
	}

	subs := doc["2024-01-01"].Tasks["9:00 AM"].Subtasks
	if len(subs) != 2 {
		t.Fatalf("expected 2 subtasks after merge, got %+v", subs)
	}
	if subs[0].Text != "Read" || subs[0].Done {
		t.Errorf("existing Read/done=false must win, got %+v", subs[0])
	}
	if _, ok := doc["2024-01-02"]; !ok {
		t.Error("new date missing after merge")
	}

	var stored Planner
	if err := svc.DB.Where("user_id = ?", "u1").First(&stored).Error; err != nil {
		t.Fatalf("load planner row: %v", err)
	}
	if len(stored.Dates) != 2 || stored.Dates[0] != "2024-01-01" || stored.Dates[1] != "2024-01-02" {
		t.Errorf("dates projection = %v, want sorted date keys", stored.Dates)
	}
}

func TestSyncRefreshesProfileNotGoals(t *testing.T) {
	svc, clock := testService(t)
	ctx := context.Background()

	if err := svc.Sync(ctx, User{ID: "u1", Email: "u1@example.com", Name: "Uma"}, Document{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	goal := "ship it"
	if _, err := svc.UpdateGoals(ctx, "u1", &goal, nil); err != nil {
		t.Fatalf("UpdateGoals: %v", err)
	}

	// a later sync carries stale goal fields; they must not overwrite
	*clock = clock.Add(time.Hour)
	stale := User{ID: "u1", Email: "u1@new.example.com", Name: "Uma Renamed", WeeklyTextGoal: "client says otherwise"}
	if err := svc.Sync(ctx, stale, Document{}); err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	goals, err := svc.GetGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("GetGoals: %v", err)
	}
	if goals.WeeklyTextGoal != "ship it" {
		t.Errorf("sync overwrote gated goal: %q", goals.WeeklyTextGoal)
	}

	var stored User
	if err := svc.DB.Where("id = ?", "u1").First(&stored).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.Name != "Uma Renamed" || stored.Email != "u1@new.example.com" {
		t.Errorf("profile not refreshed: %+v", stored)
	}
}

func TestGetPlannerNotFound(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.GetPlanner(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGoalGateCooldown(t *testing.T) {
	svc, clock := testService(t)
	ctx := context.Background()

	if err := svc.Sync(ctx, User{ID: "u1", Email: "u1@example.com"}, Document{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	goal := "read more"
	if _, err := svc.UpdateGoals(ctx, "u1", &goal, nil); err != nil {
		t.Fatalf("first UpdateGoals: %v", err)
	}

	// one hour later the gate rejects with ~23h remaining
	*clock = clock.Add(time.Hour)
	other := "write more"
	_, err := svc.UpdateGoals(ctx, "u1", &other, nil)
	var cooldown *CooldownError
	if !errors.As(err, &cooldown) {
		t.Fatalf("err = %v, want *CooldownError", err)
	}
	if got := cooldown.RemainingHours(); got != 23 {
		t.Errorf("RemainingHours = %d, want 23", got)
	}

	goals, _ := svc.GetGoals(ctx, "u1")
	if goals.WeeklyTextGoal != "read more" {
		t.Errorf("rejected write changed stored goal: %q", goals.WeeklyTextGoal)
	}

	// after the full window the write lands and resets the clock
	*clock = clock.Add(23 * time.Hour)
	numeric := 15
	updated, err := svc.UpdateGoals(ctx, "u1", &other, &numeric)
	if err != nil {
		t.Fatalf("UpdateGoals after cooldown: %v", err)
	}
	if updated.WeeklyTextGoal != "write more" || updated.WeeklyNumericGoal != 15 {
		t.Errorf("updated goals = %+v", updated)
	}
	if updated.LastGoalUpdate == nil || !updated.LastGoalUpdate.Equal(*clock) {
		t.Errorf("LastGoalUpdate = %v, want %v", updated.LastGoalUpdate, clock)
	}
}

func TestGoalGateFirstWriteAllowed(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if err := svc.Sync(ctx, User{ID: "u1", Email: "u1@example.com"}, Document{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	numeric := 20
	goals, err := svc.UpdateGoals(ctx, "u1", nil, &numeric)
	if err != nil {
		t.Fatalf("UpdateGoals: %v", err)
	}
	if goals.WeeklyNumericGoal != 20 {
		t.Errorf("WeeklyNumericGoal = %d, want 20", goals.WeeklyNumericGoal)
	}
}

func TestUpdateGoalsUnknownUser(t *testing.T) {
	svc, _ := testService(t)

	goal := "x"
	_, err := svc.UpdateGoals(context.Background(), "nobody", &goal, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
