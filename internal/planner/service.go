package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

// GoalCooldown is the minimum interval between weekly goal updates,
// enforced server-side.
const GoalCooldown = 24 * time.Hour

// CooldownError rejects a rate-limited operation and carries how long
// the caller has to wait. It is an expected outcome, not a fault.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry in %s", e.Remaining.Round(time.Second))
}

// RemainingHours is the wait rounded up to whole hours, for display.
func (e *CooldownError) RemainingHours() int {
	hours := int(e.Remaining / time.Hour)
	if e.Remaining%time.Hour > 0 {
		hours++
	}
	return hours
}

// Goals is the weekly goal state returned to clients.
type Goals struct {
	WeeklyTextGoal    string     `json:"weeklyTextGoal"`
	WeeklyNumericGoal int        `json:"weeklyNumericGoal"`
	LastGoalUpdate    *time.Time `json:"lastGoalUpdate,omitempty"`
}

// Service holds the server-side planner operations.
type Service struct {
	DB *gorm.DB

	// Now is the gate clock; defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Sync upserts the user's profile, merges the incoming document into
// the stored one, and persists the union. Safe to retry: merging is
// additive and idempotent.
func (s *Service) Sync(ctx context.Context, user User, incoming Document) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertProfile(tx, user); err != nil {
			return err
		}

		var stored Planner
		err := tx.Where("user_id = ?", user.ID).First(&stored).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load planner: %w", err)
		}

		merged := Merge(stored.Document, incoming)

		stored.UserID = user.ID
		stored.Document = merged
		stored.Dates = pq.StringArray(documentDates(merged))
		stored.UpdatedAt = s.now()

		if err := tx.Save(&stored).Error; err != nil {
			return fmt.Errorf("save planner: %w", err)
		}
		return nil
	})
}

// GetPlanner returns the stored document for a user, or ErrNotFound.
func (s *Service) GetPlanner(ctx context.Context, userID string) (Document, error) {
	var stored Planner
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load planner: %w", err)
	}
	return stored.Document, nil
}

// GetGoals returns the user's weekly goals, or ErrNotFound.
func (s *Service) GetGoals(ctx context.Context, userID string) (Goals, error) {
	var user User
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Goals{}, ErrNotFound
		}
		return Goals{}, fmt.Errorf("load user: %w", err)
	}
	return Goals{
		WeeklyTextGoal:    user.WeeklyTextGoal,
		WeeklyNumericGoal: user.WeeklyNumericGoal,
		LastGoalUpdate:    user.LastGoalUpdate,
	}, nil
}

// UpdateGoals applies a goal write behind the 24-hour gate. Nil fields
// are left untouched. On cooldown the stored state is unchanged and a
// *CooldownError is returned.
func (s *Service) UpdateGoals(ctx context.Context, userID string, textGoal *string, numericGoal *int) (Goals, error) {
	var user User
	db := s.DB.WithContext(ctx)
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Goals{}, ErrNotFound
		}
		return Goals{}, fmt.Errorf("load user: %w", err)
	}

	now := s.now()
	if user.LastGoalUpdate != nil {
		elapsed := now.Sub(*user.LastGoalUpdate)
		if elapsed < GoalCooldown {
			return Goals{}, &CooldownError{Remaining: GoalCooldown - elapsed}
		}
	}

	updates := map[string]any{"last_goal_update": now}
	if textGoal != nil {
		updates["weekly_text_goal"] = *textGoal
		user.WeeklyTextGoal = *textGoal
	}
	if numericGoal != nil {
		updates["weekly_numeric_goal"] = *numericGoal
		user.WeeklyNumericGoal = *numericGoal
	}

	if err := db.Model(&User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return Goals{}, fmt.Errorf("update goals: %w", err)
	}

	return Goals{
		WeeklyTextGoal:    user.WeeklyTextGoal,
		WeeklyNumericGoal: user.WeeklyNumericGoal,
		LastGoalUpdate:    &now,
	}, nil
}

// upsertProfile creates the user on first sight and refreshes profile
// fields afterwards. Goal fields are never taken from a sync payload;
// they change only through the gated goal write.
func upsertProfile(tx *gorm.DB, user User) error {
	var stored User
	err := tx.Where("id = ?", user.ID).First(&stored).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"email": user.Email,
			"name":  user.Name,
			"image": user.Image,
		}
		if err := tx.Model(&stored).Updates(updates).Error; err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if user.WeeklyNumericGoal == 0 {
			user.WeeklyNumericGoal = 10
		}
		user.LastGoalUpdate = nil
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("find user: %w", err)
	}
}

func documentDates(doc Document) []string {
	dates := make([]string, 0, len(doc))
	for date := range doc {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
