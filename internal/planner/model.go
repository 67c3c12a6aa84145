package planner

import (
	"time"

	"github.com/lib/pq"
)

// DateKey is the YYYY-MM-DD layout used for planner date keys.
const DateKey = "2006-01-02"

// Subtask is one checkbox line inside a time slot. Text doubles as the
// de-duplication key when slots are merged.
type Subtask struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// TimeSlot holds the ordered subtasks for one labelled period of a day.
type TimeSlot struct {
	Subtasks  []Subtask `json:"subtasks"`
	UpdatedAt string    `json:"updatedAt,omitempty"`
}

// DayRecord is the task map plus last-update stamp for one date.
type DayRecord struct {
	Tasks       map[string]TimeSlot `json:"tasks"`
	LastUpdated string              `json:"lastUpdated,omitempty"`
}

// Document maps date keys (YYYY-MM-DD) to day records. The client
// stores one DayRecord per (user, date); the server stores the whole
// Document per user.
type Document map[string]DayRecord

// NewDayRecord returns an empty record stamped at now.
func NewDayRecord(now time.Time) DayRecord {
	return DayRecord{
		Tasks:       map[string]TimeSlot{},
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
}

// User is the identity record. Created on first sign-in; profile
// fields are refreshed on every sign-in.
type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Name         string `gorm:"not null;default:''" json:"name"`
	Image        string `gorm:"not null;default:''" json:"image,omitempty"`
	PasswordHash string `gorm:"not null;default:''" json:"-"`

	WeeklyTextGoal    string     `gorm:"not null;default:''" json:"weeklyTextGoal"`
	WeeklyNumericGoal int        `gorm:"not null;default:10" json:"weeklyNumericGoal"`
	LastGoalUpdate    *time.Time `json:"lastGoalUpdate,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}

// Planner is the single server-side document per user. Dates is a
// denormalized listing of the document's date keys, kept in step on
// every upsert so the date set can be read without decoding the
// document.
type Planner struct {
	UserID   string         `gorm:"primaryKey"`
	Document Document       `gorm:"serializer:json;not null"`
	Dates    pq.StringArray `gorm:"type:text;not null;default:''"`

	UpdatedAt time.Time `gorm:"not null"`
}
