// Package localstore is the client-side planner cache: a small
// key-value table in a per-profile sqlite file. Reads degrade to safe
// empty defaults and writes are dropped when storage misbehaves; the
// cache never takes the planner down with it.
package localstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dayplan/internal/planner"
)

const (
	keyCurrentUser    = "current-user"
	keyAuthToken      = "auth-token"
	plannerDataPrefix = "planner-data:"
	lastSyncPrefix    = "last-sync-time:"
	lastLoadPrefix    = "last-load-time:"
	cachedGoalPrefix  = "cached-goal:"
)

// Entry is one opaque JSON blob under a string key.
type Entry struct {
	Key       string    `gorm:"primaryKey"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Store struct {
	db *gorm.DB

	// Now stamps fresh DayRecords; defaults to time.Now.
	Now func() time.Time
}

// Open opens (creating if needed) the local store at dsn.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "dayplan.db"
	}
	if err := ensureDir(dsn); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	return &Store{db: db}, nil
}

func ensureDir(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir %q: %w", dir, err)
	}
	return nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CurrentUser returns the signed-in user, or nil when none is set.
func (s *Store) CurrentUser() *planner.User {
	var user planner.User
	if !s.get(keyCurrentUser, &user) {
		return nil
	}
	return &user
}

func (s *Store) SetCurrentUser(user planner.User) {
	s.put(keyCurrentUser, user)
}

func (s *Store) ClearCurrentUser() {
	s.del(keyCurrentUser)
	s.del(keyAuthToken)
}

// Token returns the saved API token, empty when signed out.
func (s *Store) Token() string {
	var token string
	if !s.get(keyAuthToken, &token) {
		return ""
	}
	return token
}

func (s *Store) SetToken(token string) {
	s.put(keyAuthToken, token)
}

// PlannerData returns the day record for (userID, date), or a fresh
// empty record when absent or unreadable.
func (s *Store) PlannerData(userID, date string) planner.DayRecord {
	var rec planner.DayRecord
	if !s.get(plannerDataKey(userID, date), &rec) {
		return planner.NewDayRecord(s.now())
	}
	if rec.Tasks == nil {
		rec.Tasks = map[string]planner.TimeSlot{}
	}
	return rec
}

// SavePlannerData overwrites the record for (userID, date). Merging is
// the caller's job.
func (s *Store) SavePlannerData(userID, date string, rec planner.DayRecord) {
	s.put(plannerDataKey(userID, date), rec)
}

// ImportDay merges the plan stored under fromDate into toDate's record
// and saves the result. Existing tasks in the target keep their done
// state; nothing is removed. Returns false when fromDate has nothing
// to import.
func (s *Store) ImportDay(userID, fromDate, toDate string) (planner.DayRecord, bool) {
	source := s.PlannerData(userID, fromDate)
	if len(source.Tasks) == 0 {
		return planner.DayRecord{}, false
	}

	merged := planner.MergeDay(s.PlannerData(userID, toDate), source)
	merged.LastUpdated = s.now().UTC().Format(time.RFC3339)
	s.SavePlannerData(userID, toDate, merged)
	return merged, true
}

// PlannerDates lists every date with stored data for the user, in no
// particular order.
func (s *Store) PlannerDates(userID string) []string {
	prefix := plannerDataKey(userID, "")
	var keys []string
	if err := s.db.Model(&Entry{}).Where("key LIKE ?", prefix+"%").Pluck("key", &keys).Error; err != nil {
		log.Printf("localstore: list planner dates: %v", err)
		return nil
	}
	dates := make([]string, 0, len(keys))
	for _, key := range keys {
		dates = append(dates, strings.TrimPrefix(key, prefix))
	}
	return dates
}

// CollectDocument assembles every stored date for the user into a
// single document, the shape pushed to the server.
func (s *Store) CollectDocument(userID string) planner.Document {
	doc := planner.Document{}
	for _, date := range s.PlannerDates(userID) {
		doc[date] = s.PlannerData(userID, date)
	}
	return doc
}

// LastSync returns the timestamp of the last successful push, zero
// when never pushed.
func (s *Store) LastSync(userID string) time.Time {
	return s.getTime(lastSyncPrefix + userID)
}

func (s *Store) SetLastSync(userID string, at time.Time) {
	s.put(lastSyncPrefix+userID, at)
}

// LastLoad returns the timestamp of the last successful pull, zero
// when never pulled.
func (s *Store) LastLoad(userID string) time.Time {
	return s.getTime(lastLoadPrefix + userID)
}

func (s *Store) SetLastLoad(userID string, at time.Time) {
	s.put(lastLoadPrefix+userID, at)
}

// CachedGoal is the last goal text seen from the server, kept for
// offline display only; the 24-hour gate lives server-side.
func (s *Store) CachedGoal(userID string) string {
	var goal string
	if !s.get(cachedGoalPrefix+userID, &goal) {
		return ""
	}
	return goal
}

func (s *Store) SetCachedGoal(userID, goal string) {
	s.put(cachedGoalPrefix+userID, goal)
}

// ClearAll wipes every planner-related key across all users; used for
// guest-session teardown.
func (s *Store) ClearAll() {
	if err := s.db.Where("1 = 1").Delete(&Entry{}).Error; err != nil {
		log.Printf("localstore: clear all: %v", err)
	}
}

// ClearUser wipes one user's planner entries plus the current-user
// pointer and sync timestamps.
func (s *Store) ClearUser(userID string) {
	s.ClearCurrentUser()
	keys := []string{
		lastSyncPrefix + userID,
		lastLoadPrefix + userID,
		cachedGoalPrefix + userID,
	}
	for _, key := range keys {
		s.del(key)
	}
	prefix := plannerDataKey(userID, "")
	if err := s.db.Where("key LIKE ?", prefix+"%").Delete(&Entry{}).Error; err != nil {
		log.Printf("localstore: clear user %s: %v", userID, err)
	}
}

func plannerDataKey(userID, date string) string {
	return plannerDataPrefix + userID + ":" + date
}

// get loads and decodes a key; false means absent or unreadable, and
// unreadable is only logged.
func (s *Store) get(key string, target any) bool {
	var entry Entry
	if err := s.db.Where("key = ?", key).First(&entry).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("localstore: read %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(entry.Value, target); err != nil {
		log.Printf("localstore: decode %s: %v", key, err)
		return false
	}
	return true
}

func (s *Store) getTime(key string) time.Time {
	var at time.Time
	if !s.get(key, &at) {
		return time.Time{}
	}
	return at
}

// put encodes and upserts a key; failures are logged and dropped.
func (s *Store) put(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("localstore: encode %s: %v", key, err)
		return
	}
	entry := Entry{Key: key, Value: raw, UpdatedAt: s.now()}
	if err := s.db.Save(&entry).Error; err != nil {
		log.Printf("localstore: write %s: %v", key, err)
	}
}

func (s *Store) del(key string) {
	if err := s.db.Where("key = ?", key).Delete(&Entry{}).Error; err != nil {
		log.Printf("localstore: delete %s: %v", key, err)
	}
}
