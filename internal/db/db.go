package db

import (
	"fmt"

	"dayplan/internal/planner"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&planner.User{},
		&planner.Planner{},
	); err != nil {
		return err
	}

	stmts := []string{
		`create index if not exists idx_planners_updated on planners(updated_at desc);`,
		`create index if not exists idx_users_last_goal_update on users(last_goal_update);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
