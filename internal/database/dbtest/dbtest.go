// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/festy23/datajpa/internal/model"
)

// SQLiteDSN is an in-memory database with foreign key enforcement.
const SQLiteDSN = "file::memory:?_foreign_keys=on"

// NewSQLite opens an in-memory SQLite database with the members and teams tables.
// The pool is limited to one connection so every query sees the same in-memory database;
// code under test must not query the outer handle while holding a transaction.
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(SQLiteDSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Team{}, &model.Member{}))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// InsertTeam stores a team directly, bypassing repositories.
func InsertTeam(t *testing.T, db *gorm.DB, name string) *model.Team {
	t.Helper()
	team := model.NewTeam(name)
	require.NoError(t, db.Create(team).Error)
	return team
}

// InsertMember stores a member directly, bypassing repositories.
func InsertMember(t *testing.T, db *gorm.DB, username string, age int, team *model.Team) *model.Member {
	t.Helper()
	m := model.NewMember(username, age, team)
	require.NoError(t, db.Omit("Team").Create(m).Error)
	return m
}
