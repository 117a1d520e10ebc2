// Package sqlstore implements the core member contract with explicit SQL over database/sql.
// Placeholders use the PostgreSQL $n form.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/datajpa/internal/database/dberr"
	"github.com/festy23/datajpa/internal/model"
)

// Executor is satisfied by both *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists members without an ORM.
type Store struct {
	executor Executor
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// New creates a store over db.
func New(db *sql.DB, logger *zap.SugaredLogger) *Store {
	return &Store{executor: db, logger: logger, now: time.Now}
}

// NewWithTx creates a store whose statements run inside tx.
func NewWithTx(tx *sql.Tx, logger *zap.SugaredLogger) *Store {
	return &Store{executor: tx, logger: logger, now: time.Now}
}

const memberColumns = "member_id, username, age, team_id, created_at, updated_at"

// Save inserts m when it has no identity yet and updates it otherwise.
func (s *Store) Save(ctx context.Context, m *model.Member) error {
	if m.Team != nil {
		if m.Team.ID == 0 {
			return model.ErrTeamNotPersisted
		}
		id := m.Team.ID
		m.TeamID = &id
	}

	now := s.now()
	if m.ID == 0 {
		query := `
			INSERT INTO members (username, age, team_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING member_id, created_at, updated_at
		`
		err := s.executor.QueryRowContext(ctx, query, m.Username, m.Age, m.TeamID, now).
			Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			s.logger.Errorw("failed to insert member", "username", m.Username, "error", err)
			return fmt.Errorf("insert member: %w", dberr.Classify(err))
		}
		s.logger.Debugw("member inserted", "member_id", m.ID)
		return nil
	}

	query := `
		UPDATE members
		SET username = $2, age = $3, team_id = $4, updated_at = $5
		WHERE member_id = $1
	`
	result, err := s.executor.ExecContext(ctx, query, m.ID, m.Username, m.Age, m.TeamID, now)
	if err != nil {
		s.logger.Errorw("failed to update member", "member_id", m.ID, "error", err)
		return fmt.Errorf("update member: %w", dberr.Classify(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return model.ErrMemberNotFound
	}
	m.UpdatedAt = now
	return nil
}

// Find returns the member with id. Absence is reported by ok, not by an error.
func (s *Store) Find(ctx context.Context, id int64) (*model.Member, bool, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE member_id = $1`

	m, err := scanMember(s.executor.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Errorw("failed to find member", "member_id", id, "error", err)
		return nil, false, err
	}
	return m, true, nil
}

// FindAll returns every member ordered by id.
func (s *Store) FindAll(ctx context.Context) ([]*model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY member_id`
	return s.queryMembers(ctx, query)
}

// Count returns the number of members.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes m by identity. A member that was never saved is ignored.
func (s *Store) Delete(ctx context.Context, m *model.Member) error {
	if m == nil || m.ID == 0 {
		return nil
	}
	if _, err := s.executor.ExecContext(ctx, `DELETE FROM members WHERE member_id = $1`, m.ID); err != nil {
		s.logger.Errorw("failed to delete member", "member_id", m.ID, "error", err)
		return fmt.Errorf("delete member: %w", dberr.Classify(err))
	}
	return nil
}

// FindByUsernameAndAgeGreaterThan returns members named username strictly older than age.
func (s *Store) FindByUsernameAndAgeGreaterThan(ctx context.Context, username string, age int) ([]*model.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE username = $1 AND age > $2
		ORDER BY member_id
	`
	return s.queryMembers(ctx, query, username, age)
}

// FindByPage returns members with exactly age in descending username order.
func (s *Store) FindByPage(ctx context.Context, age, offset, limit int) ([]*model.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE age = $1
		ORDER BY username DESC
		OFFSET $2 LIMIT $3
	`
	return s.queryMembers(ctx, query, age, offset, limit)
}

// TotalCount returns how many members have exactly age.
func (s *Store) TotalCount(ctx context.Context, age int) (int64, error) {
	var count int64
	err := s.executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE age = $1`, age).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// BulkAgePlus increments the age of every member at least age old and returns the affected rows.
func (s *Store) BulkAgePlus(ctx context.Context, age int) (int64, error) {
	result, err := s.executor.ExecContext(ctx, `UPDATE members SET age = age + 1 WHERE age >= $1`, age)
	if err != nil {
		s.logger.Errorw("failed to run bulk age update", "threshold", age, "error", err)
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.logger.Infow("bulk age update", "threshold", age, "rows", rowsAffected)
	return rowsAffected, nil
}

func (s *Store) queryMembers(ctx context.Context, query string, args ...any) ([]*model.Member, error) {
	rows, err := s.executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*model.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (*model.Member, error) {
	m := &model.Member{}
	var teamID sql.NullInt64
	if err := row.Scan(&m.ID, &m.Username, &m.Age, &teamID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if teamID.Valid {
		id := teamID.Int64
		m.TeamID = &id
	}
	return m, nil
}
