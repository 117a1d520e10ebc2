package repository

import (
	"context"

	"github.com/festy23/datajpa/internal/model"
)

// CustomRepository holds queries written by hand instead of built from criteria.
type CustomRepository interface {
	// FindMemberCustom returns every member using a plain SQL statement.
	FindMemberCustom(ctx context.Context) ([]*model.Member, error)
}

const findMemberCustomSQL = `SELECT member_id, username, age, team_id, created_at, updated_at
FROM members
ORDER BY member_id`

// FindMemberCustom returns every member using a plain SQL statement.
func (r *repository) FindMemberCustom(ctx context.Context) ([]*model.Member, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var members []*model.Member
	if err := db.Raw(findMemberCustomSQL).Scan(&members).Error; err != nil {
		r.logger.Errorw("FindMemberCustom database error", "error", err)
		return nil, err
	}
	return r.trackAll(members, tracked), nil
}
