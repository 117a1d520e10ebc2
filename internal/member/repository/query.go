package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/festy23/datajpa/internal/database/dberr"
	"github.com/festy23/datajpa/internal/member/specification"
	"github.com/festy23/datajpa/internal/model"
	"github.com/festy23/datajpa/internal/pagination"
)

// FindByUsernameAndAgeGreaterThan matches username equality and age > age.
func (r *repository) FindByUsernameAndAgeGreaterThan(
	ctx context.Context, username string, age int,
) ([]*model.Member, error) {
	r.logger.Debugw("FindByUsernameAndAgeGreaterThan called", "username", username, "age", age)

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var members []*model.Member
	err = db.Where("members.username = ? AND members.age > ?", username, age).
		Order("members.member_id").
		Find(&members).Error
	if err != nil {
		r.logger.Errorw("FindByUsernameAndAgeGreaterThan database error", "username", username, "error", err)
		return nil, err
	}
	return r.trackAll(members, tracked), nil
}

// FindUser matches username and age equality using named parameters.
func (r *repository) FindUser(ctx context.Context, username string, age int) ([]*model.Member, error) {
	r.logger.Debugw("FindUser called", "username", username, "age", age)

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var members []*model.Member
	err = db.Where("members.username = @username AND members.age = @age",
		sql.Named("username", username), sql.Named("age", age)).
		Order("members.member_id").
		Find(&members).Error
	if err != nil {
		r.logger.Errorw("FindUser database error", "username", username, "error", err)
		return nil, err
	}
	return r.trackAll(members, tracked), nil
}

// FindUsernameList returns the username of every member.
func (r *repository) FindUsernameList(ctx context.Context) ([]string, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var usernames []string
	err = db.Model(&model.Member{}).
		Order("members.member_id").
		Pluck("username", &usernames).Error
	if err != nil {
		r.logger.Errorw("FindUsernameList database error", "error", err)
		return nil, err
	}

	if usernames == nil {
		usernames = []string{}
	}
	return usernames, nil
}

// FindMemberDTO projects every member and its team name through a left outer join.
func (r *repository) FindMemberDTO(ctx context.Context) ([]model.MemberDTO, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.MemberDTO
	err = db.Table("members").
		Select("members.member_id AS id, members.username AS username, teams.name AS team_name").
		Joins("LEFT JOIN teams ON teams.team_id = members.team_id").
		Order("members.member_id").
		Scan(&rows).Error
	if err != nil {
		r.logger.Errorw("FindMemberDTO database error", "error", err)
		return nil, err
	}

	dtos := make([]model.MemberDTO, len(rows))
	for i, row := range rows {
		dtos[i] = model.NewMemberDTO(row.ID, row.Username, row.TeamName)
	}

	r.logger.Debugw("FindMemberDTO completed", "count", len(dtos))
	return dtos, nil
}

// FindByNames returns members whose username is in names.
func (r *repository) FindByNames(ctx context.Context, names []string) ([]*model.Member, error) {
	r.logger.Debugw("FindByNames called", "names", names)

	if len(names) == 0 {
		return []*model.Member{}, nil
	}

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var members []*model.Member
	err = db.Where("members.username IN ?", names).
		Order("members.member_id").
		Find(&members).Error
	if err != nil {
		r.logger.Errorw("FindByNames database error", "error", err)
		return nil, err
	}
	return r.trackAll(members, tracked), nil
}

// FindListByUsername returns every member with username.
func (r *repository) FindListByUsername(ctx context.Context, username string) ([]*model.Member, error) {
	return r.findByUsername(ctx, username, tracked, false)
}

// FindMemberByUsername returns the single member with username, or nil.
func (r *repository) FindMemberByUsername(ctx context.Context, username string) (*model.Member, error) {
	return r.findSingleByUsername(ctx, username, tracked)
}

// FindOptionalByUsername returns the single member with username and whether it exists.
func (r *repository) FindOptionalByUsername(ctx context.Context, username string) (*model.Member, bool, error) {
	m, err := r.findSingleByUsername(ctx, username, tracked)
	if err != nil {
		return nil, false, err
	}
	return m, m != nil, nil
}

// FindByUsername returns members with username and their teams.
func (r *repository) FindByUsername(ctx context.Context, username string) ([]*model.Member, error) {
	return r.findByUsername(ctx, username, tracked, true)
}

// FindReadOnlyByUsername returns a detached member with username.
func (r *repository) FindReadOnlyByUsername(ctx context.Context, username string) (*model.Member, error) {
	return r.findSingleByUsername(ctx, username, readOnly)
}

// FindLockByUsername returns members with username and locks their rows.
func (r *repository) FindLockByUsername(ctx context.Context, username string) ([]*model.Member, error) {
	return r.findByUsername(ctx, username, locked(LockPessimisticWrite), false)
}

func (r *repository) findByUsername(
	ctx context.Context, username string, p queryPolicy, withTeam bool,
) ([]*model.Member, error) {
	r.logger.Debugw("findByUsername called",
		"username", username, "read_only", p.readOnly, "lock", p.lock.String(), "with_team", withTeam)

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	tx := p.apply(db).Where("members.username = ?", username).Order("members.member_id")
	if withTeam {
		tx = tx.Preload("Team")
	}

	var members []*model.Member
	if err := tx.Find(&members).Error; err != nil {
		r.logger.Errorw("findByUsername database error", "username", username, "error", err)
		return nil, dberr.Classify(err)
	}
	return r.trackAll(members, p), nil
}

// findSingleByUsername fetches at most two rows to detect ambiguity.
func (r *repository) findSingleByUsername(ctx context.Context, username string, p queryPolicy) (*model.Member, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var members []*model.Member
	err = p.apply(db).Where("members.username = ?", username).
		Order("members.member_id").
		Limit(2).
		Find(&members).Error
	if err != nil {
		r.logger.Errorw("findSingleByUsername database error", "username", username, "error", err)
		return nil, dberr.Classify(err)
	}

	switch len(members) {
	case 0:
		return nil, nil
	case 1:
		return r.track(members[0], p), nil
	default:
		r.logger.Debugw("findSingleByUsername ambiguous result", "username", username)
		return nil, dberr.NonUnique("username = "+username, len(members))
	}
}

// FindByAge returns one page of members with exactly age. The total comes from a
// separate COUNT query.
func (r *repository) FindByAge(
	ctx context.Context, age int, page pagination.PageRequest,
) (*pagination.Page[*model.Member], error) {
	r.logger.Debugw("FindByAge called", "age", age, "page", page.Page, "size", page.Size)

	if err := page.Validate(); err != nil {
		return nil, err
	}
	order, err := pagination.OrderClause(page.Sort, sortColumns)
	if err != nil {
		return nil, err
	}
	if order == "" {
		order = "members.member_id"
	}

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var members []*model.Member
	err = db.Where("members.age = ?", age).
		Order(order).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&members).Error
	if err != nil {
		r.logger.Errorw("FindByAge database error", "age", age, "error", err)
		return nil, err
	}

	var total int64
	if err := db.Model(&model.Member{}).Where("members.age = ?", age).Count(&total).Error; err != nil {
		r.logger.Errorw("FindByAge count error", "age", age, "error", err)
		return nil, err
	}

	return pagination.NewPage(r.trackAll(members, tracked), page, total), nil
}

// BulkAgePlus runs one UPDATE statement. Tracked instances would be stale afterwards,
// so pending changes are flushed first and the session is cleared after.
func (r *repository) BulkAgePlus(ctx context.Context, age int) (int64, error) {
	r.logger.Infow("BulkAgePlus called", "age", age)

	db, err := r.conn(ctx)
	if err != nil {
		return 0, err
	}

	result := db.Model(&model.Member{}).
		Where("members.age >= ?", age).
		UpdateColumn("age", gorm.Expr("age + ?", 1))
	if result.Error != nil {
		r.logger.Errorw("BulkAgePlus database error", "age", age, "error", result.Error)
		return 0, dberr.Classify(result.Error)
	}
	r.session.Clear()

	r.logger.Infow("BulkAgePlus completed", "age", age, "updated", result.RowsAffected)
	return result.RowsAffected, nil
}

// FindMemberWithTeam loads members and teams with one LEFT JOIN query.
func (r *repository) FindMemberWithTeam(ctx context.Context) ([]*model.Member, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var members []*model.Member
	if err := db.Joins("Team").Order("members.member_id").Find(&members).Error; err != nil {
		r.logger.Errorw("FindMemberWithTeam database error", "error", err)
		return nil, err
	}
	for _, m := range members {
		if m.TeamID == nil {
			m.Team = nil
		}
	}
	return r.trackAll(members, tracked), nil
}

// FindMemberEntityGraph loads members, then their teams in one batched query.
func (r *repository) FindMemberEntityGraph(ctx context.Context) ([]*model.Member, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var members []*model.Member
	if err := db.Preload("Team").Order("members.member_id").Find(&members).Error; err != nil {
		r.logger.Errorw("FindMemberEntityGraph database error", "error", err)
		return nil, err
	}
	return r.trackAll(members, tracked), nil
}

// FindAllBySpec returns the members matching spec with their teams loaded.
func (r *repository) FindAllBySpec(ctx context.Context, spec specification.Specification) ([]*model.Member, error) {
	r.logger.Debugw("FindAllBySpec called", "match_all", spec.IsAll())

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	tx := db.Preload("Team").Order("members.member_id")
	if expr := spec.Expression(); expr != nil {
		tx = tx.Where(expr)
	}

	var members []*model.Member
	if err := tx.Find(&members).Error; err != nil {
		r.logger.Errorw("FindAllBySpec database error", "error", err)
		return nil, err
	}
	return r.trackAll(members, tracked), nil
}
