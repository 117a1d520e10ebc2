// Package repository provides data access layer for member module.
package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/festy23/datajpa/internal/database/dberr"
	"github.com/festy23/datajpa/internal/database/session"
	"github.com/festy23/datajpa/internal/member/specification"
	"github.com/festy23/datajpa/internal/model"
	"github.com/festy23/datajpa/internal/pagination"
)

// Repository defines the member data access operations.
//
// Finders signal absence with an empty slice, a false flag or a nil member, never with
// an error. Single-result finders fail with dberr.ErrNonUniqueResult when more than one
// row matches.
type Repository interface {
	CustomRepository

	// Save inserts m when it has no ID and updates it otherwise. The team is not cascaded.
	Save(ctx context.Context, m *model.Member) (*model.Member, error)

	// FindByID finds member by member_id.
	FindByID(ctx context.Context, id int64) (*model.Member, bool, error)

	// FindByIDWithLock finds member by member_id holding a row lock.
	FindByIDWithLock(ctx context.Context, id int64, mode LockMode) (*model.Member, bool, error)

	// FindAll returns every member with its team loaded.
	FindAll(ctx context.Context) ([]*model.Member, error)

	// FindAllSorted returns every member in the given order.
	FindAllSorted(ctx context.Context, sort ...pagination.Order) ([]*model.Member, error)

	// Count returns the number of members.
	Count(ctx context.Context) (int64, error)

	// Delete removes m. Unsaved or already deleted members are ignored.
	Delete(ctx context.Context, m *model.Member) error

	// DeleteByID removes the member with id if it exists.
	DeleteByID(ctx context.Context, id int64) error

	// FindByUsernameAndAgeGreaterThan matches username equality and age strictly above age.
	FindByUsernameAndAgeGreaterThan(ctx context.Context, username string, age int) ([]*model.Member, error)

	// FindUser matches username equality and age equality.
	FindUser(ctx context.Context, username string, age int) ([]*model.Member, error)

	// FindUsernameList returns the username of every member.
	FindUsernameList(ctx context.Context) ([]string, error)

	// FindMemberDTO returns every member joined with its team name, including members without a team.
	FindMemberDTO(ctx context.Context) ([]model.MemberDTO, error)

	// FindByNames returns members whose username is in names.
	FindByNames(ctx context.Context, names []string) ([]*model.Member, error)

	// FindListByUsername returns every member with username.
	FindListByUsername(ctx context.Context, username string) ([]*model.Member, error)

	// FindMemberByUsername returns the member with username, or nil when there is none.
	FindMemberByUsername(ctx context.Context, username string) (*model.Member, error)

	// FindOptionalByUsername returns the member with username and whether it exists.
	FindOptionalByUsername(ctx context.Context, username string) (*model.Member, bool, error)

	// FindByAge returns one page of members with exactly age.
	FindByAge(ctx context.Context, age int, page pagination.PageRequest) (*pagination.Page[*model.Member], error)

	// BulkAgePlus increments age for every member at least age old in one statement
	// and returns the number of updated rows. The bound session is cleared afterwards.
	BulkAgePlus(ctx context.Context, age int) (int64, error)

	// FindMemberWithTeam loads members and teams in a single joined query.
	FindMemberWithTeam(ctx context.Context) ([]*model.Member, error)

	// FindMemberEntityGraph loads members and batch-loads their teams.
	FindMemberEntityGraph(ctx context.Context) ([]*model.Member, error)

	// FindByUsername returns members with username and their teams.
	FindByUsername(ctx context.Context, username string) ([]*model.Member, error)

	// FindReadOnlyByUsername returns the member with username without tracking it.
	FindReadOnlyByUsername(ctx context.Context, username string) (*model.Member, error)

	// FindLockByUsername returns members with username holding an exclusive row lock.
	FindLockByUsername(ctx context.Context, username string) ([]*model.Member, error)

	// FindAllBySpec returns the members matching spec with their teams loaded.
	FindAllBySpec(ctx context.Context, spec specification.Specification) ([]*model.Member, error)
}

type repository struct {
	db      *gorm.DB
	session *session.Session
	logger  *zap.SugaredLogger
}

// New creates a member repository without a unit of work. Every result is detached.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// NewInSession creates a member repository bound to s. Results are tracked by s and
// pending changes are flushed before each query.
func NewInSession(s *session.Session, logger *zap.SugaredLogger) Repository {
	return &repository{db: s.DB(), session: s, logger: logger}
}

var sortColumns = map[string]string{
	"id":       "members.member_id",
	"username": "members.username",
	"age":      "members.age",
}

// conn returns a handle for a query after writing pending session changes,
// so queries observe the current state of the unit of work.
func (r *repository) conn(ctx context.Context) (*gorm.DB, error) {
	if r.session != nil {
		if err := r.session.Flush(ctx); err != nil {
			return nil, err
		}
	}
	return r.db.WithContext(ctx), nil
}

func (r *repository) track(m *model.Member, p queryPolicy) *model.Member {
	if p.readOnly || r.session == nil {
		return m
	}
	canonical := session.Track(r.session, m.ID, m)
	// A tracked instance keeps its state but picks up a team this query loaded.
	if canonical != m && canonical.Team == nil && m.Team != nil &&
		canonical.TeamID != nil && *canonical.TeamID == m.Team.ID {
		canonical.Team = m.Team
	}
	return canonical
}

func (r *repository) trackAll(members []*model.Member, p queryPolicy) []*model.Member {
	if members == nil {
		return []*model.Member{}
	}
	for i, m := range members {
		members[i] = r.track(m, p)
	}
	return members
}

// Save inserts or updates m.
func (r *repository) Save(ctx context.Context, m *model.Member) (*model.Member, error) {
	r.logger.Debugw("Save called", "member_id", m.ID, "username", m.Username)

	isNew := m.ID == 0
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(m).Error
	if err != nil {
		r.logger.Errorw("Save database error", "member_id", m.ID, "username", m.Username, "error", err)
		return nil, dberr.Classify(err)
	}

	if r.session != nil {
		m = session.Attach(r.session, m.ID, m)
	}

	r.logger.Infow("Save completed", "member_id", m.ID, "username", m.Username, "created", isNew)
	return m, nil
}

// FindByID finds member by member_id.
func (r *repository) FindByID(ctx context.Context, id int64) (*model.Member, bool, error) {
	r.logger.Debugw("FindByID called", "member_id", id)

	if m, ok := session.Lookup[model.Member](r.session, id); ok {
		return m, true, nil
	}
	return r.findByID(ctx, id, tracked)
}

// FindByIDWithLock finds member by member_id and locks its row.
func (r *repository) FindByIDWithLock(ctx context.Context, id int64, mode LockMode) (*model.Member, bool, error) {
	r.logger.Debugw("FindByIDWithLock called", "member_id", id, "lock", mode.String())
	return r.findByID(ctx, id, locked(mode))
}

func (r *repository) findByID(ctx context.Context, id int64, p queryPolicy) (*model.Member, bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, false, err
	}

	var m model.Member
	err = p.apply(db).Where("members.member_id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Debugw("FindByID member not found", "member_id", id)
			return nil, false, nil
		}
		r.logger.Errorw("FindByID database error", "member_id", id, "error", err)
		return nil, false, dberr.Classify(err)
	}

	return r.track(&m, p), true, nil
}

// FindAll returns every member with its team loaded.
func (r *repository) FindAll(ctx context.Context) ([]*model.Member, error) {
	r.logger.Debugw("FindAll called")
	return r.FindMemberEntityGraph(ctx)
}

// FindAllSorted returns every member in the given order.
func (r *repository) FindAllSorted(ctx context.Context, sort ...pagination.Order) ([]*model.Member, error) {
	r.logger.Debugw("FindAllSorted called", "sort", sort)

	order, err := pagination.OrderClause(sort, sortColumns)
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
	if err := db.Order(order).Find(&members).Error; err != nil {
		r.logger.Errorw("FindAllSorted database error", "error", err)
		return nil, err
	}
	return r.trackAll(members, tracked), nil
}

// Count returns the number of members.
func (r *repository) Count(ctx context.Context) (int64, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Member{}).Count(&count).Error; err != nil {
		r.logger.Errorw("Count database error", "error", err)
		return 0, err
	}
	return count, nil
}

// Delete removes m by identity.
func (r *repository) Delete(ctx context.Context, m *model.Member) error {
	if m == nil || m.ID == 0 {
		r.logger.Debugw("Delete skipped for unsaved member")
		return nil
	}
	return r.DeleteByID(ctx, m.ID)
}

// DeleteByID removes the member with id.
func (r *repository) DeleteByID(ctx context.Context, id int64) error {
	r.logger.Debugw("DeleteByID called", "member_id", id)

	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	result := db.Delete(&model.Member{}, id)
	if result.Error != nil {
		r.logger.Errorw("DeleteByID database error", "member_id", id, "error", result.Error)
		return dberr.Classify(result.Error)
	}
	session.Forget[model.Member](r.session, id)

	r.logger.Infow("DeleteByID completed", "member_id", id, "deleted", result.RowsAffected)
	return nil
}
