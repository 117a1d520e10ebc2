// Package repository provides data access layer for team module.
package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/festy23/datajpa/internal/database/dberr"
	"github.com/festy23/datajpa/internal/database/session"
	"github.com/festy23/datajpa/internal/model"
)

// Repository defines the interface for team data access operations.
type Repository interface {
	// Save inserts team when it has no ID and updates it otherwise.
	Save(ctx context.Context, team *model.Team) (*model.Team, error)

	// FindByID finds team by team_id.
	FindByID(ctx context.Context, id int64) (*model.Team, bool, error)

	// FindByName finds team by name.
	FindByName(ctx context.Context, name string) (*model.Team, bool, error)

	// FindAll returns every team ordered by name.
	FindAll(ctx context.Context) ([]*model.Team, error)

	// Count returns the number of teams.
	Count(ctx context.Context) (int64, error)

	// Delete removes team. Its members are unassigned by the foreign key.
	Delete(ctx context.Context, team *model.Team) error

	// FindWithMembers finds team by team_id with its members loaded.
	FindWithMembers(ctx context.Context, id int64) (*model.Team, bool, error)
}

type repository struct {
	db      *gorm.DB
	session *session.Session
	logger  *zap.SugaredLogger
}

// New creates a new team repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// NewInSession creates a team repository whose results are tracked by s.
func NewInSession(s *session.Session, logger *zap.SugaredLogger) Repository {
	return &repository{db: s.DB(), session: s, logger: logger}
}

func (r *repository) conn(ctx context.Context) (*gorm.DB, error) {
	if r.session != nil {
		if err := r.session.Flush(ctx); err != nil {
			return nil, err
		}
	}
	return r.db.WithContext(ctx), nil
}

// Save inserts or updates team. A duplicate name yields model.ErrTeamExists.
func (r *repository) Save(ctx context.Context, team *model.Team) (*model.Team, error) {
	r.logger.Debugw("Save called", "team_id", team.ID, "name", team.Name)

	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.logger.Debugw("Save team already exists", "name", team.Name)
			return nil, model.ErrTeamExists
		}
		r.logger.Errorw("Save database error", "name", team.Name, "error", err)
		return nil, dberr.Classify(err)
	}

	if r.session != nil {
		team = session.Attach(r.session, team.ID, team)
	}

	r.logger.Infow("Save completed", "team_id", team.ID, "name", team.Name)
	return team, nil
}

// FindByID finds team by team_id.
func (r *repository) FindByID(ctx context.Context, id int64) (*model.Team, bool, error) {
	if team, ok := session.Lookup[model.Team](r.session, id); ok {
		return team, true, nil
	}
	return r.findOne(ctx, "FindByID", func(db *gorm.DB) *gorm.DB {
		return db.Where("teams.team_id = ?", id)
	})
}

// FindByName finds team by name.
func (r *repository) FindByName(ctx context.Context, name string) (*model.Team, bool, error) {
	return r.findOne(ctx, "FindByName", func(db *gorm.DB) *gorm.DB {
		return db.Where("teams.name = ?", name)
	})
}

// FindWithMembers finds team by team_id and loads its members ordered by id.
func (r *repository) FindWithMembers(ctx context.Context, id int64) (*model.Team, bool, error) {
	return r.findOne(ctx, "FindWithMembers", func(db *gorm.DB) *gorm.DB {
		return db.
			Preload("Members", func(db *gorm.DB) *gorm.DB {
				return db.Order("members.member_id")
			}).
			Where("teams.team_id = ?", id)
	})
}

func (r *repository) findOne(
	ctx context.Context, op string, scope func(*gorm.DB) *gorm.DB,
) (*model.Team, bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, false, err
	}

	var team model.Team
	err = db.Scopes(scope).Take(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Debugw(op+" team not found")
			return nil, false, nil
		}
		r.logger.Errorw(op+" database error", "error", err)
		return nil, false, err
	}

	return r.track(&team), true, nil
}

func (r *repository) track(team *model.Team) *model.Team {
	if r.session == nil {
		return team
	}
	canonical := session.Track(r.session, team.ID, team)
	if canonical != team && canonical.Members == nil && team.Members != nil {
		canonical.Members = team.Members
	}
	return canonical
}

// FindAll returns every team ordered by name.
func (r *repository) FindAll(ctx context.Context) ([]*model.Team, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var teams []*model.Team
	if err := db.Order("teams.name").Find(&teams).Error; err != nil {
		r.logger.Errorw("FindAll database error", "error", err)
		return nil, err
	}

	for i, team := range teams {
		teams[i] = r.track(team)
	}
	if teams == nil {
		teams = []*model.Team{}
	}
	return teams, nil
}

// Count returns the number of teams.
func (r *repository) Count(ctx context.Context) (int64, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Team{}).Count(&count).Error; err != nil {
		r.logger.Errorw("Count database error", "error", err)
		return 0, err
	}
	return count, nil
}

// Delete removes team by identity. Unsaved teams are ignored.
func (r *repository) Delete(ctx context.Context, team *model.Team) error {
	if team == nil || team.ID == 0 {
		return nil
	}
	r.logger.Debugw("Delete called", "team_id", team.ID)

	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	if err := db.Delete(&model.Team{}, team.ID).Error; err != nil {
		r.logger.Errorw("Delete database error", "team_id", team.ID, "error", err)
		return dberr.Classify(err)
	}
	session.Forget[model.Team](r.session, team.ID)

	r.logger.Infow("Delete completed", "team_id", team.ID)
	return nil
}
