// Package service provides business logic layer for team module.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/datajpa/internal/database/session"
	"github.com/festy23/datajpa/internal/model"
	"github.com/festy23/datajpa/internal/team/repository"
)

// Service defines the interface for team business logic operations.
type Service interface {
	// Create stores a new team.
	Create(ctx context.Context, name string) (*model.Team, error)

	// Get returns a team with its members.
	Get(ctx context.Context, name string) (*model.Team, error)

	// List returns every team without members.
	List(ctx context.Context) ([]*model.Team, error)

	// Disband deletes a team. Its members stay and become unassigned.
	Disband(ctx context.Context, name string) error
}

type service struct {
	repo   repository.Repository
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new team service instance.
func New(repo repository.Repository, db *gorm.DB, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// Create stores a new team in its own unit of work.
func (s *service) Create(ctx context.Context, name string) (*model.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrInvalidTeamName
	}

	var created *model.Team
	err := session.Run(ctx, s.db, s.logger, func(sess *session.Session) error {
		txRepo := repository.NewInSession(sess, s.logger)

		_, exists, err := txRepo.FindByName(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			return model.ErrTeamExists
		}

		created, err = txRepo.Save(ctx, model.NewTeam(name))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("team created", "team_id", created.ID, "name", created.Name)
	return created, nil
}

// Get returns a team with its members.
func (s *service) Get(ctx context.Context, name string) (*model.Team, error) {
	if name == "" {
		return nil, model.ErrInvalidTeamName
	}

	team, ok, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrTeamNotFound
	}

	withMembers, ok, err := s.repo.FindWithMembers(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrTeamNotFound
	}
	return withMembers, nil
}

// List returns every team ordered by name.
func (s *service) List(ctx context.Context) ([]*model.Team, error) {
	return s.repo.FindAll(ctx)
}

// Disband deletes the team named name.
func (s *service) Disband(ctx context.Context, name string) error {
	if name == "" {
		return model.ErrInvalidTeamName
	}

	return session.Run(ctx, s.db, s.logger, func(sess *session.Session) error {
		txRepo := repository.NewInSession(sess, s.logger)

		team, ok, err := txRepo.FindByName(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			return model.ErrTeamNotFound
		}
		if err := txRepo.Delete(ctx, team); err != nil {
			return err
		}

		s.logger.Infow("team disbanded", "team_id", team.ID, "name", name)
		return nil
	})
}
