// Package service provides business logic layer for member module.
package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/datajpa/internal/database/dberr"
	"github.com/festy23/datajpa/internal/database/session"
	"github.com/festy23/datajpa/internal/member/repository"
	"github.com/festy23/datajpa/internal/member/specification"
	"github.com/festy23/datajpa/internal/model"
	"github.com/festy23/datajpa/internal/pagination"
	teamRepository "github.com/festy23/datajpa/internal/team/repository"
)

// Service defines the interface for member business logic operations.
type Service interface {
	// Join creates a member, optionally in the team named teamName.
	Join(ctx context.Context, username string, age int, teamName string) (*model.Member, error)

	// Rename changes a member's username under an exclusive row lock.
	Rename(ctx context.Context, username, newUsername string) (*model.Member, error)

	// Transfer moves a member to the team named teamName, or out of any team when it is empty.
	Transfer(ctx context.Context, username, teamName string) (*model.Member, error)

	// AgeUp increments the age of every member at least threshold old.
	AgeUp(ctx context.Context, threshold int) (int64, error)

	// Directory lists every member with its team name.
	Directory(ctx context.Context) ([]model.MemberDTO, error)

	// Page returns one page of members with exactly age as DTOs.
	Page(ctx context.Context, age int, page pagination.PageRequest) (*pagination.Page[model.MemberDTO], error)

	// Search returns the members matching spec.
	Search(ctx context.Context, spec specification.Specification) ([]*model.Member, error)
}

type service struct {
	repo   repository.Repository
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new member service instance.
func New(repo repository.Repository, db *gorm.DB, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return model.ErrInvalidUsername
	}
	return nil
}

// Join creates a member in its own unit of work.
func (s *service) Join(ctx context.Context, username string, age int, teamName string) (*model.Member, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if age < 0 {
		return nil, model.ErrInvalidAge
	}

	var joined *model.Member
	err := session.Run(ctx, s.db, s.logger, func(sess *session.Session) error {
		team, err := s.findTeam(ctx, sess, teamName)
		if err != nil {
			return err
		}

		joined, err = repository.NewInSession(sess, s.logger).Save(ctx, model.NewMember(username, age, team))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("member joined", "member_id", joined.ID, "username", username, "team", teamName)
	return joined, nil
}

// Rename locks the member row and relies on the session flush to write the change.
func (s *service) Rename(ctx context.Context, username, newUsername string) (*model.Member, error) {
	if err := validateUsername(newUsername); err != nil {
		return nil, err
	}

	var renamed *model.Member
	err := session.Run(ctx, s.db, s.logger, func(sess *session.Session) error {
		m, err := s.lockOne(ctx, repository.NewInSession(sess, s.logger), username)
		if err != nil {
			return err
		}
		m.Username = newUsername
		renamed = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("member renamed", "member_id", renamed.ID, "from", username, "to", newUsername)
	return renamed, nil
}

// Transfer locks the member row and changes its team.
func (s *service) Transfer(ctx context.Context, username, teamName string) (*model.Member, error) {
	var moved *model.Member
	err := session.Run(ctx, s.db, s.logger, func(sess *session.Session) error {
		m, err := s.lockOne(ctx, repository.NewInSession(sess, s.logger), username)
		if err != nil {
			return err
		}
		team, err := s.findTeam(ctx, sess, teamName)
		if err != nil {
			return err
		}
		m.ChangeTeam(team)
		moved = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("member transferred", "member_id", moved.ID, "team", teamName)
	return moved, nil
}

func (s *service) lockOne(ctx context.Context, repo repository.Repository, username string) (*model.Member, error) {
	members, err := repo.FindLockByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	switch len(members) {
	case 0:
		return nil, model.ErrMemberNotFound
	case 1:
		return members[0], nil
	default:
		return nil, dberr.NonUnique("username = "+username, len(members))
	}
}

// findTeam returns nil for an empty name.
func (s *service) findTeam(ctx context.Context, sess *session.Session, name string) (*model.Team, error) {
	if name == "" {
		return nil, nil
	}
	team, ok, err := teamRepository.NewInSession(sess, s.logger).FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrTeamNotFound, name)
	}
	return team, nil
}

// AgeUp runs the bulk increment in its own unit of work.
func (s *service) AgeUp(ctx context.Context, threshold int) (int64, error) {
	var updated int64
	err := session.Run(ctx, s.db, s.logger, func(sess *session.Session) error {
		var err error
		updated, err = repository.NewInSession(sess, s.logger).BulkAgePlus(ctx, threshold)
		return err
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// Directory lists every member with its team name.
func (s *service) Directory(ctx context.Context) ([]model.MemberDTO, error) {
	return s.repo.FindMemberDTO(ctx)
}

// Page returns one page of members with exactly age.
func (s *service) Page(
	ctx context.Context, age int, page pagination.PageRequest,
) (*pagination.Page[model.MemberDTO], error) {
	members, err := s.repo.FindByAge(ctx, age, page)
	if err != nil {
		return nil, err
	}
	return pagination.Map(members, model.MemberDTOFromMember), nil
}

// Search returns the members matching spec.
func (s *service) Search(ctx context.Context, spec specification.Specification) ([]*model.Member, error) {
	return s.repo.FindAllBySpec(ctx, spec)
}
