//go:build integration
// +build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/festy23/datajpa/internal/database/dberr"
	"github.com/festy23/datajpa/internal/database/migrate"
	"github.com/festy23/datajpa/internal/database/session"
	"github.com/festy23/datajpa/internal/member/specification"
	"github.com/festy23/datajpa/internal/model"
	"github.com/festy23/datajpa/internal/pagination"
)

// PostgresSuite runs the repository against a real PostgreSQL instance.
type PostgresSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	db          *gorm.DB
	logger      *zap.SugaredLogger
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop().Sugar()

	pgContainer, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("datajpa"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(s.T(), err, "failed to start PostgreSQL container")
	s.pgContainer = pgContainer

	connStr, err := pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	db, err := gorm.Open(postgresDriver.Open(connStr), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(s.T(), err)
	s.db = db

	s.T().Setenv("MIGRATIONS_PATH", "../../../migrations")
	require.NoError(s.T(), migrate.Migrate(db))
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
}

func (s *PostgresSuite) SetupTest() {
	require.NoError(s.T(), s.db.Exec("TRUNCATE members, teams RESTART IDENTITY CASCADE").Error)
}

func (s *PostgresSuite) seedTeam(name string) *model.Team {
	team := model.NewTeam(name)
	require.NoError(s.T(), s.db.Create(team).Error)
	return team
}

func (s *PostgresSuite) seedMember(username string, age int, team *model.Team) *model.Member {
	repo := New(s.db, s.logger)
	m, err := repo.Save(s.ctx, model.NewMember(username, age, team))
	require.NoError(s.T(), err)
	return m
}

func (s *PostgresSuite) TestPagingAndCount() {
	repo := New(s.db, s.logger)
	for _, name := range []string{"member1", "member2", "member3", "member4", "member5"} {
		s.seedMember(name, 10, nil)
	}

	page, err := repo.FindByAge(s.ctx, 10, pagination.Of(0, 3, pagination.ByDesc("username")))
	s.Require().NoError(err)
	s.Equal([]string{"member5", "member4", "member3"}, usernames(page.Content))
	s.EqualValues(5, page.TotalElements)
}

func (s *PostgresSuite) TestBulkAgePlus() {
	repo := New(s.db, s.logger)
	var oldest *model.Member
	for _, age := range []int{10, 19, 20, 21, 40} {
		oldest = s.seedMember("member", age, nil)
	}

	updated, err := repo.BulkAgePlus(s.ctx, 20)
	s.Require().NoError(err)
	s.EqualValues(3, updated)

	fresh, ok, err := repo.FindByID(s.ctx, oldest.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(41, fresh.Age)
}

func (s *PostgresSuite) TestMemberDTOAndSpecification() {
	repo := New(s.db, s.logger)
	teamA := s.seedTeam("teamA")
	s.seedMember("m1", 10, teamA)
	s.seedMember("m2", 20, teamA)
	s.seedMember("m3", 30, nil)

	dtos, err := repo.FindMemberDTO(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(dtos, 3)
	s.Equal("teamA", dtos[0].TeamNameOrEmpty())
	s.Nil(dtos[2].TeamName)

	members, err := repo.FindAllBySpec(s.ctx, specification.Username("m1").And(specification.TeamMember("teamA")))
	s.Require().NoError(err)
	s.Equal([]string{"m1"}, usernames(members))

	members, err = repo.FindMemberWithTeam(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(members, 3)
	s.Equal("teamA", members[1].Team.Name)
	s.Nil(members[2].Team)
}

func (s *PostgresSuite) TestForeignKeyViolation() {
	repo := New(s.db, s.logger)
	missing := int64(999)

	_, err := repo.Save(s.ctx, &model.Member{Username: "member1", TeamID: &missing})
	s.ErrorIs(err, dberr.ErrConstraintViolation)
}

func (s *PostgresSuite) TestDeletingTeamUnassignsMembers() {
	team := s.seedTeam("teamA")
	m := s.seedMember("member1", 10, team)

	s.Require().NoError(s.db.Delete(&model.Team{}, team.ID).Error)

	found, ok, err := New(s.db, s.logger).FindByID(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Nil(found.TeamID)
}

func (s *PostgresSuite) TestPessimisticLockConflict() {
	s.seedMember("member1", 10, nil)

	holder := s.db.Begin()
	defer holder.Rollback()
	locked, err := New(holder, s.logger).FindLockByUsername(s.ctx, "member1")
	s.Require().NoError(err)
	s.Require().Len(locked, 1)

	waiter := s.db.Begin()
	defer waiter.Rollback()
	s.Require().NoError(waiter.Exec("SET LOCAL lock_timeout = '200ms'").Error)

	_, err = New(waiter, s.logger).FindLockByUsername(s.ctx, "member1")
	s.ErrorIs(err, dberr.ErrLockConflict)
}

func (s *PostgresSuite) TestSessionFlushAtCommit() {
	m := s.seedMember("member1", 10, nil)

	err := session.Run(s.ctx, s.db, s.logger, func(sess *session.Session) error {
		repo := NewInSession(sess, s.logger)
		members, err := repo.FindLockByUsername(s.ctx, "member1")
		if err != nil {
			return err
		}
		members[0].Username = "renamed"
		return nil
	})
	s.Require().NoError(err)

	found, _, err := New(s.db, s.logger).FindByID(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal("renamed", found.Username)
}
