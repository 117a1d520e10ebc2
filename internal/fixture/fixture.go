// Package fixture loads seed data from YAML and stores it through the repositories.
package fixture

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/festy23/datajpa/internal/database/session"
	memberRepository "github.com/festy23/datajpa/internal/member/repository"
	"github.com/festy23/datajpa/internal/model"
	teamRepository "github.com/festy23/datajpa/internal/team/repository"
)

// Fixture is the seed document.
type Fixture struct {
	Teams   []TeamYAML   `yaml:"teams"`
	Members []MemberYAML `yaml:"members"`
}

// TeamYAML is one team entry.
type TeamYAML struct {
	Name string `yaml:"name"`
}

// MemberYAML is one member entry. Team names a team from the same document or is empty.
type MemberYAML struct {
	Username string `yaml:"username"`
	Age      int    `yaml:"age"`
	Team     string `yaml:"team,omitempty"`
}

// Result counts what Seed stored.
type Result struct {
	Teams   int
	Members int
}

// Load reads and validates the fixture at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a fixture document.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks names and cross references.
func (f *Fixture) Validate() error {
	teams := make(map[string]struct{}, len(f.Teams))
	for i, t := range f.Teams {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("teams[%d]: %w", i, model.ErrInvalidTeamName)
		}
		if _, dup := teams[name]; dup {
			return fmt.Errorf("teams[%d] %q: %w", i, name, model.ErrTeamExists)
		}
		teams[name] = struct{}{}
	}

	for i, m := range f.Members {
		if strings.TrimSpace(m.Username) == "" {
			return fmt.Errorf("members[%d]: %w", i, model.ErrInvalidUsername)
		}
		if m.Age < 0 {
			return fmt.Errorf("members[%d] %q: %w", i, m.Username, model.ErrInvalidAge)
		}
		if m.Team == "" {
			continue
		}
		if _, ok := teams[m.Team]; !ok {
			return fmt.Errorf("members[%d] %q: %w: %s", i, m.Username, model.ErrTeamNotFound, m.Team)
		}
	}
	return nil
}

// Seed saves the teams and then the members of f in one unit of work.
func Seed(ctx context.Context, db *gorm.DB, logger *zap.SugaredLogger, f *Fixture) (Result, error) {
	var result Result
	err := session.Run(ctx, db, logger, func(s *session.Session) error {
		teams := teamRepository.NewInSession(s, logger)
		members := memberRepository.NewInSession(s, logger)

		byName := make(map[string]*model.Team, len(f.Teams))
		for _, t := range f.Teams {
			saved, err := teams.Save(ctx, model.NewTeam(strings.TrimSpace(t.Name)))
			if err != nil {
				return fmt.Errorf("seed team %q: %w", t.Name, err)
			}
			byName[saved.Name] = saved
		}

		for _, m := range f.Members {
			if _, err := members.Save(ctx, model.NewMember(m.Username, m.Age, byName[m.Team])); err != nil {
				return fmt.Errorf("seed member %q: %w", m.Username, err)
			}
		}

		result = Result{Teams: len(f.Teams), Members: len(f.Members)}
		return nil
	})
	if err != nil {
		logger.Errorw("failed to seed fixture", "error", err)
		return Result{}, err
	}

	logger.Infow("fixture seeded", "teams", result.Teams, "members", result.Members)
	return result, nil
}
