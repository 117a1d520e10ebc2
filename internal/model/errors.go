package model

import "errors"

var (
	// ErrMemberNotFound indicates that the requested member does not exist.
	ErrMemberNotFound = errors.New("member not found")
	// ErrInvalidUsername indicates that the provided username is empty.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidAge indicates a negative age.
	ErrInvalidAge = errors.New("age must be non-negative")
	// ErrTeamNotFound indicates that the requested team does not exist.
	ErrTeamNotFound = errors.New("team not found")
	// ErrTeamExists indicates that a team with the given name already exists.
	ErrTeamExists = errors.New("team already exists")
	// ErrInvalidTeamName indicates that the provided team name is empty.
	ErrInvalidTeamName = errors.New("invalid team name")
	// ErrTeamNotPersisted indicates that a member references a team that has no identity yet.
	ErrTeamNotPersisted = errors.New("team must be saved before it is referenced")
)
