package model

// MemberDTO is a read-only projection of a member joined with its team name.
// TeamName is nil when the member has no team or the team was not joined.
type MemberDTO struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	TeamName *string `json:"team_name"`
}

// NewMemberDTO builds a projection row. Pass nil teamName for members without a team.
func NewMemberDTO(id int64, username string, teamName *string) MemberDTO {
	dto := MemberDTO{ID: id, Username: username}
	if teamName != nil {
		name := *teamName
		dto.TeamName = &name
	}
	return dto
}

// MemberDTOFromMember copies id and username from m. The team name is left unset.
func MemberDTOFromMember(m *Member) MemberDTO {
	return MemberDTO{ID: m.ID, Username: m.Username}
}

// TeamNameOrEmpty returns the team name, or "" when absent.
func (d MemberDTO) TeamNameOrEmpty() string {
	if d.TeamName == nil {
		return ""
	}
	return *d.TeamName
}
