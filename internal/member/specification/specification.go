package specification

import (
	"gorm.io/gorm/clause"

	"github.com/festy23/datajpa/internal/model"
)

// Specification is an immutable member filter. The zero value matches every member.
type Specification struct {
	pred Predicate
}

// Where wraps a predicate.
func Where(p Predicate) Specification {
	return Specification{pred: p}
}

// All matches every member.
func All() Specification {
	return Specification{}
}

// Username matches members with exactly this username.
func Username(username string) Specification {
	return Where(Equals{Field: FieldUsername, Value: username})
}

// TeamMember matches members of the team named teamName.
func TeamMember(teamName string) Specification {
	return Where(TeamNameEquals{Name: teamName})
}

// AgeGreaterThan matches members strictly older than age.
func AgeGreaterThan(age int) Specification {
	return Where(GreaterThan{Field: FieldAge, Value: int64(age)})
}

// UsernameIn matches members whose username is one of usernames.
func UsernameIn(usernames ...string) Specification {
	values := make([]any, len(usernames))
	for i, u := range usernames {
		values[i] = u
	}
	return Where(In{Field: FieldUsername, Values: values})
}

// And returns a specification matching both s and other.
func (s Specification) And(other Specification) Specification {
	switch {
	case s.pred == nil:
		return other
	case other.pred == nil:
		return s
	}
	return Where(And{Terms: append(andTerms(s.pred), andTerms(other.pred)...)})
}

// Or returns a specification matching s or other.
func (s Specification) Or(other Specification) Specification {
	if s.pred == nil || other.pred == nil {
		return All()
	}
	return Where(Or{Terms: append(orTerms(s.pred), orTerms(other.pred)...)})
}

// Predicate returns the underlying filter tree, nil for All.
func (s Specification) Predicate() Predicate {
	return s.pred
}

// IsAll reports whether s places no restriction.
func (s Specification) IsAll() bool {
	return s.pred == nil
}

// Expression translates s into a WHERE expression, nil for All.
func (s Specification) Expression() clause.Expression {
	return Expression(s.pred)
}

// Match reports whether m satisfies s.
func (s Specification) Match(m *model.Member) bool {
	return Match(s.pred, m)
}

func andTerms(p Predicate) []Predicate {
	if and, ok := p.(And); ok {
		return append([]Predicate(nil), and.Terms...)
	}
	return []Predicate{p}
}

func orTerms(p Predicate) []Predicate {
	if or, ok := p.(Or); ok {
		return append([]Predicate(nil), or.Terms...)
	}
	return []Predicate{p}
}
