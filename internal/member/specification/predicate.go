// Package specification builds composable member filters.
//
// A filter is a tree of Predicate values. Expression translates the tree into a gorm
// clause for execution; Match evaluates the same tree against a loaded member.
package specification

import (
	"gorm.io/gorm/clause"

	"github.com/festy23/datajpa/internal/model"
)

// Field is a filterable member property.
type Field string

const (
	FieldID       Field = "id"
	FieldUsername Field = "username"
	FieldAge      Field = "age"
)

var columns = map[Field]string{
	FieldID:       "member_id",
	FieldUsername: "username",
	FieldAge:      "age",
}

// Predicate is one node of a filter tree.
type Predicate interface {
	isPredicate()
}

// Equals matches Field = Value.
type Equals struct {
	Field Field
	Value any
}

// GreaterThan matches Field > Value.
type GreaterThan struct {
	Field Field
	Value int64
}

// GreaterOrEqual matches Field >= Value.
type GreaterOrEqual struct {
	Field Field
	Value int64
}

// In matches Field IN Values. An empty list matches nothing.
type In struct {
	Field  Field
	Values []any
}

// TeamNameEquals matches members whose team is named Name.
type TeamNameEquals struct {
	Name string
}

// And matches when every term matches. No terms matches everything.
type And struct {
	Terms []Predicate
}

// Or matches when any term matches. No terms matches nothing.
type Or struct {
	Terms []Predicate
}

func (Equals) isPredicate()         {}
func (GreaterThan) isPredicate()    {}
func (GreaterOrEqual) isPredicate() {}
func (In) isPredicate()             {}
func (TeamNameEquals) isPredicate() {}
func (And) isPredicate()            {}
func (Or) isPredicate()             {}

func column(f Field) clause.Column {
	return clause.Column{Table: model.Member{}.TableName(), Name: columns[f]}
}

// Expression translates p into a gorm WHERE expression.
// A nil result means p places no restriction.
func Expression(p Predicate) clause.Expression {
	switch p := p.(type) {
	case nil:
		return nil
	case Equals:
		return clause.Eq{Column: column(p.Field), Value: p.Value}
	case GreaterThan:
		return clause.Gt{Column: column(p.Field), Value: p.Value}
	case GreaterOrEqual:
		return clause.Gte{Column: column(p.Field), Value: p.Value}
	case In:
		if len(p.Values) == 0 {
			return clause.Expr{SQL: "1 = 0"}
		}
		return clause.IN{Column: column(p.Field), Values: p.Values}
	case TeamNameEquals:
		// EXISTS instead of a join keeps the row set unchanged when nested under Or.
		return clause.Expr{
			SQL:  "EXISTS (SELECT 1 FROM teams WHERE teams.team_id = members.team_id AND teams.name = ?)",
			Vars: []any{p.Name},
		}
	case And:
		exprs := make([]clause.Expression, 0, len(p.Terms))
		for _, term := range p.Terms {
			if expr := Expression(term); expr != nil {
				exprs = append(exprs, expr)
			}
		}
		if len(exprs) == 0 {
			return nil
		}
		return clause.And(exprs...)
	case Or:
		if len(p.Terms) == 0 {
			return clause.Expr{SQL: "1 = 0"}
		}
		exprs := make([]clause.Expression, 0, len(p.Terms))
		for _, term := range p.Terms {
			expr := Expression(term)
			if expr == nil {
				return nil
			}
			exprs = append(exprs, expr)
		}
		if len(exprs) == 1 {
			return exprs[0]
		}
		return clause.Or(exprs...)
	default:
		panic("specification: unknown predicate")
	}
}

// Match evaluates p against m. TeamNameEquals needs m.Team loaded.
func Match(p Predicate, m *model.Member) bool {
	switch p := p.(type) {
	case nil:
		return true
	case Equals:
		return value(p.Field, m) == normalize(p.Value)
	case GreaterThan:
		n, ok := value(p.Field, m).(int64)
		return ok && n > p.Value
	case GreaterOrEqual:
		n, ok := value(p.Field, m).(int64)
		return ok && n >= p.Value
	case In:
		v := value(p.Field, m)
		for _, candidate := range p.Values {
			if v == normalize(candidate) {
				return true
			}
		}
		return false
	case TeamNameEquals:
		return m.Team != nil && m.Team.Name == p.Name
	case And:
		for _, term := range p.Terms {
			if !Match(term, m) {
				return false
			}
		}
		return true
	case Or:
		for _, term := range p.Terms {
			if Match(term, m) {
				return true
			}
		}
		return false
	default:
		panic("specification: unknown predicate")
	}
}

func value(f Field, m *model.Member) any {
	switch f {
	case FieldID:
		return m.ID
	case FieldUsername:
		return m.Username
	case FieldAge:
		return int64(m.Age)
	default:
		return nil
	}
}

// normalize widens integer values so they compare equal to int64 fields.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	default:
		return v
	}
}
