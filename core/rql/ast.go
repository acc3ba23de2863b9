package rql

// Select is the parsed form of a restricted query.
type Select struct {
	Star    bool
	Columns []Projection
	Table   string
	Where   []Predicate
	OrderBy *OrderBy
	Limit   *int
}

// Projection is one item of the select list.
type Projection struct {
	Column string // set for plain column references
	Expr   string // literal text for anything else
	Alias  string
}

// Name returns the output column name of the projection.
func (p Projection) Name() string {
	switch {
	case p.Alias != "":
		return p.Alias
	case p.Column != "":
		return p.Column
	default:
		return p.Expr
	}
}

// Operator is a WHERE predicate operator.
type Operator string

// Supported operators.
const (
	OpEq        Operator = "="
	OpNe        Operator = "!="
	OpGt        Operator = ">"
	OpLt        Operator = "<"
	OpGe        Operator = ">="
	OpLe        Operator = "<="
	OpLike      Operator = "LIKE"
	OpNotLike   Operator = "NOT LIKE"
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

// Predicate is one conjunct of a WHERE clause.
type Predicate struct {
	Column string
	Op     Operator
	Values []string
}

// OrderBy is the single sort key of a query.
type OrderBy struct {
	Column string
	Desc   bool
}
