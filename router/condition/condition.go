package condition

import (
	"fmt"
	"strings"

	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
)

type Operator int

const (
	Equal = Operator(iota)
	NotEqual
	GreaterThan
	GreaterOrEqual
	LessThan
	LessOrEqual
	Is
	Like
	In
	Between
)

func (op Operator) String() string {
	return [...]string{"=", "<>", ">", ">=", "<", "<=", "IS", "LIKE", "IN", "BETWEEN"}[op]
}

var comparisonOperators = map[string]Operator{
	"=":    Equal,
	"<>":   NotEqual,
	"!=":   NotEqual,
	">":    GreaterThan,
	">=":   GreaterOrEqual,
	"<":    LessThan,
	"<=":   LessOrEqual,
	"IS":   Is,
	"LIKE": Like,
}

var logicalOperators = map[string]struct{}{
	"AND": {},
	"OR":  {},
	"&&":  {},
	"||":  {},
}

// Value is either a LiteralValue or a ParamValue.
type Value interface {
	iValue()
}

type LiteralValue struct {
	V any
}

// ParamValue refers to the zero based position of a bound parameter.
type ParamValue struct {
	Index int
}

func (LiteralValue) iValue() {}
func (ParamValue) iValue()   {}

// Column identifies a column by name and the logic table it belongs to.
type Column struct {
	Name  string
	Table string
}

// Condition is one column-bound constraint extracted from a predicate.
type Condition struct {
	Column   Column
	Operator Operator
	Values   []Value
	// Negated marks NOT IN and similar forms, kept for value rewriting only.
	Negated bool

	StartIndex int
	StopIndex  int
	// index of the AND group the condition came from
	Group int
}

func (c Condition) String() string {
	return fmt.Sprintf("%s.%s %s %v", c.Column.Table, c.Column.Name, c.Operator, c.Values)
}

// Materialize substitutes every parameter reference with its bound argument.
// The condition itself is left untouched.
func (c Condition) Materialize(params []any) ([]any, error) {
	res := make([]any, 0, len(c.Values))
	for _, v := range c.Values {
		switch t := v.(type) {
		case LiteralValue:
			res = append(res, t.V)
		case ParamValue:
			if t.Index < 0 || t.Index >= len(params) {
				return nil, routeerror.Newf(routeerror.ROUTE_INVALID_PARAM,
					"parameter $%d of %s.%s is out of range, %d parameters bound", t.Index+1, c.Column.Table, c.Column.Name, len(params))
			}
			res = append(res, params[t.Index])
		}
	}
	return res, nil
}

// ByGroup splits conditions by AND group, in group order.
func ByGroup(conds []Condition) [][]Condition {
	var (
		res   [][]Condition
		index = map[int]int{}
	)
	for _, c := range conds {
		i, ok := index[c.Group]
		if !ok {
			i = len(res)
			index[c.Group] = i
			res = append(res, nil)
		}
		res[i] = append(res[i], c)
	}
	return res
}

func lookupOperator(op string) (Operator, bool) {
	v, ok := comparisonOperators[strings.ToUpper(strings.TrimSpace(op))]
	return v, ok
}

func isLogical(op string) bool {
	_, ok := logicalOperators[strings.ToUpper(strings.TrimSpace(op))]
	return ok
}
