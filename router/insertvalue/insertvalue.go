package insertvalue

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/pg-sharding/shardroute/pkg/models/shrule"
	"github.com/pg-sharding/shardroute/router/condition"
	"github.com/pg-sharding/shardroute/router/predicate"
)

// Row is one VALUES tuple of an INSERT, with its parameters bound.
type Row struct {
	Index    int
	Columns  []string
	Operands []predicate.Operand
	Values   []any
	// resolved[i] is false when operand i is an expression with no single value
	resolved []bool

	DataNodes []shrule.DataNode
}

// Assemble binds every VALUES tuple against params.
func Assemble(columns []string, tuples [][]predicate.Operand, params []any) ([]*Row, error) {
	rows := make([]*Row, 0, len(tuples))
	for i, tuple := range tuples {
		if len(tuple) != len(columns) {
			return nil, routeerror.Newf(routeerror.ROUTE_INVALID_PARAM,
				"insert row %d has %d values for %d columns", i+1, len(tuple), len(columns))
		}
		r := &Row{
			Index:    i,
			Columns:  columns,
			Operands: tuple,
			Values:   make([]any, len(tuple)),
			resolved: make([]bool, len(tuple)),
		}
		for j, op := range tuple {
			switch v := op.(type) {
			case predicate.Literal:
				r.Values[j], r.resolved[j] = v.Value, true
			case predicate.ParamMarker:
				if v.Index < 0 || v.Index >= len(params) {
					return nil, routeerror.Newf(routeerror.ROUTE_INVALID_PARAM,
						"insert row %d refers to parameter $%d, %d parameters bound", i+1, v.Index+1, len(params))
				}
				r.Values[j], r.resolved[j] = params[v.Index], true
			case predicate.NullLiteral:
				r.resolved[j] = true
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// FromParams groups a flat parameter list into rows of len(columns)
// parameters, as sent for a batched prepared INSERT.
func FromParams(columns []string, params []any) ([]*Row, error) {
	if len(columns) == 0 {
		return nil, routeerror.New(routeerror.ROUTE_INVALID_PARAM, "insert without columns")
	}
	if len(params)%len(columns) != 0 {
		return nil, routeerror.Newf(routeerror.ROUTE_INVALID_PARAM,
			"%d parameters do not split into rows of %d columns", len(params), len(columns))
	}
	tuples := make([][]predicate.Operand, 0, len(params)/len(columns))
	for i := 0; i < len(params); i += len(columns) {
		tuple := make([]predicate.Operand, len(columns))
		for j := range columns {
			tuple[j] = predicate.ParamMarker{Index: i + j}
		}
		tuples = append(tuples, tuple)
	}
	return Assemble(columns, tuples, params)
}

func (r *Row) column(name string) int {
	for i, c := range r.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Value returns the bound value of column, false when the column is absent
// or holds an expression.
func (r *Row) Value(column string) (any, bool) {
	i := r.column(column)
	if i < 0 || !r.resolved[i] {
		return nil, false
	}
	return r.Values[i], true
}

// Conditions builds the equality conditions of the row on every column
// interesting for table. All of them share group.
func (r *Row) Conditions(table string, interest condition.Interest, group int) []condition.Condition {
	var res []condition.Condition
	for i, c := range r.Columns {
		/* NULL never routes */
		if !r.resolved[i] || r.Values[i] == nil || !interest.IsInteresting(c, table) {
			continue
		}
		var v condition.Value = condition.LiteralValue{V: r.Values[i]}
		if op, ok := r.Operands[i].(predicate.ParamMarker); ok {
			v = condition.ParamValue{Index: op.Index}
		}
		span := r.Operands[i].Bounds()
		res = append(res, condition.Condition{
			Column:     condition.Column{Name: c, Table: table},
			Operator:   condition.Equal,
			Values:     []condition.Value{v},
			StartIndex: span.Start,
			StopIndex:  span.Stop,
			Group:      group,
		})
	}
	return res
}

// Matches reports whether the row carries exactly the given sharding key:
// the same set of columns, each holding one of the listed values.
func (r *Row) Matches(key map[string][]any, shardingColumns []string) bool {
	for _, c := range shardingColumns {
		want, inKey := key[strings.ToLower(c)]
		v, has := r.Value(c)
		if has && v == nil {
			has = false
		}
		if has != inKey {
			return false
		}
		if !has {
			continue
		}
		found := false
		for _, w := range want {
			if Equal(v, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *Row) AddDataNodes(nodes ...shrule.DataNode) {
	for _, n := range nodes {
		dup := false
		for _, have := range r.DataNodes {
			if have == n {
				dup = true
				break
			}
		}
		if !dup {
			r.DataNodes = append(r.DataNodes, n)
		}
	}
}

// Equal compares sharding values by value: numbers of any width compare
// numerically and []byte compares with string.
func Equal(a, b any) bool {
	if ia, ok := integer(a); ok {
		if ib, ok := integer(b); ok {
			return ia == ib
		}
	}
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return fa == fb
		}
		return false
	}
	switch x := a.(type) {
	case string:
		switch y := b.(type) {
		case string:
			return x == y
		case []byte:
			return x == string(y)
		}
		return false
	case []byte:
		switch y := b.(type) {
		case string:
			return string(x) == y
		case []byte:
			return bytes.Equal(x, y)
		}
		return false
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}

func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case float64:
		return n, !math.IsNaN(n)
	}
	return 0, false
}
