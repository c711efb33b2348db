package qrouter

import (
	"strings"
	"time"

	"github.com/pg-sharding/shardroute/pkg/algorithm"
	"github.com/pg-sharding/shardroute/pkg/models/shrule"
	"github.com/pg-sharding/shardroute/router/condition"
	"github.com/pg-sharding/shardroute/router/insertvalue"
)

// shardingValues collects, for every column of s, what the AND group conds
// says about it. Equalities on one column intersect; when the intersection
// is empty the group can never match and false is reported.
func (r *StandardRouter) shardingValues(logicTable string, s *shrule.Strategy, conds []condition.Condition, params []any) ([]algorithm.ShardingValue, bool, error) {
	if s.Kind == shrule.StrategyNone || s.Kind == shrule.StrategyHint {
		return nil, false, nil
	}

	var res []algorithm.ShardingValue
	for _, col := range s.Columns {
		var (
			precise     []any
			havePrecise bool
			rng         *algorithm.Range
		)
		for _, c := range conds {
			if c.Negated || !strings.EqualFold(c.Column.Name, col) || !r.rule.IsBound(logicTable, c.Column.Table) {
				continue
			}
			vals, err := c.Materialize(params)
			if err != nil {
				return nil, false, err
			}

			switch c.Operator {
			case condition.Equal, condition.In:
				vals = distinct(vals)
				if !havePrecise {
					precise, havePrecise = vals, true
				} else {
					precise = intersect(precise, vals)
				}
			case condition.Between:
				rng = mergeRange(rng, &algorithm.Range{Lower: vals[0], Upper: vals[1], HasLower: true, HasUpper: true})
			case condition.GreaterThan, condition.GreaterOrEqual:
				rng = mergeRange(rng, &algorithm.Range{Lower: vals[0], HasLower: true})
			case condition.LessThan, condition.LessOrEqual:
				rng = mergeRange(rng, &algorithm.Range{Upper: vals[0], HasUpper: true})
			default:
				/* <>, IS and LIKE do not narrow placement */
			}
		}

		switch {
		case havePrecise:
			if len(precise) == 0 {
				return nil, true, nil
			}
			res = append(res, algorithm.ShardingValue{LogicTable: logicTable, Column: col, Values: precise})
		case rng != nil:
			res = append(res, algorithm.ShardingValue{LogicTable: logicTable, Column: col, Range: rng})
		}
	}
	return res, false, nil
}

// distinct drops NULLs and repeated values.
func distinct(vals []any) []any {
	res := make([]any, 0, len(vals))
	for _, v := range vals {
		if v == nil || contains(res, v) {
			continue
		}
		res = append(res, v)
	}
	return res
}

func intersect(a, b []any) []any {
	var res []any
	for _, v := range a {
		if contains(b, v) {
			res = append(res, v)
		}
	}
	return res
}

func contains(vals []any, v any) bool {
	for _, w := range vals {
		if insertvalue.Equal(v, w) {
			return true
		}
	}
	return false
}

// mergeRange narrows a by b where the bounds are comparable and keeps a's
// bound otherwise.
func mergeRange(a, b *algorithm.Range) *algorithm.Range {
	if a == nil {
		return b
	}
	res := *a
	if b.HasLower {
		if !res.HasLower {
			res.Lower, res.HasLower = b.Lower, true
		} else if cmp, ok := compare(b.Lower, res.Lower); ok && cmp > 0 {
			res.Lower = b.Lower
		}
	}
	if b.HasUpper {
		if !res.HasUpper {
			res.Upper, res.HasUpper = b.Upper, true
		} else if cmp, ok := compare(b.Upper, res.Upper); ok && cmp < 0 {
			res.Upper = b.Upper
		}
	}
	return &res
}

func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
		return 0, false
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
		return 0, false
	}
	fa, okA := float(a)
	fb, okB := float(b)
	if !okA || !okB {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	}
	return 0, true
}

func float(v any) (float64, bool) {
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
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
