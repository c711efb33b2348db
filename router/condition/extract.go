package condition

import (
	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/pg-sharding/shardroute/router/predicate"
)

type Mode int

const (
	// ModeSharding collects shard key constraints, BETWEEN included.
	ModeSharding = Mode(iota)
	// ModeEncrypt collects constraints on protected columns.
	ModeEncrypt
)

type extractor struct {
	interest Interest
	resolver Resolver
	mode     Mode
}

// Extract walks every AND group of forest and returns the conditions on
// interesting columns, in source order.
func Extract(forest predicate.Forest, interest Interest, resolver Resolver, mode Mode) ([]Condition, error) {
	e := &extractor{interest: interest, resolver: resolver, mode: mode}

	var res []Condition
	for gi, group := range forest {
		seen := map[int]struct{}{}
		for _, p := range group {
			stop := p.Bounds().Stop
			if _, ok := seen[stop]; ok {
				continue
			}
			seen[stop] = struct{}{}

			conds, err := e.predicate(p, gi)
			if err != nil {
				return nil, err
			}
			res = append(res, conds...)
		}
	}
	return res, nil
}

func (e *extractor) predicate(p predicate.Predicate, group int) ([]Condition, error) {
	switch p := p.(type) {
	case predicate.NullLiteral:
		return nil, nil
	case predicate.BinaryPredicate:
		return e.binary(p, group)
	case predicate.InPredicate:
		return e.in(p, group)
	case predicate.BetweenPredicate:
		return e.between(p, group)
	default:
		return nil, routeerror.Newf(routeerror.ROUTE_UNEXPECTED, "unknown predicate type %T", p)
	}
}

// column resolves op to an interesting column.
func (e *extractor) column(op predicate.Operand) (Column, bool) {
	ref, ok := op.(predicate.ColumnRef)
	if !ok {
		return Column{}, false
	}
	table := e.resolver.Resolve(ref.Owner, ref.Name, e.interest)
	if table == "" || !e.interest.IsInteresting(ref.Name, table) {
		return Column{}, false
	}
	return Column{Name: ref.Name, Table: table}, true
}

func value(op predicate.Operand) (Value, bool) {
	switch v := op.(type) {
	case predicate.Literal:
		return LiteralValue{V: v.Value}, true
	case predicate.ParamMarker:
		return ParamValue{Index: v.Index}, true
	}
	return nil, false
}

func (e *extractor) binary(p predicate.BinaryPredicate, group int) ([]Condition, error) {
	if _, ok := p.Right.(predicate.NullLiteral); ok {
		return nil, nil
	}
	if isLogical(p.Operator) {
		return nil, nil
	}
	op, ok := lookupOperator(p.Operator)
	if !ok {
		return nil, routeerror.Newf(routeerror.ROUTE_UNSUPPORTED_OPERATOR, "operator %q is not supported", p.Operator)
	}
	if _, ok := p.Left.(predicate.ColumnRef); !ok {
		return nil, nil
	}
	col, interesting := e.column(p.Left)

	var values []Value
	span := p.Right.Bounds()

	switch r := p.Right.(type) {
	case predicate.Literal, predicate.ParamMarker:
		v, _ := value(r)
		values = []Value{v}
	case predicate.ListExpr:
		if len(r.Items) == 0 || !predicate.IsSimple(r.Items[0]) {
			return nil, nil
		}
		for _, it := range r.Items {
			if v, ok := value(it); ok {
				values = append(values, v)
			}
		}
	case predicate.ColumnRef:
		/* join condition */
		return nil, nil
	case predicate.Subquery:
		return nil, nil
	case predicate.ComplexExpr:
		if interesting {
			return nil, routeerror.Newf(routeerror.ROUTE_UNSUPPORTED_PREDICATE,
				"cannot compare %s.%s with expression %q", col.Table, col.Name, r.Text)
		}
		return nil, nil
	default:
		return nil, routeerror.Newf(routeerror.ROUTE_UNEXPECTED, "unknown operand type %T", r)
	}

	if !interesting {
		return nil, nil
	}
	return []Condition{{
		Column:     col,
		Operator:   op,
		Values:     values,
		StartIndex: span.Start,
		StopIndex:  span.Stop,
		Group:      group,
	}}, nil
}

func (e *extractor) in(p predicate.InPredicate, group int) ([]Condition, error) {
	col, ok := e.column(p.Left)
	if !ok {
		return nil, nil
	}
	if p.Not && e.mode == ModeSharding {
		return nil, nil
	}

	var (
		values []Value
		start  = -1
	)
	for _, it := range p.List.Items {
		v, ok := value(it)
		if !ok {
			continue
		}
		if start < 0 {
			start = it.Bounds().Start
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return []Condition{{
		Column:     col,
		Operator:   In,
		Values:     values,
		Negated:    p.Not,
		StartIndex: start,
		StopIndex:  p.List.Bounds().Stop,
		Group:      group,
	}}, nil
}

func (e *extractor) between(p predicate.BetweenPredicate, group int) ([]Condition, error) {
	col, ok := e.column(p.Left)
	if !ok {
		return nil, nil
	}
	if e.mode == ModeEncrypt {
		return nil, routeerror.Newf(routeerror.ROUTE_UNSUPPORTED_PREDICATE,
			"BETWEEN on protected column %s.%s is not supported", col.Table, col.Name)
	}
	if p.Not {
		return nil, nil
	}
	lo, okLo := value(p.Low)
	hi, okHi := value(p.High)
	if !okLo || !okHi {
		return nil, nil
	}
	return []Condition{{
		Column:     col,
		Operator:   Between,
		Values:     []Value{lo, hi},
		StartIndex: p.Low.Bounds().Start,
		StopIndex:  p.High.Bounds().Stop,
		Group:      group,
	}}, nil
}
