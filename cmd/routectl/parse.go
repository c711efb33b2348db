package main

import (
	"strconv"
	"strings"

	"github.com/pg-sharding/shardroute/router/condition"
	"github.com/pg-sharding/shardroute/router/predicate"
	"github.com/pkg/errors"
)

// spans of consecutive predicates never overlap
const predicateWidth = 100

var comparators = []string{">=", "<=", "<>", "!=", "=", ">", "<"}

func parseTables(specs []string) []condition.TableRef {
	refs := make([]condition.TableRef, 0, len(specs))
	for _, s := range specs {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			continue
		}
		ref := condition.TableRef{Name: fields[0]}
		if len(fields) > 1 {
			ref.Alias = fields[len(fields)-1]
		}
		refs = append(refs, ref)
	}
	return refs
}

func parseColumn(s string, at int) predicate.ColumnRef {
	s = strings.TrimSpace(s)
	ref := predicate.ColumnRef{Span: predicate.Span{Start: at, Stop: at + len(s) - 1}, Name: s}
	if owner, name, ok := strings.Cut(s, "."); ok {
		ref.Owner, ref.Name = owner, name
	}
	return ref
}

func parseLiteral(s string, at int) predicate.Operand {
	s = strings.TrimSpace(s)
	span := predicate.Span{Start: at, Stop: at + len(s) - 1}

	switch {
	case strings.EqualFold(s, "null"):
		return predicate.NullLiteral{Span: span}
	case strings.EqualFold(s, "not null"):
		return predicate.NullLiteral{Span: span, Not: true}
	case len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'':
		return predicate.Literal{Span: span, Value: s[1 : len(s)-1]}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return predicate.Literal{Span: span, Value: n}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return predicate.Literal{Span: span, Value: f}
	}
	return predicate.Literal{Span: span, Value: s}
}

// parsePredicate reads "col = v", "col in a,b", "col between a and b" and
// the other comparisons.
func parsePredicate(s string, index int) (predicate.Predicate, error) {
	at := index * predicateWidth
	span := predicate.Span{Start: at, Stop: at + len(s) - 1}
	lower := strings.ToLower(s)

	if i := strings.Index(lower, " between "); i > 0 {
		rest := s[i+len(" between "):]
		j := strings.Index(strings.ToLower(rest), " and ")
		if j < 0 {
			return nil, errors.Errorf("expected \"col between a and b\", got %q", s)
		}
		lo := at + i + len(" between ")
		return predicate.BetweenPredicate{
			Span: span,
			Left: parseColumn(s[:i], at),
			Low:  parseLiteral(rest[:j], lo),
			High: parseLiteral(rest[j+len(" and "):], lo+j+len(" and ")),
		}, nil
	}

	if i := strings.Index(lower, " in "); i > 0 {
		list := strings.TrimSpace(s[i+len(" in "):])
		list = strings.TrimSuffix(strings.TrimPrefix(list, "("), ")")
		start := at + i + len(" in ")

		var items []predicate.Operand
		for k, item := range strings.Split(list, ",") {
			items = append(items, parseLiteral(item, start+k*10))
		}
		return predicate.InPredicate{
			Span: span,
			Left: parseColumn(s[:i], at),
			List: predicate.ListExpr{Span: predicate.Span{Start: start, Stop: span.Stop}, Items: items},
		}, nil
	}

	for _, op := range comparators {
		if i := strings.Index(s, op); i > 0 {
			return predicate.BinaryPredicate{
				Span:     span,
				Left:     parseColumn(s[:i], at),
				Operator: op,
				Right:    parseLiteral(s[i+len(op):], at+i+len(op)),
			}, nil
		}
	}
	if f := strings.Fields(s); len(f) == 3 {
		/* keyword operators such as LIKE or IS */
		return predicate.BinaryPredicate{
			Span:     span,
			Left:     parseColumn(f[0], at),
			Operator: f[1],
			Right:    parseLiteral(f[2], at+len(f[0])+len(f[1])+2),
		}, nil
	}
	return nil, errors.Errorf("cannot parse predicate %q", s)
}

// parseRow reads "col=v,col=v" into insert columns and values.
func parseRow(s string, index int) ([]string, []predicate.Operand, error) {
	var (
		cols []string
		vals []predicate.Operand
	)
	for k, pair := range strings.Split(s, ",") {
		col, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, nil, errors.Errorf("expected col=value in row %q", s)
		}
		cols = append(cols, strings.TrimSpace(col))
		vals = append(vals, parseLiteral(val, index*predicateWidth+k*10))
	}
	return cols, vals, nil
}
