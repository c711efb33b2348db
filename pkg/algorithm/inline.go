package algorithm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/pg-sharding/shardroute/pkg/models/hashfunction"
	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
)

var inlineFunctions = map[string]govaluate.ExpressionFunction{
	"mod": func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("mod expects 2 arguments, got %d", len(args))
		}
		a, okA := toInt64(args[0])
		b, okB := toInt64(args[1])
		if !okA || !okB || b == 0 {
			return nil, fmt.Errorf("mod expects non-zero integer arguments, got %v, %v", args[0], args[1])
		}
		r := a % b
		if r < 0 {
			r = -r
		}
		return float64(r), nil
	},
	"hash": func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("hash expects 1 argument, got %d", len(args))
		}
		h, err := hashfunction.HashValue(args[0], hashfunction.HashFunctionMurmur)
		if err != nil {
			return nil, err
		}
		return float64(h), nil
	},
}

type templatePart struct {
	literal string
	expr    *govaluate.EvaluableExpression
}

// Template is a compiled inline expression such as "t_order_${order_id % 2}".
// The "$->{...}" spelling is accepted as well.
type Template struct {
	source string
	parts  []templatePart
}

func CompileTemplate(source string) (*Template, error) {
	text := strings.ReplaceAll(source, "$->{", "${")
	tpl := &Template{source: source}

	for len(text) > 0 {
		start := strings.Index(text, "${")
		if start < 0 {
			tpl.parts = append(tpl.parts, templatePart{literal: text})
			break
		}
		if start > 0 {
			tpl.parts = append(tpl.parts, templatePart{literal: text[:start]})
		}
		end := strings.Index(text[start:], "}")
		if end < 0 {
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "unterminated placeholder in inline expression %q", source)
		}
		body := strings.TrimSpace(text[start+2 : start+end])
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(body, inlineFunctions)
		if err != nil {
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "invalid inline expression %q: %v", source, err)
		}
		tpl.parts = append(tpl.parts, templatePart{expr: expr})
		text = text[start+end+1:]
	}
	return tpl, nil
}

func (t *Template) String() string {
	return t.source
}

// Variables lists the parameter names the template refers to.
func (t *Template) Variables() []string {
	var vars []string
	seen := map[string]struct{}{}
	for _, p := range t.parts {
		if p.expr == nil {
			continue
		}
		for _, tok := range p.expr.Tokens() {
			if tok.Kind != govaluate.VARIABLE {
				continue
			}
			if name, ok := tok.Value.(string); ok {
				vars = appendUnique(vars, seen, name)
			}
		}
	}
	return vars
}

func inlineParam(v any) any {
	if n, ok := toInt64(v); ok {
		return float64(n)
	}
	switch t := v.(type) {
	case []byte:
		return string(t)
	case float32:
		return float64(t)
	}
	return v
}

// Evaluate renders the template for one set of variable values.
func (t *Template) Evaluate(params map[string]any) (string, error) {
	var sb strings.Builder
	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = inlineParam(v)
	}

	for _, p := range t.parts {
		if p.expr == nil {
			sb.WriteString(p.literal)
			continue
		}
		res, err := p.expr.Evaluate(sanitized)
		if err != nil {
			return "", routeerror.Newf(routeerror.ROUTE_INVALID_PARAM, "cannot evaluate inline expression %q: %v", t.source, err)
		}
		switch r := res.(type) {
		case float64:
			if r == math.Trunc(r) {
				sb.WriteString(strconv.FormatInt(int64(r), 10))
			} else {
				sb.WriteString(strconv.FormatFloat(r, 'f', -1, 64))
			}
		default:
			sb.WriteString(fmt.Sprintf("%v", r))
		}
	}
	return sb.String(), nil
}

/* INLINE */

type inlineAlgorithm struct {
	tpl        *Template
	allowRange bool
}

func newInline(props Props, _ Options) (Algorithm, error) {
	src, err := props.Required("algorithm-expression")
	if err != nil {
		return nil, err
	}
	tpl, err := CompileTemplate(src)
	if err != nil {
		return nil, err
	}
	allowRange, err := props.Bool("allow-range-query-with-inline-sharding", true)
	if err != nil {
		return nil, err
	}
	return &inlineAlgorithm{tpl: tpl, allowRange: allowRange}, nil
}

func (a *inlineAlgorithm) Type() string {
	return TypeInline
}

func (a *inlineAlgorithm) DoSharding(available []string, values []ShardingValue) ([]string, error) {
	picked := map[string]struct{}{}

	for _, sv := range values {
		if sv.IsRange() {
			if !a.allowRange {
				return nil, routeerror.Newf(routeerror.ROUTE_UNSUPPORTED_PREDICATE,
					"range query on %s.%s is not allowed with inline sharding %q", sv.LogicTable, sv.Column, a.tpl)
			}
			return all(available), nil
		}
		for _, v := range sv.Values {
			target, err := a.tpl.Evaluate(map[string]any{sv.Column: v})
			if err != nil {
				return nil, err
			}
			picked[target] = struct{}{}
		}
	}
	return ordered(available, picked), nil
}

/* COMPLEX_INLINE */

type complexInlineAlgorithm struct {
	tpl        *Template
	columns    []string
	allowRange bool
}

func newComplexInline(props Props, _ Options) (Algorithm, error) {
	src, err := props.Required("algorithm-expression")
	if err != nil {
		return nil, err
	}
	tpl, err := CompileTemplate(src)
	if err != nil {
		return nil, err
	}
	allowRange, err := props.Bool("allow-range-query-with-inline-sharding", true)
	if err != nil {
		return nil, err
	}

	columns := tpl.Variables()
	if cols := props.String("sharding-columns", ""); cols != "" {
		columns = nil
		for _, c := range strings.Split(cols, ",") {
			columns = append(columns, strings.TrimSpace(c))
		}
	}
	return &complexInlineAlgorithm{tpl: tpl, columns: columns, allowRange: allowRange}, nil
}

func (a *complexInlineAlgorithm) Type() string {
	return TypeComplexInline
}

func (a *complexInlineAlgorithm) DoSharding(available []string, values []ShardingValue) ([]string, error) {
	byColumn := map[string][]any{}
	for _, sv := range values {
		if sv.IsRange() {
			if !a.allowRange {
				return nil, routeerror.Newf(routeerror.ROUTE_UNSUPPORTED_PREDICATE,
					"range query on %s.%s is not allowed with inline sharding %q", sv.LogicTable, sv.Column, a.tpl)
			}
			return all(available), nil
		}
		byColumn[sv.Column] = append(byColumn[sv.Column], sv.Values...)
	}

	/* a missing column leaves the expression undetermined */
	for _, c := range a.columns {
		if len(byColumn[c]) == 0 {
			return all(available), nil
		}
	}

	picked := map[string]struct{}{}
	var walk func(i int, params map[string]any) error
	walk = func(i int, params map[string]any) error {
		if i == len(a.columns) {
			target, err := a.tpl.Evaluate(params)
			if err != nil {
				return err
			}
			picked[target] = struct{}{}
			return nil
		}
		col := a.columns[i]
		for _, v := range byColumn[col] {
			params[col] = v
			if err := walk(i+1, params); err != nil {
				return err
			}
		}
		delete(params, col)
		return nil
	}
	if err := walk(0, map[string]any{}); err != nil {
		return nil, err
	}
	return ordered(available, picked), nil
}

/* HINT_INLINE */

type hintInlineAlgorithm struct {
	tpl *Template
}

func newHintInline(props Props, _ Options) (Algorithm, error) {
	tpl, err := CompileTemplate(props.String("algorithm-expression", "${value}"))
	if err != nil {
		return nil, err
	}
	return &hintInlineAlgorithm{tpl: tpl}, nil
}

func (a *hintInlineAlgorithm) Type() string {
	return TypeHintInline
}

func (a *hintInlineAlgorithm) DoSharding(available []string, values []ShardingValue) ([]string, error) {
	picked := map[string]struct{}{}
	for _, sv := range values {
		for _, v := range sv.Values {
			target, err := a.tpl.Evaluate(map[string]any{"value": v})
			if err != nil {
				return nil, err
			}
			picked[target] = struct{}{}
		}
	}
	return ordered(available, picked), nil
}
