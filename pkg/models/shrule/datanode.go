package shrule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
)

// DataNode is one physical table in one data source.
type DataNode struct {
	DataSource string
	Table      string
}

func (dn DataNode) String() string {
	return dn.DataSource + "." + dn.Table
}

// ParseDataNode splits "ds_0.t_order_0"; a node without a dot names the data
// source and defaults the table to logicTable.
func ParseDataNode(s string, logicTable string) (DataNode, error) {
	s = strings.TrimSpace(s)
	ds, tbl, found := strings.Cut(s, ".")
	if !found {
		tbl = logicTable
	}
	if ds == "" || tbl == "" || strings.Contains(tbl, ".") {
		return DataNode{}, routeerror.Newf(routeerror.ROUTE_CONFIG, "invalid data node %q", s)
	}
	return DataNode{DataSource: ds, Table: tbl}, nil
}

// ExpandInline expands an inline expression into its concrete strings.
// Segments are separated by top-level commas; each ${...} placeholder holds
// either a range "0..3" or a list "[a, 'b']". Placeholders of one segment
// combine as a cartesian product, leftmost varying slowest.
func ExpandInline(expr string) ([]string, error) {
	expr = strings.ReplaceAll(expr, "$->{", "${")

	var res []string
	for _, seg := range splitTopLevel(expr) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		expanded, err := expandSegment(seg)
		if err != nil {
			return nil, err
		}
		res = append(res, expanded...)
	}
	return res, nil
}

func splitTopLevel(expr string) []string {
	var (
		parts []string
		depth int
		last  int
	)
	for i, c := range expr {
		switch c {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, expr[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, expr[last:])
}

func expandSegment(seg string) ([]string, error) {
	start := strings.Index(seg, "${")
	if start < 0 {
		return []string{seg}, nil
	}
	end := strings.Index(seg[start:], "}")
	if end < 0 {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "unterminated placeholder in %q", seg)
	}
	end += start

	values, err := placeholderValues(strings.TrimSpace(seg[start+2 : end]))
	if err != nil {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "invalid placeholder in %q: %v", seg, err)
	}
	rests, err := expandSegment(seg[end+1:])
	if err != nil {
		return nil, err
	}

	res := make([]string, 0, len(values)*len(rests))
	for _, v := range values {
		for _, rest := range rests {
			res = append(res, seg[:start]+v+rest)
		}
	}
	return res, nil
}

func placeholderValues(body string) ([]string, error) {
	if strings.HasPrefix(body, "[") && strings.HasSuffix(body, "]") {
		var res []string
		for _, item := range strings.Split(body[1:len(body)-1], ",") {
			item = strings.Trim(strings.TrimSpace(item), `'"`)
			if item == "" {
				return nil, fmt.Errorf("empty list item")
			}
			res = append(res, item)
		}
		return res, nil
	}

	lo, hi, ok := strings.Cut(body, "..")
	if !ok {
		return nil, fmt.Errorf("expected a range or a list, got %q", body)
	}
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return nil, err
	}
	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return nil, err
	}
	if to < from {
		return nil, fmt.Errorf("empty range %d..%d", from, to)
	}

	/* keep zero padding of the lower bound, so ${00..11} yields 00, 01, ... */
	width := 0
	if t := strings.TrimSpace(lo); len(t) > 1 && t[0] == '0' {
		width = len(t)
	}
	res := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		res = append(res, fmt.Sprintf("%0*d", width, i))
	}
	return res, nil
}
