package route

import (
	"fmt"
	"strings"

	"github.com/pg-sharding/shardroute/pkg/models/shrule"
)

type TableUnit struct {
	LogicTable  string
	ActualTable string
}

// RoutingUnit is one physical execution target: a data source and the
// actual tables standing in for the statement's logic tables.
type RoutingUnit struct {
	DataSource string
	Tables     []TableUnit
}

func (u RoutingUnit) key() string {
	var sb strings.Builder
	sb.WriteString(u.DataSource)
	for _, t := range u.Tables {
		sb.WriteByte('|')
		sb.WriteString(strings.ToLower(t.LogicTable))
		sb.WriteByte('=')
		sb.WriteString(t.ActualTable)
	}
	return sb.String()
}

// ActualTable returns the actual table of logic inside this unit.
func (u RoutingUnit) ActualTable(logic string) (string, bool) {
	for _, t := range u.Tables {
		if strings.EqualFold(t.LogicTable, logic) {
			return t.ActualTable, true
		}
	}
	return "", false
}

func (u RoutingUnit) String() string {
	parts := make([]string, 0, len(u.Tables))
	for _, t := range u.Tables {
		parts = append(parts, t.LogicTable+":"+t.ActualTable)
	}
	return fmt.Sprintf("%s(%s)", u.DataSource, strings.Join(parts, ","))
}

// RoutingResult is an ordered set of routing units, unique by content.
type RoutingResult struct {
	Units []RoutingUnit

	seen map[string]struct{}
}

func NewRoutingResult() *RoutingResult {
	return &RoutingResult{seen: map[string]struct{}{}}
}

// Add appends u unless an identical unit is present and reports whether it
// was added.
func (r *RoutingResult) Add(u RoutingUnit) bool {
	if r.seen == nil {
		r.seen = map[string]struct{}{}
	}
	k := u.key()
	if _, ok := r.seen[k]; ok {
		return false
	}
	r.seen[k] = struct{}{}
	r.Units = append(r.Units, u)
	return true
}

// AddNode adds a single-table unit.
func (r *RoutingResult) AddNode(logic string, node shrule.DataNode) bool {
	return r.Add(RoutingUnit{
		DataSource: node.DataSource,
		Tables:     []TableUnit{{LogicTable: logic, ActualTable: node.Table}},
	})
}

func (r *RoutingResult) Merge(o *RoutingResult) {
	if o == nil {
		return
	}
	for _, u := range o.Units {
		r.Add(u)
	}
}

func (r *RoutingResult) IsEmpty() bool {
	return len(r.Units) == 0
}

// DataSourceNames lists data sources in order of first appearance.
func (r *RoutingResult) DataSourceNames() []string {
	var res []string
	seen := map[string]struct{}{}
	for _, u := range r.Units {
		if _, ok := seen[u.DataSource]; ok {
			continue
		}
		seen[u.DataSource] = struct{}{}
		res = append(res, u.DataSource)
	}
	return res
}

// ActualTables lists the actual tables of logic routed within dataSource.
func (r *RoutingResult) ActualTables(dataSource, logic string) []string {
	var res []string
	seen := map[string]struct{}{}
	for _, u := range r.Units {
		if u.DataSource != dataSource {
			continue
		}
		if t, ok := u.ActualTable(logic); ok {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			res = append(res, t)
		}
	}
	return res
}

// DataNodes lists the distinct physical nodes of logic over all units.
func (r *RoutingResult) DataNodes(logic string) []shrule.DataNode {
	var res []shrule.DataNode
	seen := map[shrule.DataNode]struct{}{}
	for _, u := range r.Units {
		if t, ok := u.ActualTable(logic); ok {
			n := shrule.DataNode{DataSource: u.DataSource, Table: t}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			res = append(res, n)
		}
	}
	return res
}

func (r *RoutingResult) String() string {
	parts := make([]string, 0, len(r.Units))
	for _, u := range r.Units {
		parts = append(parts, u.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}
