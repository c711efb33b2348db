package qrouter

import (
	"context"
	"fmt"
	"strings"

	"github.com/pg-sharding/shardroute/pkg/algorithm"
	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/pg-sharding/shardroute/pkg/models/shrule"
	"github.com/pg-sharding/shardroute/router/condition"
	"github.com/pg-sharding/shardroute/router/insertvalue"
	"github.com/pg-sharding/shardroute/router/route"
	"github.com/pg-sharding/shardroute/router/routehint"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// GroupRoute is the outcome of one condition group.
type GroupRoute struct {
	// Key holds the equality values of the group, by lower case column.
	Key   map[string][]any
	Nodes []shrule.DataNode
}

func (g GroupRoute) String() string {
	cols := maps.Keys(g.Key)
	slices.Sort(cols)

	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		parts = append(parts, fmt.Sprintf("%s=%v", c, g.Key[c]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

type TableRoute struct {
	LogicTable string
	Result     *route.RoutingResult
	Groups     []GroupRoute
}

// State remembers, within one statement, which binding groups already have a
// routed member.
type State struct {
	bound map[*shrule.BindingTableRule]*TableRoute
}

func NewState() *State {
	return &State{bound: map[*shrule.BindingTableRule]*TableRoute{}}
}

// StandardRouter routes a single logic table.
type StandardRouter struct {
	rule *shrule.ShardingRule
}

func NewStandardRouter(rule *shrule.ShardingRule) *StandardRouter {
	return &StandardRouter{rule: rule}
}

// Route computes the data nodes of logicTable. condGroups are OR'ed groups
// of AND'ed conditions; an empty group means "no constraint". The first
// routed member of a binding group decides the placement of the others.
func (r *StandardRouter) Route(ctx context.Context, logicTable string, condGroups [][]condition.Condition, params []any, state *State) (*TableRoute, error) {
	tr, ok := r.rule.FindTableRule(logicTable)
	if !ok {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "no table rule for %s", logicTable)
	}
	if state == nil {
		state = NewState()
	}

	dbHint := tr.DatabaseStrategy.Kind == shrule.StrategyHint
	tblHint := tr.TableStrategy.Kind == shrule.StrategyHint

	binding, bound := r.rule.FindBindingRule(tr.LogicTable)
	if bound && !dbHint && !tblHint {
		if prev, ok := state.bound[binding]; ok {
			return r.reuse(binding, tr, prev)
		}
	}

	var hint *routehint.Hint
	if dbHint || tblHint {
		hint, _ = routehint.FromContext(ctx)
	}
	if dbHint && tblHint {
		/* both tiers are forced, conditions are irrelevant */
		condGroups = nil
	}
	if len(condGroups) == 0 {
		condGroups = [][]condition.Condition{nil}
	}

	res := &TableRoute{
		LogicTable: tr.LogicTable,
		Result:     route.NewRoutingResult(),
	}
	seen := map[string][][2][]algorithm.ShardingValue{}
	contradictory := 0

	for _, conds := range condGroups {
		var (
			dbVals, tblVals   []algorithm.ShardingValue
			dbFalse, tblFalse bool
			err               error
		)
		if dbHint {
			dbVals = hintValues(tr.LogicTable, hint.DatabaseShardingValues(tr.LogicTable))
		} else if dbVals, dbFalse, err = r.shardingValues(tr.LogicTable, tr.DatabaseStrategy, conds, params); err != nil {
			return nil, err
		}
		if tblHint {
			tblVals = hintValues(tr.LogicTable, hint.TableShardingValues(tr.LogicTable))
		} else if tblVals, tblFalse, err = r.shardingValues(tr.LogicTable, tr.TableStrategy, conds, params); err != nil {
			return nil, err
		}
		if dbFalse || tblFalse {
			contradictory++
			continue
		}

		/* the printed form only buckets groups, 1 and "1" print alike */
		k := fmt.Sprintf("%v|%v", dbVals, tblVals)
		if slices.ContainsFunc(seen[k], func(g [2][]algorithm.ShardingValue) bool {
			return sameValues(g[0], dbVals) && sameValues(g[1], tblVals)
		}) {
			continue
		}
		seen[k] = append(seen[k], [2][]algorithm.ShardingValue{dbVals, tblVals})

		nodes, err := r.routeGroup(tr, dbVals, tblVals)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			res.Result.AddNode(tr.LogicTable, n)
		}
		res.Groups = append(res.Groups, GroupRoute{Key: groupKey(dbVals, tblVals), Nodes: nodes})
	}

	if contradictory == len(condGroups) {
		return nil, routeerror.Newf(routeerror.ROUTE_NO_ROUTE,
			"conditions on %s contradict each other, no data node can match", tr.LogicTable)
	}

	if bound {
		state.bound[binding] = res
	}
	return res, nil
}

// sameValues compares two tiers of sharding values the way insert rows are
// matched against groups.
func sameValues(a, b []algorithm.ShardingValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if !strings.EqualFold(x.Column, y.Column) || x.IsRange() != y.IsRange() || len(x.Values) != len(y.Values) {
			return false
		}
		if x.IsRange() {
			if x.Range.HasLower != y.Range.HasLower || x.Range.HasUpper != y.Range.HasUpper {
				return false
			}
			if x.Range.HasLower && !insertvalue.Equal(x.Range.Lower, y.Range.Lower) {
				return false
			}
			if x.Range.HasUpper && !insertvalue.Equal(x.Range.Upper, y.Range.Upper) {
				return false
			}
		}
		for j := range x.Values {
			if !insertvalue.Equal(x.Values[j], y.Values[j]) {
				return false
			}
		}
	}
	return true
}

func hintValues(logicTable string, vals []any) []algorithm.ShardingValue {
	if len(vals) == 0 {
		return nil
	}
	return []algorithm.ShardingValue{{LogicTable: logicTable, Values: vals}}
}

func groupKey(tiers ...[]algorithm.ShardingValue) map[string][]any {
	key := map[string][]any{}
	for _, vals := range tiers {
		for _, sv := range vals {
			if sv.IsRange() || sv.Column == "" {
				continue
			}
			key[strings.ToLower(sv.Column)] = sv.Values
		}
	}
	return key
}

// routeGroup runs the database tier over the rule's data sources, then the
// table tier over the actual tables of every chosen data source.
func (r *StandardRouter) routeGroup(tr *shrule.TableRule, dbVals, tblVals []algorithm.ShardingValue) ([]shrule.DataNode, error) {
	dataSources, err := doSharding(tr, "data source", tr.DatabaseStrategy, tr.DataSourceNames(), dbVals)
	if err != nil {
		return nil, err
	}

	var nodes []shrule.DataNode
	for _, ds := range dataSources {
		candidates := tr.ActualTables(ds)
		if len(candidates) == 0 {
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "table %s has no actual tables in %s", tr.LogicTable, ds)
		}
		tables, err := tr.TableStrategy.DoSharding(candidates, tblVals)
		if err != nil {
			return nil, err
		}
		if err := checkSubset(tr, "table", tables, candidates); err != nil {
			return nil, err
		}
		for _, t := range tables {
			nodes = append(nodes, shrule.DataNode{DataSource: ds, Table: t})
		}
	}

	if len(nodes) == 0 {
		return nil, routeerror.Newf(routeerror.ROUTE_NO_ROUTE,
			"no actual table of %s matches %v", tr.LogicTable, append(append([]algorithm.ShardingValue(nil), dbVals...), tblVals...))
	}
	return nodes, nil
}

func doSharding(tr *shrule.TableRule, tier string, s *shrule.Strategy, candidates []string, vals []algorithm.ShardingValue) ([]string, error) {
	if len(candidates) == 0 {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "table %s has no %s candidates", tr.LogicTable, tier)
	}
	res, err := s.DoSharding(candidates, vals)
	if err != nil {
		return nil, err
	}
	if err := checkSubset(tr, tier, res, candidates); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, routeerror.Newf(routeerror.ROUTE_NO_ROUTE, "no %s of %s matches %v", tier, tr.LogicTable, vals)
	}
	return res, nil
}

func checkSubset(tr *shrule.TableRule, tier string, picked, candidates []string) error {
	for _, p := range picked {
		if !slices.Contains(candidates, p) {
			return routeerror.Newf(routeerror.ROUTE_CONFIG,
				"sharding of %s returned %s %q which is not among %v", tr.LogicTable, tier, p, candidates)
		}
	}
	return nil
}

// reuse places tr on the same data sources and actual table positions as
// the already routed binding member prev.
func (r *StandardRouter) reuse(binding *shrule.BindingTableRule, tr *shrule.TableRule, prev *TableRoute) (*TableRoute, error) {
	translate := func(n shrule.DataNode) (shrule.DataNode, error) {
		actual, err := binding.BindingActualTable(n.DataSource, tr.LogicTable, prev.LogicTable, n.Table)
		if err != nil {
			return shrule.DataNode{}, err
		}
		return shrule.DataNode{DataSource: n.DataSource, Table: actual}, nil
	}

	res := &TableRoute{
		LogicTable: tr.LogicTable,
		Result:     route.NewRoutingResult(),
	}
	for _, n := range prev.Result.DataNodes(prev.LogicTable) {
		t, err := translate(n)
		if err != nil {
			return nil, err
		}
		res.Result.AddNode(tr.LogicTable, t)
	}
	for _, g := range prev.Groups {
		ng := GroupRoute{Key: g.Key}
		for _, n := range g.Nodes {
			t, err := translate(n)
			if err != nil {
				return nil, err
			}
			ng.Nodes = append(ng.Nodes, t)
		}
		res.Groups = append(res.Groups, ng)
	}
	return res, nil
}
