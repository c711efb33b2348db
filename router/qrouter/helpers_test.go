package qrouter_test

import (
	"strings"
	"testing"

	"github.com/pg-sharding/shardroute/pkg/config"
	"github.com/pg-sharding/shardroute/pkg/rulemgr"
	"github.com/pg-sharding/shardroute/router/condition"
	"github.com/pg-sharding/shardroute/router/predicate"
	"github.com/pg-sharding/shardroute/router/qrouter"
	"github.com/pg-sharding/shardroute/router/route"
	"github.com/stretchr/testify/require"
)

func operand(v any, at int) predicate.Operand {
	switch op := v.(type) {
	case predicate.ParamMarker:
		op.Span = predicate.Span{Start: at, Stop: at + 1}
		return op
	case predicate.Operand:
		return op
	}
	return predicate.Literal{Span: predicate.Span{Start: at, Stop: at + 1}, Value: v}
}

func column(owner, name string, at int) predicate.ColumnRef {
	return predicate.ColumnRef{Span: predicate.Span{Start: at, Stop: at + 4}, Owner: owner, Name: name}
}

func cmpOp(owner, name, op string, v any, at int) predicate.BinaryPredicate {
	return predicate.BinaryPredicate{
		Span:     predicate.Span{Start: at, Stop: at + 9},
		Left:     column(owner, name, at),
		Operator: op,
		Right:    operand(v, at+8),
	}
}

func eq(owner, name string, v any, at int) predicate.BinaryPredicate {
	return cmpOp(owner, name, "=", v, at)
}

func in(owner, name string, at int, vals ...any) predicate.InPredicate {
	items := make([]predicate.Operand, 0, len(vals))
	for i, v := range vals {
		items = append(items, operand(v, at+10+2*i))
	}
	return predicate.InPredicate{
		Span: predicate.Span{Start: at, Stop: at + 11 + 2*len(vals)},
		Left: column(owner, name, at),
		List: predicate.ListExpr{Span: predicate.Span{Start: at + 9, Stop: at + 11 + 2*len(vals)}, Items: items},
	}
}

func between(owner, name string, lo, hi any, at int) predicate.BetweenPredicate {
	return predicate.BetweenPredicate{
		Span: predicate.Span{Start: at, Stop: at + 20},
		Left: column(owner, name, at),
		Low:  operand(lo, at+12),
		High: operand(hi, at+18),
	}
}

// unit builds a routing unit from logic/actual pairs.
func unit(ds string, pairs ...string) route.RoutingUnit {
	u := route.RoutingUnit{DataSource: ds}
	for i := 0; i+1 < len(pairs); i += 2 {
		u.Tables = append(u.Tables, route.TableUnit{LogicTable: pairs[i], ActualTable: pairs[i+1]})
	}
	return u
}

func strategy(column, alg string) *config.StrategyCfg {
	return &config.StrategyCfg{Type: config.StrategyStandard, ShardingColumns: column, Algorithm: alg}
}

func mod2() map[string]*config.AlgorithmCfg {
	return map[string]*config.AlgorithmCfg{
		"mod2": {Type: "MOD", Props: map[string]string{"sharding-count": "2"}},
	}
}

func newRouter(t *testing.T, cfg *config.RulesCfg) *qrouter.ShardingQrouter {
	mgr, err := rulemgr.NewMgr(cfg)
	require.NoError(t, err)
	return qrouter.NewQrouter(mgr)
}

// orderRouter shards t_order on order_id % 2 in both tiers over ds0, ds1.
func orderRouter(t *testing.T) *qrouter.ShardingQrouter {
	return newRouter(t, &config.RulesCfg{
		DataSources: []string{"ds0", "ds1"},
		Tables: []*config.TableCfg{{
			LogicTable:       "t_order",
			ActualDataNodes:  "ds${0..1}.t_order_${0..1}",
			DatabaseStrategy: strategy("order_id", "mod2"),
			TableStrategy:    strategy("order_id", "mod2"),
		}},
		Algorithms: mod2(),
	})
}

// userOrderCfg shards t_order by user_id then order_id, and t_user by
// user_id only. The tables are not bound.
func userOrderCfg() *config.RulesCfg {
	return &config.RulesCfg{
		DataSources: []string{"ds_0", "ds_1"},
		Tables: []*config.TableCfg{
			{
				LogicTable:       "t_order",
				ActualDataNodes:  "ds_${0..1}.t_order_${0..1}",
				DatabaseStrategy: strategy("user_id", "mod2"),
				TableStrategy:    strategy("order_id", "mod2"),
			},
			{
				LogicTable:       "t_user",
				ActualDataNodes:  "ds_${0..1}.t_user",
				DatabaseStrategy: strategy("user_id", "mod2"),
			},
		},
		Algorithms: mod2(),
	}
}

func selectFrom(forest predicate.Forest, tables ...string) *qrouter.Statement {
	stmt := &qrouter.Statement{Kind: qrouter.Select, Forest: forest}
	for _, t := range tables {
		stmt.Tables = append(stmt.Tables, tableRef(t))
	}
	return stmt
}

// tableRef parses "name [alias]".
func tableRef(s string) condition.TableRef {
	name, alias, _ := strings.Cut(s, " ")
	return condition.TableRef{Name: name, Alias: alias}
}
