package qrouter

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/pg-sharding/shardroute/pkg/models/shrule"
	"github.com/pg-sharding/shardroute/pkg/routelog"
	"github.com/pg-sharding/shardroute/router/condition"
	"github.com/pg-sharding/shardroute/router/insertvalue"
	"github.com/pg-sharding/shardroute/router/predicate"
	"github.com/pg-sharding/shardroute/router/route"
	"github.com/pg-sharding/shardroute/router/routehint"
	"golang.org/x/exp/slices"
)

type StatementKind int

const (
	Select = StatementKind(iota)
	Insert
	Update
	Delete
)

func (k StatementKind) String() string {
	switch k {
	case Insert:
		return "INSERT"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	}
	return "SELECT"
}

// Statement is the routing view of one parsed statement.
type Statement struct {
	Kind   StatementKind
	Tables []condition.TableRef
	Forest predicate.Forest
	Params []any

	// Rows are the VALUES tuples of an INSERT. Routing annotates each of
	// them with its data nodes.
	Rows []*insertvalue.Row
}

type QueryRouter interface {
	Route(ctx context.Context, stmt *Statement) (*route.RoutingResult, error)
}

type ShardingQrouter struct {
	mgr shrule.ShardingRulesMgr
}

var _ QueryRouter = &ShardingQrouter{}

func NewQrouter(mgr shrule.ShardingRulesMgr) *ShardingQrouter {
	return &ShardingQrouter{mgr: mgr}
}

// shardedTables lists the distinct statement tables that have a table rule.
func shardedTables(sr *shrule.ShardingRule, refs []condition.TableRef) []string {
	var res []string
	for _, ref := range refs {
		if !sr.HasTable(ref.Name) {
			continue
		}
		if slices.ContainsFunc(res, func(t string) bool { return strings.EqualFold(t, ref.Name) }) {
			continue
		}
		res = append(res, ref.Name)
	}
	return res
}

// groups places conditions into one slot per AND group of the statement.
func groups(conds []condition.Condition, n int) [][]condition.Condition {
	if n == 0 {
		n = 1
	}
	res := make([][]condition.Condition, n)
	for _, c := range conds {
		if c.Group >= 0 && c.Group < n {
			res[c.Group] = append(res[c.Group], c)
		}
	}
	return res
}

func (qr *ShardingQrouter) Route(ctx context.Context, stmt *Statement) (*route.RoutingResult, error) {
	sr := qr.mgr.ShardingRule()
	if sr == nil {
		return nil, routeerror.New(routeerror.ROUTE_CONFIG, "no sharding rule loaded")
	}
	routeID := uuid.NewString()

	tables := shardedTables(sr, stmt.Tables)
	if stmt.Kind != Select && len(tables) > 1 && !sr.IsAllBindingTables(tables) {
		return nil, routeerror.Newf(routeerror.ROUTE_UNSUPPORTED_MULTI_TABLE,
			"%s over tables %s that are not bound", stmt.Kind, strings.Join(tables, ", "))
	}

	if h, ok := routehint.FromContext(ctx); ok && h.DatabaseOnly {
		res, err := routeDatabaseOnly(sr, stmt.Tables, h)
		if err != nil {
			return nil, err
		}
		routelog.Zero.Debug().
			Str("route id", routeID).
			Str("units", res.String()).
			Msg("routed by database only hint")
		return res, nil
	}

	if len(tables) == 0 {
		return nil, routeerror.New(routeerror.ROUTE_NO_ROUTE, "statement references no sharded table")
	}

	var tableGroups [][]condition.Condition
	if stmt.Kind == Insert && len(stmt.Rows) > 0 {
		tableGroups = make([][]condition.Condition, len(stmt.Rows))
		for i, r := range stmt.Rows {
			tableGroups[i] = r.Conditions(tables[0], sr, i)
		}
	} else {
		conds, err := condition.Extract(stmt.Forest, sr, condition.NewTableResolver(stmt.Tables...), condition.ModeSharding)
		if err != nil {
			return nil, err
		}
		tableGroups = groups(conds, len(stmt.Forest))
	}

	routelog.Zero.Debug().
		Str("route id", routeID).
		Str("kind", stmt.Kind.String()).
		Strs("tables", tables).
		Int("condition groups", len(tableGroups)).
		Msg("routing statement")

	router := NewStandardRouter(sr)
	state := NewState()
	routes := make([]*TableRoute, 0, len(tables))
	for _, t := range tables {
		tr, err := router.Route(ctx, t, tableGroups, stmt.Params, state)
		if err != nil {
			routelog.Zero.Debug().Str("route id", routeID).Str("table", t).Err(err).Msg("failed to route table")
			return nil, err
		}
		routelog.Zero.Debug().
			Str("route id", routeID).
			Str("table", t).
			Str("units", tr.Result.String()).
			Msg("routed table")
		routes = append(routes, tr)
	}

	if stmt.Kind == Insert && len(stmt.Rows) > 0 {
		rule, _ := sr.FindTableRule(tables[0])
		reviseRows(stmt.Rows, routes[0], rule.ShardingColumns())
	}

	res, err := compose(sr, routes)
	if err != nil {
		return nil, err
	}
	routelog.Zero.Debug().
		Str("route id", routeID).
		Int("units", len(res.Units)).
		Str("result", res.String()).
		Msg("routed statement")
	return res, nil
}

// ProtectedConditions lists the conditions of stmt on encrypted columns, in
// statement order, so their values can be replaced before execution.
func (qr *ShardingQrouter) ProtectedConditions(stmt *Statement) ([]condition.Condition, error) {
	er := qr.mgr.EncryptRule()
	if er == nil {
		return nil, nil
	}
	conds, err := condition.Extract(stmt.Forest, er, condition.NewTableResolver(stmt.Tables...), condition.ModeEncrypt)
	if err != nil {
		return nil, err
	}
	routelog.Zero.Debug().
		Int("conditions", len(conds)).
		Msg("extracted protected column conditions")
	return conds, nil
}

// routeDatabaseOnly sends every statement table, untouched, to the hinted
// data sources.
func routeDatabaseOnly(sr *shrule.ShardingRule, refs []condition.TableRef, h *routehint.Hint) (*route.RoutingResult, error) {
	units := make([]route.TableUnit, 0, len(refs))
	for _, ref := range refs {
		units = append(units, route.TableUnit{LogicTable: ref.Name, ActualTable: ref.Name})
	}

	res := route.NewRoutingResult()
	for _, v := range h.DatabaseOnlyValues {
		ds := fmt.Sprint(v)
		if !slices.Contains(sr.DataSources, ds) {
			continue
		}
		res.Add(route.RoutingUnit{DataSource: ds, Tables: units})
	}
	if res.IsEmpty() {
		return nil, routeerror.Newf(routeerror.ROUTE_NO_ROUTE, "database only hint %v names no known data source", h.DatabaseOnlyValues)
	}
	return res, nil
}
