package qrouter

import (
	"strings"

	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/pg-sharding/shardroute/pkg/models/shrule"
	"github.com/pg-sharding/shardroute/router/route"
)

// cluster is a set of statement tables that share placement: one binding
// group, or a lone table.
type cluster struct {
	primary *TableRoute
	binding *shrule.BindingTableRule
	members []string
}

func (c *cluster) units() ([]route.RoutingUnit, error) {
	var res []route.RoutingUnit
	for _, u := range c.primary.Result.Units {
		actual, _ := u.ActualTable(c.primary.LogicTable)
		tables := []route.TableUnit{{LogicTable: c.primary.LogicTable, ActualTable: actual}}
		for _, m := range c.members {
			other, err := c.binding.BindingActualTable(u.DataSource, m, c.primary.LogicTable, actual)
			if err != nil {
				return nil, err
			}
			tables = append(tables, route.TableUnit{LogicTable: m, ActualTable: other})
		}
		res = append(res, route.RoutingUnit{DataSource: u.DataSource, Tables: tables})
	}
	return res, nil
}

// compose joins per table routes into statement units. Bound tables share
// a unit; unrelated tables are combined as a cartesian product within each
// data source they have in common.
func compose(sr *shrule.ShardingRule, routes []*TableRoute) (*route.RoutingResult, error) {
	if len(routes) == 1 {
		return routes[0].Result, nil
	}

	var clusters []*cluster
outer:
	for _, tr := range routes {
		b, bound := sr.FindBindingRule(tr.LogicTable)
		if bound {
			for _, c := range clusters {
				if c.binding == b {
					c.members = append(c.members, tr.LogicTable)
					continue outer
				}
			}
		}
		c := &cluster{primary: tr}
		if bound {
			c.binding = b
		}
		clusters = append(clusters, c)
	}

	perCluster := make([][]route.RoutingUnit, 0, len(clusters))
	for _, c := range clusters {
		units, err := c.units()
		if err != nil {
			return nil, err
		}
		perCluster = append(perCluster, units)
	}

	res := route.NewRoutingResult()
	if len(perCluster) == 1 {
		for _, u := range perCluster[0] {
			res.Add(u)
		}
		return res, nil
	}

	for _, ds := range dataSourceOrder(perCluster[0]) {
		lists := make([][]route.RoutingUnit, 0, len(perCluster))
		for _, units := range perCluster {
			var in []route.RoutingUnit
			for _, u := range units {
				if u.DataSource == ds {
					in = append(in, u)
				}
			}
			lists = append(lists, in)
		}
		for _, u := range cartesian(ds, lists) {
			res.Add(u)
		}
	}

	if res.IsEmpty() {
		names := make([]string, 0, len(routes))
		for _, tr := range routes {
			names = append(names, tr.LogicTable)
		}
		return nil, routeerror.Newf(routeerror.ROUTE_NO_ROUTE,
			"tables %s have no routed data source in common", strings.Join(names, ", "))
	}
	return res, nil
}

func dataSourceOrder(units []route.RoutingUnit) []string {
	var res []string
	seen := map[string]struct{}{}
	for _, u := range units {
		if _, ok := seen[u.DataSource]; ok {
			continue
		}
		seen[u.DataSource] = struct{}{}
		res = append(res, u.DataSource)
	}
	return res
}

// cartesian combines one unit of every list into a single unit. Any empty
// list yields nothing.
func cartesian(ds string, lists [][]route.RoutingUnit) []route.RoutingUnit {
	acc := [][]route.TableUnit{nil}
	for _, list := range lists {
		var next [][]route.TableUnit
		for _, prefix := range acc {
			for _, u := range list {
				combined := append(append([]route.TableUnit(nil), prefix...), u.Tables...)
				next = append(next, combined)
			}
		}
		acc = next
	}

	res := make([]route.RoutingUnit, 0, len(acc))
	for _, tables := range acc {
		res = append(res, route.RoutingUnit{DataSource: ds, Tables: tables})
	}
	return res
}
