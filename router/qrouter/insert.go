package qrouter

import (
	"github.com/pg-sharding/shardroute/pkg/routelog"
	"github.com/pg-sharding/shardroute/router/insertvalue"
)

// reviseRows hands every row the data nodes of each condition group whose
// key it carries. Matching is by value, so rows sharing a key share nodes.
func reviseRows(rows []*insertvalue.Row, tr *TableRoute, shardingColumns []string) {
	for _, g := range tr.Groups {
		for _, row := range rows {
			if !row.Matches(g.Key, shardingColumns) {
				continue
			}
			row.AddDataNodes(g.Nodes...)
			routelog.Zero.Debug().
				Int("row", row.Index).
				Str("key", g.String()).
				Int("data nodes", len(g.Nodes)).
				Msg("revised insert row")
		}
	}
}
