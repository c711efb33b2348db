package shrule

import (
	"context"

	"github.com/pg-sharding/shardroute/pkg/config"
)

// ShardingRulesMgr hands out the current rule snapshot. Snapshots are never
// mutated; Reload installs a new one.
type ShardingRulesMgr interface {
	ShardingRule() *ShardingRule
	EncryptRule() *EncryptRule
	Reload(ctx context.Context, cfg *config.RulesCfg) error
}
