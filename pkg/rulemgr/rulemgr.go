package rulemgr

import (
	"context"
	"sync"

	"github.com/pg-sharding/shardroute/pkg/config"
	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/pg-sharding/shardroute/pkg/models/shrule"
	"github.com/pg-sharding/shardroute/pkg/routelog"
	"go.uber.org/atomic"
)

// Snapshot is one immutable generation of rules.
type Snapshot struct {
	Sharding *shrule.ShardingRule
	Encrypt  *shrule.EncryptRule
	Cfg      *config.RulesCfg
	Version  int64
}

type RulesMgrImpl struct {
	// serializes reloads, readers never take it
	mu sync.Mutex

	snap    *atomic.Pointer[Snapshot]
	version atomic.Int64
}

var _ shrule.ShardingRulesMgr = &RulesMgrImpl{}

func NewMgr(cfg *config.RulesCfg) (*RulesMgrImpl, error) {
	m := &RulesMgrImpl{snap: atomic.NewPointer[Snapshot](nil)}
	if err := m.Reload(context.Background(), cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMgrFromRules installs prebuilt rules, for tooling and tests.
func NewMgrFromRules(sr *shrule.ShardingRule, er *shrule.EncryptRule) *RulesMgrImpl {
	m := &RulesMgrImpl{snap: atomic.NewPointer[Snapshot](nil)}
	if er == nil {
		er = shrule.NewEncryptRule(nil)
	}
	m.snap.Store(&Snapshot{Sharding: sr, Encrypt: er, Version: m.version.Inc()})
	return m
}

func (m *RulesMgrImpl) Snapshot() *Snapshot {
	return m.snap.Load()
}

func (m *RulesMgrImpl) ShardingRule() *shrule.ShardingRule {
	if s := m.snap.Load(); s != nil {
		return s.Sharding
	}
	return nil
}

func (m *RulesMgrImpl) EncryptRule() *shrule.EncryptRule {
	if s := m.snap.Load(); s != nil {
		return s.Encrypt
	}
	return nil
}

// Reload builds a new generation from cfg and swaps it in. On error the
// current generation stays in place.
func (m *RulesMgrImpl) Reload(_ context.Context, cfg *config.RulesCfg) error {
	if cfg == nil {
		return routeerror.New(routeerror.ROUTE_CONFIG, "empty rules config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sr, err := shrule.NewShardingRule(cfg)
	if err != nil {
		routelog.Zero.Error().Err(err).Msg("failed to build sharding rule, keeping previous rules")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := &Snapshot{
		Sharding: sr,
		Encrypt:  shrule.NewEncryptRule(cfg.Encrypt),
		Cfg:      cfg,
		Version:  m.version.Inc(),
	}
	m.snap.Store(next)

	routelog.Zero.Info().Int64("version", next.Version).Msg("installed rules")
	return nil
}

// ReloadFile re-reads the rules file, applies its log level and installs it.
func (m *RulesMgrImpl) ReloadFile(ctx context.Context, path string) error {
	cfg, err := config.LoadRulesCfg(path)
	if err != nil {
		return err
	}
	if err := routelog.UpdateZeroLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return m.Reload(ctx, cfg)
}
