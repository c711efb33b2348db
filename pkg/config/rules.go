package config

import (
	"encoding/json"
	"os"

	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/pg-sharding/shardroute/pkg/routelog"
	"github.com/pkg/errors"
)

type StrategyType string

const (
	StrategyStandard = StrategyType("standard")
	StrategyComplex  = StrategyType("complex")
	StrategyHint     = StrategyType("hint")
	StrategyNone     = StrategyType("none")
)

type RulesCfg struct {
	LogLevel string `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" toml:"log_file" yaml:"log_file"`

	// Upper bound of partitions any single algorithm may derive from its
	// properties. Zero means the default.
	MaxIntervalPartitions int `json:"max_interval_partitions" toml:"max_interval_partitions" yaml:"max_interval_partitions"`

	DataSources   []string                 `json:"data_sources" toml:"data_sources" yaml:"data_sources"`
	Tables        []*TableCfg              `json:"tables" toml:"tables" yaml:"tables"`
	BindingTables []string                 `json:"binding_tables" toml:"binding_tables" yaml:"binding_tables"`
	Algorithms    map[string]*AlgorithmCfg `json:"algorithms" toml:"algorithms" yaml:"algorithms"`

	DefaultDatabaseStrategy *StrategyCfg `json:"default_database_strategy" toml:"default_database_strategy" yaml:"default_database_strategy"`
	DefaultTableStrategy    *StrategyCfg `json:"default_table_strategy" toml:"default_table_strategy" yaml:"default_table_strategy"`

	Encrypt []*EncryptTableCfg `json:"encrypt" toml:"encrypt" yaml:"encrypt"`
}

type TableCfg struct {
	LogicTable string `json:"logic_table" toml:"logic_table" yaml:"logic_table"`
	// Inline expression such as ds_${0..1}.t_order_${0..1}. Empty means
	// the logic table itself in every data source.
	ActualDataNodes  string       `json:"actual_data_nodes" toml:"actual_data_nodes" yaml:"actual_data_nodes"`
	DatabaseStrategy *StrategyCfg `json:"database_strategy" toml:"database_strategy" yaml:"database_strategy"`
	TableStrategy    *StrategyCfg `json:"table_strategy" toml:"table_strategy" yaml:"table_strategy"`
}

type StrategyCfg struct {
	Type StrategyType `json:"type" toml:"type" yaml:"type"`
	// Comma separated for complex strategies.
	ShardingColumns string `json:"sharding_columns" toml:"sharding_columns" yaml:"sharding_columns"`
	Algorithm       string `json:"algorithm" toml:"algorithm" yaml:"algorithm"`
}

type AlgorithmCfg struct {
	Type  string            `json:"type" toml:"type" yaml:"type"`
	Props map[string]string `json:"props" toml:"props" yaml:"props"`
}

type EncryptTableCfg struct {
	Table   string   `json:"table" toml:"table" yaml:"table"`
	Columns []string `json:"columns" toml:"columns" yaml:"columns"`
}

// LoadRulesCfg reads a rule file in toml, yaml or json format.
func LoadRulesCfg(cfgPath string) (*RulesCfg, error) {
	file, err := os.Open(cfgPath)
	if err != nil {
		return nil, err
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			routelog.Zero.Error().Err(err).Str("path", cfgPath).Msg("failed to close config file")
		}
	}(file)

	var cfg RulesCfg
	if err := initConfig(file, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", cfgPath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	routelog.Zero.Info().Msgf("Running config: %s", configBytes)

	return &cfg, nil
}

// Validate performs the structural checks that need no algorithm knowledge.
func (c *RulesCfg) Validate() error {
	if len(c.DataSources) == 0 {
		return routeerror.New(routeerror.ROUTE_CONFIG, "no data sources declared")
	}
	if c.MaxIntervalPartitions < 0 {
		return routeerror.Newf(routeerror.ROUTE_CONFIG, "max_interval_partitions must not be negative, got %d", c.MaxIntervalPartitions)
	}

	seen := map[string]struct{}{}
	for _, t := range c.Tables {
		if t.LogicTable == "" {
			return routeerror.New(routeerror.ROUTE_CONFIG, "table rule without logic_table")
		}
		if _, ok := seen[t.LogicTable]; ok {
			return routeerror.Newf(routeerror.ROUTE_CONFIG, "duplicate table rule for %s", t.LogicTable)
		}
		seen[t.LogicTable] = struct{}{}

		for _, s := range []*StrategyCfg{t.DatabaseStrategy, t.TableStrategy} {
			if err := s.validate(c.Algorithms); err != nil {
				return errors.WithMessagef(err, "table %s", t.LogicTable)
			}
		}
	}
	for _, s := range []*StrategyCfg{c.DefaultDatabaseStrategy, c.DefaultTableStrategy} {
		if err := s.validate(c.Algorithms); err != nil {
			return errors.WithMessage(err, "default strategy")
		}
	}
	return nil
}

func (s *StrategyCfg) validate(algorithms map[string]*AlgorithmCfg) error {
	if s == nil {
		return nil
	}
	switch s.Type {
	case StrategyNone, "":
		return nil
	case StrategyStandard, StrategyComplex:
		if s.ShardingColumns == "" {
			return routeerror.Newf(routeerror.ROUTE_CONFIG, "%s strategy requires sharding_columns", s.Type)
		}
	case StrategyHint:
	default:
		return routeerror.Newf(routeerror.ROUTE_CONFIG, "unknown strategy type %q", s.Type)
	}
	if _, ok := algorithms[s.Algorithm]; !ok {
		return routeerror.Newf(routeerror.ROUTE_CONFIG, "unknown sharding algorithm %q", s.Algorithm)
	}
	return nil
}
