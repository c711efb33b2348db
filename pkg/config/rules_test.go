package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRulesCfgFormats(t *testing.T) {
	assert := assert.New(t)

	yamlCfg, err := LoadRulesCfg("testdata/rules.yaml")
	require.NoError(t, err)

	assert.Equal("debug", yamlCfg.LogLevel)
	assert.Equal(1024, yamlCfg.MaxIntervalPartitions)
	assert.Equal([]string{"ds_0", "ds_1"}, yamlCfg.DataSources)
	assert.Len(yamlCfg.Tables, 2)
	assert.Equal("ds_${0..1}.t_order_${0..1}", yamlCfg.Tables[0].ActualDataNodes)
	assert.Equal(StrategyStandard, yamlCfg.Tables[0].DatabaseStrategy.Type)
	assert.Equal("t_order_${order_id % 2}", yamlCfg.Algorithms["table_inline"].Props["algorithm-expression"])
	assert.Equal([]string{"pwd", "phone"}, yamlCfg.Encrypt[0].Columns)

	for _, path := range []string{"testdata/rules.toml", "testdata/rules.json"} {
		cfg, err := LoadRulesCfg(path)
		assert.NoError(err, path)
		assert.Equal(yamlCfg, cfg, path)
	}
}

func TestLoadRulesCfgErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := LoadRulesCfg("testdata/missing.yaml")
	assert.Error(err)

	dir := t.TempDir()

	unknown := filepath.Join(dir, "rules.ini")
	require.NoError(t, os.WriteFile(unknown, []byte("x=1"), 0o644))
	_, err = LoadRulesCfg(unknown)
	assert.ErrorContains(err, "unknown config format type")

	type tcase struct {
		body string
		msg  string
	}

	for _, tt := range []tcase{
		{
			body: "tables: []\n",
			msg:  "no data sources declared",
		},
		{
			body: "data_sources: [ds_0]\ntables:\n  - actual_data_nodes: ds_0.t\n",
			msg:  "table rule without logic_table",
		},
		{
			body: "data_sources: [ds_0]\ntables:\n  - logic_table: t\n  - logic_table: t\n",
			msg:  "duplicate table rule for t",
		},
		{
			body: "data_sources: [ds_0]\ntables:\n  - logic_table: t\n    table_strategy: {type: standard, sharding_columns: id, algorithm: nope}\n",
			msg:  `unknown sharding algorithm "nope"`,
		},
		{
			body: "data_sources: [ds_0]\ntables:\n  - logic_table: t\n    table_strategy: {type: standard, algorithm: a}\nalgorithms:\n  a: {type: MOD}\n",
			msg:  "standard strategy requires sharding_columns",
		},
		{
			body: "data_sources: [ds_0]\ndefault_table_strategy: {type: random}\n",
			msg:  `unknown strategy type "random"`,
		},
	} {
		path := filepath.Join(dir, "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

		_, err := LoadRulesCfg(path)
		assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG), tt.body)
		assert.ErrorContains(err, tt.msg)
	}
}
