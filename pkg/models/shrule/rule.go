package shrule

import (
	"strings"

	"github.com/pg-sharding/shardroute/pkg/algorithm"
	"github.com/pg-sharding/shardroute/pkg/config"
	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/pg-sharding/shardroute/pkg/routelog"
	"github.com/pkg/errors"
)

type TableRule struct {
	LogicTable       string
	ActualDataNodes  []DataNode
	DatabaseStrategy *Strategy
	TableStrategy    *Strategy

	dataSources []string
	tablesByDS  map[string][]string
}

func NewTableRule(logicTable string, nodes []DataNode, dbStrategy, tblStrategy *Strategy) (*TableRule, error) {
	if len(nodes) == 0 {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "table %s has no actual data nodes", logicTable)
	}
	if dbStrategy == nil {
		dbStrategy = NoneStrategy
	}
	if tblStrategy == nil {
		tblStrategy = NoneStrategy
	}

	tr := &TableRule{
		LogicTable:       logicTable,
		ActualDataNodes:  nodes,
		DatabaseStrategy: dbStrategy,
		TableStrategy:    tblStrategy,
		tablesByDS:       map[string][]string{},
	}
	seen := map[DataNode]struct{}{}
	for _, n := range nodes {
		if _, ok := seen[n]; ok {
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "table %s lists data node %s twice", logicTable, n)
		}
		seen[n] = struct{}{}

		if _, ok := tr.tablesByDS[n.DataSource]; !ok {
			tr.dataSources = append(tr.dataSources, n.DataSource)
		}
		tr.tablesByDS[n.DataSource] = append(tr.tablesByDS[n.DataSource], n.Table)
	}
	return tr, nil
}

// DataSourceNames lists the data sources in data node order.
func (tr *TableRule) DataSourceNames() []string {
	return tr.dataSources
}

// ActualTables lists the physical tables of the rule inside one data source.
func (tr *TableRule) ActualTables(dataSource string) []string {
	return tr.tablesByDS[dataSource]
}

func (tr *TableRule) ActualTableIndex(dataSource, actualTable string) int {
	for i, t := range tr.tablesByDS[dataSource] {
		if t == actualTable {
			return i
		}
	}
	return -1
}

func (tr *TableRule) ShardingColumns() []string {
	var cols []string
	seen := map[string]struct{}{}
	for _, s := range []*Strategy{tr.DatabaseStrategy, tr.TableStrategy} {
		for _, c := range s.Columns {
			k := strings.ToLower(c)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, c)
		}
	}
	return cols
}

func (tr *TableRule) IsShardingColumn(column string) bool {
	return tr.DatabaseStrategy.HasColumn(column) || tr.TableStrategy.HasColumn(column)
}

// BindingTableRule groups logic tables that always route identically.
type BindingTableRule struct {
	Tables []*TableRule
}

func (b *BindingTableRule) HasLogicTable(table string) bool {
	return b.find(table) != nil
}

func (b *BindingTableRule) find(table string) *TableRule {
	for _, t := range b.Tables {
		if strings.EqualFold(t.LogicTable, table) {
			return t
		}
	}
	return nil
}

// BindingActualTable maps otherActual of otherLogic to the table of logic at
// the same position inside dataSource.
func (b *BindingTableRule) BindingActualTable(dataSource, logic, otherLogic, otherActual string) (string, error) {
	self, other := b.find(logic), b.find(otherLogic)
	if self == nil || other == nil {
		return "", routeerror.Newf(routeerror.ROUTE_CONFIG, "tables %s and %s are not bound", logic, otherLogic)
	}
	idx := other.ActualTableIndex(dataSource, otherActual)
	tables := self.ActualTables(dataSource)
	if idx < 0 || idx >= len(tables) {
		return "", routeerror.Newf(routeerror.ROUTE_CONFIG,
			"cannot find binding actual table of %s for %s.%s", logic, dataSource, otherActual)
	}
	return tables[idx], nil
}

// ShardingRule is the immutable, load-time view of the sharding config.
type ShardingRule struct {
	DataSources []string

	tables     map[string]*TableRule
	tableOrder []string
	bindings   []*BindingTableRule
}

func NewShardingRule(cfg *config.RulesCfg) (*ShardingRule, error) {
	opts := algorithm.Options{MaxPartitions: cfg.MaxIntervalPartitions}

	algs := map[string]algorithm.Algorithm{}
	for name, acfg := range cfg.Algorithms {
		alg, err := algorithm.New(acfg.Type, algorithm.Props(acfg.Props), opts)
		if err != nil {
			return nil, errors.WithMessagef(err, "algorithm %s", name)
		}
		algs[name] = alg
	}

	buildStrategy := func(scfg *config.StrategyCfg, def *config.StrategyCfg) (*Strategy, error) {
		if scfg == nil {
			scfg = def
		}
		if scfg == nil {
			return NoneStrategy, nil
		}
		alg := algs[scfg.Algorithm]
		switch scfg.Type {
		case config.StrategyNone, "":
			return NoneStrategy, nil
		case config.StrategyStandard:
			cols := splitColumns(scfg.ShardingColumns)
			if len(cols) != 1 {
				return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "standard strategy takes exactly one sharding column, got %q", scfg.ShardingColumns)
			}
			if alg == nil {
				return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "unknown sharding algorithm %q", scfg.Algorithm)
			}
			return NewStandardStrategy(cols[0], alg), nil
		case config.StrategyComplex:
			if alg == nil {
				return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "unknown sharding algorithm %q", scfg.Algorithm)
			}
			return NewComplexStrategy(splitColumns(scfg.ShardingColumns), alg), nil
		case config.StrategyHint:
			if alg == nil {
				return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "unknown sharding algorithm %q", scfg.Algorithm)
			}
			return NewHintStrategy(alg), nil
		default:
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "unknown strategy type %q", scfg.Type)
		}
	}

	declared := map[string]struct{}{}
	for _, ds := range cfg.DataSources {
		declared[ds] = struct{}{}
	}

	sr := &ShardingRule{
		DataSources: cfg.DataSources,
		tables:      map[string]*TableRule{},
	}

	for _, tcfg := range cfg.Tables {
		nodes, err := buildDataNodes(tcfg, cfg.DataSources)
		if err != nil {
			return nil, errors.WithMessagef(err, "table %s", tcfg.LogicTable)
		}
		for _, n := range nodes {
			if _, ok := declared[n.DataSource]; !ok {
				return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "table %s refers to undeclared data source %s", tcfg.LogicTable, n.DataSource)
			}
		}

		dbs, err := buildStrategy(tcfg.DatabaseStrategy, cfg.DefaultDatabaseStrategy)
		if err != nil {
			return nil, errors.WithMessagef(err, "table %s", tcfg.LogicTable)
		}
		tbs, err := buildStrategy(tcfg.TableStrategy, cfg.DefaultTableStrategy)
		if err != nil {
			return nil, errors.WithMessagef(err, "table %s", tcfg.LogicTable)
		}

		tr, err := NewTableRule(tcfg.LogicTable, nodes, dbs, tbs)
		if err != nil {
			return nil, err
		}
		sr.tables[strings.ToLower(tcfg.LogicTable)] = tr
		sr.tableOrder = append(sr.tableOrder, tcfg.LogicTable)
	}

	for _, group := range cfg.BindingTables {
		b := &BindingTableRule{}
		for _, name := range splitColumns(group) {
			tr, ok := sr.FindTableRule(name)
			if !ok {
				return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "binding table %s has no table rule", name)
			}
			if _, bound := sr.FindBindingRule(name); bound || b.HasLogicTable(name) {
				return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "table %s is bound more than once", name)
			}
			b.Tables = append(b.Tables, tr)
		}
		if err := b.validate(); err != nil {
			return nil, err
		}
		sr.bindings = append(sr.bindings, b)
	}

	routelog.Zero.Info().
		Int("tables", len(sr.tables)).
		Int("binding groups", len(sr.bindings)).
		Strs("data sources", sr.DataSources).
		Msg("loaded sharding rule")
	return sr, nil
}

// validate checks members share their data sources and table counts, which
// index based binding relies on.
func (b *BindingTableRule) validate() error {
	if len(b.Tables) < 2 {
		return nil
	}
	first := b.Tables[0]
	for _, t := range b.Tables[1:] {
		if len(t.DataSourceNames()) != len(first.DataSourceNames()) {
			return routeerror.Newf(routeerror.ROUTE_CONFIG, "binding tables %s and %s differ in data sources", first.LogicTable, t.LogicTable)
		}
		for _, ds := range first.DataSourceNames() {
			if len(t.ActualTables(ds)) != len(first.ActualTables(ds)) {
				return routeerror.Newf(routeerror.ROUTE_CONFIG,
					"binding tables %s and %s differ in actual tables of %s", first.LogicTable, t.LogicTable, ds)
			}
		}
	}
	return nil
}

func buildDataNodes(tcfg *config.TableCfg, dataSources []string) ([]DataNode, error) {
	if strings.TrimSpace(tcfg.ActualDataNodes) == "" {
		nodes := make([]DataNode, 0, len(dataSources))
		for _, ds := range dataSources {
			nodes = append(nodes, DataNode{DataSource: ds, Table: tcfg.LogicTable})
		}
		return nodes, nil
	}

	exprs, err := ExpandInline(tcfg.ActualDataNodes)
	if err != nil {
		return nil, err
	}
	nodes := make([]DataNode, 0, len(exprs))
	for _, e := range exprs {
		n, err := ParseDataNode(e, tcfg.LogicTable)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func splitColumns(s string) []string {
	var res []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}

// NewShardingRuleFromTables assembles a rule from prebuilt table rules.
func NewShardingRuleFromTables(dataSources []string, tables []*TableRule, bindings [][]string) (*ShardingRule, error) {
	sr := &ShardingRule{DataSources: dataSources, tables: map[string]*TableRule{}}
	for _, t := range tables {
		sr.tables[strings.ToLower(t.LogicTable)] = t
		sr.tableOrder = append(sr.tableOrder, t.LogicTable)
	}
	for _, group := range bindings {
		b := &BindingTableRule{}
		for _, name := range group {
			tr, ok := sr.FindTableRule(name)
			if !ok {
				return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "binding table %s has no table rule", name)
			}
			b.Tables = append(b.Tables, tr)
		}
		if err := b.validate(); err != nil {
			return nil, err
		}
		sr.bindings = append(sr.bindings, b)
	}
	return sr, nil
}

func (sr *ShardingRule) FindTableRule(logicTable string) (*TableRule, bool) {
	tr, ok := sr.tables[strings.ToLower(logicTable)]
	return tr, ok
}

func (sr *ShardingRule) TableRules() []*TableRule {
	res := make([]*TableRule, 0, len(sr.tableOrder))
	for _, name := range sr.tableOrder {
		res = append(res, sr.tables[strings.ToLower(name)])
	}
	return res
}

func (sr *ShardingRule) FindBindingRule(logicTable string) (*BindingTableRule, bool) {
	for _, b := range sr.bindings {
		if b.HasLogicTable(logicTable) {
			return b, true
		}
	}
	return nil, false
}

// IsAllBindingTables reports whether all given tables are sharded and belong
// to one binding group.
func (sr *ShardingRule) IsAllBindingTables(tables []string) bool {
	if len(tables) == 0 {
		return false
	}
	b, ok := sr.FindBindingRule(tables[0])
	if !ok {
		return false
	}
	for _, t := range tables[1:] {
		if !b.HasLogicTable(t) {
			return false
		}
	}
	return true
}

// IsBound reports whether two logic tables are the same or bound together.
func (sr *ShardingRule) IsBound(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	br, ok := sr.FindBindingRule(a)
	return ok && br.HasLogicTable(b)
}

// IsInteresting reports whether column of table is a sharding column.
func (sr *ShardingRule) IsInteresting(column, table string) bool {
	tr, ok := sr.FindTableRule(table)
	return ok && tr.IsShardingColumn(column)
}

func (sr *ShardingRule) HasTable(table string) bool {
	_, ok := sr.FindTableRule(table)
	return ok
}
