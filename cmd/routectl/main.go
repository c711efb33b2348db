package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pg-sharding/shardroute/pkg"
	"github.com/pg-sharding/shardroute/pkg/config"
	"github.com/pg-sharding/shardroute/pkg/routelog"
	"github.com/pg-sharding/shardroute/pkg/rulemgr"
	"github.com/pg-sharding/shardroute/router/insertvalue"
	"github.com/pg-sharding/shardroute/router/predicate"
	"github.com/pg-sharding/shardroute/router/qrouter"
	"github.com/pg-sharding/shardroute/router/routehint"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type options struct {
	cfgPath  string
	logLevel string
}

type routeOptions struct {
	tables   []string
	where    []string
	rows     []string
	kind     string
	dbHint   []string
	tblHint  []string
	onlyHint []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "routectl -c rules.yaml",
		Short: "routectl inspects sharding rules and routes statements against them",
		Long:  "routectl loads a sharding rule config and prints the data nodes a statement would be routed to",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "rules.yaml", "path to sharding rules config")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "", "overrides log_level of the config")

	rootCmd.AddCommand(
		newCheckCmd(opts),
		newRouteCmd(opts),
		newPartitionsCmd(opts),
		newProtectedCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func loadMgr(opts *options) (*rulemgr.RulesMgrImpl, error) {
	cfg, err := config.LoadRulesCfg(opts.cfgPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load rules config")
	}
	routelog.ReloadLogger(cfg.LogFile)

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	if err := routelog.UpdateZeroLogLevel(level); err != nil {
		return nil, err
	}

	mgr, err := rulemgr.NewMgr(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build sharding rule")
	}
	return mgr, nil
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "validate the config and list table rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadMgr(opts)
			if err != nil {
				return err
			}
			sr := mgr.ShardingRule()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "data sources: %s\n", strings.Join(sr.DataSources, ", "))
			for _, tr := range sr.TableRules() {
				bound := ""
				if b, ok := sr.FindBindingRule(tr.LogicTable); ok {
					var names []string
					for _, t := range b.Tables {
						names = append(names, t.LogicTable)
					}
					bound = " bound with " + strings.Join(names, ",")
				}
				fmt.Fprintf(out, "%s: %d nodes, database %s%v, table %s%v%s\n",
					tr.LogicTable, len(tr.ActualDataNodes),
					tr.DatabaseStrategy.Kind, tr.DatabaseStrategy.Columns,
					tr.TableStrategy.Kind, tr.TableStrategy.Columns,
					bound)
			}
			return nil
		},
	}
}

func newPartitionsCmd(opts *options) *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "partitions -t table",
		Short: "print actual data nodes of a logic table",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadMgr(opts)
			if err != nil {
				return err
			}
			tr, ok := mgr.ShardingRule().FindTableRule(table)
			if !ok {
				return errors.Errorf("no table rule for %q", table)
			}
			for _, n := range tr.ActualDataNodes {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "", "logic table")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func (ro *routeOptions) statement() (*qrouter.Statement, error) {
	stmt := &qrouter.Statement{Tables: parseTables(ro.tables)}
	if len(stmt.Tables) == 0 {
		return nil, errors.New("at least one table is required")
	}

	switch strings.ToLower(ro.kind) {
	case "", "select":
		stmt.Kind = qrouter.Select
	case "update":
		stmt.Kind = qrouter.Update
	case "delete":
		stmt.Kind = qrouter.Delete
	case "insert":
		stmt.Kind = qrouter.Insert
	default:
		return nil, errors.Errorf("unknown statement kind %q", ro.kind)
	}

	if len(ro.rows) > 0 {
		stmt.Kind = qrouter.Insert
		var (
			columns []string
			tuples  [][]predicate.Operand
		)
		for i, r := range ro.rows {
			cols, vals, err := parseRow(r, i)
			if err != nil {
				return nil, err
			}
			if columns == nil {
				columns = cols
			} else if strings.Join(cols, ",") != strings.Join(columns, ",") {
				return nil, errors.Errorf("row %d lists columns %v, expected %v", i, cols, columns)
			}
			tuples = append(tuples, vals)
		}
		rows, err := insertvalue.Assemble(columns, tuples, nil)
		if err != nil {
			return nil, err
		}
		stmt.Rows = rows
	}

	if len(ro.where) > 0 {
		group := predicate.AndGroup{}
		for i, w := range ro.where {
			p, err := parsePredicate(w, i)
			if err != nil {
				return nil, err
			}
			group = append(group, p)
		}
		stmt.Forest = predicate.Forest{group}
	}
	return stmt, nil
}

func (ro *routeOptions) hint() (*routehint.Hint, error) {
	if len(ro.dbHint)+len(ro.tblHint)+len(ro.onlyHint) == 0 {
		return nil, nil
	}
	h := routehint.NewHint()
	add := func(specs []string, f func(string, ...any) *routehint.Hint) error {
		for _, s := range specs {
			table, value, ok := strings.Cut(s, "=")
			if !ok {
				return errors.Errorf("expected table=value hint, got %q", s)
			}
			f(strings.TrimSpace(table), hintValue(value))
		}
		return nil
	}
	if err := add(ro.dbHint, h.AddDatabaseValue); err != nil {
		return nil, err
	}
	if err := add(ro.tblHint, h.AddTableValue); err != nil {
		return nil, err
	}
	if len(ro.onlyHint) > 0 {
		values := make([]any, 0, len(ro.onlyHint))
		for _, v := range ro.onlyHint {
			values = append(values, v)
		}
		h.SetDatabaseOnly(values...)
	}
	return h, nil
}

func hintValue(s string) any {
	if lit, ok := parseLiteral(s, 0).(predicate.Literal); ok {
		return lit.Value
	}
	return nil
}

func newRouteCmd(opts *options) *cobra.Command {
	ro := &routeOptions{}
	cmd := &cobra.Command{
		Use:   "route -t table [-w predicate]... [--row col=v,...]...",
		Short: "print routing units of a statement",
		Example: `  routectl route -t t_order -w "order_id = 13"
  routectl route -t "t_order o" -t "t_order_item i" -w "o.user_id in 1,2"
  routectl route -t t_order --row "user_id=1,order_id=10" --row "user_id=2,order_id=11"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadMgr(opts)
			if err != nil {
				return err
			}
			stmt, err := ro.statement()
			if err != nil {
				return err
			}
			h, err := ro.hint()
			if err != nil {
				return err
			}

			ctx := context.Background()
			if h != nil {
				ctx = routehint.WithHint(ctx, h)
			}

			res, err := qrouter.NewQrouter(mgr).Route(ctx, stmt)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, u := range res.Units {
				fmt.Fprintln(out, u)
			}
			for _, r := range stmt.Rows {
				nodes := make([]string, 0, len(r.DataNodes))
				for _, n := range r.DataNodes {
					nodes = append(nodes, n.String())
				}
				fmt.Fprintf(out, "row %d: %s\n", r.Index, strings.Join(nodes, " "))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&ro.tables, "table", "t", nil, "table, optionally followed by an alias")
	cmd.Flags().StringArrayVarP(&ro.where, "where", "w", nil, "predicate ANDed into the WHERE clause")
	cmd.Flags().StringArrayVar(&ro.rows, "row", nil, "INSERT row as col=value pairs")
	cmd.Flags().StringVarP(&ro.kind, "kind", "k", "select", "statement kind: select, insert, update or delete")
	cmd.Flags().StringArrayVar(&ro.dbHint, "hint-database", nil, "table=value database sharding hint")
	cmd.Flags().StringArrayVar(&ro.tblHint, "hint-table", nil, "table=value table sharding hint")
	cmd.Flags().StringArrayVar(&ro.onlyHint, "hint-database-only", nil, "route to this data source only")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func newProtectedCmd(opts *options) *cobra.Command {
	ro := &routeOptions{}
	cmd := &cobra.Command{
		Use:     "protected -t table [-w predicate]...",
		Short:   "print conditions on encrypted columns",
		Example: `  routectl protected -t t_user -w "phone = '555'" -w "user_id = 1"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadMgr(opts)
			if err != nil {
				return err
			}
			stmt, err := ro.statement()
			if err != nil {
				return err
			}

			conds, err := qrouter.NewQrouter(mgr).ProtectedConditions(stmt)
			if err != nil {
				return err
			}
			for _, c := range conds {
				values, err := c.Materialize(stmt.Params)
				if err != nil {
					return err
				}
				op := c.Operator.String()
				if c.Negated {
					op = "NOT " + op
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s.%s %s %v\n", c.Column.Table, c.Column.Name, op, values)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&ro.tables, "table", "t", nil, "table, optionally followed by an alias")
	cmd.Flags().StringArrayVarP(&ro.where, "where", "w", nil, "predicate ANDed into the WHERE clause")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print routectl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "routectl %s\n", pkg.ShardrouteVersionRevision)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		routelog.Zero.Error().Err(err).Msg("")
		os.Exit(1)
	}
}
