package shrule

import (
	"strings"

	"github.com/pg-sharding/shardroute/pkg/algorithm"
)

type StrategyKind int

const (
	StrategyNone = StrategyKind(iota)
	StrategyStandard
	StrategyComplex
	StrategyHint
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyStandard:
		return "standard"
	case StrategyComplex:
		return "complex"
	case StrategyHint:
		return "hint"
	}
	return "none"
}

// Strategy decides one tier (data source or table) of a table rule.
type Strategy struct {
	Kind      StrategyKind
	Columns   []string
	Algorithm algorithm.Algorithm
}

var NoneStrategy = &Strategy{Kind: StrategyNone}

func NewStandardStrategy(column string, alg algorithm.Algorithm) *Strategy {
	return &Strategy{Kind: StrategyStandard, Columns: []string{column}, Algorithm: alg}
}

func NewComplexStrategy(columns []string, alg algorithm.Algorithm) *Strategy {
	return &Strategy{Kind: StrategyComplex, Columns: columns, Algorithm: alg}
}

func NewHintStrategy(alg algorithm.Algorithm) *Strategy {
	return &Strategy{Kind: StrategyHint, Algorithm: alg}
}

func (s *Strategy) HasColumn(column string) bool {
	for _, c := range s.Columns {
		if strings.EqualFold(c, column) {
			return true
		}
	}
	return false
}

// DoSharding applies the strategy. None and empty values keep every
// candidate; only column-bound strategies see column values.
func (s *Strategy) DoSharding(available []string, values []algorithm.ShardingValue) ([]string, error) {
	if s.Kind == StrategyNone || len(values) == 0 {
		return append([]string(nil), available...), nil
	}
	return s.Algorithm.DoSharding(available, values)
}
