package shrule

import (
	"strings"

	"github.com/pg-sharding/shardroute/pkg/config"
)

// EncryptRule lists the protected columns per logic table.
type EncryptRule struct {
	columns map[string]map[string]struct{}
}

func NewEncryptRule(cfgs []*config.EncryptTableCfg) *EncryptRule {
	er := &EncryptRule{columns: map[string]map[string]struct{}{}}
	for _, c := range cfgs {
		cols, ok := er.columns[strings.ToLower(c.Table)]
		if !ok {
			cols = map[string]struct{}{}
			er.columns[strings.ToLower(c.Table)] = cols
		}
		for _, col := range c.Columns {
			cols[strings.ToLower(col)] = struct{}{}
		}
	}
	return er
}

func (er *EncryptRule) IsInteresting(column, table string) bool {
	cols, ok := er.columns[strings.ToLower(table)]
	if !ok {
		return false
	}
	_, ok = cols[strings.ToLower(column)]
	return ok
}

func (er *EncryptRule) HasTable(table string) bool {
	_, ok := er.columns[strings.ToLower(table)]
	return ok
}
