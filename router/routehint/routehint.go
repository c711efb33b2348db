package routehint

import (
	"context"
	"strings"
)

type hintKey struct{}

// Hint forces sharding values out of band, per logic table and tier.
type Hint struct {
	DatabaseValues map[string][]any
	TableValues    map[string][]any

	// DatabaseOnly sends every table of the statement to the data sources
	// named by DatabaseOnlyValues, bypassing table strategies.
	DatabaseOnly       bool
	DatabaseOnlyValues []any
}

func NewHint() *Hint {
	return &Hint{
		DatabaseValues: map[string][]any{},
		TableValues:    map[string][]any{},
	}
}

func (h *Hint) AddDatabaseValue(logicTable string, values ...any) *Hint {
	k := strings.ToLower(logicTable)
	h.DatabaseValues[k] = append(h.DatabaseValues[k], values...)
	return h
}

func (h *Hint) AddTableValue(logicTable string, values ...any) *Hint {
	k := strings.ToLower(logicTable)
	h.TableValues[k] = append(h.TableValues[k], values...)
	return h
}

// SetDatabaseOnly switches the hint to database only routing.
func (h *Hint) SetDatabaseOnly(values ...any) *Hint {
	h.DatabaseOnly = true
	h.DatabaseOnlyValues = values
	return h
}

func (h *Hint) DatabaseShardingValues(logicTable string) []any {
	if h == nil {
		return nil
	}
	return h.DatabaseValues[strings.ToLower(logicTable)]
}

func (h *Hint) TableShardingValues(logicTable string) []any {
	if h == nil {
		return nil
	}
	return h.TableValues[strings.ToLower(logicTable)]
}

func WithHint(ctx context.Context, h *Hint) context.Context {
	return context.WithValue(ctx, hintKey{}, h)
}

// FromContext returns the hint installed by WithHint, if any.
func FromContext(ctx context.Context) (*Hint, bool) {
	if ctx == nil {
		return nil, false
	}
	h, ok := ctx.Value(hintKey{}).(*Hint)
	return h, ok && h != nil
}
