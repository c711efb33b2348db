package algorithm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
)

const (
	TypeMod           = "MOD"
	TypeHashMod       = "HASH_MOD"
	TypeInline        = "INLINE"
	TypeComplexInline = "COMPLEX_INLINE"
	TypeHintInline    = "HINT_INLINE"
	TypeInterval      = "INTERVAL"
	TypeBoundaryRange = "BOUNDARY_RANGE"
	TypeVolumeRange   = "VOLUME_RANGE"
)

// Range is a possibly half-open interval of sharding values. Bound
// exclusiveness is not tracked: routing to a superset of targets is always
// correct.
type Range struct {
	Lower    any
	Upper    any
	HasLower bool
	HasUpper bool
}

// ShardingValue holds everything known about one sharding column for one
// routing computation: either a set of precise values or a range.
type ShardingValue struct {
	LogicTable string
	Column     string
	Values     []any
	Range      *Range
}

func (sv ShardingValue) IsRange() bool {
	return sv.Range != nil
}

func (sv ShardingValue) String() string {
	if sv.Range != nil {
		return fmt.Sprintf("%s.%s:[%v..%v]", sv.LogicTable, sv.Column, sv.Range.Lower, sv.Range.Upper)
	}
	return fmt.Sprintf("%s.%s:%v", sv.LogicTable, sv.Column, sv.Values)
}

//go:generate mockgen -source=algorithm.go -destination=mock/algorithm.go -package=mock

// Algorithm maps sharding values onto a subset of available target names.
// The result must be a subset of available.
type Algorithm interface {
	Type() string
	DoSharding(available []string, values []ShardingValue) ([]string, error)
}

type Options struct {
	// MaxPartitions bounds the number of partitions an algorithm may derive
	// from its properties.
	MaxPartitions int
}

type Constructor func(props Props, opts Options) (Algorithm, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{
		TypeMod:           newMod,
		TypeHashMod:       newHashMod,
		TypeInline:        newInline,
		TypeComplexInline: newComplexInline,
		TypeHintInline:    newHintInline,
		TypeInterval:      newInterval,
		TypeBoundaryRange: newBoundaryRange,
		TypeVolumeRange:   newVolumeRange,
	}
)

// Register makes a custom algorithm type available to New.
func Register(typ string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToUpper(typ)] = ctor
}

// New builds an algorithm of the given type from its properties.
func New(typ string, props Props, opts Options) (Algorithm, error) {
	registryMu.RLock()
	ctor, ok := registry[strings.ToUpper(typ)]
	registryMu.RUnlock()
	if !ok {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "unknown sharding algorithm type: %s", typ)
	}
	return ctor(props, opts)
}

type Props map[string]string

func (p Props) String(key string, def string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return def
}

func (p Props) Required(key string) (string, error) {
	v, ok := p[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", routeerror.Newf(routeerror.ROUTE_CONFIG, "sharding algorithm property %q is required", key)
	}
	return strings.TrimSpace(v), nil
}

func (p Props) Int(key string) (int64, error) {
	v, err := p.Required(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, routeerror.Newf(routeerror.ROUTE_CONFIG, "sharding algorithm property %q must be an integer: %v", key, err)
	}
	return n, nil
}

func (p Props) IntDefault(key string, def int64) (int64, error) {
	if _, ok := p[key]; !ok {
		return def, nil
	}
	return p.Int(key)
}

func (p Props) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, routeerror.Newf(routeerror.ROUTE_CONFIG, "sharding algorithm property %q must be a boolean: %v", key, err)
	}
	return b, nil
}

/* value helpers shared by numeric algorithms */

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case float32:
		if float32(int64(t)) == t {
			return int64(t), true
		}
	case float64:
		if float64(int64(t)) == t {
			return int64(t), true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n, true
		}
	case []byte:
		if n, err := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func errNotNumeric(typ string, v any) error {
	return routeerror.Newf(routeerror.ROUTE_INVALID_PARAM, "%s sharding requires an integer value, got %v (%T)", typ, v, v)
}

// matchSuffix returns the targets named by suffix, in available order. A
// numeric suffix only matches a whole trailing number, so "1" picks t_1 and
// not t_11.
func matchSuffix(available []string, suffix string) []string {
	var res []string
	numeric := suffix != "" && suffix[0] >= '0' && suffix[0] <= '9'
	for _, target := range available {
		if !strings.HasSuffix(target, suffix) {
			continue
		}
		if numeric && len(target) > len(suffix) {
			c := target[len(target)-len(suffix)-1]
			if c >= '0' && c <= '9' {
				continue
			}
		}
		res = append(res, target)
	}
	return res
}

// appendUnique appends items not yet in dst, keeping the order of first
// appearance.
func appendUnique(dst []string, seen map[string]struct{}, items ...string) []string {
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		dst = append(dst, it)
	}
	return dst
}

// ordered restricts available to the picked targets, keeping available order.
func ordered(available []string, picked map[string]struct{}) []string {
	res := make([]string, 0, len(picked))
	for _, a := range available {
		if _, ok := picked[a]; ok {
			res = append(res, a)
		}
	}
	return res
}

func all(available []string) []string {
	return append([]string(nil), available...)
}
