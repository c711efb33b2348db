package algorithm

import (
	"fmt"
	"time"

	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/pg-sharding/shardroute/pkg/models/temporal"
)

const DefaultMaxPartitions = 4096

// IntervalConfig is the parsed form of INTERVAL algorithm properties.
type IntervalConfig struct {
	Kind          temporal.Kind
	Pattern       string
	Lower         string
	Upper         string
	SuffixPattern string
	Amount        int64
	Unit          temporal.Unit
}

func ParseIntervalConfig(props Props) (*IntervalConfig, error) {
	var err error
	cfg := &IntervalConfig{}

	if cfg.Pattern, err = props.Required("datetime-pattern"); err != nil {
		return nil, err
	}
	if cfg.Lower, err = props.Required("datetime-lower"); err != nil {
		return nil, err
	}
	if cfg.SuffixPattern, err = props.Required("sharding-suffix-pattern"); err != nil {
		return nil, err
	}
	cfg.Upper = props.String("datetime-upper", "")
	if cfg.Amount, err = props.IntDefault("datetime-interval-amount", 1); err != nil {
		return nil, err
	}
	if cfg.Unit, err = temporal.UnitByName(props.String("datetime-interval-unit", "DAYS")); err != nil {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "%v", err)
	}

	if k := props.String("datetime-kind", ""); k != "" {
		if cfg.Kind, err = temporal.KindByName(k); err != nil {
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "%v", err)
		}
	} else {
		cfg.Kind = temporal.InferKind(cfg.Pattern)
	}
	return cfg, nil
}

func newInterval(props Props, opts Options) (Algorithm, error) {
	cfg, err := ParseIntervalConfig(props)
	if err != nil {
		return nil, err
	}
	return NewIntervalAlgorithm(cfg, opts)
}

// NewIntervalAlgorithm enumerates the partitions of cfg eagerly, so an
// oversized interval is reported at load time.
func NewIntervalAlgorithm(cfg *IntervalConfig, opts Options) (Algorithm, error) {
	max := opts.MaxPartitions
	if max <= 0 {
		max = DefaultMaxPartitions
	}

	switch cfg.Kind {
	case temporal.KindDateTime:
		return buildInterval[time.Time](temporal.DateTimeHandler{}, cfg, max)
	case temporal.KindDate:
		return buildInterval[time.Time](temporal.DateHandler{}, cfg, max)
	case temporal.KindTimeOfDay:
		return buildInterval[time.Duration](temporal.TimeOfDayHandler{}, cfg, max)
	case temporal.KindYearMonth:
		return buildInterval[time.Time](temporal.YearMonthHandler{}, cfg, max)
	case temporal.KindYear:
		return buildInterval[int](temporal.YearHandler{}, cfg, max)
	case temporal.KindMonth:
		return buildInterval[time.Month](temporal.MonthHandler{}, cfg, max)
	default:
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "unsupported temporal kind %d", cfg.Kind)
	}
}

type intervalAlgorithm[T any] struct {
	h       temporal.Handler[T]
	pattern string
	parts   []temporal.Partition[T]
}

func buildInterval[T any](h temporal.Handler[T], cfg *IntervalConfig, max int) (Algorithm, error) {
	lower, err := h.Parse(cfg.Lower, cfg.Pattern)
	if err != nil {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "invalid datetime-lower %q: %v", cfg.Lower, err)
	}

	var upper T
	if cfg.Upper == "" {
		upper = h.ConvertTo(time.Now().UTC())
	} else if upper, err = h.Parse(cfg.Upper, cfg.Pattern); err != nil {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "invalid datetime-upper %q: %v", cfg.Upper, err)
	}

	parts, err := temporal.Partitions(h, lower, upper, cfg.Amount, cfg.Unit, cfg.SuffixPattern, max)
	if err != nil {
		return nil, err
	}
	return &intervalAlgorithm[T]{h: h, pattern: cfg.Pattern, parts: parts}, nil
}

func (a *intervalAlgorithm[T]) Type() string {
	return TypeInterval
}

// Suffixes lists the table suffixes of all partitions in order.
func (a *intervalAlgorithm[T]) Suffixes() []string {
	res := make([]string, 0, len(a.parts))
	for _, p := range a.parts {
		res = append(res, p.Suffix)
	}
	return res
}

func (a *intervalAlgorithm[T]) value(v any) (T, error) {
	switch t := v.(type) {
	case T:
		return t, nil
	case time.Time:
		return a.h.ConvertTo(t), nil
	case string:
		return a.h.Parse(t, a.pattern)
	case []byte:
		return a.h.Parse(string(t), a.pattern)
	default:
		return a.h.Parse(fmt.Sprintf("%v", v), a.pattern)
	}
}

// intersects reports whether partition p overlaps [lo, hi]; nil bounds are
// unbounded.
func (a *intervalAlgorithm[T]) intersects(p temporal.Partition[T], lo, hi *T) bool {
	if hi != nil && a.h.Compare(p.Start, *hi) > 0 {
		return false
	}
	if lo != nil {
		wrapped := a.h.Compare(p.Next, p.Start) <= 0
		if !wrapped && a.h.Compare(p.Next, *lo) <= 0 {
			return false
		}
	}
	return true
}

func (a *intervalAlgorithm[T]) DoSharding(available []string, values []ShardingValue) ([]string, error) {
	picked := map[string]struct{}{}
	pick := func(lo, hi *T) {
		for _, p := range a.parts {
			if !a.intersects(p, lo, hi) {
				continue
			}
			for _, t := range matchSuffix(available, p.Suffix) {
				picked[t] = struct{}{}
			}
		}
	}

	for _, sv := range values {
		if sv.IsRange() {
			var lo, hi *T
			if sv.Range.HasLower {
				v, err := a.value(sv.Range.Lower)
				if err != nil {
					return nil, routeerror.Newf(routeerror.ROUTE_INVALID_PARAM, "cannot parse sharding value %v of %s: %v", sv.Range.Lower, sv.Column, err)
				}
				lo = &v
			}
			if sv.Range.HasUpper {
				v, err := a.value(sv.Range.Upper)
				if err != nil {
					return nil, routeerror.Newf(routeerror.ROUTE_INVALID_PARAM, "cannot parse sharding value %v of %s: %v", sv.Range.Upper, sv.Column, err)
				}
				hi = &v
			}
			pick(lo, hi)
			continue
		}
		for _, raw := range sv.Values {
			v, err := a.value(raw)
			if err != nil {
				return nil, routeerror.Newf(routeerror.ROUTE_INVALID_PARAM, "cannot parse sharding value %v of %s: %v", raw, sv.Column, err)
			}
			pick(&v, &v)
		}
	}
	return ordered(available, picked), nil
}
