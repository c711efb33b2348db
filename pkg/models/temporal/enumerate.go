package temporal

import (
	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
)

// Partition is one interval [Start, Next) produced by Enumerate.
type Partition[T any] struct {
	Start  T
	Next   T
	Suffix string
}

// Partitions walks from lower to upper by step and returns one partition per
// visited value. It stops when h.IsAfter reports the current value past upper,
// and fails with a configuration error rather than producing more than max
// partitions.
func Partitions[T any](h Handler[T], lower, upper T, step int64, unit Unit, suffixPattern string, max int) ([]Partition[T], error) {
	if step <= 0 {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "datetime interval amount must be positive, got %d", step)
	}

	var parts []Partition[T]
	for cur := lower; !h.IsAfter(cur, upper, step); {
		if max > 0 && len(parts) >= max {
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG,
				"interval from lower to upper bound produces more than %d partitions", max)
		}
		next, err := h.Add(cur, step, unit)
		if err != nil {
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "%v", err)
		}
		suffix, err := h.Format(cur, suffixPattern)
		if err != nil {
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "%v", err)
		}
		parts = append(parts, Partition[T]{Start: cur, Next: next, Suffix: suffix})
		cur = next
	}
	return parts, nil
}

// Enumerate returns the formatted suffixes of Partitions, in order.
func Enumerate[T any](h Handler[T], lower, upper T, step int64, unit Unit, suffixPattern string, max int) ([]string, error) {
	parts, err := Partitions(h, lower, upper, step, unit, suffixPattern, max)
	if err != nil {
		return nil, err
	}
	suffixes := make([]string, 0, len(parts))
	for _, p := range parts {
		suffixes = append(suffixes, p.Suffix)
	}
	return suffixes, nil
}
