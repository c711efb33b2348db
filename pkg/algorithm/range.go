package algorithm

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
)

// boundaryAlgorithm splits the number line at ascending boundaries.
// Partition 0 holds values below the first boundary, partition i values in
// [b[i-1], b[i]), the last partition everything at or above the last boundary.
type boundaryAlgorithm struct {
	typ        string
	boundaries []int64
}

func newBoundaryRange(props Props, opts Options) (Algorithm, error) {
	raw, err := props.Required("sharding-ranges")
	if err != nil {
		return nil, err
	}
	var bs []int64
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "invalid sharding-ranges %q: %v", raw, err)
		}
		bs = append(bs, n)
	}
	return newBoundary(TypeBoundaryRange, bs, opts)
}

func newVolumeRange(props Props, opts Options) (Algorithm, error) {
	lower, err := props.Int("range-lower")
	if err != nil {
		return nil, err
	}
	upper, err := props.Int("range-upper")
	if err != nil {
		return nil, err
	}
	volume, err := props.Int("sharding-volume")
	if err != nil {
		return nil, err
	}
	if volume <= 0 || upper <= lower {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG,
			"volume range requires range-lower < range-upper and positive sharding-volume, got %d, %d, %d", lower, upper, volume)
	}
	max := opts.MaxPartitions
	if max <= 0 {
		max = DefaultMaxPartitions
	}
	span := uint64(upper) - uint64(lower)
	if span/uint64(volume)+2 > uint64(max) {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG,
			"volume range produces more than %d partitions", max)
	}

	var bs []int64
	for b := lower; ; b += volume {
		bs = append(bs, b)
		if uint64(upper)-uint64(b) <= uint64(volume) {
			break
		}
	}
	bs = append(bs, upper)
	return newBoundary(TypeVolumeRange, bs, opts)
}

func newBoundary(typ string, bs []int64, opts Options) (Algorithm, error) {
	for i := 1; i < len(bs); i++ {
		if bs[i] <= bs[i-1] {
			return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "range boundaries must be strictly ascending: %v", bs)
		}
	}
	if opts.MaxPartitions > 0 && len(bs)+1 > opts.MaxPartitions {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "range sharding produces more than %d partitions", opts.MaxPartitions)
	}
	return &boundaryAlgorithm{typ: typ, boundaries: bs}, nil
}

func (b *boundaryAlgorithm) Type() string {
	return b.typ
}

func (b *boundaryAlgorithm) partition(v int64) int {
	return sort.Search(len(b.boundaries), func(i int) bool {
		return b.boundaries[i] > v
	})
}

func (b *boundaryAlgorithm) DoSharding(available []string, values []ShardingValue) ([]string, error) {
	picked := map[string]struct{}{}
	pick := func(from, to int) {
		for p := from; p <= to; p++ {
			for _, t := range matchSuffix(available, strconv.Itoa(p)) {
				picked[t] = struct{}{}
			}
		}
	}

	for _, sv := range values {
		if sv.IsRange() {
			from, to := 0, len(b.boundaries)
			if sv.Range.HasLower {
				lo, ok := toInt64(sv.Range.Lower)
				if !ok {
					return nil, errNotNumeric(b.typ, sv.Range.Lower)
				}
				from = b.partition(lo)
			}
			if sv.Range.HasUpper {
				hi, ok := toInt64(sv.Range.Upper)
				if !ok {
					return nil, errNotNumeric(b.typ, sv.Range.Upper)
				}
				to = b.partition(hi)
			}
			pick(from, to)
			continue
		}
		for _, v := range sv.Values {
			n, ok := toInt64(v)
			if !ok {
				return nil, errNotNumeric(b.typ, v)
			}
			p := b.partition(n)
			pick(p, p)
		}
	}
	return ordered(available, picked), nil
}
