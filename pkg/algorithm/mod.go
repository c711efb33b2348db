package algorithm

import (
	"strconv"

	"github.com/pg-sharding/shardroute/pkg/models/hashfunction"
	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
)

/* MOD */

type modAlgorithm struct {
	count int64
}

func newMod(props Props, _ Options) (Algorithm, error) {
	count, err := props.Int("sharding-count")
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "sharding-count must be positive, got %d", count)
	}
	return &modAlgorithm{count: count}, nil
}

func (m *modAlgorithm) Type() string {
	return TypeMod
}

func (m *modAlgorithm) index(v int64) string {
	r := v % m.count
	if r < 0 {
		r = -r
	}
	return strconv.FormatInt(r, 10)
}

func (m *modAlgorithm) DoSharding(available []string, values []ShardingValue) ([]string, error) {
	picked := map[string]struct{}{}

	for _, sv := range values {
		if sv.IsRange() {
			lo, okLo := toInt64(sv.Range.Lower)
			hi, okHi := toInt64(sv.Range.Upper)
			if !sv.Range.HasLower || !sv.Range.HasUpper || !okLo || !okHi {
				return all(available), nil
			}
			if hi < lo {
				continue
			}
			/* unsigned difference cannot overflow for any lo <= hi */
			if uint64(hi)-uint64(lo) >= uint64(m.count-1) {
				return all(available), nil
			}
			for v := lo; ; v++ {
				for _, t := range matchSuffix(available, m.index(v)) {
					picked[t] = struct{}{}
				}
				if v == hi {
					break
				}
			}
			continue
		}
		for _, v := range sv.Values {
			n, ok := toInt64(v)
			if !ok {
				return nil, errNotNumeric(TypeMod, v)
			}
			for _, t := range matchSuffix(available, m.index(n)) {
				picked[t] = struct{}{}
			}
		}
	}
	return ordered(available, picked), nil
}

/* HASH_MOD */

type hashModAlgorithm struct {
	count int64
	hf    hashfunction.HashFunctionType
}

func newHashMod(props Props, _ Options) (Algorithm, error) {
	count, err := props.Int("sharding-count")
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "sharding-count must be positive, got %d", count)
	}
	hf, err := hashfunction.HashFunctionByName(props.String("hash-function", "murmur"))
	if err != nil {
		return nil, routeerror.Newf(routeerror.ROUTE_CONFIG, "%v", err)
	}
	return &hashModAlgorithm{count: count, hf: hf}, nil
}

func (m *hashModAlgorithm) Type() string {
	return TypeHashMod
}

func (m *hashModAlgorithm) DoSharding(available []string, values []ShardingValue) ([]string, error) {
	picked := map[string]struct{}{}

	for _, sv := range values {
		/* hashing destroys order, any range may hit every target */
		if sv.IsRange() {
			return all(available), nil
		}
		for _, v := range sv.Values {
			h, err := hashfunction.HashValue(v, m.hf)
			if err != nil {
				return nil, routeerror.Newf(routeerror.ROUTE_INVALID_PARAM, "%v", err)
			}
			suffix := strconv.FormatUint(h%uint64(m.count), 10)
			for _, t := range matchSuffix(available, suffix) {
				picked[t] = struct{}{}
			}
		}
	}
	return ordered(available, picked), nil
}
