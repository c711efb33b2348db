package algorithm_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/pg-sharding/shardroute/pkg/algorithm"
	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func precise(column string, vals ...any) []algorithm.ShardingValue {
	return []algorithm.ShardingValue{{LogicTable: "t_order", Column: column, Values: vals}}
}

func between(column string, lo, hi any) []algorithm.ShardingValue {
	return []algorithm.ShardingValue{{
		LogicTable: "t_order",
		Column:     column,
		Range:      &algorithm.Range{Lower: lo, Upper: hi, HasLower: true, HasUpper: true},
	}}
}

func TestModSharding(t *testing.T) {
	assert := assert.New(t)

	alg, err := algorithm.New("mod", algorithm.Props{"sharding-count": "4"}, algorithm.Options{})
	require.NoError(t, err)
	assert.Equal(algorithm.TypeMod, alg.Type())

	available := []string{"t_order_0", "t_order_1", "t_order_2", "t_order_3", "t_order_11"}

	type tcase struct {
		values []algorithm.ShardingValue
		exp    []string
	}

	for _, tt := range []tcase{
		{values: precise("order_id", 13), exp: []string{"t_order_1"}},
		{values: precise("order_id", int64(6), "8"), exp: []string{"t_order_0", "t_order_2"}},
		{values: precise("order_id", -5), exp: []string{"t_order_1"}},
		{values: between("order_id", 1, 2), exp: []string{"t_order_1", "t_order_2"}},
		{values: between("order_id", 1, 100), exp: available},
		{values: between("order_id", 1, 4), exp: available},
		{values: between("order_id", 5, 1), exp: []string{}},
		{values: between("order_id", int64(math.MaxInt64-1), int64(math.MaxInt64)), exp: []string{"t_order_2", "t_order_3"}},
		{values: between("order_id", int64(math.MaxInt64), int64(math.MaxInt64)), exp: []string{"t_order_3"}},
		{values: between("order_id", int64(math.MinInt64), int64(0)), exp: available},
		{values: between("order_id", int64(math.MinInt64), int64(math.MaxInt64)), exp: available},
	} {
		got, err := alg.DoSharding(available, tt.values)
		assert.NoError(err)
		assert.Equal(tt.exp, got)
	}

	_, err = alg.DoSharding(available, precise("order_id", "abc"))
	assert.True(routeerror.Is(err, routeerror.ROUTE_INVALID_PARAM))

	_, err = algorithm.New(algorithm.TypeMod, algorithm.Props{}, algorithm.Options{})
	assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG))

	_, err = algorithm.New(algorithm.TypeMod, algorithm.Props{"sharding-count": "0"}, algorithm.Options{})
	assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG))
}

func TestHashModSharding(t *testing.T) {
	assert := assert.New(t)

	available := []string{"ds_0", "ds_1", "ds_2"}
	for _, hf := range []string{"murmur", "city", "xxhash"} {
		alg, err := algorithm.New(algorithm.TypeHashMod, algorithm.Props{
			"sharding-count": "3",
			"hash-function":  hf,
		}, algorithm.Options{})
		require.NoError(t, err)

		a, err := alg.DoSharding(available, precise("user_id", "alice"))
		assert.NoError(err)
		assert.Len(a, 1)

		b, err := alg.DoSharding(available, precise("user_id", []byte("alice")))
		assert.NoError(err)
		assert.Equal(a, b)

		r, err := alg.DoSharding(available, between("user_id", 1, 2))
		assert.NoError(err)
		assert.Equal(available, r)
	}

	_, err := algorithm.New(algorithm.TypeHashMod, algorithm.Props{"sharding-count": "3", "hash-function": "md5"}, algorithm.Options{})
	assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG))
}

func TestInlineSharding(t *testing.T) {
	assert := assert.New(t)

	alg, err := algorithm.New(algorithm.TypeInline, algorithm.Props{
		"algorithm-expression": "ds_${user_id % 2}",
	}, algorithm.Options{})
	require.NoError(t, err)

	available := []string{"ds_0", "ds_1"}

	got, err := alg.DoSharding(available, precise("user_id", 1))
	assert.NoError(err)
	assert.Equal([]string{"ds_1"}, got)

	got, err = alg.DoSharding(available, precise("user_id", 1, 2, 3))
	assert.NoError(err)
	assert.Equal(available, got)

	got, err = alg.DoSharding(available, between("user_id", 1, 5))
	assert.NoError(err)
	assert.Equal(available, got)

	strict, err := algorithm.New(algorithm.TypeInline, algorithm.Props{
		"algorithm-expression":                   "t_order_$->{order_id % 2}",
		"allow-range-query-with-inline-sharding": "false",
	}, algorithm.Options{})
	require.NoError(t, err)

	got, err = strict.DoSharding([]string{"t_order_0", "t_order_1"}, precise("order_id", "10"))
	assert.NoError(err)
	assert.Equal([]string{"t_order_0"}, got)

	_, err = strict.DoSharding([]string{"t_order_0"}, between("order_id", 1, 5))
	assert.True(routeerror.Is(err, routeerror.ROUTE_UNSUPPORTED_PREDICATE))

	_, err = algorithm.New(algorithm.TypeInline, algorithm.Props{"algorithm-expression": "t_${order_id %"}, algorithm.Options{})
	assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG))
}

func TestTemplate(t *testing.T) {
	assert := assert.New(t)

	tpl, err := algorithm.CompileTemplate("t_${region}_${mod(order_id, 4)}")
	require.NoError(t, err)
	assert.ElementsMatch([]string{"region", "order_id"}, tpl.Variables())

	s, err := tpl.Evaluate(map[string]any{"region": "eu", "order_id": int64(10)})
	assert.NoError(err)
	assert.Equal("t_eu_2", s)

	_, err = tpl.Evaluate(map[string]any{"region": "eu"})
	assert.True(routeerror.Is(err, routeerror.ROUTE_INVALID_PARAM))
}

func TestComplexInlineSharding(t *testing.T) {
	assert := assert.New(t)

	alg, err := algorithm.New(algorithm.TypeComplexInline, algorithm.Props{
		"algorithm-expression": "t_order_${(user_id + order_id) % 4}",
		"sharding-columns":     "user_id, order_id",
	}, algorithm.Options{})
	require.NoError(t, err)

	available := []string{"t_order_0", "t_order_1", "t_order_2", "t_order_3"}

	got, err := alg.DoSharding(available, []algorithm.ShardingValue{
		{Column: "user_id", Values: []any{1, 2}},
		{Column: "order_id", Values: []any{1}},
	})
	assert.NoError(err)
	assert.Equal([]string{"t_order_2", "t_order_3"}, got)

	got, err = alg.DoSharding(available, []algorithm.ShardingValue{
		{Column: "user_id", Values: []any{1}},
	})
	assert.NoError(err)
	assert.Equal(available, got)
}

func TestHintInlineSharding(t *testing.T) {
	assert := assert.New(t)

	alg, err := algorithm.New(algorithm.TypeHintInline, algorithm.Props{
		"algorithm-expression": "ds_${value % 2}",
	}, algorithm.Options{})
	require.NoError(t, err)

	got, err := alg.DoSharding([]string{"ds_0", "ds_1"}, []algorithm.ShardingValue{{Values: []any{3}}})
	assert.NoError(err)
	assert.Equal([]string{"ds_1"}, got)

	plain, err := algorithm.New(algorithm.TypeHintInline, algorithm.Props{}, algorithm.Options{})
	require.NoError(t, err)
	got, err = plain.DoSharding([]string{"ds_0", "ds_1"}, []algorithm.ShardingValue{{Values: []any{"ds_0"}}})
	assert.NoError(err)
	assert.Equal([]string{"ds_0"}, got)
}

func TestBoundaryRangeSharding(t *testing.T) {
	assert := assert.New(t)

	alg, err := algorithm.New(algorithm.TypeBoundaryRange, algorithm.Props{
		"sharding-ranges": "1, 5, 10",
	}, algorithm.Options{})
	require.NoError(t, err)

	available := []string{"t_0", "t_1", "t_2", "t_3"}

	type tcase struct {
		values []algorithm.ShardingValue
		exp    []string
	}

	for _, tt := range []tcase{
		{values: precise("id", 0), exp: []string{"t_0"}},
		{values: precise("id", 1), exp: []string{"t_1"}},
		{values: precise("id", 9, 10), exp: []string{"t_2", "t_3"}},
		{values: between("id", 2, 7), exp: []string{"t_1", "t_2"}},
		{values: []algorithm.ShardingValue{{Column: "id", Range: &algorithm.Range{Lower: 6, HasLower: true}}}, exp: []string{"t_2", "t_3"}},
	} {
		got, err := alg.DoSharding(available, tt.values)
		assert.NoError(err)
		assert.Equal(tt.exp, got)
	}

	_, err = algorithm.New(algorithm.TypeBoundaryRange, algorithm.Props{"sharding-ranges": "5,1"}, algorithm.Options{})
	assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG))
}

func TestVolumeRangeSharding(t *testing.T) {
	assert := assert.New(t)

	alg, err := algorithm.New(algorithm.TypeVolumeRange, algorithm.Props{
		"range-lower":     "10",
		"range-upper":     "45",
		"sharding-volume": "10",
	}, algorithm.Options{})
	require.NoError(t, err)

	available := []string{"t_0", "t_1", "t_2", "t_3", "t_4", "t_5"}

	got, err := alg.DoSharding(available, precise("id", 5, 10, 44, 45, 100))
	assert.NoError(err)
	assert.Equal([]string{"t_0", "t_1", "t_4", "t_5"}, got)

	_, err = algorithm.New(algorithm.TypeVolumeRange, algorithm.Props{
		"range-lower":     "0",
		"range-upper":     "1000000",
		"sharding-volume": "1",
	}, algorithm.Options{MaxPartitions: 100})
	assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG))

	_, err = algorithm.New(algorithm.TypeVolumeRange, algorithm.Props{
		"range-lower":     strconv.FormatInt(math.MinInt64, 10),
		"range-upper":     strconv.FormatInt(math.MaxInt64, 10),
		"sharding-volume": "1",
	}, algorithm.Options{})
	assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG))

	alg, err = algorithm.New(algorithm.TypeVolumeRange, algorithm.Props{
		"range-lower":     strconv.FormatInt(math.MaxInt64-20, 10),
		"range-upper":     strconv.FormatInt(math.MaxInt64, 10),
		"sharding-volume": "10",
	}, algorithm.Options{})
	require.NoError(t, err)

	got, err = alg.DoSharding(available, between("id", int64(math.MaxInt64-1), int64(math.MaxInt64)))
	assert.NoError(err)
	assert.Equal([]string{"t_2", "t_3"}, got)
}

func TestUnknownAlgorithm(t *testing.T) {
	assert := assert.New(t)

	_, err := algorithm.New("CRC32_MOD", algorithm.Props{}, algorithm.Options{})
	assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG))

	algorithm.Register("first", func(_ algorithm.Props, _ algorithm.Options) (algorithm.Algorithm, error) {
		return &algorithm.FuncAlgorithm{
			Name: "FIRST",
			Fn: func(available []string, _ []algorithm.ShardingValue) ([]string, error) {
				return available[:1], nil
			},
		}, nil
	})

	alg, err := algorithm.New("FIRST", nil, algorithm.Options{})
	require.NoError(t, err)
	got, err := alg.DoSharding([]string{"a", "b"}, nil)
	assert.NoError(err)
	assert.Equal([]string{"a"}, got)
}
