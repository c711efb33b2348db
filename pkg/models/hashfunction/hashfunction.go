package hashfunction

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-faster/city"
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

type HashFunctionType int

/* Pre-defined hash functions */
const (
	HashFunctionIdent  = HashFunctionType(0)
	HashFunctionMurmur = HashFunctionType(1)
	HashFunctionCity   = HashFunctionType(2)
	HashFunctionXX     = HashFunctionType(3)
)

/* Column types a sharding value may be hashed as */
const (
	ColumnTypeInteger  = "integer"
	ColumnTypeUinteger = "uinteger"
	ColumnTypeVarchar  = "varchar"
	ColumnTypeUUID     = "uuid"
)

var (
	errUnknownColumnType = func(ctype string, hf HashFunctionType) error {
		return fmt.Errorf("unknown column type '%s' for hash function '%s'", ctype, ToString(hf))
	}
	errUnknownValueType = func(v any, hf HashFunctionType) error {
		return fmt.Errorf("unknown type of value that the hash will be calculated from: %T for %s hash type", v, ToString(hf))
	}
)

func EncodeUInt64(input uint64) []byte {
	const ENCODING_BYTES_BIG = binary.MaxVarintLen64
	const ENCODING_BYTES = 8
	const BOUND = 1 << 56 /* 72057594037927936 */

	sz := ENCODING_BYTES
	if input >= BOUND {
		sz = ENCODING_BYTES_BIG
	}

	buf := make([]byte, sz)
	binary.PutUvarint(buf, input)
	return buf
}

// hashInput turns a typed sharding value into the byte representation every
// hash function consumes.
func hashInput(input any, ctype string, hf HashFunctionType) ([]byte, error) {
	switch ctype {
	case ColumnTypeInteger:
		if res, ok := input.(int64); ok {
			return EncodeUInt64(uint64(res)), nil
		}
		return nil, fmt.Errorf("invalid type for %s hash '%s'", ToString(hf), ColumnTypeInteger)
	case ColumnTypeUinteger:
		if res, ok := input.(uint64); ok {
			return EncodeUInt64(res), nil
		}
		return nil, fmt.Errorf("invalid type for %s hash '%s'", ToString(hf), ColumnTypeUinteger)
	case ColumnTypeVarchar, ColumnTypeUUID:
		switch v := input.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		default:
			return nil, errUnknownValueType(input, hf)
		}
	default:
		return nil, errUnknownColumnType(ctype, hf)
	}
}

func ApplyHashFunction(input any, ctype string, hf HashFunctionType) (uint64, error) {
	if hf == HashFunctionIdent {
		return 0, fmt.Errorf("identity hash function does not produce a numeric hash")
	}
	buf, err := hashInput(input, ctype, hf)
	if err != nil {
		return 0, err
	}

	switch hf {
	case HashFunctionMurmur:
		return uint64(murmur3.Sum32(buf)), nil
	case HashFunctionCity:
		return uint64(city.Hash32(buf)), nil
	case HashFunctionXX:
		return xxhash.Sum64(buf), nil
	default:
		return 0, fmt.Errorf("unknown hash function type: %d", hf)
	}
}

// ColumnTypeOf guesses the column type of a Go value received from a
// predicate literal or a bound parameter.
func ColumnTypeOf(v any) (string, any) {
	switch t := v.(type) {
	case int:
		return ColumnTypeInteger, int64(t)
	case int32:
		return ColumnTypeInteger, int64(t)
	case int64:
		return ColumnTypeInteger, t
	case uint:
		return ColumnTypeUinteger, uint64(t)
	case uint32:
		return ColumnTypeUinteger, uint64(t)
	case uint64:
		return ColumnTypeUinteger, t
	case uuid.UUID:
		return ColumnTypeUUID, t.String()
	case string:
		if err := uuid.Validate(strings.ToLower(t)); err == nil && len(t) == 36 {
			return ColumnTypeUUID, strings.ToLower(t)
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return ColumnTypeInteger, n
		}
		return ColumnTypeVarchar, t
	case []byte:
		return ColumnTypeVarchar, t
	default:
		return ColumnTypeVarchar, fmt.Sprintf("%v", v)
	}
}

// HashValue hashes a value of unknown Go type.
func HashValue(v any, hf HashFunctionType) (uint64, error) {
	ctype, norm := ColumnTypeOf(v)
	if hf == HashFunctionIdent {
		switch n := norm.(type) {
		case int64:
			if n < 0 {
				return uint64(-n), nil
			}
			return uint64(n), nil
		case uint64:
			return n, nil
		default:
			return 0, fmt.Errorf("identity hash requires an integer value, got %T", v)
		}
	}
	return ApplyHashFunction(norm, ctype, hf)
}

// HashFunctionByName returns the corresponding HashFunctionType based on the given hash function name.
// It returns an error if the hash function name is not recognized.
func HashFunctionByName(hfn string) (HashFunctionType, error) {
	switch hfn {
	case "identity", "ident", "":
		return HashFunctionIdent, nil
	case "murmur":
		return HashFunctionMurmur, nil
	case "city":
		return HashFunctionCity, nil
	case "xxhash":
		return HashFunctionXX, nil
	default:
		return 0, fmt.Errorf("unknown hash function type: %s", hfn)
	}
}

// ToString converts a HashFunctionType to its corresponding string representation.
// If the input HashFunctionType is not recognized, an empty string is returned.
func ToString(hf HashFunctionType) string {
	switch hf {
	case HashFunctionIdent:
		return "identity"
	case HashFunctionMurmur:
		return "murmur"
	case HashFunctionCity:
		return "city"
	case HashFunctionXX:
		return "xxhash"
	}
	return ""
}
