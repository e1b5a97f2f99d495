package domain

import (
	"database/sql/driver"
	"fmt"
	"math/big"
)

// maxU256 is 2^256 - 1.
var maxU256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// U256 is a non-negative 256-bit integer. On the wire it serializes as a
// decimal string; in Postgres it is stored as a NUMERIC; in memory it wraps
// math/big, the only arbitrary-precision integer the standard library (and
// every EVM-facing library in the ecosystem) offers.
type U256 struct {
	v *big.Int
}

// NewU256 wraps an existing big.Int. A nil input yields zero.
func NewU256(v *big.Int) U256 {
	if v == nil {
		return U256{v: new(big.Int)}
	}
	return U256{v: new(big.Int).Set(v)}
}

// U256FromUint64 builds a U256 from a uint64.
func U256FromUint64(v uint64) U256 {
	return U256{v: new(big.Int).SetUint64(v)}
}

// ParseU256 parses a base-10 string into a U256.
func ParseU256(s string) (U256, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return U256{}, fmt.Errorf("parse u256 %q: invalid decimal", s)
	}
	if v.Sign() < 0 {
		return U256{}, fmt.Errorf("parse u256 %q: negative", s)
	}
	return U256{v: v}, nil
}

// ZeroU256 is the additive identity.
func ZeroU256() U256 { return U256{v: new(big.Int)} }

// Big returns the underlying big.Int. Callers must not mutate it.
func (u U256) Big() *big.Int {
	if u.v == nil {
		return new(big.Int)
	}
	return u.v
}

// String renders the value as a base-10 decimal string.
func (u U256) String() string {
	return u.Big().String()
}

// Uint64 returns the low 64 bits, used for small protocol values (curve
// ids) that are uint256 on the wire but tiny in practice.
func (u U256) Uint64() uint64 {
	return u.Big().Uint64()
}

// IsZero reports whether the value is zero.
func (u U256) IsZero() bool {
	return u.Big().Sign() == 0
}

// Cmp compares u to other, per big.Int.Cmp semantics.
func (u U256) Cmp(other U256) int {
	return u.Big().Cmp(other.Big())
}

// Add returns u + other.
func (u U256) Add(other U256) U256 {
	return U256{v: new(big.Int).Add(u.Big(), other.Big())}
}

// Sub returns u - other, clamped at zero. Share accounting never goes
// negative on chain, so saturation only masks replayed partial state.
func (u U256) Sub(other U256) U256 {
	r := new(big.Int).Sub(u.Big(), other.Big())
	if r.Sign() < 0 {
		return ZeroU256()
	}
	return U256{v: r}
}

// CounterTermID derives the dual term id under the fixed involution
// f(x) = (2^256 - 1) - x. Applying it twice yields the original id, so the
// same function maps a term to its counter vault and back.
func CounterTermID(termID U256) U256 {
	return U256{v: new(big.Int).Sub(maxU256, termID.Big())}
}

// MarshalJSON renders the value as a decimal string, the wire format every
// queue message uses for 256-bit quantities.
func (u U256) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a JSON number, since some
// upstream producers emit raw numeric literals for small values.
func (u *U256) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*u = ZeroU256()
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("unmarshal u256 %q: invalid decimal", s)
	}
	*u = U256{v: v}
	return nil
}

// Value implements database/sql/driver.Valuer, storing the value as its
// decimal string so the column can be declared NUMERIC in Postgres.
func (u U256) Value() (driver.Value, error) {
	return u.String(), nil
}

// Scan implements database/sql.Scanner.
func (u *U256) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*u = ZeroU256()
		return nil
	case string:
		parsed, err := ParseU256(v)
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	case []byte:
		parsed, err := ParseU256(string(v))
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	default:
		return fmt.Errorf("scan u256: unsupported type %T", src)
	}
}
