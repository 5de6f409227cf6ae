package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is an exact decimal amount. It is stored as BSON Decimal128 and
// rendered as a JSON number.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount
var Zero = Money{}

// NewMoney converts a float amount
func NewMoney(v float64) Money {
	return Money{d: decimal.NewFromFloat(v)}
}

// MoneyFromInt converts a whole amount
func MoneyFromInt(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// ParseMoney parses a decimal string such as "12.50"
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// Add returns m + o
func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

// Sub returns m - o
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// MulInt multiplies by a quantity
func (m Money) MulInt(q int64) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(q))}
}

// Percent returns rate percent of m, rounded half-up to 2 places
func (m Money) Percent(rate float64) Money {
	return Money{d: m.d.Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100)).Round(2)}
}

// DivInt divides by n, rounded to 2 places. Dividing by zero yields zero.
func (m Money) DivInt(n int64) Money {
	if n == 0 {
		return Zero
	}
	return Money{d: m.d.Div(decimal.NewFromInt(n)).Round(2)}
}

// IsZero reports whether m is exactly zero
func (m Money) IsZero() bool { return m.d.IsZero() }

// IsNegative reports whether m < 0
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// IsPositive reports whether m > 0
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// Equal compares by value, so 1.5 equals 1.50
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// GreaterThan reports whether m > o
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

// Max returns the larger of m and o
func (m Money) Max(o Money) Money { return Money{d: decimal.Max(m.d, o.d)} }

// String renders the amount without trailing zeros, e.g. "12.5"
func (m Money) String() string { return m.d.String() }

// Float64 is for metrics and logs only
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// MarshalJSON renders the amount as a JSON number
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		m.d = decimal.Zero
		return nil
	}
	return m.d.UnmarshalJSON(data)
}

// MarshalBSONValue stores the amount as Decimal128
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.d.String())
	if err != nil {
		return 0, nil, fmt.Errorf("money to decimal128: %w", err)
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue reads Decimal128 and tolerates numeric and string values
// written by older documents.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Decimal128:
		parsed, err := ParseMoney(raw.Decimal128().String())
		if err != nil {
			return err
		}
		*m = parsed
	case bsontype.Double:
		m.d = decimal.NewFromFloat(raw.Double())
	case bsontype.Int32:
		m.d = decimal.NewFromInt32(raw.Int32())
	case bsontype.Int64:
		m.d = decimal.NewFromInt(raw.Int64())
	case bsontype.String:
		parsed, err := ParseMoney(raw.StringValue())
		if err != nil {
			return err
		}
		*m = parsed
	case bsontype.Null, bsontype.Undefined:
		m.d = decimal.Zero
	default:
		return fmt.Errorf("cannot decode %s into Money", t)
	}
	return nil
}
