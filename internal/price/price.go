// Package price handles price values from prediction market APIs
// without losing precision.
package price

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Price is a fixed-point value scaled by PriceScale. A Polymarket price of
// "0.62" is stored as 620_000.
type Price int64

// Size is a fixed-point order size using the same scale as Price.
type Size int64

var (
	_ json.Unmarshaler = (*Price)(nil)
	_ json.Unmarshaler = (*Size)(nil)
)

const PriceScale int64 = 1_000_000

// One is the upper bound of an outcome price: a share paying out in full.
const One = Price(PriceScale)

// Parse converts a decimal string such as "0.62" into a Price.
// Digits beyond the sixth fractional place are truncated.
// The empty string parses as zero.
func Parse(s string) (Price, error) {
	v, err := parseFixed([]byte(s))
	return Price(v), err
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) Price {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Price) UnmarshalJSON(data []byte) error {
	v, err := parseFixed(unquote(data))
	if err != nil {
		return err
	}
	*p = Price(v)
	return nil
}

func (s *Size) UnmarshalJSON(data []byte) error {
	v, err := parseFixed(unquote(data))
	if err != nil {
		return err
	}
	*s = Size(v)
	return nil
}

// AboveOne reports whether p exceeds One, which no outcome price can.
func (p Price) AboveOne() bool {
	return p > One
}

// IsZero reports whether p carries no price. The feed uses zero for "no data".
func (p Price) IsZero() bool {
	return p == 0
}

// Cents returns the price in whole cents, rounded down.
func (p Price) Cents() int {
	return int(int64(p) * 100 / PriceScale)
}

func (p Price) Float64() float64 {
	return float64(p) / float64(PriceScale)
}

func (p Price) String() string {
	return strconv.FormatFloat(p.Float64(), 'f', -1, 64)
}

func unquote(data []byte) []byte {
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		return data[1 : len(data)-1]
	}
	// Else we assume that it is a raw number.
	if string(data) == "null" {
		return nil
	}
	return data
}

func parseFixed(data []byte) (int64, error) {
	var res int64
	i := 0
	digits := 0

	for i < len(data) && data[i] != '.' {
		if data[i] < '0' || data[i] > '9' {
			return 0, fmt.Errorf("invalid price %q", data)
		}
		d := int64(data[i]-'0') * PriceScale
		if res > (math.MaxInt64-d)/10 {
			return 0, fmt.Errorf("price %q out of range", data)
		}
		res = res*10 + d
		i++
		digits++
	}

	if i < len(data) && data[i] == '.' {
		i++
		mult := PriceScale
		for i < len(data) {
			if data[i] < '0' || data[i] > '9' {
				return 0, fmt.Errorf("invalid price %q", data)
			}
			mult /= 10
			d := int64(data[i]-'0') * mult
			if res > math.MaxInt64-d {
				return 0, fmt.Errorf("price %q out of range", data)
			}
			res += d
			i++
			digits++
		}
	}

	if len(data) > 0 && digits == 0 {
		return 0, fmt.Errorf("invalid price %q", data)
	}

	return res, nil
}
