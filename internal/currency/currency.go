package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Code is a settlement currency. Only the two currencies sellers can hold
// balances in are modelled; everything else is settled as MKD.
type Code string

const (
	MKD Code = "MKD"
	EUR Code = "EUR"
)

// Default is the bucket used when a seller base currency is missing or unknown.
const Default = MKD

// Bucket maps a (possibly empty or lowercase) currency string to its settlement bucket.
func Bucket(raw string) Code {
	switch Code(strings.ToUpper(strings.TrimSpace(raw))) {
	case EUR:
		return EUR
	default:
		return Default
	}
}

// BucketPtr is Bucket for nullable columns.
func BucketPtr(raw *string) Code {
	if raw == nil {
		return Default
	}
	return Bucket(*raw)
}

// Split holds one amount per settlement bucket.
type Split struct {
	MKD decimal.Decimal `json:"mkd"`
	EUR decimal.Decimal `json:"eur"`
}

// SplitOf puts the whole amount into the given bucket.
func SplitOf(code Code, amount decimal.Decimal) Split {
	var s Split
	s.Add(code, amount)
	return s
}

// Add accumulates amount into the bucket for code.
func (s *Split) Add(code Code, amount decimal.Decimal) {
	if code == EUR {
		s.EUR = s.EUR.Add(amount)
		return
	}
	s.MKD = s.MKD.Add(amount)
}

// Merge adds every bucket of other into s.
func (s *Split) Merge(other Split) {
	s.MKD = s.MKD.Add(other.MKD)
	s.EUR = s.EUR.Add(other.EUR)
}

func (s Split) Total() decimal.Decimal {
	return s.MKD.Add(s.EUR)
}
