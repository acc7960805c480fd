package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBucket(t *testing.T) {
	eur := "eur"
	cases := map[string]struct {
		in   *string
		want Code
	}{
		"nil defaults to MKD": {nil, MKD},
		"lowercase eur":       {&eur, EUR},
		"unknown currency":    {strPtr("USD"), MKD},
		"empty string":        {strPtr(""), MKD},
		"explicit MKD":        {strPtr("MKD"), MKD},
		"padded EUR":          {strPtr(" EUR "), EUR},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, BucketPtr(tc.in))
		})
	}
}

func TestSplitAccumulates(t *testing.T) {
	var s Split
	s.Add(MKD, decimal.NewFromInt(70))
	s.Add(EUR, decimal.RequireFromString("1.25"))
	s.Merge(SplitOf(EUR, decimal.RequireFromString("0.75")))

	assert.True(t, s.MKD.Equal(decimal.NewFromInt(70)))
	assert.True(t, s.EUR.Equal(decimal.NewFromInt(2)))
	assert.True(t, s.Total().Equal(decimal.NewFromInt(72)))
}

func strPtr(s string) *string { return &s }
