package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitDonationSumsToAmount(t *testing.T) {
	for amount := Euros(1); amount <= Euros(10); amount++ {
		split := SplitDonation(amount, 14)
		assert.Equal(t, amount, split.Artist+split.Tax, "amount %s", amount)
		assert.GreaterOrEqual(t, split.Tax, Cents(0))
	}
}

func TestSplitDonationShares(t *testing.T) {
	tests := []struct {
		amount Cents
		artist Cents
		tax    Cents
	}{
		{amount: 100, artist: 86, tax: 14},
		{amount: 500, artist: 430, tax: 70},
		{amount: 1000, artist: 860, tax: 140},
		// 1.25 * 0.14 = 0.175, rounded half up to 0.18.
		{amount: 125, artist: 107, tax: 18},
		{amount: 999, artist: 859, tax: 140},
	}

	for _, tt := range tests {
		t.Run(tt.amount.String(), func(t *testing.T) {
			split := SplitDonation(tt.amount, 14)
			assert.Equal(t, tt.artist, split.Artist)
			assert.Equal(t, tt.tax, split.Tax)
		})
	}
}

func TestCentsString(t *testing.T) {
	assert.Equal(t, "€0.10", Cents(10).String())
	assert.Equal(t, "€4.00", Euros(4).String())
	assert.Equal(t, "-€1.05", Cents(-105).String())
}
