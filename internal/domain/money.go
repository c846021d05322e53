package domain

import "fmt"

// Cents is an amount of euro cents.
type Cents int64

func Euros(whole int64) Cents {
	return Cents(whole * 100)
}

func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s€%d.%02d", sign, c/100, c%100)
}

// Percent returns c*p/100 rounded half up to the nearest cent.
func (c Cents) Percent(p int64) Cents {
	return Cents((int64(c)*p + 50) / 100)
}

func (c Cents) Times(n int) Cents {
	return c * Cents(n)
}

// Split is how a donation is divided between the artist and the tax authority.
type Split struct {
	Artist Cents `json:"artist_share"`
	Tax    Cents `json:"tax_share"`
}

// SplitDonation rounds the tax share once and derives the artist share by
// subtraction so that Artist+Tax always equals amount.
func SplitDonation(amount Cents, taxPercent int64) Split {
	tax := amount.Percent(taxPercent)
	return Split{
		Artist: amount - tax,
		Tax:    tax,
	}
}
