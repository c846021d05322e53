package domain

import "time"

type Artwork struct {
	ID          string    `json:"id"`
	ArtistID    string    `json:"artist_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
	Hashtags    []string  `json:"hashtags"`
	Votes       int       `json:"votes"`
	Removed     bool      `json:"removed"`
	CreatedAt   time.Time `json:"created_at"`
}

// VoteRecord is the fact that an account voted for an artwork. Voided votes
// no longer count towards the artwork but still block a repeat vote.
type VoteRecord struct {
	ID        string        `json:"id"`
	AccountID string        `json:"account_id"`
	ArtworkID string        `json:"artwork_id"`
	DeviceID  string        `json:"device_id,omitempty"`
	Fee       Cents         `json:"fee_cents"`
	Method    PaymentMethod `json:"method"`
	ChargeID  string        `json:"charge_id"`
	Voided    bool          `json:"voided"`
	CreatedAt time.Time     `json:"created_at"`
}

type DonationRecord struct {
	ID            string        `json:"id"`
	FromAccountID string        `json:"from_account_id"`
	ToArtistID    string        `json:"to_artist_id"`
	ArtworkID     string        `json:"artwork_id,omitempty"`
	Amount        Cents         `json:"amount_cents"`
	Split         Split         `json:"split"`
	Message       string        `json:"message,omitempty"`
	Method        PaymentMethod `json:"method"`
	TermsAccepted bool          `json:"terms_accepted"`
	ChargeID      string        `json:"charge_id"`
	CreatedAt     time.Time     `json:"created_at"`
}
