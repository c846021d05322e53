package domain

import "time"

type EventType string

const (
	EventMusic       EventType = "music"
	EventVisualArt   EventType = "visual-art"
	EventPerformance EventType = "performance"
	EventWorkshop    EventType = "workshop"
	EventFestival    EventType = "festival"
	EventOther       EventType = "other"
)

var EventTypes = []EventType{EventMusic, EventVisualArt, EventPerformance, EventWorkshop, EventFestival, EventOther}

type Event struct {
	ID          string    `json:"id"`
	CreatorID   string    `json:"creator_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        EventType `json:"type"`
	StartsAt    time.Time `json:"starts_at"`
	Location    string    `json:"location"`
	Address     string    `json:"address"`
	Capacity    int       `json:"capacity"`
	Registered  int       `json:"registered"`
	Price       Cents     `json:"price_cents"`
	Hashtags    []string  `json:"hashtags"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e Event) Remaining() int {
	return max(e.Capacity-e.Registered, 0)
}

// RegistrationDecision checks a request for quantity tickets at now.
func (e Event) RegistrationDecision(now time.Time, quantity int, p Policy) Decision {
	if quantity < 1 || quantity > p.MaxTicketsPerRegistration {
		return Deny(ReasonQuantityOutOfRange)
	}
	if !now.Before(e.StartsAt) {
		return Deny(ReasonEventAlreadyStarted)
	}
	if quantity > e.Remaining() {
		return Deny(ReasonEventFull)
	}
	return Allow()
}

type EventRegistration struct {
	ID        string        `json:"id"`
	EventID   string        `json:"event_id"`
	AccountID string        `json:"account_id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Message   string        `json:"message,omitempty"`
	Quantity  int           `json:"quantity"`
	Total     Cents         `json:"total_cents"`
	Method    PaymentMethod `json:"method,omitempty"`
	ChargeID  string        `json:"charge_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
