package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artxchange/artx-api/internal/domain"
)

func createEvent(f *fixture, creatorID string, capacity int, price domain.Cents) (domain.Event, error) {
	return f.engine.CreateEvent(context.Background(), EventInput{
		AccountID: creatorID,
		Title:     "Open studio night",
		Type:      domain.EventVisualArt,
		StartsAt:  f.clock.Now().Add(48 * time.Hour),
		Location:  "Berlin",
		Capacity:  capacity,
		Price:     price,
	})
}

func register(f *fixture, accountID, eventID string, quantity int) (domain.EventRegistration, error) {
	return f.engine.RegisterForEvent(context.Background(), RegistrationInput{
		AccountID: accountID,
		EventID:   eventID,
		Name:      "Guest",
		Email:     "guest@example.com",
		Quantity:  quantity,
		Method:    domain.MethodSEPA,
	})
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	creator := f.account(t, domain.KindEventCreator)
	artist := f.account(t, domain.KindArtist)

	_, err := createEvent(f, artist.ID, 10, 0)
	requireDenial(t, err, domain.ReasonKindNotPermitted)

	event, err := createEvent(f, creator.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, creator.ID, event.CreatorID)
	assert.Equal(t, 1, f.reload(t, creator.ID).MonthlyEvents)

	_, err = createEvent(f, creator.ID, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.engine.CreateEvent(context.Background(), EventInput{
		AccountID: creator.ID,
		Title:     "Yesterday",
		Type:      domain.EventMusic,
		StartsAt:  f.clock.Now().Add(-time.Hour),
		Capacity:  5,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 1, f.reload(t, creator.ID).MonthlyEvents)
}

func TestMonthlyEventCap(t *testing.T) {
	f := newFixture(t)
	creator := f.account(t, domain.KindEventCreator)

	for range 10 {
		_, err := createEvent(f, creator.ID, 5, 0)
		require.NoError(t, err)
	}

	_, err := createEvent(f, creator.ID, 5, 0)
	requireDenial(t, err, domain.ReasonMonthlyLimit)

	d, err := f.engine.CanCreateEvent(context.Background(), creator.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestPaidRegistration(t *testing.T) {
	f := newFixture(t)
	creator := f.account(t, domain.KindEventCreator)
	guest := f.account(t, domain.KindGuerrillaPartner)

	event, err := createEvent(f, creator.ID, 3, domain.Euros(12))
	require.NoError(t, err)

	reg, err := register(f, guest.ID, event.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.Euros(24), reg.Total)
	assert.NotEmpty(t, reg.ChargeID)
	require.Len(t, f.payments.Charges(), 1)
	assert.Equal(t, domain.Euros(24), f.payments.Charges()[0].Amount)

	_, err = register(f, guest.ID, event.ID, 2)
	requireDenial(t, err, domain.ReasonEventFull)
	assert.Len(t, f.payments.Charges(), 1, "a full event is never charged for")

	_, err = register(f, guest.ID, event.ID, 6)
	requireDenial(t, err, domain.ReasonQuantityOutOfRange)

	_, err = register(f, guest.ID, event.ID, 1)
	require.NoError(t, err)
	assert.Len(t, f.store.Registrations(), 2)
}

func TestFreeRegistrationSkipsPayment(t *testing.T) {
	f := newFixture(t)
	guest := f.account(t, domain.KindArtist)
	f.store.PutEvent(domain.Event{
		ID:       "E1",
		Title:    "Free jam",
		Type:     domain.EventMusic,
		StartsAt: f.clock.Now().Add(time.Hour),
		Capacity: 10,
	})

	reg, err := register(f, guest.ID, "E1", 3)
	require.NoError(t, err)
	assert.Empty(t, reg.ChargeID)
	assert.Empty(t, f.payments.Charges())

	f.clock.Advance(2 * time.Hour)
	_, err = register(f, guest.ID, "E1", 1)
	requireDenial(t, err, domain.ReasonEventAlreadyStarted)
}

func TestConcurrentRegistrationsRespectCapacity(t *testing.T) {
	f := newFixture(t)
	f.store.PutEvent(domain.Event{
		ID:       "E1",
		Title:    "Tiny room",
		Type:     domain.EventPerformance,
		StartsAt: f.clock.Now().Add(time.Hour),
		Capacity: 5,
		Price:    domain.Euros(5),
	})

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range 12 {
		guest := f.account(t, domain.KindGuerrillaPartner)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := register(f, guest.ID, "E1", 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Len(t, f.payments.Charges(), 5)

	event, err := f.store.Events().FindByID(context.Background(), "E1")
	require.NoError(t, err)
	assert.Equal(t, 5, event.Registered)
}

func TestSuspendedAccountCannotRegister(t *testing.T) {
	f := newFixture(t)
	until := f.clock.Now().Add(time.Hour)
	guest := f.account(t, domain.KindArtist, func(a *domain.Account) {
		a.Status = domain.StatusSuspended
		a.SuspendedUntil = &until
	})
	f.store.PutEvent(domain.Event{ID: "E1", Type: domain.EventMusic, StartsAt: f.clock.Now().Add(2 * time.Hour), Capacity: 10})

	_, err := register(f, guest.ID, "E1", 1)
	d := requireDenial(t, err, domain.ReasonAccountSuspended)
	require.NotNil(t, d.ResetsAt)
	assert.True(t, d.ResetsAt.Equal(until))
}
