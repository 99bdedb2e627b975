package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGiveawayEnded(t *testing.T) {
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	g := &Giveaway{
		Status:    GiveawayStatusRunning,
		StartedAt: start,
		EndsAt:    start.Add(60 * time.Second),
	}

	assert.False(t, g.Ended(start))
	assert.False(t, g.Ended(start.Add(59*time.Second)))
	assert.True(t, g.Ended(start.Add(60*time.Second)))
	assert.True(t, g.Ended(start.Add(time.Hour)))
}

func TestEffectiveStatusIsDerived(t *testing.T) {
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	g := &Giveaway{
		Status:    GiveawayStatusRunning,
		StartedAt: start,
		EndsAt:    start.Add(60 * time.Second),
	}

	assert.Equal(t, GiveawayStatusRunning, g.EffectiveStatus(start.Add(30*time.Second)))
	assert.Equal(t, GiveawayStatusEnded, g.EffectiveStatus(start.Add(2*time.Minute)))

	// The stored status never becomes "ended"; only the derived view does.
	assert.Equal(t, GiveawayStatusRunning, g.Status)

	g.Status = GiveawayStatusFinished
	assert.Equal(t, GiveawayStatusFinished, g.EffectiveStatus(start.Add(30*time.Second)))
	assert.Equal(t, GiveawayStatusFinished, g.EffectiveStatus(start.Add(2*time.Minute)))
}

func TestShippingValidate(t *testing.T) {
	valid := Shipping{
		FirstName:  "Lena",
		LastName:   "M",
		Email:      "lena@example.com",
		Street:     "Hauptstr. 1",
		PostalCode: "10115",
		City:       "Berlin",
		Country:    "DE",
	}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.City = "  "
	err := missing.Validate()
	assert.Error(t, err)
	var fieldErr *MissingFieldError
	assert.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "city", fieldErr.Field)
}
