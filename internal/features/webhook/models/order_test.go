package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGiveawayFlagged(t *testing.T) {
	for _, value := range []string{"yes", "YES", "true", "1", "ja", " ja "} {
		o := &Order{NoteAttributes: []NoteAttribute{{Name: "Giveaway", Value: value}}}
		assert.True(t, o.GiveawayFlagged(), "value %q", value)
	}
	for _, value := range []string{"", "no", "nein", "0"} {
		o := &Order{NoteAttributes: []NoteAttribute{{Name: "giveaway", Value: value}}}
		assert.False(t, o.GiveawayFlagged(), "value %q", value)
	}
	assert.False(t, (&Order{}).GiveawayFlagged())
}

func TestBuyerTwitchUsername(t *testing.T) {
	o := &Order{NoteAttributes: []NoteAttribute{{Name: "Twitch_Username", Value: " lena_ttv "}}}
	assert.Equal(t, "lena_ttv", o.BuyerTwitchUsername())
}

func TestBuyerEmailPrefersOrderEmail(t *testing.T) {
	o := &Order{Email: "order@example.com", Customer: &Customer{Email: "customer@example.com"}}
	assert.Equal(t, "order@example.com", o.BuyerEmail())

	o.Email = ""
	assert.Equal(t, "customer@example.com", o.BuyerEmail())

	assert.Equal(t, "", (&Order{}).BuyerEmail())
}
