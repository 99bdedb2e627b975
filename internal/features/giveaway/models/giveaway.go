package models

import (
	"strings"
	"time"
)

// GiveawayOrderStatus is the lifecycle of a purchased giveaway line item.
type GiveawayOrderStatus string

const (
	OrderStatusOpen       GiveawayOrderStatus = "open"
	OrderStatusInGiveaway GiveawayOrderStatus = "in_giveaway"
)

// GiveawayStatus is the stored status of one giveaway run. "ended" is never
// stored; it is derived from ends_at, see EffectiveStatus.
type GiveawayStatus string

const (
	GiveawayStatusRunning  GiveawayStatus = "running"
	GiveawayStatusEnded    GiveawayStatus = "ended"
	GiveawayStatusFinished GiveawayStatus = "finished"
)

const (
	DefaultCommand         = "!teilnahme"
	DefaultDurationSeconds = 60
)

// GiveawayOrder is one giveaway-eligible line item of an external order,
// unique per (external_order_id, line_item_id).
type GiveawayOrder struct {
	ID                  string              `json:"id"`
	StreamerUUID        string              `json:"streamer_uuid"`
	ExternalOrderID     int64               `json:"external_order_id"`
	LineItemID          int64               `json:"line_item_id"`
	ProductID           int64               `json:"product_id"`
	VariantID           *int64              `json:"variant_id,omitempty"`
	Quantity            int                 `json:"quantity"`
	ProductTitle        string              `json:"product_title"`
	BuyerName           string              `json:"buyer_name"`
	BuyerEmail          string              `json:"buyer_email"`
	BuyerTwitchUsername string              `json:"buyer_twitch_username"`
	Status              GiveawayOrderStatus `json:"status"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// Giveaway is one timed entry-collection run tied to a giveaway order. An
// order accumulates a history of runs; the current one is the most recent by
// started_at.
type Giveaway struct {
	ID                      string         `json:"id"`
	GiveawayOrderID         string         `json:"giveaway_order_id"`
	StreamerUUID            string         `json:"streamer_uuid"`
	Command                 string         `json:"command"`
	DurationSeconds         int            `json:"duration_seconds"`
	Status                  GiveawayStatus `json:"status"`
	StartedAt               time.Time      `json:"started_at"`
	EndsAt                  time.Time      `json:"ends_at"`
	TwitchChannel           *string        `json:"twitch_channel,omitempty"`
	WinnerParticipantID     *string        `json:"winner_participant_id,omitempty"`
	WinnerTwitchLogin       *string        `json:"winner_twitch_login,omitempty"`
	WinnerTwitchDisplayName *string        `json:"winner_twitch_display_name,omitempty"`
	Claimed                 bool           `json:"claimed"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

// Ended reports whether the entry window is over at the given time. The
// stored status stays "running" until a draw finishes the run; every call
// site that needs the window state goes through here.
func (g *Giveaway) Ended(now time.Time) bool {
	return !now.Before(g.EndsAt)
}

// EffectiveStatus is the status a control surface should display: "ended" is
// computed, never stored.
func (g *Giveaway) EffectiveStatus(now time.Time) GiveawayStatus {
	if g.Status == GiveawayStatusFinished {
		return GiveawayStatusFinished
	}
	if g.Ended(now) {
		return GiveawayStatusEnded
	}
	return GiveawayStatusRunning
}

// Participant is one chat-bot-confirmed entry.
type Participant struct {
	ID                string    `json:"id"`
	GiveawayID        string    `json:"giveaway_id"`
	TwitchLogin       string    `json:"twitch_login"`
	TwitchDisplayName string    `json:"twitch_display_name"`
	TwitchUserID      string    `json:"twitch_user_id"`
	JoinedAt          time.Time `json:"joined_at"`
}

// WinnerDetail is created at draw time, one per finished giveaway. Its id is
// the public redemption code.
type WinnerDetail struct {
	ID                  string     `json:"id"`
	GiveawayID          string     `json:"giveaway_id"`
	WinnerParticipantID *string    `json:"winner_participant_id,omitempty"`
	ShopifyProductID    *int64     `json:"shopify_product_id,omitempty"`
	ShopifyVariantID    *int64     `json:"shopify_variant_id,omitempty"`
	Shipping            *Shipping  `json:"shipping,omitempty"`
	SubmittedAt         *time.Time `json:"submitted_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Submitted reports whether shipping data was already collected; once true
// the record is terminal.
func (w *WinnerDetail) Submitted() bool {
	return w.SubmittedAt != nil
}

// Shipping holds the address a winner submits exactly once.
type Shipping struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Validate checks the required shipping fields.
func (s *Shipping) Validate() error {
	required := map[string]string{
		"first_name":  s.FirstName,
		"last_name":   s.LastName,
		"email":       s.Email,
		"street":      s.Street,
		"postal_code": s.PostalCode,
		"city":        s.City,
		"country":     s.Country,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return &MissingFieldError{Field: field}
		}
	}
	return nil
}

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}
