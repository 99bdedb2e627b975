package models

import "strings"

// Order is the subset of the Shopify order webhook payload this pipeline
// reads. The raw body is verified before this is ever decoded.
type Order struct {
	ID             int64           `json:"id"`
	Currency       string          `json:"currency"`
	CreatedAt      string          `json:"created_at"`
	Customer       *Customer       `json:"customer"`
	Email          string          `json:"email"`
	LineItems      []LineItem      `json:"line_items"`
	NoteAttributes []NoteAttribute `json:"note_attributes"`
}

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type LineItem struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"product_id"`
	VariantID    int64  `json:"variant_id"`
	Quantity     int    `json:"quantity"`
	Title        string `json:"title"`
	VariantTitle string `json:"variant_title"`
	Price        string `json:"price"`
}

type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Attribute returns the value of a note attribute by name, case-insensitive.
func (o *Order) Attribute(name string) string {
	for _, attr := range o.NoteAttributes {
		if strings.EqualFold(attr.Name, name) {
			return attr.Value
		}
	}
	return ""
}

// GiveawayFlagged reports whether the buyer marked the order as a community
// giveaway at checkout.
func (o *Order) GiveawayFlagged() bool {
	switch strings.ToLower(strings.TrimSpace(o.Attribute("giveaway"))) {
	case "yes", "true", "1", "ja":
		return true
	}
	return false
}

// BuyerTwitchUsername returns the handle the buyer entered at checkout.
func (o *Order) BuyerTwitchUsername() string {
	return strings.TrimSpace(o.Attribute("twitch_username"))
}

// BuyerName returns a display name for alerts, first name only.
func (o *Order) BuyerName() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.FirstName
}

// BuyerEmail prefers the order email over the customer record.
func (o *Order) BuyerEmail() string {
	if o.Email != "" {
		return o.Email
	}
	if o.Customer != nil {
		return o.Customer.Email
	}
	return ""
}
