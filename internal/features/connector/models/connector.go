package models

import "time"

// StreamerConnector links a streamer to their catalog collection and chat
// channel. Created at onboarding, mutated by the streamer, never deleted here.
type StreamerConnector struct {
	UUID              string    `json:"uuid"`
	UserID            *string   `json:"user_id,omitempty"`
	DisplayName       string    `json:"display_name"`
	CollectionHandle  string    `json:"collection_handle"`
	TwitchUsername    string    `json:"twitch_username"`
	NotificationEmail string    `json:"notification_email"`
	GiveawaysEnabled  bool      `json:"giveaways_enabled"`
	AlertText         string    `json:"alert_text"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
