package models

import "time"

// AnonUser is the optional profile behind an anon_id cookie. A row exists only
// once the user sets a nickname.
type AnonUser struct {
	ID        string    `json:"anon_id"`
	Nickname  *string   `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetNicknameRequest sets or replaces the caller's nickname.
type SetNicknameRequest struct {
	Nickname string `json:"nickname"`
}
