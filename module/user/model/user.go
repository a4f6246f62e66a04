package model

import "time"

// User is the account master record. Presence is derived at the gateway and
// mirrored to Redis; it is deliberately not a column here.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Nickname     string     `json:"nickname,omitempty"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	IsAdmin      bool       `json:"isAdmin,omitempty"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
