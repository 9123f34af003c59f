package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

// User is a participant identity. Created once and never modified.
type User struct {
	ID        UserID    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}
