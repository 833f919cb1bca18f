// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the full identity record, including the password hash. It never
// leaves the service layer.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	ProfileImage *string
	CreatedAt    time.Time
}

// PublicUser is the identity without credentials, safe to return to clients.
type PublicUser struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage *string   `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public strips the credentials from u.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
	}
}
