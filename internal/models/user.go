package models

import "time"

type User struct {
	ID           string
	Email        string
	Username     string
	Password     string
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
