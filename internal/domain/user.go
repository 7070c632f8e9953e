package domain

import "time"

// User is the domain model for participants who join queues.
type User struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	Gender            Gender
	Zipcode           string
	IsProfileComplete bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
