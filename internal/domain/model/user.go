package model

import "time"

// User is the minimal projection of a gym member this core needs: identity
// plus the contact fields forwarded to the payment gateway. Account
// management lives elsewhere.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
}
