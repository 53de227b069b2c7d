package domain

import "time"

type Role string

// RoleAdmin is the only role this portal ever assigns.
const RoleAdmin Role = "admin"

// AccountRecord is the durable admin account. It is created once per
// successful registration and never updated by the registration flow.
type AccountRecord struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Company      string    `json:"company"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsVerified   bool      `json:"isVerified"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SessionMarker is what the dashboard's access guard checks.
type SessionMarker struct {
	ID            string        `json:"id"`
	Account       AccountRecord `json:"adminUser"`
	Authenticated bool          `json:"isAuthenticated"`
	CreatedAt     time.Time     `json:"createdAt"`
}
