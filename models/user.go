package models

import "time"

// UserRole mirrors the role claim issued by the external auth provider.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RoleViewer    UserRole = "viewer"
)

// User is a local mirror of an externally authenticated identity.
// No credentials are stored; tokens are issued by the auth provider
// and only verified here.
type User struct {
	ID        int       `json:"id" db:"id"`
	Nickname  string    `json:"nickname" db:"nickname"`
	Role      UserRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
