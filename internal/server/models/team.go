package models

import (
	"slices"
	"time"
)

// Team is a named group owned by exactly one user. Admins and Members hold
// user ids; the owner is always present in both.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner"`
	Admins      []string  `json:"admins"`
	Members     []string  `json:"members"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Role is the position of a user inside a team roster.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (t *Team) IsOwner(userID string) bool {
	return t.OwnerID == userID
}

func (t *Team) IsAdmin(userID string) bool {
	return t.IsOwner(userID) || slices.Contains(t.Admins, userID)
}

func (t *Team) IsMember(userID string) bool {
	return t.IsOwner(userID) || slices.Contains(t.Members, userID)
}

// CanRead reports whether userID may see the team at all.
func (t *Team) CanRead(userID string) bool {
	return t.IsMember(userID) || t.IsAdmin(userID)
}

// Clone returns a deep copy so callers can mutate rosters freely.
func (t *Team) Clone() *Team {
	c := *t
	c.Admins = slices.Clone(t.Admins)
	c.Members = slices.Clone(t.Members)
	return &c
}
