package models

import (
	"slices"
	"time"
)

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

// RoleOf describes userID's place in the team for display.
func (t *Team) RoleOf(userID string) string {
	switch {
	case t.OwnerID == userID:
		return "owner"
	case slices.Contains(t.Admins, userID):
		return "admin"
	case slices.Contains(t.Members, userID):
		return "member"
	default:
		return ""
	}
}
