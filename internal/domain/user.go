package domain

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleKitchen Role = "kitchen"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleKitchen:
		return RoleKitchen, nil
	}
	return "", Invalid("Invalid role selected.")
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	// Password holds the stored credential, either a bcrypt hash or a legacy
	// plaintext value pending upgrade. Never serialized.
	Password string `json:"-"`
}
