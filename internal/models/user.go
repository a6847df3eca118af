package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an entry of the user directory.
//
// Accounts themselves are owned by the identity provider; budgetshare only
// keeps enough to resolve a member identifier (user ID or email) to a user.
type User struct {
	// ID is the unique identifier for the user.
	ID string

	// Email is the user's email address, stored lower-cased (unique).
	Email string

	// DisplayName is shown next to balances and transfers.
	DisplayName string

	// CreatedAt is the Unix timestamp when the user was added to the directory.
	CreatedAt int64
}

// NewUser creates a directory entry with a generated ID and normalized email.
func NewUser(email, displayName string) *User {
	return &User{
		ID:          uuid.New().String(),
		Email:       NormalizeEmail(email),
		DisplayName: displayName,
		CreatedAt:   time.Now().Unix(),
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
