package models

import "github.com/shopspring/decimal"

// Role is a member's role within a budget.
type Role string

const (
	// RoleOwner is held by the budget creator, and only by the creator.
	RoleOwner Role = "owner"
	// RoleMember is held by everyone else.
	RoleMember Role = "member"
)

// Budget represents a shared budget.
// A budget and its member set are created together and never change afterwards.
type Budget struct {
	// ID is the unique identifier for the budget (UUID format).
	ID string

	// Name is the display name of the budget (e.g., "Flat 3B", "Lisbon trip").
	Name string

	// TotalAmount is the planned spending limit of the budget.
	TotalAmount decimal.Decimal

	// CreatedBy is the user ID of the creator, who is also the owner.
	CreatedBy string

	// IsActive reports whether the budget accepts new entries.
	IsActive bool

	// CategoryIDs is the set of categories the budget tracks.
	CategoryIDs []string

	// Members is the membership list, owner first, then in join order.
	Members []Member

	// CreatedAt is the Unix timestamp when the budget was created.
	CreatedAt int64
}

// Member is a (budget, user) pair with a role.
type Member struct {
	BudgetID string
	UserID   string
	Role     Role
}

// HasMember reports whether userID is a current member of the budget.
func (b *Budget) HasMember(userID string) bool {
	for _, m := range b.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the member user IDs in membership order.
func (b *Budget) MemberIDs() []string {
	ids := make([]string, len(b.Members))
	for i, m := range b.Members {
		ids[i] = m.UserID
	}
	return ids
}
