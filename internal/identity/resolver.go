package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/budgetshare/internal/models"
	"github.com/mmynk/budgetshare/internal/storage"
)

var (
	// ErrUnknownUser means the identifier matches no user in the directory.
	ErrUnknownUser = errors.New("unknown user")
	// ErrNotMember means the identifier matches no current member of the budget.
	ErrNotMember = errors.New("not a member of this budget")
)

// Directory is the subset of the user directory the resolver reads.
type Directory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Resolver maps identifiers to canonical user IDs.
type Resolver struct {
	users Directory
}

// NewResolver creates a resolver backed by the given directory.
func NewResolver(users Directory) *Resolver {
	return &Resolver{users: users}
}

// ResolveUser returns the user ID for id, or ErrUnknownUser.
func (r *Resolver) ResolveUser(ctx context.Context, id Identifier) (string, error) {
	user, err := r.lookup(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrUnknownUser, id.Value())
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", id, err)
	}
	return user.ID, nil
}

// ResolveMember returns the member ID for id within budget, or ErrNotMember.
// User IDs are checked against the member list directly; emails go through
// the directory first.
func (r *Resolver) ResolveMember(ctx context.Context, budget *models.Budget, id Identifier) (string, error) {
	memberID := id.Value()
	if id.Kind() == ByEmail {
		user, err := r.users.GetUserByEmail(ctx, id.Value())
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNotMember, id.Value())
		}
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", id, err)
		}
		memberID = user.ID
	}

	if !budget.HasMember(memberID) {
		return "", fmt.Errorf("%w: %s", ErrNotMember, id.Value())
	}
	return memberID, nil
}

// ResolveMembers resolves every identifier, collapsing duplicates while
// keeping first-seen order.
func (r *Resolver) ResolveMembers(ctx context.Context, budget *models.Budget, ids []Identifier) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		memberID, err := r.ResolveMember(ctx, budget, id)
		if err != nil {
			return nil, err
		}
		if seen[memberID] {
			continue
		}
		seen[memberID] = true
		out = append(out, memberID)
	}
	return out, nil
}

func (r *Resolver) lookup(ctx context.Context, id Identifier) (*models.User, error) {
	if id.Kind() == ByEmail {
		return r.users.GetUserByEmail(ctx, id.Value())
	}
	return r.users.GetUserByID(ctx, id.Value())
}
