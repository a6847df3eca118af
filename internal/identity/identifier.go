// Package identity resolves human-supplied member identifiers.
//
// Callers refer to people either by user ID or by email. Both forms are
// normalized into an Identifier at the API boundary, and the Resolver maps
// an Identifier to a canonical user ID, optionally scoped to a budget.
package identity

import (
	"errors"
	"strings"

	"github.com/mmynk/budgetshare/internal/models"
)

// ErrEmptyIdentifier is returned by Parse for blank input.
var ErrEmptyIdentifier = errors.New("identifier is empty")

// Kind tells which form an Identifier was given in.
type Kind int

const (
	ByID Kind = iota
	ByEmail
)

func (k Kind) String() string {
	if k == ByEmail {
		return "email"
	}
	return "id"
}

// Identifier is either a user ID or an email address.
type Identifier struct {
	kind  Kind
	value string
}

// FromID returns an identifier for a user ID.
func FromID(id string) Identifier {
	return Identifier{kind: ByID, value: strings.TrimSpace(id)}
}

// FromEmail returns an identifier for an email address.
func FromEmail(email string) Identifier {
	return Identifier{kind: ByEmail, value: models.NormalizeEmail(email)}
}

// Parse classifies raw input: anything containing "@" is an email,
// everything else a user ID.
func Parse(raw string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}, ErrEmptyIdentifier
	}
	if strings.Contains(raw, "@") {
		return FromEmail(raw), nil
	}
	return FromID(raw), nil
}

// ParseAll parses every entry, failing on the first blank one.
func ParseAll(raw []string) ([]Identifier, error) {
	ids := make([]Identifier, 0, len(raw))
	for _, r := range raw {
		id, err := Parse(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (i Identifier) Kind() Kind     { return i.kind }
func (i Identifier) Value() string  { return i.value }
func (i Identifier) String() string { return i.kind.String() + ":" + i.value }
func (i Identifier) IsZero() bool   { return i.value == "" }
