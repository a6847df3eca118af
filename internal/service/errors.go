package service

import "errors"

// Error categories returned by LedgerService. Transports map them to status
// codes once, at the boundary.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidMember = errors.New("invalid member")
)
