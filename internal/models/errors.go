package models

import (
	"errors"
	"fmt"
)

// Domain errors returned by the stores. Handlers match them with errors.Is
// and translate them into HTTP statuses.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicate          = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminExists        = errors.New("an admin already exists")
	ErrAdminCannotVote    = errors.New("admin is not allowed to vote")
	ErrAlreadyVoted       = errors.New("user has already voted")
)

// Not-found errors for specific records; both match ErrNotFound.
var (
	ErrCandidateNotFound = fmt.Errorf("candidate %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
)
