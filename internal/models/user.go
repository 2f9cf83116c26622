package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the privilege level of a user account.
type Role string

const (
	RoleVoter Role = "voter"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleVoter || r == RoleAdmin
}

// User represents a registered account that can authenticate and vote.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Age          int       `json:"age,omitempty"`
	Address      string    `json:"address,omitempty"`
	Role         Role      `json:"role"`
	IsVoted      bool      `json:"isVoted"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`
}

// SignupPayload is the body accepted when registering a new user.
type SignupPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Address  string `json:"address"`
	Role     Role   `json:"role"`
}

// Normalize trims whitespace, lowercases the email and defaults the role.
func (p *SignupPayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Address = strings.TrimSpace(p.Address)
	if p.Role == "" {
		p.Role = RoleVoter
	}
}

// Validate checks the payload after Normalize has been applied.
func (p SignupPayload) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case p.Email == "" || !strings.Contains(p.Email, "@"):
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	case len(p.Password) < 6:
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	case p.Age < 0:
		return fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	case !p.Role.Valid():
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, p.Role)
	}
	return nil
}
