package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/voting-be/internal/auth"
	"github.com/isdelr/voting-be/internal/models"
	"github.com/rs/zerolog/log"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	CreateUser(ctx context.Context, payload models.SignupPayload) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error
	HasRole(ctx context.Context, userID string, role models.Role) bool
}

// UserService provides business logic for user management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = "id, name, email, age, address, role, is_voted, password_hash, created_at"

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// CreateUser registers a new user, hashing their password. An admin account
// can only be created while no other admin exists.
func (s *UserService) CreateUser(ctx context.Context, payload models.SignupPayload) (models.User, error) {
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := auth.HashPassword(payload.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         payload.Name,
		Email:        payload.Email,
		Age:          payload.Age,
		Address:      payload.Address,
		Role:         payload.Role,
		PasswordHash: hashedPassword,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	if user.Role == models.RoleAdmin {
		var admins int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&admins); err != nil {
			return models.User{}, err
		}
		if admins > 0 {
			return models.User{}, models.ErrAdminExists
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, name, email, age, address, role, password_hash) VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.Age, user.Address, user.Role, user.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%w: email %s is already registered", models.ErrDuplicate, user.Email)
		}
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}

	log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return s.GetUserByID(ctx, user.ID)
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%w: user not found", models.ErrInvalidCredentials)
		}
		return models.User{}, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return models.User{}, fmt.Errorf("%w: invalid password", models.ErrInvalidCredentials)
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// UpdatePassword verifies the current password, then hashes and sets a new password for a user.
func (s *UserService) UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT password_hash FROM users WHERE id = ?", id).Scan(&hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", models.ErrUserNotFound, id)
		}
		return err
	}

	if !auth.CheckPassword(hash, currentPassword) {
		return fmt.Errorf("%w: current password is incorrect", models.ErrInvalidCredentials)
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", models.ErrInvalidInput)
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hashedPassword, id)
	return err
}

// HasRole reports whether the user exists and holds role. Any lookup failure
// counts as not holding it.
func (s *UserService) HasRole(ctx context.Context, userID string, role models.Role) bool {
	var stored string
	err := s.db.QueryRowContext(ctx, "SELECT role FROM users WHERE id = ?", userID).Scan(&stored)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Warn().Err(err).Str("user_id", userID).Msg("Role lookup failed")
		}
		return false
	}
	return models.Role(stored) == role
}

// scanUser is a helper function to scan a single row into a User struct.
func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var role string
	err := scanner.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Age,
		&user.Address,
		&role,
		&user.IsVoted,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	user.Role = models.Role(role)
	return user, nil
}

// isUniqueViolation matches SQLite's constraint error text, which is stable
// across drivers.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
