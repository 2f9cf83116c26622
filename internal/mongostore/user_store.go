package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/voting-be/internal/auth"
	"github.com/isdelr/voting-be/internal/models"
	"github.com/isdelr/voting-be/internal/services"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore implements services.UserServiceProvider on a MongoDB collection.
type UserStore struct {
	users *mongo.Collection
}

var _ services.UserServiceProvider = (*UserStore)(nil)

// NewUserStore creates a UserStore backed by db.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{users: db.Collection(usersCollection)}
}

func (s *UserStore) findUser(ctx context.Context, filter bson.M) (userDoc, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return userDoc{}, models.ErrUserNotFound
	}
	return doc, err
}

// GetUserByID retrieves a single user by their ID.
func (s *UserStore) GetUserByID(ctx context.Context, id string) (models.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return models.User{}, fmt.Errorf("%w: %s", models.ErrUserNotFound, id)
	}
	doc, err := s.findUser(ctx, bson.M{"_id": oid})
	if err != nil {
		return models.User{}, err
	}
	return doc.model(), nil
}

// CreateUser registers a new user. An admin account can only be created while
// no other admin exists.
func (s *UserStore) CreateUser(ctx context.Context, payload models.SignupPayload) (models.User, error) {
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		return models.User{}, err
	}

	if payload.Role == models.RoleAdmin {
		admins, err := s.users.CountDocuments(ctx, bson.M{"role": string(models.RoleAdmin)})
		if err != nil {
			return models.User{}, err
		}
		if admins > 0 {
			return models.User{}, models.ErrAdminExists
		}
	}

	hashedPassword, err := auth.HashPassword(payload.Password)
	if err != nil {
		return models.User{}, err
	}

	doc := userDoc{
		Name:         payload.Name,
		Email:        payload.Email,
		Age:          payload.Age,
		Address:      payload.Address,
		Role:         string(payload.Role),
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, fmt.Errorf("%w: email %s is already registered", models.ErrDuplicate, doc.Email)
		}
		return models.User{}, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		log.Info().Str("user_id", oid.Hex()).Str("role", doc.Role).Msg("User registered")
		return s.GetUserByID(ctx, oid.Hex())
	}
	return models.User{}, fmt.Errorf("unexpected inserted id %v", res.InsertedID)
}

// AuthenticateUser verifies a user's credentials.
func (s *UserStore) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	doc, err := s.findUser(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%w: user not found", models.ErrInvalidCredentials)
		}
		return models.User{}, err
	}
	if !auth.CheckPassword(doc.PasswordHash, password) {
		return models.User{}, fmt.Errorf("%w: invalid password", models.ErrInvalidCredentials)
	}
	return doc.model(), nil
}

// UpdatePassword verifies the current password, then stores a hash of the new one.
func (s *UserStore) UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	oid, ok := objectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUserNotFound, id)
	}
	doc, err := s.findUser(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if !auth.CheckPassword(doc.PasswordHash, currentPassword) {
		return fmt.Errorf("%w: current password is incorrect", models.ErrInvalidCredentials)
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", models.ErrInvalidInput)
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = s.users.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"password": hashedPassword}})
	return err
}

// HasRole reports whether the user exists and holds role, failing closed.
func (s *UserStore) HasRole(ctx context.Context, userID string, role models.Role) bool {
	oid, ok := objectID(userID)
	if !ok {
		return false
	}
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": oid, "role": string(role)})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Role lookup failed")
		return false
	}
	return n == 1
}
