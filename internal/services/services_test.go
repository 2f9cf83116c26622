package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/isdelr/voting-be/internal/database"
	"github.com/isdelr/voting-be/internal/models"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "voting.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, svc *UserService, email string, role models.Role) models.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), models.SignupPayload{
		Name:     "User " + email,
		Email:    email,
		Password: "password1",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}
