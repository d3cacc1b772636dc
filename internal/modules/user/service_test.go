package user

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/georgemunganga/slist-backend/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), bcrypt.MinCost)

	t.Run("stores a salted hash and normalised email", func(t *testing.T) {
		u, err := svc.RegisterUser(ctx, "  Ann@Example.COM ", "hunter22", "Ann")
		require.NoError(t, err)

		assert.Equal(t, "ann@example.com", u.Email)
		assert.Equal(t, "Ann", u.Name)
		assert.NotEqual(t, "hunter22", u.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter22")))
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := svc.RegisterUser(ctx, "ANN@example.com", "another1", "")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := svc.RegisterUser(ctx, "bob@example.com", "12345", "")
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := svc.RegisterUser(ctx, "bob-at-example", "123456", "")
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("rejects long name", func(t *testing.T) {
		long := "abcdefghijabcdefghijabcdefghijabcdefghijabcdefghijX"
		_, err := svc.RegisterUser(ctx, "carl@example.com", "123456", long)
		assert.ErrorIs(t, err, ErrInvalidName)
	})
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), bcrypt.MinCost)

	u, err := svc.RegisterUser(ctx, "dee@example.com", "secret1", "")
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	got, err = svc.GetUserByEmail(ctx, "DEE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLRepositorySQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.DriverSQLite, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(NewSQLRepository(db), bcrypt.MinCost)

	u, err := svc.RegisterUser(ctx, "eve@example.com", "secret1", "")
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "eve@example.com", got.Email)
	assert.Empty(t, got.Name)

	_, err = svc.RegisterUser(ctx, "eve@example.com", "secret2", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
