package user

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

var userCols = []string{"id", "email", "name", "password_hash", "is_active", "is_staff",
	"is_superuser", "last_login_at", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*PostgresUserRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewPostgresUserRepo(mockPool, slog.Default()), mockPool
}

func TestPostgresUserRepo_CreateUser(t *testing.T) {
	params := types.NewUserParams{Email: "test@example.com", Name: "Test", PasswordHash: "hash"}

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		id := uuid.New()
		now := time.Now()

		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (email, name, password_hash, is_staff, is_superuser)")).
			WithArgs(params.Email, params.Name, params.PasswordHash, false, false).
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(id, params.Email, params.Name, params.PasswordHash, true, false, false, nil, now, now))

		u, err := repo.CreateUser(context.Background(), params)

		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.True(t, u.IsActive)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(params.Email, params.Name, params.PasswordHash, false, false).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		_, err := repo.CreateUser(context.Background(), params)

		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestPostgresUserRepo_GetUserByEmail(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		mockPool.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")

		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("DatabaseError", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		mockPool.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("test@example.com").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetUserByEmail(context.Background(), "test@example.com")

		require.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrNotFound)
	})
}

func TestPostgresUserRepo_UpdateUser(t *testing.T) {
	t.Run("NameAndPassword", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		id := uuid.New()
		now := time.Now()
		name, hash := "New Name", "newhash"

		mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE users SET name = $1, password_hash = $2, updated_at = $3 WHERE id = $4 RETURNING")).
			WithArgs(name, hash, pgxmock.AnyArg(), id).
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(id, "test@example.com", name, hash, true, false, false, nil, now, now))

		u, err := repo.UpdateUser(context.Background(), id, UserUpdate{Name: &name, PasswordHash: &hash})

		require.NoError(t, err)
		assert.Equal(t, name, u.Name)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NoFieldsFallsBackToGet", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		id := uuid.New()
		now := time.Now()

		mockPool.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(id, "test@example.com", "Test", "hash", true, false, false, nil, now, now))

		u, err := repo.UpdateUser(context.Background(), id, UserUpdate{})

		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("EmailConflict", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		id := uuid.New()
		email := "taken@example.com"

		mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE users SET email = $1")).
			WithArgs(email, pgxmock.AnyArg(), id).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := repo.UpdateUser(context.Background(), id, UserUpdate{Email: &email})

		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestPostgresUserRepo_DeleteUser(t *testing.T) {
	t.Run("Deleted", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		id := uuid.New()
		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.DeleteUser(context.Background(), id))
	})

	t.Run("Missing", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		id := uuid.New()
		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.DeleteUser(context.Background(), id), types.ErrNotFound)
	})
}
