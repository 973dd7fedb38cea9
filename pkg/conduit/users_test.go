package conduit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRows(u User) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).
		AddRow(u.ID, u.Username, u.Email, u.PasswordHash, u.Bio, u.Image, u.CreatedAt, u.UpdatedAt)
}

func TestUserStoreCreate(t *testing.T) {
	t.Run("normalizes username and email before insert", func(t *testing.T) {
		c, mock := newTestConduit(t)
		now := time.Now()

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("jules", "jules@example.com", "hash", "", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))

		user, err := c.Register(context.Background(), RegisterParams{
			Username:     "  Jules ",
			Email:        "Jules@Example.COM",
			PasswordHash: "hash",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, "jules", user.Username)
		assert.Equal(t, "jules@example.com", user.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty username fails before any query", func(t *testing.T) {
		c, mock := newTestConduit(t)

		_, err := c.Register(context.Background(), RegisterParams{Email: "a@b.c", PasswordHash: "h"})
		assert.True(t, IsValidation(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email surfaces Conflict", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		_, err := c.Register(context.Background(), RegisterParams{
			Username: "jules", Email: "jules@example.com", PasswordHash: "h",
		})
		assert.True(t, IsConflict(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserStoreLookups(t *testing.T) {
	t.Run("lookup by username normalizes the key", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).
			WithArgs("jules").
			WillReturnRows(userRows(User{ID: 1, Username: "jules", Email: "j@e.c"}))

		user, err := c.Users.GetByUsername(context.Background(), "  JULES ")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lookup by email normalizes the key", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
			WithArgs("j@e.c").
			WillReturnRows(userRows(User{ID: 2, Username: "jules", Email: "j@e.c"}))

		user, err := c.GetUserByEmail(context.Background(), "J@E.C")
		require.NoError(t, err)
		assert.Equal(t, int64(2), user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row surfaces NotFound", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectQuery(`SELECT .+ FROM users`).
			WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := c.GetUser(context.Background(), 99)
		assert.True(t, IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("anonymous is rejected before any query", func(t *testing.T) {
		c, mock := newTestConduit(t)

		_, err := c.UpdateUser(context.Background(), Anonymous, UpdateUserParams{})
		assert.True(t, IsUnauthorized(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil fields keep current values", func(t *testing.T) {
		c, mock := newTestConduit(t)
		now := time.Now()
		bio := "new bio"

		mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(userRows(User{ID: 1, Username: "jules", Email: "j@e.c", PasswordHash: "h", Bio: "old"}))
		mock.ExpectQuery(`UPDATE users SET`).
			WithArgs("jules", "j@e.c", "h", "new bio", nil, int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

		user, err := c.UpdateUser(context.Background(), Viewer{ID: 1}, UpdateUserParams{Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, "jules", user.Username)
		assert.Equal(t, "new bio", user.Bio)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("username change is lowercased", func(t *testing.T) {
		c, mock := newTestConduit(t)
		now := time.Now()
		name := "NewName"

		mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(userRows(User{ID: 1, Username: "jules", Email: "j@e.c", PasswordHash: "h"}))
		mock.ExpectQuery(`UPDATE users SET`).
			WithArgs("newname", "j@e.c", "h", "", nil, int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

		user, err := c.UpdateUser(context.Background(), Viewer{ID: 1}, UpdateUserParams{Username: &name})
		require.NoError(t, err)
		assert.Equal(t, "newname", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
