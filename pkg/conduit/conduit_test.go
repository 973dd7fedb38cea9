package conduit

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConduit(t *testing.T) (*Conduit, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestConduitWiring(t *testing.T) {
	c, _ := newTestConduit(t)

	assert.NotNil(t, c.Users)
	assert.NotNil(t, c.Articles)
	assert.NotNil(t, c.Comments)
	assert.NotNil(t, c.Tags)
	assert.NotNil(t, c.Favorites)
	assert.NotNil(t, c.Follows)
	assert.NotNil(t, c.DB())
	assert.False(t, c.InTransaction())
}

func TestConduitWithTransaction(t *testing.T) {
	t.Run("binds stores to the transaction", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM favorites`).
			WithArgs(int64(1), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := c.WithTransaction(context.Background(), func(tx *Conduit) error {
			assert.True(t, tx.InTransaction())
			assert.Nil(t, tx.DB())
			return tx.Favorites.Remove(context.Background(), 1, 2)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested call reuses the open transaction", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := c.WithTransaction(context.Background(), func(outer *Conduit) error {
			return outer.WithTransaction(context.Background(), func(inner *Conduit) error {
				assert.True(t, inner.InTransaction())
				return nil
			})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("callback error rolls back", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := c.WithTransaction(context.Background(), func(tx *Conduit) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOpenRequiresURL(t *testing.T) {
	_, err := Open(&Config{})
	assert.Error(t, err)

	_, err = Open(nil)
	assert.Error(t, err)
}
