package conduit

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTxManager(t *testing.T) (*TransactionManager, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewTransactionManager(sqlx.NewDb(db, "sqlmock")), mock
}

func TestWithTransaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		tm, mock := newTestTxManager(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tm.WithTransaction(context.Background(), func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(context.Background(), "UPDATE users SET bio = $1", "x")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		tm, mock := newTestTxManager(t)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := tm.WithTransaction(context.Background(), func(tx *sqlx.Tx) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		tm, mock := newTestTxManager(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = tm.WithTransaction(context.Background(), func(tx *sqlx.Tx) error {
				panic("boom")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure is translated", func(t *testing.T) {
		tm, mock := newTestTxManager(t)

		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		err := tm.WithTransaction(context.Background(), func(tx *sqlx.Tx) error {
			t.Fatal("callback must not run")
			return nil
		})
		assert.ErrorIs(t, err, ErrConnectionFailed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionOptions(t *testing.T) {
	t.Run("nil converts to nil", func(t *testing.T) {
		var opts *TransactionOptions
		assert.Nil(t, opts.ToTxOptions())
	})

	t.Run("options carry through", func(t *testing.T) {
		tm, mock := newTestTxManager(t)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := tm.WithTransactionOptions(context.Background(), &TransactionOptions{
			Isolation: sql.LevelSerializable,
			ReadOnly:  true,
		}, func(tx *sqlx.Tx) error {
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
