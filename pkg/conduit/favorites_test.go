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

func TestFavoriteStore(t *testing.T) {
	t.Run("add is idempotent on conflict", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectExec(`INSERT INTO favorites .+ ON CONFLICT \(user_id, article_id\) DO NOTHING`).
			WithArgs(int64(1), int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, c.Favorites.Add(context.Background(), 1, 10))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("remove of absent pair succeeds", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectExec(`DELETE FROM favorites`).
			WithArgs(int64(1), int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, c.Favorites.Remove(context.Background(), 1, 10))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFactsForArticles(t *testing.T) {
	t.Run("empty id set means no query", func(t *testing.T) {
		c, mock := newTestConduit(t)

		facts, err := c.Favorites.FactsForArticles(context.Background(), Viewer{ID: 1}, nil)
		require.NoError(t, err)
		assert.Empty(t, facts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps count and viewer flag per article", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectQuery(`FROM favorites`).
			WithArgs(int64(1), pq.Array([]int64{10, 11, 12})).
			WillReturnRows(sqlmock.NewRows([]string{"article_id", "favorites", "favorited"}).
				AddRow(10, 3, true).
				AddRow(11, 1, false))

		facts, err := c.Favorites.FactsForArticles(context.Background(), Viewer{ID: 1}, []int64{10, 11, 12})
		require.NoError(t, err)
		assert.Equal(t, FavoriteFacts{Count: 3, Favorited: true}, facts[10])
		assert.Equal(t, FavoriteFacts{Count: 1, Favorited: false}, facts[11])
		assert.Equal(t, FavoriteFacts{}, facts[12]) // unfavorited articles are absent
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFavoriteArticle(t *testing.T) {
	t.Run("anonymous is rejected before any query", func(t *testing.T) {
		c, mock := newTestConduit(t)

		_, err := c.FavoriteArticle(context.Background(), Anonymous, "hello-world")
		assert.True(t, IsUnauthorized(err))

		_, err = c.UnfavoriteArticle(context.Background(), Anonymous, "hello-world")
		assert.True(t, IsUnauthorized(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returned view observes the write", func(t *testing.T) {
		c, mock := newTestConduit(t)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM articles WHERE slug = \$1`).
			WithArgs("hello-world").
			WillReturnRows(sqlmock.NewRows(articleColumns).
				AddRow(10, "hello-world", "Hello World", "", "", 2, now, now))
		mock.ExpectExec(`INSERT INTO favorites`).
			WithArgs(int64(1), int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM articles a JOIN users u`).
			WillReturnRows(articleViewRows(Article{
				ID: 10, Slug: "hello-world", Title: "Hello World", AuthorID: 2,
				CreatedAt: now, UpdatedAt: now,
			}, "author"))
		mock.ExpectQuery(`FROM article_tags at`).
			WillReturnRows(sqlmock.NewRows([]string{"article_id", "name"}))
		mock.ExpectQuery(`FROM favorites`).
			WillReturnRows(sqlmock.NewRows([]string{"article_id", "favorites", "favorited"}).
				AddRow(10, 1, true))
		mock.ExpectQuery(`SELECT followed_id FROM follows`).
			WillReturnRows(sqlmock.NewRows([]string{"followed_id"}))
		mock.ExpectCommit()

		view, err := c.FavoriteArticle(context.Background(), Viewer{ID: 1}, "hello-world")
		require.NoError(t, err)
		assert.True(t, view.Favorited)
		assert.Equal(t, int64(1), view.FavoritesCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing article surfaces NotFound", func(t *testing.T) {
		c, mock := newTestConduit(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM articles WHERE slug = \$1`).
			WillReturnRows(sqlmock.NewRows(articleColumns))
		mock.ExpectRollback()

		_, err := c.FavoriteArticle(context.Background(), Viewer{ID: 1}, "nope")
		assert.True(t, IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
