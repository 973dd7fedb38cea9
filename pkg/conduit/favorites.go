package conduit

import (
	"context"

	"github.com/lib/pq"
)

// FavoriteStore persists (user, article) favorite associations.
type FavoriteStore struct {
	db DBExecutor
}

// NewFavoriteStore creates a favorite store bound to the given executor.
func NewFavoriteStore(db DBExecutor) *FavoriteStore {
	return &FavoriteStore{db: db}
}

// Add records a favorite. A duplicate pair is an idempotent no-op: the
// losing side of a concurrent race observes success, never a conflict.
func (s *FavoriteStore) Add(ctx context.Context, userID, articleID int64) error {
	query, args, err := psql.Insert("favorites").
		Columns("user_id", "article_id").
		Values(userID, articleID).
		Suffix("ON CONFLICT (user_id, article_id) DO NOTHING").
		ToSql()
	if err != nil {
		return &Error{Op: "favorites.add", Table: "favorites", Err: err}
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return translateDBError(err, "favorites.add", "favorites")
	}
	return nil
}

// Remove deletes a favorite. Removing an absent pair is an idempotent no-op.
func (s *FavoriteStore) Remove(ctx context.Context, userID, articleID int64) error {
	const query = `DELETE FROM favorites WHERE user_id = $1 AND article_id = $2`
	if _, err := s.db.ExecContext(ctx, query, userID, articleID); err != nil {
		return translateDBError(err, "favorites.remove", "favorites")
	}
	return nil
}

// FavoriteFacts is the per-article favorite aggregate for a viewer.
type FavoriteFacts struct {
	Count     int64
	Favorited bool
}

// favoriteFactsQuery resolves count and viewer flag in a single batched
// query. An anonymous viewer passes id 0, which matches no row.
const favoriteFactsQuery = `
SELECT article_id, COUNT(*) AS favorites, BOOL_OR(user_id = $1) AS favorited
FROM favorites
WHERE article_id = ANY($2)
GROUP BY article_id`

type favoriteFactRow struct {
	ArticleID int64 `db:"article_id"`
	Favorites int64 `db:"favorites"`
	Favorited bool  `db:"favorited"`
}

// FactsForArticles returns favorite facts per article id. Articles with no
// favorites are simply absent from the map.
func (s *FavoriteStore) FactsForArticles(ctx context.Context, viewer Viewer, articleIDs []int64) (map[int64]FavoriteFacts, error) {
	result := make(map[int64]FavoriteFacts, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}

	var rows []favoriteFactRow
	if err := s.db.SelectContext(ctx, &rows, favoriteFactsQuery, viewer.ID, pq.Array(articleIDs)); err != nil {
		return nil, translateDBError(err, "favorites.facts", "favorites")
	}

	for _, row := range rows {
		result[row.ArticleID] = FavoriteFacts{Count: row.Favorites, Favorited: row.Favorited}
	}
	return result, nil
}

// Facade operations

// FavoriteArticle records the viewer's favorite and returns the re-read
// view from the same transaction, so the returned count observes the write.
func (c *Conduit) FavoriteArticle(ctx context.Context, viewer Viewer, slug string) (*ArticleView, error) {
	if viewer.IsAnonymous() {
		return nil, unauthorized("favorites.add", "authentication required")
	}
	return c.toggleFavorite(ctx, viewer, slug, true)
}

// UnfavoriteArticle removes the viewer's favorite, idempotently, and
// returns the re-read view from the same transaction.
func (c *Conduit) UnfavoriteArticle(ctx context.Context, viewer Viewer, slug string) (*ArticleView, error) {
	if viewer.IsAnonymous() {
		return nil, unauthorized("favorites.remove", "authentication required")
	}
	return c.toggleFavorite(ctx, viewer, slug, false)
}

func (c *Conduit) toggleFavorite(ctx context.Context, viewer Viewer, slug string, favorite bool) (*ArticleView, error) {
	var view *ArticleView
	err := c.WithTransaction(ctx, func(tx *Conduit) error {
		article, err := tx.Articles.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}

		if favorite {
			err = tx.Favorites.Add(ctx, viewer.ID, article.ID)
		} else {
			err = tx.Favorites.Remove(ctx, viewer.ID, article.ID)
		}
		if err != nil {
			return err
		}

		view, err = tx.assembler.ArticleByID(ctx, article.ID, viewer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
