package conduit

import (
	"github.com/Masterminds/squirrel"
)

// psql is the shared builder for PostgreSQL placeholder syntax.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Pagination bounds. Out-of-range requests are clamped, never rejected.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ArticleFilter selects and paginates articles for list assembly. All
// predicate fields are optional and compose with AND.
type ArticleFilter struct {
	// Tag keeps articles carrying the named tag.
	Tag string

	// Author keeps articles written by the named user.
	Author string

	// FavoritedBy keeps articles favorited by the named user.
	FavoritedBy string

	// Feed restricts to authors the viewer follows. Requires an
	// authenticated viewer.
	Feed bool

	// Limit caps the page size. Zero means DefaultLimit; values above
	// MaxLimit are clamped.
	Limit int

	// Offset skips rows from the top of the ordering. Negative values are
	// treated as zero.
	Offset int
}

// validate rejects combinations that cannot produce a meaningful result.
// Called before any query is issued.
func (f ArticleFilter) validate(viewer Viewer) error {
	if f.Feed && viewer.IsAnonymous() {
		return validationErr("articles.feed", "feed requires an authenticated viewer")
	}
	return nil
}

// clamp resolves the effective limit and offset.
func (f ArticleFilter) clamp() (limit, offset uint64) {
	l := f.Limit
	if l <= 0 {
		l = DefaultLimit
	}
	if l > MaxLimit {
		l = MaxLimit
	}
	o := f.Offset
	if o < 0 {
		o = 0
	}
	return uint64(l), uint64(o)
}

// toSQL renders the filter as a select over articles joined to their
// authors. Ordering is newest first with id as a tiebreaker so pagination
// stays stable across identical timestamps.
func (f ArticleFilter) toSQL(viewer Viewer) (string, []interface{}, error) {
	b := psql.Select(articleViewColumns...).
		From("articles a").
		Join("users u ON u.id = a.author_id")

	if f.Tag != "" {
		b = b.Where(squirrel.Expr(
			`EXISTS (SELECT 1 FROM article_tags at JOIN tags t ON t.id = at.tag_id WHERE at.article_id = a.id AND t.name = ?)`,
			f.Tag,
		))
	}
	if f.Author != "" {
		b = b.Where(squirrel.Eq{"u.username": normalizeIdentity(f.Author)})
	}
	if f.FavoritedBy != "" {
		b = b.Where(squirrel.Expr(
			`EXISTS (SELECT 1 FROM favorites fv JOIN users fu ON fu.id = fv.user_id WHERE fv.article_id = a.id AND fu.username = ?)`,
			normalizeIdentity(f.FavoritedBy),
		))
	}
	if f.Feed {
		b = b.Where(squirrel.Expr(
			`a.author_id IN (SELECT followed_id FROM follows WHERE follower_id = ?)`,
			viewer.ID,
		))
	}

	limit, offset := f.clamp()
	b = b.OrderBy("a.created_at DESC", "a.id DESC").
		Limit(limit).
		Offset(offset)

	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, &Error{Op: "articles.list", Table: "articles", Err: err}
	}
	return query, args, nil
}
