package conduit

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/conduit/internal/logger"
)

// articleViewColumns is the projection for article assembly: the article
// row plus its author, joined in one pass.
var articleViewColumns = []string{
	"a.id", "a.slug", "a.title", "a.description", "a.body",
	"a.author_id", "a.created_at", "a.updated_at",
	"u.username AS author_username",
	"u.bio AS author_bio",
	"u.image AS author_image",
}

// articleRow is the scan target for the joined projection.
type articleRow struct {
	Article
	AuthorUsername string  `db:"author_username"`
	AuthorBio      string  `db:"author_bio"`
	AuthorImage    *string `db:"author_image"`
}

var commentViewColumns = []string{
	"c.id", "c.body", "c.author_id", "c.article_id", "c.created_at", "c.updated_at",
	"u.username AS author_username",
	"u.bio AS author_bio",
	"u.image AS author_image",
}

type commentRow struct {
	Comment
	AuthorUsername string  `db:"author_username"`
	AuthorBio      string  `db:"author_bio"`
	AuthorImage    *string `db:"author_image"`
}

// Assembler composes read models from base rows plus batched relationship
// facts. For a page of N articles it issues one row query and at most three
// fact queries (tags, favorites, follows), independent of N.
type Assembler struct {
	db        DBExecutor
	tags      *TagStore
	favorites *FavoriteStore
	follows   *FollowStore
	log       logger.Logger
}

// NewAssembler creates an assembler whose fact stores share the given
// executor, so assembly inside a transaction observes that transaction's
// writes.
func NewAssembler(db DBExecutor) *Assembler {
	return &Assembler{
		db:        db,
		tags:      NewTagStore(db),
		favorites: NewFavoriteStore(db),
		follows:   NewFollowStore(db),
		log:       logger.Assembler(),
	}
}

// List returns assembled article views matching the filter. The filter is
// validated before any query is issued.
func (a *Assembler) List(ctx context.Context, f ArticleFilter, viewer Viewer) ([]ArticleView, error) {
	if err := f.validate(viewer); err != nil {
		return nil, err
	}

	query, args, err := f.toSQL(viewer)
	if err != nil {
		return nil, err
	}

	var rows []articleRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translateDBError(err, "articles.list", "articles")
	}

	return a.assemble(ctx, rows, viewer)
}

// ArticleBySlug assembles the view for a single slug.
func (a *Assembler) ArticleBySlug(ctx context.Context, slug string, viewer Viewer) (*ArticleView, error) {
	return a.articleWhere(ctx, "articles.get", squirrel.Eq{"a.slug": slug}, viewer)
}

// ArticleByID assembles the view for a single article id.
func (a *Assembler) ArticleByID(ctx context.Context, id int64, viewer Viewer) (*ArticleView, error) {
	return a.articleWhere(ctx, "articles.get", squirrel.Eq{"a.id": id}, viewer)
}

func (a *Assembler) articleWhere(ctx context.Context, op string, pred squirrel.Sqlizer, viewer Viewer) (*ArticleView, error) {
	query, args, err := psql.Select(articleViewColumns...).
		From("articles a").
		Join("users u ON u.id = a.author_id").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, &Error{Op: op, Table: "articles", Err: err}
	}

	var row articleRow
	if err := a.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, translateDBError(err, op, "articles")
	}

	views, err := a.assemble(ctx, []articleRow{row}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// assemble attaches the batched relationship facts to the base rows,
// preserving row order. An empty input returns an empty, non-nil slice.
func (a *Assembler) assemble(ctx context.Context, rows []articleRow, viewer Viewer) ([]ArticleView, error) {
	views := make([]ArticleView, 0, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	articleIDs := make([]int64, 0, len(rows))
	authorSet := make(map[int64]bool, len(rows))
	authorIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		articleIDs = append(articleIDs, row.ID)
		if !authorSet[row.AuthorID] {
			authorSet[row.AuthorID] = true
			authorIDs = append(authorIDs, row.AuthorID)
		}
	}

	tagsByArticle, err := a.tags.ForArticles(ctx, articleIDs)
	if err != nil {
		return nil, err
	}
	facts, err := a.favorites.FactsForArticles(ctx, viewer, articleIDs)
	if err != nil {
		return nil, err
	}
	following, err := a.follows.FollowingAmong(ctx, viewer.ID, authorIDs)
	if err != nil {
		return nil, err
	}

	a.log.WithFields(map[string]interface{}{
		"articles": len(rows),
		"authors":  len(authorIDs),
	}).Debug("assembled article views")

	for _, row := range rows {
		tagList := tagsByArticle[row.ID]
		if tagList == nil {
			tagList = []string{}
		}
		fact := facts[row.ID]

		views = append(views, ArticleView{
			Slug:           row.Slug,
			Title:          row.Title,
			Description:    row.Description,
			Body:           row.Body,
			TagList:        tagList,
			CreatedAt:      row.CreatedAt,
			UpdatedAt:      row.UpdatedAt,
			Favorited:      fact.Favorited,
			FavoritesCount: fact.Count,
			Author: ProfileView{
				Username:  row.AuthorUsername,
				Bio:       row.AuthorBio,
				Image:     row.AuthorImage,
				Following: following[row.AuthorID],
			},
		})
	}
	return views, nil
}

// CommentsForArticle assembles comment views for one article, oldest first.
func (a *Assembler) CommentsForArticle(ctx context.Context, articleID int64, viewer Viewer) ([]CommentView, error) {
	query, args, err := psql.Select(commentViewColumns...).
		From("comments c").
		Join("users u ON u.id = c.author_id").
		Where(squirrel.Eq{"c.article_id": articleID}).
		OrderBy("c.created_at ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, &Error{Op: "comments.list", Table: "comments", Err: err}
	}

	var rows []commentRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translateDBError(err, "comments.list", "comments")
	}

	return a.assembleComments(ctx, rows, viewer)
}

// CommentByID assembles the view for a single comment.
func (a *Assembler) CommentByID(ctx context.Context, id int64, viewer Viewer) (*CommentView, error) {
	query, args, err := psql.Select(commentViewColumns...).
		From("comments c").
		Join("users u ON u.id = c.author_id").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, &Error{Op: "comments.get", Table: "comments", Err: err}
	}

	var row commentRow
	if err := a.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, translateDBError(err, "comments.get", "comments")
	}

	views, err := a.assembleComments(ctx, []commentRow{row}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (a *Assembler) assembleComments(ctx context.Context, rows []commentRow, viewer Viewer) ([]CommentView, error) {
	views := make([]CommentView, 0, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	authorSet := make(map[int64]bool, len(rows))
	authorIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		if !authorSet[row.AuthorID] {
			authorSet[row.AuthorID] = true
			authorIDs = append(authorIDs, row.AuthorID)
		}
	}

	following, err := a.follows.FollowingAmong(ctx, viewer.ID, authorIDs)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		views = append(views, CommentView{
			ID:        row.ID,
			Body:      row.Body,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			Author: ProfileView{
				Username:  row.AuthorUsername,
				Bio:       row.AuthorBio,
				Image:     row.AuthorImage,
				Following: following[row.AuthorID],
			},
		})
	}
	return views, nil
}
