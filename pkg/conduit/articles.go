package conduit

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/conduit/internal/logger"
)

var articleColumns = []string{"id", "slug", "title", "description", "body", "author_id", "created_at", "updated_at"}

// slugAttempts bounds the retry loop when a concurrent writer claims the
// computed slug between suffix computation and insert.
const slugAttempts = 3

// ArticleStore persists article rows.
type ArticleStore struct {
	db DBExecutor
}

// NewArticleStore creates an article store bound to the given executor.
func NewArticleStore(db DBExecutor) *ArticleStore {
	return &ArticleStore{db: db}
}

// Create inserts a new article. The slug must already be derived; a
// duplicate slug surfaces as Conflict.
func (s *ArticleStore) Create(ctx context.Context, article *Article) error {
	query, args, err := psql.Insert("articles").
		Columns("slug", "title", "description", "body", "author_id").
		Values(article.Slug, article.Title, article.Description, article.Body, article.AuthorID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return &Error{Op: "articles.create", Table: "articles", Err: err}
	}

	row := s.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt); err != nil {
		return translateDBError(err, "articles.create", "articles")
	}
	return nil
}

// GetBySlug fetches an article by its slug.
func (s *ArticleStore) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	return s.getBy(ctx, "articles.getBySlug", squirrel.Eq{"slug": slug})
}

// GetByID fetches an article by primary key.
func (s *ArticleStore) GetByID(ctx context.Context, id int64) (*Article, error) {
	return s.getBy(ctx, "articles.getByID", squirrel.Eq{"id": id})
}

func (s *ArticleStore) getBy(ctx context.Context, op string, pred squirrel.Sqlizer) (*Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("articles").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, &Error{Op: op, Table: "articles", Err: err}
	}

	var article Article
	if err := s.db.GetContext(ctx, &article, query, args...); err != nil {
		return nil, translateDBError(err, op, "articles")
	}
	return &article, nil
}

// Update persists title, description, body and slug. The author reference
// is immutable and never written here.
func (s *ArticleStore) Update(ctx context.Context, article *Article) error {
	query, args, err := psql.Update("articles").
		Set("slug", article.Slug).
		Set("title", article.Title).
		Set("description", article.Description).
		Set("body", article.Body).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": article.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return &Error{Op: "articles.update", Table: "articles", Err: err}
	}

	row := s.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&article.UpdatedAt); err != nil {
		return translateDBError(err, "articles.update", "articles")
	}
	return nil
}

// Delete removes an article. Comments, tag links and favorites ride on the
// cascading foreign keys.
func (s *ArticleStore) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("articles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return &Error{Op: "articles.delete", Table: "articles", Err: err}
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateDBError(err, "articles.delete", "articles")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return translateDBError(err, "articles.delete", "articles")
	}
	if rows == 0 {
		return notFound("articles.delete", "articles")
	}
	return nil
}

// Slugify derives a URL-safe slug from a title: lowercase, alphanumeric
// runs joined by single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// NextSlug derives a free slug for the title: the bare slug when untaken,
// otherwise the lowest numeric suffix ("-2", "-3", ...). excludeID skips
// the article's own row on re-slugging during update.
func (s *ArticleStore) NextSlug(ctx context.Context, title string, excludeID int64) (string, error) {
	base := Slugify(title)
	if base == "" {
		return "", validationErr("articles.slug", "title produces an empty slug")
	}

	b := psql.Select("slug").
		From("articles").
		Where(squirrel.Or{
			squirrel.Eq{"slug": base},
			squirrel.Like{"slug": base + "-%"},
		})
	if excludeID > 0 {
		b = b.Where(squirrel.NotEq{"id": excludeID})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return "", &Error{Op: "articles.slug", Table: "articles", Err: err}
	}

	var taken []string
	if err := s.db.SelectContext(ctx, &taken, query, args...); err != nil {
		return "", translateDBError(err, "articles.slug", "articles")
	}

	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[t] = true
	}

	if !used[base] {
		return base, nil
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !used[candidate] {
			return candidate, nil
		}
	}
}

// Facade operations

// CreateArticleParams carries already-validated article fields.
type CreateArticleParams struct {
	Title       string
	Description string
	Body        string
	Tags        []string
}

// CreateArticle inserts an article with its tags atomically and returns the
// assembled view. A slug race with a concurrent writer is retried with a
// fresh suffix before surfacing Conflict.
func (c *Conduit) CreateArticle(ctx context.Context, viewer Viewer, p CreateArticleParams) (*ArticleView, error) {
	if viewer.IsAnonymous() {
		return nil, unauthorized("articles.create", "authentication required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, validationErr("articles.create", "title is required")
	}

	var view *ArticleView
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		view, err = c.createArticleOnce(ctx, viewer, p)
		if err == nil || !IsConflict(err) {
			return view, err
		}
		logger.Store().WithField("attempt", attempt+1).Debug("slug conflict, retrying")
	}
	return view, err
}

func (c *Conduit) createArticleOnce(ctx context.Context, viewer Viewer, p CreateArticleParams) (*ArticleView, error) {
	var view *ArticleView
	err := c.WithTransaction(ctx, func(tx *Conduit) error {
		slug, err := tx.Articles.NextSlug(ctx, p.Title, 0)
		if err != nil {
			return err
		}

		article := &Article{
			Slug:        slug,
			Title:       p.Title,
			Description: p.Description,
			Body:        p.Body,
			AuthorID:    viewer.ID,
		}
		if err := tx.Articles.Create(ctx, article); err != nil {
			return err
		}

		tags, err := tx.Tags.Ensure(ctx, p.Tags)
		if err != nil {
			return err
		}
		if err := tx.Tags.Attach(ctx, article.ID, tags); err != nil {
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

// GetArticle returns the assembled view for one slug.
func (c *Conduit) GetArticle(ctx context.Context, slug string, viewer Viewer) (*ArticleView, error) {
	return c.assembler.ArticleBySlug(ctx, slug, viewer)
}

// ListArticles returns assembled views matching the filter, newest first.
func (c *Conduit) ListArticles(ctx context.Context, f ArticleFilter, viewer Viewer) ([]ArticleView, error) {
	return c.assembler.List(ctx, f, viewer)
}

// FeedArticles returns articles authored by users the viewer follows.
func (c *Conduit) FeedArticles(ctx context.Context, viewer Viewer, limit, offset int) ([]ArticleView, error) {
	return c.assembler.List(ctx, ArticleFilter{Feed: true, Limit: limit, Offset: offset}, viewer)
}

// UpdateArticleParams carries optional article changes; nil means unchanged.
type UpdateArticleParams struct {
	Title       *string
	Description *string
	Body        *string
}

// UpdateArticle applies author-only changes. A title change re-derives the
// slug with the usual collision suffixing.
func (c *Conduit) UpdateArticle(ctx context.Context, viewer Viewer, slug string, p UpdateArticleParams) (*ArticleView, error) {
	if viewer.IsAnonymous() {
		return nil, unauthorized("articles.update", "authentication required")
	}

	var view *ArticleView
	err := c.WithTransaction(ctx, func(tx *Conduit) error {
		article, err := tx.Articles.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		if article.AuthorID != viewer.ID {
			return unauthorized("articles.update", "only the author may update an article")
		}

		if p.Title != nil && *p.Title != article.Title {
			article.Title = *p.Title
			article.Slug, err = tx.Articles.NextSlug(ctx, article.Title, article.ID)
			if err != nil {
				return err
			}
		}
		if p.Description != nil {
			article.Description = *p.Description
		}
		if p.Body != nil {
			article.Body = *p.Body
		}

		if err := tx.Articles.Update(ctx, article); err != nil {
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

// DeleteArticle removes an author's own article; associated comments, tag
// links and favorites are cascaded by the store.
func (c *Conduit) DeleteArticle(ctx context.Context, viewer Viewer, slug string) error {
	if viewer.IsAnonymous() {
		return unauthorized("articles.delete", "authentication required")
	}

	article, err := c.Articles.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if article.AuthorID != viewer.ID {
		return unauthorized("articles.delete", "only the author may delete an article")
	}

	return c.Articles.Delete(ctx, article.ID)
}
