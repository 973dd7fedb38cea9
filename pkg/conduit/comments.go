package conduit

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
)

var commentColumns = []string{"id", "body", "author_id", "article_id", "created_at", "updated_at"}

// CommentStore persists comment rows.
type CommentStore struct {
	db DBExecutor
}

// NewCommentStore creates a comment store bound to the given executor.
func NewCommentStore(db DBExecutor) *CommentStore {
	return &CommentStore{db: db}
}

// Create inserts a new comment on an existing article.
func (s *CommentStore) Create(ctx context.Context, comment *Comment) error {
	query, args, err := psql.Insert("comments").
		Columns("body", "author_id", "article_id").
		Values(comment.Body, comment.AuthorID, comment.ArticleID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return &Error{Op: "comments.create", Table: "comments", Err: err}
	}

	row := s.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
		return translateDBError(err, "comments.create", "comments")
	}
	return nil
}

// GetByID fetches a comment by primary key.
func (s *CommentStore) GetByID(ctx context.Context, id int64) (*Comment, error) {
	query, args, err := psql.Select(commentColumns...).
		From("comments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, &Error{Op: "comments.getByID", Table: "comments", Err: err}
	}

	var comment Comment
	if err := s.db.GetContext(ctx, &comment, query, args...); err != nil {
		return nil, translateDBError(err, "comments.getByID", "comments")
	}
	return &comment, nil
}

// Delete removes a comment.
func (s *CommentStore) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("comments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return &Error{Op: "comments.delete", Table: "comments", Err: err}
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateDBError(err, "comments.delete", "comments")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return translateDBError(err, "comments.delete", "comments")
	}
	if rows == 0 {
		return notFound("comments.delete", "comments")
	}
	return nil
}

// Facade operations

// AddComment creates a comment on the slug's article and returns its
// assembled view, atomically.
func (c *Conduit) AddComment(ctx context.Context, viewer Viewer, slug, body string) (*CommentView, error) {
	if viewer.IsAnonymous() {
		return nil, unauthorized("comments.create", "authentication required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, validationErr("comments.create", "body is required")
	}

	var view *CommentView
	err := c.WithTransaction(ctx, func(tx *Conduit) error {
		article, err := tx.Articles.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}

		comment := &Comment{
			Body:      body,
			AuthorID:  viewer.ID,
			ArticleID: article.ID,
		}
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}

		view, err = tx.assembler.CommentByID(ctx, comment.ID, viewer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ArticleComments returns assembled comment views for a slug, oldest first.
func (c *Conduit) ArticleComments(ctx context.Context, slug string, viewer Viewer) ([]CommentView, error) {
	article, err := c.Articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return c.assembler.CommentsForArticle(ctx, article.ID, viewer)
}

// DeleteComment removes a comment, restricted to its author. The comment
// must belong to the slug's article.
func (c *Conduit) DeleteComment(ctx context.Context, viewer Viewer, slug string, commentID int64) error {
	if viewer.IsAnonymous() {
		return unauthorized("comments.delete", "authentication required")
	}

	article, err := c.Articles.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	comment, err := c.Comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.ArticleID != article.ID {
		return notFound("comments.delete", "comments")
	}
	if comment.AuthorID != viewer.ID {
		return unauthorized("comments.delete", "only the author may delete a comment")
	}

	return c.Comments.Delete(ctx, commentID)
}
