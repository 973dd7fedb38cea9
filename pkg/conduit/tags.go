package conduit

import (
	"context"
	"strings"

	"github.com/lib/pq"
)

// TagStore persists tag rows and article-tag associations. Tags are never
// deleted once referenced.
type TagStore struct {
	db DBExecutor
}

// NewTagStore creates a tag store bound to the given executor.
func NewTagStore(db DBExecutor) *TagStore {
	return &TagStore{db: db}
}

// normalizeTags trims, drops empties and de-duplicates while preserving
// first-seen order.
func normalizeTags(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Ensure upserts the named tags and returns their rows. Existing names are
// left untouched (ON CONFLICT DO NOTHING), so concurrent writers converge
// on the same rows.
func (s *TagStore) Ensure(ctx context.Context, names []string) ([]Tag, error) {
	names = normalizeTags(names)
	if len(names) == 0 {
		return nil, nil
	}

	insert := psql.Insert("tags").Columns("name")
	for _, name := range names {
		insert = insert.Values(name)
	}
	query, args, err := insert.Suffix("ON CONFLICT (name) DO NOTHING").ToSql()
	if err != nil {
		return nil, &Error{Op: "tags.ensure", Table: "tags", Err: err}
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, translateDBError(err, "tags.ensure", "tags")
	}

	var tags []Tag
	const selectByName = `SELECT id, name FROM tags WHERE name = ANY($1) ORDER BY name`
	if err := s.db.SelectContext(ctx, &tags, selectByName, pq.Array(names)); err != nil {
		return nil, translateDBError(err, "tags.ensure", "tags")
	}
	return tags, nil
}

// Attach links tags to an article. Re-attaching an existing link is a
// no-op, so repeated writes merge rather than conflict.
func (s *TagStore) Attach(ctx context.Context, articleID int64, tags []Tag) error {
	if len(tags) == 0 {
		return nil
	}

	insert := psql.Insert("article_tags").Columns("article_id", "tag_id")
	for _, tag := range tags {
		insert = insert.Values(articleID, tag.ID)
	}
	query, args, err := insert.Suffix("ON CONFLICT (article_id, tag_id) DO NOTHING").ToSql()
	if err != nil {
		return &Error{Op: "tags.attach", Table: "article_tags", Err: err}
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return translateDBError(err, "tags.attach", "article_tags")
	}
	return nil
}

// tagsForArticlesQuery batches the tag fact for a whole result set: one
// query regardless of how many articles are being assembled.
const tagsForArticlesQuery = `
SELECT at.article_id, t.name
FROM article_tags at
JOIN tags t ON t.id = at.tag_id
WHERE at.article_id = ANY($1)
ORDER BY t.name`

type articleTagRow struct {
	ArticleID int64  `db:"article_id"`
	Name      string `db:"name"`
}

// ForArticles returns the alphabetically sorted tag names per article id.
func (s *TagStore) ForArticles(ctx context.Context, articleIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}

	var rows []articleTagRow
	if err := s.db.SelectContext(ctx, &rows, tagsForArticlesQuery, pq.Array(articleIDs)); err != nil {
		return nil, translateDBError(err, "tags.forArticles", "article_tags")
	}

	// Rows arrive ordered by name, so per-article slices stay sorted.
	for _, row := range rows {
		result[row.ArticleID] = append(result[row.ArticleID], row.Name)
	}
	return result, nil
}

// All returns every tag name, alphabetically sorted and de-duplicated.
func (s *TagStore) All(ctx context.Context) ([]string, error) {
	var names []string
	const query = `SELECT DISTINCT name FROM tags ORDER BY name`
	if err := s.db.SelectContext(ctx, &names, query); err != nil {
		return nil, translateDBError(err, "tags.all", "tags")
	}
	return names, nil
}

// ListTags returns the global tag listing.
func (c *Conduit) ListTags(ctx context.Context) ([]string, error) {
	return c.Tags.All(ctx)
}
