package conduit

import "time"

// Viewer identifies the requesting user. The token/identity collaborator
// resolves credentials before this layer is invoked; here a viewer is only
// an id or anonymous.
type Viewer struct {
	ID int64
}

// Anonymous is the unauthenticated viewer.
var Anonymous = Viewer{}

// IsAnonymous reports whether the viewer carries no identity.
func (v Viewer) IsAnonymous() bool { return v.ID == 0 }

// User is a persisted account row. PasswordHash is opaque to this layer;
// hashing and verification belong to an external collaborator.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Bio          string    `db:"bio"`
	Image        *string   `db:"image"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Article is a persisted article row. AuthorID is immutable after creation.
type Article struct {
	ID          int64     `db:"id"`
	Slug        string    `db:"slug"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Body        string    `db:"body"`
	AuthorID    int64     `db:"author_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Comment is a persisted comment row.
type Comment struct {
	ID        int64     `db:"id"`
	Body      string    `db:"body"`
	AuthorID  int64     `db:"author_id"`
	ArticleID int64     `db:"article_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Tag is a persisted tag row, globally unique by name.
type Tag struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// ProfileView is the denormalized author/profile read view.
type ProfileView struct {
	Username  string  `json:"username"`
	Bio       string  `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

// ArticleView is the fully assembled article read view: tag names sorted,
// favorite facts resolved for the viewer, author profile with follow state.
type ArticleView struct {
	Slug           string      `json:"slug"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Body           string      `json:"body"`
	TagList        []string    `json:"tagList"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	Favorited      bool        `json:"favorited"`
	FavoritesCount int64       `json:"favoritesCount"`
	Author         ProfileView `json:"author"`
}

// CommentView is the assembled comment read view.
type CommentView struct {
	ID        int64       `json:"id"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Author    ProfileView `json:"author"`
}
