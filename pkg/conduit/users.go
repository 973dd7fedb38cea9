package conduit

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
)

var userColumns = []string{"id", "username", "email", "password_hash", "bio", "image", "created_at", "updated_at"}

// UserStore persists account rows.
type UserStore struct {
	db DBExecutor
}

// NewUserStore creates a user store bound to the given executor.
func NewUserStore(db DBExecutor) *UserStore {
	return &UserStore{db: db}
}

// normalizeIdentity lowercases and trims usernames and emails. The source
// material lowercases usernames on write; emails follow the same rule so
// that natural-key lookups stay case-consistent.
func normalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Create inserts a new user. Username and email are normalized before the
// write; a duplicate on either surfaces as Conflict.
func (s *UserStore) Create(ctx context.Context, user *User) error {
	user.Username = normalizeIdentity(user.Username)
	user.Email = normalizeIdentity(user.Email)

	if user.Username == "" {
		return validationErr("users.create", "username is required")
	}
	if user.Email == "" {
		return validationErr("users.create", "email is required")
	}

	query, args, err := psql.Insert("users").
		Columns("username", "email", "password_hash", "bio", "image").
		Values(user.Username, user.Email, user.PasswordHash, user.Bio, user.Image).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return &Error{Op: "users.create", Table: "users", Err: err}
	}

	row := s.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return translateDBError(err, "users.create", "users")
	}
	return nil
}

// GetByID fetches a user by primary key.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.getBy(ctx, "users.getByID", squirrel.Eq{"id": id})
}

// GetByUsername fetches a user by its normalized username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.getBy(ctx, "users.getByUsername", squirrel.Eq{"username": normalizeIdentity(username)})
}

// GetByEmail fetches a user by its normalized email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getBy(ctx, "users.getByEmail", squirrel.Eq{"email": normalizeIdentity(email)})
}

func (s *UserStore) getBy(ctx context.Context, op string, pred squirrel.Sqlizer) (*User, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, &Error{Op: op, Table: "users", Err: err}
	}

	var user User
	if err := s.db.GetContext(ctx, &user, query, args...); err != nil {
		return nil, translateDBError(err, op, "users")
	}
	return &user, nil
}

// Update persists mutable profile fields. The row is matched by id;
// username and email are re-normalized.
func (s *UserStore) Update(ctx context.Context, user *User) error {
	user.Username = normalizeIdentity(user.Username)
	user.Email = normalizeIdentity(user.Email)

	if user.Username == "" {
		return validationErr("users.update", "username is required")
	}
	if user.Email == "" {
		return validationErr("users.update", "email is required")
	}

	query, args, err := psql.Update("users").
		Set("username", user.Username).
		Set("email", user.Email).
		Set("password_hash", user.PasswordHash).
		Set("bio", user.Bio).
		Set("image", user.Image).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": user.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return &Error{Op: "users.update", Table: "users", Err: err}
	}

	row := s.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&user.UpdatedAt); err != nil {
		return translateDBError(err, "users.update", "users")
	}
	return nil
}

// Facade operations

// RegisterParams carries already-validated registration fields. The
// password hash arrives pre-computed from the credential collaborator.
type RegisterParams struct {
	Username     string
	Email        string
	PasswordHash string
	Bio          string
	Image        *string
}

// Register creates a new account.
func (c *Conduit) Register(ctx context.Context, p RegisterParams) (*User, error) {
	user := &User{
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Bio:          p.Bio,
		Image:        p.Image,
	}
	if err := c.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser fetches the account behind a viewer id.
func (c *Conduit) GetUser(ctx context.Context, id int64) (*User, error) {
	return c.Users.GetByID(ctx, id)
}

// GetUserByEmail fetches an account by email (login path).
func (c *Conduit) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return c.Users.GetByEmail(ctx, email)
}

// UpdateUserParams carries optional account changes; nil means unchanged.
type UpdateUserParams struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Bio          *string
	Image        *string
}

// UpdateUser applies partial changes to the viewer's own account.
func (c *Conduit) UpdateUser(ctx context.Context, viewer Viewer, p UpdateUserParams) (*User, error) {
	if viewer.IsAnonymous() {
		return nil, unauthorized("users.update", "authentication required")
	}

	user, err := c.Users.GetByID(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	if p.Username != nil {
		user.Username = *p.Username
	}
	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.PasswordHash != nil {
		user.PasswordHash = *p.PasswordHash
	}
	if p.Bio != nil {
		user.Bio = *p.Bio
	}
	if p.Image != nil {
		user.Image = p.Image
	}

	if err := c.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
