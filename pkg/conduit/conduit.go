// Package conduit is the persistence and read-model layer for a RealWorld
// (Medium-clone) backend: entity stores for users, articles, comments, tags,
// favorites and follows, a composable article filter, and an assembler that
// produces denormalized read views with batched relationship loading.
//
// The package is a library boundary. Routing, credential resolution and
// response serialization are external collaborators: operations take
// already-validated parameters and a resolved Viewer, and return plain
// structured views.
package conduit

import (
	"context"
	"fmt"

	"github.com/eleven-am/conduit/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Conduit is the main entry point. It holds the entity stores bound to the
// current executor: the shared pool, or an active transaction inside
// WithTransaction.
type Conduit struct {
	db   DBExecutor
	pool *sqlx.DB

	Users     *UserStore
	Articles  *ArticleStore
	Comments  *CommentStore
	Tags      *TagStore
	Favorites *FavoriteStore
	Follows   *FollowStore

	assembler *Assembler
	tm        *TransactionManager
}

// Open connects to PostgreSQL using the config, verifies the connection and
// returns a ready Conduit.
func Open(cfg *Config) (*Conduit, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required")
	}

	logger.SetLevel(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, translateDBError(fmt.Errorf("failed to connect: %w", err), "open", "")
	}

	db.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	logger.DB().WithField("max_open_conns", cfg.Pool.MaxOpenConns).Debug("pool configured")

	return New(db), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB) *Conduit {
	return newWithExecutor(db, db)
}

func newWithExecutor(pool *sqlx.DB, exec DBExecutor) *Conduit {
	c := &Conduit{
		db:        exec,
		pool:      pool,
		Users:     NewUserStore(exec),
		Articles:  NewArticleStore(exec),
		Comments:  NewCommentStore(exec),
		Tags:      NewTagStore(exec),
		Favorites: NewFavoriteStore(exec),
		Follows:   NewFollowStore(exec),
	}
	c.assembler = NewAssembler(exec)
	if pool != nil {
		c.tm = NewTransactionManager(pool)
	}
	return c
}

// WithTransaction executes fn with a transaction-bound Conduit: every store
// and assembler call inside fn runs on the same transaction. Either all
// statements commit or all roll back. Nested calls reuse the open
// transaction.
func (c *Conduit) WithTransaction(ctx context.Context, fn func(*Conduit) error) error {
	if _, isTx := c.db.(*sqlx.Tx); isTx {
		return fn(c)
	}

	if c.tm == nil {
		return fmt.Errorf("cannot start transaction: executor is not a database connection")
	}

	return c.tm.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return fn(newWithExecutor(c.pool, tx))
	})
}

// InTransaction returns true when this Conduit is bound to an open transaction.
func (c *Conduit) InTransaction() bool {
	_, ok := c.db.(*sqlx.Tx)
	return ok
}

// DB returns the underlying pool, or nil when transaction-bound.
func (c *Conduit) DB() *sqlx.DB {
	if db, ok := c.db.(*sqlx.DB); ok {
		return db
	}
	return nil
}

// Close releases the connection pool.
func (c *Conduit) Close() error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Close()
}
