package conduit

import (
	"context"

	"github.com/lib/pq"
)

// FollowStore persists (follower, followed) associations.
type FollowStore struct {
	db DBExecutor
}

// NewFollowStore creates a follow store bound to the given executor.
func NewFollowStore(db DBExecutor) *FollowStore {
	return &FollowStore{db: db}
}

// Add records a follow. Self-follows are rejected at write time; a
// duplicate pair is an idempotent no-op.
func (s *FollowStore) Add(ctx context.Context, followerID, followedID int64) error {
	if followerID == followedID {
		return validationErr("follows.add", "cannot follow yourself")
	}

	query, args, err := psql.Insert("follows").
		Columns("follower_id", "followed_id").
		Values(followerID, followedID).
		Suffix("ON CONFLICT (follower_id, followed_id) DO NOTHING").
		ToSql()
	if err != nil {
		return &Error{Op: "follows.add", Table: "follows", Err: err}
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return translateDBError(err, "follows.add", "follows")
	}
	return nil
}

// Remove deletes a follow. Unfollowing someone not followed is an
// idempotent no-op.
func (s *FollowStore) Remove(ctx context.Context, followerID, followedID int64) error {
	const query = `DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`
	if _, err := s.db.ExecContext(ctx, query, followerID, followedID); err != nil {
		return translateDBError(err, "follows.remove", "follows")
	}
	return nil
}

// IsFollowing reports whether follower follows followed. Anonymous viewers
// (id 0) never follow anyone; no query is issued for them.
func (s *FollowStore) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	if followerID == 0 {
		return false, nil
	}

	const query = `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)`
	var following bool
	if err := s.db.GetContext(ctx, &following, query, followerID, followedID); err != nil {
		return false, translateDBError(err, "follows.isFollowing", "follows")
	}
	return following, nil
}

// followingAmongQuery batches the follow fact across a result set's
// authors: one query regardless of list size.
const followingAmongQuery = `
SELECT followed_id FROM follows WHERE follower_id = $1 AND followed_id = ANY($2)`

// FollowingAmong returns which of the given user ids the follower follows.
// An anonymous follower short-circuits to an empty set without querying.
func (s *FollowStore) FollowingAmong(ctx context.Context, followerID int64, userIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(userIDs))
	if followerID == 0 || len(userIDs) == 0 {
		return result, nil
	}

	var followed []int64
	if err := s.db.SelectContext(ctx, &followed, followingAmongQuery, followerID, pq.Array(userIDs)); err != nil {
		return nil, translateDBError(err, "follows.among", "follows")
	}

	for _, id := range followed {
		result[id] = true
	}
	return result, nil
}

// Facade operations

// GetProfile returns the profile view for a username, with the follow flag
// resolved for the viewer.
func (c *Conduit) GetProfile(ctx context.Context, username string, viewer Viewer) (*ProfileView, error) {
	user, err := c.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	following, err := c.Follows.IsFollowing(ctx, viewer.ID, user.ID)
	if err != nil {
		return nil, err
	}

	return &ProfileView{
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		Following: following,
	}, nil
}

// FollowUser records a follow and returns the refreshed profile.
func (c *Conduit) FollowUser(ctx context.Context, viewer Viewer, username string) (*ProfileView, error) {
	if viewer.IsAnonymous() {
		return nil, unauthorized("follows.add", "authentication required")
	}

	user, err := c.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := c.Follows.Add(ctx, viewer.ID, user.ID); err != nil {
		return nil, err
	}

	return &ProfileView{
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		Following: true,
	}, nil
}

// UnfollowUser removes a follow, idempotently, and returns the refreshed
// profile.
func (c *Conduit) UnfollowUser(ctx context.Context, viewer Viewer, username string) (*ProfileView, error) {
	if viewer.IsAnonymous() {
		return nil, unauthorized("follows.remove", "authentication required")
	}

	user, err := c.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := c.Follows.Remove(ctx, viewer.ID, user.ID); err != nil {
		return nil, err
	}

	return &ProfileView{
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		Following: false,
	}, nil
}
