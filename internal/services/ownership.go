package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// store is the shared database handle of every service. Each call gets its
// own deadline.
type store struct {
	db      *sql.DB
	timeout time.Duration
}

func (s store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// execOwned runs a single owner-scoped statement. The query must restrict on
// both the resource id and the subject id; zero affected rows means the
// resource is missing or belongs to someone else, and both surface as
// ErrNotFound.
func execOwned(ctx context.Context, db execer, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// visibleRecipe is the predicate for recipes a subject may act on: published
// ones, or their own. It expects the recipe alias r and one subject id argument.
const visibleRecipe = "(r.is_published = 1 OR r.user_id = ?)"
