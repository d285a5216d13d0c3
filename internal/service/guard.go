package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

// authorizeOwner allows the resource owner or an administrator.
func authorizeOwner(actor *models.User, ownerID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.IsAdmin || actor.ID == ownerID {
		return nil
	}
	return appErrors.ErrInsufficientPermissions
}

// mutation describes one guarded write. Stages run strictly in the order
// resolve, authorize, validate, mutate, so a missing resource reports 404 before
// a foreign one reports 403, and both before a malformed payload reports 400.
type mutation[T models.Owned] struct {
	resolve   func(ctx context.Context) (T, error)
	authorize func(actor *models.User, item T) error
	validate  func(item T) error
	mutate    func(ctx context.Context, item T) error
}

func (m mutation[T]) run(ctx context.Context, actor *models.User) (T, error) {
	var zero T
	if actor == nil {
		return zero, appErrors.ErrUnauthorized
	}

	item, err := m.resolve(ctx)
	if err != nil {
		return zero, err
	}

	authorize := m.authorize
	if authorize == nil {
		authorize = func(actor *models.User, item T) error { return authorizeOwner(actor, item.OwnerID()) }
	}
	if err := authorize(actor, item); err != nil {
		return zero, err
	}

	if m.validate != nil {
		if err := m.validate(item); err != nil {
			return zero, err
		}
	}

	if err := m.mutate(ctx, item); err != nil {
		return zero, err
	}
	return item, nil
}

// lookupError maps a repository miss onto notFound and anything else onto an internal error.
func lookupError(err error, notFound *appErrors.Error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return appErrors.Internal(err, message)
}
