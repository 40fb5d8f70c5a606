// Package store is the persistence layer: products, user roles, users and
// uploaded product images, all in postgres.
package store

import (
	"database/sql"
	"time"

	"solarcatalog/models"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

const queryTimeout = 5 * time.Second

// validID reports whether id can be a primary key at all; anything else is
// answered with ErrNotFound without a round trip.
func validID(id string) bool {
	_, err := uuid.FromString(id)
	return err == nil
}

func notFound(err error, op string) error {
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	return errors.Wrap(err, op)
}
