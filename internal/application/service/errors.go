package service

import (
	"errors"
	"fmt"

	"github.com/jmquispe/viaticos-core/internal/application/port"
)

// wrapStorage maps a repository failure into the ErrStorage category
// unless it already carries a category (conflict, not found). errors.Join
// keeps the original cause reachable for diagnostics.
func wrapStorage(op string, err error) error {
	if errors.Is(err, port.ErrConflict) || errors.Is(err, port.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, errors.Join(port.ErrStorage, err))
}

// notFound builds a categorized not-found error for an entity identity.
func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, port.ErrNotFound)
}
