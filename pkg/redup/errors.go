package redup

import (
	"errors"
	"fmt"
)

// NotFoundError indicates that every acquisition strategy was exhausted
// without finding rules for an explicitly requested community.
type NotFoundError struct {
	Community string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no rules found for %s", e.Community)
}

// IsNotFound checks if an error is a rules-not-found error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InvalidCommunityError indicates the community does not exist or its
// profile failed basic sanity checks.
type InvalidCommunityError struct {
	Community string
}

func (e *InvalidCommunityError) Error() string {
	return fmt.Sprintf("%s does not look like a real community", e.Community)
}

// IsInvalidCommunity checks if an error is an invalid-community error.
func IsInvalidCommunity(err error) bool {
	var inv *InvalidCommunityError
	return errors.As(err, &inv)
}
