// Package status exports errors produced by the core package.
package status

import (
	"github.com/oneconcern/amos/pkg/errors"
)

var (
	// ErrLogRequired indicates a repository built without a repository log
	ErrLogRequired = errors.New("a repository log is required")

	// ErrCommit indicates a stage could not be committed: the stage is left untouched
	ErrCommit = errors.New("commit failed")

	// ErrRebase indicates a stage could not be rebased
	ErrRebase = errors.New("rebase failed")

	// ErrPropagate indicates staged translations could not be propagated
	ErrPropagate = errors.New("propagation failed")

	// ErrInvalidSet indicates a string set that cannot be staged
	ErrInvalidSet = errors.New("invalid string set")
)
