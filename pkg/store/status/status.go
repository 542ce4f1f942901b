// Package status exports errors produced by the repository log backends.
package status

import (
	"github.com/oneconcern/amos/pkg/errors"
)

var (
	// ErrNotFound indicates no record or commit matches the query
	ErrNotFound = errors.New("not found")

	// ErrCommitIDRequired indicates an append without a commit identifier
	ErrCommitIDRequired = errors.New("commit id is required")

	// ErrInvalidRecord indicates a record which cannot be appended to the log
	ErrInvalidRecord = errors.New("invalid record")

	// ErrCommitExists indicates an attempt to append twice the same commit
	ErrCommitExists = errors.New("commit already exists")

	// ErrClosed indicates an operation attempted on a closed log
	ErrClosed = errors.New("log is closed")

	// ErrUnknownDimension indicates a distinct query on an unsupported dimension
	ErrUnknownDimension = errors.New("unknown dimension")

	// ErrUnsupportedDriver indicates an SQL driver for which no dialect is known
	ErrUnsupportedDriver = errors.New("unsupported sql driver")
)
