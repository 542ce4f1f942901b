// Package status exports errors produced by the model package.
package status

import (
	"github.com/oneconcern/amos/pkg/errors"
)

var (
	// ErrAlreadyExists indicates a string with the same id is already held by a set
	ErrAlreadyExists = errors.New("string already exists")

	// ErrUnknownConversion indicates an unsupported syntax conversion between legacy formats
	ErrUnknownConversion = errors.New("unknown syntax conversion")

	// ErrInvalidVersion indicates a branch name or version code that cannot be mapped to a version
	ErrInvalidVersion = errors.New("invalid version")
)
