// Package status exports errors produced by the config package.
package status

import (
	"github.com/oneconcern/amos/pkg/errors"
)

var (
	// ErrInvalidConfig indicates a configuration which cannot be used
	ErrInvalidConfig = errors.New("invalid configuration")
)
