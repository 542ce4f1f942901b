// Package status exports errors produced by the script package.
package status

import (
	"github.com/oneconcern/amos/pkg/errors"
)

var (
	// ErrMalformedScript indicates an instruction which cannot be parsed
	ErrMalformedScript = errors.New("malformed script instruction")

	// ErrExecute indicates an instruction which could not be executed or committed
	ErrExecute = errors.New("script execution failed")
)
