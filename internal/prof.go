// Package internal holds helpers shared by the amos commands.
package internal

import (
	"os"
	"runtime/pprof"

	"go.uber.org/zap"
)

// StartCPUProfile writes a CPU profile to some file, until the returned function is called.
//
// An empty path does nothing.
func StartCPUProfile(path string, logger *zap.Logger) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err = pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			logger.Warn("could not close CPU profile", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Debug("CPU profile written", zap.String("path", path))
	}, nil
}
