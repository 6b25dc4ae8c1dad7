package dataset

import (
	"os"

	"go.uber.org/zap"
)

// ResolveDataDir returns the first candidate path that exists on disk. When
// none exist it returns the first candidate and logs a warning; callers must
// treat a non-existent resolved path as a deferred failure, detected at load
// time rather than here.
func ResolveDataDir(candidates []string, log *zap.SugaredLogger) string {
	if len(candidates) == 0 {
		return ""
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			log.Infow("Found data directory", "path", path)
			return path
		}
	}

	log.Warnw("Data directory not found, using default",
		"path", candidates[0],
		"candidates", candidates)
	return candidates[0]
}
