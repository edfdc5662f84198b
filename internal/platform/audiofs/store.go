// Package audiofs persists synthesized audio on the local filesystem. It
// stands behind generation.AudioStore; swapping in object storage touches
// nothing but this package. The pipeline itself only ever sees the returned
// path.
package audiofs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/daystart-app/daystart-api/internal/generation"
)

// Store writes audio files under a base directory.
type Store struct {
	baseDir string
	logger  *slog.Logger
}

// NewStore creates a Store rooted at baseDir, creating the directory if it
// does not exist. If logger is nil, a default logger will be used.
func NewStore(baseDir string, logger *slog.Logger) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("audio base directory cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}

	return &Store{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "audio_store")),
	}, nil
}

// Ensure Store implements generation.AudioStore
var _ generation.AudioStore = (*Store)(nil)

// Save implements generation.AudioStore.Save.
func (s *Store) Save(ctx context.Context, jobID uuid.UUID, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio payload cannot be empty")
	}

	path := filepath.Join(s.baseDir, jobID.String()+".wav")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		s.logger.Error("failed to write audio file",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	s.logger.Debug("audio file written",
		slog.String("job_id", jobID.String()),
		slog.Int("bytes", len(audio)))
	return path, nil
}
