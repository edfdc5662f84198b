package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/generation"
)

// AudioStage renders a finished script as audio in the snapshot's voice and
// persists the result. It is the second pipeline stage, draining script_ready
// jobs.
type AudioStage struct {
	synthesizer generation.Synthesizer
	audioStore  generation.AudioStore
}

// NewAudioStage creates a new AudioStage.
func NewAudioStage(synthesizer generation.Synthesizer, audioStore generation.AudioStore) *AudioStage {
	return &AudioStage{
		synthesizer: synthesizer,
		audioStore:  audioStore,
	}
}

// TargetStatus implements StageProcessor.
func (s *AudioStage) TargetStatus() domain.BriefingStatus {
	return domain.StatusScriptReady
}

// Process synthesizes and stores the audio. Storage failures are treated as
// transient; the script survives on the job row, so a retry only repeats
// synthesis.
func (s *AudioStage) Process(ctx context.Context, job *domain.Job) (StageResult, error) {
	if job.Script == nil || *job.Script == "" {
		// A script_ready job always carries a script; a bare one indicates
		// storage corruption, not a retryable condition.
		return failureResult("job reached audio stage without a script"), nil
	}

	audio, err := s.synthesizer.Synthesize(ctx, *job.Script, job.Snapshot.Voice)
	if err != nil {
		if errors.Is(err, generation.ErrTransientFailure) || ctx.Err() != nil {
			return StageResult{}, err
		}
		return failureResult(fmt.Sprintf("audio synthesis failed: %v", err)), nil
	}

	path, err := s.audioStore.Save(ctx, job.ID, audio)
	if err != nil {
		return StageResult{}, fmt.Errorf("failed to store synthesized audio: %w", err)
	}

	return StageResult{
		NewStatus: domain.StatusReady,
		AudioPath: &path,
	}, nil
}
