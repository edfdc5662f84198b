package task_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/generation"
	"github.com/daystart-app/daystart-api/internal/store"
	"github.com/daystart-app/daystart-api/internal/task"
)

// fakeGenerator implements generation.ScriptGenerator.
type fakeGenerator struct {
	script string
	err    error
	blocks []*domain.ContentBlock
}

func (g *fakeGenerator) GenerateScript(
	ctx context.Context,
	snapshot domain.PreferencesSnapshot,
	blocks []*domain.ContentBlock,
) (string, error) {
	g.blocks = blocks
	return g.script, g.err
}

// fakeContentProvider implements task.ContentProvider.
type fakeContentProvider struct {
	blocks map[domain.ContentType]*domain.ContentBlock
}

func (p *fakeContentProvider) GetOrFetch(
	ctx context.Context,
	contentType domain.ContentType,
	region string,
) (*domain.ContentBlock, error) {
	block, ok := p.blocks[contentType]
	if !ok {
		return nil, store.ErrContentBlockNotFound
	}
	return block, nil
}

// fakeSynthesizer implements generation.Synthesizer.
type fakeSynthesizer struct {
	audio []byte
	err   error
	voice string
}

func (s *fakeSynthesizer) Synthesize(ctx context.Context, script, voice string) ([]byte, error) {
	s.voice = voice
	return s.audio, s.err
}

// fakeAudioStore implements generation.AudioStore.
type fakeAudioStore struct {
	path string
	err  error
}

func (s *fakeAudioStore) Save(ctx context.Context, jobID uuid.UUID, audio []byte) (string, error) {
	return s.path, s.err
}

func newsBlock(t *testing.T) *domain.ContentBlock {
	t.Helper()
	block, err := domain.NewContentBlock(
		domain.ContentTypeNews, "berlin",
		json.RawMessage(`{"headlines":["x"]}`), 5, time.Hour,
	)
	require.NoError(t, err)
	return block
}

func TestScriptStageProcess(t *testing.T) {
	t.Parallel()

	job := &domain.Job{
		ID:     uuid.New(),
		Status: domain.StatusScriptProcessing,
		Snapshot: domain.PreferencesSnapshot{
			Voice:         "aurora",
			LengthSeconds: 180,
			Location:      "berlin",
			IncludeNews:   true,
			IncludeSports: true,
		},
	}

	t.Run("success produces script_ready", func(t *testing.T) {
		t.Parallel()

		gen := &fakeGenerator{script: "Guten Morgen."}
		provider := &fakeContentProvider{
			blocks: map[domain.ContentType]*domain.ContentBlock{
				domain.ContentTypeNews: newsBlock(t),
			},
		}
		stage := task.NewScriptStage(gen, provider, testLogger())

		assert.Equal(t, domain.StatusQueued, stage.TargetStatus())

		result, err := stage.Process(context.Background(), job)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusScriptReady, result.NewStatus)
		require.NotNil(t, result.Script)
		assert.Equal(t, "Guten Morgen.", *result.Script)

		// Sports was requested but unavailable; the stage degrades to the
		// blocks it could get rather than failing.
		assert.Len(t, gen.blocks, 1)
	})

	t.Run("permanent generation failure produces failed", func(t *testing.T) {
		t.Parallel()

		gen := &fakeGenerator{err: generation.ErrContentBlocked}
		stage := task.NewScriptStage(gen, &fakeContentProvider{}, testLogger())

		result, err := stage.Process(context.Background(), job)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusFailed, result.NewStatus)
		require.NotNil(t, result.FailureReason)
		assert.Contains(t, *result.FailureReason, "script generation failed")
	})

	t.Run("transient failure abandons for retry", func(t *testing.T) {
		t.Parallel()

		gen := &fakeGenerator{
			err: fmt.Errorf("%w: 503 from model", generation.ErrTransientFailure),
		}
		stage := task.NewScriptStage(gen, &fakeContentProvider{}, testLogger())

		_, err := stage.Process(context.Background(), job)
		assert.ErrorIs(t, err, generation.ErrTransientFailure)
	})
}

func TestAudioStageProcess(t *testing.T) {
	t.Parallel()

	script := "Good morning, Alex."
	job := &domain.Job{
		ID:     uuid.New(),
		Status: domain.StatusAudioProcessing,
		Script: &script,
		Snapshot: domain.PreferencesSnapshot{
			Voice:         "aurora",
			LengthSeconds: 180,
		},
	}

	t.Run("success produces ready with audio path", func(t *testing.T) {
		t.Parallel()

		synth := &fakeSynthesizer{audio: []byte("RIFF")}
		audioStore := &fakeAudioStore{path: "/audio/" + job.ID.String() + ".wav"}
		stage := task.NewAudioStage(synth, audioStore)

		assert.Equal(t, domain.StatusScriptReady, stage.TargetStatus())

		result, err := stage.Process(context.Background(), job)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusReady, result.NewStatus)
		require.NotNil(t, result.AudioPath)
		assert.Equal(t, audioStore.path, *result.AudioPath)
		assert.Equal(t, "aurora", synth.voice)
	})

	t.Run("missing script is a permanent failure", func(t *testing.T) {
		t.Parallel()

		bare := *job
		bare.Script = nil
		stage := task.NewAudioStage(&fakeSynthesizer{}, &fakeAudioStore{})

		result, err := stage.Process(context.Background(), &bare)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, result.NewStatus)
	})

	t.Run("synthesis failure produces failed", func(t *testing.T) {
		t.Parallel()

		synth := &fakeSynthesizer{err: generation.ErrInvalidResponse}
		stage := task.NewAudioStage(synth, &fakeAudioStore{})

		result, err := stage.Process(context.Background(), job)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, result.NewStatus)
	})

	t.Run("storage failure abandons for retry", func(t *testing.T) {
		t.Parallel()

		synth := &fakeSynthesizer{audio: []byte("RIFF")}
		audioStore := &fakeAudioStore{err: assert.AnError}
		stage := task.NewAudioStage(synth, audioStore)

		_, err := stage.Process(context.Background(), job)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
