package generation

import (
	"context"

	"github.com/google/uuid"

	"github.com/daystart-app/daystart-api/internal/domain"
)

// ScriptGenerator defines the interface for producing a briefing script from
// a job's preference snapshot and the shared content blocks. It is the
// boundary between the pipeline and the external LLM service; the lease
// manager and completion protocol never see what stands behind it.
type ScriptGenerator interface {
	// GenerateScript creates the spoken-word script for one briefing.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can be used for cancellation
	//   - snapshot: The immutable preference snapshot captured at job creation
	//   - blocks: Live content blocks relevant to the snapshot's toggles
	//
	// Returns the script text, or an error (see errors.go for specific types).
	GenerateScript(ctx context.Context, snapshot domain.PreferencesSnapshot, blocks []*domain.ContentBlock) (string, error)
}

// Synthesizer defines the interface for turning a finished script into audio
// using the voice chosen in the snapshot.
type Synthesizer interface {
	// Synthesize renders the script as audio bytes in the given voice.
	Synthesize(ctx context.Context, script, voice string) ([]byte, error)
}

// AudioStore persists synthesized audio and returns an opaque pointer to it.
// The pipeline stores only this pointer on the job; the bytes themselves live
// outside this subsystem.
type AudioStore interface {
	// Save writes the audio for a job and returns its storage path.
	Save(ctx context.Context, jobID uuid.UUID, audio []byte) (string, error)
}
