package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/generation"
)

// ContentProvider supplies live content blocks for the script stage.
// *service.ContentService satisfies it.
type ContentProvider interface {
	GetOrFetch(ctx context.Context, contentType domain.ContentType, region string) (*domain.ContentBlock, error)
}

// ScriptStage turns a queued job's preference snapshot into a briefing
// script. It is the first pipeline stage, draining queued jobs.
type ScriptStage struct {
	generator generation.ScriptGenerator
	content   ContentProvider
	logger    *slog.Logger
}

// NewScriptStage creates a new ScriptStage.
func NewScriptStage(
	generator generation.ScriptGenerator,
	content ContentProvider,
	logger *slog.Logger,
) *ScriptStage {
	return &ScriptStage{
		generator: generator,
		content:   content,
		logger:    logger.With("component", "script_stage"),
	}
}

// TargetStatus implements StageProcessor.
func (s *ScriptStage) TargetStatus() domain.BriefingStatus {
	return domain.StatusQueued
}

// Process gathers the content blocks the snapshot asks for and generates the
// script. A missing content segment degrades the briefing rather than failing
// it; only generation itself decides the job's fate.
func (s *ScriptStage) Process(ctx context.Context, job *domain.Job) (StageResult, error) {
	blocks := s.gatherBlocks(ctx, job)

	script, err := s.generator.GenerateScript(ctx, job.Snapshot, blocks)
	if err != nil {
		if errors.Is(err, generation.ErrTransientFailure) || ctx.Err() != nil {
			return StageResult{}, err
		}
		return failureResult(fmt.Sprintf("script generation failed: %v", err)), nil
	}

	return StageResult{
		NewStatus: domain.StatusScriptReady,
		Script:    &script,
	}, nil
}

// gatherBlocks fetches the content segments enabled in the snapshot. Fetch
// failures are logged and skipped so one dead upstream cannot block every
// briefing.
func (s *ScriptStage) gatherBlocks(ctx context.Context, job *domain.Job) []*domain.ContentBlock {
	region := job.Snapshot.Location
	if region == "" {
		region = "global"
	}

	wanted := make([]domain.ContentType, 0, 3)
	if job.Snapshot.IncludeNews {
		wanted = append(wanted, domain.ContentTypeNews)
	}
	if job.Snapshot.IncludeSports {
		wanted = append(wanted, domain.ContentTypeSports)
	}
	if job.Snapshot.IncludeStocks {
		wanted = append(wanted, domain.ContentTypeStocks)
	}

	blocks := make([]*domain.ContentBlock, 0, len(wanted))
	for _, contentType := range wanted {
		block, err := s.content.GetOrFetch(ctx, contentType, region)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unavailable content segment",
				"error", err,
				"content_type", contentType,
				"region", region,
				"job_id", job.ID)
			continue
		}
		blocks = append(blocks, block)
	}

	return blocks
}
