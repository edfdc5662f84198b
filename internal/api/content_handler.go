package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/daystart-app/daystart-api/internal/api/shared"
	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/service"
)

// PutContentRequest is the body of PUT /content. Payload is stored opaquely;
// the script stage hands it to the generator as-is.
type PutContentRequest struct {
	ContentType string          `json:"content_type" validate:"required,oneof=news sports stocks"`
	Region      string          `json:"region" validate:"required"`
	Payload     json.RawMessage `json:"payload" validate:"required"`
	Importance  int             `json:"importance" validate:"gte=0,lte=10"`
}

// ContentResponse acknowledges a stored content block.
type ContentResponse struct {
	ContentType string    `json:"content_type"`
	Region      string    `json:"region"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ContentHandler handles content cache HTTP requests from the re-sync
// scheduler.
type ContentHandler struct {
	contentService *service.ContentService
	logger         *slog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(contentService *service.ContentService, logger *slog.Logger) *ContentHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ContentHandler")
	}

	return &ContentHandler{
		contentService: contentService,
		logger:         logger.With(slog.String("component", "content_handler")),
	}
}

// PutContent handles PUT /content requests, storing a pushed content block
// for every briefing in its region to share.
func (h *ContentHandler) PutContent(w http.ResponseWriter, r *http.Request) {
	var req PutContentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	block, err := h.contentService.Upsert(
		r.Context(),
		domain.ContentType(req.ContentType),
		req.Region,
		req.Payload,
		req.Importance,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ContentResponse{
		ContentType: string(block.ContentType),
		Region:      block.Region,
		ExpiresAt:   block.ExpiresAt,
	})
}
