package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ContentType identifies the kind of upstream content a block caches.
type ContentType string

// Supported content block types.
const (
	ContentTypeNews   ContentType = "news"
	ContentTypeSports ContentType = "sports"
	ContentTypeStocks ContentType = "stocks"
)

// Content block validation errors
var (
	ErrInvalidContentType  = errors.New("invalid content type")
	ErrEmptyContentRegion  = errors.New("content region cannot be empty")
	ErrEmptyContentPayload = errors.New("content payload cannot be empty")
)

// ContentBlock is a shared, cross-user cache entry for upstream content
// (news/sports/stocks), keyed by content type and region or league. Blocks
// expire independently of any job; no job ever owns or locks one.
type ContentBlock struct {
	ContentType ContentType     `json:"content_type"`
	Region      string          `json:"region"`
	Payload     json.RawMessage `json:"payload"`
	Importance  int             `json:"importance"`
	ExpiresAt   time.Time       `json:"expires_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewContentBlock creates a content block expiring after the given TTL.
func NewContentBlock(
	contentType ContentType,
	region string,
	payload json.RawMessage,
	importance int,
	ttl time.Duration,
) (*ContentBlock, error) {
	now := time.Now().UTC()
	block := &ContentBlock{
		ContentType: contentType,
		Region:      region,
		Payload:     payload,
		Importance:  importance,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}

	if err := block.Validate(); err != nil {
		return nil, err
	}

	return block, nil
}

// Validate checks the content block's key and payload.
func (b *ContentBlock) Validate() error {
	switch b.ContentType {
	case ContentTypeNews, ContentTypeSports, ContentTypeStocks:
	default:
		return ErrInvalidContentType
	}

	if b.Region == "" {
		return ErrEmptyContentRegion
	}

	if len(b.Payload) == 0 {
		return ErrEmptyContentPayload
	}

	return nil
}

// Expired reports whether the block has passed its expiry at the given instant.
func (b *ContentBlock) Expired(now time.Time) bool {
	return !b.ExpiresAt.After(now)
}
