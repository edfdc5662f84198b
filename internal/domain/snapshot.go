package domain

import "errors"

// Snapshot validation errors
var (
	ErrEmptyVoice          = errors.New("snapshot voice cannot be empty")
	ErrInvalidLength       = errors.New("snapshot desired length is outside the accepted range")
	ErrTooManyStockSymbols = errors.New("snapshot lists too many stock symbols")
)

// maxStockSymbols caps the per-user symbol list; the upstream quote fetch is
// batched and anything beyond this produces an unusably long briefing segment.
const maxStockSymbols = 20

// PreferencesSnapshot is the immutable copy of the user's preferences captured
// when a job is created or reset. Workers read only the snapshot, never live
// preferences, so a mid-pipeline preference change cannot produce a briefing
// that mixes old and new settings.
type PreferencesSnapshot struct {
	PreferredName   string   `json:"preferred_name,omitempty"`
	Location        string   `json:"location,omitempty"`
	Weather         string   `json:"weather,omitempty"`
	CalendarContext string   `json:"calendar_context,omitempty"`
	IncludeNews     bool     `json:"include_news"`
	IncludeSports   bool     `json:"include_sports"`
	IncludeStocks   bool     `json:"include_stocks"`
	StockSymbols    []string `json:"stock_symbols,omitempty"`
	Voice           string   `json:"voice"`
	LengthSeconds   int      `json:"length_seconds"`
}

// Validate checks snapshot fields against the given accepted length range.
// The range comes from configuration, so it is passed in rather than baked
// into the domain.
func (s *PreferencesSnapshot) Validate(minLengthSeconds, maxLengthSeconds int) error {
	if s.Voice == "" {
		return ErrEmptyVoice
	}

	if s.LengthSeconds < minLengthSeconds || s.LengthSeconds > maxLengthSeconds {
		return ErrInvalidLength
	}

	if len(s.StockSymbols) > maxStockSymbols {
		return ErrTooManyStockSymbols
	}

	return nil
}
