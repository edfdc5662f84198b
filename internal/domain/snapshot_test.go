package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daystart-app/daystart-api/internal/domain"
)

func TestPreferencesSnapshotValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid snapshot", func(t *testing.T) {
		t.Parallel()

		s := domain.PreferencesSnapshot{Voice: "aurora", LengthSeconds: 180}
		assert.NoError(t, s.Validate(60, 600))
	})

	t.Run("empty voice", func(t *testing.T) {
		t.Parallel()

		s := domain.PreferencesSnapshot{LengthSeconds: 180}
		assert.ErrorIs(t, s.Validate(60, 600), domain.ErrEmptyVoice)
	})

	t.Run("length bounds are inclusive", func(t *testing.T) {
		t.Parallel()

		s := domain.PreferencesSnapshot{Voice: "aurora", LengthSeconds: 60}
		assert.NoError(t, s.Validate(60, 600))

		s.LengthSeconds = 600
		assert.NoError(t, s.Validate(60, 600))

		s.LengthSeconds = 59
		assert.ErrorIs(t, s.Validate(60, 600), domain.ErrInvalidLength)

		s.LengthSeconds = 601
		assert.ErrorIs(t, s.Validate(60, 600), domain.ErrInvalidLength)
	})

	t.Run("too many stock symbols", func(t *testing.T) {
		t.Parallel()

		symbols := make([]string, 21)
		for i := range symbols {
			symbols[i] = "SYM"
		}
		s := domain.PreferencesSnapshot{Voice: "aurora", LengthSeconds: 180, StockSymbols: symbols}
		assert.ErrorIs(t, s.Validate(60, 600), domain.ErrTooManyStockSymbols)

		s.StockSymbols = symbols[:20]
		assert.NoError(t, s.Validate(60, 600))
	})
}
