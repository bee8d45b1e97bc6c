package report

import (
	"bytes"
	"testing"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() engine.Summary {
	return engine.Summary{
		SessionID:    "s-1",
		Won:          true,
		DaysSurvived: 15,
		Totals: engine.Totals{
			FoodConsumed:  1234,
			FoodRetrieved: 9,
			FuelBurned:    12.5,
			TimesSlept:    3,
		},
		AverageTemperature: 55.5,
		LowestTemperature:  40,
		HighestTemperature: 70,
		Members: []engine.MemberOutcome{
			{ID: family.Husband, Survived: true},
			{ID: family.Son, Survived: false},
			{ID: family.Daughter, Survived: true},
		},
	}
}

func TestHeadline(t *testing.T) {
	s := sampleSummary()
	assert.Equal(t, "The freeze is over, but not everyone woke up.", Headline(s))

	s.Members[1].Survived = true
	assert.Equal(t, "Everyone made it through the freeze.", Headline(s))

	s.Won = false
	assert.Equal(t, "The family did not survive the cold.", Headline(s))
}

func TestTextFormatsForLocale(t *testing.T) {
	tests := []struct {
		locale string
		food   string
	}{
		{"", "1,234"},
		{"en-US", "1,234"},
		{"de-DE", "1.234"},
		{"!!", "1,234"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Text(&buf, sampleSummary(), tt.locale))

			out := buf.String()
			assert.Contains(t, out, tt.food)
			assert.Contains(t, out, "Days survived")
			assert.Regexp(t, `Son\s+unconscious`, out)
			assert.Regexp(t, `Husband\s+survived`, out)
		})
	}
}

func TestTOMLRoundTrip(t *testing.T) {
	out, err := TOML(sampleSummary())
	require.NoError(t, err)

	var doc struct {
		Headline string         `toml:"headline"`
		Summary  engine.Summary `toml:"summary"`
	}
	require.NoError(t, toml.Unmarshal(out, &doc))
	assert.Equal(t, sampleSummary(), doc.Summary)
	assert.Contains(t, string(out), "days_survived = 15")
}
