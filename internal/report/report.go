// Package report renders end-of-session summaries for people and for files.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is used when no locale is given or it does not parse.
const DefaultLocale = "en-US"

// Headline is the one-line verdict of a session.
func Headline(s engine.Summary) string {
	switch {
	case s.Won && allSurvived(s):
		return "Everyone made it through the freeze."
	case s.Won:
		return "The freeze is over, but not everyone woke up."
	default:
		return "The family did not survive the cold."
	}
}

// Text writes the summary as an aligned table, formatting numbers for locale.
func Text(w io.Writer, s engine.Summary, locale string) error {
	p := message.NewPrinter(parseLocale(locale))

	var b strings.Builder
	fmt.Fprintln(&b, Headline(s))
	fmt.Fprintln(&b)
	p.Fprintf(&b, "%-22s %d\n", "Days survived", s.DaysSurvived)
	p.Fprintf(&b, "%-22s %d\n", "Food eaten", s.Totals.FoodConsumed)
	p.Fprintf(&b, "%-22s %d\n", "Food brought home", s.Totals.FoodRetrieved)
	p.Fprintf(&b, "%-22s %.1f\n", "Water drunk", s.Totals.WaterConsumed)
	p.Fprintf(&b, "%-22s %.1f\n", "Water melted", s.Totals.WaterCreated)
	p.Fprintf(&b, "%-22s %.2f\n", "Fuel added", s.Totals.FuelCreated)
	p.Fprintf(&b, "%-22s %.2f\n", "Fuel burned", s.Totals.FuelBurned)
	p.Fprintf(&b, "%-22s %d\n", "Nights slept", s.Totals.TimesSlept)
	p.Fprintf(&b, "%-22s %.1f°\n", "Average temperature", s.AverageTemperature)
	p.Fprintf(&b, "%-22s %.1f° / %.1f°\n", "Coldest / warmest", s.LowestTemperature, s.HighestTemperature)

	if len(s.Members) > 0 {
		fmt.Fprintln(&b)
		for _, m := range s.Members {
			state := "survived"
			if !m.Survived {
				state = "unconscious"
			}
			fmt.Fprintf(&b, "%-22s %s\n", m.ID.DisplayName(), state)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// TOML encodes the summary for archiving next to the effective config.
func TOML(s engine.Summary) ([]byte, error) {
	doc := struct {
		Headline string         `toml:"headline"`
		Summary  engine.Summary `toml:"summary"`
	}{Headline(s), s}

	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return out, nil
}

func parseLocale(locale string) language.Tag {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.MustParse(DefaultLocale)
	}
	return tag
}

func allSurvived(s engine.Summary) bool {
	for _, m := range s.Members {
		if !m.Survived {
			return false
		}
	}
	return true
}
