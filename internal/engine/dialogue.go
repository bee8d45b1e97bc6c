package engine

import (
	"github.com/MRamiBalles/ColdFront/server/internal/content"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/rules"
)

// Dialogue picks what family members say and which headlines the phone shows.
type Dialogue struct {
	catalog *content.Catalog
	rng     rules.Intn
}

func NewDialogue(catalog *content.Catalog, rng rules.Intn) *Dialogue {
	return &Dialogue{catalog: catalog, rng: rng}
}

// Line returns a random line for the member.
func (d *Dialogue) Line(id family.MemberID) (string, bool) {
	if d.catalog == nil {
		return "", false
	}
	lines := d.catalog.Lines(id)
	if len(lines) == 0 {
		return "", false
	}
	return lines[d.rng.IntN(len(lines))], true
}

// Headlines returns the news published up to the given day, newest first.
// One article comes out per day.
func (d *Dialogue) Headlines(day int) []content.NewsItem {
	if d.catalog == nil || day < 0 {
		return nil
	}
	n := min(day+1, len(d.catalog.News))
	out := make([]content.NewsItem, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, d.catalog.News[i])
	}
	return out
}
