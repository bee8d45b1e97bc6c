// Package content holds the dialogue lines and phone news shipped with the game.
package content

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"gopkg.in/yaml.v3"
)

//go:embed dialogue.yaml
var defaultCatalog []byte

// NewsItem is one article on the phone's news tab.
type NewsItem struct {
	Title string `yaml:"title" json:"title"`
	Body  string `yaml:"body" json:"body"`
}

// Catalog is the text content of a session.
type Catalog struct {
	Version  string              `yaml:"version" json:"version"`
	Dialogue map[string][]string `yaml:"dialogue" json:"dialogue"`
	News     []NewsItem          `yaml:"news" json:"news"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes and checks a YAML catalog.
func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for _, id := range family.All() {
		if len(c.Dialogue[string(id)]) == 0 {
			return nil, fmt.Errorf("catalog has no dialogue for %s", id)
		}
	}
	return &c, nil
}

// Lines returns the dialogue pool of one member.
func (c *Catalog) Lines(id family.MemberID) []string {
	return c.Dialogue[string(id)]
}
