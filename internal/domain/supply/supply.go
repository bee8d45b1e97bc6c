// Package supply defines the household furniture that can be broken up for firewood.
// This package is PURE and must NOT import any infrastructure packages.
package supply

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FurnitureKind represents a piece of furniture in the house.
type FurnitureKind string

const (
	FurnitureSofa       FurnitureKind = "SOFA"
	FurnitureChair      FurnitureKind = "CHAIR"
	FurnitureDesk       FurnitureKind = "DESK"
	FurniturePainting   FurnitureKind = "PAINTING"
	FurnitureWelcomeMat FurnitureKind = "WELCOME_MAT"
)

var ErrNoFurniture = errors.New("no furniture of that kind left")

// FurnitureDefinition provides metadata about a furniture kind.
type FurnitureDefinition struct {
	Name   string
	Pieces int // Wood pieces produced when broken
	Count  int // How many the house starts with
}

// Registry contains all known furniture and their properties.
var Registry = map[FurnitureKind]FurnitureDefinition{
	FurnitureSofa:       {Name: "Sofa", Pieces: 4, Count: 1},
	FurnitureChair:      {Name: "Kitchen Chair", Pieces: 1, Count: 4},
	FurnitureDesk:       {Name: "Kitchen Desk", Pieces: 2, Count: 1},
	FurniturePainting:   {Name: "Painting", Pieces: 1, Count: 2},
	FurnitureWelcomeMat: {Name: "Welcome Mat", Pieces: 1, Count: 1},
}

// GetFurniture returns the definition for a furniture kind.
func GetFurniture(k FurnitureKind) (FurnitureDefinition, bool) {
	def, ok := Registry[k]
	return def, ok
}

// ParseFurnitureKind accepts the kind in any case.
func ParseFurnitureKind(raw string) (FurnitureKind, error) {
	k := FurnitureKind(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := Registry[k]; !ok {
		return "", fmt.Errorf("unknown furniture %q", raw)
	}
	return k, nil
}

// Kinds returns every furniture kind in a stable order.
func Kinds() []FurnitureKind {
	out := make([]FurnitureKind, 0, len(Registry))
	for k := range Registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Furniture tracks what is still standing in the house and the loose woodpile.
type Furniture struct {
	Standing map[FurnitureKind]int `json:"standing"`
	Wood     int                   `json:"wood"`
}

// NewFurniture creates the starting house inventory with an empty woodpile.
func NewFurniture() *Furniture {
	f := &Furniture{Standing: make(map[FurnitureKind]int, len(Registry))}
	for k, def := range Registry {
		f.Standing[k] = def.Count
	}
	return f
}

// Break smashes one item of the given kind and returns the pieces added to the woodpile.
func (f *Furniture) Break(k FurnitureKind) (int, error) {
	def, ok := Registry[k]
	if !ok {
		return 0, fmt.Errorf("unknown furniture %q", k)
	}
	if f.Standing[k] <= 0 {
		return 0, ErrNoFurniture
	}
	f.Standing[k]--
	f.Wood += def.Pieces
	return def.Pieces, nil
}

// TakeWood removes one piece from the woodpile.
func (f *Furniture) TakeWood() bool {
	if f.Wood <= 0 {
		return false
	}
	f.Wood--
	return true
}

// Remaining reports how many wood pieces the house can still yield, woodpile included.
func (f *Furniture) Remaining() int {
	total := f.Wood
	for k, n := range f.Standing {
		total += n * Registry[k].Pieces
	}
	return total
}
