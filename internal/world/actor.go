package world

import (
	"slices"

	"github.com/google/uuid"
)

// Effect is a timed status effect. Duration counts remaining ticks.
type Effect struct {
	ID        string `yaml:"id"`
	Amplifier int    `yaml:"amplifier"`
	Duration  int64  `yaml:"duration"`
}

// Actor is a mobile simulated entity. Tags survive save cycles.
type Actor struct {
	ID        uuid.UUID
	Name      string
	Dimension DimensionID
	Pos       CellPos
	Effects   []Effect
	Tags      []string
}

func (a *Actor) HasTag(tag string) bool {
	return slices.Contains(a.Tags, tag)
}

// AddTag attaches tag once; it reports whether the tag was new.
func (a *Actor) AddTag(tag string) bool {
	if a.HasTag(tag) {
		return false
	}
	a.Tags = append(a.Tags, tag)
	return true
}

// Effect returns the active effect with the given id.
func (a *Actor) Effect(id string) (Effect, bool) {
	for _, e := range a.Effects {
		if e.ID == id {
			return e, true
		}
	}
	return Effect{}, false
}
