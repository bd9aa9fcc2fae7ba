package game

import (
	"fmt"
	"strings"

	"coinmap.ai/spatial"
)

// Direction is one of the four compass moves
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Directions lists the moves in a stable order
var Directions = []Direction{North, South, East, West}

// ParseDirection accepts a full name or its first letter
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, nil
	case "south", "s":
		return South, nil
	case "east", "e":
		return East, nil
	case "west", "w":
		return West, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Delta returns the unit (di, dj) offset of the move
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 1, 0
	case South:
		return -1, 0
	case East:
		return 0, 1
	case West:
		return 0, -1
	}
	return 0, 0
}

// Player is the single local player: where they are, what they hold and
// where they have been. The trail always starts with the initial position.
type Player struct {
	Position  spatial.GeoPoint
	Inventory Inventory
	trail     []spatial.GeoPoint
}

// NewPlayer places a player at start
func NewPlayer(start spatial.GeoPoint) *Player {
	return &Player{
		Position: start,
		trail:    []spatial.GeoPoint{start},
	}
}

// Move steps the player in a direction. It never fails.
func (p *Player) Move(d Direction, step float64) spatial.GeoPoint {
	di, dj := d.Delta()
	return p.MoveTo(p.Position.Offset(di, dj, step))
}

// MoveTo puts the player at an absolute position
func (p *Player) MoveTo(pos spatial.GeoPoint) spatial.GeoPoint {
	p.Position = pos
	p.trail = append(p.trail, pos)
	return pos
}

// Trail returns a copy of the movement history
func (p *Player) Trail() []spatial.GeoPoint {
	return append([]spatial.GeoPoint(nil), p.trail...)
}
