package spatial

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// DefaultCellSize is the edge of a grid cell in degrees (~11m at the equator)
const DefaultCellSize = 1e-4

var ErrInvalidCell = errors.New("invalid cell id")

// GeoPoint is a position in degrees
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FromPoint converts an orb point (lon, lat) into a GeoPoint
func FromPoint(p orb.Point) GeoPoint {
	return GeoPoint{Lat: p.Lat(), Lng: p.Lon()}
}

// Point returns the orb representation, longitude first
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Valid reports whether both coordinates are finite
func (p GeoPoint) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// Offset moves the point by di steps north and dj steps east.
// The explicit conversions keep the product rounded before the add so the
// result never depends on whether the platform fuses multiply-add.
func (p GeoPoint) Offset(di, dj int, step float64) GeoPoint {
	return GeoPoint{
		Lat: p.Lat + float64(float64(di)*step),
		Lng: p.Lng + float64(float64(dj)*step),
	}
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.5f, %.5f", p.Lat, p.Lng)
}

// CellID is the integer index of a grid cell
type CellID struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Key is the canonical "i:j" form used for seeding and coin ids
func (c CellID) Key() string {
	return strconv.Itoa(c.I) + ":" + strconv.Itoa(c.J)
}

func (c CellID) String() string {
	return c.Key()
}

// Less orders cells by row then column
func (c CellID) Less(o CellID) bool {
	if c.I != o.I {
		return c.I < o.I
	}
	return c.J < o.J
}

// ParseCellID parses the "i:j" form
func ParseCellID(s string) (CellID, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return CellID{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	i, err := strconv.Atoi(a)
	if err != nil {
		return CellID{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	j, err := strconv.Atoi(b)
	if err != nil {
		return CellID{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	return CellID{I: i, J: j}, nil
}

// Grid maps positions onto cells anchored at Null Island
type Grid struct {
	cellSize   float64
	resolution float64
}

// NewGrid creates a grid with the given cell size in degrees.
// The number of cells per degree is rounded to an integer so that
// 1e-4 yields exactly 10000 rather than 1/1e-4.
func NewGrid(cellSize float64) Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return Grid{
		cellSize:   cellSize,
		resolution: math.Round(1 / cellSize),
	}
}

// CellSize returns the cell edge in degrees
func (g Grid) CellSize() float64 {
	return g.cellSize
}

// CellOf returns the cell containing p. Flooring keeps negative
// coordinates in the right cell: -0.00005 is in cell -1, not 0.
func (g Grid) CellOf(p GeoPoint) CellID {
	return CellID{
		I: int(math.Floor(p.Lat * g.resolution)),
		J: int(math.Floor(p.Lng * g.resolution)),
	}
}

// Bound returns the extent of a cell
func (g Grid) Bound(c CellID) orb.Bound {
	return orb.Bound{
		Min: orb.Point{float64(c.J) / g.resolution, float64(c.I) / g.resolution},
		Max: orb.Point{float64(c.J+1) / g.resolution, float64(c.I+1) / g.resolution},
	}
}

// Center returns the middle of a cell
func (g Grid) Center(c CellID) GeoPoint {
	return FromPoint(g.Bound(c).Center())
}
