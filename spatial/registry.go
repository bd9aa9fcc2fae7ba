package spatial

import (
	"fmt"
	"log"
	"sort"

	"github.com/asim/quadtree"
	"github.com/paulmach/orb/geo"
)

// Defaults for cache generation
const (
	DefaultProbability = 0.1
	DefaultMinCoins    = 1
	DefaultMaxCoins    = 5
	DefaultRadius      = 8
)

// Options controls which cells hold a cache and how many coins it mints
type Options struct {
	Probability float64
	MinCoins    int
	MaxCoins    int
}

// DefaultOptions returns the standard spawn rules
func DefaultOptions() Options {
	return Options{
		Probability: DefaultProbability,
		MinCoins:    DefaultMinCoins,
		MaxCoins:    DefaultMaxCoins,
	}
}

// Registry owns every cache of a session keyed by cell.
// A cell is decided once, the first time it is scanned, and never rolled
// again. Spawned caches are also indexed in a quadtree for proximity
// queries. It is not safe for concurrent use; callers serialize access.
type Registry struct {
	grid    Grid
	opts    Options
	decided map[CellID]bool
	caches  map[CellID]*Cache
	tree    *quadtree.QuadTree
	onSpawn func(*Cache)
}

// NewRegistry creates an empty registry over the grid
func NewRegistry(grid Grid, opts Options) *Registry {
	if opts.MaxCoins < opts.MinCoins {
		opts.MaxCoins = opts.MinCoins
	}

	center := quadtree.NewPoint(0, 0, nil)
	half := quadtree.NewPoint(90, 180, nil)
	boundary := quadtree.NewAABB(center, half)

	return &Registry{
		grid:    grid,
		opts:    opts,
		decided: make(map[CellID]bool),
		caches:  make(map[CellID]*Cache),
		tree:    quadtree.New(boundary, 0, nil),
	}
}

// OnSpawn sets a hook called for every cache the registry creates
func (r *Registry) OnSpawn(fn func(*Cache)) {
	r.onSpawn = fn
}

// Grid returns the grid the registry decides cells on
func (r *Registry) Grid() Grid {
	return r.grid
}

// Roll decides whether the cell holds a cache and how many coins it
// starts with. It is pure: the answer depends only on the cell and options.
func (r *Registry) Roll(cell CellID) (int, bool) {
	key := cell.Key()
	if Luck(key) >= r.opts.Probability {
		return 0, false
	}
	span := r.opts.MaxCoins - r.opts.MinCoins + 1
	return int(Luck(key+"-coins")*float64(span)) + r.opts.MinCoins, true
}

// Minted reports whether the coin could have been created by its home
// cell, that is the cell spawns a cache and the serial is below its count
func (r *Registry) Minted(coin Coin) bool {
	count, ok := r.Roll(coin.Home())
	return ok && coin.Serial >= 0 && coin.Serial < count
}

// EnsureScanned decides the cell if it has not been decided yet and
// returns its cache, or nil when the cell holds none.
func (r *Registry) EnsureScanned(cell CellID) *Cache {
	if r.decided[cell] {
		return r.caches[cell]
	}
	r.decided[cell] = true

	count, ok := r.Roll(cell)
	if !ok {
		return nil
	}
	return r.add(newCache(cell, r.grid.Center(cell), count))
}

// ScanNeighborhood decides every cell within radius steps of center and
// returns the caches spawned by this scan
func (r *Registry) ScanNeighborhood(center GeoPoint, radius int, cellSize float64) []*Cache {
	var spawned []*Cache
	for di := -radius; di <= radius; di++ {
		for dj := -radius; dj <= radius; dj++ {
			cell := r.grid.CellOf(center.Offset(di, dj, cellSize))
			if r.decided[cell] {
				continue
			}
			if c := r.EnsureScanned(cell); c != nil {
				spawned = append(spawned, c)
			}
		}
	}
	if len(spawned) > 0 {
		log.Printf("[registry] Spawned %d caches around (%s)", len(spawned), center)
	}
	return spawned
}

func (r *Registry) add(c *Cache) *Cache {
	r.caches[c.Cell] = c
	if !r.tree.Insert(quadtree.NewPoint(c.Position.Lat, c.Position.Lng, c)) {
		log.Printf("[registry] FAILED to index cache %s at (%s)", c.Cell, c.Position)
	}
	if r.onSpawn != nil {
		r.onSpawn(c)
	}
	return c
}

// Decided reports whether the cell has been rolled
func (r *Registry) Decided(cell CellID) bool {
	return r.decided[cell]
}

// Cache returns the cache of a cell if one was spawned
func (r *Registry) Cache(cell CellID) (*Cache, bool) {
	c, ok := r.caches[cell]
	return c, ok
}

// Len returns the number of spawned caches
func (r *Registry) Len() int {
	return len(r.caches)
}

// Caches returns every spawned cache ordered by cell
func (r *Registry) Caches() []*Cache {
	caches := make([]*Cache, 0, len(r.caches))
	for _, c := range r.caches {
		caches = append(caches, c)
	}
	sort.Slice(caches, func(a, b int) bool {
		return caches[a].Cell.Less(caches[b].Cell)
	})
	return caches
}

// TotalCoins sums the coins held by all caches
func (r *Registry) TotalCoins() int {
	var n int
	for _, c := range r.caches {
		n += c.Len()
	}
	return n
}

// Nearest returns up to k caches within radius degrees of p, closest
// first, that satisfy keep. A nil keep accepts every cache.
func (r *Registry) Nearest(p GeoPoint, radius float64, k int, keep func(*Cache) bool) []*Cache {
	center := quadtree.NewPoint(p.Lat, p.Lng, nil)
	half := quadtree.NewPoint(radius, radius, nil)

	var found []*Cache
	for _, point := range r.tree.Search(quadtree.NewAABB(center, half)) {
		c, ok := point.Data().(*Cache)
		if !ok {
			continue
		}
		if keep != nil && !keep(c) {
			continue
		}
		found = append(found, c)
	}

	origin := p.Point()
	sort.Slice(found, func(a, b int) bool {
		da := geo.Distance(origin, found[a].Position.Point())
		db := geo.Distance(origin, found[b].Position.Point())
		if da != db {
			return da < db
		}
		return found[a].Cell.Less(found[b].Cell)
	})

	if k > 0 && len(found) > k {
		found = found[:k]
	}
	return found
}

// Modified returns the caches whose stacks differ from what was minted
func (r *Registry) Modified() []*Cache {
	var caches []*Cache
	for _, c := range r.Caches() {
		if c.Modified() {
			caches = append(caches, c)
		}
	}
	return caches
}

// Restore replaces the stack of a cell with saved coins. The cell must be
// one that spawns a cache; it is marked decided so it is never rolled.
func (r *Registry) Restore(cell CellID, coins []Coin) error {
	count, ok := r.Roll(cell)
	if !ok {
		return fmt.Errorf("%w: cell %s holds no cache", ErrInvalidCell, cell)
	}
	r.decided[cell] = true

	c, exists := r.caches[cell]
	if !exists {
		c = newCache(cell, r.grid.Center(cell), count)
	}
	c.coins = append([]Coin(nil), coins...)
	c.modified = true
	c.restored = true
	if !exists {
		r.add(c)
	}
	return nil
}

// Claim makes sure a coin held elsewhere is not also sitting in a freshly
// minted home cache. Restored caches are left alone.
func (r *Registry) Claim(coin Coin) {
	home := r.EnsureScanned(coin.Home())
	if home == nil || home.restored {
		return
	}
	home.take(coin)
}
