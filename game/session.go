// Package game holds the player's session: movement, coin transfers
// between caches and the inventory, and saving all of it.
//
// A Session is driven by a single logical actor. Every operation runs to
// completion before the next starts, so nothing here takes a lock; the
// server funnels requests through one goroutine to keep it that way.
package game

import (
	"errors"
	"fmt"
	"log"

	"coinmap.ai/spatial"
)

var (
	ErrNoCache         = errors.New("no cache at that cell")
	ErrInvalidPosition = errors.New("position is not finite")
)

// Store is a flat key-value blob store
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// Config holds the constants a session is built from
type Config struct {
	Start    spatial.GeoPoint
	CellSize float64
	Radius   int
	// Step is how far one directional move goes, in degrees
	Step     float64
	Spawn    spatial.Options
	StateKey string
	// AutoSave persists after every change when a store is set
	AutoSave bool
}

// DefaultConfig returns the standard world around the original start point
func DefaultConfig() Config {
	return Config{
		Start:    spatial.GeoPoint{Lat: 36.98949379578401, Lng: -122.06277128548504},
		CellSize: spatial.DefaultCellSize,
		Radius:   spatial.DefaultRadius,
		Step:     spatial.DefaultCellSize,
		Spawn:    spatial.DefaultOptions(),
		StateKey: DefaultStateKey,
		AutoSave: true,
	}
}

// Session owns the player and every cache of one game
type Session struct {
	cfg       Config
	caches    *spatial.Registry
	player    *Player
	store     Store
	observers []func(Event)
}

// New creates a session. The store may be nil, in which case nothing is
// persisted. Call Start before use.
func New(cfg Config, store Store) *Session {
	if cfg.StateKey == "" {
		cfg.StateKey = DefaultStateKey
	}
	if cfg.Step == 0 {
		cfg.Step = cfg.CellSize
	}

	s := &Session{
		cfg:    cfg,
		caches: spatial.NewRegistry(spatial.NewGrid(cfg.CellSize), cfg.Spawn),
		player: NewPlayer(cfg.Start),
		store:  store,
	}
	s.caches.OnSpawn(func(c *spatial.Cache) {
		s.emit(Event{Type: EventCacheSpawned, Cache: s.View(c)})
	})
	return s
}

// Subscribe registers a function called for every event
func (s *Session) Subscribe(fn func(Event)) {
	s.observers = append(s.observers, fn)
}

func (s *Session) emit(ev Event) {
	for _, fn := range s.observers {
		fn(ev)
	}
}

// Start restores any saved state and scans around the player.
// It reports whether a saved state was loaded.
func (s *Session) Start() bool {
	loaded := s.load()
	s.caches.ScanNeighborhood(s.player.Position, s.cfg.Radius, s.cfg.CellSize)
	return loaded
}

// Config returns the session constants
func (s *Session) Config() Config {
	return s.cfg
}

// Caches returns the registry owning every cache
func (s *Session) Caches() *spatial.Registry {
	return s.caches
}

// Player returns the player
func (s *Session) Player() *Player {
	return s.player
}

// Move steps the player, rescans around the new position and persists
func (s *Session) Move(d Direction) spatial.GeoPoint {
	pos := s.player.Move(d, s.cfg.Step)
	s.moved()
	return pos
}

// MoveTo handles an absolute location update, e.g. from a sensor.
// A non-finite position is rejected without touching any state.
func (s *Session) MoveTo(pos spatial.GeoPoint) error {
	if !pos.Valid() {
		s.emit(Event{Type: EventNotice, Text: "Location unavailable"})
		return ErrInvalidPosition
	}
	s.player.MoveTo(pos)
	s.moved()
	return nil
}

func (s *Session) moved() {
	pos := s.player.Position
	s.emit(Event{Type: EventPlayerMoved, Position: &pos, Trail: s.player.Trail()})
	s.caches.ScanNeighborhood(pos, s.cfg.Radius, s.cfg.CellSize)
	s.autosave()
}

// Collect moves the top coin of the cache into the inventory.
// Collecting from an empty cache does nothing.
func (s *Session) Collect(c *spatial.Cache) (spatial.Coin, bool) {
	coin, ok := c.Pop()
	if !ok {
		return spatial.Coin{}, false
	}
	s.player.Inventory.Push(coin)
	s.transferred(c)
	return coin, true
}

// Deposit moves the top inventory coin into the cache, keeping its id.
// Depositing with an empty inventory does nothing.
func (s *Session) Deposit(c *spatial.Cache) (spatial.Coin, bool) {
	coin, ok := s.player.Inventory.Pop()
	if !ok {
		return spatial.Coin{}, false
	}
	c.Push(coin)
	s.transferred(c)
	return coin, true
}

func (s *Session) transferred(c *spatial.Cache) {
	s.emit(Event{Type: EventCacheUpdated, Cache: s.View(c)})
	s.emit(Event{Type: EventInventoryUpdated, Inventory: s.player.Inventory.Coins()})
	s.autosave()
}

// CollectAt collects from the cache of a cell
func (s *Session) CollectAt(cell spatial.CellID) (spatial.Coin, bool, error) {
	c, ok := s.caches.Cache(cell)
	if !ok {
		return spatial.Coin{}, false, fmt.Errorf("%w %s", ErrNoCache, cell)
	}
	coin, ok := s.Collect(c)
	return coin, ok, nil
}

// DepositAt deposits into the cache of a cell
func (s *Session) DepositAt(cell spatial.CellID) (spatial.Coin, bool, error) {
	c, ok := s.caches.Cache(cell)
	if !ok {
		return spatial.Coin{}, false, fmt.Errorf("%w %s", ErrNoCache, cell)
	}
	coin, ok := s.Deposit(c)
	return coin, ok, nil
}

// Nearest returns up to k caches within the scan radius of the player
// that satisfy keep, closest first
func (s *Session) Nearest(k int, keep func(*spatial.Cache) bool) []*spatial.Cache {
	radius := float64(s.cfg.Radius) * s.cfg.CellSize
	return s.caches.Nearest(s.player.Position, radius, k, keep)
}

// Reset sends every held coin back to its home cache and returns the
// player to the start with a fresh trail
func (s *Session) Reset() {
	var orphans []spatial.Coin
	for {
		coin, ok := s.player.Inventory.Pop()
		if !ok {
			break
		}
		home := s.caches.EnsureScanned(coin.Home())
		if home == nil {
			log.Printf("[game] Coin %s has no home cache, keeping it", coin)
			orphans = append(orphans, coin)
			continue
		}
		home.Push(coin)
		s.emit(Event{Type: EventCacheUpdated, Cache: s.View(home)})
	}
	for i := len(orphans) - 1; i >= 0; i-- {
		s.player.Inventory.Push(orphans[i])
	}

	s.player = &Player{
		Position:  s.cfg.Start,
		Inventory: s.player.Inventory,
		trail:     []spatial.GeoPoint{s.cfg.Start},
	}
	s.emit(Event{Type: EventInventoryUpdated, Inventory: s.player.Inventory.Coins()})

	pos := s.player.Position
	s.emit(Event{Type: EventPlayerMoved, Position: &pos, Trail: s.player.Trail()})
	s.caches.ScanNeighborhood(pos, s.cfg.Radius, s.cfg.CellSize)
	s.autosave()
}

// Snapshot captures the persisted part of the session
func (s *Session) Snapshot() State {
	st := State{
		Position:  s.player.Position,
		Inventory: s.player.Inventory.Coins(),
		Trail:     s.player.Trail(),
	}
	if modified := s.caches.Modified(); len(modified) > 0 {
		st.Caches = make(map[spatial.CellID][]spatial.Coin, len(modified))
		for _, c := range modified {
			st.Caches[c.Cell] = c.Coins()
		}
	}
	return st
}

// Save writes the snapshot to the store
func (s *Session) Save() error {
	if s.store == nil {
		return nil
	}
	b, err := Encode(s.Snapshot())
	if err != nil {
		return err
	}
	if err := s.store.Set(s.cfg.StateKey, b); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *Session) autosave() {
	if !s.cfg.AutoSave {
		return
	}
	if err := s.Save(); err != nil {
		log.Printf("[game] Save error: %v", err)
	}
}

// load replaces the fresh session state with the saved one. It only runs
// from Start, before anything was scanned. A missing, unreadable or
// invalid blob leaves the session untouched and reports false.
func (s *Session) load() bool {
	if s.store == nil {
		return false
	}
	b, ok, err := s.store.Get(s.cfg.StateKey)
	if err != nil {
		log.Printf("[game] Load error: %v", err)
		return false
	}
	if !ok {
		return false
	}

	st, err := Decode(b)
	if err != nil {
		log.Printf("[game] Ignoring saved state: %v", err)
		return false
	}
	if err := s.apply(st); err != nil {
		log.Printf("[game] Ignoring saved state: %v", err)
		return false
	}
	log.Printf("[game] Loaded state at (%s) with %d coins", st.Position, len(st.Inventory))
	return true
}

// apply installs a decoded state into a fresh session. Every check runs
// before anything is replaced, so a rejected state changes nothing.
func (s *Session) apply(st State) error {
	minted := func(coin spatial.Coin) error {
		if !s.caches.Minted(coin) {
			return fmt.Errorf("%w: coin %s was never minted", ErrInvalidState, coin)
		}
		return nil
	}
	for _, coin := range st.Inventory {
		if err := minted(coin); err != nil {
			return err
		}
	}
	for cell, coins := range st.Caches {
		if _, ok := s.caches.Roll(cell); !ok {
			return fmt.Errorf("%w: cell %s holds no cache", ErrInvalidState, cell)
		}
		for _, coin := range coins {
			if err := minted(coin); err != nil {
				return err
			}
		}
	}

	p := &Player{
		Position: st.Position,
		trail:    append([]spatial.GeoPoint(nil), st.Trail...),
	}
	for _, coin := range st.Inventory {
		p.Inventory.Push(coin)
	}

	for cell, coins := range st.Caches {
		// cannot fail, every cell was rolled above
		s.caches.Restore(cell, coins)
	}
	s.player = p

	for _, coin := range p.Inventory.coins {
		s.caches.Claim(coin)
	}
	for cell, coins := range st.Caches {
		for _, coin := range coins {
			if coin.Home() != cell {
				s.caches.Claim(coin)
			}
		}
	}
	return nil
}

// Status renders the position line shown to the player
func (s *Session) Status() string {
	return "Position: " + s.player.Position.String()
}

// View describes a cache for collaborators
func (s *Session) View(c *spatial.Cache) *CacheView {
	return &CacheView{
		Cell:     c.Cell,
		Label:    s.caches.Grid().Label(c.Cell),
		Position: c.Position,
		Coins:    c.Len(),
		Initial:  c.Initial,
	}
}
