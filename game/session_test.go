package game

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinmap.ai/data"
	"coinmap.ai/spatial"
)

var testStart = spatial.GeoPoint{Lat: 36.98949379578401, Lng: -122.06277128548504}

// cells around the start position, see the spatial golden world
var (
	nearestCell = spatial.CellID{I: 369895, J: -1220628} // 3 coins
	singleCell  = spatial.CellID{I: 369896, J: -1220627} // 1 coin
)

const worldCoins = 79

func newTestSession(t *testing.T, store Store) *Session {
	t.Helper()
	s := New(DefaultConfig(), store)
	s.Start()
	require.Equal(t, 27, s.Caches().Len())
	return s
}

func totalCoins(s *Session) int {
	return s.Caches().TotalCoins() + s.Player().Inventory.Len()
}

func TestStartScansAroundPlayer(t *testing.T) {
	s := New(DefaultConfig(), nil)

	var spawned int
	s.Subscribe(func(ev Event) {
		if ev.Type == EventCacheSpawned {
			spawned++
			require.NotNil(t, ev.Cache)
			assert.NotEmpty(t, ev.Cache.Label)
		}
	})

	assert.False(t, s.Start())
	assert.Equal(t, 27, spawned)
	assert.Equal(t, worldCoins, totalCoins(s))
	assert.Equal(t, "Position: 36.98949, -122.06277", s.Status())
}

func TestCollectAndDeposit(t *testing.T) {
	s := newTestSession(t, nil)

	coin, ok, err := s.CollectAt(nearestCell)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, spatial.Coin{Cell: nearestCell, Serial: 2}, coin)
	assert.Equal(t, 1, s.Player().Inventory.Len())
	assert.Equal(t, worldCoins, totalCoins(s))

	// the coin keeps its id in a different cache
	deposited, ok, err := s.DepositAt(singleCell)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, coin, deposited)

	c, _ := s.Caches().Cache(singleCell)
	assert.Equal(t, 2, c.Len())
	top, _ := c.Pop()
	assert.Equal(t, coin, top)
	assert.Equal(t, nearestCell, top.Home())

	_, _, err = s.CollectAt(spatial.CellID{I: 369894, J: -1220628})
	assert.ErrorIs(t, err, ErrNoCache)
}

func TestTransfersOnEmptyStacksDoNothing(t *testing.T) {
	s := newTestSession(t, nil)

	var events int
	s.Subscribe(func(Event) { events++ })

	_, ok, err := s.DepositAt(nearestCell)
	require.NoError(t, err)
	assert.False(t, ok)

	c, _ := s.Caches().Cache(singleCell)
	_, ok = s.Collect(c)
	require.True(t, ok)
	_, ok = s.Collect(c)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, s.Player().Inventory.Len())

	// only the single successful collect emitted anything
	assert.Equal(t, 2, events)
	assert.Equal(t, worldCoins, totalCoins(s))
}

func TestMoveNorthAndBack(t *testing.T) {
	s := newTestSession(t, nil)

	var moves int
	s.Subscribe(func(ev Event) {
		if ev.Type == EventPlayerMoved {
			moves++
			require.NotNil(t, ev.Position)
		}
	})

	s.Move(North)
	assert.Equal(t, 30, s.Caches().Len(), "one new row scanned")
	s.Move(South)

	pos := s.Player().Position
	assert.InDelta(t, testStart.Lat, pos.Lat, 1e-12)
	assert.InDelta(t, testStart.Lng, pos.Lng, 1e-12)
	assert.Len(t, s.Player().Trail(), 3)
	assert.Equal(t, 2, moves)
	assert.Equal(t, 30, s.Caches().Len(), "no cell is rolled twice")
}

func TestMoveToRejectsInvalidPosition(t *testing.T) {
	s := newTestSession(t, nil)

	var notices []string
	s.Subscribe(func(ev Event) {
		if ev.Type == EventNotice {
			notices = append(notices, ev.Text)
		}
	})

	err := s.MoveTo(spatial.GeoPoint{Lat: math.NaN(), Lng: 0})
	assert.ErrorIs(t, err, ErrInvalidPosition)
	assert.Equal(t, testStart, s.Player().Position)
	assert.Len(t, s.Player().Trail(), 1)
	assert.Equal(t, []string{"Location unavailable"}, notices)

	target := testStart.Offset(0, 3, spatial.DefaultCellSize)
	require.NoError(t, s.MoveTo(target))
	assert.Equal(t, target, s.Player().Position)
	assert.Len(t, s.Player().Trail(), 2)
}

func TestResetReturnsCoinsHome(t *testing.T) {
	s := newTestSession(t, nil)

	s.CollectAt(singleCell)
	s.CollectAt(nearestCell)
	s.CollectAt(nearestCell)
	s.Move(North)
	s.Move(East)
	// puts nearestCell#1 into singleCell
	s.DepositAt(singleCell)
	before := totalCoins(s)

	s.Reset()

	assert.Equal(t, 0, s.Player().Inventory.Len())
	assert.Equal(t, testStart, s.Player().Position)
	assert.Equal(t, []spatial.GeoPoint{testStart}, s.Player().Trail())
	assert.Equal(t, before, totalCoins(s))

	home, _ := s.Caches().Cache(nearestCell)
	assert.Equal(t, []spatial.Coin{{Cell: nearestCell, Serial: 0}, {Cell: nearestCell, Serial: 2}}, home.Coins())
	single, _ := s.Caches().Cache(singleCell)
	// the deposited coin stays where it was put
	assert.Equal(t, []spatial.Coin{{Cell: nearestCell, Serial: 1}, {Cell: singleCell, Serial: 0}}, single.Coins())
}

func TestSaveAndLoad(t *testing.T) {
	store := data.NewMemoryStore()
	s := newTestSession(t, store)

	s.CollectAt(nearestCell)
	s.Move(North)
	s.DepositAt(singleCell)
	s.CollectAt(nearestCell)
	want := s.Snapshot()

	// autosave keeps the store current
	loaded := New(DefaultConfig(), store)
	require.True(t, loaded.Start())

	got := loaded.Snapshot()
	assert.Equal(t, want.Position, got.Position)
	assert.Equal(t, want.Inventory, got.Inventory)
	assert.Equal(t, want.Trail, got.Trail)
	assert.Equal(t, want.Caches, got.Caches)

	home, _ := loaded.Caches().Cache(nearestCell)
	assert.Equal(t, 1, home.Len())
	single, _ := loaded.Caches().Cache(singleCell)
	assert.Equal(t, 2, single.Len())
}

func TestLoadDoesNotDuplicateHeldCoins(t *testing.T) {
	store := data.NewMemoryStore()

	// a blob without cache mementos
	blob, err := Encode(State{
		Position:  testStart,
		Inventory: []spatial.Coin{{Cell: nearestCell, Serial: 2}},
		Trail:     []spatial.GeoPoint{testStart},
	})
	require.NoError(t, err)
	require.NoError(t, store.Set(DefaultStateKey, blob))

	s := New(DefaultConfig(), store)
	require.True(t, s.Start())

	home, _ := s.Caches().Cache(nearestCell)
	assert.Equal(t, 2, home.Len())
	assert.NotContains(t, home.Coins(), spatial.Coin{Cell: nearestCell, Serial: 2})
	assert.Equal(t, worldCoins, totalCoins(s))
}

func TestLoadIsAllOrNothing(t *testing.T) {
	for name, blob := range map[string]string{
		"garbage":                `{"version":1,`,
		"no trail":               `{"version":1,"position":{"lat":1,"lng":2},"inventory":[]}`,
		"cacheless box":          `{"version":1,"position":{"lat":1,"lng":2},"inventory":[],"movementTrail":[{"lat":1,"lng":2}],"caches":{"0:0":[]}}`,
		"serial past count":      `{"version":1,"position":{"lat":1,"lng":2},"inventory":["369895:-1220628#99"],"movementTrail":[{"lat":1,"lng":2}]}`,
		"coin from empty cell":   `{"version":1,"position":{"lat":1,"lng":2},"inventory":["369894:-1220628#0"],"movementTrail":[{"lat":1,"lng":2}]}`,
		"unminted coin in cache": `{"version":1,"position":{"lat":1,"lng":2},"inventory":[],"movementTrail":[{"lat":1,"lng":2}],"caches":{"369895:-1220628":["369896:-1220627#1"]}}`,
	} {
		store := data.NewMemoryStore()
		require.NoError(t, store.Set(DefaultStateKey, []byte(blob)))

		s := New(DefaultConfig(), store)
		assert.False(t, s.Start(), name)
		assert.Equal(t, testStart, s.Player().Position, name)
		assert.Equal(t, 0, s.Player().Inventory.Len(), name)
		assert.Len(t, s.Player().Trail(), 1, name)
		assert.Equal(t, worldCoins, totalCoins(s), name)
	}
}

func TestAutoSaveDisabled(t *testing.T) {
	store := data.NewMemoryStore()
	cfg := DefaultConfig()
	cfg.AutoSave = false

	s := New(cfg, store)
	s.Start()
	s.Move(North)

	_, ok, err := store.Get(DefaultStateKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save())
	_, ok, _ = store.Get(DefaultStateKey)
	assert.True(t, ok)
}

// coins are conserved and unique whatever the player does
func TestRandomPlayConservesCoins(t *testing.T) {
	s := newTestSession(t, nil)
	rnd := rand.New(rand.NewSource(7))

	hasCoins := func(c *spatial.Cache) bool { return c.Len() > 0 }

	for step := 0; step < 500; step++ {
		switch rnd.Intn(3) {
		case 0:
			if near := s.Nearest(1+rnd.Intn(3), hasCoins); len(near) > 0 {
				s.Collect(near[rnd.Intn(len(near))])
			}
		case 1:
			if near := s.Nearest(3, nil); len(near) > 0 {
				s.Deposit(near[rnd.Intn(len(near))])
			}
		case 2:
			s.Move(Directions[rnd.Intn(len(Directions))])
		}

		var minted int
		seen := make(map[spatial.Coin]bool)
		for _, c := range s.Caches().Caches() {
			minted += c.Initial
			for _, coin := range c.Coins() {
				require.False(t, seen[coin], "step %d: %s twice", step, coin)
				seen[coin] = true
			}
		}
		for _, coin := range s.Player().Inventory.Coins() {
			require.False(t, seen[coin], "step %d: %s twice", step, coin)
			seen[coin] = true
		}
		require.Equal(t, minted, totalCoins(s), "step %d", step)
		require.Len(t, seen, minted, "step %d", step)
	}
}
