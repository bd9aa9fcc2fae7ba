package spatial

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidCoin = errors.New("invalid coin id")

// Coin is identified by the cell that minted it and its serial there.
// The identity never changes, wherever the coin ends up.
type Coin struct {
	Cell   CellID
	Serial int
}

// String returns the persisted form "i:j#serial"
func (c Coin) String() string {
	return c.Cell.Key() + "#" + strconv.Itoa(c.Serial)
}

// Home returns the cell the coin was minted in
func (c Coin) Home() CellID {
	return c.Cell
}

func (c Coin) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Coin) UnmarshalText(b []byte) error {
	coin, err := ParseCoin(string(b))
	if err != nil {
		return err
	}
	*c = coin
	return nil
}

// ParseCoin splits "i:j#serial" at '#' then ':' to recover the home cell.
// Only the exact form String produces is accepted.
func ParseCoin(s string) (Coin, error) {
	cell, serial, ok := strings.Cut(s, "#")
	if !ok {
		return Coin{}, fmt.Errorf("%w: %q", ErrInvalidCoin, s)
	}
	id, err := ParseCellID(cell)
	if err != nil {
		return Coin{}, fmt.Errorf("%w: %q", ErrInvalidCoin, s)
	}
	n, err := strconv.Atoi(serial)
	if err != nil || n < 0 {
		return Coin{}, fmt.Errorf("%w: %q", ErrInvalidCoin, s)
	}
	coin := Coin{Cell: id, Serial: n}
	// one id per coin: signs, padding and leading zeros are refused
	if coin.String() != s {
		return Coin{}, fmt.Errorf("%w: %q is not canonical", ErrInvalidCoin, s)
	}
	return coin, nil
}

// Cache is the coin stack of one cell. The last pushed coin is popped first.
type Cache struct {
	Cell     CellID
	Position GeoPoint
	// Initial is the number of coins minted when the cell was first scanned
	Initial int

	coins    []Coin
	modified bool
	restored bool
}

func newCache(cell CellID, pos GeoPoint, count int) *Cache {
	c := &Cache{
		Cell:     cell,
		Position: pos,
		Initial:  count,
		coins:    make([]Coin, count),
	}
	for serial := range c.coins {
		c.coins[serial] = Coin{Cell: cell, Serial: serial}
	}
	return c
}

// Len returns the number of coins held
func (c *Cache) Len() int {
	return len(c.coins)
}

// Coins returns a copy of the stack, bottom first
func (c *Cache) Coins() []Coin {
	return append([]Coin(nil), c.coins...)
}

// Modified reports whether a coin ever left or entered the cache
func (c *Cache) Modified() bool {
	return c.modified
}

// Pop removes the top coin
func (c *Cache) Pop() (Coin, bool) {
	if len(c.coins) == 0 {
		return Coin{}, false
	}
	last := len(c.coins) - 1
	coin := c.coins[last]
	c.coins = c.coins[:last]
	c.modified = true
	return coin, true
}

// Push puts a coin on top, keeping its identity
func (c *Cache) Push(coin Coin) {
	c.coins = append(c.coins, coin)
	c.modified = true
}

// take removes a specific coin wherever it sits in the stack
func (c *Cache) take(coin Coin) bool {
	for i, held := range c.coins {
		if held != coin {
			continue
		}
		c.coins = append(c.coins[:i], c.coins[i+1:]...)
		c.modified = true
		return true
	}
	return false
}
