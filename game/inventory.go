package game

import (
	"coinmap.ai/spatial"
)

// Inventory is the player's coin stack
type Inventory struct {
	coins []spatial.Coin
}

// Len returns the number of coins held
func (inv *Inventory) Len() int {
	return len(inv.coins)
}

// Coins returns a copy of the stack, oldest first
func (inv *Inventory) Coins() []spatial.Coin {
	return append([]spatial.Coin(nil), inv.coins...)
}

// Push adds a coin on top
func (inv *Inventory) Push(coin spatial.Coin) {
	inv.coins = append(inv.coins, coin)
}

// Pop removes the most recently added coin
func (inv *Inventory) Pop() (spatial.Coin, bool) {
	if len(inv.coins) == 0 {
		return spatial.Coin{}, false
	}
	last := len(inv.coins) - 1
	coin := inv.coins[last]
	inv.coins = inv.coins[:last]
	return coin, true
}

// Contains reports whether the coin is held
func (inv *Inventory) Contains(coin spatial.Coin) bool {
	for _, held := range inv.coins {
		if held == coin {
			return true
		}
	}
	return false
}
