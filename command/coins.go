package command

import (
	"errors"
	"fmt"
	"strings"

	"coinmap.ai/spatial"
)

var (
	errNoCacheInReach = errors.New("no cache in reach")
	errNoCoinsInReach = errors.New("no cache with coins in reach")
)

func init() {
	Register(&Command{
		Name:        "collect",
		Description: "Take the top coin of a cache",
		Usage:       "/collect [i:j]",
		Handler:     handleCollect,
		Match:       matchPhrases("pick up", "take coin", "grab"),
	})

	Register(&Command{
		Name:        "deposit",
		Description: "Put your latest coin into a cache",
		Usage:       "/deposit [i:j]",
		Handler:     handleDeposit,
		Match:       matchPhrases("drop", "put coin", "leave coin"),
	})

	Register(&Command{
		Name:        "inventory",
		Description: "List the coins you hold",
		Usage:       "/inventory",
		Handler:     handleInventory,
		Match:       matchPhrases("what do i have", "my coins"),
	})

	Register(&Command{
		Name:        "home",
		Description: "Show where a coin was minted and where it is now",
		Usage:       "/home <i:j#serial>",
		Handler:     handleHome,
	})
}

// matchPhrases matches input starting with any of the phrases
func matchPhrases(phrases ...string) func(string) (bool, []string) {
	return func(input string) (bool, []string) {
		for _, p := range phrases {
			if strings.HasPrefix(input, p) {
				return true, strings.Fields(strings.TrimPrefix(input, p))
			}
		}
		return false, nil
	}
}

// target resolves the cache named by args, or the nearest one accepted by keep
func target(ctx *Context, args []string, keep func(*spatial.Cache) bool, none error) (*spatial.Cache, error) {
	if len(args) > 0 {
		cell, err := spatial.ParseCellID(args[0])
		if err != nil {
			return nil, err
		}
		c, ok := ctx.Game.Caches().Cache(cell)
		if !ok {
			return nil, fmt.Errorf("no cache at %s", cell)
		}
		return c, nil
	}

	nearest := ctx.Game.Nearest(1, keep)
	if len(nearest) == 0 {
		return nil, none
	}
	return nearest[0], nil
}

func handleCollect(ctx *Context, args []string) (string, error) {
	c, err := target(ctx, args, func(c *spatial.Cache) bool { return c.Len() > 0 }, errNoCoinsInReach)
	if err != nil {
		return "", err
	}
	coin, ok := ctx.Game.Collect(c)
	if !ok {
		return fmt.Sprintf("Cache %s is empty", c.Cell), nil
	}
	return fmt.Sprintf("Collected %s from %s (%d left)", coin, c.Cell, c.Len()), nil
}

func handleDeposit(ctx *Context, args []string) (string, error) {
	c, err := target(ctx, args, nil, errNoCacheInReach)
	if err != nil {
		return "", err
	}
	coin, ok := ctx.Game.Deposit(c)
	if !ok {
		return "Inventory is empty", nil
	}
	return fmt.Sprintf("Deposited %s into %s (%d coins)", coin, c.Cell, c.Len()), nil
}

func handleInventory(ctx *Context, args []string) (string, error) {
	coins := ctx.Game.Player().Inventory.Coins()
	if len(coins) == 0 {
		return "Inventory is empty", nil
	}
	ids := make([]string, len(coins))
	for i, coin := range coins {
		ids[i] = coin.String()
	}
	return fmt.Sprintf("Inventory (%d): %s", len(coins), strings.Join(ids, ", ")), nil
}

func handleHome(ctx *Context, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: /home <i:j#serial>", nil
	}
	coin, err := spatial.ParseCoin(args[0])
	if err != nil {
		return "", err
	}

	label := ctx.Game.Caches().Grid().Label(coin.Home())
	result := fmt.Sprintf("Coin %s was minted at %s (%s)", coin, coin.Home(), label)

	if ctx.Game.Player().Inventory.Contains(coin) {
		return result + "\nYou are holding it", nil
	}
	for _, c := range ctx.Game.Caches().Caches() {
		for _, held := range c.Coins() {
			if held == coin {
				return result + fmt.Sprintf("\nIt is in cache %s", c.Cell), nil
			}
		}
	}
	return result + "\nIt is not in any known cache", nil
}
