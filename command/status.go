package command

import (
	"fmt"
	"runtime"
	"time"
)

func init() {
	Register(&Command{
		Name:        "status",
		Description: "Position and world stats",
		Usage:       "/status",
		Handler:     handleStatus,
		Match:       matchPhrases("where am i"),
	})
}

func handleStatus(ctx *Context, args []string) (string, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	g := ctx.Game
	cell := g.Caches().Grid().CellOf(g.Player().Position)

	return fmt.Sprintf(`%s
Cell: %s (%s)
Holding: %d coins
Caches: %d with %d coins
Steps: %d
Memory: %.1f MB
Uptime: %s`,
		g.Status(),
		cell, g.Caches().Grid().Label(cell),
		g.Player().Inventory.Len(),
		g.Caches().Len(), g.Caches().TotalCoins(),
		len(g.Player().Trail())-1,
		float64(m.Alloc)/1024/1024,
		time.Since(startTime).Round(time.Second),
	), nil
}

var startTime = time.Now()
