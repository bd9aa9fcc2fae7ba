package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geo"
)

const defaultNearby = 5

func init() {
	Register(&Command{
		Name:        "nearby",
		Description: "List the closest caches",
		Usage:       "/nearby [n]",
		Handler:     handleNearby,
		Match:       matchPhrases("what's near", "whats near", "caches near", "near me"),
	})
}

func handleNearby(ctx *Context, args []string) (string, error) {
	n := defaultNearby
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}

	caches := ctx.Game.Nearest(n, nil)
	if len(caches) == 0 {
		return "No caches nearby", nil
	}

	origin := ctx.Game.Player().Position.Point()
	grid := ctx.Game.Caches().Grid()

	var lines []string
	for _, c := range caches {
		dist := geo.Distance(origin, c.Position.Point())
		lines = append(lines, fmt.Sprintf("• %s %s · %d coins · %.0fm",
			c.Cell, grid.Label(c.Cell), c.Len(), dist))
	}
	return "Nearby caches\n" + strings.Join(lines, "\n"), nil
}
