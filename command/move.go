package command

import (
	"fmt"
	"strconv"
	"strings"

	"coinmap.ai/game"
	"coinmap.ai/spatial"
)

func init() {
	for _, d := range game.Directions {
		d := d
		Register(&Command{
			Name:        string(d),
			Description: "Move one step " + string(d),
			Usage:       "/" + string(d),
			Handler: func(ctx *Context, args []string) (string, error) {
				return handleMove(ctx, d)
			},
		})
	}

	Register(&Command{
		Name:        "move",
		Description: "Move one step in a direction",
		Usage:       "/move <n|s|e|w>",
		Handler:     handleMoveArg,
		Match:       matchMove,
	})

	Register(&Command{
		Name:        "goto",
		Description: "Jump to a location, as a location sensor would",
		Usage:       "/goto <lat>,<lng>",
		Handler:     handleGoto,
	})
}

func handleMove(ctx *Context, d game.Direction) (string, error) {
	before := ctx.Game.Caches().Len()
	ctx.Game.Move(d)
	return moved(ctx, before), nil
}

func handleMoveArg(ctx *Context, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: /move <n|s|e|w>", nil
	}
	d, err := game.ParseDirection(args[0])
	if err != nil {
		return "", err
	}
	return handleMove(ctx, d)
}

// matchMove understands "go north", "walk w", "head east"
func matchMove(input string) (bool, []string) {
	fields := strings.Fields(input)
	if len(fields) != 2 {
		return false, nil
	}
	switch fields[0] {
	case "go", "walk", "head", "step":
	default:
		return false, nil
	}
	if _, err := game.ParseDirection(fields[1]); err != nil {
		return false, nil
	}
	return true, fields[1:]
}

func handleGoto(ctx *Context, args []string) (string, error) {
	pos, err := parseLatLng(strings.Join(args, " "))
	if err != nil {
		return "", err
	}
	before := ctx.Game.Caches().Len()
	if err := ctx.Game.MoveTo(pos); err != nil {
		return "", err
	}
	return moved(ctx, before), nil
}

func moved(ctx *Context, before int) string {
	result := ctx.Game.Status()
	if n := ctx.Game.Caches().Len() - before; n > 0 {
		result += fmt.Sprintf("\n%d new caches nearby", n)
	}
	return result
}

// parseLatLng reads "lat,lng" or "lat lng"
func parseLatLng(s string) (spatial.GeoPoint, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) != 2 {
		return spatial.GeoPoint{}, fmt.Errorf("expected lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return spatial.GeoPoint{}, fmt.Errorf("bad latitude %q", fields[0])
	}
	lng, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return spatial.GeoPoint{}, fmt.Errorf("bad longitude %q", fields[1])
	}
	return spatial.GeoPoint{Lat: lat, Lng: lng}, nil
}
