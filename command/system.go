package command

import (
	"fmt"
	"strings"
)

func init() {
	Register(&Command{
		Name:        "reset",
		Description: "Return your coins home and go back to the start",
		Usage:       "/reset",
		Handler:     handleReset,
	})

	Register(&Command{
		Name:        "save",
		Description: "Save the game now",
		Usage:       "/save",
		Handler:     handleSave,
	})

	Register(&Command{
		Name:        "help",
		Description: "List commands",
		Usage:       "/help",
		Handler:     handleHelp,
	})
}

func handleReset(ctx *Context, args []string) (string, error) {
	ctx.Game.Reset()
	return "Reset. " + ctx.Game.Status(), nil
}

func handleSave(ctx *Context, args []string) (string, error) {
	if err := ctx.Game.Save(); err != nil {
		return "", fmt.Errorf("save failed: %v", err)
	}
	return "Saved", nil
}

func handleHelp(ctx *Context, args []string) (string, error) {
	var lines []string
	for _, name := range List() {
		cmd := Registry[name]
		lines = append(lines, fmt.Sprintf("%-22s %s", cmd.Usage, cmd.Description))
	}
	return "Commands\n" + strings.Join(lines, "\n"), nil
}
