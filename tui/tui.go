// Package tui is the terminal map of the game: the grid around the player,
// caches with their coin counts and the trail walked so far.
package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"coinmap.ai/command"
	"coinmap.ai/game"
	"coinmap.ai/spatial"
)

// cellWidth is how many columns one grid cell takes, roughly square cells
const cellWidth = 2

var (
	stylePlayer = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleCache  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleEmpty  = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleTrail  = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleGround = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus = tcell.StyleDefault.Reverse(true)
	styleError  = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

type UI struct {
	screen tcell.Screen
	game   *game.Session

	// last command output shown on the bottom line
	message string
	// command line input after ':'
	prompting bool
	input     []rune
}

// New creates a UI drawing on an initialized screen
func New(screen tcell.Screen, g *game.Session) *UI {
	return &UI{
		screen:  screen,
		game:    g,
		message: "arrows/hjkl move · c collect · d deposit · r reset · : command · q quit",
	}
}

// Message returns the text on the bottom line
func (u *UI) Message() string {
	return u.message
}

func (u *UI) run(input string) {
	result, ok := command.Dispatch(&command.Context{Game: u.game, Input: input})
	if !ok {
		result = command.ErrorPrefix + "unknown command " + input
	}
	// only the first line fits
	if i := strings.IndexByte(result, '\n'); i >= 0 {
		result = result[:i]
	}
	u.message = result
}

// HandleKey applies a key press and reports whether the UI keeps running
func (u *UI) HandleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return false
	}
	if u.prompting {
		u.handlePrompt(ev)
		return true
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		return false
	case tcell.KeyUp:
		u.run("/north")
	case tcell.KeyDown:
		u.run("/south")
	case tcell.KeyLeft:
		u.run("/west")
	case tcell.KeyRight:
		u.run("/east")
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'k':
			u.run("/north")
		case 'j':
			u.run("/south")
		case 'h':
			u.run("/west")
		case 'l':
			u.run("/east")
		case 'c':
			u.run("/collect")
		case 'd':
			u.run("/deposit")
		case 'r':
			u.run("/reset")
		case ':':
			u.prompting = true
			u.input = u.input[:0]
		}
	}
	return true
}

func (u *UI) handlePrompt(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		u.prompting = false
	case tcell.KeyEnter:
		u.prompting = false
		if len(u.input) > 0 {
			u.run(string(u.input))
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(u.input) > 0 {
			u.input = u.input[:len(u.input)-1]
		}
	case tcell.KeyRune:
		u.input = append(u.input, ev.Rune())
	}
}

// Draw renders the whole screen
func (u *UI) Draw() {
	u.screen.Clear()
	w, h := u.screen.Size()
	if w < cellWidth || h < 3 {
		u.screen.Show()
		return
	}

	player := u.game.Player()
	status := fmt.Sprintf("%s · Coins: %d", u.game.Status(), player.Inventory.Len())
	u.text(0, 0, w, status, styleStatus)

	u.drawMap(w, h-2)

	if u.prompting {
		u.text(0, h-1, w, ":"+string(u.input), tcell.StyleDefault)
		u.screen.ShowCursor(len(u.input)+1, h-1)
	} else {
		style := tcell.StyleDefault
		if strings.HasPrefix(u.message, command.ErrorPrefix) {
			style = styleError
		}
		u.text(0, h-1, w, u.message, style)
		u.screen.HideCursor()
	}

	u.screen.Show()
}

// drawMap fills rows 1..rows with the grid centered on the player, north up
func (u *UI) drawMap(w, rows int) {
	caches := u.game.Caches()
	grid := caches.Grid()
	player := u.game.Player()
	center := grid.CellOf(player.Position)

	trail := make(map[spatial.CellID]bool)
	for _, p := range player.Trail() {
		trail[grid.CellOf(p)] = true
	}

	cols := w / cellWidth
	midCol, midRow := cols/2, rows/2

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := spatial.CellID{I: center.I + midRow - row, J: center.J + col - midCol}
			r, style := u.glyph(cell, center, trail)
			u.screen.SetContent(col*cellWidth, row+1, r, nil, style)
		}
	}
}

func (u *UI) glyph(cell, player spatial.CellID, trail map[spatial.CellID]bool) (rune, tcell.Style) {
	caches := u.game.Caches()
	if cell == player {
		return '@', stylePlayer
	}
	if c, ok := caches.Cache(cell); ok {
		switch n := c.Len(); {
		case n == 0:
			return 'o', styleEmpty
		case n > 9:
			return '+', styleCache
		default:
			return rune('0' + n), styleCache
		}
	}
	if trail[cell] {
		return '*', styleTrail
	}
	if caches.Decided(cell) {
		return '.', styleGround
	}
	return ' ', tcell.StyleDefault
}

func (u *UI) text(x, y, w int, s string, style tcell.Style) {
	for _, r := range s {
		if x >= w {
			return
		}
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < w; x++ {
		u.screen.SetContent(x, y, ' ', nil, style)
	}
}

// Run draws and handles input until the player quits
func (u *UI) Run() {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	u.Draw()
	for ev := range events {
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if !u.HandleKey(ev) {
				return
			}
		case *tcell.EventResize:
			u.screen.Sync()
		}
		u.Draw()
	}
}
