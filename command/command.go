package command

import (
	"errors"
	"log"
	"sort"
	"strings"

	"coinmap.ai/game"
)

// ErrorPrefix marks a dispatched result as a failure
const ErrorPrefix = "❌ "

// Context provides the session to commands
type Context struct {
	Game  *game.Session
	Input string
}

// Command represents a pluggable command handler
type Command struct {
	Name        string
	Description string
	Usage       string
	Handler     func(ctx *Context, args []string) (string, error)
	Match       func(input string) (bool, []string) // optional natural language matcher
}

// Registry holds all registered commands
var Registry = make(map[string]*Command)

// Register adds a command to the registry
func Register(cmd *Command) {
	Registry[cmd.Name] = cmd
}

// Get returns a command by name
func Get(name string) *Command {
	return Registry[strings.ToLower(name)]
}

// List returns all command names in order
func List() []string {
	var names []string
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes input to the appropriate command.
// Returns (result, handled) - handled=false means nothing understood it.
func Dispatch(ctx *Context) (string, bool) {
	input := strings.TrimSpace(ctx.Input)
	if input == "" {
		return "", false
	}

	// Named commands: [/]name args
	parts := strings.Fields(input)
	name := strings.TrimPrefix(parts[0], "/")
	if cmd := Get(name); cmd != nil {
		return run(ctx, cmd, parts[1:]), true
	}

	// Natural language: check each command's Match function in name order
	lower := strings.ToLower(input)
	for _, name := range List() {
		cmd := Registry[name]
		if cmd.Match == nil {
			continue
		}
		if matched, args := cmd.Match(lower); matched {
			log.Printf("[command] %s matched input %q with args %v", cmd.Name, input, args)
			return run(ctx, cmd, args), true
		}
	}

	return "", false
}

func run(ctx *Context, cmd *Command, args []string) string {
	result, err := cmd.Handler(ctx, args)
	if err != nil {
		return ErrorPrefix + err.Error()
	}
	return result
}

// Execute runs a command by name with args
func Execute(g *game.Session, name string, args ...string) (string, error) {
	cmd := Get(name)
	if cmd == nil {
		return "", errors.New("unknown command " + name)
	}
	return cmd.Handler(&Context{Game: g, Input: name + " " + strings.Join(args, " ")}, args)
}
