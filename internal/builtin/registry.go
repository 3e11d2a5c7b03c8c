// Package builtin holds the table of commands the shell implements natively.
// The table is built once at startup and is read-only afterwards; its commands
// take precedence over executables found on PATH.
package builtin

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"mvdan.cc/sh/v3/interp"
)

// ExecMiddleware wraps an ExecHandlerFunc, matching interp.ExecHandlers.
type ExecMiddleware = func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc

// Command is a single built-in command.
type Command struct {
	Name        string
	Description string
	// Run executes the command. args[0] is the command name. Standard streams,
	// directory and environment are available through interp.HandlerCtx(ctx).
	// A non-zero status is reported by returning interp.ExitStatus.
	Run func(ctx context.Context, args []string) error
}

// Registry maps names to built-in commands.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates a registry holding the given commands. Later commands
// replace earlier ones with the same name.
func NewRegistry(commands ...Command) *Registry {
	r := &Registry{commands: make(map[string]Command, len(commands))}
	for _, cmd := range commands {
		r.register(cmd)
	}
	return r
}

func (r *Registry) register(cmd Command) {
	r.commands[cmd.Name] = cmd
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (Command, bool) {
	if r == nil {
		return Command{}, false
	}
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := lo.Keys(r.commands)
	sort.Strings(names)
	return names
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.commands)
}

// ExecMiddleware returns a middleware that dispatches registered names to
// their built-in implementation and everything else to next.
func (r *Registry) ExecMiddleware() ExecMiddleware {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				if cmd, ok := r.Lookup(args[0]); ok {
					return cmd.Run(ctx, args)
				}
			}
			return next(ctx, args)
		}
	}
}
