// Package dispatch maps inbound updates to registered handlers. Commands
// (first token of the message text) take priority over the generic per-kind
// handlers; anything unmatched falls through to an optional fallback and
// otherwise no-ops.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/0-o0/tgbot/internal/telegram"
)

// Invocation is the per-update argument handed to a handler. ShowReasoning is
// the per-deployment display-mode flag: handlers that can surface a reasoning
// block consult it instead of any process-global state.
type Invocation struct {
	Update        *telegram.Context
	Command       string
	Args          string
	Text          string
	ShowReasoning bool
}

type HandlerFunc func(ctx context.Context, inv Invocation) error

type RegistryOptions struct {
	ShowReasoning bool
}

// Registry is populated during setup and read-only afterwards; Dispatch may
// then be called from concurrent webhook requests without locking.
type Registry struct {
	commands      map[string]HandlerFunc
	kinds         map[telegram.Kind]HandlerFunc
	fallback      HandlerFunc
	showReasoning bool
}

func NewRegistry(opts RegistryOptions) *Registry {
	return &Registry{
		commands:      make(map[string]HandlerFunc),
		kinds:         make(map[telegram.Kind]HandlerFunc),
		showReasoning: opts.ShowReasoning,
	}
}

// Command registers a handler for a slash command. The name is stored
// without the leading slash, lowercased.
func (r *Registry) Command(name string, h HandlerFunc) error {
	name = normalizeCommand(name)
	if name == "" {
		return fmt.Errorf("command name is required")
	}
	if h == nil {
		return fmt.Errorf("handler is required")
	}
	if _, ok := r.commands[name]; ok {
		return fmt.Errorf("command %q is already registered", name)
	}
	r.commands[name] = h
	return nil
}

// Kind registers the generic handler invoked when no command matches.
func (r *Registry) Kind(k telegram.Kind, h HandlerFunc) error {
	if k == telegram.KindNone {
		return fmt.Errorf("kind is required")
	}
	if h == nil {
		return fmt.Errorf("handler is required")
	}
	if _, ok := r.kinds[k]; ok {
		return fmt.Errorf("kind %q is already registered", k)
	}
	r.kinds[k] = h
	return nil
}

func (r *Registry) Fallback(h HandlerFunc) {
	r.fallback = h
}

// Dispatch invokes at most one handler for the update. Unclassifiable
// updates and unmatched routes are a defined no-op, never an error.
func (r *Registry) Dispatch(ctx context.Context, tctx *telegram.Context) error {
	if tctx == nil {
		return fmt.Errorf("update context is required")
	}
	kind := tctx.Kind()
	if kind == telegram.KindNone {
		return nil
	}

	text := tctx.Text()
	inv := Invocation{
		Update:        tctx,
		Text:          text,
		ShowReasoning: r.showReasoning,
	}

	if kind == telegram.KindMessage && strings.HasPrefix(text, "/") {
		cmd, args := splitCommand(text)
		if h, ok := r.commands[cmd]; ok {
			inv.Command = cmd
			inv.Args = args
			return h(ctx, inv)
		}
	}
	if h, ok := r.kinds[kind]; ok {
		return h(ctx, inv)
	}
	if r.fallback != nil {
		return r.fallback(ctx, inv)
	}
	return nil
}

// splitCommand parses "/cmd@BotName rest of text" into ("cmd", "rest of
// text").
func splitCommand(text string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	cmd := normalizeCommand(parts[0])
	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}
	return cmd, args
}

func normalizeCommand(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "/"))
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name)
}
