// Package tui renders the multi-account mining terminal: an account info
// panel, a scrolling per-account log pane, and a menu for the batch
// automations.
//
// The code is split across files in the usual Bubble Tea shape:
// - executor.go: program lifecycle and event forwarding
// - model.go: model state and internal messages
// - update.go: message handling and key bindings
// - view.go: rendering
// - styles.go: color palette and styles
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/miner"
)

// Executor runs the terminal interface on top of a session supervisor.
type Executor struct {
	events  chan miner.Event
	program *tea.Program
}

// NewExecutor creates a TUI executor. Its Emit method is the event sink to
// hand to the supervisor; events published there are forwarded into the
// running program.
func NewExecutor() *Executor {
	return &Executor{
		events: make(chan miner.Event, 256),
	}
}

// Emit publishes a session event to the interface. Events are dropped when
// the UI falls behind rather than blocking the session that emitted them.
func (e *Executor) Emit(event miner.Event) {
	select {
	case e.events <- event:
	default:
	}
}

// Run starts the interface and blocks until the user exits. The supervisor
// is not shut down here; the caller owns its lifecycle.
func (e *Executor) Run(ctx context.Context, sv *miner.Supervisor) error {
	m := initialModel(ctx, sv)

	e.program = tea.NewProgram(
		&m,
		tea.WithAltScreen(),
	)

	go func() {
		for event := range e.events {
			e.program.Send(event)
		}
	}()

	go func() {
		<-ctx.Done()
		e.program.Send(tea.Quit())
	}()

	if _, err := e.program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI program: %w", err)
	}
	return nil
}
