// Package miner implements the per-account session state machine and the
// multi-account supervisor that drive the Nexus dashboard automation.
//
// The package owns all lifecycle logic (connect, authenticate, poll, mine)
// and delegates rendering, browser control and proxy anonymization to narrow
// capability interfaces so the display layer and the automation engine stay
// replaceable.
package miner

import (
	"time"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/proxy"
)

// State identifies where a session is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateAuthenticating
	StatePolling
	StateMining
	StateStopping
	StateClosed
)

// String returns the state name for logs and debugging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateAuthenticating:
		return "Authenticating"
	case StatePolling:
		return "Polling"
	case StateMining:
		return "Mining"
	case StateStopping:
		return "Stopping"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// validTransitions is the allowed-transition table. Transitions not listed
// here indicate a lifecycle bug and are rejected.
var validTransitions = map[State][]State{
	StateIdle:           {StateConnecting, StateStopping},
	StateConnecting:     {StateAuthenticating, StateStopping},
	StateAuthenticating: {StatePolling, StateIdle, StateStopping},
	StatePolling:        {StateMining, StateStopping},
	StateMining:         {StatePolling, StateStopping},
	StateStopping:       {StateAuthenticating, StateIdle, StateClosed},
	StateClosed:         {},
}

func transitionAllowed(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UserInfo is the per-account snapshot rendered in the account panel.
// It is owned by the session; the display layer only ever sees copies.
type UserInfo struct {
	Address string
	Points  string
	IP      string
	Proxy   string
	Ops     string
	Status  string
}

// Account status values shown in the panel.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// ToggleResult reports the outcome of one activation-toggle probe.
type ToggleResult struct {
	// Found is true when the toggle control exists on the page
	Found bool

	// WasOff is true when the control was off and has been clicked
	WasOff bool
}

// SurfaceOptions configures a new automation surface.
type SurfaceOptions struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int

	// ProxyServer is the local proxy endpoint to route through,
	// empty for a direct connection
	ProxyServer string

	Headless bool
}

// Surface is the browser-automation capability a session drives. Implemented
// by pkg/browser on top of playwright; faked in tests.
type Surface interface {
	Navigate(url string, timeout time.Duration) error
	Reload(timeout time.Duration) error
	Content() (string, error)
	SetLocalStorage(items map[string]string) error

	// ReadText returns the first non-empty text among the selector
	// fallbacks, or an error when none yields text.
	ReadText(selectors []string) (string, error)

	// WaitForAny waits until any of the selectors appears.
	WaitForAny(selectors []string, timeout time.Duration) bool

	// ActivateToggle inspects the activation control and clicks it if it
	// reads as off. The on/off heuristic lives behind this capability.
	ActivateToggle(selector string) (ToggleResult, error)

	Screenshot(path string) error
	ClearStorage() error
	Close() error
}

// Engine constructs automation surfaces. Implemented by browser.Manager.
type Engine interface {
	NewSurface(opts SurfaceOptions) (Surface, error)
}

// Lease is a live anonymized proxy endpoint scoped to one surface.
type Lease interface {
	Endpoint() string
	Release()
}

// Leaser acquires proxy leases. The default implementation wraps
// proxy.Acquire; tests substitute fakes.
type Leaser interface {
	Acquire(spec *proxy.Spec) (Lease, error)
}

type defaultLeaser struct{}

func (defaultLeaser) Acquire(spec *proxy.Spec) (Lease, error) {
	return proxy.Acquire(spec)
}

// Event is a display notification emitted by sessions and the supervisor.
// The TUI forwards events into its own message loop; sessions never hold
// rendering handles.
type Event interface{ event() }

// LogEvent carries one freshly appended log entry of a displayed account.
type LogEvent struct {
	AccountID int
	Entry     Entry
}

// InfoEvent carries a fresh UserInfo snapshot of a displayed account.
type InfoEvent struct {
	AccountID int
	Info      UserInfo
}

// StatusEvent carries the global footer status string.
type StatusEvent struct {
	Status string
}

func (LogEvent) event()    {}
func (InfoEvent) event()   {}
func (StatusEvent) event() {}

// Emitter delivers events to the display layer. A nil Emitter is valid and
// drops everything.
type Emitter func(Event)
