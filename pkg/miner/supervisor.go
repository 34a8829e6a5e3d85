package miner

import (
	"context"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/account"
	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/logging"
	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/proxy"
)

// Supervisor owns the ordered set of sessions, tracks which one the display
// is showing, and runs batch automations strictly sequentially so the host
// is never overwhelmed and log output stays readable.
type Supervisor struct {
	sessions []*Session
	active   int

	emit   Emitter
	logger *logging.Logger
}

// NewSupervisor creates one session per account, in order. specs assigns
// upstream proxies by account position; missing or nil entries mean a direct
// connection. The first session starts out selected for display.
func NewSupervisor(accounts []account.Account, specs []*proxy.Spec, engine Engine, leaser Leaser, emit Emitter) *Supervisor {
	if emit == nil {
		emit = func(Event) {}
	}
	logger, _ := logging.NewLogger("supervisor")

	sv := &Supervisor{
		emit:   emit,
		logger: logger,
	}
	for i, acc := range accounts {
		var spec *proxy.Spec
		if i < len(specs) {
			spec = specs[i]
		}
		sv.sessions = append(sv.sessions, NewSession(acc, spec, engine, leaser, emit))
	}

	if len(sv.sessions) > 0 {
		sv.sessions[0].SetDisplayed(true)
	}
	return sv
}

// ApplyBrowserOptions forwards browser settings to every session.
func (sv *Supervisor) ApplyBrowserOptions(headless bool, screenshotDir string) {
	for _, session := range sv.sessions {
		session.SetBrowserOptions(headless, screenshotDir)
	}
}

// Sessions returns the ordered session list.
func (sv *Supervisor) Sessions() []*Session { return sv.sessions }

// Active returns the currently displayed session and its index.
func (sv *Supervisor) Active() (*Session, int) {
	if len(sv.sessions) == 0 {
		return nil, 0
	}
	return sv.sessions[sv.active], sv.active
}

// SwitchActive selects the session at index for display, wrapping around
// both ends, and forces one refresh of the new selection.
func (sv *Supervisor) SwitchActive(index int) *Session {
	if len(sv.sessions) == 0 {
		return nil
	}

	index = ((index % len(sv.sessions)) + len(sv.sessions)) % len(sv.sessions)
	sv.sessions[sv.active].SetDisplayed(false)
	sv.active = index
	selected := sv.sessions[index]
	selected.SetDisplayed(true)
	sv.emit(InfoEvent{AccountID: selected.Account.ID, Info: selected.Info()})
	return selected
}

// StartAll boots every session and starts mining on each, in index order,
// one at a time. Session-fatal failures are logged on the failing session's
// buffer and do not stop the batch.
func (sv *Supervisor) StartAll(ctx context.Context) {
	if len(sv.sessions) == 0 {
		return
	}

	sv.sessions[0].Logs().Append(SeverityBanner, " AUTOMATION: STARTING ALL ACCOUNTS ")
	sv.setStatus("STARTING ALL...")

	for _, session := range sv.sessions {
		if err := session.Start(ctx); err != nil {
			sv.logger.Errorf("start of account %d failed: %v", session.Account.ID, err)
			continue
		}
		session.StartMining(ctx)
	}

	sv.sessions[0].Logs().Append(SeverityBanner, " AUTOMATION: ALL ACCOUNTS STARTED ")
	sv.setStatus("MONITORING")
}

// RefreshAll refreshes every session sequentially.
func (sv *Supervisor) RefreshAll(ctx context.Context) {
	if len(sv.sessions) == 0 {
		return
	}

	sv.sessions[0].Logs().Append(SeverityBanner, " AUTOMATION: REFRESHING ALL ACCOUNTS ")
	sv.setStatus("REFRESHING ALL...")

	for _, session := range sv.sessions {
		session.Refresh(ctx)
	}

	sv.sessions[0].Logs().Append(SeverityBanner, " AUTOMATION: ALL ACCOUNTS REFRESHED ")
	sv.setStatus("MONITORING")
}

// StopAll stops mining on every session sequentially.
func (sv *Supervisor) StopAll() {
	if len(sv.sessions) == 0 {
		return
	}

	sv.sessions[0].Logs().Append(SeverityBanner, " AUTOMATION: STOPPING ALL ACCOUNTS ")
	sv.setStatus("STOPPING ALL...")

	for _, session := range sv.sessions {
		session.StopMining()
	}

	sv.sessions[0].Logs().Append(SeverityBanner, " AUTOMATION: ALL ACCOUNTS STOPPED ")
	sv.setStatus("READY")
}

// Shutdown stops and closes every session. Used on process exit; teardown
// errors are absorbed by the sessions themselves.
func (sv *Supervisor) Shutdown() {
	for _, session := range sv.sessions {
		session.Close()
	}
}

func (sv *Supervisor) setStatus(status string) {
	sv.emit(StatusEvent{Status: status})
}
