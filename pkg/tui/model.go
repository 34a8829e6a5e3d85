package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/miner"
)

// menuAction identifies one entry of the automation menu.
type menuAction int

const (
	actionStartAll menuAction = iota
	actionRefreshAll
	actionStopAll
	actionExit
)

var menuEntries = []struct {
	label  string
	action menuAction
}{
	{"Start All Accounts", actionStartAll},
	{"Refresh All Accounts", actionRefreshAll},
	{"Stop All Accounts", actionStopAll},
	{"Exit", actionExit},
}

// model is the state of the terminal interface.
type model struct {
	// Bubble Tea components
	viewport viewport.Model
	spinner  spinner.Model

	// Session integration. ctx is the run context; batch automations use
	// it so a process shutdown aborts their retry loops mid-flight.
	supervisor *miner.Supervisor
	ctx        context.Context

	// Displayed account state
	info         miner.UserInfo
	accountID    int
	accountIndex int
	accountCount int
	logLines     []string

	// Global state
	status string

	// Menu overlay
	menuActive   bool
	menuSelected int

	// Batch operation state
	busy      bool
	busyLabel string

	// Window dimensions
	width  int
	height int
	ready  bool
}

// batchDoneMsg signals that a batch automation finished.
type batchDoneMsg struct{}

// initialModel builds the model with the supervisor's first session
// selected and the automation menu open.
func initialModel(ctx context.Context, sv *miner.Supervisor) model {
	if ctx == nil {
		ctx = context.Background()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := model{
		spinner:      sp,
		supervisor:   sv,
		ctx:          ctx,
		accountCount: len(sv.Sessions()),
		status:       "READY",
		menuActive:   true,
	}
	if session, index := sv.Active(); session != nil {
		m.accountIndex = index
		m.loadSession(session)
	}
	return m
}

// loadSession replaces the displayed info and log pane with the given
// session's current state.
func (m *model) loadSession(session *miner.Session) {
	m.accountID = session.Account.ID
	m.info = session.Info()
	m.logLines = m.logLines[:0]
	for _, entry := range session.Logs().Entries() {
		m.logLines = append(m.logLines, renderEntry(entry))
	}
	m.refreshViewport()
}
