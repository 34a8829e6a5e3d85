package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/miner"
)

// Init starts the spinner ticker.
func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all state updates for the interface.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var spinnerCmd tea.Cmd
	m.spinner, spinnerCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg, spinnerCmd)

	case miner.LogEvent:
		if msg.AccountID == m.accountID {
			m.appendLogLine(renderEntry(msg.Entry))
		}
		return m, spinnerCmd

	case miner.InfoEvent:
		if msg.AccountID == m.accountID {
			m.info = msg.Info
		}
		return m, spinnerCmd

	case miner.StatusEvent:
		m.status = msg.Status
		return m, spinnerCmd

	case batchDoneMsg:
		m.busy = false
		m.busyLabel = ""
		return m, spinnerCmd
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(spinnerCmd, vpCmd)
}

func (m *model) handleKey(msg tea.KeyMsg, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.menuActive {
		return m.handleMenuKey(msg, spinnerCmd)
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit

	case "m":
		if !m.busy {
			m.menuActive = true
			m.menuSelected = 0
		}
		return m, spinnerCmd

	case "left":
		m.switchAccount(-1)
		return m, spinnerCmd

	case "right":
		m.switchAccount(1)
		return m, spinnerCmd

	case "c":
		m.copyAddress()
		return m, spinnerCmd
	}

	// Remaining keys scroll the log pane.
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(spinnerCmd, vpCmd)
}

func (m *model) handleMenuKey(msg tea.KeyMsg, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuSelected > 0 {
			m.menuSelected--
		}
	case "down", "j":
		if m.menuSelected < len(menuEntries)-1 {
			m.menuSelected++
		}
	case "esc", "m":
		m.menuActive = false
	case "enter":
		m.menuActive = false
		return m.runMenuAction(menuEntries[m.menuSelected].action, spinnerCmd)
	}
	return m, spinnerCmd
}

// runMenuAction kicks off the selected automation in the background so the
// interface stays responsive while the batch walks the accounts.
func (m *model) runMenuAction(action menuAction, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.busy && action != actionExit {
		return m, spinnerCmd
	}

	sv, ctx := m.supervisor, m.ctx
	switch action {
	case actionStartAll:
		return m.startBatch("Starting all accounts...", func() {
			sv.StartAll(ctx)
		})
	case actionRefreshAll:
		return m.startBatch("Refreshing all accounts...", func() {
			sv.RefreshAll(ctx)
		})
	case actionStopAll:
		return m.startBatch("Stopping all accounts...", sv.StopAll)
	case actionExit:
		return m, tea.Quit
	}
	return m, spinnerCmd
}

func (m *model) startBatch(label string, fn func()) (tea.Model, tea.Cmd) {
	m.busy = true
	m.busyLabel = label
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		fn()
		return batchDoneMsg{}
	})
}

// switchAccount selects the neighbouring session for display. Disabled
// while a batch is running so the display target stays stable.
func (m *model) switchAccount(delta int) {
	if m.busy || m.accountCount == 0 {
		return
	}
	session := m.supervisor.SwitchActive(m.accountIndex + delta)
	if session == nil {
		return
	}
	_, m.accountIndex = m.supervisor.Active()
	m.loadSession(session)
}

// copyAddress puts the displayed wallet address on the system clipboard.
func (m *model) copyAddress() {
	session, _ := m.supervisor.Active()
	if session == nil || m.info.Address == "" {
		return
	}
	if err := clipboard.WriteAll(m.info.Address); err != nil {
		session.Logs().Append(miner.SeverityWarn, fmt.Sprintf("Failed to copy address: %v", err))
		return
	}
	session.Logs().Append(miner.SeverityInfo, "Address copied to clipboard")
}

func (m *model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	viewportHeight := msg.Height - chromeHeight
	if viewportHeight < 3 {
		viewportHeight = 3
	}
	if !m.ready {
		m.viewport = newLogViewport(msg.Width-2, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = viewportHeight
	}
	m.refreshViewport()
	return m, nil
}

// appendLogLine mirrors the session buffer's capacity so the pane never
// outgrows what the buffer retains.
func (m *model) appendLogLine(line string) {
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > logPaneCapacity {
		m.logLines = m.logLines[len(m.logLines)-logPaneCapacity:]
	}
	m.refreshViewport()
}

func (m *model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.logLines, "\n"))
	m.viewport.GotoBottom()
}
