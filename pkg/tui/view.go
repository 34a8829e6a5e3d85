package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/miner"
)

// logPaneCapacity mirrors the session log buffer size.
const logPaneCapacity = 200

// chromeHeight is the number of rows taken by everything around the log
// pane: header, status bar, info panel and footer.
const chromeHeight = 18

// View renders the entire interface.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.buildHeader()
	statusBar := m.buildStatusBar()
	infoPanel := m.buildInfoPanel()
	logPane := m.viewport.View()
	if m.menuActive {
		logPane = m.buildMenu()
	}
	footer := m.buildFooter()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		statusBar,
		infoPanel,
		logPane,
		footer,
	)
}

func (m *model) buildHeader() string {
	return headerStyle.Render(`
	███╗   ██╗███████╗██╗  ██╗██╗   ██╗███████╗
	████╗  ██║██╔════╝╚██╗██╔╝██║   ██║██╔════╝
	██╔██╗ ██║█████╗   ╚███╔╝ ██║   ██║███████╗
	██║╚██╗██║██╔══╝   ██╔██╗ ██║   ██║╚════██║
	██║ ╚████║███████╗██╔╝ ██╗╚██████╔╝███████║
	╚═╝  ╚═══╝╚══════╝╚═╝  ╚═╝ ╚═════╝ ╚══════╝  MINER`)
}

func (m *model) buildStatusBar() string {
	left := fmt.Sprintf(" Status: %s", m.status)
	if m.busy {
		left = fmt.Sprintf(" %s %s", m.spinner.View(), m.busyLabel)
	}
	right := fmt.Sprintf("Account %d/%d ", m.accountIndex+1, m.accountCount)
	if m.accountCount == 0 {
		right = "No accounts "
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *model) buildInfoPanel() string {
	statusValue := inactiveStyle.Render(m.info.Status)
	if m.info.Status == miner.StatusActive {
		statusValue = activeStyle.Render(m.info.Status)
	}

	rows := []string{
		infoRow("Address", valueStyle.Render(m.info.Address)),
		infoRow("Points", valueStyle.Render(m.info.Points)),
		infoRow("IP", valueStyle.Render(m.info.IP)),
		infoRow("Proxy", valueStyle.Render(m.info.Proxy)),
		infoRow("Speed", valueStyle.Render(m.info.Ops)),
		infoRow("Mining", statusValue),
	}
	return panelStyle.Width(m.width - 2).Render(strings.Join(rows, "\n"))
}

func infoRow(label, value string) string {
	return fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-8s", label+":")), value)
}

// buildMenu renders the automation menu in place of the log pane.
func (m *model) buildMenu() string {
	var b strings.Builder
	b.WriteString(menuTitleStyle.Render("AUTOMATION MENU"))
	b.WriteString("\n\n")
	for i, entry := range menuEntries {
		if i == m.menuSelected {
			b.WriteString(menuSelectedStyle.Render("▸ " + entry.label))
		} else {
			b.WriteString(menuItemStyle.Render("  " + entry.label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(menuHelpStyle.Render("↑/↓ select • enter run • esc close"))

	box := menuBoxStyle.Render(b.String())
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
}

func (m *model) buildFooter() string {
	return footerStyle.Render("  ←/→ switch account • c copy address • m menu • q quit")
}

// renderEntry colors a log record by its severity. The live view shows the
// record's display form; records carry their own timestamp prefix, so only
// styling is applied here.
func renderEntry(entry miner.Entry) string {
	switch entry.Severity {
	case miner.SeveritySuccess:
		return logSuccessStyle.Render(entry.Display)
	case miner.SeverityWarn:
		return logWarnStyle.Render(entry.Display)
	case miner.SeverityError:
		return logErrorStyle.Render(entry.Display)
	case miner.SeverityBanner:
		return logBannerStyle.Render(entry.Display)
	default:
		return logInfoStyle.Render(entry.Display)
	}
}

func newLogViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}
