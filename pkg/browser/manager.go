package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/miner"
)

// Chromium flags for running inside containers and VMs without a GPU.
var launchArgs = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-gpu",
}

// Manager owns the shared Playwright driver and hands out one isolated
// browser per surface. Each account gets its own browser process so a
// crashed page never takes a neighbour down with it.
type Manager struct {
	mu          sync.Mutex
	playwright  *playwright.Playwright
	initialized bool
}

// NewManager creates an uninitialized manager. Initialize must be called
// before any surface is created.
func NewManager() *Manager {
	return &Manager{}
}

// Initialize installs the browser driver if needed and starts Playwright.
// Output is discarded so driver downloads do not corrupt the terminal UI.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// NewSurface launches a dedicated browser with the requested identity and
// network routing, and returns a surface bound to a fresh page.
func (m *Manager) NewSurface(opts miner.SurfaceOptions) (miner.Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("browser manager not initialized")
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     launchArgs,
	}
	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: opts.ProxyServer}
	}
	browser, err := m.playwright.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &Surface{
		browser: browser,
		context: context,
		page:    page,
	}, nil
}

// Shutdown stops the Playwright driver. Surfaces must be closed first.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized || m.playwright == nil {
		return nil
	}
	if err := m.playwright.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	m.initialized = false
	return nil
}
