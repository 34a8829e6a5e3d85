package miner

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/account"
	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/logging"
	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/proxy"
)

// Session is the per-account state machine. It owns one automation surface
// bound through at most one proxy lease, the account's UserInfo snapshot and
// its log buffer.
//
// Public operations (Start, StartMining, StopMining, Refresh, Close) are
// serialized by the session mutex; only the mining ticker runs concurrently
// and it never takes that mutex, so StopMining can cancel it synchronously.
type Session struct {
	Account account.Account

	mu    sync.Mutex
	state State

	// spec downgrades monotonically: once nil (direct), it never goes back
	// to a proxy for the rest of the session's lifetime
	spec    *proxy.Spec
	lease   Lease
	surface Surface

	infoMu sync.Mutex
	info   UserInfo

	logs      *LogBuffer
	displayed atomic.Bool

	engine Engine
	leaser Leaser
	emit   Emitter
	logger *logging.Logger

	mining       bool
	miningCancel chan struct{}
	miningDone   chan struct{}

	headless bool

	// test seams; production sessions keep the defaults
	timings       timings
	dashboardURL  string
	ipCheckURL    string
	screenshotDir string
	pathClient    func(spec *proxy.Spec, timeout time.Duration) *http.Client
	pickAgent     func() string
}

// NewSession creates an idle session for one account. spec may be nil for a
// direct connection; leaser and emit may be nil.
func NewSession(acc account.Account, spec *proxy.Spec, engine Engine, leaser Leaser, emit Emitter) *Session {
	if leaser == nil {
		leaser = defaultLeaser{}
	}
	if emit == nil {
		emit = func(Event) {}
	}

	logger, _ := logging.NewLogger(fmt.Sprintf("session-%d", acc.ID))

	s := &Session{
		Account: acc,
		state:   StateIdle,
		spec:    spec,
		engine:  engine,
		leaser:  leaser,
		emit:    emit,
		logger:  logger,

		headless:      true,
		timings:       defaultTimings(),
		dashboardURL:  dashboardURL,
		ipCheckURL:    ipCheckURL,
		screenshotDir: ".",
		pathClient:    newPathClient,
		pickAgent:     func() string { return userAgents[rand.Intn(len(userAgents))] },
	}

	proxyLabel := "None"
	if spec != nil {
		proxyLabel = spec.String()
	}
	s.info = UserInfo{
		Address: acc.Address,
		Points:  "-",
		IP:      "Unknown",
		Proxy:   proxyLabel,
		Ops:     "N/A",
		Status:  StatusInactive,
	}

	s.logs = NewLogBuffer(func(entry Entry) {
		if s.displayed.Load() {
			s.emit(LogEvent{AccountID: acc.ID, Entry: entry})
		}
	})

	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Info returns a copy of the account snapshot.
func (s *Session) Info() UserInfo {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	return s.info
}

// Logs returns the account's log buffer.
func (s *Session) Logs() *LogBuffer { return s.logs }

// SetBrowserOptions configures browser visibility and where diagnostic
// screenshots land. Call before Start; surfaces already built keep their
// original settings.
func (s *Session) SetBrowserOptions(headless bool, screenshotDir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headless = headless
	if screenshotDir != "" {
		s.screenshotDir = screenshotDir
	}
}

// SetDisplayed marks whether this account is the one currently rendered.
// Display notifications are suppressed while not displayed.
func (s *Session) SetDisplayed(displayed bool) {
	s.displayed.Store(displayed)
}

// Start boots the session: connectivity check, surface construction, login,
// settle, then the first points and IP fetch. A failed login is fatal for
// the session and returned; everything else degrades in place. Starting a
// session that is not idle is a logged no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		s.logAt(SeverityWarn, "[%d] Start skipped: session already running", s.Account.ID)
		return nil
	}

	s.logAt(SeverityInfo, "Booting account [%d] session...", s.Account.ID)

	if err := s.transition(StateConnecting); err != nil {
		return err
	}
	if !s.checkConnection(ctx) {
		s.logAt(SeverityWarn, "[%d] Initial connection check failed. Using direct connection...", s.Account.ID)
		s.downgradeProxyLocked()
	}

	if err := s.transition(StateAuthenticating); err != nil {
		return err
	}
	if err := s.initSurfaceLocked(); err != nil {
		s.logAt(SeverityError, "[%d] Failed to initialize browser: %v", s.Account.ID, err)
		_ = s.transition(StateIdle)
		return err
	}
	if err := s.loginWithRetry(ctx); err != nil {
		_ = s.transition(StateIdle)
		return err
	}

	s.sleep(ctx, s.timings.initialSettle)
	if err := s.transition(StatePolling); err != nil {
		return err
	}

	s.fetchPoints(ctx)
	s.fetchIP(ctx)
	s.notifyInfo()
	s.logAt(SeveritySuccess, "Account [%d] initialized successfully", s.Account.ID)
	return nil
}

// Refresh tears the session's surface down and re-runs authentication and
// the first polling pass. Errors leave the session in a safe inactive state
// and are never propagated.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}

	s.logAt(SeverityInfo, "[%d] Refreshing account...", s.Account.ID)
	s.stopMiningLocked()

	if err := s.transition(StateStopping); err != nil {
		return
	}
	s.teardownSurfaceLocked()

	if err := s.transition(StateAuthenticating); err != nil {
		return
	}
	if err := s.initSurfaceLocked(); err != nil {
		s.logAt(SeverityError, "[%d] Failed to refresh account: %v", s.Account.ID, err)
		_ = s.transition(StateIdle)
		return
	}
	if err := s.loginWithRetry(ctx); err != nil {
		s.logAt(SeverityError, "[%d] Failed to refresh account: %v", s.Account.ID, err)
		_ = s.transition(StateIdle)
		return
	}

	s.sleep(ctx, s.timings.refreshSettle)
	if err := s.transition(StatePolling); err != nil {
		return
	}

	s.fetchPoints(ctx)
	s.fetchIP(ctx)
	s.notifyInfo()
	s.logAt(SeveritySuccess, "[%d] Account refreshed successfully", s.Account.ID)
}

// Close shuts the session down for good: mining stopped, surface closed,
// lease released. Errors during teardown are logged, never returned.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}

	s.stopMiningLocked()
	_ = s.transition(StateStopping)
	s.teardownSurfaceLocked()
	_ = s.transition(StateClosed)
}

// transition moves to the next state after validating it against the
// allowed-transition table.
func (s *Session) transition(to State) error {
	if !transitionAllowed(s.state, to) {
		err := fmt.Errorf("invalid transition %s -> %s", s.state, to)
		s.logger.Errorf("[%d] %v", s.Account.ID, err)
		return err
	}
	s.logger.Debugf("[%d] %s -> %s", s.Account.ID, s.state, to)
	s.state = to
	return nil
}

// checkConnection runs the bounded connectivity probe. It never fails the
// caller; a false return means the session should fall back to a direct
// connection.
func (s *Session) checkConnection(ctx context.Context) bool {
	ok := false
	_ = retryOp(ctx, connectAttempts, s.timings.connectRetryDelay, func(attempt int) error {
		s.logAt(SeverityInfo, "[%d] Checking network connectivity (Attempt %d)...", s.Account.ID, attempt)

		client := s.pathClient(s.spec, s.timings.connectTimeout)
		if err := probeURL(ctx, client, s.dashboardURL); err != nil {
			s.logAt(SeverityError, "[%d] Network connection attempt %d failed: %v", s.Account.ID, attempt, err)
			return err
		}

		s.logAt(SeveritySuccess, "[%d] Network connection verified", s.Account.ID)
		ok = true
		return nil
	})
	return ok
}

// downgradeProxyLocked switches the session to a direct connection. The
// downgrade is one-way for the session's remaining lifetime.
func (s *Session) downgradeProxyLocked() {
	s.spec = nil
	s.mutateInfo(func(info *UserInfo) { info.Proxy = "None" })
}

// initSurfaceLocked acquires the proxy lease (downgrading on failure) and
// constructs the automation surface with a fresh identity.
func (s *Session) initSurfaceLocked() error {
	opts := SurfaceOptions{
		UserAgent:      s.pickAgent(),
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
		Headless:       s.headless,
	}

	if s.spec != nil {
		lease, err := s.leaser.Acquire(s.spec)
		if err != nil {
			s.logAt(SeverityError, "[%d] Failed to anonymize proxy %s: %v", s.Account.ID, s.spec, err)
			s.downgradeProxyLocked()
		} else {
			s.lease = lease
			opts.ProxyServer = lease.Endpoint()
		}
	}

	surface, err := s.engine.NewSurface(opts)
	if err != nil {
		s.releaseLeaseLocked()
		return fmt.Errorf("failed to initialize browser: %w", err)
	}

	// Drop any inherited storage and cookies before first use.
	if err := surface.ClearStorage(); err != nil {
		s.logger.Warnf("[%d] failed to clear inherited storage: %v", s.Account.ID, err)
	}

	s.surface = surface
	return nil
}

// loginWithRetry runs the authentication protocol. Exhausting the retry
// budget is fatal for the session.
func (s *Session) loginWithRetry(ctx context.Context) error {
	err := retryOp(ctx, loginAttempts, s.timings.loginRetryDelay, func(attempt int) error {
		loginErr := s.loginOnce()
		if loginErr != nil {
			s.logAt(SeverityError, "[%d] Login attempt %d failed: %v", s.Account.ID, attempt, loginErr)
			if attempt < loginAttempts {
				s.logAt(SeverityWarn, "[%d] Retrying login...", s.Account.ID)
			}
		}
		return loginErr
	})
	if err != nil {
		s.logAt(SeverityError, "[%d] Max login retries reached. Please check token or network.", s.Account.ID)
		s.captureScreenshot("login")
		return fmt.Errorf("login failed after %d attempts: %w", loginAttempts, err)
	}
	return nil
}

func (s *Session) loginOnce() error {
	s.logAt(SeverityInfo, "[%d] Accessing Nexus miner panel...", s.Account.ID)
	if err := s.surface.Navigate(s.dashboardURL, s.timings.navigationTimeout); err != nil {
		return err
	}

	content, err := s.surface.Content()
	if err != nil {
		return err
	}
	if marker := findBlockMarker(content); marker != "" {
		s.logAt(SeverityError, "[%d] CAPTCHA or access error detected", s.Account.ID)
		s.captureScreenshot("captcha")
		return fmt.Errorf("blocked by %q marker", marker)
	}

	s.logAt(SeverityInfo, "[%d] Processing login credentials...", s.Account.ID)
	err = s.surface.SetLocalStorage(map[string]string{
		authTokenKey:    s.Account.AuthToken,
		minAuthTokenKey: s.Account.MinAuthToken,
	})
	if err != nil {
		return err
	}
	if err := s.surface.Reload(s.timings.navigationTimeout); err != nil {
		return err
	}

	if !s.surface.WaitForAny(loginSuccessSelectors, s.timings.loginWaitTimeout) {
		s.logAt(SeverityError, "[%d] Dashboard elements not found", s.Account.ID)
		s.captureScreenshot("dashboard")
		return fmt.Errorf("no dashboard elements found")
	}

	s.logAt(SeveritySuccess, "[%d] Login successful", s.Account.ID)
	return nil
}

// findBlockMarker returns the first bot-check marker present in the page
// content, or "" when the page looks clean.
func findBlockMarker(content string) string {
	lowered := strings.ToLower(content)
	for _, marker := range blockMarkers {
		if strings.Contains(lowered, marker) {
			return marker
		}
	}
	return ""
}

// fetchPoints runs the stat-fetch protocol. Exhausting the retry budget
// degrades points to the "-" sentinel and is not fatal.
func (s *Session) fetchPoints(ctx context.Context) {
	err := retryOp(ctx, statFetchAttempts, s.timings.statRetryDelay, func(attempt int) error {
		s.logAt(SeverityInfo, "[%d] Fetching user points...", s.Account.ID)

		if err := s.surface.Navigate(s.dashboardURL, s.timings.navigationTimeout); err != nil {
			s.logAt(SeverityError, "[%d] Fetch points attempt %d failed: %v", s.Account.ID, attempt, err)
			return err
		}
		s.sleep(ctx, s.timings.statSettle)

		points, err := s.surface.ReadText(pointsSelectors)
		if err != nil || points == "" {
			s.logAt(SeverityError, "[%d] Fetch points attempt %d failed: points data not found", s.Account.ID, attempt)
			if err == nil {
				err = fmt.Errorf("points data not found")
			}
			return err
		}

		s.mutateInfo(func(info *UserInfo) { info.Points = points })
		s.logAt(SeveritySuccess, "[%d] Points fetched successfully", s.Account.ID)
		s.notifyInfo()
		return nil
	})
	if err != nil {
		s.logAt(SeverityError, `[%d] Max retries for fetching points. Points set to "-".`, s.Account.ID)
		s.mutateInfo(func(info *UserInfo) { info.Points = "-" })
		s.captureScreenshot("fetchpoints")
		s.notifyInfo()
	}
}

// fetchIP resolves the externally observed IP. A proxied session tries its
// proxy path first and falls back to the direct path before giving up.
func (s *Session) fetchIP(ctx context.Context) {
	if s.spec != nil {
		client := s.pathClient(s.spec, s.timings.ipCheckTimeout)
		if ip, err := lookupIP(ctx, client, s.ipCheckURL); err == nil {
			s.mutateInfo(func(info *UserInfo) { info.IP = ip })
			s.notifyInfo()
			return
		} else {
			s.logAt(SeverityError, "[%d] Failed to fetch IP with proxy: %v", s.Account.ID, err)
		}
	}

	client := s.pathClient(nil, s.timings.ipCheckTimeout)
	ip, err := lookupIP(ctx, client, s.ipCheckURL)
	if err != nil {
		ip = "Unknown"
		s.logAt(SeverityError, "[%d] Failed to fetch IP without proxy: %v", s.Account.ID, err)
	}
	s.mutateInfo(func(info *UserInfo) { info.IP = ip })
	s.notifyInfo()
}

// teardownSurfaceLocked closes the browser engine and releases the proxy
// lease, always in that order. All errors are swallowed into logs.
func (s *Session) teardownSurfaceLocked() {
	if s.surface != nil {
		_ = s.surface.ClearStorage()
		if err := s.surface.Close(); err != nil {
			s.logAt(SeverityError, "[%d] Failed to close browser: %v", s.Account.ID, err)
		} else {
			s.logAt(SeverityWarn, "[%d] Browser closed", s.Account.ID)
		}
		s.surface = nil
	}
	s.releaseLeaseLocked()
}

func (s *Session) releaseLeaseLocked() {
	if s.lease != nil {
		s.lease.Release()
		s.lease = nil
	}
}

// mutateInfo applies a mutation to the snapshot under its own lock.
func (s *Session) mutateInfo(fn func(*UserInfo)) {
	s.infoMu.Lock()
	fn(&s.info)
	s.infoMu.Unlock()
}

// notifyInfo pushes a snapshot to the display if this account is selected.
func (s *Session) notifyInfo() {
	if s.displayed.Load() {
		s.emit(InfoEvent{AccountID: s.Account.ID, Info: s.Info()})
	}
}

func (s *Session) logAt(severity Severity, format string, v ...interface{}) {
	s.logs.Append(severity, fmt.Sprintf(format, v...))
}

// captureScreenshot saves a diagnostic screenshot, mirroring the
// error-<kind>-<id>-<timestamp>.png naming of the dashboard errors.
func (s *Session) captureScreenshot(kind string) {
	if s.surface == nil {
		return
	}
	name := fmt.Sprintf("error-%s-%d-%d.png", kind, s.Account.ID, time.Now().UnixMilli())
	if err := s.surface.Screenshot(filepath.Join(s.screenshotDir, name)); err != nil {
		s.logger.Warnf("[%d] failed to capture screenshot %s: %v", s.Account.ID, name, err)
	}
}

// sleep waits for d unless the context is cancelled first.
func (s *Session) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
