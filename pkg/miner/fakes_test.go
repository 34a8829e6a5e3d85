package miner

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/proxy"
)

// callRecorder captures call ordering across fakes for sequencing checks.
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) add(call string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *callRecorder) filtered(prefixes ...string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, call := range r.calls {
		for _, prefix := range prefixes {
			if strings.HasPrefix(call, prefix) {
				out = append(out, call)
				break
			}
		}
	}
	return out
}

// fakeSurface is an in-memory AutomationSurface.
type fakeSurface struct {
	mu       sync.Mutex
	id       int
	recorder *callRecorder

	content      string
	texts        map[string]string
	waitResult   bool
	toggleResult ToggleResult
	toggleErr    error
	navErr       error

	storage     map[string]string
	screenshots []string
	closed      bool
	closeErr    error
}

// healthySurface fakes a reachable, logged-in dashboard.
func healthySurface() *fakeSurface {
	return &fakeSurface{
		content: "<html><body>dashboard</body></html>",
		texts: map[string]string{
			balanceSelector: "123.45",
			speedSelector:   "10 ops/s",
		},
		waitResult:   true,
		toggleResult: ToggleResult{Found: true, WasOff: true},
		storage:      map[string]string{},
	}
}

func (f *fakeSurface) Navigate(url string, timeout time.Duration) error {
	f.recorder.add(fmt.Sprintf("navigate:%d", f.id))
	return f.navErr
}

func (f *fakeSurface) Reload(timeout time.Duration) error { return f.navErr }

func (f *fakeSurface) Content() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content, nil
}

func (f *fakeSurface) SetLocalStorage(items map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range items {
		f.storage[k] = v
	}
	return nil
}

func (f *fakeSurface) ReadText(selectors []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sel := range selectors {
		if text := f.texts[sel]; text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("no element found for selectors %v", selectors)
}

func (f *fakeSurface) setText(selector, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[selector] = text
}

func (f *fakeSurface) WaitForAny(selectors []string, timeout time.Duration) bool {
	return f.waitResult
}

func (f *fakeSurface) ActivateToggle(selector string) (ToggleResult, error) {
	f.recorder.add(fmt.Sprintf("toggle:%d", f.id))
	return f.toggleResult, f.toggleErr
}

func (f *fakeSurface) Screenshot(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshots = append(f.screenshots, path)
	return nil
}

func (f *fakeSurface) ClearStorage() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storage = map[string]string{}
	return nil
}

func (f *fakeSurface) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

// fakeEngine hands out fake surfaces and records construction order.
type fakeEngine struct {
	mu       sync.Mutex
	recorder *callRecorder

	next     func() *fakeSurface
	newErr   error
	surfaces []*fakeSurface
	opts     []SurfaceOptions
}

func newFakeEngine(next func() *fakeSurface) *fakeEngine {
	return &fakeEngine{recorder: &callRecorder{}, next: next}
}

func (e *fakeEngine) NewSurface(opts SurfaceOptions) (Surface, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.newErr != nil {
		return nil, e.newErr
	}

	surface := e.next()
	surface.id = len(e.surfaces) + 1
	surface.recorder = e.recorder
	e.surfaces = append(e.surfaces, surface)
	e.opts = append(e.opts, opts)
	e.recorder.add(fmt.Sprintf("new:%d", surface.id))
	return surface, nil
}

// fakeLease / fakeLeaser stand in for the proxy anonymizer.
type fakeLease struct {
	mu       sync.Mutex
	released int
}

func (l *fakeLease) Endpoint() string { return "http://127.0.0.1:49152" }

func (l *fakeLease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released++
}

type fakeLeaser struct {
	mu       sync.Mutex
	err      error
	acquires int
	leases   []*fakeLease
}

func (f *fakeLeaser) Acquire(spec *proxy.Spec) (Lease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.acquires++
	if f.err != nil {
		return nil, f.err
	}
	lease := &fakeLease{}
	f.leases = append(f.leases, lease)
	return lease, nil
}

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// okPathClient answers every probe with 200 and IP lookups with a fixed IP.
func okPathClient(spec *proxy.Spec, timeout time.Duration) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body := "ok"
		if strings.Contains(req.URL.Host, "ipify") {
			body = `{"ip":"203.0.113.7"}`
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	})}
}

// downPathClient fails every request with a transport error.
func downPathClient(spec *proxy.Spec, timeout time.Duration) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("connection refused")
	})}
}

// testTimings removes every fixed delay so lifecycle tests run instantly.
// The mining interval stays effectively infinite unless a test shortens it.
func testTimings() timings {
	return timings{miningInterval: time.Hour}
}

// plainLines returns the buffer's plain records containing substr.
func plainLines(buf *LogBuffer, substr string) []string {
	var out []string
	for _, entry := range buf.Entries() {
		if strings.Contains(entry.Plain, substr) {
			out = append(out, entry.Plain)
		}
	}
	return out
}
