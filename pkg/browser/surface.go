package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/miner"
)

// offStateClass marks the mining toggle as switched off in the dashboard's
// styling. This is a fragile DOM heuristic; if the dashboard restyles the
// toggle it is the one place to fix.
const offStateClass = "border-[#79747E]"

// Surface drives a single page in a dedicated browser. It implements the
// automation surface the session layer programs against.
type Surface struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// Navigate loads the URL and waits for the DOM to be parsed. Waiting for
// full load is pointless on the dashboard, which streams stats forever.
func (s *Surface) Navigate(url string, timeout time.Duration) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Reload reloads the current page with the same wait semantics as Navigate.
func (s *Surface) Reload(timeout time.Duration) error {
	_, err := s.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

// Content returns the rendered document HTML.
func (s *Surface) Content() (string, error) {
	content, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("content extraction failed: %w", err)
	}
	return content, nil
}

// SetLocalStorage writes the given keys into the page's local storage.
func (s *Surface) SetLocalStorage(items map[string]string) error {
	_, err := s.page.Evaluate(`(items) => {
		for (const [key, value] of Object.entries(items)) {
			localStorage.setItem(key, value);
		}
	}`, items)
	if err != nil {
		return fmt.Errorf("failed to write local storage: %w", err)
	}
	return nil
}

// ReadText returns the trimmed text of the first selector that matches an
// element with non-empty content.
func (s *Surface) ReadText(selectors []string) (string, error) {
	for _, selector := range selectors {
		element, err := s.page.QuerySelector(selector)
		if err != nil || element == nil {
			continue
		}
		text, err := element.TextContent()
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed, nil
		}
	}
	return "", fmt.Errorf("no element found matching selectors %v", selectors)
}

// WaitForAny waits until at least one of the selectors is attached to the
// document, reporting whether any appeared within the timeout.
func (s *Surface) WaitForAny(selectors []string, timeout time.Duration) bool {
	combined := strings.Join(selectors, ", ")
	_, err := s.page.WaitForSelector(combined, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err == nil
}

// ActivateToggle inspects the mining toggle and clicks it when it is off.
// The check and the click happen in one script so the page cannot change
// state between them.
func (s *Surface) ActivateToggle(selector string) (miner.ToggleResult, error) {
	raw, err := s.page.Evaluate(`([selector, offClass]) => {
		const el = document.querySelector(selector);
		if (!el) {
			return { found: false, wasOff: false };
		}
		const off = (el.className || '').includes(offClass);
		if (off) {
			el.click();
		}
		return { found: true, wasOff: off };
	}`, []string{selector, offStateClass})
	if err != nil {
		return miner.ToggleResult{}, fmt.Errorf("toggle evaluation failed: %w", err)
	}

	result, ok := raw.(map[string]interface{})
	if !ok {
		return miner.ToggleResult{}, fmt.Errorf("unexpected toggle result %T", raw)
	}
	found, _ := result["found"].(bool)
	wasOff, _ := result["wasOff"].(bool)
	return miner.ToggleResult{Found: found, WasOff: wasOff}, nil
}

// Screenshot captures the current viewport to path.
func (s *Surface) Screenshot(path string) error {
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

// ClearStorage drops cookies and wipes web storage. Storage scripts fail on
// about:blank, so that part is best effort.
func (s *Surface) ClearStorage() error {
	if err := s.context.ClearCookies(); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	_, _ = s.page.Evaluate(`() => {
		try { localStorage.clear(); } catch (e) {}
		try { sessionStorage.clear(); } catch (e) {}
	}`)
	return nil
}

// Close tears down the page, context and browser. Page and context errors
// are ignored so the browser process itself always gets a close attempt.
func (s *Surface) Close() error {
	_ = s.page.Close()
	_ = s.context.Close()
	if err := s.browser.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
