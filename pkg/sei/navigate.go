package sei

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// The portal updates sub-frames asynchronously without firing a full
// navigation event, so network quiescence alone is not enough; screens that
// show a loading overlay get a short extra wait for it to clear.
const loadingOverlayTimeout = 2 * time.Second

// loadingOverlaySelector matches the portal's busy indicators. Not every
// screen renders one; absence is not an error.
const loadingOverlaySelector = "#divInfraAguarde, .infraLoading"

// navigate drives the page to url and waits for the screen to settle.
func (c *Client) navigate(url string) error {
	if c.page == nil {
		return ErrSessionNotInitialized
	}

	_, err := c.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   c.timeoutMs(),
	})
	if err != nil {
		if isTimeout(err) {
			return &ActionTimeoutError{Op: fmt.Sprintf("navigate to %s", url), Timeout: c.cfg.Driver.Timeout.Std(), Err: err}
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return c.waitSettled()
}

// waitSettled applies the two-stage completion heuristic: network
// quiescence first, then a short bounded wait for any visible loading
// overlay to disappear. Both stages tolerate their bound expiring; the
// portal occasionally long-polls, and some tenant themes never show an
// overlay at all.
func (c *Client) waitSettled() error {
	if c.page == nil {
		return ErrSessionNotInitialized
	}

	if err := c.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: c.timeoutMs(),
	}); err != nil {
		if !isTimeout(err) {
			return fmt.Errorf("waiting for network idle: %w", err)
		}
		c.log.Debugf("network never went idle, continuing: %v", err)
	}

	err := c.page.Locator(loadingOverlaySelector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: playwright.Float(float64(loadingOverlayTimeout.Milliseconds())),
	})
	if err != nil {
		c.log.Debugf("loading overlay still visible after %s, continuing: %v", loadingOverlayTimeout, err)
	}
	return nil
}
