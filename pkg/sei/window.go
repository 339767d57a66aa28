package sei

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Window housekeeping is issued over the same control channel used for
// attach-mode reconnection. Every operation here is cosmetic and
// best-effort: failures are logged and swallowed so a workflow is never
// aborted by a window manager quirk.

// windowState values understood by the control channel.
const (
	windowStateNormal     = "normal"
	windowStateMinimized  = "minimized"
	windowStateMaximized  = "maximized"
	windowStateFullscreen = "fullscreen"
)

// cdpWindow returns the control session and the window id hosting the page.
func (c *Client) cdpWindow() (playwright.CDPSession, float64, error) {
	if c.context == nil || c.page == nil {
		return nil, 0, ErrSessionNotInitialized
	}
	session, err := c.context.NewCDPSession(c.page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open control session: %w", err)
	}
	result, err := session.Send("Browser.getWindowForTarget", nil)
	if err != nil {
		_ = session.Detach()
		return nil, 0, fmt.Errorf("failed to resolve window: %w", err)
	}
	payload, ok := result.(map[string]interface{})
	if !ok {
		_ = session.Detach()
		return nil, 0, fmt.Errorf("unexpected window payload %T", result)
	}
	id, ok := payload["windowId"].(float64)
	if !ok {
		_ = session.Detach()
		return nil, 0, fmt.Errorf("window payload missing windowId")
	}
	return session, id, nil
}

// setWindowState drives the window into a state, best-effort.
func (c *Client) setWindowState(state string) {
	session, id, err := c.cdpWindow()
	if err != nil {
		c.log.Warnf("window state %s skipped: %v", state, err)
		return
	}
	defer func() { _ = session.Detach() }()

	_, err = session.Send("Browser.setWindowBounds", map[string]interface{}{
		"windowId": id,
		"bounds":   map[string]interface{}{"windowState": state},
	})
	if err != nil {
		c.log.Warnf("window state %s failed: %v", state, err)
	}
}

// MinimizeWindow minimizes the browser window. Best-effort.
func (c *Client) MinimizeWindow() { c.setWindowState(windowStateMinimized) }

// MaximizeWindow maximizes the browser window. Best-effort.
func (c *Client) MaximizeWindow() { c.setWindowState(windowStateMaximized) }

// RestoreWindow restores the browser window to its normal state. Best-effort.
func (c *Client) RestoreWindow() { c.setWindowState(windowStateNormal) }

// FullscreenWindow puts the browser window into fullscreen. Best-effort.
func (c *Client) FullscreenWindow() { c.setWindowState(windowStateFullscreen) }

// SetWindowBounds moves and resizes the browser window. The window is
// restored to the normal state first because the control channel rejects
// bounds changes on minimized or maximized windows. Best-effort.
func (c *Client) SetWindowBounds(bounds WindowBounds) {
	session, id, err := c.cdpWindow()
	if err != nil {
		c.log.Warnf("set window bounds skipped: %v", err)
		return
	}
	defer func() { _ = session.Detach() }()

	_, err = session.Send("Browser.setWindowBounds", map[string]interface{}{
		"windowId": id,
		"bounds": map[string]interface{}{
			"left":        bounds.Left,
			"top":         bounds.Top,
			"width":       bounds.Width,
			"height":      bounds.Height,
			"windowState": windowStateNormal,
		},
	})
	if err != nil {
		c.log.Warnf("set window bounds failed: %v", err)
	}
}

// GetWindowBounds reads the window position and size back from the control
// channel. The second return is false when the channel is unavailable;
// reported values are subject to window-manager snapping.
func (c *Client) GetWindowBounds() (WindowBounds, bool) {
	session, id, err := c.cdpWindow()
	if err != nil {
		c.log.Warnf("get window bounds skipped: %v", err)
		return WindowBounds{}, false
	}
	defer func() { _ = session.Detach() }()

	result, err := session.Send("Browser.getWindowBounds", map[string]interface{}{
		"windowId": id,
	})
	if err != nil {
		c.log.Warnf("get window bounds failed: %v", err)
		return WindowBounds{}, false
	}
	payload, ok := result.(map[string]interface{})
	if !ok {
		return WindowBounds{}, false
	}
	raw, ok := payload["bounds"].(map[string]interface{})
	if !ok {
		return WindowBounds{}, false
	}

	num := func(key string) int {
		if v, ok := raw[key].(float64); ok {
			return int(v)
		}
		return 0
	}
	return WindowBounds{
		Left:   num("left"),
		Top:    num("top"),
		Width:  num("width"),
		Height: num("height"),
	}, true
}

// BringToFront raises the browser window and focuses the page. Best-effort.
func (c *Client) BringToFront() {
	if c.page == nil {
		return
	}
	if err := c.page.BringToFront(); err != nil {
		c.log.Warnf("bring to front failed: %v", err)
	}
}
