package sei

import (
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCDPSession scripts the control channel: canned replies per method,
// with every sent command recorded.
type stubCDPSession struct {
	playwright.CDPSession
	replies  map[string]interface{}
	sent     []string
	params   map[string]map[string]interface{}
	detached bool
}

func (s *stubCDPSession) Send(method string, params map[string]interface{}) (interface{}, error) {
	s.sent = append(s.sent, method)
	if s.params == nil {
		s.params = map[string]map[string]interface{}{}
	}
	s.params[method] = params
	if reply, ok := s.replies[method]; ok {
		return reply, nil
	}
	return nil, errors.New("unknown method")
}

func (s *stubCDPSession) Detach() error {
	s.detached = true
	return nil
}

type stubCDPContext struct {
	playwright.BrowserContext
	session playwright.CDPSession
	err     error
}

func (c *stubCDPContext) NewCDPSession(page interface{}) (playwright.CDPSession, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.session, nil
}

func newWindowClient(session *stubCDPSession) *Client {
	return &Client{
		log:         discardLogger(),
		context:     &stubCDPContext{session: session},
		page:        &stubPage{},
		initialized: true,
	}
}

func TestGetWindowBounds(t *testing.T) {
	session := &stubCDPSession{replies: map[string]interface{}{
		"Browser.getWindowForTarget": map[string]interface{}{"windowId": float64(7)},
		"Browser.getWindowBounds": map[string]interface{}{
			"bounds": map[string]interface{}{
				"left":   float64(100),
				"top":    float64(50),
				"width":  float64(1280),
				"height": float64(800),
			},
		},
	}}
	c := newWindowClient(session)

	bounds, ok := c.GetWindowBounds()
	require.True(t, ok)
	assert.Equal(t, WindowBounds{Left: 100, Top: 50, Width: 1280, Height: 800}, bounds)
	assert.True(t, session.detached, "the control session must be released")
}

func TestSetWindowBoundsRestoresNormalState(t *testing.T) {
	session := &stubCDPSession{replies: map[string]interface{}{
		"Browser.getWindowForTarget": map[string]interface{}{"windowId": float64(7)},
		"Browser.setWindowBounds":    map[string]interface{}{},
	}}
	c := newWindowClient(session)

	c.SetWindowBounds(WindowBounds{Left: 10, Top: 20, Width: 640, Height: 480})

	params := session.params["Browser.setWindowBounds"]
	require.NotNil(t, params)
	assert.Equal(t, float64(7), params["windowId"])

	bounds := params["bounds"].(map[string]interface{})
	assert.Equal(t, 640, bounds["width"])
	assert.Equal(t, windowStateNormal, bounds["windowState"], "bounds changes require the normal state")
}

func TestWindowStateHelpers(t *testing.T) {
	session := &stubCDPSession{replies: map[string]interface{}{
		"Browser.getWindowForTarget": map[string]interface{}{"windowId": float64(1)},
		"Browser.setWindowBounds":    map[string]interface{}{},
	}}
	c := newWindowClient(session)

	c.MinimizeWindow()
	bounds := session.params["Browser.setWindowBounds"]["bounds"].(map[string]interface{})
	assert.Equal(t, windowStateMinimized, bounds["windowState"])

	c.MaximizeWindow()
	bounds = session.params["Browser.setWindowBounds"]["bounds"].(map[string]interface{})
	assert.Equal(t, windowStateMaximized, bounds["windowState"])

	c.FullscreenWindow()
	bounds = session.params["Browser.setWindowBounds"]["bounds"].(map[string]interface{})
	assert.Equal(t, windowStateFullscreen, bounds["windowState"])

	c.RestoreWindow()
	bounds = session.params["Browser.setWindowBounds"]["bounds"].(map[string]interface{})
	assert.Equal(t, windowStateNormal, bounds["windowState"])
}

func TestWindowOpsSwallowChannelFailures(t *testing.T) {
	c := &Client{
		log:         discardLogger(),
		context:     &stubCDPContext{err: errors.New("target crashed")},
		page:        &stubPage{},
		initialized: true,
	}

	// None of these may panic or surface an error.
	c.MinimizeWindow()
	c.SetWindowBounds(WindowBounds{Width: 100, Height: 100})

	bounds, ok := c.GetWindowBounds()
	assert.False(t, ok)
	assert.Zero(t, bounds)
}

func TestCDPWindowWithoutSession(t *testing.T) {
	c := &Client{log: discardLogger()}
	_, _, err := c.cdpWindow()
	assert.ErrorIs(t, err, ErrSessionNotInitialized)
}
