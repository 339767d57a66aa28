package sei

import (
	"fmt"
	"os"

	"github.com/playwright-community/playwright-go"

	"github.com/tramita/tramita/pkg/config"
	"github.com/tramita/tramita/pkg/logging"
)

// Client drives one authenticated portal session through a single page in a
// single browsing context. Calls are strictly sequential; concurrent use of
// one Client is not safe because the portal's server-side session state is
// screen-sequential.
type Client struct {
	cfg config.Session
	log *logging.Logger

	pw      *playwright.Playwright
	browser playwright.Browser // nil when only a context is owned (persistent mode)
	context playwright.BrowserContext
	page    playwright.Page

	// ownsBrowser distinguishes a launched browser (terminated on Close)
	// from an attached one (never terminated by this client).
	ownsBrowser bool

	// reconnectURL is recorded when a control port was opened on a fresh
	// launch, so a future process can re-attach to the same live session.
	reconnectURL string

	initialized bool
}

// sessionMode is the initialization mode selected from driver configuration.
type sessionMode int

const (
	modeAttach sessionMode = iota
	modePersistent
	modeEphemeral
)

func (m sessionMode) String() string {
	switch m {
	case modeAttach:
		return "attach"
	case modePersistent:
		return "persistent"
	default:
		return "ephemeral"
	}
}

// resolveMode applies the configuration precedence: an attach endpoint wins,
// then a durable profile, then an ephemeral launch.
func resolveMode(d config.Driver) sessionMode {
	if d.CDPEndpoint != "" {
		return modeAttach
	}
	if d.UserDataDir != "" || d.Persistent {
		return modePersistent
	}
	return modeEphemeral
}

// New creates a client for the given session configuration. The logger may
// be nil, in which case logging is discarded.
func New(cfg config.Session, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Discard("sei")
	}
	return &Client{cfg: cfg, log: log}
}

// Init establishes the browser session. It must be called exactly once
// before any other operation; calling it again without an intervening Close
// is an error.
func (c *Client) Init() error {
	if c.initialized {
		return fmt.Errorf("sei: session already initialized")
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  c.log.Writer(),
		Stderr:  c.log.Writer(),
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright browsers: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	c.pw = pw

	mode := resolveMode(c.cfg.Driver)
	c.log.Infof("initializing session in %s mode", mode)

	switch mode {
	case modeAttach:
		err = c.initAttach()
	case modePersistent:
		err = c.initPersistent()
	default:
		err = c.initEphemeral()
	}
	if err != nil {
		_ = pw.Stop()
		c.pw = nil
		return err
	}

	// The default wait bound applies to every primitive from here on.
	c.page.SetDefaultTimeout(float64(c.cfg.Driver.Timeout.Std().Milliseconds()))

	// The portal confirms destructive actions through native dialogs, which
	// would otherwise block the page forever in headless runs.
	c.page.OnDialog(func(d playwright.Dialog) {
		c.log.Debugf("accepting portal dialog: %s", d.Message())
		_ = d.Accept()
	})
	c.initialized = true
	return nil
}

// initAttach connects to an already-running browser over its control
// address, reusing an existing context and page when present.
func (c *Client) initAttach() error {
	browser, err := c.pw.Chromium.ConnectOverCDP(c.cfg.Driver.CDPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to attach to browser at %s: %w", c.cfg.Driver.CDPEndpoint, err)
	}
	c.browser = browser
	c.ownsBrowser = false
	c.reconnectURL = c.cfg.Driver.CDPEndpoint

	if contexts := browser.Contexts(); len(contexts) > 0 {
		c.context = contexts[0]
	} else {
		ctx, err := browser.NewContext()
		if err != nil {
			return fmt.Errorf("failed to create context on attached browser: %w", err)
		}
		c.context = ctx
	}

	if pages := c.context.Pages(); len(pages) > 0 {
		c.page = pages[0]
	} else {
		page, err := c.context.NewPage()
		if err != nil {
			return fmt.Errorf("failed to create page on attached browser: %w", err)
		}
		c.page = page
	}
	return nil
}

// initPersistent launches a browser bound to an on-disk profile so cookies
// and portal session state survive process restarts.
func (c *Client) initPersistent() error {
	dir, err := c.cfg.ProfileDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create profile directory %s: %w", dir, err)
	}

	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(c.cfg.Driver.Headless),
		Args:     c.launchArgs(),
	}
	if c.cfg.Driver.Channel != "" {
		opts.Channel = playwright.String(c.cfg.Driver.Channel)
	}

	ctx, err := c.pw.Chromium.LaunchPersistentContext(dir, opts)
	if err != nil {
		return fmt.Errorf("failed to launch persistent context in %s: %w", dir, err)
	}
	// No browser handle is owned in this mode; the context is the root.
	c.context = ctx
	c.ownsBrowser = false
	c.recordReconnectURL()

	if pages := ctx.Pages(); len(pages) > 0 {
		c.page = pages[0]
	} else {
		page, err := ctx.NewPage()
		if err != nil {
			return fmt.Errorf("failed to create page in persistent context: %w", err)
		}
		c.page = page
	}
	return nil
}

// initEphemeral launches a fresh, isolated browser with no persistence.
func (c *Client) initEphemeral() error {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(c.cfg.Driver.Headless),
		Args:     c.launchArgs(),
	}
	if c.cfg.Driver.Channel != "" {
		opts.Channel = playwright.String(c.cfg.Driver.Channel)
	}

	browser, err := c.pw.Chromium.Launch(opts)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	c.browser = browser
	c.ownsBrowser = true
	c.recordReconnectURL()

	ctx, err := browser.NewContext()
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("failed to create browser context: %w", err)
	}
	c.context = ctx

	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		_ = browser.Close()
		return fmt.Errorf("failed to create page: %w", err)
	}
	c.page = page
	return nil
}

// launchArgs returns extra browser arguments; a control port is exposed when
// configured so the session can be re-attached to later.
func (c *Client) launchArgs() []string {
	if c.cfg.Driver.CDPPort > 0 {
		return []string{fmt.Sprintf("--remote-debugging-port=%d", c.cfg.Driver.CDPPort)}
	}
	return nil
}

func (c *Client) recordReconnectURL() {
	if c.cfg.Driver.CDPPort > 0 {
		c.reconnectURL = fmt.Sprintf("http://127.0.0.1:%d", c.cfg.Driver.CDPPort)
	}
}

// ReconnectURL returns the control address a future process can attach to,
// or empty when no control port was opened.
func (c *Client) ReconnectURL() string { return c.reconnectURL }

// Close tears the session down. With KeepAlive set, local handles are
// dropped without terminating the remote browser, which stays available for
// a future attach. Otherwise the owned browser is terminated, or the context
// when no browser was owned. Attached browsers are never terminated.
func (c *Client) Close() error {
	if !c.initialized {
		return nil
	}
	c.initialized = false

	defer func() {
		c.page = nil
		c.context = nil
		c.browser = nil
	}()

	if c.cfg.Driver.KeepAlive {
		c.log.Infof("keepAlive set, detaching without terminating the browser")
		// The driver process stays up with the browser; nothing to stop.
		c.pw = nil
		return nil
	}

	var err error
	switch {
	case c.browser != nil && c.ownsBrowser:
		err = c.browser.Close()
	case c.browser != nil:
		// Attached browser: close only our page, never the user's browser.
		if c.page != nil {
			_ = c.page.Close()
		}
	case c.context != nil:
		err = c.context.Close()
	}
	if err != nil {
		err = fmt.Errorf("failed to close browser session: %w", err)
	}

	if c.pw != nil {
		if stopErr := c.pw.Stop(); stopErr != nil && err == nil {
			err = fmt.Errorf("failed to stop playwright: %w", stopErr)
		}
		c.pw = nil
	}
	return err
}

// timeoutMs is the default per-primitive wait bound in the engine's unit.
func (c *Client) timeoutMs() *float64 {
	t := c.cfg.Driver.Timeout.Std()
	if t <= 0 {
		t = config.DefaultTimeout
	}
	return playwright.Float(float64(t.Milliseconds()))
}
