package sei

import (
	"errors"

	"github.com/playwright-community/playwright-go"

	"github.com/tramita/tramita/pkg/logging"
)

func discardLogger() *logging.Logger { return logging.Discard("test") }

// The engine's Locator and FrameLocator interfaces each carry a method named
// after themselves, so embedding them directly would make the field shadow
// the method. Aliases give the embedded fields a different name while keeping
// the full method set promoted.
type (
	locatorIface = playwright.Locator
	frameIface   = playwright.FrameLocator
)

// stubNode is a terminal locator handed to interaction callbacks. Only the
// methods the resolution layer touches are overridden; everything else
// panics through the embedded nil interface, which is what we want in a
// test that strays off the scripted path.
type stubNode struct {
	locatorIface
	name    string
	waitErr error
	actErr  error

	clicks int
	fills  []string
}

func (n *stubNode) First() playwright.Locator { return n }

func (n *stubNode) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	return n.waitErr
}

func (n *stubNode) Click(options ...playwright.LocatorClickOptions) error {
	n.clicks++
	return n.actErr
}

func (n *stubNode) Fill(value string, options ...playwright.LocatorFillOptions) error {
	n.fills = append(n.fills, value)
	return n.actErr
}

// missingNode resolves but fails every wait and interaction, the way the
// engine reports an element that never appeared.
func missingNode() *stubNode {
	err := errors.New("timeout 1500ms exceeded while waiting for element")
	return &stubNode{name: "missing", waitErr: err, actErr: err}
}

// stubRoot stands in for the html root locator of a target. The semantic
// path resolves to one node, the structural path to another, so tests can
// tell which path an interaction went through.
type stubRoot struct {
	locatorIface
	semantic *stubNode
	fallback *stubNode
}

func (r *stubRoot) GetByRole(role playwright.AriaRole, options ...playwright.LocatorGetByRoleOptions) playwright.Locator {
	return r.semantic
}

func (r *stubRoot) Locator(selectorOrLocator interface{}, options ...playwright.LocatorLocatorOptions) playwright.Locator {
	return r.fallback
}

// stubPage satisfies the one page method the resolution layer needs.
type stubPage struct {
	playwright.Page
	root playwright.Locator
}

func (p *stubPage) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return p.root
}

// newStubClient wires a client around a stubbed page-target root.
func newStubClient(root *stubRoot) *Client {
	return &Client{
		page:        &stubPage{root: root},
		log:         discardLogger(),
		initialized: true,
	}
}

// scriptedRoot resolves elements by accessible name or raw selector so
// multi-step workflows can be driven without a browser. Anything not
// scripted resolves to a node that fails every wait and interaction,
// mimicking an element the portal never rendered.
type scriptedRoot struct {
	locatorIface
	byName     map[string]*stubNode
	bySelector map[string]*stubNode
}

func newScriptedRoot() *scriptedRoot {
	return &scriptedRoot{
		byName:     make(map[string]*stubNode),
		bySelector: make(map[string]*stubNode),
	}
}

func (r *scriptedRoot) GetByRole(role playwright.AriaRole, options ...playwright.LocatorGetByRoleOptions) playwright.Locator {
	if len(options) > 0 {
		if name, ok := options[0].Name.(string); ok {
			if node, found := r.byName[name]; found {
				return node
			}
		}
	}
	return missingNode()
}

func (r *scriptedRoot) Locator(selectorOrLocator interface{}, options ...playwright.LocatorLocatorOptions) playwright.Locator {
	if sel, ok := selectorOrLocator.(string); ok {
		if node, found := r.bySelector[sel]; found {
			return node
		}
	}
	return missingNode()
}

// scriptedFrame routes frame-scoped resolution back to the shared root; the
// scripted harness does not distinguish frames, selectors do.
type scriptedFrame struct {
	frameIface
	root *scriptedRoot
}

func (f *scriptedFrame) Locator(selectorOrLocator interface{}, options ...playwright.FrameLocatorLocatorOptions) playwright.Locator {
	return f.root
}

func (f *scriptedFrame) FrameLocator(selector string) playwright.FrameLocator {
	return f
}

type stubKeyboard struct {
	playwright.Keyboard
	pressed []string
}

func (k *stubKeyboard) Press(key string, options ...playwright.KeyboardPressOptions) error {
	k.pressed = append(k.pressed, key)
	return nil
}

// scriptedPage backs a client with a scriptedRoot across the top page and
// every frame, with load-state waits satisfied immediately.
type scriptedPage struct {
	playwright.Page
	root     *scriptedRoot
	keyboard *stubKeyboard
}

func newScriptedPage(root *scriptedRoot) *scriptedPage {
	return &scriptedPage{root: root, keyboard: &stubKeyboard{}}
}

func (p *scriptedPage) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	if selector == "html" {
		return p.root
	}
	return p.root.Locator(selector)
}

func (p *scriptedPage) FrameLocator(selector string) playwright.FrameLocator {
	return &scriptedFrame{root: p.root}
}

func (p *scriptedPage) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	return nil
}

func (p *scriptedPage) Keyboard() playwright.Keyboard { return p.keyboard }

func newScriptedClient(root *scriptedRoot) *Client {
	return &Client{
		page:        newScriptedPage(root),
		log:         discardLogger(),
		initialized: true,
	}
}
