package sei

import "github.com/playwright-community/playwright-go"

// Target names the sub-document an interaction is scoped to. The portal keeps
// its screens split across a handful of long-lived iframes; modeling them as
// an enum lets every primitive accept the top page or a frame without
// branching at the call site.
type Target int

const (
	// TargetPage scopes an interaction to the top-level page.
	TargetPage Target = iota

	// TargetTree scopes to the process tree frame on the left.
	TargetTree

	// TargetContent scopes to the main content viewer frame.
	TargetContent

	// TargetEditor scopes to the rich-text editor frame of an open document.
	TargetEditor
)

// Frame selectors are stable across portal versions even where per-tenant
// markup is not.
const (
	treeFrameSelector    = "iframe#ifrArvore"
	contentFrameSelector = "iframe#ifrVisualizacao"
	editorFrameSelector  = "iframe#ifrEditor"
)

func (t Target) String() string {
	switch t {
	case TargetTree:
		return "tree"
	case TargetContent:
		return "content"
	case TargetEditor:
		return "editor"
	default:
		return "page"
	}
}

// root resolves a target to the locator every primitive chains from. Frames
// resolve lazily: a missing frame only fails when an interaction inside it
// is attempted, which the resolution layer already handles.
func (c *Client) root(t Target) playwright.Locator {
	switch t {
	case TargetTree:
		return c.page.FrameLocator(treeFrameSelector).Locator("html")
	case TargetContent:
		return c.page.FrameLocator(contentFrameSelector).Locator("html")
	case TargetEditor:
		return c.page.FrameLocator(contentFrameSelector).FrameLocator(editorFrameSelector).Locator("html")
	default:
		return c.page.Locator("html")
	}
}
