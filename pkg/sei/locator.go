package sei

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Locator describes one UI element the client needs to drive. The semantic
// path (Role + Name) is always tried first; the structural Fallback selector
// is only consulted when the semantic path fails. The portal's accessibility
// metadata is inconsistent across tenants, so most descriptors carry both.
type Locator struct {
	// Role is the ARIA role of the element (button, link, textbox, ...),
	// given as one of the engine's role constants. Nil skips the semantic
	// path entirely.
	Role *playwright.AriaRole

	// Name is the accessible-name pattern matched against the element.
	Name string

	// Exact requires a full accessible-name match instead of a substring
	// match. Used where the portal renders near-identical labels.
	Exact bool

	// Fallback is a raw CSS selector tried when the semantic path resolves
	// nothing. Optional.
	Fallback string

	// Target scopes resolution to the top page or one of the portal frames.
	Target Target
}

// In frame-heavy screens the portal frequently re-renders controls a moment
// after load; resolution failures within this bound are retried through the
// fallback path before being reported.
const existsProbeTimeout = 1500 * time.Millisecond

// perform runs one interaction through the resolution algorithm shared by
// every primitive: semantic path first, fallback selector second, typed
// failure last. This is the single place resilience to missing ARIA
// metadata lives.
func (c *Client) perform(loc Locator, op string, fn func(playwright.Locator) error) error {
	if c.page == nil {
		return ErrSessionNotInitialized
	}
	if loc.Role == nil && loc.Fallback == "" {
		return &ElementNotFoundError{Name: loc.Name}
	}

	root := c.root(loc.Target)

	var lastErr error
	if loc.Role != nil {
		opts := playwright.LocatorGetByRoleOptions{}
		if loc.Name != "" {
			opts.Name = loc.Name
			opts.Exact = playwright.Bool(loc.Exact)
		}
		lastErr = fn(root.GetByRole(*loc.Role, opts).First())
		if lastErr == nil {
			return nil
		}
		c.log.Debugf("semantic path failed for %s (role=%s name=%q): %v", op, *loc.Role, loc.Name, lastErr)
	}

	if loc.Fallback != "" {
		lastErr = fn(root.Locator(loc.Fallback).First())
		if lastErr == nil {
			return nil
		}
		c.log.Debugf("fallback %q failed for %s: %v", loc.Fallback, op, lastErr)
	}

	return &ElementNotFoundError{
		Role:     roleString(loc.Role),
		Name:     loc.Name,
		Fallback: loc.Fallback,
		Err:      lastErr,
	}
}

// click clicks the element.
func (c *Client) click(loc Locator) error {
	return c.perform(loc, "click", func(el playwright.Locator) error {
		return el.Click(playwright.LocatorClickOptions{Timeout: c.timeoutMs()})
	})
}

// fill replaces the element's value with text.
func (c *Client) fill(loc Locator, value string) error {
	return c.perform(loc, "fill", func(el playwright.Locator) error {
		return el.Fill(value, playwright.LocatorFillOptions{Timeout: c.timeoutMs()})
	})
}

// selectOption selects an option in a <select> element by visible label,
// falling back to the option value when no label matches.
func (c *Client) selectOption(loc Locator, value string) error {
	return c.perform(loc, "select", func(el playwright.Locator) error {
		_, err := el.SelectOption(playwright.SelectOptionValues{
			Labels: &[]string{value},
		}, playwright.LocatorSelectOptionOptions{Timeout: c.timeoutMs()})
		if err == nil {
			return nil
		}
		_, err = el.SelectOption(playwright.SelectOptionValues{
			Values: &[]string{value},
		}, playwright.LocatorSelectOptionOptions{Timeout: c.timeoutMs()})
		return err
	})
}

// setChecked checks or unchecks a checkbox or radio control.
func (c *Client) setChecked(loc Locator, checked bool) error {
	return c.perform(loc, "check", func(el playwright.Locator) error {
		opts := playwright.LocatorCheckOptions{Timeout: c.timeoutMs()}
		if checked {
			return el.Check(opts)
		}
		return el.Uncheck(playwright.LocatorUncheckOptions{Timeout: c.timeoutMs()})
	})
}

// waitVisible blocks until the element is visible or the bound elapses.
// An exceeded bound is reported as ActionTimeoutError, not ElementNotFound,
// because the caller asked for a wait and may retry it.
func (c *Client) waitVisible(loc Locator, timeout time.Duration) error {
	err := c.perform(loc, "wait", func(el playwright.Locator) error {
		return el.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(float64(timeout.Milliseconds())),
		})
	})
	if err != nil && isTimeout(err) {
		return &ActionTimeoutError{Op: fmt.Sprintf("wait for %s", describeLocator(loc)), Timeout: timeout, Err: err}
	}
	return err
}

// readText returns the element's rendered text.
func (c *Client) readText(loc Locator) (string, error) {
	var text string
	err := c.perform(loc, "readText", func(el playwright.Locator) error {
		t, err := el.InnerText(playwright.LocatorInnerTextOptions{Timeout: c.timeoutMs()})
		if err != nil {
			return err
		}
		text = t
		return nil
	})
	return text, err
}

// readHTML returns the element's inner markup, used by the read-model
// extraction layer.
func (c *Client) readHTML(loc Locator) (string, error) {
	var markup string
	err := c.perform(loc, "readHTML", func(el playwright.Locator) error {
		h, err := el.InnerHTML(playwright.LocatorInnerHTMLOptions{Timeout: c.timeoutMs()})
		if err != nil {
			return err
		}
		markup = h
		return nil
	})
	return markup, err
}

// exists reports whether the element can be resolved right now. A resolution
// failure of any kind, including a timeout, is a valid negative result:
// exists never returns an error.
func (c *Client) exists(loc Locator) bool {
	return c.existsWithin(loc, existsProbeTimeout)
}

// existsWithin is exists with an explicit probe bound, used where a screen
// is known to settle slowly (e.g. the logout control after login).
func (c *Client) existsWithin(loc Locator, timeout time.Duration) bool {
	if c.page == nil {
		return false
	}
	err := c.perform(loc, "exists", func(el playwright.Locator) error {
		return el.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(float64(timeout.Milliseconds())),
		})
	})
	return err == nil
}

// fillOptional fills a field that not every document or process type exposes.
// Absence is an expected outcome, not an error.
func (c *Client) fillOptional(field string, loc Locator, value string) FieldOutcome {
	if value == "" {
		return absent(field)
	}
	if !c.exists(loc) {
		return absent(field)
	}
	if err := c.fill(loc, value); err != nil {
		return failed(field, err)
	}
	return applied(field)
}

// selectOptional selects an option on a field that may not exist for the
// current type.
func (c *Client) selectOptional(field string, loc Locator, value string) FieldOutcome {
	if value == "" {
		return absent(field)
	}
	if !c.exists(loc) {
		return absent(field)
	}
	if err := c.selectOption(loc, value); err != nil {
		return failed(field, err)
	}
	return applied(field)
}

// checkOptional drives a checkbox that may not exist for the current type.
func (c *Client) checkOptional(field string, loc Locator, checked bool) FieldOutcome {
	if !c.exists(loc) {
		return absent(field)
	}
	if err := c.setChecked(loc, checked); err != nil {
		return failed(field, err)
	}
	return applied(field)
}

func describeLocator(loc Locator) string {
	if loc.Role != nil {
		if loc.Name != "" {
			return fmt.Sprintf("%s %q", *loc.Role, loc.Name)
		}
		return roleString(loc.Role)
	}
	return loc.Fallback
}

func roleString(role *playwright.AriaRole) string {
	if role == nil {
		return ""
	}
	return string(*role)
}
