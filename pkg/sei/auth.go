package sei

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// loginConfirmTimeout bounds the wait for the logout control after a login
// submit. Slower than a primitive probe: the portal redirects through an
// SSO hop on some tenants.
const loginConfirmTimeout = 10 * time.Second

// Locators for the authentication screen. The logout control doubles as the
// logged-in indicator.
var (
	locUserField = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Usuário",
		Fallback: "#txtUsuario",
	}
	locPasswordField = Locator{
		// The password input carries no reliable accessible name on older
		// portal builds; the structural path is the dependable one.
		Fallback: "#pwdSenha",
	}
	locOrgSelect = Locator{
		Role: playwright.AriaRoleCombobox, Name: "Órgão",
		Fallback: "#selOrgao",
	}
	locLoginButton = Locator{
		Role: playwright.AriaRoleButton, Name: "Acessar",
		Fallback: "#sbmAcessar",
	}
	locLogoutControl = Locator{
		Role: playwright.AriaRoleLink, Name: "Sair",
		Fallback: "#lnkInfraSairSistema",
	}
)

// Login authenticates against the portal. Empty arguments fall back to the
// configured credentials; org is optional for single-org portals. Login is
// idempotent: when the session is already authenticated it returns true
// without touching the form. A false return means the portal did not accept
// the credentials within the confirmation bound.
func (c *Client) Login(user, pass, org string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}

	if user == "" {
		user = c.cfg.Username
	}
	if pass == "" {
		pass = c.cfg.Password
	}
	if org == "" {
		org = c.cfg.Org
	}

	// Already authenticated: short-circuit.
	if c.exists(locLogoutControl) {
		c.log.Debugf("login short-circuit: logout control already present")
		return true, nil
	}

	if err := c.navigate(c.cfg.BaseURL); err != nil {
		return false, fmt.Errorf("failed to reach login screen: %w", err)
	}

	// A stale session may still be live after navigation.
	if c.exists(locLogoutControl) {
		return true, nil
	}

	// Username and password are the primary fields of this transaction;
	// their absence means the login layout changed and must propagate.
	if err := c.fill(locUserField, user); err != nil {
		return false, fmt.Errorf("login failed: %w", err)
	}
	if err := c.fill(locPasswordField, pass); err != nil {
		return false, fmt.Errorf("login failed: %w", err)
	}

	// The org selector is absent on single-org portals.
	if out := c.selectOptional("org", locOrgSelect, org); out.Err != nil {
		return false, fmt.Errorf("login failed selecting org: %w", out.Err)
	}

	if err := c.click(locLoginButton); err != nil {
		return false, fmt.Errorf("login failed: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	if !c.existsWithin(locLogoutControl, loginConfirmTimeout) {
		c.log.Warnf("login not confirmed: logout control absent after %s", loginConfirmTimeout)
		return false, nil
	}
	c.log.Infof("logged in as %s", user)
	return true, nil
}

// IsLoggedIn reports whether the session is currently authenticated, judged
// by the presence of the logout control.
func (c *Client) IsLoggedIn() (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	return c.exists(locLogoutControl), nil
}

// Logout ends the portal session. A no-op when already logged out.
func (c *Client) Logout() error {
	if !c.initialized {
		return ErrSessionNotInitialized
	}
	if !c.exists(locLogoutControl) {
		return nil
	}
	if err := c.click(locLogoutControl); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return c.waitSettled()
}
