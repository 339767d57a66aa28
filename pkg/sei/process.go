package sei

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Locators shared by the process workflows. Toolbar actions live in the
// content frame; the quick-search box and the main menu live on the top
// page.
var (
	locQuickSearch = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Pesquisar",
		Fallback: "#txtPesquisaRapida",
	}
	locStartProcessMenu = Locator{
		Role: playwright.AriaRoleLink, Name: "Iniciar Processo",
		Fallback: "a[href*='procedimento_escolher_tipo']",
	}
	locShowAllTypes = Locator{
		Fallback: "#imgExibirTodosTipos, a[href*='exibir_todos']",
		Target:   TargetContent,
	}
	locTypeFilter = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Filtro",
		Fallback: "#txtFiltroTipoProcedimento, #txtFiltro",
		Target:   TargetContent,
	}
	locSpecification = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Especificação",
		Fallback: "#txtDescricao",
		Target:   TargetContent,
	}
	locInterestedParty = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Interessados",
		Fallback: "#txtInteressadoProcedimento",
		Target:   TargetContent,
	}
	locNoteBox = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Observações desta unidade",
		Fallback: "#txtObservacao",
		Target:   TargetContent,
	}
	locLegalBasis = Locator{
		Role: playwright.AriaRoleCombobox, Name: "Hipótese Legal",
		Fallback: "#selHipoteseLegal",
		Target:   TargetContent,
	}
	locSaveButton = Locator{
		Role: playwright.AriaRoleButton, Name: "Salvar",
		Fallback: "#btnSalvar, #sbmSalvar",
		Target:   TargetContent,
	}
	locForwardAction = Locator{
		Role: playwright.AriaRoleLink, Name: "Enviar Processo",
		Fallback: "img[alt='Enviar Processo']",
		Target:   TargetContent,
	}
	locConcludeAction = Locator{
		Role: playwright.AriaRoleLink, Name: "Concluir Processo",
		Fallback: "img[alt='Concluir Processo']",
		Target:   TargetContent,
	}
	locReopenAction = Locator{
		Role: playwright.AriaRoleLink, Name: "Reabrir Processo",
		Fallback: "img[alt='Reabrir Processo']",
		Target:   TargetContent,
	}
	locRelateAction = Locator{
		Role: playwright.AriaRoleLink, Name: "Relacionamentos do Processo",
		Fallback: "img[alt*='Relacionamentos']",
		Target:   TargetContent,
	}
	locAssignAction = Locator{
		Role: playwright.AriaRoleLink, Name: "Atribuir Processo",
		Fallback: "img[alt='Atribuir Processo']",
		Target:   TargetContent,
	}
	locCredentialsAction = Locator{
		Role: playwright.AriaRoleLink, Name: "Gerenciar Credenciais de Acesso",
		Fallback: "img[alt*='Credenciais']",
		Target:   TargetContent,
	}
	locUnitField = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Unidades",
		Fallback: "#txtUnidadeEnvio, #txtUnidade",
		Target:   TargetContent,
	}
	locKeepOpenCheck = Locator{
		Role: playwright.AriaRoleCheckbox, Name: "Manter processo aberto na unidade atual",
		Fallback: "#chkSinManterAberto",
		Target:   TargetContent,
	}
	locNotifyCheck = Locator{
		Role: playwright.AriaRoleCheckbox, Name: "Enviar e-mail de notificação",
		Fallback: "#chkSinEnviarEmailNotificacao",
		Target:   TargetContent,
	}
	locSendButton = Locator{
		Role: playwright.AriaRoleButton, Name: "Enviar",
		Fallback: "#sbmEnviar",
		Target:   TargetContent,
	}
	locSelectedTreeNode = Locator{
		Fallback: "#divArvore .infraArvoreNoSelecionado, #divArvore a[id^='anchor']",
		Target:   TargetTree,
	}
	locAssignSelect = Locator{
		Role: playwright.AriaRoleCombobox, Name: "Atribuir para",
		Fallback: "#selAtribuicao",
		Target:   TargetContent,
	}
	locProtocolField = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Protocolo",
		Fallback: "#txtProtocolo",
		Target:   TargetContent,
	}
	locCredentialField = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Conceder Credencial",
		Fallback: "#txtCredencial",
		Target:   TargetContent,
	}
)

func accessLevelLocator(level AccessLevel) (Locator, bool) {
	switch level {
	case AccessPublic:
		return Locator{Role: playwright.AriaRoleRadio, Name: "Público", Fallback: "#optPublico", Target: TargetContent}, true
	case AccessRestricted:
		return Locator{Role: playwright.AriaRoleRadio, Name: "Restrito", Fallback: "#optRestrito", Target: TargetContent}, true
	case AccessSecret:
		return Locator{Role: playwright.AriaRoleRadio, Name: "Sigiloso", Fallback: "#optSigiloso", Target: TargetContent}, true
	}
	return Locator{}, false
}

// idFromURL extracts an entity id from a portal address. The portal's
// confirmation screens expose no stable structured output, so the address
// query is the only reliable place a freshly created id appears.
func idFromURL(raw, param string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get(param)
}

// OpenProcess locates a process by number through quick search and opens
// it. Returns false when the portal does not present the process tree for
// that number.
func (c *Client) OpenProcess(number string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if number == "" {
		return false, fmt.Errorf("sei: process number is required")
	}

	if err := c.fill(locQuickSearch, number); err != nil {
		return false, fmt.Errorf("open process: %w", err)
	}
	if err := c.page.Keyboard().Press("Enter"); err != nil {
		return false, fmt.Errorf("open process: submitting search: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	// The process is open when the tree shows a node carrying the requested
	// number. A selected node alone is not enough: quick search can land on
	// a previously open process when the number resolves nothing.
	found := c.exists(Locator{
		Role: playwright.AriaRoleLink, Name: number,
		Fallback: fmt.Sprintf("#divArvore a:has-text(%q)", number),
		Target:   TargetTree,
	})
	if !found {
		c.log.Infof("process %s not found", number)
	}
	return found, nil
}

// CreateProcess starts a new process of the given kind. It returns nil
// (with a nil error) when the kind cannot be resolved in the type picker,
// since unavailable types vary per unit and are an expected condition; all
// other failures propagate.
func (c *Client) CreateProcess(opts CreateProcessOptions) (*ProcessRef, error) {
	if !c.initialized {
		return nil, ErrSessionNotInitialized
	}
	if opts.Kind == "" {
		return nil, fmt.Errorf("sei: process kind is required")
	}
	if opts.Specification == "" {
		return nil, fmt.Errorf("sei: process specification is required")
	}

	if err := c.click(locStartProcessMenu); err != nil {
		return nil, fmt.Errorf("create process: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return nil, err
	}

	// The picker hides uncommon types behind a "show all" toggle.
	if c.exists(locShowAllTypes) {
		_ = c.click(locShowAllTypes)
	}
	if out := c.fillOptional("type filter", locTypeFilter, opts.Kind); out.Err != nil {
		c.log.Debugf("type filter failed, picking from full list: %v", out.Err)
	}

	typeLink := Locator{
		Role: playwright.AriaRoleLink, Name: opts.Kind, Exact: true,
		Target: TargetContent,
	}
	if err := c.click(typeLink); err != nil {
		var notFound *ElementNotFoundError
		if errors.As(err, &notFound) {
			c.log.Infof("process type %q not available in this unit", opts.Kind)
			return nil, nil
		}
		return nil, fmt.Errorf("create process: choosing type: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return nil, err
	}

	// Specification is the primary field of this transaction.
	if err := c.fill(locSpecification, opts.Specification); err != nil {
		return nil, fmt.Errorf("create process: %w", err)
	}

	for _, party := range append(append([]string{}, opts.Parties...), opts.InterestedParties...) {
		if err := c.addInterestedParty(party); err != nil {
			return nil, fmt.Errorf("create process: adding party %q: %w", party, err)
		}
	}

	c.reportOutcome(c.fillOptional("note", locNoteBox, opts.Note))
	if loc, ok := accessLevelLocator(opts.AccessLevel); ok {
		c.reportOutcome(c.checkOptional("access level", loc, true))
		c.reportOutcome(c.selectOptional("legal basis", locLegalBasis, opts.LegalBasis))
	}

	if err := c.click(locSaveButton); err != nil {
		return nil, fmt.Errorf("create process: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return nil, err
	}

	if ok, err := c.verifySubmit("create process"); err != nil {
		return nil, err
	} else if !ok {
		// No banner, but creation navigates to the new process screen; the
		// id in the address is the authoritative signal.
		c.log.Debugf("create process: no banner, falling back to address check")
	}

	id := idFromURL(c.page.URL(), "id_procedimento")
	if id == "" {
		return nil, &RemoteOperationFailedError{Op: "create process", Message: "no process id in confirmation address"}
	}

	number, err := c.readText(locSelectedTreeNode)
	if err != nil {
		c.log.Warnf("could not read new process number from tree: %v", err)
		number = ""
	}
	ref := &ProcessRef{ID: id, Number: strings.TrimSpace(number)}
	c.log.Infof("created process %s (id=%s)", ref.Number, ref.ID)
	return ref, nil
}

// addInterestedParty adds one repeated sub-entry through its own
// locate-fill-confirm sequence. The parties field is absent on some process
// types; that is expected and skips the remaining entries.
func (c *Client) addInterestedParty(name string) error {
	if !c.exists(locInterestedParty) {
		c.log.Debugf("interested-parties field absent, skipping %q", name)
		return nil
	}
	if err := c.fill(locInterestedParty, name); err != nil {
		return err
	}
	// Confirmation happens via keyboard; the portal turns the text into a
	// chip row below the field.
	return c.page.Keyboard().Press("Enter")
}

// ForwardProcess routes the open process to one or more destination units.
// Success is judged by the portal's success banner, not by the absence of
// an error.
func (c *Client) ForwardProcess(units []string, opts ForwardOptions) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if len(units) == 0 {
		return false, fmt.Errorf("sei: at least one destination unit is required")
	}

	if err := c.click(locForwardAction); err != nil {
		return false, fmt.Errorf("forward process: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	for _, unit := range units {
		if err := c.addDestinationUnit(locUnitField, unit); err != nil {
			return false, fmt.Errorf("forward process: adding unit %q: %w", unit, err)
		}
	}

	c.reportOutcome(c.checkOptional("keep open", locKeepOpenCheck, opts.KeepOpen))
	c.reportOutcome(c.checkOptional("notify by email", locNotifyCheck, opts.NotifyByEmail))

	if err := c.click(locSendButton); err != nil {
		return false, fmt.Errorf("forward process: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	return c.verifySubmit("forward process")
}

// addDestinationUnit types a unit into an autocomplete field and confirms
// the suggestion. Destination units are primary data: failures propagate.
func (c *Client) addDestinationUnit(field Locator, unit string) error {
	if err := c.fill(field, unit); err != nil {
		return err
	}
	suggestion := Locator{
		Role: playwright.AriaRoleLink, Name: unit,
		Fallback: ".infraAjaxOption, #divInfraAjaxtxtUnidadeEnvio a",
		Target:   TargetContent,
	}
	if err := c.click(suggestion); err != nil {
		// Some tenants confirm via keyboard instead of a suggestion list.
		c.log.Debugf("no suggestion entry for %q, confirming via keyboard: %v", unit, err)
		return c.page.Keyboard().Press("Enter")
	}
	return nil
}

// ConcludeProcess closes the open process in the current unit. The portal
// asks for confirmation through a dialog, which the session auto-accepts.
// Success is judged by the reopen action replacing the conclude action.
func (c *Client) ConcludeProcess() (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if err := c.click(locConcludeAction); err != nil {
		return false, fmt.Errorf("conclude process: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	return c.exists(locReopenAction), nil
}

// ReopenProcess reopens a concluded process in the current unit. Success is
// judged by the conclude action becoming available again.
func (c *Client) ReopenProcess() (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if err := c.click(locReopenAction); err != nil {
		return false, fmt.Errorf("reopen process: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	return c.exists(locConcludeAction), nil
}

// RelateProcesses links the open process to another one by number.
func (c *Client) RelateProcesses(number string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if number == "" {
		return false, fmt.Errorf("sei: related process number is required")
	}

	if err := c.click(locRelateAction); err != nil {
		return false, fmt.Errorf("relate processes: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	if err := c.fill(locProtocolField, number); err != nil {
		return false, fmt.Errorf("relate processes: %w", err)
	}
	search := Locator{
		Role: playwright.AriaRoleButton, Name: "Pesquisar",
		Fallback: "#sbmPesquisar", Target: TargetContent,
	}
	if err := c.click(search); err != nil {
		return false, fmt.Errorf("relate processes: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	add := Locator{
		Role: playwright.AriaRoleButton, Name: "Adicionar",
		Fallback: "#sbmAdicionar", Target: TargetContent,
	}
	if err := c.click(add); err != nil {
		return false, fmt.Errorf("relate processes: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	// The related process shows up as a link in the relationship listing.
	if c.exists(Locator{Role: playwright.AriaRoleLink, Name: number, Target: TargetContent}) {
		return true, nil
	}
	return c.verifySubmit("relate processes")
}

// AssignProcess assigns the open process to a user in the current unit.
func (c *Client) AssignProcess(user string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if user == "" {
		return false, fmt.Errorf("sei: assignee is required")
	}

	if err := c.click(locAssignAction); err != nil {
		return false, fmt.Errorf("assign process: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	if err := c.selectOption(locAssignSelect, user); err != nil {
		return false, fmt.Errorf("assign process: %w", err)
	}
	if err := c.click(locSaveButton); err != nil {
		return false, fmt.Errorf("assign process: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	return c.verifySubmit("assign process")
}

// GrantAccess grants a user credential access to the open restricted
// process.
func (c *Client) GrantAccess(user string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if user == "" {
		return false, fmt.Errorf("sei: user is required")
	}

	if err := c.click(locCredentialsAction); err != nil {
		return false, fmt.Errorf("grant access: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	if err := c.fill(locCredentialField, user); err != nil {
		return false, fmt.Errorf("grant access: %w", err)
	}

	suggestion := Locator{
		Role: playwright.AriaRoleLink, Name: user,
		Fallback: ".infraAjaxOption", Target: TargetContent,
	}
	if err := c.click(suggestion); err != nil {
		c.log.Debugf("no credential suggestion for %q, confirming via keyboard: %v", user, err)
		if kerr := c.page.Keyboard().Press("Enter"); kerr != nil {
			return false, fmt.Errorf("grant access: %w", kerr)
		}
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	// The granted user appears as a row in the credential listing.
	if c.exists(Locator{Role: playwright.AriaRoleRow, Name: user, Target: TargetContent}) {
		return true, nil
	}
	return c.verifySubmit("grant access")
}

// RevokeAccess revokes a previously granted credential. Returns false when
// the user holds no credential on this process.
func (c *Client) RevokeAccess(user string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if user == "" {
		return false, fmt.Errorf("sei: user is required")
	}

	if err := c.click(locCredentialsAction); err != nil {
		return false, fmt.Errorf("revoke access: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	row := Locator{Role: playwright.AriaRoleRow, Name: user, Target: TargetContent}
	if !c.exists(row) {
		return false, nil
	}

	// The revoke control lives inside the user's row; resolve the row
	// first, then drive the action within it.
	err := c.perform(row, "revoke access", func(el playwright.Locator) error {
		return el.Locator("img[alt*='Cassar'], a[title*='Cassar']").First().Click(
			playwright.LocatorClickOptions{Timeout: c.timeoutMs()},
		)
	})
	if err != nil {
		return false, fmt.Errorf("revoke access: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	if !c.exists(row) {
		return true, nil
	}
	return c.verifySubmit("revoke access")
}

// reportOutcome logs what happened to an optional field. Absence is
// expected; a present-but-failed field is worth a warning but does not
// abort the transaction.
func (c *Client) reportOutcome(out FieldOutcome) {
	switch {
	case out.Err != nil:
		c.log.Warnf("optional field %s present but failed: %v", out.Field, out.Err)
	case out.Absent:
		c.log.Debugf("optional field %s absent, skipped", out.Field)
	}
}
