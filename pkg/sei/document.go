package sei

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/playwright-community/playwright-go"
)

// externalDocumentType is the picker entry for registering an uploaded file
// instead of issuing an internal document.
const externalDocumentType = "Externo"

var (
	locIncludeDocumentAction = Locator{
		Role: playwright.AriaRoleLink, Name: "Incluir Documento",
		Fallback: "img[alt='Incluir Documento']",
		Target:   TargetContent,
	}
	locSignAction = Locator{
		Role: playwright.AriaRoleLink, Name: "Assinar Documento",
		Fallback: "img[alt='Assinar Documento']",
		Target:   TargetContent,
	}
	locDocumentDescription = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Descrição",
		Fallback: "#txtDescricao",
		Target:   TargetContent,
	}
	locDocumentNumber = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Número",
		Fallback: "#txtNumero",
		Target:   TargetContent,
	}
	locDocumentDate = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Data do Documento",
		Fallback: "#txtDataElaboracao",
		Target:   TargetContent,
	}
	locExternalKindSelect = Locator{
		Role: playwright.AriaRoleCombobox, Name: "Tipo do Documento",
		Fallback: "#selSerie",
		Target:   TargetContent,
	}
	locFileInput = Locator{
		Fallback: "#filArquivo, input[type='file']",
		Target:   TargetContent,
	}
	locSignPassword = Locator{
		Fallback: "#pwdSenha, input[type='password']",
		Target:   TargetContent,
	}
	locSignRole = Locator{
		Role: playwright.AriaRoleCombobox, Name: "Cargo / Função",
		Fallback: "#selCargoFuncao",
		Target:   TargetContent,
	}
	locSignConfirm = Locator{
		Role: playwright.AriaRoleButton, Name: "Assinar",
		Fallback: "#sbmAssinar, #btnAssinar",
		Target:   TargetContent,
	}
	locCancelDocumentAction = Locator{
		Role: playwright.AriaRoleLink, Name: "Cancelar Documento",
		Fallback: "img[alt='Cancelar Documento']",
		Target:   TargetContent,
	}
	locCancelReason = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Motivo",
		Fallback: "#txaMotivo, #txtMotivo",
		Target:   TargetContent,
	}
)

var errTypeUnavailable = errors.New("document type unavailable")

// chooseDocumentType drives the document type picker. Returns
// errTypeUnavailable when the requested kind is not offered to this unit.
func (c *Client) chooseDocumentType(kind string) error {
	if c.exists(locShowAllTypes) {
		_ = c.click(locShowAllTypes)
	}
	if out := c.fillOptional("type filter", locTypeFilter, kind); out.Err != nil {
		c.log.Debugf("document type filter failed, picking from full list: %v", out.Err)
	}

	typeLink := Locator{
		Role: playwright.AriaRoleLink, Name: kind, Exact: true,
		Target: TargetContent,
	}
	if err := c.click(typeLink); err != nil {
		var notFound *ElementNotFoundError
		if errors.As(err, &notFound) {
			return errTypeUnavailable
		}
		return err
	}
	return c.waitSettled()
}

// fillDocumentMetadata applies the optional metadata fields shared by the
// create and upload forms. Field availability varies per document type.
func (c *Client) fillDocumentMetadata(description, number, note string, level AccessLevel, legalBasis string) {
	c.reportOutcome(c.fillOptional("description", locDocumentDescription, description))
	c.reportOutcome(c.fillOptional("number", locDocumentNumber, number))
	c.reportOutcome(c.fillOptional("note", locNoteBox, note))
	if loc, ok := accessLevelLocator(level); ok {
		c.reportOutcome(c.checkOptional("access level", loc, true))
		c.reportOutcome(c.selectOptional("legal basis", locLegalBasis, legalBasis))
	}
}

// CreateDocument issues an internal document of the given kind on the open
// process and returns its id. An empty id with a nil error means the kind
// could not be resolved in the type picker.
func (c *Client) CreateDocument(opts CreateDocumentOptions) (string, error) {
	if !c.initialized {
		return "", ErrSessionNotInitialized
	}
	if opts.Kind == "" {
		return "", fmt.Errorf("sei: document kind is required")
	}

	if err := c.click(locIncludeDocumentAction); err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return "", err
	}

	if err := c.chooseDocumentType(opts.Kind); err != nil {
		if errors.Is(err, errTypeUnavailable) {
			c.log.Infof("document type %q not available in this unit", opts.Kind)
			return "", nil
		}
		return "", fmt.Errorf("create document: choosing type: %w", err)
	}

	c.fillDocumentMetadata(opts.Description, opts.Number, opts.Note, opts.AccessLevel, opts.LegalBasis)

	if err := c.click(locSaveButton); err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return "", err
	}

	if _, err := c.verifySubmit("create document"); err != nil {
		return "", err
	}
	id := idFromURL(c.page.URL(), "id_documento")
	if id == "" {
		return "", &RemoteOperationFailedError{Op: "create document", Message: "no document id in confirmation address"}
	}
	c.log.Infof("created document id=%s kind=%q", id, opts.Kind)
	return id, nil
}

// UploadDocument registers an external file on the open process and returns
// the new document id. The payload arrives base64-encoded because callers
// are typically remote; PDF payloads are validated before the portal is
// driven, since the portal reports upload failures only after the whole
// form round-trip.
func (c *Client) UploadDocument(filename, base64Content string, opts UploadDocumentOptions) (string, error) {
	if !c.initialized {
		return "", ErrSessionNotInitialized
	}
	if filename == "" {
		return "", fmt.Errorf("sei: filename is required")
	}
	if opts.Kind == "" {
		return "", fmt.Errorf("sei: external document kind is required")
	}

	payload, err := base64.StdEncoding.DecodeString(base64Content)
	if err != nil {
		return "", fmt.Errorf("sei: invalid base64 payload: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("sei: empty payload")
	}

	mimeType := opts.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	if mimeType == "application/pdf" {
		if err := api.Validate(bytes.NewReader(payload), nil); err != nil {
			return "", fmt.Errorf("sei: payload is not a valid PDF: %w", err)
		}
	}

	if err := c.click(locIncludeDocumentAction); err != nil {
		return "", fmt.Errorf("upload document: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return "", err
	}

	if err := c.chooseDocumentType(externalDocumentType); err != nil {
		if errors.Is(err, errTypeUnavailable) {
			return "", &RemoteOperationFailedError{Op: "upload document", Message: "external document type not offered"}
		}
		return "", fmt.Errorf("upload document: choosing type: %w", err)
	}

	// The external kind select is the primary field of this form.
	if err := c.selectOption(locExternalKindSelect, opts.Kind); err != nil {
		return "", fmt.Errorf("upload document: %w", err)
	}
	c.reportOutcome(c.fillOptional("date", locDocumentDate, opts.Date))
	c.fillDocumentMetadata(opts.Description, "", opts.Note, opts.AccessLevel, opts.LegalBasis)

	err = c.perform(locFileInput, "attach file", func(el playwright.Locator) error {
		return el.SetInputFiles([]playwright.InputFile{{
			Name:     filename,
			MimeType: mimeType,
			Buffer:   payload,
		}}, playwright.LocatorSetInputFilesOptions{Timeout: c.timeoutMs()})
	})
	if err != nil {
		return "", fmt.Errorf("upload document: %w", err)
	}

	if err := c.click(locSaveButton); err != nil {
		return "", fmt.Errorf("upload document: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return "", err
	}

	if _, err := c.verifySubmit("upload document"); err != nil {
		return "", err
	}
	id := idFromURL(c.page.URL(), "id_documento")
	if id == "" {
		return "", &RemoteOperationFailedError{Op: "upload document", Message: "no document id in confirmation address"}
	}
	c.log.Infof("uploaded document %s id=%s", filename, id)
	return id, nil
}

// SignDocument signs the open document with the user's password. The role
// selector is absent for users with a single role; that is expected. A
// portal-rejected password surfaces as RemoteOperationFailedError with the
// portal's message.
func (c *Client) SignDocument(password, role string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if password == "" {
		return false, fmt.Errorf("sei: signing password is required")
	}

	if err := c.click(locSignAction); err != nil {
		return false, fmt.Errorf("sign document: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	c.reportOutcome(c.selectOptional("role", locSignRole, role))
	if err := c.fill(locSignPassword, password); err != nil {
		return false, fmt.Errorf("sign document: %w", err)
	}
	if err := c.click(locSignConfirm); err != nil {
		return false, fmt.Errorf("sign document: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	// A rejected password keeps the dialog open with an error banner.
	for _, target := range []Target{TargetContent, TargetPage} {
		loc := Locator{Fallback: errorBannerSelector, Target: target}
		if c.exists(loc) {
			message, _ := c.readText(loc)
			return false, &RemoteOperationFailedError{Op: "sign document", Message: strings.TrimSpace(message)}
		}
	}
	// Success closes the dialog; the password field disappearing is the
	// positive indicator (signing renders no banner on most tenants).
	return !c.exists(locSignPassword), nil
}

// CancelDocument cancels a generated document, which the portal requires a
// reason for.
func (c *Client) CancelDocument(reason string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if reason == "" {
		return false, fmt.Errorf("sei: cancellation reason is required")
	}

	if err := c.click(locCancelDocumentAction); err != nil {
		return false, fmt.Errorf("cancel document: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	if err := c.fill(locCancelReason, reason); err != nil {
		return false, fmt.Errorf("cancel document: %w", err)
	}
	if err := c.click(locSaveButton); err != nil {
		return false, fmt.Errorf("cancel document: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	return c.verifySubmit("cancel document")
}

// OpenDocument selects a document in the process tree by id. Returns false
// when no tree entry references the id.
func (c *Client) OpenDocument(id string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if id == "" {
		return false, fmt.Errorf("sei: document id is required")
	}

	link := Locator{
		Role: playwright.AriaRoleLink, Name: id,
		Fallback: fmt.Sprintf("a[href*='id_documento=%s']", id),
		Target:   TargetTree,
	}
	if !c.exists(link) {
		return false, nil
	}
	if err := c.click(link); err != nil {
		return false, fmt.Errorf("open document: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	return true, nil
}

// DocumentContent opens a document and returns its rendered body as
// readable text, stripped of viewer chrome.
func (c *Client) DocumentContent(id string) (string, error) {
	if !c.initialized {
		return "", ErrSessionNotInitialized
	}

	if id != "" {
		ok, err := c.OpenDocument(id)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("sei: document %s not found in process tree", id)
		}
	}

	raw, err := c.readHTML(Locator{Fallback: "body", Target: TargetContent})
	if err != nil {
		return "", fmt.Errorf("document content: %w", err)
	}
	text, err := htmlToText(raw)
	if err != nil {
		return "", fmt.Errorf("document content: %w", err)
	}
	return text, nil
}
