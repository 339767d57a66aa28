package sei

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Signature blocks are the portal's batch-signing mechanism: documents from
// several processes are collected into a block, the block is released to
// other units, and signers work through it in one sitting.

var (
	locBlockListMenu = Locator{
		Role: playwright.AriaRoleLink, Name: "Blocos de Assinatura",
		Fallback: "a[href*='bloco_assinatura_listar']",
		Target:   TargetPage,
	}
	locBlockNewButton = Locator{
		Role: playwright.AriaRoleButton, Name: "Novo",
		Fallback: "#btnNovo",
		Target:   TargetContent,
	}
	locBlockDescription = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Descrição",
		Fallback: "#txtDescricao",
		Target:   TargetContent,
	}
	locBlockUnitsField = Locator{
		Role: playwright.AriaRoleTextbox, Name: "Unidades para Disponibilização",
		Fallback: "#txtUnidade",
		Target:   TargetContent,
	}
	locBlockTable = Locator{
		Fallback: "table.infraTable, #tblBlocos",
		Target:   TargetContent,
	}
	locBlockDocumentPicker = Locator{
		Role: playwright.AriaRoleLink, Name: "Incluir em Bloco",
		Fallback: "img[alt*='Incluir em Bloco']",
		Target:   TargetContent,
	}
	locBlockSelect = Locator{
		Role: playwright.AriaRoleCombobox, Name: "Bloco",
		Fallback: "#selBloco",
		Target:   TargetContent,
	}
	locBlockIncludeButton = Locator{
		Role: playwright.AriaRoleButton, Name: "Incluir",
		Fallback: "#sbmIncluir, #btnIncluir",
		Target:   TargetContent,
	}
)

// openBlockList navigates to the signature block listing.
func (c *Client) openBlockList() error {
	if err := c.click(locBlockListMenu); err != nil {
		return fmt.Errorf("opening block listing: %w", err)
	}
	return c.waitSettled()
}

// blockRowAction resolves an action control inside the row of one block.
// Rows carry the block id in their edit links, which is the only stable
// handle the listing exposes.
func blockRowAction(id, control string) Locator {
	return Locator{
		Fallback: fmt.Sprintf("tr:has(a[href*='id_bloco=%s']) %s", id, control),
		Target:   TargetContent,
	}
}

// ListSignatureBlocks returns the blocks visible to the current unit.
func (c *Client) ListSignatureBlocks() ([]SignatureBlock, error) {
	if !c.initialized {
		return nil, ErrSessionNotInitialized
	}
	if err := c.openBlockList(); err != nil {
		return nil, err
	}

	raw, err := c.readHTML(locBlockTable)
	if err != nil {
		var notFound *ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	rows, err := tableRows(raw)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	links, err := rowLinks(raw)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	var blocks []SignatureBlock
	for _, row := range rows {
		block := parseBlockRow(row)
		if block.ID == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	// Rows that render the id only as a link text still resolve through
	// their edit link targets.
	if len(blocks) == 0 {
		for _, link := range links {
			if id := idFromURL(link.Href, "id_bloco"); id != "" {
				blocks = append(blocks, SignatureBlock{ID: id, Description: link.Text})
			}
		}
	}
	return blocks, nil
}

// parseBlockRow maps one listing row to a SignatureBlock. The listing
// renders id, description, document count and unit in fixed column order;
// short rows (checkbox-only columns collapsed) are skipped.
func parseBlockRow(cells []string) SignatureBlock {
	// Leading checkbox column renders as an empty cell.
	for len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	if len(cells) < 2 {
		return SignatureBlock{}
	}
	if _, err := strconv.Atoi(cells[0]); err != nil {
		return SignatureBlock{}
	}
	block := SignatureBlock{ID: cells[0]}
	rest := cells[1:]
	// Column order: [state] description [documents] [unit], depending on
	// tenant. Take the first free-text cell as description, the first
	// numeric one after it as the count.
	for i, cell := range rest {
		if block.Description == "" {
			block.Description = cell
			continue
		}
		if n, err := strconv.Atoi(cell); err == nil && block.DocumentCount == 0 {
			block.DocumentCount = n
			continue
		}
		if i == len(rest)-1 {
			block.Unit = cell
		}
	}
	return block
}

// CreateSignatureBlock creates a block with the given description, available
// to the listed unit acronyms, and returns its id.
func (c *Client) CreateSignatureBlock(description string, units []string) (string, error) {
	if !c.initialized {
		return "", ErrSessionNotInitialized
	}
	if description == "" {
		return "", fmt.Errorf("sei: block description is required")
	}

	if err := c.openBlockList(); err != nil {
		return "", err
	}
	if err := c.click(locBlockNewButton); err != nil {
		return "", fmt.Errorf("create block: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return "", err
	}

	if err := c.fill(locBlockDescription, description); err != nil {
		return "", fmt.Errorf("create block: %w", err)
	}
	for _, unit := range units {
		if unit == "" {
			continue
		}
		if err := c.addDestinationUnit(locBlockUnitsField, unit); err != nil {
			return "", fmt.Errorf("create block: unit %q: %w", unit, err)
		}
	}

	if err := c.click(locSaveButton); err != nil {
		return "", fmt.Errorf("create block: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return "", err
	}

	if id := idFromURL(c.page.URL(), "id_bloco"); id != "" {
		c.log.Infof("created signature block id=%s", id)
		return id, nil
	}
	// Some tenants bounce straight back to the listing. Find the block by
	// its description there.
	blocks, err := c.ListSignatureBlocks()
	if err != nil {
		return "", err
	}
	for _, block := range blocks {
		if block.Description == description {
			return block.ID, nil
		}
	}
	return "", &RemoteOperationFailedError{Op: "create block", Message: "block not present in listing after save"}
}

// AddDocumentToBlock places the currently open document into a block. The
// picker offers only open, unreleased blocks of the current unit; asking
// for any other block reports a remote failure.
func (c *Client) AddDocumentToBlock(blockID string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if blockID == "" {
		return false, fmt.Errorf("sei: block id is required")
	}

	if err := c.click(locBlockDocumentPicker); err != nil {
		return false, fmt.Errorf("add to block: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	if err := c.selectOption(locBlockSelect, blockID); err != nil {
		var notFound *ElementNotFoundError
		if errors.As(err, &notFound) {
			return false, &RemoteOperationFailedError{Op: "add to block", Message: fmt.Sprintf("block %s not offered by the picker", blockID)}
		}
		return false, fmt.Errorf("add to block: %w", err)
	}
	if err := c.click(locBlockIncludeButton); err != nil {
		return false, fmt.Errorf("add to block: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	return c.verifySubmit("add to block")
}

// PublishSignatureBlock releases a block to its configured units, making it
// visible to their signers.
func (c *Client) PublishSignatureBlock(blockID string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if blockID == "" {
		return false, fmt.Errorf("sei: block id is required")
	}

	if err := c.openBlockList(); err != nil {
		return false, err
	}

	action := blockRowAction(blockID, "img[alt*='Disponibilizar'], a[title*='Disponibilizar']")
	if !c.exists(action) {
		return false, &RemoteOperationFailedError{Op: "publish block", Message: fmt.Sprintf("block %s has no release action (missing or already released)", blockID)}
	}
	if err := c.click(action); err != nil {
		return false, fmt.Errorf("publish block: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}
	return c.verifySubmit("publish block")
}

// SignBlock signs every document in a block with the user's password. The
// portal raises its signing dialog over the listing; the dialog is the same
// one used for single documents.
func (c *Client) SignBlock(blockID, password, role string) (bool, error) {
	if !c.initialized {
		return false, ErrSessionNotInitialized
	}
	if blockID == "" {
		return false, fmt.Errorf("sei: block id is required")
	}
	if password == "" {
		return false, fmt.Errorf("sei: signing password is required")
	}

	if err := c.openBlockList(); err != nil {
		return false, err
	}

	action := blockRowAction(blockID, "img[alt*='Assinar'], a[title*='Assinar Documentos do Bloco']")
	if !c.exists(action) {
		return false, &RemoteOperationFailedError{Op: "sign block", Message: fmt.Sprintf("block %s has no signing action", blockID)}
	}
	if err := c.click(action); err != nil {
		return false, fmt.Errorf("sign block: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	c.reportOutcome(c.selectOptional("role", locSignRole, role))
	if err := c.fill(locSignPassword, password); err != nil {
		return false, fmt.Errorf("sign block: %w", err)
	}
	if err := c.click(locSignConfirm); err != nil {
		return false, fmt.Errorf("sign block: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return false, err
	}

	for _, target := range []Target{TargetContent, TargetPage} {
		loc := Locator{Fallback: errorBannerSelector, Target: target}
		if c.exists(loc) {
			message, _ := c.readText(loc)
			return false, &RemoteOperationFailedError{Op: "sign block", Message: strings.TrimSpace(message)}
		}
	}
	return !c.exists(locSignPassword), nil
}
