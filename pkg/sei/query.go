package sei

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/playwright-community/playwright-go"
	"golang.org/x/net/html"
)

// Read-model queries. Every query re-reads the portal's rendered markup and
// rebuilds its records from scratch; nothing here is cached because the
// portal can change underneath the session at any time.

var (
	locProcessTree = Locator{
		Fallback: "#divArvore",
		Target:   TargetTree,
	}
	locHistoryAction = Locator{
		Role: playwright.AriaRoleLink, Name: "Consultar Andamento",
		Fallback: "a[href*='procedimento_consultar_historico'], a[href*='andamento']",
		Target:   TargetContent,
	}
	locHistoryTable = Locator{
		Fallback: "table.infraTable, #tblHistorico",
		Target:   TargetContent,
	}
	locSearchResultTable = Locator{
		Fallback: "table.infraTable, #tblResultado",
		Target:   TargetContent,
	}
	locUnitSelect = Locator{
		Fallback: "#selUnidades, #selInfraUnidades",
	}
)

// treeDocumentLabel matches the portal's tree entry format for documents:
// "Kind Number (protocol)". The protocol in parentheses is optional on some
// tenants.
var treeDocumentLabel = regexp.MustCompile(`^(.*?)\s+(\S+)(?:\s+\((\d+)\))?$`)

// parseTreeDocumentLabel splits a tree entry text into kind and number.
func parseTreeDocumentLabel(label string) (kind, number string) {
	m := treeDocumentLabel.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return strings.TrimSpace(label), ""
	}
	if m[3] != "" {
		return strings.TrimSpace(m[1] + " " + m[2]), m[3]
	}
	return strings.TrimSpace(m[1]), strings.Trim(m[2], "()")
}

// ListDocuments returns the documents of the open process, read from the
// tree frame. The tree is the only screen listing every document regardless
// of pagination. A positive limit caps the result; zero means everything.
func (c *Client) ListDocuments(limit int) ([]Document, error) {
	if !c.initialized {
		return nil, ErrSessionNotInitialized
	}

	raw, err := c.readHTML(locProcessTree)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	links, err := rowLinks(raw)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	seen := make(map[string]bool)
	var docs []Document
	for _, link := range links {
		id := idFromURL(link.Href, "id_documento")
		if id == "" || seen[id] || link.Text == "" {
			continue
		}
		seen[id] = true
		kind, number := parseTreeDocumentLabel(link.Text)
		docs = append(docs, Document{ID: id, Kind: kind, Number: number})
		if limit > 0 && len(docs) == limit {
			break
		}
	}
	return docs, nil
}

// ListHistory returns the movement history of the open process, newest
// first, as the portal renders it. A positive limit caps the result.
func (c *Client) ListHistory(limit int) ([]HistoryEntry, error) {
	if !c.initialized {
		return nil, ErrSessionNotInitialized
	}

	if err := c.click(locHistoryAction); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return nil, err
	}

	raw, err := c.readHTML(locHistoryTable)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	rows, err := tableRows(raw)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	var entries []HistoryEntry
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		entries = append(entries, HistoryEntry{
			Date:        row[0],
			Unit:        row[1],
			Description: strings.Join(row[2:], " "),
		})
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

// SearchProcesses runs a quick search and returns the matching processes,
// capped by a positive limit. A query resolving a single process opens it
// directly; that case is reported as a one-element result.
func (c *Client) SearchProcesses(query string, limit int) ([]Process, error) {
	if !c.initialized {
		return nil, ErrSessionNotInitialized
	}
	if query == "" {
		return nil, fmt.Errorf("sei: search query is required")
	}

	if err := c.fill(locQuickSearch, query); err != nil {
		return nil, fmt.Errorf("search processes: %w", err)
	}
	if err := c.page.Keyboard().Press("Enter"); err != nil {
		return nil, fmt.Errorf("search processes: submitting: %w", err)
	}
	if err := c.waitSettled(); err != nil {
		return nil, err
	}

	// Direct hit: the portal skips the result listing and opens the process.
	if id := idFromURL(c.page.URL(), "id_procedimento"); id != "" {
		number, _ := c.readText(locSelectedTreeNode)
		return []Process{{ID: id, Number: strings.TrimSpace(number)}}, nil
	}

	raw, err := c.readHTML(locSearchResultTable)
	if err != nil {
		var notFound *ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("search processes: %w", err)
	}

	rows, err := tableRows(raw)
	if err != nil {
		return nil, fmt.Errorf("search processes: %w", err)
	}
	links, err := rowLinks(raw)
	if err != nil {
		return nil, fmt.Errorf("search processes: %w", err)
	}

	idByNumber := make(map[string]string)
	for _, link := range links {
		if id := idFromURL(link.Href, "id_procedimento"); id != "" && link.Text != "" {
			idByNumber[link.Text] = id
		}
	}

	var processes []Process
	for _, row := range rows {
		proc := parseSearchRow(row, idByNumber)
		if proc.Number == "" {
			continue
		}
		processes = append(processes, proc)
		if limit > 0 && len(processes) == limit {
			break
		}
	}
	return processes, nil
}

// parseSearchRow maps one result row to a Process. Result columns vary per
// tenant; the process number is recognized by its link, the rest is taken
// positionally.
func parseSearchRow(cells []string, idByNumber map[string]string) Process {
	var proc Process
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		if proc.Number == "" {
			if id, ok := idByNumber[cell]; ok {
				proc.Number = cell
				proc.ID = id
				continue
			}
			continue
		}
		if proc.Kind == "" {
			proc.Kind = cell
			continue
		}
		if proc.Specification == "" {
			proc.Specification = cell
		}
	}
	return proc
}

// ListUnits returns the units reachable through the unit switcher, filtered
// by an optional glob pattern matched against acronym and description.
// An empty pattern returns everything.
func (c *Client) ListUnits(pattern string) ([]Unit, error) {
	if !c.initialized {
		return nil, ErrSessionNotInitialized
	}

	var matcher glob.Glob
	if pattern != "" {
		m, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("sei: invalid unit pattern %q: %w", pattern, err)
		}
		matcher = m
	}

	raw, err := c.readHTML(locUnitSelect)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	options, err := selectOptions(raw)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}

	var units []Unit
	for _, opt := range options {
		if opt.Value == "" || opt.Value == "null" {
			continue
		}
		unit := Unit{ID: opt.Value}
		if acronym, description, ok := strings.Cut(opt.Label, " - "); ok {
			unit.Acronym = strings.TrimSpace(acronym)
			unit.Description = strings.TrimSpace(description)
		} else {
			unit.Acronym = strings.TrimSpace(opt.Label)
		}
		if matcher != nil && !matcher.Match(unit.Acronym) && !matcher.Match(unit.Description) {
			continue
		}
		units = append(units, unit)
	}
	return units, nil
}

type selectOptionRef struct {
	Value string
	Label string
}

// selectOptions extracts value/label pairs from select markup.
func selectOptions(raw string) ([]selectOptionRef, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse options HTML: %w", err)
	}
	var options []selectOptionRef
	walkElements(doc, "option", func(opt *html.Node) {
		var value string
		for _, attr := range opt.Attr {
			if attr.Key == "value" {
				value = attr.Val
			}
		}
		var b strings.Builder
		collectText(opt, &b)
		options = append(options, selectOptionRef{Value: value, Label: tidyText(b.String())})
	})
	return options, nil
}
