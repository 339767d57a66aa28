package sei

// Process is a read model of one process row as the portal renders it.
// Records are reconstructed from table markup on every query and never
// cached; the portal remains the source of truth. InterestedParties,
// OpenUnits and FilingDate are filled only by screens that render those
// columns; quick-search results carry id, number, kind and specification.
type Process struct {
	ID                string   `json:"id"`
	Number            string   `json:"number"`
	Kind              string   `json:"kind"`
	Specification     string   `json:"specification"`
	InterestedParties []string `json:"interested_parties,omitempty"`
	OpenUnits         []string `json:"open_units,omitempty"`
	FilingDate        string   `json:"filing_date,omitempty"`
}

// ProcessRef identifies a process created in this session.
type ProcessRef struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// Document is a read model of one document entry in a process. Date and
// Signatures are filled only by screens that render them; the process
// tree, which ListDocuments reads, labels entries with kind and number
// alone.
type Document struct {
	ID         string   `json:"id"`
	Number     string   `json:"number"`
	Kind       string   `json:"kind"`
	Date       string   `json:"date,omitempty"`
	Signatures []string `json:"signatures,omitempty"`
}

// SignatureBlock is a read model of one signature block row.
type SignatureBlock struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	DocumentCount int    `json:"document_count"`
	Unit          string `json:"unit,omitempty"`
}

// HistoryEntry is one row of a process history (andamento) listing.
type HistoryEntry struct {
	Date        string `json:"date"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// Unit is a read model of one organizational unit.
type Unit struct {
	ID          string `json:"id"`
	Acronym     string `json:"acronym"`
	Description string `json:"description"`
}

// AccessLevel is the portal's document/process visibility classification.
type AccessLevel string

const (
	AccessPublic     AccessLevel = "public"
	AccessRestricted AccessLevel = "restricted"
	AccessSecret     AccessLevel = "secret"
)

// CreateProcessOptions configures a new process.
type CreateProcessOptions struct {
	// Kind is the process type as shown in the portal's type picker. Required.
	Kind string

	// Specification is the free-text description of the process. Required.
	Specification string

	// Parties and InterestedParties are each added through their own
	// locate-fill-confirm sequence; either list may be empty.
	Parties           []string
	InterestedParties []string

	// Note fills the observation box when the chosen type exposes one.
	Note string

	// AccessLevel selects the visibility radio when present. Empty keeps the
	// portal default.
	AccessLevel AccessLevel

	// LegalBasis selects the legal-basis option; only meaningful for
	// restricted or secret access levels.
	LegalBasis string
}

// ForwardOptions configures process routing.
type ForwardOptions struct {
	// KeepOpen keeps the process open in the current unit after forwarding.
	KeepOpen bool

	// NotifyByEmail asks the portal to email the destination units.
	NotifyByEmail bool
}

// CreateDocumentOptions configures issuance of an internal document.
type CreateDocumentOptions struct {
	// Kind is the document type as shown in the portal's type picker. Required.
	Kind string

	// Description, Number and Note fill the optional metadata fields; absent
	// fields on the chosen type are skipped, not errors.
	Description string
	Number      string
	Note        string

	AccessLevel AccessLevel
	LegalBasis  string
}

// UploadDocumentOptions configures registration of an external file.
type UploadDocumentOptions struct {
	// Kind is the external document type. Required.
	Kind string

	// Date is the document's nominal date in the portal's display format
	// (dd/mm/yyyy). Empty leaves the field untouched.
	Date string

	Description string
	Note        string

	AccessLevel AccessLevel
	LegalBasis  string

	// MimeType overrides the payload content type sent to the file chooser.
	// Defaults to application/pdf, the only format every tenant accepts.
	MimeType string
}

// WindowBounds describes the browser window position and size in screen
// coordinates.
type WindowBounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FieldOutcome records what happened to one optional form field during a
// workflow step. It distinguishes "field absent on this screen, skipped"
// from "field present but the interaction failed".
type FieldOutcome struct {
	// Field names the form field the outcome refers to.
	Field string

	// Applied is true when the field was found and filled.
	Applied bool

	// Absent is true when the field does not exist on this document or
	// process type. Expected for optional fields, never an error.
	Absent bool

	// Err holds the failure when the field was present but could not be
	// driven.
	Err error
}

func applied(field string) FieldOutcome { return FieldOutcome{Field: field, Applied: true} }
func absent(field string) FieldOutcome  { return FieldOutcome{Field: field, Absent: true} }
func failed(field string, err error) FieldOutcome {
	return FieldOutcome{Field: field, Err: err}
}
