package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeclarationKind is one of the four kinds of form 270.00 filing.
type DeclarationKind string

const (
	KindMain       DeclarationKind = "main"
	KindRegular    DeclarationKind = "regular"
	KindAdditional DeclarationKind = "additional"
	KindNotice     DeclarationKind = "notice"
)

// Status is one node in the workflow graph (§4.H).
type Status string

const (
	StatusDraft           Status = "draft"
	StatusValidated       Status = "validated"
	StatusAwaitingConsent Status = "awaiting_consent"
	StatusSigned          Status = "signed"
	StatusSubmitted       Status = "submitted"
	StatusAccepted        Status = "accepted"
	StatusRejected        Status = "rejected"
)

// Header is the taxpayer-identity snapshot copied onto a Declaration at
// first generation (§3).
type Header struct {
	IIN         string
	LastName    string
	FirstName   string
	MiddleName  string
	Phone       string
	Email       string
	SpouseIIN   string
	LegalRepIIN string
}

// Declaration is the per-(taxpayer, year, form) filing record.
type Declaration struct {
	ID          string
	Taxpayer    string
	TaxYear     int
	FormCode    string
	Kind        DeclarationKind
	Status      Status
	Header      Header
	Flags       map[string]bool
	ValidatedAt *time.Time
	ExportedAt  *time.Time
	CreatedAt   time.Time
}

// ItemSource distinguishes rule-engine-computed items from manual overrides.
type ItemSource string

const (
	SourceRuleEngine ItemSource = "rule_engine"
	SourceManualItem ItemSource = "manual"
)

// DeclarationItem is one logical-field -> value row. Unique per
// (declaration, logical_field).
type DeclarationItem struct {
	Declaration  string
	LogicalField string
	Value        decimal.Decimal
	Source       ItemSource
}

// ReportKind distinguishes the two validation passes §4.G tracks.
type ReportKind string

const (
	ReportSchema   ReportKind = "schema"
	ReportBusiness ReportKind = "business"
)

// ValidationReport records one pass/fail validation outcome.
type ValidationReport struct {
	ID          string
	Declaration string
	Kind        ReportKind
	IsValid     bool
	Report      map[string]any
	CreatedAt   time.Time
}

// XmlExport is one monotonically versioned XML rendering of a declaration.
type XmlExport struct {
	ID            string
	Declaration   string
	Payload       string
	SchemaVersion int
	ContentHash   string
	Signed        bool
	CreatedAt     time.Time
}
