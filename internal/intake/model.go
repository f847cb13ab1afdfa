package intake

import "encoding/json"

const UnknownJurisdiction = "Unknown"

// Section names as they appear in intake payloads and anomaly reports.
const (
	SectionPersonal          = "personal"
	SectionFamily            = "family"
	SectionAssets            = "assets"
	SectionExistingDocuments = "existing_documents"
	SectionGoals             = "goals"
)

// Sections holds the raw intake sections. Each one may be absent, null, a JSON
// object, or a JSON string whose contents are object text.
type Sections struct {
	Personal          json.RawMessage `json:"personal,omitempty"`
	Family            json.RawMessage `json:"family,omitempty"`
	Assets            json.RawMessage `json:"assets,omitempty"`
	ExistingDocuments json.RawMessage `json:"existing_documents,omitempty"`
	Goals             json.RawMessage `json:"goals,omitempty"`
}

// BeneficiaryDesignation is a loosely typed account/recipient record.
type BeneficiaryDesignation map[string]any

type Input struct {
	Jurisdiction string                   `json:"jurisdiction,omitempty"`
	Sections     Sections                 `json:"sections"`
	Designations []BeneficiaryDesignation `json:"beneficiaryDesignations,omitempty"`
}

// ClientFacts is the flat fact bundle consumed by scoring and prompt
// construction. Every field has a usable zero value.
type ClientFacts struct {
	Jurisdiction string `json:"jurisdiction"`

	HasWill                bool `json:"hasWill"`
	HasTrust               bool `json:"hasTrust"`
	HasFinancialPOA        bool `json:"hasFinancialPOA"`
	HasHealthcarePOA       bool `json:"hasHealthcarePOA"`
	HasHealthcareDirective bool `json:"hasHealthcareDirective"`
	HasMinorChildren       bool `json:"hasMinorChildren"`
	HasGuardian            bool `json:"hasGuardian"`
	HasBusinessInterests   bool `json:"hasBusinessInterests"`
	HasRealEstate          bool `json:"hasRealEstate"`
	HasRetirementAccounts  bool `json:"hasRetirementAccounts"`
	IsMarried              bool `json:"isMarried"`

	NumberOfChildren            int   `json:"numberOfChildren"`
	Age                         int   `json:"age"`
	SpouseAge                   int   `json:"spouseAge"`
	EstimatedEstateValueCents   int64 `json:"estimatedEstateValueCents"`
	BeneficiaryDesignationCount int   `json:"beneficiaryDesignationCount"`
}

// EstateValueDollars returns the estimate in whole dollars.
func (f ClientFacts) EstateValueDollars() int64 {
	return f.EstimatedEstateValueCents / 100
}

// Anomaly records a section that could not be used.
type Anomaly struct {
	Section string `json:"section"`
	Reason  string `json:"reason"`
}
