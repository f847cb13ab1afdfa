package intake

import "strings"

// Normalize flattens intake sections into ClientFacts. A section that fails to
// parse contributes no facts and is reported as an Anomaly; Normalize itself
// never fails.
func Normalize(in Input) (ClientFacts, []Anomaly) {
	var anomalies []Anomaly
	load := func(name string, raw []byte) section {
		s, err := parseSection(raw)
		if err != nil {
			anomalies = append(anomalies, Anomaly{Section: name, Reason: err.Error()})
			return nil
		}
		return s
	}

	personal := load(SectionPersonal, in.Sections.Personal)
	family := load(SectionFamily, in.Sections.Family)
	assets := load(SectionAssets, in.Sections.Assets)
	docs := load(SectionExistingDocuments, in.Sections.ExistingDocuments)
	// goals carry no scored facts; parsed so malformed text still surfaces.
	_ = load(SectionGoals, in.Sections.Goals)

	facts := ClientFacts{
		Jurisdiction: resolveJurisdiction(in.Jurisdiction, personal),

		HasWill:                docs.flag("hasWill"),
		HasTrust:               docs.flag("hasTrust"),
		HasFinancialPOA:        docs.flag("hasFinancialPOA"),
		HasHealthcarePOA:       docs.flag("hasHealthcarePOA"),
		HasHealthcareDirective: docs.flag("hasHealthcareDirective"),

		HasMinorChildren: family.flag("hasMinorChildren") || family.count("minorChildrenCount") > 0,
		HasGuardian:      family.text("guardianName") != "" || family.flag("hasGuardian"),
		NumberOfChildren: family.count("numberOfChildren"),

		HasBusinessInterests:  assets.flag("hasBusinessInterests"),
		HasRealEstate:         assets.flag("hasRealEstate"),
		HasRetirementAccounts: assets.flag("hasRetirementAccounts"),

		IsMarried: personal.flag("isMarried") || strings.EqualFold(personal.text("maritalStatus"), "married"),
		Age:       personal.count("age"),
		SpouseAge: personal.count("spouseAge"),

		BeneficiaryDesignationCount: len(in.Designations),
	}

	cents, ok := estateValueCents(assets.value("estimatedEstateValue"))
	if !ok {
		anomalies = append(anomalies, Anomaly{Section: SectionAssets, Reason: "unrecognized estate value"})
	}
	facts.EstimatedEstateValueCents = cents

	return facts, anomalies
}

func resolveJurisdiction(explicit string, personal section) string {
	if j := strings.TrimSpace(explicit); j != "" {
		return j
	}
	if j := personal.text("state"); j != "" {
		return j
	}
	if j := personal.text("stateOfResidence"); j != "" {
		return j
	}
	return UnknownJurisdiction
}
