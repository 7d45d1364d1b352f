package arrests

import "strings"

// Category is a charge classification label.
type Category string

// Charge categories, in classifier evaluation order.
const (
	CategoryAssault    Category = "Assault"
	CategoryTheft      Category = "Theft"
	CategoryDrug       Category = "Drug"
	CategoryTraffic    Category = "Traffic"
	CategoryWarrant    Category = "Warrant"
	CategoryWeapon     Category = "Weapon"
	CategoryDisorderly Category = "Disorderly Conduct"
	CategoryDomestic   Category = "Domestic Violence"
	CategoryFraud      Category = "Fraud"
	CategoryVandalism  Category = "Vandalism"
	CategoryOther      Category = "Other"
)

// TokenizeCharges splits a comma-delimited charges field into individual
// charge descriptions, trimming whitespace and dropping empty pieces.
// Empty input yields an empty slice.
func TokenizeCharges(charges string) []string {
	if strings.TrimSpace(charges) == "" {
		return []string{}
	}
	parts := strings.Split(charges, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

type chargeRule struct {
	category Category
	keywords []string
}

// chargeRules is evaluated in order; the first matching rule wins. The
// ordering is part of the published taxonomy (a charge containing both
// "POSSESSION" and "FIREARM" counts as Drug, not Weapon) and must not be
// rearranged without a product decision.
var chargeRules = []chargeRule{
	{CategoryAssault, []string{"ASSAULT", "BATTERY", "ABUSE"}},
	{CategoryTheft, []string{"THEFT", "LARCENY", "ROBBERY", "BURGLARY"}},
	{CategoryDrug, []string{"DRUG", "NARCOTIC", "CONTROLLED SUBSTANCE", "POSSESSION"}},
	{CategoryTraffic, []string{"TRAFFIC", "DUI", "DWI", "OUI", "OPERATING", "LICENSE", "VEHICLE"}},
	{CategoryWarrant, []string{"WARRANT", "FUGITIVE"}},
	{CategoryWeapon, []string{"WEAPON", "FIREARM", "GUN"}},
	{CategoryDisorderly, []string{"DISORDERLY", "DISTURBANCE", "TRESPASS"}},
	{CategoryDomestic, []string{"DOMESTIC", "DV"}},
	{CategoryFraud, []string{"FRAUD", "FORGERY", "IDENTITY"}},
	{CategoryVandalism, []string{"VANDALISM", "MALICIOUS"}},
}

// ClassifyCharge maps one charge description to its category using
// case-insensitive substring rules. Unmatched charges fall through to
// Other.
func ClassifyCharge(charge string) Category {
	upper := strings.ToUpper(charge)
	for _, rule := range chargeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(upper, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}
