// internal/matching/emissions.go
package matching

import (
	"strings"

	"wastematch/internal/models"
)

// materialAliases maps common synonyms onto the material labels used in
// the emission-factor table.
var materialAliases = map[string]string{
	"iron":   "steel",
	"ash":    "flyash",
	"carbon": "flyash",
	"co2":    "chemicalsolvent",
}

// NormalizeMaterial strips all whitespace, lower-cases, and resolves
// known aliases so free-text material labels line up with formula keys.
func NormalizeMaterial(raw string) string {
	key := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	if alias, ok := materialAliases[key]; ok {
		return alias
	}
	return key
}

// AnnotateCO2Savings attaches an estimated emissions-savings figure to
// every match. Materials without a formula row get defaultSavings
// rather than omitting the field.
func AnnotateCO2Savings(matches []models.Match, formulas map[string]models.Formula, defaultSavings float64) {
	for i := range matches {
		key := NormalizeMaterial(matches[i].WasteType)
		if f, ok := formulas[key]; ok {
			matches[i].CO2SavingsPerTon = f.CO2SavingsPerTon()
		} else {
			matches[i].CO2SavingsPerTon = defaultSavings
		}
	}
}
