// internal/matching/emissions_test.go
package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wastematch/internal/models"
)

func TestNormalizeMaterial(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lower-cases", "Plastic", "plastic"},
		{"strips whitespace", "  Fly Ash ", "flyash"},
		{"alias iron", "Iron", "steel"},
		{"alias ash", "ash", "flyash"},
		{"alias carbon", "Carbon", "flyash"},
		{"alias co2", "CO2", "chemicalsolvent"},
		{"unknown passes through", "Obsidian", "obsidian"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeMaterial(tt.input))
		})
	}
}

func TestAnnotateCO2Savings(t *testing.T) {
	formulas := map[string]models.Formula{
		"plastic": {WasteType: "plastic", VirginEmissionFactor: 2.5, RecycledEmissionFactor: 0.8},
		"steel":   {WasteType: "steel", VirginEmissionFactor: 1.8, RecycledEmissionFactor: 0.7},
	}

	matches := []models.Match{
		{ListingID: "a", WasteType: "Plastic"},
		{ListingID: "b", WasteType: "Iron"}, // alias resolves to steel
		{ListingID: "c", WasteType: "Unobtainium"},
	}

	AnnotateCO2Savings(matches, formulas, 0)

	assert.InDelta(t, 1.7, matches[0].CO2SavingsPerTon, 1e-9)
	assert.InDelta(t, 1.1, matches[1].CO2SavingsPerTon, 1e-9)
	assert.Zero(t, matches[2].CO2SavingsPerTon)
}

func TestAnnotateCO2SavingsDefault(t *testing.T) {
	matches := []models.Match{{ListingID: "a", WasteType: "Glass"}}

	AnnotateCO2Savings(matches, map[string]models.Formula{}, 1.7)

	assert.InDelta(t, 1.7, matches[0].CO2SavingsPerTon, 1e-9)
}
