// internal/models/formula.go
package models

// Formula is a static per-material emission-factor record. Factors are
// in tons of CO2 per ton of material. Owned by the system; never
// mutated by user action.
type Formula struct {
	WasteType              string  `json:"wasteType"` // normalized, lower-case
	VirginEmissionFactor   float64 `json:"virginEmissionFactor"`
	RecycledEmissionFactor float64 `json:"recycledEmissionFactor"`
}

// CO2SavingsPerTon is the estimated savings from recycling one ton
// instead of producing virgin material.
func (f Formula) CO2SavingsPerTon() float64 {
	return f.VirginEmissionFactor - f.RecycledEmissionFactor
}
