// internal/store/formulas.go
package store

import (
	"context"
	"database/sql"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/models"
)

// FormulaStore reads the static per-material emission-factor table.
type FormulaStore struct {
	db *sql.DB
}

func NewFormulaStore(db *sql.DB) *FormulaStore {
	return &FormulaStore{db: db}
}

// GetAll returns formulas keyed by normalized material label.
func (s *FormulaStore) GetAll(ctx context.Context) (map[string]models.Formula, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT waste_type, virgin_emission_factor, recycled_emission_factor FROM formulas`,
	)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("formulas_all", err)
	}
	defer rows.Close()

	formulas := make(map[string]models.Formula)
	for rows.Next() {
		var f models.Formula
		if err := rows.Scan(&f.WasteType, &f.VirginEmissionFactor, &f.RecycledEmissionFactor); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan_formula", err)
		}
		formulas[f.WasteType] = f
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("iterate_formulas", err)
	}
	return formulas, nil
}

// Upsert writes a single formula row, keyed by material label.
func (s *FormulaStore) Upsert(ctx context.Context, f models.Formula) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO formulas (waste_type, virgin_emission_factor, recycled_emission_factor)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (waste_type)
		 DO UPDATE SET virgin_emission_factor = $2, recycled_emission_factor = $3`,
		f.WasteType, f.VirginEmissionFactor, f.RecycledEmissionFactor,
	)
	if err != nil {
		return apperrors.NewDatabaseUpdateFailedError(err)
	}
	return nil
}

// Seed idempotently loads the default emission-factor table.
func (s *FormulaStore) Seed(ctx context.Context) error {
	for _, f := range DefaultFormulas {
		if err := s.Upsert(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// DefaultFormulas is the built-in emission-factor table, in tons of CO2
// per ton of material.
var DefaultFormulas = []models.Formula{
	{WasteType: "plastic", VirginEmissionFactor: 2.5, RecycledEmissionFactor: 0.8},
	{WasteType: "aluminum", VirginEmissionFactor: 16.0, RecycledEmissionFactor: 0.5},
	{WasteType: "steel", VirginEmissionFactor: 1.8, RecycledEmissionFactor: 0.7},
	{WasteType: "paper", VirginEmissionFactor: 1.3, RecycledEmissionFactor: 0.6},
	{WasteType: "glass", VirginEmissionFactor: 1.0, RecycledEmissionFactor: 0.3},
	{WasteType: "copper", VirginEmissionFactor: 4.0, RecycledEmissionFactor: 1.2},
	{WasteType: "cement", VirginEmissionFactor: 0.9, RecycledEmissionFactor: 0.2},
	{WasteType: "flyash", VirginEmissionFactor: 0.9, RecycledEmissionFactor: 0.1},
	{WasteType: "textilewaste", VirginEmissionFactor: 3.2, RecycledEmissionFactor: 1.1},
	{WasteType: "electronicwaste", VirginEmissionFactor: 5.0, RecycledEmissionFactor: 2.0},
	{WasteType: "rubber", VirginEmissionFactor: 2.8, RecycledEmissionFactor: 1.0},
	{WasteType: "wood", VirginEmissionFactor: 0.5, RecycledEmissionFactor: 0.1},
	{WasteType: "slag", VirginEmissionFactor: 1.5, RecycledEmissionFactor: 0.4},
	{WasteType: "batterywaste", VirginEmissionFactor: 6.5, RecycledEmissionFactor: 2.5},
	{WasteType: "chemicalsolvent", VirginEmissionFactor: 3.8, RecycledEmissionFactor: 1.4},
}
