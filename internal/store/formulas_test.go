// internal/store/formulas_test.go
package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormulasGetAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"waste_type", "virgin_emission_factor", "recycled_emission_factor"}).
		AddRow("plastic", 2.5, 0.8).
		AddRow("steel", 1.8, 0.7)
	mock.ExpectQuery("SELECT waste_type, virgin_emission_factor, recycled_emission_factor FROM formulas").
		WillReturnRows(rows)

	s := NewFormulaStore(db)
	formulas, err := s.GetAll(context.Background())

	require.NoError(t, err)
	require.Len(t, formulas, 2)
	assert.InDelta(t, 1.7, formulas["plastic"].CO2SavingsPerTon(), 1e-9)
	assert.InDelta(t, 1.1, formulas["steel"].CO2SavingsPerTon(), 1e-9)
}

func TestFormulasSeed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, f := range DefaultFormulas {
		mock.ExpectExec("INSERT INTO formulas").
			WithArgs(f.WasteType, f.VirginEmissionFactor, f.RecycledEmissionFactor).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	s := NewFormulaStore(db)
	err = s.Seed(context.Background())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultFormulaTableComplete(t *testing.T) {
	assert.Len(t, DefaultFormulas, 15)
	for _, f := range DefaultFormulas {
		assert.Greater(t, f.VirginEmissionFactor, f.RecycledEmissionFactor,
			"virgin factor must exceed recycled factor for %s", f.WasteType)
	}
}
