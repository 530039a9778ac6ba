// internal/store/requirements.go
package store

import (
	"context"
	"database/sql"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/models"
)

// RequirementStore reads buyer requirements from Postgres.
type RequirementStore struct {
	db *sql.DB
}

func NewRequirementStore(db *sql.DB) *RequirementStore {
	return &RequirementStore{db: db}
}

// GetByID resolves a requirement, enforcing ownership: a requirement
// belonging to a different user is indistinguishable from a missing one.
func (s *RequirementStore) GetByID(ctx context.Context, id, userID string) (*models.Requirement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, company_name, waste_type, quantity, priority, matched, created_at
		 FROM requirements WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	var r models.Requirement
	var companyName sql.NullString
	err := row.Scan(&r.ID, &r.UserID, &companyName, &r.WasteType, &r.Quantity, &r.Priority, &r.Matched, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewRequirementNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("requirement_by_id", err)
	}

	r.CompanyName = companyName.String
	return &r, nil
}

// MarkMatched flips the matched flag after a successful ranking pass.
func (s *RequirementStore) MarkMatched(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE requirements SET matched = true WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewDatabaseUpdateFailedError(err)
	}
	return nil
}
