package database

import (
	"context"
	"database/sql"
	stderrors "errors"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
)

const binColumns = `bin_id, latitude, longitude, supervisor_name, location_name,
	bin_type, max_capacity_cm, installation_date, created_at`

// ListBins returns every registered bin ordered by id.
func (s *Store) ListBins(ctx context.Context) ([]models.Bin, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var bins []models.Bin
	query := `SELECT ` + binColumns + ` FROM dustbins ORDER BY bin_id`
	if err := s.db.SelectContext(ctx, &bins, query); err != nil {
		return nil, classify(err)
	}
	return bins, nil
}

// GetBin returns one bin or ErrNotFound.
func (s *Store) GetBin(ctx context.Context, binID string) (*models.Bin, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var bin models.Bin
	query := s.q(`SELECT ` + binColumns + ` FROM dustbins WHERE bin_id = ?`)
	if err := s.db.GetContext(ctx, &bin, query, binID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.Newf(errors.ErrNotFound, "bin %s is not registered", binID)
		}
		return nil, classify(err)
	}
	return &bin, nil
}

// GetCapacity returns the configured depth of a bin in centimetres.
func (s *Store) GetCapacity(ctx context.Context, binID string) (float64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var capacity float64
	query := s.q(`SELECT max_capacity_cm FROM dustbins WHERE bin_id = ?`)
	if err := s.db.GetContext(ctx, &capacity, query, binID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, errors.Newf(errors.ErrNotFound, "bin %s is not registered", binID)
		}
		return 0, classify(err)
	}
	return capacity, nil
}

// CountBins returns the size of the registry.
func (s *Store) CountBins(ctx context.Context) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM dustbins`); err != nil {
		return 0, classify(err)
	}
	return count, nil
}

// InsertBin registers a new bin. A duplicate id yields ErrIntegrityViolation
// and leaves the registry untouched.
func (s *Store) InsertBin(ctx context.Context, bin models.Bin) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, s.q(`SELECT 1 FROM dustbins WHERE bin_id = ?`), bin.BinID)
	switch {
	case err == nil:
		return errors.Newf(errors.ErrIntegrityViolation, "bin %s already exists", bin.BinID)
	case !stderrors.Is(err, sql.ErrNoRows):
		return classify(err)
	}

	query := s.q(`INSERT INTO dustbins (` + binColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = tx.ExecContext(ctx, query,
		bin.BinID, bin.Latitude, bin.Longitude, bin.SupervisorName, bin.LocationName,
		bin.BinType, bin.MaxCapacityCM, bin.InstallationDate, bin.CreatedAt,
	)
	if err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}
