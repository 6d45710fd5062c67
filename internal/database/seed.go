package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
)

//go:embed seeddata/bins.yaml
var defaultBinsYAML []byte

type seedFile struct {
	Bins []seedBin `yaml:"bins"`
}

type seedBin struct {
	BinID          string  `yaml:"bin_id"`
	Latitude       float64 `yaml:"latitude"`
	Longitude      float64 `yaml:"longitude"`
	SupervisorName string  `yaml:"supervisor_name"`
	LocationName   string  `yaml:"location_name"`
	BinType        string  `yaml:"bin_type"`
	MaxCapacityCM  float64 `yaml:"max_capacity_cm"`
}

// DefaultSeedBins parses the embedded demo registry.
func DefaultSeedBins(now time.Time) ([]models.Bin, error) {
	return ParseSeedBins(defaultBinsYAML, now)
}

// ParseSeedBins decodes a YAML bin list into registry rows installed at now.
func ParseSeedBins(data []byte, now time.Time) ([]models.Bin, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidArgument, fmt.Errorf("parse seed bins: %w", err))
	}

	bins := make([]models.Bin, 0, len(file.Bins))
	for _, sb := range file.Bins {
		lat, lon, capacity := sb.Latitude, sb.Longitude, sb.MaxCapacityCM
		req := models.RegisterBinRequest{
			BinID:          sb.BinID,
			Latitude:       &lat,
			Longitude:      &lon,
			SupervisorName: sb.SupervisorName,
			LocationName:   sb.LocationName,
			BinType:        sb.BinType,
			MaxCapacityCM:  &capacity,
		}
		if missing := req.MissingFields(); len(missing) > 0 {
			return nil, errors.Newf(errors.ErrInvalidArgument, "seed bin %q missing %v", sb.BinID, missing)
		}
		if capacity <= 0 {
			return nil, errors.Newf(errors.ErrInvalidArgument, "seed bin %q has non-positive capacity", sb.BinID)
		}
		bins = append(bins, req.ToBin(now))
	}
	return bins, nil
}

// SeedBins fills an empty registry with the given bins.
func SeedBins(ctx context.Context, store *Store, bins []models.Bin, logger zerolog.Logger) error {
	count, err := store.CountBins(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		logger.Info().Int("existing", count).Msg("✓ bins already seeded, skipping")
		return nil
	}

	logger.Info().Int("bins", len(bins)).Msg("🌱 seeding bins")
	for _, bin := range bins {
		if err := store.InsertBin(ctx, bin); err != nil {
			return err
		}
	}

	logger.Info().Msg("✅ bins seeded")
	return nil
}

// SeedOperator creates the dashboard operator account unless it exists.
func SeedOperator(ctx context.Context, store *Store, username, password string, logger zerolog.Logger) error {
	_, err := store.GetUserByUsername(ctx, username)
	if err == nil {
		logger.Info().Str("username", username).Msg("✓ operator already exists, skipping")
		return nil
	}
	if !errors.HasCode(err, errors.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, fmt.Errorf("hash operator password: %w", err))
	}

	user := models.User{
		ID:        uuid.New().String(),
		Username:  username,
		Password:  string(hashed),
		Name:      "Operations Official",
		Role:      "operator",
		CreatedAt: time.Now().Unix(),
	}
	if err := store.InsertUser(ctx, user); err != nil {
		return err
	}

	logger.Info().Str("username", username).Msg("👤 operator account created")
	return nil
}
