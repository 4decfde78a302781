package service

import (
	"database/sql"
	"fmt"

	"github.com/jdewinter/Realized-Performance-Backend/internal/apperrors"
	"github.com/jdewinter/Realized-Performance-Backend/internal/database"
	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
	"github.com/jdewinter/Realized-Performance-Backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion returns the application, algorithm, and schema versions plus
// the feature set this build supports.
func (s *SystemService) CheckVersion() (*model.VersionInfo, error) {
	schemaVersion, err := database.Version(s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToGetVersionInfo, err)
	}

	return &model.VersionInfo{
		AppVersion:       version.Version,
		AlgorithmVersion: AlgorithmVersion,
		DbVersion:        fmt.Sprintf("%d", schemaVersion),
		Features: map[string]bool{
			"benchmark_comparison": true,
			"segment_views":        true,
			"multi_account":        true,
			"benchmark_refresh":    true,
		},
	}, nil
}
