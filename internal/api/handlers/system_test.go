package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jdewinter/Realized-Performance-Backend/internal/apperrors"
	"github.com/jdewinter/Realized-Performance-Backend/internal/service"
	"github.com/jdewinter/Realized-Performance-Backend/internal/testutil"
)

func setupSystemHandler(t *testing.T) *SystemHandler {
	t.Helper()

	db := testutil.SetupTestDB(t)
	return NewSystemHandler(testutil.NewTestSystemService(t, db))
}

// TestHealth verifies the health endpoint against a live database.
func TestHealth(t *testing.T) {
	// Setup
	handler := setupSystemHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
	rec := httptest.NewRecorder()

	// Execute
	handler.Health(rec, req)

	// Assert
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "healthy" || response.Database != "connected" {
		t.Errorf("Expected a healthy response, got %+v", response)
	}
}

// TestVersion verifies the version endpoint reports the algorithm version
// and feature availability.
func TestVersion(t *testing.T) {
	// Setup
	handler := setupSystemHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/system/version", nil)
	rec := httptest.NewRecorder()

	// Execute
	handler.Version(rec, req)

	// Assert
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var response VersionInfoResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.AlgorithmVersion != service.AlgorithmVersion {
		t.Errorf("Expected algorithm version %q, got %q", service.AlgorithmVersion, response.AlgorithmVersion)
	}
	if response.DbVersion == "" {
		t.Error("Expected a schema version")
	}
	if !response.Features["benchmark_comparison"] || !response.Features["multi_account"] {
		t.Errorf("Expected core features enabled, got %v", response.Features)
	}
}

// TestVersionUnavailable verifies a failed schema lookup surfaces as a
// structured error rather than a bare driver message.
func TestVersionUnavailable(t *testing.T) {
	// Setup: a closed database cannot serve the schema version.
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestSystemService(t, db)
	db.Close()

	// Execute
	_, err := svc.CheckVersion()

	// Assert
	if !errors.Is(err, apperrors.ErrFailedToGetVersionInfo) {
		t.Errorf("Expected ErrFailedToGetVersionInfo, got %v", err)
	}
}
