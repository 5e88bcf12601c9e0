package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lumais/antpair/internal/pairing"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStoreIntegration runs a full integration test against a real Postgres container.
// It requires Docker to be running.
func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Fatalf("Docker not available, cannot run integration test: %v", err)
	}

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("antpair_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(noopLogger{}),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	// Initialize Store (runs migrations)
	s, err := New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to store: %v", err)
	}
	defer s.Close(ctx)

	// --- Test Scenarios ---

	if err := s.EnsureAnnotationFile(ctx, "file_123", "/tmp/colony.json"); err != nil {
		t.Fatalf("EnsureAnnotationFile failed: %v", err)
	}
	// Idempotent re-registration
	if err := s.EnsureAnnotationFile(ctx, "file_123", "/data/colony.json"); err != nil {
		t.Fatalf("EnsureAnnotationFile (again) failed: %v", err)
	}

	res := &pairing.Result{
		Strategy: pairing.StrategyPasses,
		Pairs: []pairing.Pair{
			{Body: "b1", Head: "h1", Support: 3},
			{Body: "b2", Head: "h2", Support: 2},
		},
		Unpaired: []pairing.Diagnostic{
			{Kind: pairing.KindUnpairedBody, Body: "b3", Message: "tied"},
		},
	}
	diags := []pairing.Diagnostic{
		{Kind: pairing.KindFlyingHead, Frame: 4, Body: "b1", Head: "h1", Message: "center outside"},
	}

	run, err := s.RecordRun(ctx, "file_123", 5, 3, res, diags)
	if err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if run.Pairs != 2 || run.Unpaired != 1 || run.Warnings != 1 {
		t.Errorf("Unexpected run summary: %+v", run)
	}

	runs, err := s.ListRuns(ctx, "file_123")
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("Expected the recorded run, got %+v", runs)
	}
	if runs[0].Path != "/data/colony.json" {
		t.Errorf("Expected updated path, got %s", runs[0].Path)
	}

	all, err := s.ListRuns(ctx, "")
	if err != nil || len(all) != 1 {
		t.Errorf("Expected 1 run across files, got %d (%v)", len(all), err)
	}

	pairs, err := s.RunPairs(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunPairs failed: %v", err)
	}
	if len(pairs) != 2 || pairs[0] != res.Pairs[0] || pairs[1] != res.Pairs[1] {
		t.Errorf("Expected %v, got %v", res.Pairs, pairs)
	}

	stored, err := s.RunDiagnostics(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunDiagnostics failed: %v", err)
	}
	if len(stored) != 2 || stored[0].Kind != pairing.KindUnpairedBody || stored[1] != diags[0] {
		t.Errorf("Unexpected diagnostics: %v", stored)
	}

	if _, err := s.RunPairs(ctx, uuid.New()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}

	// A head paired twice in one run violates the schema and rolls back the whole run.
	bad := &pairing.Result{Strategy: pairing.StrategyPasses, Pairs: []pairing.Pair{
		{Body: "b1", Head: "h1", Support: 1},
		{Body: "b2", Head: "h1", Support: 1},
	}}
	if _, err := s.RecordRun(ctx, "file_123", 5, 3, bad, nil); err == nil {
		t.Error("Expected duplicate head to be rejected")
	}
	runs, _ = s.ListRuns(ctx, "file_123")
	if len(runs) != 1 {
		t.Errorf("Expected failed run to roll back, found %d runs", len(runs))
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := s.ListRuns(ctx, ""); err == nil {
		t.Error("Expected tables to be gone after Reset")
	}
}

type noopLogger struct{}

func (n noopLogger) Printf(format string, v ...interface{}) {}
