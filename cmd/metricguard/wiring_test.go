package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-cmp/cmp"

	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/config"
	"mercator-hq/metricguard/pkg/guard"
	"mercator-hq/metricguard/pkg/telemetry"
	"mercator-hq/metricguard/pkg/telemetry/health"
)

func archiveConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Audit.Archive.Enabled = true
	cfg.Audit.Archive.Path = filepath.Join(t.TempDir(), "audit.db")
	cfg.Audit.Archive.WALMode = false
	return cfg
}

func testRequest(dt catalog.DecisionType) *guard.DecisionRequest {
	now := time.Now().UTC()
	return &guard.DecisionRequest{
		MetricID:     "revenue",
		DecisionType: dt,
		TimeRange: guard.TimeRange{
			Start: now.AddDate(0, 0, -30),
			End:   now,
		},
		SampleSize:      5000,
		DataLastUpdated: now,
	}
}

const gitCatalogYAML = `
metrics:
  - id: signups
    name: Signups
    category: engagement
    min_sample_size: 10
    refresh_hours: 24
    allowed_decisions: [growth]
`

// initCatalogRepo creates a local Git repository holding catalog.yaml on
// master and returns its path.
func initCatalogRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte(gitCatalogYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("catalog.yaml"); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("add catalog", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return dir
}

// writeGitConfig writes a config that loads the catalog from repoDir.
func writeGitConfig(t *testing.T, repoDir string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := fmt.Sprintf(`
catalog:
  git:
    enabled: true
    repository: %s
    branch: master
    local_path: %s
    poll_interval: 0s
`, repoDir, filepath.Join(dir, "clone"))
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestApp_RestoreFromArchive tests that a restarted app reloads the audit log
// from the archive, oldest first.
func TestApp_RestoreFromArchive(t *testing.T) {
	cfg := archiveConfig(t)
	ctx := context.Background()

	first, err := newApp(cfg, nil)
	if err != nil {
		t.Fatalf("newApp() failed: %v", err)
	}
	var ids []string
	for _, dt := range []catalog.DecisionType{catalog.DecisionPricing, catalog.DecisionGrowth} {
		out, err := first.lifecycle.Evaluate(ctx, testRequest(dt))
		if err != nil {
			t.Fatalf("Evaluate() failed: %v", err)
		}
		ids = append(ids, out.Record.DecisionID)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	second, err := newApp(cfg, nil)
	if err != nil {
		t.Fatalf("newApp() failed: %v", err)
	}
	defer second.Close()

	n, err := second.restore(ctx)
	if err != nil {
		t.Fatalf("restore() failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("restored %d records, want 2", n)
	}

	var got []string
	for _, r := range second.lifecycle.Log().Snapshot() {
		got = append(got, r.DecisionID)
	}
	want := []string{ids[1], ids[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("restored order mismatch (-want +got):\n%s", diff)
	}
}

func TestApp_RestoreWithoutArchive(t *testing.T) {
	a, err := newApp(config.Default(), nil)
	if err != nil {
		t.Fatalf("newApp() failed: %v", err)
	}
	defer a.Close()

	if n, err := a.restore(context.Background()); n != 0 || err != nil {
		t.Errorf("restore() = %d, %v; want 0, nil", n, err)
	}
}

func TestApp_Instrument(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := archiveConfig(t)
	tel, err := telemetry.New(&cfg.Telemetry, versionInfo())
	if err != nil {
		t.Fatalf("telemetry.New() failed: %v", err)
	}
	defer tel.Shutdown(context.Background())

	a, err := newApp(cfg, tel)
	if err != nil {
		t.Fatalf("newApp() failed: %v", err)
	}
	defer a.Close()

	if diff := cmp.Diff([]string{"archive", "catalog"}, tel.Health().ListChecks()); diff != "" {
		t.Errorf("health checks mismatch (-want +got):\n%s", diff)
	}
	status := tel.Health().CheckReadiness(context.Background())
	if status.Status != health.StatusReady {
		t.Errorf("readiness = %+v, want ready", status)
	}
}

func TestNewApp_GitCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Git.Enabled = true
	cfg.Catalog.Git.Repository = initCatalogRepo(t)
	cfg.Catalog.Git.Branch = "master"
	cfg.Catalog.Git.LocalPath = filepath.Join(t.TempDir(), "clone")
	cfg.Catalog.Git.PollInterval = 10 * time.Millisecond

	a, err := newApp(cfg, nil)
	if err != nil {
		t.Fatalf("newApp() failed: %v", err)
	}
	defer a.Close()

	if a.syncer == nil {
		t.Fatal("newApp() did not create a catalog syncer")
	}
	if _, ok := a.catalog.Get("signups"); !ok || a.catalog.Len() != 1 {
		t.Errorf("catalog from git has %d metrics, want only signups", a.catalog.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.startBackground(ctx, nil); err != nil {
		t.Fatalf("startBackground() failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}

func TestNewApp_GitCatalogUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Git.Enabled = true
	cfg.Catalog.Git.Repository = filepath.Join(t.TempDir(), "missing")
	cfg.Catalog.Git.LocalPath = filepath.Join(t.TempDir(), "clone")

	if _, err := newApp(cfg, nil); err == nil {
		t.Error("newApp() with an unreachable repository succeeded")
	}
}

func TestNewApp_BadCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.FilePath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := newApp(cfg, nil); err == nil {
		t.Error("newApp() with a missing catalog succeeded")
	}
}

func TestThresholds(t *testing.T) {
	cfg := config.Default()
	got := thresholds(cfg.Guard)
	if got.MinSampleFloor != cfg.Guard.MinSampleFloor || got.ConcentrationLimit != cfg.Guard.ConcentrationLimit {
		t.Errorf("thresholds() = %+v, want values from %+v", got, cfg.Guard)
	}
}
