package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ettoremessina/CveGuardian/model"
)

type fakeProjectStore struct {
	project *model.Project

	finishCalls   int
	finishSuccess bool
	finishLog     string

	replacedDeps []model.Dependency
}

func (s *fakeProjectStore) GetProject(_ context.Context, _ string) (*model.Project, error) {
	return s.project, nil
}

func (s *fakeProjectStore) ReplaceDependencies(_ context.Context, _ string, deps []model.Dependency) ([]model.Dependency, error) {
	s.replacedDeps = deps
	return deps, nil
}

func (s *fakeProjectStore) FinishScan(_ context.Context, _, scanLog string, success bool, _, _ int) error {
	s.finishCalls++
	s.finishSuccess = success
	s.finishLog = scanLog
	return nil
}

type fakeMatcher struct{}

func (fakeMatcher) MatchProject(_ context.Context, _ string, _ []model.Dependency) (int, error) {
	return 0, nil
}

func testConfig(t *testing.T) Config {
	return Config{
		Binary:       "depscanity",
		TempRoot:     t.TempDir(),
		CloneTimeout: 5 * time.Second,
		RunTimeout:   5 * time.Second,
	}
}

func TestScanRejectsConcurrentSameProject(t *testing.T) {
	store := &fakeProjectStore{project: &model.Project{Key: "p1", RepoURL: "https://example.com/repo.git", Branch: "main"}}
	o := New(testConfig(t), store, fakeMatcher{}, zap.NewNop())

	o.inFlight.Store("p1", struct{}{})

	_, err := o.Scan(context.Background(), "p1")
	require.ErrorIs(t, err, ErrScanInProgress)
	assert.Equal(t, 0, store.finishCalls, "a rejected scan must not touch the project row")
}

func TestScanUnknownProject(t *testing.T) {
	store := &fakeProjectStore{}
	o := New(testConfig(t), store, fakeMatcher{}, zap.NewNop())

	_, err := o.Scan(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, 0, store.finishCalls)
}

func TestScanCloneFailureFinalizesProject(t *testing.T) {
	store := &fakeProjectStore{project: &model.Project{
		Key:     "p1",
		RepoURL: filepath.Join(t.TempDir(), "does-not-exist"),
		Branch:  "main",
	}}
	cfg := testConfig(t)
	o := New(cfg, store, fakeMatcher{}, zap.NewNop())

	outcome, err := o.Scan(context.Background(), "p1")
	require.Error(t, err)
	require.NotNil(t, outcome)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "clone failed")
	assert.Contains(t, outcome.Log, "Scan Error:")

	assert.Equal(t, 1, store.finishCalls, "the scan log is persisted on every terminating path")
	assert.False(t, store.finishSuccess)
	assert.Contains(t, store.finishLog, "Cloning")
	assert.Nil(t, store.replacedDeps, "a failed scan never rewrites the dependency set")

	_, statErr := os.Stat(filepath.Join(cfg.TempRoot, "project-p1"))
	assert.True(t, os.IsNotExist(statErr), "workspace is removed after the scan")
}

func TestFindJSONOutput(t *testing.T) {
	dir := t.TempDir()

	_, err := findJSONOutput(dir)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	_, err = findJSONOutput(dir)
	require.Error(t, err)

	want := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(want, []byte("{}"), 0o600))
	got, err := findJSONOutput(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
