package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ettoremessina/CveGuardian/model"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"
)

// ErrScanInProgress is returned when a scan is requested for a project that
// already has one in flight. Workspace paths are keyed by project, so
// concurrent scans of the same project would corrupt each other.
var ErrScanInProgress = errors.New("a scan is already in progress for this project")

// noOutputMarker is appended to the scan log when the tool ran but left no
// JSON file behind, so operators can tell that apart from a tool crash.
const noOutputMarker = "Error: No JSON output found from scanner."

// Store is the slice of project storage the orchestrator needs.
type Store interface {
	GetProject(ctx context.Context, key string) (*model.Project, error)
	ReplaceDependencies(ctx context.Context, projectKey string, deps []model.Dependency) ([]model.Dependency, error)
	FinishScan(ctx context.Context, projectKey, scanLog string, success bool, depCount, vulnCount int) error
}

// Matcher correlates a freshly persisted inventory against the
// vulnerability store.
type Matcher interface {
	MatchProject(ctx context.Context, projectKey string, deps []model.Dependency) (int, error)
}

// Config carries the orchestrator's filesystem and subprocess settings.
type Config struct {
	Binary       string
	TempRoot     string
	CloneTimeout time.Duration
	RunTimeout   time.Duration
}

// Orchestrator runs project scans. Scans for distinct projects may run in
// parallel; scans for the same project are serialized by rejection.
type Orchestrator struct {
	cfg     Config
	store   Store
	matcher Matcher
	logger  *zap.Logger

	inFlight sync.Map // project key -> struct{}
}

// New wires an orchestrator.
func New(cfg Config, store Store, matcher Matcher, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, store: store, matcher: matcher, logger: logger}
}

// logBuffer accumulates the scan log; the subprocess streams lines into it
// from two concurrent readers.
type logBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (l *logBuffer) appendLine(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sb.WriteString(line)
	l.sb.WriteByte('\n')
}

func (l *logBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sb.String()
}

// Scan produces a fresh dependency inventory for one project and runs
// matching against it. The project row is updated with the captured log and
// timestamp on every terminating path, and both temporary directories are
// removed unconditionally.
func (o *Orchestrator) Scan(ctx context.Context, projectKey string) (*model.ScanOutcome, error) {
	if _, loaded := o.inFlight.LoadOrStore(projectKey, struct{}{}); loaded {
		return nil, ErrScanInProgress
	}
	defer o.inFlight.Delete(projectKey)

	project, err := o.store.GetProject(ctx, projectKey)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s not found", projectKey)
	}

	workDir := filepath.Join(o.cfg.TempRoot, "project-"+projectKey)
	outDir := filepath.Join(o.cfg.TempRoot, "results-"+projectKey)

	// Stale state from a prior run with the same key is removed
	// unconditionally before anything else happens.
	os.RemoveAll(workDir)
	os.RemoveAll(outDir)

	scanLog := &logBuffer{}
	defer func() {
		os.RemoveAll(workDir)
		os.RemoveAll(outDir)
	}()

	outcome := &model.ScanOutcome{ProjectKey: projectKey}

	fail := func(msg string) (*model.ScanOutcome, error) {
		scanLog.appendLine("Scan Error: " + msg)
		outcome.Success = false
		outcome.Message = msg
		outcome.Log = scanLog.String()
		outcome.FinishedAt = time.Now().UTC()
		if err := o.store.FinishScan(ctx, projectKey, outcome.Log, false, 0, 0); err != nil {
			o.logger.Sugar().Errorf("Failed to persist scan log for %s: %v", projectKey, err)
		}
		return outcome, errors.New(msg)
	}

	if err := os.MkdirAll(workDir, 0o750); err != nil {
		return fail(fmt.Sprintf("prepare workspace: %v", err))
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fail(fmt.Sprintf("prepare output directory: %v", err))
	}

	// Clone: depth 1, single configured branch. Failure is fatal for the
	// scan and goes straight to finalize+cleanup.
	scanLog.appendLine(fmt.Sprintf("Cloning %s (branch %s)...", project.RepoURL, project.Branch))
	cloneCtx, cancel := context.WithTimeout(ctx, o.cfg.CloneTimeout)
	_, cloneErr := git.PlainCloneContext(cloneCtx, workDir, false, &git.CloneOptions{
		URL:           project.RepoURL,
		ReferenceName: plumbing.NewBranchReferenceName(project.Branch),
		SingleBranch:  true,
		Depth:         1,
	})
	cancel()
	if cloneErr != nil {
		return fail(fmt.Sprintf("clone failed: %v", cloneErr))
	}

	scanLog.appendLine("Running dependency scanner...")
	exitCode, runErr := runTool(ctx, o.cfg.Binary, workDir, outDir, o.cfg.RunTimeout, scanLog.appendLine)
	outcome.ExitCode = exitCode
	if runErr != nil {
		// The tool could not be launched at all; distinct from running
		// and producing no output.
		return fail(runErr.Error())
	}

	resultPath, findErr := findJSONOutput(outDir)
	if findErr != nil {
		scanLog.appendLine(noOutputMarker)
		return fail("scan failed: no JSON output")
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		return fail(fmt.Sprintf("read scanner output: %v", err))
	}

	deps, err := ParseReport(data)
	if err != nil {
		return fail(err.Error())
	}
	scanLog.appendLine(fmt.Sprintf("Parsed %d dependencies from scanner output", len(deps)))

	inserted, err := o.store.ReplaceDependencies(ctx, projectKey, deps)
	if err != nil {
		return fail(fmt.Sprintf("persist dependencies: %v", err))
	}

	matchCount, err := o.matcher.MatchProject(ctx, projectKey, inserted)
	if err != nil {
		return fail(fmt.Sprintf("matching failed: %v", err))
	}
	scanLog.appendLine(fmt.Sprintf("Matching complete: %d vulnerabilities detected", matchCount))

	outcome.Success = true
	outcome.DependencyCount = len(inserted)
	outcome.MatchCount = matchCount
	outcome.Log = scanLog.String()
	outcome.FinishedAt = time.Now().UTC()

	if err := o.store.FinishScan(ctx, projectKey, outcome.Log, true, len(inserted), matchCount); err != nil {
		return nil, fmt.Errorf("update project after scan: %w", err)
	}

	return outcome, nil
}

// findJSONOutput locates the single JSON result file the tool is expected
// to emit.
func findJSONOutput(outDir string) (string, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			return filepath.Join(outDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no JSON file in %s", outDir)
}
