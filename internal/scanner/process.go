// Package scanner manages the lifecycle of one project scan: workspace
// preparation, shallow clone, the external dependency-discovery subprocess,
// output parsing and inventory persistence.
package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrScannerStart reports that the external tool could not be launched at
// all, as opposed to running and producing nothing usable.
var ErrScannerStart = errors.New("scanner could not run")

// runTool invokes `<binary> scan <sourceDir> --out <outDir>` with a bounded
// timeout, streaming combined stdout/stderr line-by-line into appendLine.
// The exit code is recorded but advisory; only a failure to launch is an
// error. A timeout force-terminates the subprocess and is reported in the
// log, leaving the output-directory check to decide the scan's fate.
func runTool(ctx context.Context, binary, sourceDir, outDir string, timeout time.Duration, appendLine func(string)) (int, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, "scan", sourceDir, "--out", outDir)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("%w: %v", ErrScannerStart, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("%w: %v", ErrScannerStart, err)
	}

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("%w: %v", ErrScannerStart, err)
	}

	var g errgroup.Group
	g.Go(func() error {
		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			appendLine(sc.Text())
		}
		return sc.Err()
	})
	g.Go(func() error {
		sc := bufio.NewScanner(stderr)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			appendLine(sc.Text())
		}
		return sc.Err()
	})

	streamErr := g.Wait()
	waitErr := cmd.Wait()

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	if runCtx.Err() == context.DeadlineExceeded {
		appendLine(fmt.Sprintf("Process timed out after %s and was terminated", timeout))
	} else {
		appendLine(fmt.Sprintf("Process exited with code %d", exitCode))
	}
	if streamErr != nil {
		appendLine(fmt.Sprintf("Output stream error: %v", streamErr))
	}

	return exitCode, nil
}
