// Package util provides version parsing and range-containment logic for
// vulnerability checking, plus small helpers shared across the backend.
package util

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	npm "github.com/aquasecurity/go-npm-version/pkg"
	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Containment is the outcome of evaluating an installed version against an
// affected range.
type Containment int

const (
	// ContainmentOutside means the version is provably outside the range.
	ContainmentOutside Containment = iota
	// ContainmentInside means the version is provably inside the range.
	ContainmentInside
	// ContainmentUnverifiable means the version (or a bound) could not be
	// parsed under the ecosystem's versioning scheme, so the range cannot
	// be evaluated. Callers must flag these for manual review instead of
	// silently matching or skipping.
	ContainmentUnverifiable
)

// VersionRange is an affected-version interval with optional inclusive or
// exclusive bounds on either side. At most one bound per side is set; a range
// with no bounds at all covers every version.
type VersionRange struct {
	StartIncluding string
	StartExcluding string
	EndIncluding   string
	EndExcluding   string
}

// Unbounded reports whether no bound is set on either side.
func (r VersionRange) Unbounded() bool {
	return r.StartIncluding == "" && r.StartExcluding == "" &&
		r.EndIncluding == "" && r.EndExcluding == ""
}

// Contains evaluates whether the installed version falls inside the range,
// using ecosystem-specific version ordering (npm and PEP 440 get their own
// parsers, everything else is compared as semver).
func (r VersionRange) Contains(version, ecosystem string) Containment {
	if r.Unbounded() {
		return ContainmentInside
	}

	cmp := func(bound string) (int, error) {
		return CompareVersions(ecosystem, version, bound)
	}

	if r.StartIncluding != "" {
		c, err := cmp(r.StartIncluding)
		if err != nil {
			return ContainmentUnverifiable
		}
		if c < 0 {
			return ContainmentOutside
		}
	}
	if r.StartExcluding != "" {
		c, err := cmp(r.StartExcluding)
		if err != nil {
			return ContainmentUnverifiable
		}
		if c <= 0 {
			return ContainmentOutside
		}
	}
	if r.EndIncluding != "" {
		c, err := cmp(r.EndIncluding)
		if err != nil {
			return ContainmentUnverifiable
		}
		if c > 0 {
			return ContainmentOutside
		}
	}
	if r.EndExcluding != "" {
		c, err := cmp(r.EndExcluding)
		if err != nil {
			return ContainmentUnverifiable
		}
		if c >= 0 {
			return ContainmentOutside
		}
	}

	return ContainmentInside
}

// CompareVersions orders two version strings under the given ecosystem's
// scheme, returning -1, 0 or 1. An error means one of the strings does not
// parse under that scheme and no ordering can be established.
func CompareVersions(ecosystem, a, b string) (int, error) {
	switch normalizeEcosystem(ecosystem) {
	case "npm":
		return compareNPM(a, b)
	case "pypi":
		return comparePEP440(a, b)
	default:
		return compareSemver(a, b)
	}
}

func normalizeEcosystem(ecosystem string) string {
	switch strings.ToLower(strings.TrimSpace(ecosystem)) {
	case "npm", "node", "yarn":
		return "npm"
	case "pypi", "pip", "python":
		return "pypi"
	default:
		return ""
	}
}

func compareNPM(a, b string) (int, error) {
	va, err := npm.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("parse npm version %q: %w", a, err)
	}
	vb, err := npm.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("parse npm version %q: %w", b, err)
	}
	if va.LessThan(vb) {
		return -1, nil
	}
	if va.GreaterThan(vb) {
		return 1, nil
	}
	return 0, nil
}

func comparePEP440(a, b string) (int, error) {
	va, err := pep440.Parse(a)
	if err != nil {
		return 0, fmt.Errorf("parse PEP 440 version %q: %w", a, err)
	}
	vb, err := pep440.Parse(b)
	if err != nil {
		return 0, fmt.Errorf("parse PEP 440 version %q: %w", b, err)
	}
	if va.LessThan(vb) {
		return -1, nil
	}
	if va.GreaterThan(vb) {
		return 1, nil
	}
	return 0, nil
}

func compareSemver(a, b string) (int, error) {
	va, err := semver.NewVersion(CleanVersion(a))
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", a, err)
	}
	vb, err := semver.NewVersion(CleanVersion(b))
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// CleanVersion strips prefixes that keep otherwise-valid versions from
// parsing as semver, e.g. "go1.22.2" for Go stdlib versions. A plain "v"
// prefix is handled by the semver library itself.
func CleanVersion(version string) string {
	return strings.TrimPrefix(strings.TrimSpace(version), "go")
}
