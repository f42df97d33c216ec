// Package matcher decides which stored vulnerability records apply to a
// project's dependency inventory.
package matcher

import (
	"context"
	"fmt"

	"github.com/ettoremessina/CveGuardian/model"
	"github.com/ettoremessina/CveGuardian/util"
	"go.uber.org/zap"
)

// descriptionCandidateLimit caps the free-text fallback tier so a common
// package name cannot fan out across the whole CVE corpus.
const descriptionCandidateLimit = 5

// Store is the vulnerability query surface the engine resolves identities
// against.
type Store interface {
	AffectedByProduct(ctx context.Context, product string) ([]model.AffectedItem, error)
	AffectedByVendorProduct(ctx context.Context, vendorToken, productToken string) ([]model.AffectedItem, error)
	CVEIDsByDescription(ctx context.Context, needle string, limit int) ([]string, error)
	AffectedByCVEIDs(ctx context.Context, ids []string) ([]model.AffectedItem, error)
}

// MatchWriter records matches; duplicate triples must be no-ops.
type MatchWriter interface {
	InsertMatch(ctx context.Context, m model.Match) (bool, error)
}

// Engine is the matching engine. It never mutates a match after creating it.
type Engine struct {
	vulns   Store
	matches MatchWriter
	logger  *zap.Logger
}

// New wires a matching engine.
func New(vulns Store, matches MatchWriter, logger *zap.Logger) *Engine {
	return &Engine{vulns: vulns, matches: matches, logger: logger}
}

// MatchProject evaluates every dependency against the vulnerability store
// and records one OPEN match per applying (dependency, CVE) pair. Returns
// the number of newly created matches; replays on an unchanged inventory
// create none.
func (e *Engine) MatchProject(ctx context.Context, projectKey string, deps []model.Dependency) (int, error) {
	created := 0
	for _, dep := range deps {
		n, err := e.matchDependency(ctx, projectKey, dep)
		if err != nil {
			return created, fmt.Errorf("match dependency %s: %w", dep.PackageName, err)
		}
		created += n
	}
	return created, nil
}

func (e *Engine) matchDependency(ctx context.Context, projectKey string, dep model.Dependency) (int, error) {
	candidates, err := e.resolveIdentity(ctx, dep)
	if err != nil {
		return 0, err
	}
	// A dependency with no candidates is simply unmatched, not an error.
	if len(candidates) == 0 {
		return 0, nil
	}

	// A CVE can carry several affected items for the same product. Every
	// item is evaluated before anything is recorded: one provable hit makes
	// the match definite even when another item's range is unverifiable.
	var hits []string
	definite := make(map[string]bool)
	flagged := make(map[string]bool)

	for _, item := range candidates {
		if definite[item.CveID] {
			continue
		}

		bounds := util.VersionRange{
			StartIncluding: item.VersionStartIncluding,
			StartExcluding: item.VersionStartExcluding,
			EndIncluding:   item.VersionEndIncluding,
			EndExcluding:   item.VersionEndExcluding,
		}

		switch bounds.Contains(dep.Version, dep.Ecosystem) {
		case util.ContainmentOutside:
			continue
		case util.ContainmentUnverifiable:
			if !flagged[item.CveID] {
				flagged[item.CveID] = true
				hits = append(hits, item.CveID)
			}
		case util.ContainmentInside:
			if !flagged[item.CveID] {
				flagged[item.CveID] = true
				hits = append(hits, item.CveID)
			}
			definite[item.CveID] = true
		}
	}

	created := 0
	for _, cveID := range hits {
		notes := ""
		if !definite[cveID] {
			notes = fmt.Sprintf("version %q could not be evaluated against the affected range; manual review required", dep.Version)
			e.logger.Sugar().Warnf("Unverifiable version %q for %s against %s", dep.Version, dep.PackageName, cveID)
		}

		wasCreated, err := e.matches.InsertMatch(ctx, model.Match{
			ProjectKey:    projectKey,
			CveID:         cveID,
			DependencyKey: dep.Key,
			Status:        model.MatchOpen,
			Notes:         notes,
		})
		if err != nil {
			return created, err
		}
		if wasCreated {
			created++
		}
	}

	return created, nil
}

// resolveIdentity maps a package name to candidate affected items in tiers,
// stopping at the first tier that yields anything: exact product match,
// then tokenized vendor/product fuzzy match for namespaced names, then a
// capped description substring fallback.
func (e *Engine) resolveIdentity(ctx context.Context, dep model.Dependency) ([]model.AffectedItem, error) {
	items, err := e.vulns.AffectedByProduct(ctx, dep.PackageName)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}

	if tokens := util.SplitPackageName(dep.PackageName); len(tokens) >= 2 {
		items, err = e.vulns.AffectedByVendorProduct(ctx, tokens[0], tokens[1])
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	ids, err := e.vulns.CVEIDsByDescription(ctx, dep.PackageName, descriptionCandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return e.vulns.AffectedByCVEIDs(ctx, ids)
}
