// Package cves implements the resolvers for vulnerability data.
package cves

import (
	"context"

	"github.com/ettoremessina/CveGuardian/database"
	"github.com/ettoremessina/CveGuardian/model"
)

// ResolveCVEs fetches a page of vulnerability records with optional filters.
func ResolveCVEs(ctx context.Context, store *database.VulnStore, severity, search string, limit, offset int) ([]model.CVE, error) {
	filter := model.CVEFilter{
		Severity:    severity,
		Description: search,
		Offset:      offset,
		Limit:       limit,
	}
	cveList, _, err := store.ListCVEs(ctx, filter)
	return cveList, err
}

// ResolveCVE fetches one vulnerability record by its CVE identifier.
func ResolveCVE(ctx context.Context, store *database.VulnStore, id string) (interface{}, error) {
	cve, err := store.GetCVE(ctx, id)
	if err != nil {
		return nil, err
	}
	if cve == nil {
		return nil, nil
	}
	return *cve, nil
}

// ResolveAffected fetches the vendor/product rows tied to a CVE.
func ResolveAffected(ctx context.Context, store *database.VulnStore, cveID string) ([]model.AffectedItem, error) {
	return store.AffectedByCVEIDs(ctx, []string{cveID})
}
