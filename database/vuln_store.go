// Package database - vulnerability record storage and queries.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/ettoremessina/CveGuardian/model"
)

// VulnStore owns the cve and affected collections: idempotent upserts keyed
// by the CVE identifier, full-replace of affected items per refresh, the
// ingestion watermark, and the query surface used by matching and the API.
type VulnStore struct {
	db DBConnection
}

// NewVulnStore returns a store bound to the given connection.
func NewVulnStore(db DBConnection) *VulnStore {
	return &VulnStore{db: db}
}

// UpsertCVE inserts a new record or overwrites the mutable fields of an
// existing one. The identifier is the document key, so replays are safe.
func (s *VulnStore) UpsertCVE(ctx context.Context, cve model.CVE) error {
	now := time.Now().UTC()

	query := `
		UPSERT { _key: @key }
		INSERT @insertDoc
		UPDATE @updateDoc
		IN cve
	`
	insertDoc := map[string]interface{}{
		"_key":          cve.ID,
		"id":            cve.ID,
		"description":   cve.Description,
		"severity":      cve.Severity,
		"score":         cve.Score,
		"published":     cve.Published,
		"last_modified": cve.LastModified,
		"source":        cve.Source,
		"created_at":    now,
		"updated_at":    now,
	}
	updateDoc := map[string]interface{}{
		"description":   cve.Description,
		"severity":      cve.Severity,
		"score":         cve.Score,
		"last_modified": cve.LastModified,
		"source":        cve.Source,
		"updated_at":    now,
	}

	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"key":       cve.ID,
			"insertDoc": insertDoc,
			"updateDoc": updateDoc,
		},
	})
	if err != nil {
		return fmt.Errorf("upsert cve %s: %w", cve.ID, err)
	}
	return cursor.Close()
}

// ReplaceAffected deletes every affected item owned by the CVE and inserts
// the new set. The feed provides no stable sub-identifiers, so a full
// replace is the only consistent refresh.
func (s *VulnStore) ReplaceAffected(ctx context.Context, cveID string, items []model.AffectedItem) error {
	deleteQuery := `
		FOR a IN affected
			FILTER a.cve_id == @cveID
			REMOVE a IN affected
	`
	cursor, err := s.db.Database.Query(ctx, deleteQuery, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"cveID": cveID},
	})
	if err != nil {
		return fmt.Errorf("delete affected items for %s: %w", cveID, err)
	}
	cursor.Close()

	if len(items) == 0 {
		return nil
	}

	insertQuery := `
		FOR item IN @items
			INSERT item INTO affected
	`
	cursor, err = s.db.Database.Query(ctx, insertQuery, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"items": items},
	})
	if err != nil {
		return fmt.Errorf("insert affected items for %s: %w", cveID, err)
	}
	return cursor.Close()
}

// Watermark returns the maximum last-modified timestamp across all stored
// CVEs, or the zero time when the collection is empty. The aggregate runs
// over DATE_TIMESTAMP so ordering is chronological regardless of how many
// fractional-second digits each stored timestamp carries.
func (s *VulnStore) Watermark(ctx context.Context) (time.Time, error) {
	query := `
		FOR c IN cve
			COLLECT AGGREGATE maxMod = MAX(DATE_TIMESTAMP(c.last_modified))
			RETURN maxMod
	`
	cursor, err := s.db.Database.Query(ctx, query, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("query watermark: %w", err)
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return time.Time{}, nil
	}

	var raw *float64
	if _, err := cursor.ReadDocument(ctx, &raw); err != nil {
		return time.Time{}, fmt.Errorf("read watermark: %w", err)
	}
	return watermarkFromMillis(raw), nil
}

// watermarkFromMillis converts the aggregate's epoch-millisecond result to a
// UTC time. A missing aggregate means the collection is empty. Millisecond
// truncation only ever moves the next window start earlier, and re-fetching
// an already-stored record is an idempotent upsert.
func watermarkFromMillis(ms *float64) time.Time {
	if ms == nil || *ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(*ms)).UTC()
}

// GetCVE fetches one record by identifier. Returns nil when absent.
func (s *VulnStore) GetCVE(ctx context.Context, id string) (*model.CVE, error) {
	query := `
		FOR c IN cve
			FILTER c._key == @id
			LIMIT 1
			RETURN c
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"id": id},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return nil, nil
	}
	var cve model.CVE
	if _, err := cursor.ReadDocument(ctx, &cve); err != nil {
		return nil, err
	}
	return &cve, nil
}

// ListCVEs returns a filtered, paginated slice of records plus the total
// count matching the filter.
func (s *VulnStore) ListCVEs(ctx context.Context, f model.CVEFilter) ([]model.CVE, int, error) {
	if f.Limit <= 0 {
		f.Limit = 10
	}

	publishedAfter := ""
	if !f.PublishedAfter.IsZero() {
		publishedAfter = f.PublishedAfter.UTC().Format(time.RFC3339Nano)
	}

	bindVars := map[string]interface{}{
		"severity":       f.Severity,
		"idContains":     f.IDContains,
		"description":    f.Description,
		"publishedAfter": publishedAfter,
	}

	filters := `
			FILTER @severity == "" || c.severity == @severity
			FILTER @idContains == "" || CONTAINS(UPPER(c.id), UPPER(@idContains))
			FILTER @description == "" || CONTAINS(LOWER(c.description), LOWER(@description))
			FILTER @publishedAfter == "" || c.published >= @publishedAfter
	`

	countQuery := `
		RETURN LENGTH(
			FOR c IN cve` + filters + `
				RETURN 1
		)
	`
	cursor, err := s.db.Database.Query(ctx, countQuery, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, 0, fmt.Errorf("count cves: %w", err)
	}
	var total int
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &total); err != nil {
			cursor.Close()
			return nil, 0, err
		}
	}
	cursor.Close()

	listVars := map[string]interface{}{
		"offset": f.Offset,
		"limit":  f.Limit,
	}
	for k, v := range bindVars {
		listVars[k] = v
	}

	listQuery := `
		FOR c IN cve` + filters + `
			SORT c.published DESC
			LIMIT @offset, @limit
			RETURN c
	`
	cursor, err = s.db.Database.Query(ctx, listQuery, &arangodb.QueryOptions{BindVars: listVars})
	if err != nil {
		return nil, 0, fmt.Errorf("list cves: %w", err)
	}
	defer cursor.Close()

	var results []model.CVE
	for cursor.HasMore() {
		var cve model.CVE
		if _, err := cursor.ReadDocument(ctx, &cve); err != nil {
			return nil, 0, err
		}
		results = append(results, cve)
	}
	return results, total, nil
}

// AffectedByProduct returns affected items whose product equals the package
// name exactly. First tier of identity resolution.
func (s *VulnStore) AffectedByProduct(ctx context.Context, product string) ([]model.AffectedItem, error) {
	query := `
		FOR a IN affected
			FILTER a.product == @product
			RETURN a
	`
	return s.queryAffected(ctx, query, map[string]interface{}{"product": product})
}

// AffectedByVendorProduct returns affected items whose vendor contains the
// vendor token and whose product contains the product token, both
// case-insensitive. Second tier of identity resolution.
func (s *VulnStore) AffectedByVendorProduct(ctx context.Context, vendorToken, productToken string) ([]model.AffectedItem, error) {
	query := `
		FOR a IN affected
			FILTER CONTAINS(LOWER(a.vendor), LOWER(@vendor))
			FILTER CONTAINS(LOWER(a.product), LOWER(@product))
			RETURN a
	`
	return s.queryAffected(ctx, query, map[string]interface{}{
		"vendor":  vendorToken,
		"product": productToken,
	})
}

// CVEIDsByDescription returns identifiers of CVEs whose description contains
// the needle, capped to limit. Third tier of identity resolution.
func (s *VulnStore) CVEIDsByDescription(ctx context.Context, needle string, limit int) ([]string, error) {
	query := `
		FOR c IN cve
			FILTER CONTAINS(LOWER(c.description), LOWER(@needle))
			LIMIT @limit
			RETURN c.id
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"needle": needle, "limit": limit},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var ids []string
	for cursor.HasMore() {
		var id string
		if _, err := cursor.ReadDocument(ctx, &id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// AffectedByCVEIDs fetches the affected items of the given CVEs for range
// verification after a description-tier hit.
func (s *VulnStore) AffectedByCVEIDs(ctx context.Context, ids []string) ([]model.AffectedItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		FOR a IN affected
			FILTER a.cve_id IN @ids
			RETURN a
	`
	return s.queryAffected(ctx, query, map[string]interface{}{"ids": ids})
}

func (s *VulnStore) queryAffected(ctx context.Context, query string, bindVars map[string]interface{}) ([]model.AffectedItem, error) {
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var items []model.AffectedItem
	for cursor.HasMore() {
		var item model.AffectedItem
		if _, err := cursor.ReadDocument(ctx, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
