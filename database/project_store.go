// Package database - project, dependency and match storage.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/ettoremessina/CveGuardian/model"
	"github.com/ettoremessina/CveGuardian/util"
)

// ProjectStore owns the project, dependency and match collections.
type ProjectStore struct {
	db DBConnection
}

// NewProjectStore returns a store bound to the given connection.
func NewProjectStore(db DBConnection) *ProjectStore {
	return &ProjectStore{db: db}
}

// CreateProject inserts a new project and returns it with its key set.
func (s *ProjectStore) CreateProject(ctx context.Context, p model.Project) (*model.Project, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Branch == "" {
		p.Branch = "main"
	}

	query := `
		INSERT @doc INTO project
		RETURN NEW
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"doc": p},
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	defer cursor.Close()

	var created model.Project
	if _, err := cursor.ReadDocument(ctx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProject applies the request fields to an existing project.
func (s *ProjectStore) UpdateProject(ctx context.Context, key string, req model.ProjectRequest) (*model.Project, error) {
	patch := map[string]interface{}{"updated_at": time.Now().UTC()}
	if util.IsNotEmpty(req.Name) {
		patch["name"] = req.Name
	}
	if util.IsNotEmpty(req.RepoURL) {
		patch["repo_url"] = req.RepoURL
	}
	if util.IsNotEmpty(req.Branch) {
		patch["branch"] = req.Branch
	}
	if util.IsNotEmpty(req.Description) {
		patch["description"] = req.Description
	}

	query := `
		UPDATE @key WITH @patch IN project
		RETURN NEW
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"key": key, "patch": patch},
	})
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", key, err)
	}
	defer cursor.Close()

	var updated model.Project
	if !cursor.HasMore() {
		return nil, nil
	}
	if _, err := cursor.ReadDocument(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProject removes a project together with its dependencies and matches.
func (s *ProjectStore) DeleteProject(ctx context.Context, key string) error {
	if err := s.deleteMatches(ctx, key); err != nil {
		return err
	}
	if err := s.deleteDependencies(ctx, key); err != nil {
		return err
	}

	query := `REMOVE @key IN project`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"key": key},
	})
	if err != nil {
		return fmt.Errorf("delete project %s: %w", key, err)
	}
	return cursor.Close()
}

// GetProject fetches one project by key. Returns nil when absent.
func (s *ProjectStore) GetProject(ctx context.Context, key string) (*model.Project, error) {
	query := `
		FOR p IN project
			FILTER p._key == @key
			LIMIT 1
			RETURN p
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"key": key},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return nil, nil
	}
	var p model.Project
	if _, err := cursor.ReadDocument(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns all projects, most recently updated first.
func (s *ProjectStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	query := `
		FOR p IN project
			SORT p.updated_at DESC
			RETURN p
	`
	cursor, err := s.db.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var projects []model.Project
	for cursor.HasMore() {
		var p model.Project
		if _, err := cursor.ReadDocument(ctx, &p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// ReplaceDependencies atomically swaps the project's dependency inventory:
// matches are removed first (they reference dependencies), then the old
// dependencies, then the new set is inserted. Returns the inserted documents
// with their keys so the matching engine can reference them.
func (s *ProjectStore) ReplaceDependencies(ctx context.Context, projectKey string, deps []model.Dependency) ([]model.Dependency, error) {
	if err := s.deleteMatches(ctx, projectKey); err != nil {
		return nil, err
	}
	if err := s.deleteDependencies(ctx, projectKey); err != nil {
		return nil, err
	}

	if len(deps) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	for i := range deps {
		deps[i].ProjectKey = projectKey
		deps[i].CreatedAt = now
	}

	query := `
		FOR dep IN @deps
			INSERT dep INTO dependency
			RETURN NEW
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"deps": deps},
	})
	if err != nil {
		return nil, fmt.Errorf("insert dependencies for %s: %w", projectKey, err)
	}
	defer cursor.Close()

	var inserted []model.Dependency
	for cursor.HasMore() {
		var d model.Dependency
		if _, err := cursor.ReadDocument(ctx, &d); err != nil {
			return nil, err
		}
		inserted = append(inserted, d)
	}
	return inserted, nil
}

// ListDependencies returns the current inventory of one project.
func (s *ProjectStore) ListDependencies(ctx context.Context, projectKey string) ([]model.Dependency, error) {
	query := `
		FOR d IN dependency
			FILTER d.project_key == @projectKey
			SORT d.package_name ASC
			RETURN d
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"projectKey": projectKey},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var deps []model.Dependency
	for cursor.HasMore() {
		var d model.Dependency
		if _, err := cursor.ReadDocument(ctx, &d); err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// InsertMatch records a match unless the (project, dependency, cve) triple
// already exists; duplicates are a no-op, not an error. Reports whether a
// new row was created.
func (s *ProjectStore) InsertMatch(ctx context.Context, m model.Match) (bool, error) {
	if m.Status == "" {
		m.Status = model.MatchOpen
	}
	if m.DetectedAt.IsZero() {
		m.DetectedAt = time.Now().UTC()
	}

	query := `
		UPSERT { project_key: @projectKey, dependency_key: @dependencyKey, cve_id: @cveID }
		INSERT @doc
		UPDATE {}
		IN match
		RETURN { existed: OLD != null }
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"projectKey":    m.ProjectKey,
			"dependencyKey": m.DependencyKey,
			"cveID":         m.CveID,
			"doc":           m,
		},
	})
	if err != nil {
		return false, fmt.Errorf("insert match %s/%s: %w", m.ProjectKey, m.CveID, err)
	}
	defer cursor.Close()

	var result struct {
		Existed bool `json:"existed"`
	}
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &result); err != nil {
			return false, err
		}
	}
	return !result.Existed, nil
}

// ListMatches returns matches joined with their project and CVE, newest first.
func (s *ProjectStore) ListMatches(ctx context.Context, f model.MatchFilter) ([]model.MatchDetail, error) {
	query := `
		FOR m IN match
			FILTER @projectKey == "" || m.project_key == @projectKey
			FILTER @cve == "" || CONTAINS(UPPER(m.cve_id), UPPER(@cve))
			LET p = DOCUMENT("project", m.project_key)
			LET c = DOCUMENT("cve", m.cve_id)
			FILTER @severity == "" || (c != null && c.severity == @severity)
			LET d = m.dependency_key == "" ? null : DOCUMENT("dependency", m.dependency_key)
			SORT m.detected_at DESC
			RETURN {
				match_key: m._key,
				project_key: m.project_key,
				project_name: p != null ? p.name : "",
				cve_id: m.cve_id,
				severity: c != null ? c.severity : "UNKNOWN",
				package: d != null ? d.package_name : "",
				version: d != null ? d.version : "",
				status: m.status,
				notes: m.notes,
				detected_at: m.detected_at
			}
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"projectKey": f.ProjectKey,
			"cve":        f.CveContains,
			"severity":   f.Severity,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer cursor.Close()

	var details []model.MatchDetail
	for cursor.HasMore() {
		var d model.MatchDetail
		if _, err := cursor.ReadDocument(ctx, &d); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}

// FinishScan records the terminal state of a scan on the project row. The
// log and timestamp are written on every terminating path; dependency and
// vulnerability counts only replace the previous values on success.
func (s *ProjectStore) FinishScan(ctx context.Context, projectKey, scanLog string, success bool, depCount, vulnCount int) error {
	patch := map[string]interface{}{
		"last_scan_at":  time.Now().UTC(),
		"last_scan_log": scanLog,
		"updated_at":    time.Now().UTC(),
	}
	if success {
		patch["dependency_count"] = depCount
		patch["vulnerability_count"] = vulnCount
	}

	query := `
		UPDATE @key WITH @patch IN project
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"key": projectKey, "patch": patch},
	})
	if err != nil {
		return fmt.Errorf("finish scan for %s: %w", projectKey, err)
	}
	return cursor.Close()
}

// Stats aggregates the dashboard summary in one query.
func (s *ProjectStore) Stats(ctx context.Context) (*model.Stats, error) {
	query := `
		LET totalCves = LENGTH(cve)
		LET activeProjects = LENGTH(project)
		LET compromised = LENGTH(
			FOR p IN project
				FILTER p.vulnerability_count > 0
				RETURN 1
		)
		LET alerts = (
			FOR m IN match
				LET c = DOCUMENT("cve", m.cve_id)
				FILTER c != null
				COLLECT severity = c.severity WITH COUNT INTO cnt
				RETURN { severity, cnt }
		)
		RETURN {
			totalCves: totalCves,
			activeProjects: activeProjects,
			compromisedProjects: compromised,
			criticalAlerts: FIRST(FOR a IN alerts FILTER a.severity == "CRITICAL" RETURN a.cnt) || 0,
			highAlerts: FIRST(FOR a IN alerts FILTER a.severity == "HIGH" RETURN a.cnt) || 0,
			mediumAlerts: FIRST(FOR a IN alerts FILTER a.severity == "MEDIUM" RETURN a.cnt) || 0
		}
	`
	cursor, err := s.db.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer cursor.Close()

	var stats model.Stats
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &stats); err != nil {
			return nil, err
		}
	}
	return &stats, nil
}

func (s *ProjectStore) deleteMatches(ctx context.Context, projectKey string) error {
	query := `
		FOR m IN match
			FILTER m.project_key == @projectKey
			REMOVE m IN match
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"projectKey": projectKey},
	})
	if err != nil {
		return fmt.Errorf("delete matches for %s: %w", projectKey, err)
	}
	return cursor.Close()
}

func (s *ProjectStore) deleteDependencies(ctx context.Context, projectKey string) error {
	query := `
		FOR d IN dependency
			FILTER d.project_key == @projectKey
			REMOVE d IN dependency
	`
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"projectKey": projectKey},
	})
	if err != nil {
		return fmt.Errorf("delete dependencies for %s: %w", projectKey, err)
	}
	return cursor.Close()
}
