package model

import "time"

// Match statuses. A match is created OPEN by the matching engine; the
// reviewer workflow may advance it but the engine never touches it again.
const (
	MatchOpen         = "OPEN"
	MatchAcknowledged = "ACKNOWLEDGED"
	MatchIgnored      = "IGNORED"
)

// Project represents a tracked repository in the project collection.
type Project struct {
	Key                string    `json:"_key,omitempty"`
	Name               string    `json:"name"`
	RepoURL            string    `json:"repo_url"`
	Branch             string    `json:"branch"`
	Description        string    `json:"description,omitempty"`
	LastScanAt         time.Time `json:"last_scan_at,omitempty"`
	LastScanLog        string    `json:"last_scan_log,omitempty"`
	DependencyCount    int       `json:"dependency_count"`
	VulnerabilityCount int       `json:"vulnerability_count"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// Dependency is one installed package reported by the external scanner for a
// project. The full set is replaced atomically on every scan.
type Dependency struct {
	Key          string    `json:"_key,omitempty"`
	ProjectKey   string    `json:"project_key"`
	PackageName  string    `json:"package_name"`
	Version      string    `json:"version"`
	Ecosystem    string    `json:"ecosystem"`
	Purl         string    `json:"purl,omitempty"`
	IsDev        bool      `json:"is_dev"`
	IsTransitive bool      `json:"is_transitive"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Match ties a project and a CVE, optionally through the dependency that
// triggered it. The (project, dependency, cve) triple is unique; re-inserting
// an existing triple is a no-op.
type Match struct {
	Key           string    `json:"_key,omitempty"`
	ProjectKey    string    `json:"project_key"`
	CveID         string    `json:"cve_id"`
	DependencyKey string    `json:"dependency_key,omitempty"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	DetectedAt    time.Time `json:"detected_at"`
}

// MatchFilter narrows ListMatches results. Zero values mean "no filter".
type MatchFilter struct {
	ProjectKey  string
	CveContains string
	Severity    string
}

// MatchDetail is a match joined with its project and CVE for list views.
type MatchDetail struct {
	MatchKey    string    `json:"match_key"`
	ProjectKey  string    `json:"project_key"`
	ProjectName string    `json:"project_name"`
	CveID       string    `json:"cve_id"`
	Severity    string    `json:"severity"`
	Package     string    `json:"package,omitempty"`
	Version     string    `json:"version,omitempty"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	DetectedAt  time.Time `json:"detected_at"`
}
