// Package model - API types for request/response payloads.
package model

import "time"

// ProjectRequest is the body for creating or updating a project.
type ProjectRequest struct {
	Name        string `json:"name"`
	RepoURL     string `json:"repo_url"`
	Branch      string `json:"branch,omitempty"`
	Description string `json:"description,omitempty"`
}

// ScanOutcome is the structured result of one project scan.
type ScanOutcome struct {
	ProjectKey      string    `json:"project_key"`
	Success         bool      `json:"success"`
	Message         string    `json:"message,omitempty"`
	DependencyCount int       `json:"dependency_count"`
	MatchCount      int       `json:"match_count"`
	ExitCode        int       `json:"exit_code"`
	Log             string    `json:"log,omitempty"`
	FinishedAt      time.Time `json:"finished_at"`
}

// ScanResponse wraps a scan outcome for the REST surface.
type ScanResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Outcome *ScanOutcome `json:"outcome,omitempty"`
	Project *Project     `json:"project,omitempty"`
}

// ListMeta carries pagination metadata for list endpoints.
type ListMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// CVEList is the paginated response for the cves endpoint.
type CVEList struct {
	Data []CVE    `json:"data"`
	Meta ListMeta `json:"meta"`
}

// Stats is the dashboard summary exposed by the stats endpoint.
type Stats struct {
	TotalCves           int `json:"totalCves"`
	ActiveProjects      int `json:"activeProjects"`
	CompromisedProjects int `json:"compromisedProjects"`
	CriticalAlerts      int `json:"criticalAlerts"`
	HighAlerts          int `json:"highAlerts"`
	MediumAlerts        int `json:"mediumAlerts"`
}
