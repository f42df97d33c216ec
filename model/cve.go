// Package model defines the document types persisted in ArangoDB and the
// request/response types used by the REST and GraphQL surfaces.
package model

import (
	"encoding/json"
	"time"
)

// Severity ratings as reported by the NVD feed.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
	SeverityUnknown  = "UNKNOWN"
)

// Severities lists the valid severity values in descending order.
var Severities = []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityUnknown}

// IsValidSeverity reports whether s is one of the known severity ratings.
func IsValidSeverity(s string) bool {
	for _, v := range Severities {
		if s == v {
			return true
		}
	}
	return false
}

// CVE represents a vulnerability record stored in the cve collection.
// The CVE identifier doubles as the document key so upserts are idempotent.
type CVE struct {
	Key          string          `json:"_key,omitempty"`
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Severity     string          `json:"severity"`
	Score        *float64        `json:"score,omitempty"`
	Published    time.Time       `json:"published"`
	LastModified time.Time       `json:"last_modified"`
	Source       json.RawMessage `json:"source,omitempty"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

// AffectedItem links a CVE to one vulnerable vendor/product and an optional
// version range. Items are fully replaced each time the owning CVE is
// refreshed from the feed; they carry no stable identity of their own.
type AffectedItem struct {
	Key     string `json:"_key,omitempty"`
	CveID   string `json:"cve_id"`
	Vendor  string `json:"vendor"`
	Product string `json:"product"`
	CPE     string `json:"cpe,omitempty"`

	// At most one bound per side may be set. All four empty means every
	// version of the product is affected.
	VersionStartIncluding string `json:"version_start_including,omitempty"`
	VersionStartExcluding string `json:"version_start_excluding,omitempty"`
	VersionEndIncluding   string `json:"version_end_including,omitempty"`
	VersionEndExcluding   string `json:"version_end_excluding,omitempty"`
}

// Unbounded reports whether the item declares no version bounds at all.
func (a AffectedItem) Unbounded() bool {
	return a.VersionStartIncluding == "" && a.VersionStartExcluding == "" &&
		a.VersionEndIncluding == "" && a.VersionEndExcluding == ""
}

// CVEFilter narrows ListCVEs results. Zero values mean "no filter".
type CVEFilter struct {
	Severity       string
	IDContains     string
	Description    string
	PublishedAfter time.Time
	Offset         int
	Limit          int
}
