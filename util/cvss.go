// Package util provides utility functions for the backend.
package util

import (
	"strings"

	gocvss2 "github.com/pandatix/go-cvss/20"
	gocvss31 "github.com/pandatix/go-cvss/31"
)

// CalculateCVSSScore calculates the CVSS base score from a vector string.
// Returns 0 when the vector cannot be parsed.
func CalculateCVSSScore(vectorStr string) float64 {
	vectorStr = strings.TrimSpace(vectorStr)
	if vectorStr == "" {
		return 0
	}
	if strings.HasPrefix(vectorStr, "CVSS:3.1/") || strings.HasPrefix(vectorStr, "CVSS:3.0/") {
		// The v3.0 and v3.1 base metrics share a grammar and scoring formula.
		trimmed := vectorStr[strings.Index(vectorStr, "/")+1:]
		if cvss31, err := gocvss31.ParseVector("CVSS:3.1/" + trimmed); err == nil {
			return cvss31.BaseScore()
		}
		return 0
	}
	// CVSS v2 vectors carry no version prefix.
	if cvss2, err := gocvss2.ParseVector(vectorStr); err == nil {
		return cvss2.BaseScore()
	}
	return 0
}

// GetSeverityRating returns the severity rating for a given CVSS score.
func GetSeverityRating(score float64) string {
	switch {
	case score <= 0:
		return "UNKNOWN"
	case score < 4.0:
		return "LOW"
	case score < 7.0:
		return "MEDIUM"
	case score < 9.0:
		return "HIGH"
	default:
		return "CRITICAL"
	}
}
