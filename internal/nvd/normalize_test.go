package nvd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ettoremessina/CveGuardian/model"
)

const sampleItem = `{
	"id": "CVE-2024-12345",
	"published": "2024-03-01T10:15:00.000",
	"lastModified": "2024-03-05T08:00:00.000",
	"descriptions": [
		{"lang": "es", "value": "descripcion"},
		{"lang": "en", "value": "Widget before 2.0.0 allows remote code execution."}
	],
	"metrics": {
		"cvssMetricV31": [
			{"cvssData": {"baseScore": 9.8, "baseSeverity": "CRITICAL", "vectorString": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"}}
		]
	},
	"configurations": [
		{"nodes": [{"cpeMatch": [
			{"vulnerable": true, "criteria": "cpe:2.3:a:acme:widget:*:*:*:*:*:*:*:*", "versionEndExcluding": "2.0.0"},
			{"vulnerable": false, "criteria": "cpe:2.3:a:acme:gadget:*:*:*:*:*:*:*:*"}
		]}]}
	]
}`

func TestNormalize(t *testing.T) {
	cve, affected, err := Normalize(RawItem{Cve: json.RawMessage(sampleItem)})
	require.NoError(t, err)
	require.NotNil(t, cve)

	assert.Equal(t, "CVE-2024-12345", cve.ID)
	assert.Equal(t, "Widget before 2.0.0 allows remote code execution.", cve.Description)
	assert.Equal(t, model.SeverityCritical, cve.Severity)
	require.NotNil(t, cve.Score)
	assert.InDelta(t, 9.8, *cve.Score, 0.01)
	assert.Equal(t, 2024, cve.Published.Year())
	assert.True(t, cve.LastModified.After(cve.Published))
	assert.JSONEq(t, sampleItem, string(cve.Source))

	require.Len(t, affected, 1, "only matches flagged vulnerable become affected items")
	item := affected[0]
	assert.Equal(t, "CVE-2024-12345", item.CveID)
	assert.Equal(t, "acme", item.Vendor)
	assert.Equal(t, "widget", item.Product)
	assert.Equal(t, "2.0.0", item.VersionEndExcluding)
	assert.Empty(t, item.VersionStartIncluding)
}

func TestNormalizeSeverityPriority(t *testing.T) {
	raw := `{
		"id": "CVE-2024-1",
		"published": "2024-01-01T00:00:00.000",
		"lastModified": "2024-01-01T00:00:00.000",
		"metrics": {
			"cvssMetricV31": [{"cvssData": {"baseScore": 5.3, "baseSeverity": "MEDIUM"}}],
			"cvssMetricV2": [{"baseSeverity": "HIGH", "cvssData": {"baseScore": 7.5}}]
		}
	}`

	cve, _, err := Normalize(RawItem{Cve: json.RawMessage(raw)})
	require.NoError(t, err)
	assert.Equal(t, model.SeverityMedium, cve.Severity, "v3.1 block wins over v2")
	require.NotNil(t, cve.Score)
	assert.InDelta(t, 5.3, *cve.Score, 0.01)
}

func TestNormalizeV2SeverityOnMetric(t *testing.T) {
	raw := `{
		"id": "CVE-2010-9",
		"published": "2010-06-01T00:00:00.000",
		"lastModified": "2010-06-01T00:00:00.000",
		"metrics": {
			"cvssMetricV2": [{"baseSeverity": "HIGH", "cvssData": {"baseScore": 7.5}}]
		}
	}`

	cve, _, err := Normalize(RawItem{Cve: json.RawMessage(raw)})
	require.NoError(t, err)
	assert.Equal(t, model.SeverityHigh, cve.Severity)
}

func TestNormalizeScoreFromVector(t *testing.T) {
	raw := `{
		"id": "CVE-2024-2",
		"published": "2024-01-01T00:00:00.000",
		"lastModified": "2024-01-01T00:00:00.000",
		"metrics": {
			"cvssMetricV31": [{"cvssData": {"vectorString": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"}}]
		}
	}`

	cve, _, err := Normalize(RawItem{Cve: json.RawMessage(raw)})
	require.NoError(t, err)
	require.NotNil(t, cve.Score)
	assert.InDelta(t, 9.8, *cve.Score, 0.01)
	assert.Equal(t, model.SeverityCritical, cve.Severity, "severity falls back to the score bands")
}

func TestNormalizeNoMetrics(t *testing.T) {
	raw := `{
		"id": "CVE-2024-3",
		"published": "2024-01-01T00:00:00.000",
		"lastModified": "2024-01-01T00:00:00.000"
	}`

	cve, affected, err := Normalize(RawItem{Cve: json.RawMessage(raw)})
	require.NoError(t, err)
	assert.Equal(t, model.SeverityUnknown, cve.Severity)
	assert.Nil(t, cve.Score)
	assert.Equal(t, "No description available", cve.Description)
	assert.Empty(t, affected)
}

func TestNormalizeMissingID(t *testing.T) {
	_, _, err := Normalize(RawItem{Cve: json.RawMessage(`{"published": "2024-01-01T00:00:00.000"}`)})
	require.Error(t, err)
}

func TestNormalizeMalformedCriteria(t *testing.T) {
	raw := `{
		"id": "CVE-2024-4",
		"published": "2024-01-01T00:00:00.000",
		"lastModified": "2024-01-01T00:00:00.000",
		"configurations": [
			{"nodes": [{"cpeMatch": [{"vulnerable": true, "criteria": "cpe:2.3"}]}]}
		]
	}`

	_, affected, err := Normalize(RawItem{Cve: json.RawMessage(raw)})
	require.NoError(t, err)
	assert.Empty(t, affected, "criteria without vendor/product segments is skipped")
}

func TestParseFeedTime(t *testing.T) {
	zoneless, err := parseFeedTime("2024-03-01T10:15:00.000")
	require.NoError(t, err)
	assert.Equal(t, "UTC", zoneless.Location().String())

	qualified, err := parseFeedTime("2024-03-01T10:15:00Z")
	require.NoError(t, err)
	assert.True(t, zoneless.Equal(qualified))

	_, err = parseFeedTime("")
	require.Error(t, err)
}
