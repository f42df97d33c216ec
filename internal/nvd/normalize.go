package nvd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ettoremessina/CveGuardian/model"
	"github.com/ettoremessina/CveGuardian/util"
)

// cveDocument is the subset of the feed's CVE item the normalizer reads.
// Everything else rides along untouched in the raw payload.
type cveDocument struct {
	ID           string `json:"id"`
	Published    string `json:"published"`
	LastModified string `json:"lastModified"`
	Descriptions []struct {
		Lang  string `json:"lang"`
		Value string `json:"value"`
	} `json:"descriptions"`
	Metrics struct {
		CvssMetricV31 []cvssMetric `json:"cvssMetricV31"`
		CvssMetricV30 []cvssMetric `json:"cvssMetricV30"`
		CvssMetricV2  []cvssMetric `json:"cvssMetricV2"`
	} `json:"metrics"`
	Configurations []struct {
		Nodes []struct {
			CpeMatch []cpeMatch `json:"cpeMatch"`
		} `json:"nodes"`
	} `json:"configurations"`
}

type cvssMetric struct {
	CvssData struct {
		BaseScore    *float64 `json:"baseScore"`
		BaseSeverity string   `json:"baseSeverity"`
		VectorString string   `json:"vectorString"`
	} `json:"cvssData"`
	// v2 metrics report severity on the metric itself, not in cvssData.
	BaseSeverity string `json:"baseSeverity"`
}

type cpeMatch struct {
	Vulnerable            bool   `json:"vulnerable"`
	Criteria              string `json:"criteria"`
	VersionStartIncluding string `json:"versionStartIncluding"`
	VersionStartExcluding string `json:"versionStartExcluding"`
	VersionEndIncluding   string `json:"versionEndIncluding"`
	VersionEndExcluding   string `json:"versionEndExcluding"`
}

// Normalize converts one raw feed item into a CVE record and its affected
// items. The raw payload is retained verbatim on the record.
func Normalize(item RawItem) (*model.CVE, []model.AffectedItem, error) {
	var doc cveDocument
	if err := json.Unmarshal(item.Cve, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode cve item: %w", err)
	}
	if doc.ID == "" {
		return nil, nil, fmt.Errorf("cve item has no identifier")
	}

	description := "No description available"
	for _, d := range doc.Descriptions {
		if d.Lang == "en" {
			description = d.Value
			break
		}
	}

	severity, score := deriveSeverity(doc)

	published, err := parseFeedTime(doc.Published)
	if err != nil {
		return nil, nil, fmt.Errorf("cve %s: parse published: %w", doc.ID, err)
	}
	lastModified, err := parseFeedTime(doc.LastModified)
	if err != nil {
		return nil, nil, fmt.Errorf("cve %s: parse lastModified: %w", doc.ID, err)
	}

	cve := &model.CVE{
		ID:           doc.ID,
		Description:  description,
		Severity:     severity,
		Score:        score,
		Published:    published,
		LastModified: lastModified,
		Source:       item.Cve,
	}

	return cve, extractAffected(doc), nil
}

// deriveSeverity tries CVSS v3.1, v3.0 and v2.0 metric blocks in priority
// order; the first block present wins. A missing base score is recomputed
// from the vector string when one exists; a missing severity falls back to
// the score bands, and finally to UNKNOWN.
func deriveSeverity(doc cveDocument) (string, *float64) {
	var metric *cvssMetric
	for _, block := range [][]cvssMetric{
		doc.Metrics.CvssMetricV31,
		doc.Metrics.CvssMetricV30,
		doc.Metrics.CvssMetricV2,
	} {
		if len(block) > 0 {
			m := block[0]
			metric = &m
			break
		}
	}

	if metric == nil {
		return model.SeverityUnknown, nil
	}

	var score *float64
	if metric.CvssData.BaseScore != nil {
		score = metric.CvssData.BaseScore
	} else if metric.CvssData.VectorString != "" {
		if computed := util.CalculateCVSSScore(metric.CvssData.VectorString); computed > 0 {
			score = &computed
		}
	}

	severity := strings.ToUpper(metric.CvssData.BaseSeverity)
	if severity == "" {
		severity = strings.ToUpper(metric.BaseSeverity)
	}
	if severity == "" && score != nil {
		severity = util.GetSeverityRating(*score)
	}
	if !model.IsValidSeverity(severity) {
		severity = model.SeverityUnknown
	}

	return severity, score
}

// extractAffected walks the configuration->node->match structure and builds
// one item per match flagged vulnerable. Vendor and product come out of the
// CPE 2.3 criteria string
// (cpe:2.3:part:vendor:product:version:update:...).
func extractAffected(doc cveDocument) []model.AffectedItem {
	var items []model.AffectedItem
	for _, cfg := range doc.Configurations {
		for _, node := range cfg.Nodes {
			for _, match := range node.CpeMatch {
				if !match.Vulnerable {
					continue
				}
				parts := strings.Split(match.Criteria, ":")
				if len(parts) < 5 {
					continue
				}
				items = append(items, model.AffectedItem{
					CveID:                 doc.ID,
					Vendor:                parts[3],
					Product:               parts[4],
					CPE:                   match.Criteria,
					VersionStartIncluding: match.VersionStartIncluding,
					VersionStartExcluding: match.VersionStartExcluding,
					VersionEndIncluding:   match.VersionEndIncluding,
					VersionEndExcluding:   match.VersionEndExcluding,
				})
			}
		}
	}
	return items
}

// parseFeedTime accepts the zoneless ISO-8601 timestamps the feed emits as
// well as fully-qualified RFC 3339.
func parseFeedTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
