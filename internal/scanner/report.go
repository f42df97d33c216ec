package scanner

import (
	"encoding/json"
	"fmt"

	"github.com/ettoremessina/CveGuardian/model"
	"github.com/package-url/packageurl-go"
)

// report tolerates the three findings-list key names the tool has emitted
// across versions. The first non-empty list wins, in this order.
type report struct {
	Dependencies []reportEntry `json:"dependencies"`
	Components   []reportEntry `json:"components"`
	Findings     []reportEntry `json:"findings"`
}

// reportEntry tolerates both lower-camel-case and Pascal-case field naming.
// encoding/json matches keys case-insensitively, which covers the
// version/Version and ecosystem/Ecosystem variants; the genuinely distinct
// key names get their own fields.
type reportEntry struct {
	Name             string `json:"name"`
	Package          string `json:"Package"`
	ArtifactID       string `json:"artifactId"`
	Version          string `json:"version"`
	InstalledVersion string `json:"InstalledVersion"`
	Type             string `json:"type"`
	Ecosystem        string `json:"ecosystem"`
	Scope            string `json:"scope"`
	Purl             string `json:"purl"`
	Transitive       bool   `json:"transitive"`
}

// ParseReport decodes the scanner's JSON output into a dependency set.
// Entries that cannot produce both a name and a version are dropped
// silently; a single bad entry never fails the scan.
func ParseReport(data []byte) ([]model.Dependency, error) {
	var rep report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode scanner output: %w", err)
	}

	entries := rep.Dependencies
	if len(entries) == 0 {
		entries = rep.Components
	}
	if len(entries) == 0 {
		entries = rep.Findings
	}

	var deps []model.Dependency
	for _, e := range entries {
		dep, ok := e.resolve()
		if !ok {
			continue
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// resolve normalizes one entry, filling gaps from its purl when one is
// present.
func (e reportEntry) resolve() (model.Dependency, bool) {
	name := firstNonEmpty(e.Name, e.Package, e.ArtifactID)
	version := firstNonEmpty(e.Version, e.InstalledVersion)
	ecosystem := firstNonEmpty(e.Type, e.Ecosystem)

	if e.Purl != "" {
		if parsed, err := packageurl.FromString(e.Purl); err == nil {
			if name == "" {
				name = parsed.Name
				if parsed.Namespace != "" {
					name = parsed.Namespace + "/" + parsed.Name
				}
			}
			if version == "" {
				version = parsed.Version
			}
			if ecosystem == "" {
				ecosystem = parsed.Type
			}
		}
	}

	if name == "" || version == "" {
		return model.Dependency{}, false
	}
	if ecosystem == "" {
		ecosystem = "unknown"
	}

	return model.Dependency{
		PackageName:  name,
		Version:      version,
		Ecosystem:    ecosystem,
		Purl:         e.Purl,
		IsDev:        e.Scope == "dev",
		IsTransitive: e.Transitive,
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
