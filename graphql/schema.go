// Package graphql assembles the read-only GraphQL schema from the per-domain
// query modules. Mutations stay on the REST surface.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/ettoremessina/CveGuardian/database"
	"github.com/ettoremessina/CveGuardian/graphql/modules/cves"
	"github.com/ettoremessina/CveGuardian/graphql/modules/impacted"
	"github.com/ettoremessina/CveGuardian/graphql/modules/projects"
	"github.com/ettoremessina/CveGuardian/graphql/modules/stats"
)

// NewSchema builds the root query schema over the given stores.
func NewSchema(projectStore *database.ProjectStore, vulnStore *database.VulnStore) (graphql.Schema, error) {
	fields := graphql.Fields{}

	for name, field := range projects.GetQueryFields(projectStore) {
		fields[name] = field
	}
	for name, field := range cves.GetQueryFields(vulnStore) {
		fields[name] = field
	}
	for name, field := range impacted.GetQueryFields(projectStore) {
		fields[name] = field
	}
	for name, field := range stats.GetQueryFields(projectStore) {
		fields[name] = field
	}

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: fields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: rootQuery})
}
