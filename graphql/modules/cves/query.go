// Package cves defines the GraphQL queries for vulnerability records.
package cves

import (
	"github.com/graphql-go/graphql"

	"github.com/ettoremessina/CveGuardian/database"
)

// GetQueryFields returns the CVE queries to be mounted in the root schema
func GetQueryFields(store *database.VulnStore) graphql.Fields {
	return graphql.Fields{
		"cves": &graphql.Field{
			Type: graphql.NewList(CVEType),
			Args: graphql.FieldConfigArgument{
				"severity": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				"search":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				"offset":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				severity := p.Args["severity"].(string)
				search := p.Args["search"].(string)
				limit := p.Args["limit"].(int)
				offset := p.Args["offset"].(int)
				return ResolveCVEs(p.Context, store, severity, search, limit, offset)
			},
		},
		"cve": &graphql.Field{
			Type: CVEType,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id := p.Args["id"].(string)
				return ResolveCVE(p.Context, store, id)
			},
		},
		"cveAffected": &graphql.Field{
			Type: graphql.NewList(AffectedItemType),
			Args: graphql.FieldConfigArgument{
				"cveId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				cveID := p.Args["cveId"].(string)
				return ResolveAffected(p.Context, store, cveID)
			},
		},
	}
}
