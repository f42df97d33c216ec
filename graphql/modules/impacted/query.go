// Package impacted defines the GraphQL queries for CVE-to-project matches.
package impacted

import (
	"github.com/graphql-go/graphql"

	"github.com/ettoremessina/CveGuardian/database"
	"github.com/ettoremessina/CveGuardian/model"
)

// GetQueryFields returns the match queries to be mounted in the root schema
func GetQueryFields(store *database.ProjectStore) graphql.Fields {
	return graphql.Fields{
		"impacted": &graphql.Field{
			Type: graphql.NewList(MatchType),
			Args: graphql.FieldConfigArgument{
				"projectKey": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				"cveId":      &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				"severity":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				filter := model.MatchFilter{
					ProjectKey:  p.Args["projectKey"].(string),
					CveContains: p.Args["cveId"].(string),
					Severity:    p.Args["severity"].(string),
				}
				return store.ListMatches(p.Context, filter)
			},
		},
	}
}
