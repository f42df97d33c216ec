// Package impacted defines the GraphQL types for CVE-to-project matches.
package impacted

import (
	"github.com/graphql-go/graphql"
)

// MatchType represents one match between a project dependency and a CVE
var MatchType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Match",
	Fields: graphql.Fields{
		"match_key":    &graphql.Field{Type: graphql.String},
		"project_key":  &graphql.Field{Type: graphql.String},
		"project_name": &graphql.Field{Type: graphql.String},
		"cve_id":       &graphql.Field{Type: graphql.String},
		"severity":     &graphql.Field{Type: graphql.String},
		"package":      &graphql.Field{Type: graphql.String},
		"version":      &graphql.Field{Type: graphql.String},
		"status":       &graphql.Field{Type: graphql.String},
		"notes":        &graphql.Field{Type: graphql.String},
		"detected_at":  &graphql.Field{Type: graphql.DateTime},
	},
})
