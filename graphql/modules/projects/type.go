// Package projects defines the GraphQL types for tracked projects.
package projects

import (
	"github.com/graphql-go/graphql"

	"github.com/ettoremessina/CveGuardian/model"
)

// ProjectType represents one tracked repository
var ProjectType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Project",
	Fields: graphql.Fields{
		"key": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if proj, ok := p.Source.(model.Project); ok {
					return proj.Key, nil
				}
				return nil, nil
			},
		},
		"name":                &graphql.Field{Type: graphql.String},
		"repo_url":            &graphql.Field{Type: graphql.String},
		"branch":              &graphql.Field{Type: graphql.String},
		"description":         &graphql.Field{Type: graphql.String},
		"last_scan_at":        &graphql.Field{Type: graphql.DateTime},
		"dependency_count":    &graphql.Field{Type: graphql.Int},
		"vulnerability_count": &graphql.Field{Type: graphql.Int},
		"created_at":          &graphql.Field{Type: graphql.DateTime},
	},
})

// DependencyType represents one installed package found by the last scan
var DependencyType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Dependency",
	Fields: graphql.Fields{
		"key": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if dep, ok := p.Source.(model.Dependency); ok {
					return dep.Key, nil
				}
				return nil, nil
			},
		},
		"project_key":   &graphql.Field{Type: graphql.String},
		"package_name":  &graphql.Field{Type: graphql.String},
		"version":       &graphql.Field{Type: graphql.String},
		"ecosystem":     &graphql.Field{Type: graphql.String},
		"purl":          &graphql.Field{Type: graphql.String},
		"is_dev":        &graphql.Field{Type: graphql.Boolean},
		"is_transitive": &graphql.Field{Type: graphql.Boolean},
	},
})
