// Package projects defines the GraphQL queries for tracked projects.
package projects

import (
	"github.com/graphql-go/graphql"

	"github.com/ettoremessina/CveGuardian/database"
)

// GetQueryFields returns the project queries to be mounted in the root schema
func GetQueryFields(store *database.ProjectStore) graphql.Fields {
	return graphql.Fields{
		"projects": &graphql.Field{
			Type: graphql.NewList(ProjectType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveProjects(p.Context, store)
			},
		},
		"project": &graphql.Field{
			Type: ProjectType,
			Args: graphql.FieldConfigArgument{
				"key": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				key := p.Args["key"].(string)
				return ResolveProject(p.Context, store, key)
			},
		},
		"projectDependencies": &graphql.Field{
			Type: graphql.NewList(DependencyType),
			Args: graphql.FieldConfigArgument{
				"projectKey": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				projectKey := p.Args["projectKey"].(string)
				return ResolveDependencies(p.Context, store, projectKey)
			},
		},
	}
}
