// Package stats defines the GraphQL queries for the dashboard summary.
package stats

import (
	"github.com/graphql-go/graphql"

	"github.com/ettoremessina/CveGuardian/database"
)

// GetQueryFields returns the stats query to be mounted in the root schema
func GetQueryFields(store *database.ProjectStore) graphql.Fields {
	return graphql.Fields{
		"stats": &graphql.Field{
			Type: StatsType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				summary, err := store.Stats(p.Context)
				if err != nil {
					return nil, err
				}
				return *summary, nil
			},
		},
	}
}
