// Package stats defines the GraphQL types for the dashboard summary.
package stats

import (
	"github.com/graphql-go/graphql"
)

// StatsType represents the high-level counters for the dashboard cards
var StatsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Stats",
	Fields: graphql.Fields{
		"totalCves":           &graphql.Field{Type: graphql.Int},
		"activeProjects":      &graphql.Field{Type: graphql.Int},
		"compromisedProjects": &graphql.Field{Type: graphql.Int},
		"criticalAlerts":      &graphql.Field{Type: graphql.Int},
		"highAlerts":          &graphql.Field{Type: graphql.Int},
		"mediumAlerts":        &graphql.Field{Type: graphql.Int},
	},
})
