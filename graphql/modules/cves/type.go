// Package cves defines the GraphQL types for vulnerability records.
package cves

import (
	"github.com/graphql-go/graphql"

	"github.com/ettoremessina/CveGuardian/model"
)

// CVEType represents one vulnerability record from the feed
var CVEType = graphql.NewObject(graphql.ObjectConfig{
	Name: "CVE",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"severity":    &graphql.Field{Type: graphql.String},
		"score": &graphql.Field{
			Type: graphql.Float,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if cve, ok := p.Source.(model.CVE); ok && cve.Score != nil {
					return *cve.Score, nil
				}
				return nil, nil
			},
		},
		"published":     &graphql.Field{Type: graphql.DateTime},
		"last_modified": &graphql.Field{Type: graphql.DateTime},
	},
})

// AffectedItemType represents one vulnerable vendor/product with its version range
var AffectedItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AffectedItem",
	Fields: graphql.Fields{
		"cve_id":                  &graphql.Field{Type: graphql.String},
		"vendor":                  &graphql.Field{Type: graphql.String},
		"product":                 &graphql.Field{Type: graphql.String},
		"cpe":                     &graphql.Field{Type: graphql.String},
		"version_start_including": &graphql.Field{Type: graphql.String},
		"version_start_excluding": &graphql.Field{Type: graphql.String},
		"version_end_including":   &graphql.Field{Type: graphql.String},
		"version_end_excluding":   &graphql.Field{Type: graphql.String},
	},
})
