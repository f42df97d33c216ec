// Package projects implements the resolvers for project data.
package projects

import (
	"context"

	"github.com/ettoremessina/CveGuardian/database"
	"github.com/ettoremessina/CveGuardian/model"
)

// ResolveProjects fetches all tracked projects.
func ResolveProjects(ctx context.Context, store *database.ProjectStore) ([]model.Project, error) {
	return store.ListProjects(ctx)
}

// ResolveProject fetches a single project by key. Returns nil when absent so
// the field resolves to null instead of an error.
func ResolveProject(ctx context.Context, store *database.ProjectStore, key string) (interface{}, error) {
	project, err := store.GetProject(ctx, key)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}
	return *project, nil
}

// ResolveDependencies fetches the dependency list recorded by the most recent
// scan of a project.
func ResolveDependencies(ctx context.Context, store *database.ProjectStore, projectKey string) ([]model.Dependency, error) {
	return store.ListDependencies(ctx, projectKey)
}
