// Package service holds the business rules between HTTP handlers and the
// repositories: validation, authentication and the recipe aggregate writer.
package service

import "context"

// CollectionResource is an owner-scoped collection that can be listed,
// updated and deleted but not created directly. Tags and ingredients are
// created implicitly by the recipe writer.
type CollectionResource[T, F, U any] interface {
	List(ctx context.Context, userID uint, filter F) ([]T, error)
	Update(ctx context.Context, userID, id uint, in U) (*T, error)
	Delete(ctx context.Context, userID, id uint) error
}

// FullResource adds retrieval and creation.
type FullResource[T, F, C, U any] interface {
	CollectionResource[T, F, U]
	Get(ctx context.Context, userID, id uint) (*T, error)
	Create(ctx context.Context, userID uint, in C) (*T, error)
}
