// Package store provides data storage interfaces and implementations.
package store

import (
	"context"

	"github.com/vyrodovalexey/catalog-api/internal/model"
)

// Store holds the item collection as a single document.
//
// The contract is snapshot based: callers Load the whole collection, modify
// their private copy and Save the whole collection back. Nothing coordinates
// two writers that interleave Load and Save; the last Save wins.
type Store interface {
	// Load returns a snapshot of the full collection in insertion order.
	Load(ctx context.Context) ([]model.Item, error)

	// Save replaces the full collection.
	Save(ctx context.Context, items []model.Item) error
}
