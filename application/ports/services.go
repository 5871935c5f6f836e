package ports

import (
	"context"

	"github.com/indiafamilytree/familytree/infrastructure/persistence/snapshot"
)

// DataService defines the interface for the remote record store
// This is a port in hexagonal architecture - the sync engine doesn't know about the implementation
type DataService interface {
	// CreatePerson inserts a person record
	CreatePerson(ctx context.Context, record snapshot.PersonRecord) error

	// UpdatePerson overwrites an existing person record
	UpdatePerson(ctx context.Context, record snapshot.PersonRecord) error

	// CreateFamily inserts a family record
	CreateFamily(ctx context.Context, record snapshot.FamilyRecord) error

	// UpdateFamily overwrites an existing family record
	UpdateFamily(ctx context.Context, record snapshot.FamilyRecord) error
}

// BlobStore defines the interface for whole-document snapshot storage
type BlobStore interface {
	// GetSnapshot fetches the stored tree document; a nil slice with nil
	// error means no document exists yet
	GetSnapshot(ctx context.Context) ([]byte, error)

	// PutSnapshot overwrites the stored tree document
	PutSnapshot(ctx context.Context, data []byte) error
}

// GraphMirror defines the interface for the secondary graph projection.
// It speaks the data service's vocabulary (createPerson, updatePerson,
// createFamily, updateFamily); writes are best effort and the sync
// engine never fails a pass on a mirror error.
type GraphMirror interface {
	// Operation forwards one operation with its record payload
	Operation(ctx context.Context, fieldName string, payload interface{}) error
}
