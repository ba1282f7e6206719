package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrReadOnly      = errors.New("store is read-only")
)

// View is a consistent read of the store. Slices are returned sorted and are
// owned by the caller.
type View interface {
	Classifications() []Classification
	RootClassifications() []Classification
	Classification(id string) (Classification, bool)
	ClassificationByAbsoluteCode(code string) (Classification, bool)

	Spaces() []Space
	Space(id string) (Space, bool)
	SpaceByLegacyXID(xid string) (Space, bool)

	Occupations() []Occupation
	Bridges() []Bridge
	BridgeForAllocation(xid string) (Bridge, bool)

	PersistentGroup(xid string) (PersistentGroup, bool)
	LegacySpaces() []LegacySpace
	LegacySpace(xid string) (LegacySpace, bool)
	LegacySpaceInformations() []LegacySpaceInformation
	LegacyClassifications() []LegacyClassification
	LegacyClassification(xid string) (LegacyClassification, bool)
	ResourceAllocations() []ResourceAllocation
}

// Tx is a write transaction. Created entities get an ID when they have none.
type Tx interface {
	View
	CreateClassification(c Classification) (Classification, error)
	SetMetadataSpecs(classificationID string, specs []MetadataSpec) (Classification, error)
	CreateSpace(s Space) (Space, error)
	CreateOccupation(o Occupation) (Occupation, error)
	CreateBridge(b Bridge) (Bridge, error)
}

// Store runs reads and atomic writes against the domain model.
//
// RunInTransaction joins a transaction already carried by ctx; otherwise it
// commits or discards its own. ReadOnly opens a scope whose nested
// RunInTransaction calls each get an independent transaction.
type Store interface {
	View(ctx context.Context, fn func(v View) error) error
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
