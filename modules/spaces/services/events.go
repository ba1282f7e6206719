package services

import "github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"

// Publisher receives migration events. *eventbus.Bus satisfies it.
type Publisher interface {
	Publish(event any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(any) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

type ClassificationsImported struct {
	Created int
	Skipped bool
}

type SpaceCreated struct {
	XID     string
	SpaceID string
	Type    domain.SpaceType
}

type BatchCommitted struct {
	Index  int
	Size   int
	Spaces int
}

type BatchFailed struct {
	Index int
	Size  int
	XID   string
	Kind  ErrorKind
	Err   error
}

type OccupationCreated struct {
	OccupationID string
	Spaces       int
}

type BridgeCreated struct {
	AllocationXID string
	Kind          domain.BridgeKind
	SpaceID       string
}

type DocumentExported struct {
	Name    string
	Records int
	Bytes   int
}
