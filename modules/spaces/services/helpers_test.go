package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/infrastructure/persistence"
)

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPublisher) Publish(event any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) count(match func(any) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if match(e) {
			n++
		}
	}
	return n
}

func classificationForest() []ClassificationNode {
	return []ClassificationNode{
		{Name: "Ensino", Code: 1, Childs: []ClassificationNode{
			{Name: "Anfiteatro", Code: 1, Childs: []ClassificationNode{}},
			{Name: "Sala de Aula", Code: 2, Childs: []ClassificationNode{}},
		}},
		{Name: "Apoio ao Ensino", Code: 3, Childs: []ClassificationNode{
			{Name: "Outros", Code: 6, Childs: []ClassificationNode{}},
		}},
		{Name: "Outros Espaços", Code: 11, Childs: []ClassificationNode{}},
	}
}

// newImportedStore returns a memory store holding the classification forest.
func newImportedStore(t *testing.T) *persistence.Store {
	t.Helper()
	store := persistence.NewMemoryStore()
	_, err := NewClassificationImporter(store, nil, nil).Import(context.Background(), classificationForest())
	require.NoError(t, err)
	return store
}

func roomDescriptor(xid string, parent *string, code *string) SpaceDescriptor {
	return SpaceDescriptor{
		ParentExternalID: parent,
		ExternalID:       xid,
		Type:             "Room",
		Informations: []InformationDescriptor{{
			Capacity:           intPtr(30),
			ValidFrom:          "01/01/2010",
			Identification:     strPtr("R-" + xid),
			Name:               strPtr("R-" + xid),
			ClassificationCode: code,
		}},
		Blueprints: []BlueprintDescriptor{},
	}
}

func typedDescriptor(xid string, parent *string, spaceType, name string) SpaceDescriptor {
	return SpaceDescriptor{
		ParentExternalID: parent,
		ExternalID:       xid,
		Type:             spaceType,
		Informations: []InformationDescriptor{{
			ValidFrom: "01/01/2010",
			Name:      strPtr(name),
		}},
		Blueprints: []BlueprintDescriptor{},
	}
}
